package api

import (
	"errors"
	"net/http"

	"github.com/thisisjab/herdcomp/fault"
)

var statusByCode = map[fault.Code]int{
	fault.ParseCode:            http.StatusBadRequest,
	fault.BadInputCode:         http.StatusBadRequest,
	fault.ValidationCode:       http.StatusUnprocessableEntity,
	fault.AuthCode:             http.StatusUnauthorized,
	fault.PermissionDeniedCode: http.StatusForbidden,
	fault.NotFoundCode:         http.StatusNotFound,
	fault.NotImplementedCode:   http.StatusNotImplemented,
	fault.BackendCode:          http.StatusBadGateway,
}

func (s *server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var f fault.Fault
	if !errors.As(err, &f) {
		s.internalServerError(w, r, err)
		return
	}

	status, ok := statusByCode[f.Code()]
	if !ok {
		s.internalServerError(w, r, f)
		return
	}

	res := apiResponse{Success: false, Message: f.Message(), ErrorKind: f.Code()}

	switch md := f.Metadata().(type) {
	case nil:
	case fault.FieldErrorsMetadata:
		// Field level errors are a 422 whatever the code.
		status = http.StatusUnprocessableEntity
		res.Metadata = map[string]any{"fields": md}
	default:
		res.Metadata = map[string]any{"context": md}
	}

	if res.Message == "" {
		res.Message = http.StatusText(status)
	}

	if status == http.StatusBadGateway {
		s.logError(w, r, err)
	}

	s.writeError(w, r, status, res)
}

func (s *server) logError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal server error", "method", r.Method, "path", r.RequestURI, "remote-addr", r.RemoteAddr, "request-id", requestID(r.Context()), "error", err)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, response apiResponse) {
	s.writeJson(w, status, response, nil) //nolint:errcheck
}

func (s *server) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(w, r, err)
	s.writeError(w, r, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error", ErrorKind: fault.UnknownCode})
}

func (s *server) unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	s.handleError(w, r, fault.New(fault.AuthCode, message))
}
