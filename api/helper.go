package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/thisisjab/herdcomp/fault"
)

// Command bodies are one line of text, so anything past this is rejected.
const maxBodyBytes = 65_536

// apiResponse is the envelope of every JSON answer. ErrorKind carries the
// fault code of a failed request or command.
type apiResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	ErrorKind fault.Code     `json:"errorKind,omitempty"`
	Data      any            `json:"data,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// readJson decodes exactly one JSON value with no unknown keys into dst.
func (s *server) readJson(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fault.New(fault.BadInputCode, "Body must only contain a single JSON value.")
	}

	return nil
}

// bodyError turns a decoder error into a bad input fault the client can act on.
func bodyError(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var invalidUnmarshalError *json.InvalidUnmarshalError
	var maxBytesError *http.MaxBytesError

	switch {
	case errors.As(err, &syntaxError):
		return fault.New(fault.BadInputCode, fmt.Sprintf("Body contains badly-formed JSON at character %d.", syntaxError.Offset))

	case errors.Is(err, io.ErrUnexpectedEOF):
		return fault.New(fault.BadInputCode, "Body contains badly-formed JSON.")

	case errors.As(err, &unmarshalTypeError):
		if unmarshalTypeError.Field == "" {
			return fault.New(fault.BadInputCode, fmt.Sprintf("Body contains badly-formed JSON at character %d.", unmarshalTypeError.Offset))
		}

		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
			unmarshalTypeError.Field: []string{fmt.Sprintf("Expected type %s.", unmarshalTypeError.Type.String())},
		})

	case errors.Is(err, io.EOF):
		return fault.New(fault.BadInputCode, "Body cannot be empty.")

	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)

		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
			field: []string{"Key is unknown."},
		})

	case errors.As(err, &maxBytesError):
		return fault.New(fault.BadInputCode, fmt.Sprintf("Body must not be larger than %d bytes.", maxBytesError.Limit))

	case errors.As(err, &invalidUnmarshalError):
		// dst is always a pointer from a handler, anything else is a bug.
		panic(err)

	default:
		return err
	}
}

// ok writes a successful envelope around data.
func (s *server) ok(w http.ResponseWriter, data any) {
	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: data}, nil) //nolint:errcheck
}

func (s *server) writeJson(w http.ResponseWriter, status int, data apiResponse, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	js = append(js, '\n')
	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js) //nolint:errcheck

	return nil
}
