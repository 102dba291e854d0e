package api

import "net/http"

func (s *server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if s.services.Storage == nil {
		s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
			Success: true,
			Message: "OK",
		}, nil)
		return
	}

	data := map[string]any{"storage": s.services.Storage.Name()}

	if err := s.services.Storage.Connect(r.Context()); err != nil {
		s.logger.Warn("storage is unreachable", "storage", s.services.Storage.Name(), "error", err)
		s.writeJson(w, http.StatusServiceUnavailable, apiResponse{ //nolint:errcheck
			Success: false,
			Message: "Storage is unreachable.",
			Data:    data,
		}, nil)
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Message: "OK",
		Data:    data,
	}, nil)
}
