package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/filmhub/filmhub-core/internal/domain/shared"
)

// errorStatus maps a domain error kind to the HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsInvalidArgument(err):
		return http.StatusBadRequest, "invalid_argument"
	case shared.IsAlreadyExists(err):
		return http.StatusConflict, "already_exists"
	case shared.IsUnavailable(err):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError writes err as a JSON error. The domain message is exposed for
// client errors only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	message := err.Error()
	var de *shared.DomainError
	if errors.As(err, &de) {
		message = de.Message
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", getRequestID(r.Context())),
			slog.String("error", err.Error()),
		)
		message = http.StatusText(status)
	}

	writeJSONError(w, status, code, message)
}

// badRequest builds an InvalidArgument error for malformed input.
func badRequest(format string, args ...any) error {
	return shared.InvalidArgumentf("http", "decode", format, args...)
}
