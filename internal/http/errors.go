package http

import (
	"net/http"

	"budge/internal/core"
	"budge/internal/log"
)

// statusFor maps a failure kind to its HTTP status. Missing and foreign
// resources share 404 so ownership is never revealed.
func statusFor(kind core.Kind) int {
	switch kind {
	case core.Unauthenticated:
		return http.StatusUnauthorized
	case core.NotFound, core.Forbidden:
		return http.StatusNotFound
	case core.InvalidArgument, core.PreconditionFailed, core.Conflict:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": message}. Server-side failures are
// logged with their cause and reported with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(core.KindOf(err))
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldUserID, userIDFrom(r.Context()),
			log.FieldError, err)
		InternalServerError().Write(w)
		return
	}

	log.FromContext(r.Context()).DebugContext(r.Context(), "Request rejected",
		log.FieldPath, r.URL.Path,
		log.FieldStatusCode, status,
		log.FieldError, err)
	ErrorResponse(status, core.MessageOf(err)).Write(w)
}
