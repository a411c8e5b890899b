package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID issues a correlation ID for every request. The ID is stored in
// the request context, echoed in the X-Request-ID response header, and
// attached as the request_id field to every auth event logged downstream —
// bearer verification failures, reuse detections, rotations. It is what ties
// a security incident in the logs back to a single device's call.
//
// A client-supplied X-Request-ID is honoured only when it parses as a UUID,
// so multi-hop deployments keep one ID per credential exchange without
// letting callers inject arbitrary strings into the audit trail.
//
// Run this middleware first: everything after it (metrics, logging, bearer
// auth, the error mapper) reads the ID from the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(SetRequestID(r.Context(), requestID)))
	})
}
