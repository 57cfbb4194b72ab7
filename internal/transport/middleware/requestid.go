package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/jtoledo/betriebsportal/pkg/logger"
)

// RequestID tags every request with a trace ID, honoring one supplied by the
// caller, and makes it available to the request-scoped logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "traceID", traceID)

		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
