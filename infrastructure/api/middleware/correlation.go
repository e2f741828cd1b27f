package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/helixml/greenhouse/internal/log"
)

// CorrelationIDHeader carries the correlation ID in requests and responses.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID stores a correlation ID in the request context so log
// records carry it. The ID comes from the request header, then from chi's
// request ID, and is generated when neither is set.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = middleware.GetReqID(r.Context())
		}
		if id == "" {
			id = log.NewCorrelationID()
		}

		w.Header().Set(CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(log.WithCorrelationID(r.Context(), id)))
	})
}
