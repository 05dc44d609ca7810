package serve

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored in the context by
// RequestID. Returns an empty string if no ID is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// HeaderName overrides the header used to propagate the request ID.
	// Defaults to "X-Request-ID" when empty.
	HeaderName string

	// TrustIncoming, when true, reuses an existing request ID from the
	// incoming request header instead of generating a new one.
	TrustIncoming bool
}

// RequestID returns a middleware that generates or propagates a request
// ID header. The ID is set on both the request (for downstream handlers)
// and the response (for the caller).
func RequestID(cfg RequestIDConfig) func(http.Handler) http.Handler {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = "X-Request-ID"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cfg.TrustIncoming {
				id = r.Header.Get(headerName)
			}
			if id == "" {
				id = uuid.New().String()
			}

			r.Header.Set(headerName, id)
			w.Header().Set(headerName, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

			next.ServeHTTP(w, r)
		})
	}
}
