package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mideind/straeto/internal/logging"
)

// responseWriter records the status code and body size of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

// NewRequestLoggingMiddleware creates middleware that logs HTTP requests.
// Each observer is handed the status code of every completed request.
func NewRequestLoggingMiddleware(logger *slog.Logger, observers ...func(status int)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := logging.WithLogger(r.Context(), logger)
			r = r.WithContext(ctx)

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			logging.LogHTTPRequest(logger,
				r.Method,
				r.URL.Path,
				wrapped.statusCode,
				float64(duration.Nanoseconds())/1e6,
				slog.Int("bytes", wrapped.written),
				slog.String("user_agent", r.Header.Get("User-Agent")),
				slog.String("component", "http_server"))

			for _, observe := range observers {
				observe(wrapped.statusCode)
			}
		})
	}
}
