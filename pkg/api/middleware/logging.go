package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-genremap/pkg/logging"
)

// Logging creates middleware that logs each request with its status and
// latency. getRequestID may be nil.
func Logging(logger logging.Logger, getRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.Path(r.URL.Path),
				logging.Int("status", sw.statusCode),
				logging.Int("bytes", sw.bytesWritten),
				logging.Latency(time.Since(start)),
			}
			if getRequestID != nil {
				if id := getRequestID(r); id != "" {
					fields = append(fields, logging.String("request_id", id))
				}
			}

			if sw.statusCode >= http.StatusInternalServerError {
				logger.Warn("http request", fields...)
				return
			}
			logger.Debug("http request", fields...)
		})
	}
}
