package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"gomarket_feedbacks/metrics"
	"gomarket_feedbacks/pkg/logger"
)

// PrometheusMiddleware оборачивает HTTP-обработчик для сбора метрик.
// The chi route pattern is used as the endpoint label so /feedbacks/{sku}
// doesn't explode label cardinality.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordRequest(r.Method, endpoint, status, time.Since(start))
	})
}

// RequestLogger tags the request context with an id (reusing chi's X-Request-Id
// when present) and logs start and completion.
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := chimiddleware.GetReqID(r.Context())
			if id == "" {
				id = logger.NewRequestID()
			}
			ctx := logger.ContextWithRequestID(r.Context(), id)
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLog := logger.FromContext(ctx, log)
			reqLog.Debug("Started %s %s", r.Method, r.URL.Path)
			next.ServeHTTP(ww, r.WithContext(ctx))
			reqLog.Log("Completed %s %s -> %d in %v", r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}
