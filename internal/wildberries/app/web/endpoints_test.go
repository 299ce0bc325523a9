package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomarket_feedbacks/config"
	"gomarket_feedbacks/config/values"
	"gomarket_feedbacks/internal/wildberries/app/web/handlers"
	models "gomarket_feedbacks/internal/wildberries/business/models/get"
	"gomarket_feedbacks/internal/wildberries/business/services/monitor"
	"gomarket_feedbacks/pkg/logger"
)

type stubRunner struct{}

func (stubRunner) Run(_ context.Context, req monitor.Request) (*monitor.Result, error) {
	return &monitor.Result{NmID: req.NmID, RatingThreshold: req.RatingThreshold, DaysPeriod: req.DaysPeriod}, nil
}

type stubReader struct{}

func (stubReader) CountByNmID(context.Context, int) (int, error) { return 0, nil }

func (stubReader) ListByNmID(context.Context, int) ([]models.FeedbackRecord, error) {
	return nil, nil
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

func newTestRouter(cfg config.ServerConfig) http.Handler {
	log := logger.Nop()
	return SetupRoutes(cfg, log, Handlers{
		Monitor:   handlers.NewMonitorHandler(stubRunner{}, values.MonitorValues{RatingThreshold: 3, DaysPeriod: 3}, log),
		Feedbacks: handlers.NewFeedbacksHandler(stubReader{}, log),
		Health:    handlers.NewHealthHandler(stubPinger{}, log),
	})
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		CORSOrigins:       []string{"*"},
		RequestTimeout:    time.Minute,
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
	}
}

func monitorRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/monitor", strings.NewReader(url.Values{"sku": {"1"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "10.0.0.1:5555"
	return req
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(testServerConfig())

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/feedbacks/123", http.StatusOK},
		{http.MethodGet, "/feedbacks/abc", http.StatusBadRequest},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/monitor", http.StatusMethodNotAllowed},
		{http.MethodGet, "/unknown", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestRoutes_MonitorRateLimited(t *testing.T) {
	router := newTestRouter(testServerConfig())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, monitorRequest())
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, monitorRequest())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRoutes_CORSPreflight(t *testing.T) {
	router := newTestRouter(testServerConfig())

	req := httptest.NewRequest(http.MethodOptions, "/monitor", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
