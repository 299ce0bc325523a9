package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomarket_feedbacks/config/values"
	models "gomarket_feedbacks/internal/wildberries/business/models/get"
	"gomarket_feedbacks/internal/wildberries/business/services/get"
	"gomarket_feedbacks/internal/wildberries/business/services/monitor"
	"gomarket_feedbacks/pkg/logger"
)

var testDefaults = values.MonitorValues{RatingThreshold: 3, DaysPeriod: 3}

type fakeRunner struct {
	got   *monitor.Request
	res   *monitor.Result
	err   error
	calls int
}

func (f *fakeRunner) Run(_ context.Context, req monitor.Request) (*monitor.Result, error) {
	f.calls++
	f.got = &req
	if f.err != nil {
		return nil, f.err
	}
	if f.res != nil {
		return f.res, nil
	}
	return &monitor.Result{NmID: req.NmID, Saved: 2, Total: 5, RatingThreshold: req.RatingThreshold, DaysPeriod: req.DaysPeriod}, nil
}

func postForm(t *testing.T, h *MonitorHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/monitor", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.PostMonitorHandler(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPostMonitor_Defaults(t *testing.T) {
	runner := &fakeRunner{}
	h := NewMonitorHandler(runner, testDefaults, logger.Nop())

	rec := postForm(t, h, url.Values{"sku": {"1234567"}})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[MonitorResponse](t, rec)
	assert.Equal(t, "Monitoring started for product 1234567", body.Message)
	assert.Equal(t, 2, body.SavedFeedbacks)
	assert.Equal(t, 5, body.TotalFeedbacks)
	assert.Equal(t, 3, body.MinRating)
	assert.Equal(t, 3, body.DaysPeriod)
	assert.Equal(t, monitor.Request{NmID: 1234567, RatingThreshold: 3, DaysPeriod: 3}, *runner.got)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestPostMonitor_ExplicitValues(t *testing.T) {
	runner := &fakeRunner{}
	h := NewMonitorHandler(runner, testDefaults, logger.Nop())

	rec := postForm(t, h, url.Values{"sku": {"42"}, "min_rating": {"2"}, "days_period": {"14"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, monitor.Request{NmID: 42, RatingThreshold: 2, DaysPeriod: 14}, *runner.got)
}

func TestPostMonitor_InvalidForm(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"missing sku", url.Values{}},
		{"non integer sku", url.Values{"sku": {"abc"}}},
		{"zero sku", url.Values{"sku": {"0"}}},
		{"rating too high", url.Values{"sku": {"1"}, "min_rating": {"6"}}},
		{"rating too low", url.Values{"sku": {"1"}, "min_rating": {"0"}}},
		{"days not positive", url.Values{"sku": {"1"}, "days_period": {"0"}}},
		{"days not integer", url.Values{"sku": {"1"}, "days_period": {"week"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			h := NewMonitorHandler(runner, testDefaults, logger.Nop())

			rec := postForm(t, h, tt.form)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[errorResponse](t, rec).Detail)
			assert.Zero(t, runner.calls)
		})
	}
}

func TestPostMonitor_NotFound(t *testing.T) {
	tests := []struct {
		err    error
		detail string
	}{
		{fmt.Errorf("%w: /vol1/part1", get.ErrShardNotFound), "Product 7 not found"},
		{get.ErrProductNotFound, "Product 7 not found"},
		{get.ErrFeedbacksNotFound, "Feedbacks not found"},
	}
	for _, tt := range tests {
		h := NewMonitorHandler(&fakeRunner{err: tt.err}, testDefaults, logger.Nop())
		rec := postForm(t, h, url.Values{"sku": {"7"}})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, decode[errorResponse](t, rec).Detail, tt.detail)
	}
}

func TestPostMonitor_InternalError(t *testing.T) {
	h := NewMonitorHandler(&fakeRunner{err: errors.New("persist feedbacks: connection reset")}, testDefaults, logger.Nop())

	rec := postForm(t, h, url.Values{"sku": {"7"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Detail, "connection reset")
}

type fakeReader struct {
	records []models.FeedbackRecord
	err     error
}

func (f *fakeReader) CountByNmID(context.Context, int) (int, error) {
	return len(f.records), f.err
}

func (f *fakeReader) ListByNmID(context.Context, int) ([]models.FeedbackRecord, error) {
	return f.records, f.err
}

func getFeedbacks(h *FeedbacksHandler, sku string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/feedbacks/{sku}", h.GetFeedbacksHandler)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feedbacks/"+sku, nil))
	return rec
}

func TestGetFeedbacks(t *testing.T) {
	created := time.Date(2025, 3, 9, 8, 30, 0, 0, time.UTC)
	reader := &fakeReader{records: []models.FeedbackRecord{
		{FeedbackID: "f2", ProductValuation: 1, Text: "broke", UserName: "Anna", Color: "red",
			CreatedDate: created, HasPhoto: true},
		{FeedbackID: "f1", ProductValuation: 2, CreatedDate: created.Add(-time.Hour + 1500*time.Microsecond)},
	}}
	h := NewFeedbacksHandler(reader, logger.Nop())

	rec := getFeedbacks(h, "1234567")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[FeedbacksResponse](t, rec)
	assert.Equal(t, 1234567, body.SKU)
	assert.Equal(t, 2, body.TotalFeedbacks)
	require.Len(t, body.Feedbacks, 2)
	assert.Equal(t, FeedbackItem{
		ID: "f2", Rating: 1, Text: "broke", UserName: "Anna", Color: "red",
		CreatedDate: "2025-03-09T08:30:00", HasPhoto: true,
	}, body.Feedbacks[0])
	assert.Equal(t, "2025-03-09T07:30:00.001500", body.Feedbacks[1].CreatedDate)
}

func TestGetFeedbacks_Empty(t *testing.T) {
	h := NewFeedbacksHandler(&fakeReader{}, logger.Nop())

	rec := getFeedbacks(h, "5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sku":5,"total_feedbacks":0,"feedbacks":[]}`, rec.Body.String())
}

func TestGetFeedbacks_BadSKU(t *testing.T) {
	h := NewFeedbacksHandler(&fakeReader{}, logger.Nop())
	assert.Equal(t, http.StatusBadRequest, getFeedbacks(h, "abc").Code)
}

func TestGetFeedbacks_StorageError(t *testing.T) {
	h := NewFeedbacksHandler(&fakeReader{err: errors.New("relation does not exist")}, logger.Nop())

	rec := getFeedbacks(h, "5")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Detail, "relation does not exist")
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name string
		db   Pinger
		want string
	}{
		{"database up", fakePinger{}, `{"status":"ok","service":"wb-feedback-monitor","database":"ok"}`},
		{"database down", fakePinger{err: errors.New("refused")}, `{"status":"ok","service":"wb-feedback-monitor","database":"unavailable"}`},
		{"no database", nil, `{"status":"ok","service":"wb-feedback-monitor","database":"unavailable"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.db, logger.Nop())
			rec := httptest.NewRecorder()
			h.GetHealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.want, rec.Body.String())
		})
	}
}
