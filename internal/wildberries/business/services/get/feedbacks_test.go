package get

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	models "gomarket_feedbacks/internal/wildberries/business/models/get"
	"gomarket_feedbacks/internal/wildberries/pkg/clients"
	"gomarket_feedbacks/metrics"
	"gomarket_feedbacks/pkg/logger"
)

const (
	fb1 = "feedbacks1.test"
	fb2 = "feedbacks2.test"
)

func feedbackURL(host, id string) string {
	return "https://" + host + "/feedbacks/v2/" + id
}

func newTestFeedbackFetcher(getter JSONGetter, breakers *Breakers) *FeedbackFetcher {
	return NewFeedbackFetcher(getter, FeedbackConfig{Hosts: []string{fb1, fb2}}, breakers, nil,
		logger.Nop(), &metrics.MonitorMetrics{})
}

func TestFetchFeedbacks_ImtFirst(t *testing.T) {
	getter := newFakeGetter()
	getter.bodies[feedbackURL(fb1, "555")] = `{"feedbackCount":2,"feedbacks":[{"id":"a"},{"id":"b"}]}`
	getter.bodies[feedbackURL(fb1, "100")] = `{"feedbackCount":9,"feedbacks":[{"id":"z"}]}`

	f := newTestFeedbackFetcher(getter, nil)
	res, err := f.FetchFeedbacks(context.Background(), 100, &models.ProductInfo{NmID: 100, ImtID: 555})
	require.NoError(t, err)
	assert.Equal(t, 2, res.FeedbackCount)
	assert.Len(t, res.Feedbacks, 2)
	assert.Equal(t, []string{feedbackURL(fb1, "555")}, getter.calls)
	assert.Equal(t, "application/json", getter.headers[0].Get("Accept"))
}

func TestFetchFeedbacks_CandidateOrder(t *testing.T) {
	getter := newFakeGetter()
	info := &models.ProductInfo{NmID: 100, ImtID: 555, Colors: []int{100, 201, 202, 203, 204, 205, 206}}

	f := newTestFeedbackFetcher(getter, nil)
	_, err := f.FetchFeedbacks(context.Background(), 100, info)
	require.ErrorIs(t, err, ErrFeedbacksNotFound)

	var want []string
	for _, id := range []string{"555", "100", "201", "202", "203", "204"} {
		want = append(want, feedbackURL(fb1, id), feedbackURL(fb2, id))
	}
	assert.Equal(t, want, getter.calls)
}

func TestFetchFeedbacks_SecondHostAndColorVariant(t *testing.T) {
	getter := newFakeGetter()
	getter.bodies[feedbackURL(fb1, "100")] = `{"feedbackCount":0,"feedbacks":[]}`
	getter.bodies[feedbackURL(fb2, "201")] = `{"feedbackCount":1,"feedbacks":[{"id":"c"}]}`

	f := newTestFeedbackFetcher(getter, nil)
	res, err := f.FetchFeedbacks(context.Background(), 100, &models.ProductInfo{NmID: 100, Colors: []int{100, 201}})
	require.NoError(t, err)
	assert.Len(t, res.Feedbacks, 1)
}

func TestFetchFeedbacks_CountOnlyIsData(t *testing.T) {
	getter := newFakeGetter()
	getter.bodies[feedbackURL(fb1, "100")] = `{"feedbackCount":4,"feedbacks":null}`

	f := newTestFeedbackFetcher(getter, nil)
	res, err := f.FetchFeedbacks(context.Background(), 100, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, res.FeedbackCount)
	assert.Empty(t, res.Feedbacks)
}

func TestFetchFeedbacks_SingleColorNotExpanded(t *testing.T) {
	getter := newFakeGetter()
	f := newTestFeedbackFetcher(getter, nil)

	_, err := f.FetchFeedbacks(context.Background(), 100, &models.ProductInfo{NmID: 100, Colors: []int{300}})
	assert.True(t, IsNotFound(err))
	assert.Len(t, getter.calls, 2)
}

func TestFetchFeedbacks_TransportErrorSkipsHost(t *testing.T) {
	getter := newFakeGetter()
	getter.errs[feedbackURL(fb1, "100")] = errors.New("failed to execute request: EOF")
	getter.bodies[feedbackURL(fb2, "100")] = `{"feedbackCount":1,"feedbacks":[{"id":"a"}]}`

	f := newTestFeedbackFetcher(getter, nil)
	res, err := f.FetchFeedbacks(context.Background(), 100, nil)
	require.NoError(t, err)
	assert.Len(t, res.Feedbacks, 1)
}

func TestFetchFeedbacks_Cancelled(t *testing.T) {
	getter := newFakeGetter()
	f := newTestFeedbackFetcher(getter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchFeedbacks(ctx, 100, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsNotFound(err))
}

func TestFetchFeedbacks_OpenBreakerSkipsHost(t *testing.T) {
	getter := newFakeGetter()
	getter.errs[feedbackURL(fb1, "100")] = &clients.StatusError{URL: fb1, StatusCode: http.StatusBadGateway}
	getter.bodies[feedbackURL(fb2, "100")] = `{"feedbackCount":1,"feedbacks":[{"id":"a"}]}`

	breakers := NewBreakers(BreakerSettings{
		MinRequests:  2,
		FailureRatio: 0.5,
		Interval:     time.Minute,
		OpenTimeout:  time.Minute,
	}, logger.Nop())
	f := newTestFeedbackFetcher(getter, breakers)

	for i := 0; i < 3; i++ {
		_, err := f.FetchFeedbacks(context.Background(), 100, nil)
		require.NoError(t, err)
	}

	fb1Calls := 0
	for _, c := range getter.calls {
		if c == feedbackURL(fb1, "100") {
			fb1Calls++
		}
	}
	assert.Equal(t, 2, fb1Calls)
}

func TestFetchFeedbacks_UsesLimiter(t *testing.T) {
	getter := newFakeGetter()
	getter.bodies[feedbackURL(fb1, "100")] = `{"feedbackCount":1,"feedbacks":[{"id":"a"}]}`

	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	f := NewFeedbackFetcher(getter, FeedbackConfig{Hosts: []string{fb1}}, nil, limiter, logger.Nop(), nil)

	_, err := f.FetchFeedbacks(context.Background(), 100, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.FetchFeedbacks(ctx, 100, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, IsNotFound(err))
	assert.Len(t, getter.calls, 1)
}

// stallingGetter answers only once the caller's context is done.
type stallingGetter struct{}

func (stallingGetter) GetJSON(ctx context.Context, _ string, _ http.Header, _ interface{}) error {
	<-ctx.Done()
	return fmt.Errorf("request was cancelled: %w", ctx.Err())
}

func TestFetchFeedbacks_CallerDeadlineKeepsBreakerClosed(t *testing.T) {
	breakers := NewBreakers(BreakerSettings{
		MinRequests:  1,
		FailureRatio: 0.5,
		Interval:     time.Minute,
		OpenTimeout:  time.Minute,
	}, logger.Nop())
	f := NewFeedbackFetcher(stallingGetter{}, FeedbackConfig{Hosts: []string{fb1}}, breakers, nil, logger.Nop(), nil)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := f.FetchFeedbacks(ctx, 100, nil)
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}

	cb := breakers.For(fb1)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Zero(t, cb.Counts().TotalFailures)
}

func TestHostHealthy(t *testing.T) {
	assert.True(t, hostHealthy(nil))
	assert.True(t, hostHealthy(context.Canceled))
	assert.True(t, hostHealthy(fmt.Errorf("%w: %w", errCallerDone, context.DeadlineExceeded)))
	assert.False(t, hostHealthy(fmt.Errorf("failed to execute request: %w", context.DeadlineExceeded)))
	assert.True(t, hostHealthy(&clients.StatusError{StatusCode: http.StatusNotFound}))
	assert.False(t, hostHealthy(&clients.StatusError{StatusCode: http.StatusServiceUnavailable}))
	assert.False(t, hostHealthy(errors.New("dial tcp: i/o timeout")))
}
