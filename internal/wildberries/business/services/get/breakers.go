package get

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"gomarket_feedbacks/internal/wildberries/business/models/dto/response"
	"gomarket_feedbacks/internal/wildberries/pkg/clients"
	"gomarket_feedbacks/metrics"
	"gomarket_feedbacks/pkg/logger"
)

type BreakerSettings struct {
	// MinRequests before the failure ratio is considered.
	MinRequests  uint32
	FailureRatio float64
	Interval     time.Duration
	OpenTimeout  time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MinRequests:  10,
		FailureRatio: 0.6,
		Interval:     time.Minute,
		OpenTimeout:  time.Minute,
	}
}

// Breakers keeps one circuit breaker per feedback host for the life of the process.
type Breakers struct {
	mu       sync.Mutex
	settings BreakerSettings
	log      logger.Logger
	byHost   map[string]*gobreaker.CircuitBreaker[*response.FeedbackResponse]
}

func NewBreakers(settings BreakerSettings, log logger.Logger) *Breakers {
	return &Breakers{
		settings: settings,
		log:      log,
		byHost:   make(map[string]*gobreaker.CircuitBreaker[*response.FeedbackResponse]),
	}
}

func (b *Breakers) For(host string) *gobreaker.CircuitBreaker[*response.FeedbackResponse] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.byHost[host]; ok {
		return cb
	}
	name := "feedbacks:" + host
	metrics.SetCircuitBreakerState(name, 0)
	cb := gobreaker.NewCircuitBreaker[*response.FeedbackResponse](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    b.settings.Interval,
		Timeout:     b.settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= b.settings.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn("Circuit breaker %s: %s -> %s", name, from, to)
			metrics.SetCircuitBreakerState(name, stateToFloat(to))
		},
		IsSuccessful: hostHealthy,
	})
	b.byHost[host] = cb
	return cb
}

// errCallerDone marks a request cut short by the caller's context, whether
// cancelled or past its deadline.
var errCallerDone = errors.New("caller context done")

// hostHealthy decides what counts against a host: a 4xx answer or the caller
// giving up says nothing about the host being down. A per-call client timeout
// with the caller still waiting does count.
func hostHealthy(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, errCallerDone) || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *clients.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusBadRequest && statusErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

func isRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
