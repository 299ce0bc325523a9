package get

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"gomarket_feedbacks/internal/wildberries/business/models/dto/response"
	models "gomarket_feedbacks/internal/wildberries/business/models/get"
	"gomarket_feedbacks/metrics"
	"gomarket_feedbacks/pkg/logger"
)

const (
	feedbacksPath           = "/feedbacks/v2/%d"
	DefaultMaxColorVariants = 5
)

// Accept-Encoding is left to the transport so gzip is decoded transparently.
var feedbackHeaders = http.Header{"Accept": []string{"application/json"}}

type FeedbackConfig struct {
	Scheme           string
	Hosts            []string
	MaxColorVariants int
}

type FeedbackFetcher struct {
	client   JSONGetter
	cfg      FeedbackConfig
	breakers *Breakers
	limiter  *rate.Limiter
	log      logger.Logger
	metrics  *metrics.MonitorMetrics
}

func NewFeedbackFetcher(
	client JSONGetter,
	cfg FeedbackConfig,
	breakers *Breakers,
	limiter *rate.Limiter,
	log logger.Logger,
	m *metrics.MonitorMetrics,
) *FeedbackFetcher {
	if cfg.Scheme == "" {
		cfg.Scheme = "https"
	}
	if cfg.MaxColorVariants <= 0 {
		cfg.MaxColorVariants = DefaultMaxColorVariants
	}
	if breakers == nil {
		breakers = NewBreakers(DefaultBreakerSettings(), log)
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if m == nil {
		m = &metrics.MonitorMetrics{}
	}
	return &FeedbackFetcher{client: client, cfg: cfg, breakers: breakers, limiter: limiter, log: log, metrics: m}
}

type feedbackCandidate struct {
	kind string
	id   int
}

// candidates lists the ids to ask the feedback API for, in priority order:
// the imt group, the product itself, then its first colour variants.
func (f *FeedbackFetcher) candidates(nmID int, info *models.ProductInfo) []feedbackCandidate {
	var out []feedbackCandidate
	if info != nil && info.ImtID > 0 {
		out = append(out, feedbackCandidate{kind: "imt_id", id: info.ImtID})
	}
	out = append(out, feedbackCandidate{kind: "nm_id", id: nmID})

	if info == nil || len(info.Colors) <= 1 {
		return out
	}
	colors := info.Colors
	if len(colors) > f.cfg.MaxColorVariants {
		colors = colors[:f.cfg.MaxColorVariants]
	}
	for _, colorID := range colors {
		if colorID != nmID {
			out = append(out, feedbackCandidate{kind: "color nm_id", id: colorID})
		}
	}
	return out
}

// FetchFeedbacks returns the first response that carries data. Such a response
// may still have an empty feedback list when only feedbackCount is positive.
func (f *FeedbackFetcher) FetchFeedbacks(ctx context.Context, nmID int, info *models.ProductInfo) (*response.FeedbackResponse, error) {
	for _, c := range f.candidates(nmID, info) {
		f.log.Log("Checking feedbacks for %s %d", c.kind, c.id)
		f.metrics.FeedbackLookups.Add(1)

		data, err := f.fetchByID(ctx, c.id)
		if err != nil {
			return nil, err
		}
		if data != nil {
			return data, nil
		}
	}

	f.log.Warn("Feedbacks not found for nm_id %d nor its variants", nmID)
	return nil, fmt.Errorf("%w: nm_id %d", ErrFeedbacksNotFound, nmID)
}

// fetchByID asks each host in turn. A nil result with a nil error means no
// host had data; an error is returned only when ctx is done.
func (f *FeedbackFetcher) fetchByID(ctx context.Context, id int) (*response.FeedbackResponse, error) {
	for _, host := range f.cfg.Hosts {
		if err := f.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// The limiter refuses up front when the wait would outlast the deadline.
			return nil, fmt.Errorf("rate limiter: %w", context.DeadlineExceeded)
		}

		url := fmt.Sprintf("%s://%s"+feedbacksPath, f.cfg.Scheme, host, id)
		data, err := f.breakers.For(host).Execute(func() (*response.FeedbackResponse, error) {
			var r response.FeedbackResponse
			if err := f.client.GetJSON(ctx, url, feedbackHeaders, &r); err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("%w: %w", errCallerDone, err)
				}
				return nil, err
			}
			return &r, nil
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			outcome := "error"
			if isRejected(err) {
				outcome = "rejected"
			}
			metrics.RecordFeedbackRequest(host, outcome)
			f.log.Debug("Feedbacks %s for %d: %v", host, id, err)
			continue
		}

		if data.HasData() {
			metrics.RecordFeedbackRequest(host, "found")
			f.log.Log("Found feedbacks on %s for %d: count=%d, entries=%d", host, id, data.FeedbackCount, len(data.Feedbacks))
			return data, nil
		}
		metrics.RecordFeedbackRequest(host, "empty")
		f.log.Debug("Feedbacks %s for %d: empty", host, id)
	}
	return nil, nil
}

// IsNotFound reports whether err is one of the not-found outcomes.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
