package monitor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"gomarket_feedbacks/internal/wildberries/business/services"
	"gomarket_feedbacks/internal/wildberries/business/services/get"
	"gomarket_feedbacks/internal/wildberries/pkg/clients"
	"gomarket_feedbacks/metrics"
	"gomarket_feedbacks/pkg/logger"
)

type Config struct {
	Probe    get.ProberConfig
	Feedback get.FeedbackConfig
}

type Request struct {
	NmID            int
	RatingThreshold int
	DaysPeriod      int
}

type Result struct {
	NmID            int
	ImtID           int
	Saved           int
	Total           int
	RatingThreshold int
	DaysPeriod      int
}

// SaverFactory builds the saver of one run around that run's counters.
type SaverFactory func(m *metrics.MonitorMetrics) services.BadFeedbackSaver

// Monitor runs the whole lookup for one product: shard, card, feedbacks,
// then the bad-feedback save. Breakers and the limiter are shared between
// runs; HTTP sessions and counters are not.
type Monitor struct {
	clients  *clients.Factory
	cfg      Config
	breakers *get.Breakers
	limiter  *rate.Limiter
	newSaver SaverFactory
	reader   services.FeedbackReader
	log      logger.Logger
}

func NewMonitor(
	factory *clients.Factory,
	cfg Config,
	breakers *get.Breakers,
	limiter *rate.Limiter,
	newSaver SaverFactory,
	reader services.FeedbackReader,
	log logger.Logger,
) *Monitor {
	return &Monitor{
		clients:  factory,
		cfg:      cfg,
		breakers: breakers,
		limiter:  limiter,
		newSaver: newSaver,
		reader:   reader,
		log:      log,
	}
}

// Run returns get.ErrNotFound-wrapped errors when the product or its feedbacks
// cannot be located; storage is not touched in that case.
func (m *Monitor) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx, m.log)
	log.Log("Monitoring %d: rating <= %d, last %d days", req.NmID, req.RatingThreshold, req.DaysPeriod)

	session := m.clients.New()
	defer session.Close()

	runMetrics := &metrics.MonitorMetrics{}
	prober := get.NewShardProber(session, m.cfg.Probe, log, runMetrics)
	cards := get.NewCardFetcher(session, prober, m.cfg.Probe.Scheme, log)
	feedbacks := get.NewFeedbackFetcher(session, m.cfg.Feedback, m.breakers, m.limiter, log, runMetrics)

	info, err := cards.FetchProductInfo(ctx, req.NmID)
	if err != nil {
		return nil, err
	}

	batch, err := feedbacks.FetchFeedbacks(ctx, req.NmID, info)
	if err != nil {
		return nil, err
	}

	imtID := info.GroupID(req.NmID)
	saver := m.newSaver(runMetrics)
	saved, err := saver.SaveBadFeedbacks(ctx, batch, req.NmID, imtID, req.RatingThreshold, req.DaysPeriod)
	if err != nil {
		return nil, err
	}

	total, err := m.reader.CountByNmID(ctx, req.NmID)
	if err != nil {
		return nil, fmt.Errorf("count feedbacks: %w", err)
	}

	log.Log("Monitoring %d done in %s: saved %d, total %d, probes %d (%d failed), feedback lookups %d, "+
		"filtered %d, duplicates %d, malformed %d",
		req.NmID, time.Since(start).Round(time.Millisecond), saved, total,
		runMetrics.ProbedCount.Load(), runMetrics.FailedProbes.Load(), runMetrics.FeedbackLookups.Load(),
		runMetrics.FilteredOut.Load(), runMetrics.DuplicateCount.Load(), runMetrics.MalformedCount.Load())

	return &Result{
		NmID:            req.NmID,
		ImtID:           imtID,
		Saved:           saved,
		Total:           total,
		RatingThreshold: req.RatingThreshold,
		DaysPeriod:      req.DaysPeriod,
	}, nil
}
