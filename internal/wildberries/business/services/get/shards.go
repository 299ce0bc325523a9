package get

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"gomarket_feedbacks/metrics"
	"gomarket_feedbacks/pkg/logger"
)

const (
	PrimaryFamily = "basket"
	StaticFamily  = "static-basket"

	DefaultProbeWorkers = 10
)

// HostFamily is a run of numbered basket hosts: {Name}-00 .. {Name}-{Count-1}.
type HostFamily struct {
	Name  string
	Count int
}

func (f HostFamily) Host(index int, domain string) string {
	return fmt.Sprintf("%s-%02d.%s", f.Name, index, domain)
}

// DefaultFamilies returns the families in probe priority order.
func DefaultFamilies(primary, static int) []HostFamily {
	families := []HostFamily{{Name: PrimaryFamily, Count: primary}}
	if static > 0 {
		families = append(families, HostFamily{Name: StaticFamily, Count: static})
	}
	return families
}

type Shard struct {
	Family string
	Index  int
	Host   string
}

func (s Shard) URL(scheme, path string) string {
	return fmt.Sprintf("%s://%s%s", scheme, s.Host, path)
}

type ProbeOutcome int

const (
	ProbeSkipped ProbeOutcome = iota
	ProbeFound
	ProbeAbsent
	ProbeTransportFailure
)

func (o ProbeOutcome) String() string {
	switch o {
	case ProbeFound:
		return "found"
	case ProbeAbsent:
		return "absent"
	case ProbeTransportFailure:
		return "error"
	default:
		return "skipped"
	}
}

type ProberConfig struct {
	Scheme   string
	Domain   string
	Families []HostFamily
	Workers  int
}

type Prober interface {
	Probe(ctx context.Context, url string) (int, error)
}

type ShardProber struct {
	client  Prober
	cfg     ProberConfig
	log     logger.Logger
	metrics *metrics.MonitorMetrics
}

func NewShardProber(client Prober, cfg ProberConfig, log logger.Logger, m *metrics.MonitorMetrics) *ShardProber {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultProbeWorkers
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "https"
	}
	if m == nil {
		m = &metrics.MonitorMetrics{}
	}
	return &ShardProber{client: client, cfg: cfg, log: log, metrics: m}
}

// FindShard returns the basket host serving path. Families are searched in
// order and a family is only entered once every host of the previous one has
// answered negatively; within a family the lowest responding index wins.
func (p *ShardProber) FindShard(ctx context.Context, path string) (Shard, error) {
	p.log.Log("Searching shard for %s", path)

	for _, family := range p.cfg.Families {
		shard, ok, err := p.probeFamily(ctx, family, path)
		if err != nil {
			metrics.RecordShardLookup("cancelled")
			return Shard{}, err
		}
		if ok {
			p.log.Log("Found shard %s for %s", shard.Host, path)
			metrics.RecordShardLookup("found")
			return shard, nil
		}
		p.log.Debug("No %s host serves %s", family.Name, path)
	}

	p.log.Warn("No shard found for %s among %s", path, p.describeFamilies())
	metrics.RecordShardLookup("not_found")
	return Shard{}, fmt.Errorf("%w: %s", ErrShardNotFound, path)
}

func (p *ShardProber) probeFamily(ctx context.Context, family HostFamily, path string) (Shard, bool, error) {
	results := make([]ProbeOutcome, family.Count)

	// best holds the lowest index that answered 200 so far; higher indices
	// that haven't started yet are skipped, lower ones still run.
	var best atomic.Int64
	best.Store(math.MaxInt64)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i := 0; i < family.Count; i++ {
		if int64(i) > best.Load() || gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if int64(i) > best.Load() {
				return nil
			}
			host := family.Host(i, p.cfg.Domain)
			results[i] = p.probe(gctx, family.Name, host, path)
			if results[i] == ProbeFound {
				storeMin(&best, int64(i))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Shard{}, false, err
	}
	for i, outcome := range results {
		if outcome == ProbeFound {
			return Shard{Family: family.Name, Index: i, Host: family.Host(i, p.cfg.Domain)}, true, nil
		}
	}
	return Shard{}, false, nil
}

func (p *ShardProber) probe(ctx context.Context, family, host, path string) ProbeOutcome {
	p.metrics.ProbedCount.Add(1)
	url := fmt.Sprintf("%s://%s%s", p.cfg.Scheme, host, path)

	status, err := p.client.Probe(ctx, url)
	outcome := ProbeFound
	switch {
	case err != nil:
		p.log.Debug("Shard %s: %v", host, err)
		p.metrics.FailedProbes.Add(1)
		outcome = ProbeTransportFailure
	case status != http.StatusOK:
		p.log.Debug("Shard %s: status %d", host, status)
		outcome = ProbeAbsent
	}
	metrics.RecordProbe(family, outcome.String())
	return outcome
}

func (p *ShardProber) describeFamilies() string {
	desc := ""
	for i, f := range p.cfg.Families {
		if i > 0 {
			desc += ", "
		}
		desc += fmt.Sprintf("%s-00..%s-%02d", f.Name, f.Name, f.Count-1)
	}
	return desc
}

func storeMin(v *atomic.Int64, candidate int64) {
	for {
		cur := v.Load()
		if candidate >= cur || v.CompareAndSwap(cur, candidate) {
			return
		}
	}
}
