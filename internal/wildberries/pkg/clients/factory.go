package clients

import (
	"net/http"
	"time"

	"gomarket_feedbacks/pkg/logger"
	"gomarket_feedbacks/pkg/middleware"
)

type FactoryConfig struct {
	Timeout        time.Duration
	UserAgent      string
	MaxIdlePerHost int
}

// Factory hands out a fresh BaseClient (with its own connection pool) per
// monitoring request.
type Factory struct {
	cfg FactoryConfig
	log logger.Logger
	// Transport builds the innermost round tripper; tests swap it for a fake.
	Transport func() http.RoundTripper
}

func NewFactory(cfg FactoryConfig, log logger.Logger) *Factory {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxIdlePerHost <= 0 {
		cfg.MaxIdlePerHost = 4
	}
	f := &Factory{cfg: cfg, log: log}
	f.Transport = f.defaultTransport
	return f
}

func (f *Factory) defaultTransport() http.RoundTripper {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.MaxIdleConnsPerHost = f.cfg.MaxIdlePerHost
	tr.ResponseHeaderTimeout = f.cfg.Timeout
	return tr
}

func (f *Factory) New() *BaseClient {
	rt := middleware.Chain(f.Transport(),
		middleware.WithOutboundMetrics(),
		middleware.WithUserAgent(f.cfg.UserAgent),
	)
	return NewBaseClient(&http.Client{Timeout: f.cfg.Timeout, Transport: rt}, f.log)
}
