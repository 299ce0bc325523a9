package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"gomarket_feedbacks/config"
	"gomarket_feedbacks/internal/wildberries/app/web"
	"gomarket_feedbacks/internal/wildberries/app/web/handlers"
	"gomarket_feedbacks/internal/wildberries/business/services"
	"gomarket_feedbacks/internal/wildberries/business/services/get"
	"gomarket_feedbacks/internal/wildberries/business/services/monitor"
	"gomarket_feedbacks/internal/wildberries/business/services/update"
	"gomarket_feedbacks/internal/wildberries/pkg/clients"
	"gomarket_feedbacks/internal/wildberries/storage"
	"gomarket_feedbacks/metrics"
	"gomarket_feedbacks/migrations/infrastructure"
	"gomarket_feedbacks/migrations/marketplaces/wb"
	"gomarket_feedbacks/pkg/dbconnect"
	"gomarket_feedbacks/pkg/dbconnect/migration"
	"gomarket_feedbacks/pkg/logger"
)

type WildberriesServer struct {
	dbconnect.Database
	config *config.AppConfig
	log    logger.Logger
}

func NewWbServer(connector dbconnect.Database, cfg *config.AppConfig, log logger.Logger) *WildberriesServer {
	return &WildberriesServer{Database: connector, config: cfg, log: log.WithPrefix("[WildberriesServer]")}
}

// Run applies migrations, serves HTTP and blocks until ctx is cancelled or
// the listener fails. In-flight requests get ShutdownTimeout to finish.
func (s *WildberriesServer) Run(ctx context.Context) error {
	db, err := s.Connect(ctx)
	if err != nil {
		return fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}

	err = migration.Apply(ctx, s.Database, s.log,
		&infrastructure.MigrationsSchema{},
		&wb.CreateWBSchema{},
		&wb.CreateFeedbacksTable{Log: s.log},
		&wb.CreateFeedbacksIndexes{},
	)
	if err != nil {
		return err
	}

	repo := storage.NewFeedbackRepository(db)
	handler := web.SetupRoutes(s.config.Server, s.log, web.Handlers{
		Monitor:   handlers.NewMonitorHandler(s.newMonitor(repo), s.config.Monitor, s.log),
		Feedbacks: handlers.NewFeedbacksHandler(repo, s.log),
		Health:    handlers.NewHealthHandler(s.Database, s.log),
	})

	srv := &http.Server{
		Addr:              s.config.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: s.config.Server.ReadTimeout,
		ReadTimeout:       s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Log("Wildberries feedback monitor listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Log("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *WildberriesServer) newMonitor(repo *storage.FeedbackRepository) *monitor.Monitor {
	wbCfg := s.config.Wildberries

	factory := clients.NewFactory(clients.FactoryConfig{
		Timeout:   wbCfg.RequestTimeout,
		UserAgent: wbCfg.UserAgent,
	}, s.log.WithPrefix("[WbClient]"))

	monitorCfg := monitor.Config{
		Probe: get.ProberConfig{
			Scheme:   wbCfg.BasketScheme,
			Domain:   wbCfg.BasketDomain,
			Families: get.DefaultFamilies(wbCfg.PrimaryShards, wbCfg.StaticShards),
			Workers:  wbCfg.ProbeWorkers,
		},
		Feedback: get.FeedbackConfig{
			Scheme:           wbCfg.FeedbackScheme,
			Hosts:            wbCfg.FeedbackHosts,
			MaxColorVariants: wbCfg.MaxColorVariants,
		},
	}

	breakers := get.NewBreakers(get.DefaultBreakerSettings(), s.log.WithPrefix("[Breakers]"))
	limiter := rate.NewLimiter(rate.Limit(wbCfg.FeedbackRPS), wbCfg.FeedbackBurst)
	saverLog := s.log.WithPrefix("[FeedbackSaver]")
	newSaver := func(m *metrics.MonitorMetrics) services.BadFeedbackSaver {
		return update.NewFeedbackSaver(repo, saverLog, m)
	}

	return monitor.NewMonitor(factory, monitorCfg, breakers, limiter, newSaver, repo, s.log.WithPrefix("[Monitor]"))
}
