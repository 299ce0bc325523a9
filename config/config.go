package config

import (
	"time"

	"gomarket_feedbacks/config/values"
)

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// RequestTimeout bounds one /monitor pipeline run (up to 150 probes plus feedback calls).
	RequestTimeout    time.Duration `koanf:"request_timeout" validate:"gt=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

type WildberriesConfig struct {
	BasketScheme   string `koanf:"basket_scheme" validate:"oneof=http https"`
	BasketDomain   string `koanf:"basket_domain" validate:"required,hostname"`
	PrimaryShards  int    `koanf:"primary_shards" validate:"gte=1,lte=100"`
	StaticShards   int    `koanf:"static_shards" validate:"gte=0,lte=100"`
	ProbeWorkers   int    `koanf:"probe_workers" validate:"gte=1,lte=150"`
	FeedbackScheme string `koanf:"feedback_scheme" validate:"oneof=http https"`
	// FeedbackHosts are tried in order for every candidate identifier.
	FeedbackHosts    []string      `koanf:"feedback_hosts" validate:"min=1,dive,required"`
	MaxColorVariants int           `koanf:"max_color_variants" validate:"gte=0"`
	FeedbackRPS      float64       `koanf:"feedback_rps" validate:"gt=0"`
	FeedbackBurst    int           `koanf:"feedback_burst" validate:"gte=1"`
	RequestTimeout   time.Duration `koanf:"request_timeout" validate:"gt=0"`
	UserAgent        string        `koanf:"user_agent"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
	// File duplicates the log stream; empty disables it.
	File string `koanf:"file"`
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Addr:              ":8000",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      10 * time.Minute,
			ShutdownTimeout:   30 * time.Second,
			RequestTimeout:    10 * time.Minute,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 30,
			RateLimitWindow:   time.Minute,
		},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Password:     "postgres",
			DBName:       "wb_feedbacks",
			SSLMode:      "disable",
			MaxOpenConns: 20,
		},
		Wildberries: WildberriesConfig{
			BasketScheme:     "https",
			BasketDomain:     "wbbasket.ru",
			PrimaryShards:    100,
			StaticShards:     50,
			ProbeWorkers:     10,
			FeedbackScheme:   "https",
			FeedbackHosts:    []string{"feedbacks1.wb.ru", "feedbacks2.wb.ru"},
			MaxColorVariants: 5,
			FeedbackRPS:      5,
			FeedbackBurst:    10,
			RequestTimeout:   30 * time.Second,
			UserAgent:        DefaultUserAgent,
		},
		Monitor: values.MonitorValues{
			RatingThreshold: 3,
			DaysPeriod:      3,
		},
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "console",
			File:   "logs/app.log",
		},
	}
}
