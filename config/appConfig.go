package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"gomarket_feedbacks/config/values"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix marks environment variables that map onto config keys:
// WBFM_WILDBERRIES__PROBE_WORKERS -> wildberries.probe_workers.
const EnvPrefix = "WBFM_"

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/wb-feedback-monitor/config.yaml",
}

type AppConfig struct {
	Server      ServerConfig         `koanf:"server"`
	Postgres    PostgresConfig       `koanf:"postgres"`
	Wildberries WildberriesConfig    `koanf:"wildberries"`
	Monitor     values.MonitorValues `koanf:"default_values"`
	Logging     LoggingConfig        `koanf:"logging"`
}

// LoadConfig layers defaults, an optional YAML file and environment variables
// (in that order of precedence, env wins) and validates the result.
// An empty filename means "search DefaultConfigPaths".
func LoadConfig(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if filename == "" {
		filename = findConfigFile()
	}
	if filename != "" {
		if err := k.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", filename, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitListKeys(k, "server.cors_origins", "wildberries.feedback_hosts"); err != nil {
		return nil, err
	}

	cfg := &AppConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			msgs := make([]string, 0, len(vErrs))
			for _, fe := range vErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variables onto koanf paths. The legacy
// names used by the deployment (POSTGRES_*, DATABASE_URL, LOG_LEVEL, HTTP_ADDR)
// are kept; everything else goes through the WBFM_ prefix. Returning "" skips the variable.
func envTransformFunc(key string) string {
	if mapped, ok := legacyEnv[key]; ok {
		return mapped
	}
	if !strings.HasPrefix(key, EnvPrefix) {
		return ""
	}
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

var legacyEnv = map[string]string{
	"DATABASE_URL":      "postgres.url",
	"POSTGRES_HOST":     "postgres.host",
	"POSTGRES_PORT":     "postgres.port",
	"POSTGRES_USER":     "postgres.user",
	"POSTGRES_PASSWORD": "postgres.password",
	"POSTGRES_NAME":     "postgres.dbname",
	"LOG_LEVEL":         "logging.level",
	"LOG_FORMAT":        "logging.format",
	"HTTP_ADDR":         "server.addr",
}

// splitListKeys turns comma-separated env values into slices.
func splitListKeys(k *koanf.Koanf, paths ...string) error {
	for _, path := range paths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
