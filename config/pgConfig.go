package config

import (
	"fmt"
)

type DbConfig interface {
	GetConnectionString() string
}

// PostgresConfig represents the configuration needed to connect to a PostgreSQL database.
// URL, when set (DATABASE_URL), takes precedence over the discrete fields.
type PostgresConfig struct {
	URL          string `koanf:"url"`
	Host         string `koanf:"host" validate:"required_without=URL"`
	Port         string `koanf:"port" validate:"required_without=URL"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	DBName       string `koanf:"dbname" validate:"required_without=URL"`
	SSLMode      string `koanf:"sslmode"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"gte=1"`
}

func (pc *PostgresConfig) GetConnectionString() string {
	if pc.URL != "" {
		return pc.URL
	}
	sslMode := pc.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, sslMode)
}
