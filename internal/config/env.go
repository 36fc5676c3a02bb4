// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Store selects the profile store.
type Store struct {
	DataDir string `env:"CELERIX_DATA_DIR" envDefault:"./data"`
	Addr    string `env:"CELERIX_STORE_ADDR"`
}

// Visitor configures the tracking CLI.
type Visitor struct {
	Store
	Profile   string `env:"CELERIX_AB_PROFILE" envDefault:"default"`
	Endpoint  string `env:"CELERIX_AB_ENDPOINT"`
	Page      string `env:"CELERIX_AB_PAGE" envDefault:"/"`
	UserAgent string `env:"CELERIX_AB_USER_AGENT" envDefault:"celerix-ab"`
	Referrer  string `env:"CELERIX_AB_REFERRER"`
	LogLevel  string `env:"CELERIX_LOG_LEVEL" envDefault:"info"`
}

// Daemon configures the store daemon and collector.
type Daemon struct {
	DataDir  string `env:"CELERIX_DATA_DIR" envDefault:"./data"`
	Port     string `env:"CELERIX_PORT" envDefault:"7001"`
	HTTPPort string `env:"CELERIX_HTTP_PORT" envDefault:"7002"`
	EventsDB string `env:"CELERIX_EVENTS_DB"`
	LogLevel string `env:"CELERIX_LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"CELERIX_LOG_JSON" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
