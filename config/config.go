/*
Package config loads server configuration from the environment. All
variables carry the LEAVE_ prefix, e.g. LEAVE_PORT, LEAVE_ADMIN_EMAIL.
*/
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full server configuration.
type Config struct {
	Port         int    `envconfig:"PORT" default:"8080"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"leave.db"`

	// Admin session. The admin logs in with this password; holiday
	// management, balance resets and employee management require the
	// resulting session.
	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@example.com"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" required:"true"`

	// SMTP for notification mail. Leaving Host empty disables email; the
	// server still runs and transitions still succeed.
	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	SMTPFrom string `envconfig:"SMTP_FROM"`

	// Policy knobs. Defaults match the ledger's production configuration.
	DefaultPrivilegeDays    int  `envconfig:"DEFAULT_PRIVILEGE_DAYS" default:"15"`
	DefaultSickDays         int  `envconfig:"DEFAULT_SICK_DAYS" default:"7"`
	PreventNegativeBalances bool `envconfig:"PREVENT_NEGATIVE_BALANCES" default:"true"`

	// RateLimit is requests per minute per client IP.
	RateLimit int `envconfig:"RATE_LIMIT" default:"120"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("leave", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.AdminEmail
	}
	return &cfg, nil
}
