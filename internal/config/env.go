package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// CLIEnv is the environment-only configuration path used by medrecctl,
// which runs in contexts (cron, CI, operator shells) with no config file.
type CLIEnv struct {
	StoreDSN        string        `envconfig:"STORE_DSN" required:"true"`
	AuthBaseURL     string        `envconfig:"AUTH_BASE_URL"`
	AuthAPIKey      string        `envconfig:"AUTH_API_KEY"`
	AuthTimeout     time.Duration `envconfig:"AUTH_TIMEOUT" default:"10s"`
	SMTPHost        string        `envconfig:"SMTP_HOST"`
	SMTPPort        int           `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername    string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword    string        `envconfig:"SMTP_PASSWORD"`
	SMTPFrom        string        `envconfig:"SMTP_FROM"`
	ReportRecipient string        `envconfig:"MIGRATION_REPORT_RECIPIENT"`
}

// LoadCLIEnv reads medrecctl configuration from CLINSYNC_* variables.
func LoadCLIEnv() (*CLIEnv, error) {
	var env CLIEnv
	if err := envconfig.Process("clinsync", &env); err != nil {
		return nil, fmt.Errorf("failed to read environment config: %w", err)
	}
	return &env, nil
}
