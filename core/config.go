package core

import (
	"fmt"
	"strings"
	"time"
)

type ServerConfig struct {
	Address         string        `koanf:"address" mapstructure:"address"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

type LineConfig struct {
	ChannelSecret string `koanf:"channel_secret" mapstructure:"channel_secret"`
	AccessToken   string `koanf:"access_token" mapstructure:"access_token"`
	APIBaseURL    string `koanf:"api_base_url" mapstructure:"api_base_url"`
}

type TeamsConfig struct {
	VerifyToken string `koanf:"verify_token" mapstructure:"verify_token"`
	TargetID    string `koanf:"target_id" mapstructure:"target_id"`
}

type TranslatorConfig struct {
	APIKey     string        `koanf:"api_key" mapstructure:"api_key"`
	Model      string        `koanf:"model" mapstructure:"model"`
	APIBaseURL string        `koanf:"api_base_url" mapstructure:"api_base_url"`
	Timeout    time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type SignatureConfig struct {
	// SkipVerify disables LINE signature checking for non-production testing.
	// It must be set explicitly; the default always verifies.
	SkipVerify bool `koanf:"skip_verify" mapstructure:"skip_verify"`
}

type LedgerConfig struct {
	Driver          string `koanf:"driver" mapstructure:"driver"`
	LifetimeMinutes int    `koanf:"lifetime_minutes" mapstructure:"lifetime_minutes"`
	MaxEntries      int    `koanf:"max_entries" mapstructure:"max_entries"`
	DSN             string `koanf:"dsn" mapstructure:"dsn"`
}

const (
	LedgerDriverMemory   = "memory"
	LedgerDriverSQLite   = "sqlite"
	LedgerDriverPostgres = "postgres"
)

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name"`
	Server      ServerConfig     `koanf:"server" mapstructure:"server"`
	Line        LineConfig       `koanf:"line" mapstructure:"line"`
	Teams       TeamsConfig      `koanf:"teams" mapstructure:"teams"`
	Translator  TranslatorConfig `koanf:"translator" mapstructure:"translator"`
	Signature   SignatureConfig  `koanf:"signature" mapstructure:"signature"`
	Ledger      LedgerConfig     `koanf:"ledger" mapstructure:"ledger"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "chatbridge",
		Server: ServerConfig{
			Address:         ":8000",
			ShutdownTimeout: 10 * time.Second,
		},
		Line: LineConfig{
			APIBaseURL: "https://api.line.me",
		},
		Translator: TranslatorConfig{
			Model:      "gpt-4o",
			APIBaseURL: "https://api.openai.com",
			Timeout:    15 * time.Second,
		},
		Ledger: LedgerConfig{
			Driver:          LedgerDriverMemory,
			LifetimeMinutes: 60,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	switch strings.TrimSpace(strings.ToLower(c.Ledger.Driver)) {
	case LedgerDriverMemory, LedgerDriverSQLite, LedgerDriverPostgres:
	default:
		return fmt.Errorf("core: unsupported ledger driver %q", c.Ledger.Driver)
	}
	if c.Ledger.LifetimeMinutes <= 0 {
		return fmt.Errorf("core: ledger lifetime_minutes must be positive")
	}
	return nil
}

// CleanTargetID strips surrounding quotes and trailing comment text that tend
// to leak into the push target id when it is copied from dotenv files.
func (c TeamsConfig) CleanTargetID() string {
	raw := strings.TrimSpace(c.TargetID)
	if idx := strings.Index(raw, "#"); idx >= 0 {
		raw = strings.TrimSpace(raw[:idx])
	}
	return strings.Trim(raw, `'"`)
}

// TokenLifetime converts the configured ledger lifetime into a duration.
func (c LedgerConfig) TokenLifetime() time.Duration {
	if c.LifetimeMinutes <= 0 {
		return 60 * time.Minute
	}
	return time.Duration(c.LifetimeMinutes) * time.Minute
}
