package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// EnvRawConfigLoader reads BRIDGE_* environment variables into the raw layer
// consumed by the cfgx provider. Nested keys use underscore section prefixes,
// e.g. BRIDGE_LINE_CHANNEL_SECRET -> line.channel_secret.
type EnvRawConfigLoader struct {
	Prefix string
}

func (l EnvRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	prefix := strings.TrimSpace(l.Prefix)
	if prefix == "" {
		prefix = "BRIDGE"
	}

	raw := map[string]any{}
	setString := func(target map[string]any, section, key, env string) {
		if value := strings.TrimSpace(os.Getenv(prefix + "_" + env)); value != "" {
			nested, ok := target[section].(map[string]any)
			if !ok {
				nested = map[string]any{}
				target[section] = nested
			}
			nested[key] = value
		}
	}

	if value := strings.TrimSpace(os.Getenv(prefix + "_SERVICE_NAME")); value != "" {
		raw["service_name"] = value
	}
	setString(raw, "server", "address", "SERVER_ADDRESS")
	setString(raw, "line", "channel_secret", "LINE_CHANNEL_SECRET")
	setString(raw, "line", "access_token", "LINE_ACCESS_TOKEN")
	setString(raw, "line", "api_base_url", "LINE_API_BASE_URL")
	setString(raw, "teams", "verify_token", "TEAMS_VERIFY_TOKEN")
	setString(raw, "teams", "target_id", "TEAMS_TARGET_ID")
	setString(raw, "translator", "api_key", "TRANSLATOR_API_KEY")
	setString(raw, "translator", "model", "TRANSLATOR_MODEL")
	setString(raw, "translator", "api_base_url", "TRANSLATOR_API_BASE_URL")
	setString(raw, "ledger", "driver", "LEDGER_DRIVER")
	setString(raw, "ledger", "dsn", "LEDGER_DSN")

	if value := strings.TrimSpace(os.Getenv(prefix + "_SIGNATURE_SKIP_VERIFY")); value != "" {
		skip, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("core: parse %s_SIGNATURE_SKIP_VERIFY: %w", prefix, err)
		}
		raw["signature"] = map[string]any{"skip_verify": skip}
	}
	if value := strings.TrimSpace(os.Getenv(prefix + "_LEDGER_LIFETIME_MINUTES")); value != "" {
		minutes, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("core: parse %s_LEDGER_LIFETIME_MINUTES: %w", prefix, err)
		}
		nested, ok := raw["ledger"].(map[string]any)
		if !ok {
			nested = map[string]any{}
			raw["ledger"] = nested
		}
		nested["lifetime_minutes"] = minutes
	}
	if value := strings.TrimSpace(os.Getenv(prefix + "_TRANSLATOR_TIMEOUT")); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("core: parse %s_TRANSLATOR_TIMEOUT: %w", prefix, err)
		}
		nested, ok := raw["translator"].(map[string]any)
		if !ok {
			nested = map[string]any{}
			raw["translator"] = nested
		}
		nested["timeout"] = timeout
	}
	return raw, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}

	server := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Server.Address) != "" {
		server["address"] = cfg.Server.Address
	}
	if includeZero || cfg.Server.ShutdownTimeout > 0 {
		server["shutdown_timeout"] = cfg.Server.ShutdownTimeout
	}
	if len(server) > 0 {
		layer["server"] = server
	}

	line := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Line.ChannelSecret) != "" {
		line["channel_secret"] = cfg.Line.ChannelSecret
	}
	if includeZero || strings.TrimSpace(cfg.Line.AccessToken) != "" {
		line["access_token"] = cfg.Line.AccessToken
	}
	if includeZero || strings.TrimSpace(cfg.Line.APIBaseURL) != "" {
		line["api_base_url"] = cfg.Line.APIBaseURL
	}
	if len(line) > 0 {
		layer["line"] = line
	}

	teams := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Teams.VerifyToken) != "" {
		teams["verify_token"] = cfg.Teams.VerifyToken
	}
	if includeZero || strings.TrimSpace(cfg.Teams.TargetID) != "" {
		teams["target_id"] = cfg.Teams.TargetID
	}
	if len(teams) > 0 {
		layer["teams"] = teams
	}

	translator := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Translator.APIKey) != "" {
		translator["api_key"] = cfg.Translator.APIKey
	}
	if includeZero || strings.TrimSpace(cfg.Translator.Model) != "" {
		translator["model"] = cfg.Translator.Model
	}
	if includeZero || strings.TrimSpace(cfg.Translator.APIBaseURL) != "" {
		translator["api_base_url"] = cfg.Translator.APIBaseURL
	}
	if includeZero || cfg.Translator.Timeout > 0 {
		translator["timeout"] = cfg.Translator.Timeout
	}
	if len(translator) > 0 {
		layer["translator"] = translator
	}

	if includeZero || cfg.Signature.SkipVerify {
		layer["signature"] = map[string]any{"skip_verify": cfg.Signature.SkipVerify}
	}

	ledger := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Ledger.Driver) != "" {
		ledger["driver"] = cfg.Ledger.Driver
	}
	if includeZero || cfg.Ledger.LifetimeMinutes > 0 {
		ledger["lifetime_minutes"] = cfg.Ledger.LifetimeMinutes
	}
	if includeZero || cfg.Ledger.MaxEntries > 0 {
		ledger["max_entries"] = cfg.Ledger.MaxEntries
	}
	if includeZero || strings.TrimSpace(cfg.Ledger.DSN) != "" {
		ledger["dsn"] = cfg.Ledger.DSN
	}
	if len(ledger) > 0 {
		layer["ledger"] = ledger
	}

	return layer
}
