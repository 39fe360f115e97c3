package core

import (
	"context"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestConfigValidateRejectsUnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ledger.Driver = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unsupported ledger driver")
	}
}

func TestConfigValidateRejectsNonPositiveLifetime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ledger.LifetimeMinutes = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero lifetime")
	}
}

func TestCleanTargetID(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "C1234567890", "C1234567890"},
		{"single quoted", "'C1234567890'", "C1234567890"},
		{"double quoted", `"C1234567890"`, "C1234567890"},
		{"trailing comment", "C1234567890  # production group", "C1234567890"},
		{"whitespace", "  C1234567890  ", "C1234567890"},
		{"blank", "   ", ""},
	}
	for _, tc := range cases {
		cfg := TeamsConfig{TargetID: tc.raw}
		if got := cfg.CleanTargetID(); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestLedgerConfigTokenLifetime(t *testing.T) {
	if got := (LedgerConfig{LifetimeMinutes: 90}).TokenLifetime(); got != 90*time.Minute {
		t.Fatalf("expected 90 minutes, got %v", got)
	}
	if got := (LedgerConfig{}).TokenLifetime(); got != 60*time.Minute {
		t.Fatalf("expected default 60 minutes, got %v", got)
	}
}

func TestEnvRawConfigLoaderReadsNestedKeys(t *testing.T) {
	t.Setenv("BRIDGE_LINE_CHANNEL_SECRET", "line-secret")
	t.Setenv("BRIDGE_TEAMS_VERIFY_TOKEN", "teams-token")
	t.Setenv("BRIDGE_LEDGER_DRIVER", "sqlite")
	t.Setenv("BRIDGE_LEDGER_LIFETIME_MINUTES", "45")
	t.Setenv("BRIDGE_SIGNATURE_SKIP_VERIFY", "true")

	raw, err := EnvRawConfigLoader{}.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	line, _ := raw["line"].(map[string]any)
	if line["channel_secret"] != "line-secret" {
		t.Fatalf("expected line secret in raw layer, got %+v", raw)
	}
	ledgerLayer, _ := raw["ledger"].(map[string]any)
	if ledgerLayer["driver"] != "sqlite" || ledgerLayer["lifetime_minutes"] != 45 {
		t.Fatalf("expected ledger layer values, got %+v", ledgerLayer)
	}
	signature, _ := raw["signature"].(map[string]any)
	if signature["skip_verify"] != true {
		t.Fatalf("expected skip_verify true, got %+v", signature)
	}
}

func TestEnvRawConfigLoaderRejectsBadBool(t *testing.T) {
	t.Setenv("BRIDGE_SIGNATURE_SKIP_VERIFY", "sometimes")
	if _, err := (EnvRawConfigLoader{}).LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected parse error for bad bool")
	}
}

func TestCfgxConfigProviderAppliesDefaultsAndOverrides(t *testing.T) {
	provider := NewCfgxConfigProvider(staticRawConfigLoader{Values: map[string]any{
		"ledger": map[string]any{"driver": "sqlite", "dsn": "file:test.db"},
	}})
	cfg, err := provider.Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ledger.Driver != LedgerDriverSQLite {
		t.Fatalf("expected sqlite driver override, got %q", cfg.Ledger.Driver)
	}
	if cfg.Server.Address != ":8000" {
		t.Fatalf("expected default server address preserved, got %q", cfg.Server.Address)
	}
}

func TestGoOptionsResolverRuntimeWins(t *testing.T) {
	defaults := DefaultConfig()
	loaded := defaults
	loaded.ServiceName = "from-config"
	runtime := Config{ServiceName: "from-runtime"}

	resolved, err := GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ServiceName != "from-runtime" {
		t.Fatalf("expected runtime layer to win, got %q", resolved.ServiceName)
	}
	if resolved.Ledger.Driver != LedgerDriverMemory {
		t.Fatalf("expected default ledger driver to survive merge, got %q", resolved.Ledger.Driver)
	}
}
