package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-chatbridge/core"
	"github.com/goliatone/go-chatbridge/dispatch"
	"github.com/goliatone/go-chatbridge/ledger"
	bridgemigrations "github.com/goliatone/go-chatbridge/migrations"
	"github.com/goliatone/go-chatbridge/notify"
	"github.com/goliatone/go-chatbridge/ratelimit"
	"github.com/goliatone/go-chatbridge/server"
	sqlstore "github.com/goliatone/go-chatbridge/store/sql"
	"github.com/goliatone/go-chatbridge/translate"
	"github.com/goliatone/go-chatbridge/transport"
	"github.com/goliatone/go-chatbridge/webhooks"
	glog "github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatbridge: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, logger := glog.Resolve("chatbridge", nil, nil)
	logger = glog.Ensure(logger)

	cfg, err := resolveConfig(ctx)
	if err != nil {
		return err
	}

	tokens, cleanup, err := buildLedger(ctx, cfg.Ledger)
	if err != nil {
		return err
	}
	defer cleanup()

	adapter := transport.NewRESTAdapter(nil)
	throttle := ratelimit.NewAdaptivePolicy(ratelimit.NewMemoryStateStore())
	translator, err := translate.NewOpenAITranslator(adapter, cfg.Translator, logger)
	if err != nil {
		return err
	}
	translator.Throttle = throttle
	notifier, err := notify.NewLINENotifier(adapter, cfg.Line, logger)
	if err != nil {
		return err
	}
	notifier.Throttle = throttle

	engine, err := dispatch.NewEngine(dispatch.EngineConfig{
		Verifiers: map[core.Channel]core.SignatureVerifier{
			core.ChannelLine: &webhooks.LineSignatureVerifier{
				Secret:     cfg.Line.ChannelSecret,
				SkipVerify: cfg.Signature.SkipVerify,
			},
			core.ChannelTeams: &webhooks.TeamsTokenVerifier{
				Token: cfg.Teams.VerifyToken,
			},
		},
		Ledger:     tokens,
		Translator: translator,
		Notifier:   notifier,
		TargetID:   cfg.Teams.CleanTargetID(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(engine, tokens, cfg.ServiceName, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		core.LogInfo(ctx, logger, "chatbridge: listening", map[string]any{
			"address": cfg.Server.Address,
			"ledger":  cfg.Ledger.Driver,
		})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	core.LogInfo(context.Background(), logger, "chatbridge: stopped", nil)
	return nil
}

func resolveConfig(ctx context.Context) (core.Config, error) {
	defaults := core.DefaultConfig()
	provider := core.NewCfgxConfigProvider(core.EnvRawConfigLoader{})
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return core.Config{}, fmt.Errorf("load config: %w", err)
	}
	resolved, err := core.GoOptionsResolver{}.Resolve(defaults, loaded, core.Config{})
	if err != nil {
		return core.Config{}, fmt.Errorf("resolve config: %w", err)
	}
	return resolved, nil
}

// buildLedger selects the reply-token ledger by driver. The memory ledger is
// the default; sqlite and postgres run the embedded migrations first.
func buildLedger(ctx context.Context, cfg core.LedgerConfig) (core.ReplyTokenLedger, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case "", core.LedgerDriverMemory:
		return ledger.NewMemoryReplyTokenLedgerWithLimits(cfg.TokenLifetime(), cfg.MaxEntries), noop, nil
	case core.LedgerDriverSQLite:
		return buildSQLLedger(ctx, cfg, "sqlite3", bridgemigrations.DialectSQLite)
	case core.LedgerDriverPostgres:
		return buildSQLLedger(ctx, cfg, "postgres", bridgemigrations.DialectPostgres)
	default:
		return nil, noop, fmt.Errorf("unsupported ledger driver %q", cfg.Driver)
	}
}

func buildSQLLedger(
	ctx context.Context,
	cfg core.LedgerConfig,
	driver string,
	dialect string,
) (core.ReplyTokenLedger, func(), error) {
	noop := func() {}
	if cfg.DSN == "" {
		return nil, noop, fmt.Errorf("ledger dsn is required for driver %q", cfg.Driver)
	}
	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, noop, fmt.Errorf("open ledger db: %w", err)
	}

	persistenceCfg := ledgerPersistenceConfig{driver: driver, server: cfg.DSN}
	var client *persistence.Client
	if dialect == bridgemigrations.DialectSQLite {
		client, err = persistence.New(persistenceCfg, sqlDB, sqlitedialect.New())
	} else {
		client, err = persistence.New(persistenceCfg, sqlDB, pgdialect.New())
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, noop, fmt.Errorf("new persistence client: %w", err)
	}
	cleanup := func() { _ = client.Close() }

	_, err = bridgemigrations.Register(ctx, func(_ context.Context, d string, _ string, fsys fs.FS) error {
		if d != dialect {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, bridgemigrations.WithValidationTargets(dialect))
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("register migrations: %w", err)
	}
	if err := client.Migrate(ctx); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("migrate ledger schema: %w", err)
	}

	store, err := sqlstore.NewReplyTokenStoreFromPersistence(client, cfg.TokenLifetime())
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	return store, cleanup, nil
}

type ledgerPersistenceConfig struct {
	driver string
	server string
}

func (c ledgerPersistenceConfig) GetDebug() bool                { return false }
func (c ledgerPersistenceConfig) GetDriver() string             { return c.driver }
func (c ledgerPersistenceConfig) GetServer() string             { return c.server }
func (c ledgerPersistenceConfig) GetPingTimeout() time.Duration { return 5 * time.Second }
func (c ledgerPersistenceConfig) GetOtelIdentifier() string     { return "go-chatbridge" }
