// Package sqlstore provides the durable reply-token ledger on bun. It exists
// for deployments where process restarts must not forget consumed tokens; the
// in-memory ledger remains the default.
package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-chatbridge/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const defaultTokenLifetime = 60 * time.Minute

// ReplyTokenStore implements the reply-token ledger against a reply_tokens
// table. Linearizability comes from the primary-key insert: the database
// admits exactly one row per token, so exactly one concurrent TryConsume
// succeeds. Expired rows are deleted lazily on access.
type ReplyTokenStore struct {
	db       *bun.DB
	repo     repository.Repository[*replyTokenRecord]
	lifetime time.Duration
	Now      func() time.Time
}

func NewReplyTokenStore(db *bun.DB, lifetime time.Duration) (*ReplyTokenStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}
	repo := repository.NewRepository[*replyTokenRecord](db, replyTokenHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid reply token repository wiring: %w", err)
		}
	}
	return &ReplyTokenStore{
		db:       db,
		repo:     repo,
		lifetime: lifetime,
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// NewReplyTokenStoreFromPersistence resolves the bun handle out of a
// go-persistence-bun client.
func NewReplyTokenStoreFromPersistence(client any, lifetime time.Duration) (*ReplyTokenStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewReplyTokenStore(db, lifetime)
}

func (s *ReplyTokenStore) IsConsumed(ctx context.Context, token string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: reply token store is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return true, nil
	}
	if err := s.sweepExpired(ctx); err != nil {
		return false, err
	}
	exists, err := s.db.NewSelect().
		Model((*replyTokenRecord)(nil)).
		Where("?TableAlias.token = ?", token).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("sqlstore: reply token lookup: %w", err)
	}
	return exists, nil
}

func (s *ReplyTokenStore) TryConsume(ctx context.Context, token string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: reply token store is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	if err := s.sweepExpired(ctx); err != nil {
		return false, err
	}
	record := &replyTokenRecord{
		Token:      token,
		ID:         uuid.NewString(),
		ConsumedAt: s.now(),
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("sqlstore: reply token claim: %w", err)
	}
	return true, nil
}

func (s *ReplyTokenStore) Stats(ctx context.Context) (core.LedgerStats, error) {
	if s == nil || s.db == nil {
		return core.LedgerStats{}, fmt.Errorf("sqlstore: reply token store is not configured")
	}
	if err := s.sweepExpired(ctx); err != nil {
		return core.LedgerStats{}, err
	}
	now := s.now()
	stats := core.LedgerStats{LifetimeMinutes: s.lifetime.Minutes()}

	count, err := s.db.NewSelect().
		Model((*replyTokenRecord)(nil)).
		Count(ctx)
	if err != nil {
		return core.LedgerStats{}, fmt.Errorf("sqlstore: reply token count: %w", err)
	}
	stats.ActiveCount = count
	if count == 0 {
		return stats, nil
	}

	var oldest time.Time
	err = s.db.NewSelect().
		Model((*replyTokenRecord)(nil)).
		ColumnExpr("min(?TableAlias.consumed_at)").
		Scan(ctx, &oldest)
	if err != nil {
		return core.LedgerStats{}, fmt.Errorf("sqlstore: oldest reply token: %w", err)
	}
	if !oldest.IsZero() {
		stats.OldestAgeMinutes = now.Sub(oldest).Minutes()
	}
	return stats, nil
}

func (s *ReplyTokenStore) sweepExpired(ctx context.Context) error {
	cutoff := s.now().Add(-s.lifetime)
	_, err := s.db.NewDelete().
		Model((*replyTokenRecord)(nil)).
		Where("consumed_at <= ?", cutoff).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: sweep expired reply tokens: %w", err)
	}
	return nil
}

func (s *ReplyTokenStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case *persistence.Client:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

var _ core.ReplyTokenLedger = (*ReplyTokenStore)(nil)
