package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-chatbridge/core"
)

const defaultTokenLifetime = 60 * time.Minute
const defaultMaxEntries = 8192

// MemoryReplyTokenLedger keeps consumed tokens in a mutex-guarded map keyed by
// token with the consumption timestamp as value. Entries older than the
// configured lifetime are pruned on every access.
type MemoryReplyTokenLedger struct {
	mu         sync.Mutex
	lifetime   time.Duration
	maxEntries int
	consumed   map[string]time.Time
	Now        func() time.Time
}

func NewMemoryReplyTokenLedger(lifetime time.Duration) *MemoryReplyTokenLedger {
	return NewMemoryReplyTokenLedgerWithLimits(lifetime, defaultMaxEntries)
}

func NewMemoryReplyTokenLedgerWithLimits(lifetime time.Duration, maxEntries int) *MemoryReplyTokenLedger {
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryReplyTokenLedger{
		lifetime:   lifetime,
		maxEntries: maxEntries,
		consumed:   map[string]time.Time{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// IsConsumed reports whether the token has already been spent within its
// lifetime. A blank token reports consumed so callers cannot reply with it.
func (l *MemoryReplyTokenLedger) IsConsumed(_ context.Context, token string) (bool, error) {
	if l == nil {
		return false, fmt.Errorf("ledger: reply token ledger is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return true, nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneExpiredLocked(now)
	_, ok := l.consumed[token]
	return ok, nil
}

// TryConsume atomically claims the token. It returns true for exactly one
// caller per fresh token; every later caller within the lifetime gets false.
func (l *MemoryReplyTokenLedger) TryConsume(_ context.Context, token string) (bool, error) {
	if l == nil {
		return false, fmt.Errorf("ledger: reply token ledger is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneExpiredLocked(now)
	if _, ok := l.consumed[token]; ok {
		return false, nil
	}
	l.enforceCapacityLocked(1)
	l.consumed[token] = now
	return true, nil
}

func (l *MemoryReplyTokenLedger) Stats(_ context.Context) (core.LedgerStats, error) {
	if l == nil {
		return core.LedgerStats{}, fmt.Errorf("ledger: reply token ledger is not configured")
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneExpiredLocked(now)
	stats := core.LedgerStats{
		ActiveCount:     len(l.consumed),
		LifetimeMinutes: l.lifetime.Minutes(),
	}
	for _, consumedAt := range l.consumed {
		age := now.Sub(consumedAt).Minutes()
		if age > stats.OldestAgeMinutes {
			stats.OldestAgeMinutes = age
		}
	}
	return stats, nil
}

func (l *MemoryReplyTokenLedger) now() time.Time {
	if l != nil && l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func (l *MemoryReplyTokenLedger) pruneExpiredLocked(now time.Time) {
	cutoff := now.Add(-l.lifetime)
	for token, consumedAt := range l.consumed {
		if !consumedAt.After(cutoff) {
			delete(l.consumed, token)
		}
	}
}

func (l *MemoryReplyTokenLedger) enforceCapacityLocked(incoming int) {
	if l.maxEntries <= 0 {
		return
	}
	target := l.maxEntries - incoming
	if target < 0 {
		target = 0
	}
	for len(l.consumed) > target {
		l.evictOldestLocked()
	}
}

func (l *MemoryReplyTokenLedger) evictOldestLocked() {
	var oldestToken string
	var oldestAt time.Time
	for token, consumedAt := range l.consumed {
		if oldestToken == "" || consumedAt.Before(oldestAt) {
			oldestToken = token
			oldestAt = consumedAt
		}
	}
	if oldestToken != "" {
		delete(l.consumed, oldestToken)
	}
}

var _ core.ReplyTokenLedger = (*MemoryReplyTokenLedger)(nil)
