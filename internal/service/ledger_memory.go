package service

import (
	"context"
	"sync"
	"time"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
)

// InMemoryLedger keeps entries in process. Entries older than the configured
// lifetime are treated as absent on read and dropped by Prune.
type InMemoryLedger struct {
	mu       sync.RWMutex
	entries  map[string]domain.TokenRecord
	lifetime time.Duration
	now      func() time.Time
}

type InMemoryLedgerOption func(*InMemoryLedger)

func WithLedgerClock(now func() time.Time) InMemoryLedgerOption {
	return func(l *InMemoryLedger) {
		if now != nil {
			l.now = now
		}
	}
}

func NewInMemoryLedger(lifetime time.Duration, opts ...InMemoryLedgerOption) *InMemoryLedger {
	l := &InMemoryLedger{
		entries:  make(map[string]domain.TokenRecord),
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *InMemoryLedger) Record(_ context.Context, tokenID, owner string) error {
	now := l.now().UTC()
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.entries[tokenID]; ok && !l.expired(existing, now) {
		return ErrTokenIDConflict
	}
	l.entries[tokenID] = domain.TokenRecord{
		TokenID:   tokenID,
		Owner:     owner,
		CreatedAt: now,
	}
	return nil
}

func (l *InMemoryLedger) IsActive(_ context.Context, tokenID string) (bool, error) {
	now := l.now().UTC()
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.entries[tokenID]
	return ok && !rec.Revoked && !l.expired(rec, now), nil
}

func (l *InMemoryLedger) Find(_ context.Context, tokenID string) (*domain.TokenRecord, error) {
	now := l.now().UTC()
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.entries[tokenID]
	if !ok || l.expired(rec, now) {
		return nil, ErrTokenRecordNotFound
	}
	return &rec, nil
}

func (l *InMemoryLedger) Revoke(_ context.Context, tokenID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok := l.entries[tokenID]; ok {
		rec.Revoked = true
		l.entries[tokenID] = rec
	}
	return nil
}

func (l *InMemoryLedger) RevokeAll(_ context.Context, owner string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for id, rec := range l.entries {
		if rec.Owner == owner {
			delete(l.entries, id)
			n++
		}
	}
	return n, nil
}

func (l *InMemoryLedger) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int64
	for id, rec := range l.entries {
		if !rec.CreatedAt.After(cutoff) {
			delete(l.entries, id)
			n++
		}
	}
	return n, nil
}

func (l *InMemoryLedger) expired(rec domain.TokenRecord, now time.Time) bool {
	return l.lifetime > 0 && !now.Before(rec.CreatedAt.Add(l.lifetime))
}
