package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandeepkv93/hackathon-backend/internal/repository"
)

func ledgerBackends(t *testing.T) map[string]func(t *testing.T) RevocationLedger {
	return map[string]func(t *testing.T) RevocationLedger{
		"memory": func(t *testing.T) RevocationLedger {
			return NewInMemoryLedger(15 * time.Minute)
		},
		"redis": func(t *testing.T) RevocationLedger {
			_, client := newRedisClientForTest(t)
			return NewRedisLedger(client, "ledger_test", 15*time.Minute)
		},
		"database": func(t *testing.T) RevocationLedger {
			return repository.NewTokenLedgerRepository(newTestDB(t))
		},
	}
}

func TestRevocationLedgerContract(t *testing.T) {
	for name, newLedger := range ledgerBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ledger := newLedger(t)

			if err := ledger.Record(ctx, "a1", "alice"); err != nil {
				t.Fatalf("record a1: %v", err)
			}
			if err := ledger.Record(ctx, "a2", "alice"); err != nil {
				t.Fatalf("record a2: %v", err)
			}
			if err := ledger.Record(ctx, "b1", "bob"); err != nil {
				t.Fatalf("record b1: %v", err)
			}
			if err := ledger.Record(ctx, "a1", "mallory"); !errors.Is(err, ErrTokenIDConflict) {
				t.Fatalf("expected ErrTokenIDConflict, got %v", err)
			}

			if active, err := ledger.IsActive(ctx, "a1"); err != nil || !active {
				t.Fatalf("a1 should be active: active=%v err=%v", active, err)
			}
			if active, err := ledger.IsActive(ctx, "never"); err != nil || active {
				t.Fatalf("unknown id must be inactive without error: active=%v err=%v", active, err)
			}
			rec, err := ledger.Find(ctx, "a1")
			if err != nil || rec.Owner != "alice" || rec.Revoked {
				t.Fatalf("find a1: rec=%+v err=%v", rec, err)
			}
			if _, err := ledger.Find(ctx, "never"); !errors.Is(err, ErrTokenRecordNotFound) {
				t.Fatalf("expected ErrTokenRecordNotFound, got %v", err)
			}

			if err := ledger.Revoke(ctx, "a1"); err != nil {
				t.Fatalf("revoke: %v", err)
			}
			if err := ledger.Revoke(ctx, "never"); err != nil {
				t.Fatalf("revoke unknown: %v", err)
			}
			if active, _ := ledger.IsActive(ctx, "a1"); active {
				t.Fatal("revoked entry must be inactive")
			}
			if active, _ := ledger.IsActive(ctx, "a2"); !active {
				t.Fatal("revoking one token must not affect another")
			}
			rec, err = ledger.Find(ctx, "a1")
			if err != nil || !rec.Revoked {
				t.Fatalf("revoked entry should be findable and flagged: rec=%+v err=%v", rec, err)
			}

			n, err := ledger.RevokeAll(ctx, "alice")
			if err != nil {
				t.Fatalf("revoke all: %v", err)
			}
			if n != 2 {
				t.Fatalf("revoke all removed %d, want 2", n)
			}
			if active, _ := ledger.IsActive(ctx, "a2"); active {
				t.Fatal("a2 should be gone after revoke all")
			}
			if active, _ := ledger.IsActive(ctx, "b1"); !active {
				t.Fatal("bob's entry must survive alice's revoke all")
			}
		})
	}
}

func TestInMemoryLedgerExpiryAndPrune(t *testing.T) {
	ctx := context.Background()
	clock := newStepClock()
	ledger := NewInMemoryLedger(15*time.Minute, WithLedgerClock(clock.Now))

	if err := ledger.Record(ctx, "old", "alice"); err != nil {
		t.Fatalf("record: %v", err)
	}
	clock.Advance(10 * time.Minute)
	if err := ledger.Record(ctx, "fresh", "alice"); err != nil {
		t.Fatalf("record: %v", err)
	}
	clock.Advance(5 * time.Minute)
	if active, _ := ledger.IsActive(ctx, "old"); active {
		t.Fatal("entry past its lifetime must read as inactive")
	}
	if active, _ := ledger.IsActive(ctx, "fresh"); !active {
		t.Fatal("fresh entry must still be active")
	}

	n, err := ledger.Prune(ctx, clock.Now().Add(-15*time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("prune: n=%d err=%v", n, err)
	}
	if err := ledger.Record(ctx, "old", "alice"); err != nil {
		t.Fatalf("pruned id can be recorded again: %v", err)
	}
}

func TestRedisLedgerNativeTTL(t *testing.T) {
	ctx := context.Background()
	server, client := newRedisClientForTest(t)
	ledger := NewRedisLedger(client, "ttl_test", time.Minute)

	if err := ledger.Record(ctx, "jti", "alice"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := ledger.Revoke(ctx, "jti"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ttl := server.TTL(ledger.tokenKey("jti")); ttl <= 0 {
		t.Fatalf("revoke must keep the key TTL, got %s", ttl)
	}
	server.FastForward(61 * time.Second)
	if _, err := ledger.Find(ctx, "jti"); !errors.Is(err, ErrTokenRecordNotFound) {
		t.Fatalf("expected entry to expire, got %v", err)
	}
	if n, err := ledger.Prune(ctx, time.Now()); err != nil || n != 0 {
		t.Fatalf("redis prune should be a no-op: n=%d err=%v", n, err)
	}
}

func TestRedisLedgerRevokeAllUnderConcurrentRecords(t *testing.T) {
	ctx := context.Background()
	server, client := newRedisClientForTest(t)
	ledger := NewRedisLedger(client, "race_test", time.Minute)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if err := ledger.Record(ctx, fmt.Sprintf("w%d-%d", w, i), "alice"); err != nil {
					t.Errorf("record: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if _, err := ledger.RevokeAll(ctx, "alice"); err != nil {
				t.Errorf("revoke all: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	if _, err := ledger.RevokeAll(ctx, "alice"); err != nil {
		t.Fatalf("final revoke all: %v", err)
	}
	for _, key := range server.Keys() {
		if strings.HasPrefix(key, "race_test:token:") {
			t.Fatalf("token key %s escaped its owner set", key)
		}
	}
}
