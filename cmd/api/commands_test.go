package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"
)

func setEnv(t *testing.T, dsn string) {
	t.Helper()
	t.Setenv("BACKEND_URL", "https://api.hackathon.test/")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", dsn)
	t.Setenv("LOG_LEVEL", "error")
}

func TestRootCommandListsSubcommands(t *testing.T) {
	root := newRootCommand()
	want := map[string]bool{"serve": false, "migrate": false, "prune-ledger": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

func TestMigrateThenPruneLedger(t *testing.T) {
	dsn := "file:cmd_prune?mode=memory&cache=shared"
	setEnv(t, dsn)

	// Hold a connection so the shared in-memory database outlives each command.
	keep, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := keep.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	root := newRootCommand()
	root.SetArgs([]string{"migrate"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	old := domain.TokenRecord{TokenID: "old", Owner: "alice", CreatedAt: time.Now().Add(-time.Hour)}
	fresh := domain.TokenRecord{TokenID: "fresh", Owner: "alice", CreatedAt: time.Now()}
	if err := keep.Create(&old).Error; err != nil {
		t.Fatalf("seed old: %v", err)
	}
	if err := keep.Create(&fresh).Error; err != nil {
		t.Fatalf("seed fresh: %v", err)
	}

	var out bytes.Buffer
	root = newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"prune-ledger"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if !strings.Contains(out.String(), "pruned 1 ledger entries") {
		t.Fatalf("unexpected output %q", out.String())
	}

	repo := repository.NewTokenLedgerRepository(keep)
	if _, err := repo.Find(context.Background(), "fresh"); err != nil {
		t.Fatalf("fresh entry should survive: %v", err)
	}
}

func TestMigrateFailsOnInvalidConfig(t *testing.T) {
	setEnv(t, "file:cmd_invalid?mode=memory&cache=shared")
	t.Setenv("JWT_SECRET", "short")
	root := newRootCommand()
	root.SetArgs([]string{"migrate"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected config error")
	}
}
