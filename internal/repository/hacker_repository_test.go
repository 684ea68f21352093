package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sandeepkv93/hackathon-backend/internal/domain"
)

func TestHackerRepositoryCreateAcceptList(t *testing.T) {
	ctx := context.Background()
	repo := NewHackerRepository(newTestDB(t))

	for i := 0; i < 3; i++ {
		h := &domain.Hacker{
			Username: fmt.Sprintf("hacker-%d", i),
			Email:    fmt.Sprintf("hacker-%d@hack.test", i),
		}
		if err := repo.Create(ctx, h); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if err := repo.Create(ctx, &domain.Hacker{Username: "hacker-0", Email: "other@hack.test"}); !errors.Is(err, ErrHackerExists) {
		t.Fatalf("expected ErrHackerExists for username, got %v", err)
	}
	if err := repo.Create(ctx, &domain.Hacker{Username: "someone", Email: "hacker-1@hack.test"}); !errors.Is(err, ErrHackerExists) {
		t.Fatalf("expected ErrHackerExists for email, got %v", err)
	}

	h, err := repo.FindByUsername(ctx, "hacker-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if h.IsAccepted {
		t.Fatal("new hacker should not be accepted")
	}

	for i := 0; i < 2; i++ {
		h, err = repo.Accept(ctx, "hacker-1")
		if err != nil {
			t.Fatalf("accept %d: %v", i, err)
		}
		if !h.IsAccepted {
			t.Fatalf("accept %d: expected is_accepted", i)
		}
	}
	if _, err := repo.Accept(ctx, "ghost"); !errors.Is(err, ErrHackerNotFound) {
		t.Fatalf("expected ErrHackerNotFound, got %v", err)
	}
	if _, err := repo.FindByUsername(ctx, "ghost"); !errors.Is(err, ErrHackerNotFound) {
		t.Fatalf("expected ErrHackerNotFound, got %v", err)
	}

	page, err := repo.ListPaged(ctx, PageRequest{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 || len(page.Items) != 1 || page.HasNext() {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Items[0].Username != "hacker-2" {
		t.Fatalf("expected oldest-first order, got %s", page.Items[0].Username)
	}
}
