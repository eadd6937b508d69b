package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

func TestMemoryStoreTransactions(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.CreateTransaction(ctx, core.Transaction{UserID: "u", Type: core.Entry}); err == nil {
		t.Fatalf("expected validation error")
	}

	for _, d := range []int{1, 9, 4} {
		if _, err := s.CreateTransaction(ctx, core.Transaction{
			UserID: "u", Type: core.Entry, Amount: decimal.NewFromInt(10), Description: "x", Date: core.NewDate(2024, 3, d),
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	list, _ := s.ListTransactions(ctx, "u", core.Entry)
	if len(list) != 3 || list[0].Date.Day() != 9 || list[2].Date.Day() != 1 {
		t.Fatalf("unexpected order %v", list)
	}
	if exits, _ := s.ListTransactions(ctx, "u", core.Exit); len(exits) != 0 {
		t.Fatalf("expected no exits")
	}

	pending, _ := s.PendingSync(ctx, 2)
	if len(pending) != 2 {
		t.Fatalf("expected limit to apply, got %d", len(pending))
	}
	_ = s.MarkSynced(ctx, list[0].ID)
	pending, _ = s.PendingSync(ctx, 10)
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending after sync, got %d", len(pending))
	}

	if err := s.DeleteTransaction(ctx, "other", list[0].ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "u", list[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestMemoryStoreAccounts(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.CreateAccount(ctx, core.Account{UserID: "u", Title: "Luz", Amount: decimal.NewFromInt(50), DueDate: core.NewDate(2024, 1, 5)})
	if err != nil || a.Status != core.StatusPending {
		t.Fatalf("create: %v %s", err, a.Status)
	}
	if n, _ := s.MarkOverdue(ctx, core.NewDate(2024, 1, 6)); n != 1 {
		t.Fatalf("expected 1 overdue, got %d", n)
	}
	got, _ := s.GetAccount(ctx, "u", a.ID)
	if got.Status != core.StatusOverdue {
		t.Fatalf("expected em_atraso, got %s", got.Status)
	}
	if _, err := s.UpdateAccountStatus(ctx, "u", a.ID, "bogus"); !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if err := s.DeleteAccount(ctx, "u", a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetAccount(ctx, "u", a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
