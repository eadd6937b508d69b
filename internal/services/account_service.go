package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/ports"
)

// AccountInput is a bill as typed by the user.
type AccountInput struct {
	Title   string             `json:"title"`
	Amount  string             `json:"amount"`
	DueDate string             `json:"due_date"`
	Status  core.AccountStatus `json:"status"`
	Notes   string             `json:"notes"`
}

// AccountService manages bills to pay.
type AccountService struct {
	store ports.AccountStore
	now   func() time.Time
}

func NewAccountService(store ports.AccountStore) *AccountService {
	return &AccountService{store: store, now: time.Now}
}

// Create stores a bill. Status defaults to pending.
func (s *AccountService) Create(ctx context.Context, userID string, in AccountInput) (core.Account, error) {
	due, err := core.ParseDate(in.DueDate)
	if err != nil {
		return core.Account{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}
	status := in.Status
	if status == "" {
		status = core.StatusPending
	}
	a := core.Account{
		ID:        core.NewID(),
		UserID:    userID,
		Title:     strings.TrimSpace(in.Title),
		Amount:    core.ParseCurrencyInput(in.Amount),
		Status:    status,
		DueDate:   due,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: s.now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, fmt.Errorf("%w: %w", core.ErrValidation, err)
	}
	saved, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("save account: %w", err)
	}
	return saved, nil
}

// List returns the user's bills, earliest due date first.
func (s *AccountService) List(ctx context.Context, userID string) ([]core.Account, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// ToggleStatus flips a bill between paid and pending. Overdue bills become paid.
func (s *AccountService) ToggleStatus(ctx context.Context, userID, id string) (core.Account, error) {
	a, err := s.store.GetAccount(ctx, userID, id)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	return s.SetStatus(ctx, userID, id, a.Status.Toggled())
}

func (s *AccountService) SetStatus(ctx context.Context, userID, id string, status core.AccountStatus) (core.Account, error) {
	if !status.Valid() {
		return core.Account{}, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrInvalidStatus)
	}
	a, err := s.store.UpdateAccountStatus(ctx, userID, id, status)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account %s: %w", id, err)
	}
	return a, nil
}

func (s *AccountService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteAccount(ctx, userID, id); err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	return nil
}

// MarkOverdue flags pending bills whose due date is before now's calendar day.
func (s *AccountService) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	today := core.NewDate(now.Year(), int(now.Month()), now.Day())
	n, err := s.store.MarkOverdue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("mark overdue accounts: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Marked accounts overdue",
			"count", n,
			"today", today.String())
	}
	return n, nil
}
