// Package memory is an in-process ledger used for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"financas/internal/core"
	"financas/internal/ports"
	"financas/internal/settings"
)

type Store struct {
	*settings.MemoryStore

	mu       sync.Mutex
	txs      []core.Transaction
	synced   map[string]bool
	accounts []core.Account
	now      func() time.Time
}

func New() *Store {
	return &Store{
		MemoryStore: settings.NewMemoryStore(),
		synced:      make(map[string]bool),
		now:         time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// CreateTransaction stores the transaction, assigning an ID when missing.
func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = core.NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, t)
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, typ core.TransactionType) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Transaction{}
	for _, t := range s.txs {
		if t.UserID == userID && t.Type == typ {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.ID == id && (userID == "" || t.UserID == userID) {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.txs {
		if t.ID == id && t.UserID == userID {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			delete(s.synced, id)
			return nil
		}
	}
	return fmt.Errorf("delete transaction %s: %w", id, core.ErrNotFound)
}

func (s *Store) PendingSync(_ context.Context, limit int) ([]ports.PendingSync, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []ports.PendingSync{}
	for _, t := range s.txs {
		if len(out) >= limit {
			break
		}
		if !s.synced[t.ID] {
			out = append(out, ports.PendingSync{ID: t.ID, Version: 1})
		}
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced[id] = true
	return nil
}

// MarkSyncError leaves the transaction pending so the next sweep retries it.
func (s *Store) MarkSyncError(context.Context, string) error { return nil }

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	if a.Status == "" {
		a.Status = core.StatusPending
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if a.ID == "" {
		a.ID = core.NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, a)
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []core.Account{}
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate.Time)
	})
	return out, nil
}

func (s *Store) find(userID, id string) int {
	for i, a := range s.accounts {
		if a.ID == id && a.UserID == userID {
			return i
		}
	}
	return -1
}

func (s *Store) GetAccount(_ context.Context, userID, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(userID, id); i >= 0 {
		return s.accounts[i], nil
	}
	return core.Account{}, fmt.Errorf("get account %s: %w", id, core.ErrNotFound)
}

func (s *Store) UpdateAccountStatus(_ context.Context, userID, id string, status core.AccountStatus) (core.Account, error) {
	if !status.Valid() {
		return core.Account{}, core.ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(userID, id)
	if i < 0 {
		return core.Account{}, fmt.Errorf("update account %s: %w", id, core.ErrNotFound)
	}
	s.accounts[i].Status = status
	return s.accounts[i], nil
}

func (s *Store) DeleteAccount(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(userID, id)
	if i < 0 {
		return fmt.Errorf("delete account %s: %w", id, core.ErrNotFound)
	}
	s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	return nil
}

func (s *Store) MarkOverdue(_ context.Context, today core.Date) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i, a := range s.accounts {
		if a.Status == core.StatusPending && a.DueDate.Before(today.Time) {
			s.accounts[i].Status = core.StatusOverdue
			n++
		}
	}
	return n, nil
}

var (
	_ ports.Ledger    = (*Store)(nil)
	_ ports.SyncQueue = (*Store)(nil)
)
