// Package catalog manages user categories and the category assigned to each
// transaction.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/outbox"
	"github.com/Samir899/SpendVolt/internal/state"
)

var (
	ErrInvalidCategoryName = models.Validation("Please enter a category name.")
	ErrSameCategory        = models.Validation("Choose a different category to move transactions to.")
	ErrUnknownTarget       = models.Validation("Choose an existing category to move transactions to.")
	ErrCategoryNotFound    = models.NotFound("Category not found.")
	ErrDuplicateCategory   = models.Conflict("A category with this name already exists.")
	ErrCategoryNotSynced   = models.Conflict("This category has not been synced yet.")
)

// Resolution says what happens to transactions of a deleted category.
type Resolution struct {
	target string
}

// Reassign moves the transactions to another named category.
func Reassign(name string) Resolution { return Resolution{target: strings.TrimSpace(name)} }

// Unassign marks the transactions with the Unassigned sentinel.
func Unassign() Resolution { return Resolution{} }

func (r Resolution) Target() string {
	if r.target == "" {
		return models.CategoryUnassigned
	}
	return r.target
}

// MoveTransactions returns a copy of list with every transaction in category
// from moved to category to, and the transactions that changed.
func MoveTransactions(list []models.Transaction, from, to string) ([]models.Transaction, []models.Transaction) {
	out := models.CloneTransactions(list)
	var moved []models.Transaction
	for i := range out {
		if out[i].CategoryName == from {
			out[i].CategoryName = to
			moved = append(moved, out[i])
		}
	}
	return out, moved
}

// Count returns how many transactions use the category.
func Count(list []models.Transaction, name string) int {
	n := 0
	for _, t := range list {
		if t.CategoryName == name {
			n++
		}
	}
	return n
}

type Cache interface {
	SaveTransactions(ctx context.Context, txns []models.Transaction) error
}

type Gateway interface {
	CreateCategory(ctx context.Context, category models.UserCategory) (*models.AppDashboard, error)
	DeleteCategory(ctx context.Context, id int64) (*models.AppDashboard, error)
}

type Dispatcher interface {
	Dispatch(op outbox.Op)
}

// Manager is the only writer of a transaction's category field.
type Manager struct {
	runner     state.Runner
	cache      Cache
	gateway    Gateway
	sink       outbox.Sink
	dispatcher Dispatcher
}

func NewManager(runner state.Runner, cache Cache, gw Gateway, sink outbox.Sink, dispatcher Dispatcher) *Manager {
	return &Manager{runner: runner, cache: cache, gateway: gw, sink: sink, dispatcher: dispatcher}
}

func (m *Manager) pushCategories(moved []models.Transaction) {
	for _, t := range moved {
		if remoteID, ok := t.ID.Remote(); ok {
			m.dispatcher.Dispatch(outbox.Op{Kind: outbox.KindCategory, RemoteID: remoteID, CategoryName: t.CategoryName})
		}
	}
}

// AddCategory creates a category on the backend and applies the refreshed
// dashboard.
func (m *Manager) AddCategory(ctx context.Context, name, icon string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidCategoryName
	}

	snap, err := m.runner.Snapshot(ctx)
	if err != nil {
		return err
	}
	if _, exists := models.FindCategory(snap.Categories, name); exists {
		return ErrDuplicateCategory
	}
	if icon == "" {
		icon = "tag.fill"
	}

	dash, err := m.gateway.CreateCategory(ctx, models.NewCategory(name, icon))
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	slog.Info("category created", "name", name)
	m.sink.ApplyDashboard(*dash)
	return nil
}

// DeleteCategory reassigns every transaction of the category in one cache
// write, then deletes the category on the backend. The local reassignment
// stands even if the backend call fails.
func (m *Manager) DeleteCategory(ctx context.Context, id int64, res Resolution) (int, error) {
	var moved []models.Transaction
	err := m.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		var cat *models.UserCategory
		for i := range s.Categories {
			if s.Categories[i].ID != nil && *s.Categories[i].ID == id {
				cat = &s.Categories[i]
				break
			}
		}
		if cat == nil {
			return ErrCategoryNotFound
		}

		target := res.Target()
		if strings.EqualFold(target, cat.Name) {
			return ErrSameCategory
		}
		if target != models.CategoryUnassigned {
			if _, ok := models.FindCategory(s.Categories, target); !ok {
				return ErrUnknownTarget
			}
		}

		next, changed := MoveTransactions(s.Transactions, cat.Name, target)
		if len(changed) > 0 {
			if err := m.cache.SaveTransactions(ctx, next); err != nil {
				return fmt.Errorf("failed to persist transactions: %w", err)
			}
			s.Transactions = next
		}
		moved = changed
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("category transactions reassigned", "category_id", id, "moved", len(moved))
	m.pushCategories(moved)

	dash, err := m.gateway.DeleteCategory(ctx, id)
	if err != nil {
		return len(moved), fmt.Errorf("failed to delete category: %w", err)
	}
	m.sink.ApplyDashboard(*dash)
	return len(moved), nil
}

// DeleteCategoryNamed deletes a category by name. Categories that never
// reached the backend have no id and cannot be deleted yet.
func (m *Manager) DeleteCategoryNamed(ctx context.Context, name string, res Resolution) (int, error) {
	snap, err := m.runner.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	cat, ok := models.FindCategory(snap.Categories, name)
	if !ok {
		return 0, ErrCategoryNotFound
	}
	if cat.ID == nil {
		return 0, ErrCategoryNotSynced
	}
	return m.DeleteCategory(ctx, *cat.ID, res)
}

// MoveTransactions moves every transaction from one category to another.
func (m *Manager) MoveTransactions(ctx context.Context, from, to string) (int, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return 0, ErrInvalidCategoryName
	}
	if from == to {
		return 0, nil
	}

	var moved []models.Transaction
	err := m.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		next, changed := MoveTransactions(s.Transactions, from, to)
		if len(changed) == 0 {
			return nil
		}
		if err := m.cache.SaveTransactions(ctx, next); err != nil {
			return fmt.Errorf("failed to persist transactions: %w", err)
		}
		s.Transactions = next
		moved = changed
		return nil
	})
	if err != nil {
		return 0, err
	}
	m.pushCategories(moved)
	return len(moved), nil
}

// UpdateTransactionCategory recategorizes a single transaction.
func (m *Manager) UpdateTransactionCategory(ctx context.Context, id models.TransactionID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidCategoryName
	}

	var updated models.Transaction
	err := m.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		i := s.IndexOf(id)
		if i < 0 {
			return models.NotFound("Transaction not found.")
		}
		next := models.CloneTransactions(s.Transactions)
		next[i].CategoryName = name
		if err := m.cache.SaveTransactions(ctx, next); err != nil {
			return fmt.Errorf("failed to persist transactions: %w", err)
		}
		s.Transactions = next
		updated = next[i]
		return nil
	})
	if err != nil {
		return err
	}
	m.pushCategories([]models.Transaction{updated})
	return nil
}
