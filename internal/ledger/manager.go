package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/outbox"
	"github.com/Samir899/SpendVolt/internal/state"
	"github.com/shopspring/decimal"
)

// Cache persists the transaction slot.
type Cache interface {
	SaveTransactions(ctx context.Context, txns []models.Transaction) error
}

// Launcher opens an external payment app. It never reports back.
type Launcher interface {
	Open(rawURL, app string)
}

// Dispatcher pushes changes to the backend in the background.
type Dispatcher interface {
	Dispatch(op outbox.Op)
}

// PaymentRequest starts a scan-initiated payment.
type PaymentRequest struct {
	MerchantName string          `json:"merchantName"`
	Amount       decimal.Decimal `json:"amount"`
	CategoryName string          `json:"categoryName"`
	URL          string          `json:"url"`
	App          string          `json:"app,omitempty"`
}

// ManualEntry is a payment the user made outside the app.
type ManualEntry struct {
	MerchantName string          `json:"merchantName"`
	Amount       decimal.Decimal `json:"amount"`
	CategoryName string          `json:"categoryName"`
	Date         time.Time       `json:"date"`
}

// Manager is the only writer of transaction status and list membership.
// Every change is persisted before the call returns; the backend is told
// afterwards, off the caller's path.
type Manager struct {
	runner     state.Runner
	cache      Cache
	launcher   Launcher
	dispatcher Dispatcher
	now        func() time.Time
}

func NewManager(runner state.Runner, cache Cache, launcher Launcher, dispatcher Dispatcher) *Manager {
	return &Manager{
		runner:     runner,
		cache:      cache,
		launcher:   launcher,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

func (m *Manager) commit(ctx context.Context, s *state.State, next []models.Transaction) error {
	if err := m.cache.SaveTransactions(ctx, next); err != nil {
		return fmt.Errorf("failed to persist transactions: %w", err)
	}
	s.Transactions = next
	return nil
}

// tokenOf returns the client token the backend echoes back in the note.
func tokenOf(t models.Transaction) string {
	if t.Note != "" {
		return t.Note
	}
	return t.ID.String()
}

func categoryOrDefault(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return models.CategoryOther
}

// InitiatePayment records a pending transaction and opens the payment app.
// The amount may be zero; the user supplies it on confirmation.
func (m *Manager) InitiatePayment(ctx context.Context, req PaymentRequest) (models.TransactionID, error) {
	merchant := strings.TrimSpace(req.MerchantName)
	if merchant == "" {
		return models.TransactionID{}, ErrMissingMerchant
	}
	if req.Amount.IsNegative() {
		return models.TransactionID{}, ErrNegativeAmount
	}

	id := models.NewLocalID()
	txn := models.Transaction{
		ID:           id,
		MerchantName: merchant,
		Amount:       req.Amount,
		Date:         models.NewTimestamp(m.now()),
		Status:       models.StatusPending,
		CategoryName: categoryOrDefault(req.CategoryName),
		Note:         id.String(),
	}

	app := req.App
	err := m.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		if app == "" {
			app = s.Profile.DefaultPaymentApp
		}
		return m.commit(ctx, s, Insert(s.Transactions, txn))
	})
	if err != nil {
		return models.TransactionID{}, err
	}

	slog.Info("payment initiated", "id", id.String(), "merchant", merchant, "app", app)
	if m.launcher != nil && req.URL != "" {
		m.launcher.Open(req.URL, app)
	}
	return id, nil
}

// ConfirmTransaction marks a pending transaction as paid.
func (m *Manager) ConfirmTransaction(ctx context.Context, id models.TransactionID, finalAmount *decimal.Decimal) error {
	var confirmed models.Transaction
	err := m.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		next, txn, err := Confirm(s.Transactions, id, finalAmount)
		if err != nil {
			return err
		}
		if err := m.commit(ctx, s, next); err != nil {
			return err
		}
		confirmed = txn
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("transaction confirmed", "id", id.String(), "amount", confirmed.Amount.String())
	if remoteID, ok := confirmed.ID.Remote(); ok {
		m.dispatcher.Dispatch(outbox.Op{Kind: outbox.KindStatus, RemoteID: remoteID, Status: models.StatusSuccess})
	} else {
		m.dispatcher.Dispatch(outbox.Op{Kind: outbox.KindCreate, Transaction: &confirmed})
	}
	return nil
}

// RejectTransaction marks a pending transaction as failed. Only transactions
// the backend already knows about are reported.
func (m *Manager) RejectTransaction(ctx context.Context, id models.TransactionID) error {
	var rejected models.Transaction
	err := m.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		next, txn, err := Reject(s.Transactions, id)
		if err != nil {
			return err
		}
		if err := m.commit(ctx, s, next); err != nil {
			return err
		}
		rejected = txn
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("transaction rejected", "id", id.String())
	if remoteID, ok := rejected.ID.Remote(); ok {
		m.dispatcher.Dispatch(outbox.Op{Kind: outbox.KindStatus, RemoteID: remoteID, Status: models.StatusFailure})
	}
	return nil
}

// DeleteTransaction removes a transaction locally. A failed remote delete
// does not bring it back.
func (m *Manager) DeleteTransaction(ctx context.Context, id models.TransactionID) error {
	err := m.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		next, removed, err := Remove(s.Transactions, id)
		if err != nil {
			return err
		}
		if err := m.commit(ctx, s, next); err != nil {
			return err
		}
		// A confirmed local transaction may already be on its way to the
		// backend; its echo must not bring it back.
		if id.IsLocal() && removed.IsSuccess() {
			if s.Deleted == nil {
				s.Deleted = make(map[string]int64)
			}
			s.Deleted[tokenOf(removed)] = 0
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("transaction deleted", "id", id.String())
	if remoteID, ok := id.Remote(); ok {
		m.dispatcher.Dispatch(outbox.Op{Kind: outbox.KindDelete, RemoteID: remoteID})
	}
	return nil
}

// AddManualTransaction records an already completed payment.
func (m *Manager) AddManualTransaction(ctx context.Context, entry ManualEntry) (models.TransactionID, error) {
	merchant := strings.TrimSpace(entry.MerchantName)
	if merchant == "" {
		return models.TransactionID{}, ErrMissingMerchant
	}
	if !entry.Amount.IsPositive() {
		return models.TransactionID{}, ErrInvalidAmount
	}

	date := entry.Date
	if date.IsZero() {
		date = m.now()
	}

	id := models.NewLocalID()
	txn := models.Transaction{
		ID:           id,
		MerchantName: merchant,
		Amount:       entry.Amount,
		Date:         models.NewTimestamp(date),
		Status:       models.StatusSuccess,
		CategoryName: categoryOrDefault(entry.CategoryName),
		Note:         id.String(),
	}

	err := m.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		return m.commit(ctx, s, Insert(s.Transactions, txn))
	})
	if err != nil {
		return models.TransactionID{}, err
	}

	slog.Info("manual transaction added", "id", id.String(), "merchant", merchant)
	m.dispatcher.Dispatch(outbox.Op{Kind: outbox.KindCreate, Transaction: &txn})
	return id, nil
}
