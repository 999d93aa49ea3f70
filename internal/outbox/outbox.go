// Package outbox delivers local changes to the backend and keeps the ones
// that could not be delivered for a later sync.
package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Samir899/SpendVolt/internal/models"
)

// Kind names the backend mutation an Op performs.
type Kind string

const (
	KindCreate   Kind = "create"
	KindStatus   Kind = "status"
	KindCategory Kind = "category"
	KindDelete   Kind = "delete"
)

// MaxAttempts bounds how often a single op is retried.
const MaxAttempts = 10

// Op is one pending backend mutation.
type Op struct {
	Kind         Kind                `json:"kind"`
	Transaction  *models.Transaction `json:"transaction,omitempty"`
	RemoteID     int64               `json:"remoteId,omitempty"`
	Status       models.Status       `json:"status,omitempty"`
	CategoryName string              `json:"categoryName,omitempty"`
	// Note is the client token a delete clears once the backend row is gone.
	Note         string              `json:"note,omitempty"`
	Attempts     int                 `json:"attempts"`
	EnqueuedAt   time.Time           `json:"enqueuedAt"`
}

func (o Op) String() string {
	switch o.Kind {
	case KindCreate:
		if o.Transaction != nil {
			return fmt.Sprintf("create %s", o.Transaction.ID)
		}
	case KindStatus:
		return fmt.Sprintf("status %d=%s", o.RemoteID, o.Status)
	case KindCategory:
		return fmt.Sprintf("category %d=%s", o.RemoteID, o.CategoryName)
	case KindDelete:
		return fmt.Sprintf("delete %d", o.RemoteID)
	}
	return string(o.Kind)
}

// Outbox stores undelivered ops.
type Outbox interface {
	Enqueue(ctx context.Context, op Op) error
	// Drain removes and returns up to max ops.
	Drain(ctx context.Context, max int) ([]Op, error)
}

// Gateway is the subset of the backend client ops need.
type Gateway interface {
	CreateTransaction(ctx context.Context, txn models.Transaction) (*models.AppDashboard, error)
	DeleteTransaction(ctx context.Context, id int64) (*models.AppDashboard, error)
	UpdateTransactionStatus(ctx context.Context, id int64, status models.Status) (*models.AppDashboard, error)
	UpdateTransactionCategory(ctx context.Context, id int64, categoryName string) (*models.AppDashboard, error)
}

// Execute sends op to the backend.
func Execute(ctx context.Context, gw Gateway, op Op) (*models.AppDashboard, error) {
	switch op.Kind {
	case KindCreate:
		if op.Transaction == nil {
			return nil, fmt.Errorf("create op without transaction")
		}
		return gw.CreateTransaction(ctx, *op.Transaction)
	case KindStatus:
		return gw.UpdateTransactionStatus(ctx, op.RemoteID, op.Status)
	case KindCategory:
		return gw.UpdateTransactionCategory(ctx, op.RemoteID, op.CategoryName)
	case KindDelete:
		return gw.DeleteTransaction(ctx, op.RemoteID)
	default:
		return nil, fmt.Errorf("unknown outbox op kind %q", op.Kind)
	}
}

// Memory is an in-process Outbox.
type Memory struct {
	mu  sync.Mutex
	ops []Op
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Enqueue(ctx context.Context, op Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
	return nil
}

func (m *Memory) Drain(ctx context.Context, max int) ([]Op, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if max <= 0 || max > len(m.ops) {
		max = len(m.ops)
	}
	out := make([]Op, max)
	copy(out, m.ops[:max])
	m.ops = m.ops[max:]
	return out, nil
}

// Len reports the number of queued ops.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ops)
}
