package outbox

import (
	"context"
	"sync"
	"testing"

	"github.com/Samir899/SpendVolt/internal/gateway"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockGateway is a mock implementation of Gateway
type MockGateway struct {
	CreateTransactionFunc         func(ctx context.Context, txn models.Transaction) (*models.AppDashboard, error)
	DeleteTransactionFunc         func(ctx context.Context, id int64) (*models.AppDashboard, error)
	UpdateTransactionStatusFunc   func(ctx context.Context, id int64, status models.Status) (*models.AppDashboard, error)
	UpdateTransactionCategoryFunc func(ctx context.Context, id int64, name string) (*models.AppDashboard, error)
}

func (m *MockGateway) CreateTransaction(ctx context.Context, txn models.Transaction) (*models.AppDashboard, error) {
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, txn)
	}
	return &models.AppDashboard{}, nil
}

func (m *MockGateway) DeleteTransaction(ctx context.Context, id int64) (*models.AppDashboard, error) {
	if m.DeleteTransactionFunc != nil {
		return m.DeleteTransactionFunc(ctx, id)
	}
	return &models.AppDashboard{}, nil
}

func (m *MockGateway) UpdateTransactionStatus(ctx context.Context, id int64, status models.Status) (*models.AppDashboard, error) {
	if m.UpdateTransactionStatusFunc != nil {
		return m.UpdateTransactionStatusFunc(ctx, id, status)
	}
	return &models.AppDashboard{}, nil
}

func (m *MockGateway) UpdateTransactionCategory(ctx context.Context, id int64, name string) (*models.AppDashboard, error) {
	if m.UpdateTransactionCategoryFunc != nil {
		return m.UpdateTransactionCategoryFunc(ctx, id, name)
	}
	return &models.AppDashboard{}, nil
}

type recordingSink struct {
	mu      sync.Mutex
	applied []models.AppDashboard
}

func (r *recordingSink) ApplyDashboard(d models.AppDashboard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, d)
}

func TestExecute_RoutesByKind(t *testing.T) {
	var calls []string
	gw := &MockGateway{
		CreateTransactionFunc: func(ctx context.Context, txn models.Transaction) (*models.AppDashboard, error) {
			calls = append(calls, "create:"+txn.Note)
			return &models.AppDashboard{}, nil
		},
		DeleteTransactionFunc: func(ctx context.Context, id int64) (*models.AppDashboard, error) {
			calls = append(calls, "delete")
			return &models.AppDashboard{}, nil
		},
		UpdateTransactionStatusFunc: func(ctx context.Context, id int64, status models.Status) (*models.AppDashboard, error) {
			calls = append(calls, "status:"+string(status))
			return &models.AppDashboard{}, nil
		},
		UpdateTransactionCategoryFunc: func(ctx context.Context, id int64, name string) (*models.AppDashboard, error) {
			calls = append(calls, "category:"+name)
			return &models.AppDashboard{}, nil
		},
	}
	ctx := context.Background()

	_, err := Execute(ctx, gw, Op{Kind: KindCreate, Transaction: &models.Transaction{Note: "tok"}})
	require.NoError(t, err)
	_, err = Execute(ctx, gw, Op{Kind: KindStatus, RemoteID: 1, Status: models.StatusFailure})
	require.NoError(t, err)
	_, err = Execute(ctx, gw, Op{Kind: KindCategory, RemoteID: 1, CategoryName: "Fuel"})
	require.NoError(t, err)
	_, err = Execute(ctx, gw, Op{Kind: KindDelete, RemoteID: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"create:tok", "status:FAILURE", "category:Fuel", "delete"}, calls)

	_, err = Execute(ctx, gw, Op{Kind: KindCreate})
	assert.Error(t, err)
	_, err = Execute(ctx, gw, Op{Kind: "bogus"})
	assert.Error(t, err)
}

func TestMemory_Drain(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, m.Enqueue(ctx, Op{Kind: KindDelete, RemoteID: i}))
	}

	first, err := m.Drain(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, 1, m.Len())

	rest, err := m.Drain(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(3), rest[0].RemoteID)
	assert.Equal(t, 0, m.Len())
}

func TestDispatcher_SuccessAppliesDashboard(t *testing.T) {
	sink := &recordingSink{}
	gw := &MockGateway{
		DeleteTransactionFunc: func(ctx context.Context, id int64) (*models.AppDashboard, error) {
			return &models.AppDashboard{Profile: models.UserProfile{Name: "from server"}}, nil
		},
	}
	d := NewDispatcher(gw, NewMemory(), sink, nil)

	d.Dispatch(Op{Kind: KindDelete, RemoteID: 4})
	d.Wait()

	require.Len(t, sink.applied, 1)
	assert.Equal(t, "from server", sink.applied[0].Profile.Name)
}

type ackSink struct {
	recordingSink
	acked []Op
}

func (a *ackSink) Acknowledge(op Op, d models.AppDashboard) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, op)
}

func TestDispatcher_AcknowledgerGetsOp(t *testing.T) {
	sink := &ackSink{}
	d := NewDispatcher(&MockGateway{}, NewMemory(), sink, nil)

	d.Dispatch(Op{Kind: KindDelete, RemoteID: 42, Note: "tmp-1"})
	d.Wait()

	require.Len(t, sink.acked, 1)
	assert.Equal(t, "tmp-1", sink.acked[0].Note)
	assert.Equal(t, int64(42), sink.acked[0].RemoteID)
	assert.Empty(t, sink.applied)
}

func TestDispatcher_RetryableFailureIsQueued(t *testing.T) {
	ob := NewMemory()
	var reported []error
	var mu sync.Mutex
	gw := &MockGateway{
		UpdateTransactionStatusFunc: func(ctx context.Context, id int64, status models.Status) (*models.AppDashboard, error) {
			return nil, &gateway.Error{Kind: gateway.KindNoResponse}
		},
	}
	d := NewDispatcher(gw, ob, &recordingSink{}, func(err error) {
		mu.Lock()
		reported = append(reported, err)
		mu.Unlock()
	})

	d.Dispatch(Op{Kind: KindStatus, RemoteID: 2, Status: models.StatusFailure})
	d.Wait()

	assert.Equal(t, 1, ob.Len())
	assert.Len(t, reported, 1)

	ops, _ := ob.Drain(context.Background(), 0)
	assert.Equal(t, 1, ops[0].Attempts)
	assert.False(t, ops[0].EnqueuedAt.IsZero())
}

func TestDispatcher_PermanentFailureIsDropped(t *testing.T) {
	ob := NewMemory()
	gw := &MockGateway{
		DeleteTransactionFunc: func(ctx context.Context, id int64) (*models.AppDashboard, error) {
			return nil, &gateway.Error{Kind: gateway.KindServer, StatusCode: 404, Message: "Not found"}
		},
	}
	d := NewDispatcher(gw, ob, nil, nil)

	d.Dispatch(Op{Kind: KindDelete, RemoteID: 2})
	d.Wait()

	assert.Equal(t, 0, ob.Len())
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	ob := NewMemory()
	d := NewDispatcher(&MockGateway{}, ob, nil, nil)

	d.Requeue(context.Background(), Op{Kind: KindDelete, RemoteID: 1, Attempts: MaxAttempts - 1})
	assert.Equal(t, 0, ob.Len())

	d.Requeue(context.Background(), Op{Kind: KindDelete, RemoteID: 1, Attempts: 1})
	assert.Equal(t, 1, ob.Len())
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "delete 5", Op{Kind: KindDelete, RemoteID: 5}.String())
	assert.Equal(t, "status 5=SUCCESS", Op{Kind: KindStatus, RemoteID: 5, Status: models.StatusSuccess}.String())
	assert.NotEmpty(t, Op{Kind: KindCreate}.String())
}
