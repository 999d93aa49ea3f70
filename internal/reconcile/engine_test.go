package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Samir899/SpendVolt/internal/gateway"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/outbox"
	"github.com/Samir899/SpendVolt/internal/state"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockGateway is a mock implementation of Gateway
type MockGateway struct {
	FetchDashboardFunc            func(ctx context.Context, from, to time.Time) (*models.AppDashboard, error)
	FetchRecurringFunc            func(ctx context.Context) ([]models.RecurringTransaction, error)
	CreateRecurringFunc           func(ctx context.Context, rule models.RecurringTransaction) (*models.AppDashboard, error)
	DeleteRecurringFunc           func(ctx context.Context, id string) (*models.AppDashboard, error)
	CreateTransactionFunc         func(ctx context.Context, txn models.Transaction) (*models.AppDashboard, error)
	DeleteTransactionFunc         func(ctx context.Context, id int64) (*models.AppDashboard, error)
	UpdateTransactionStatusFunc   func(ctx context.Context, id int64, status models.Status) (*models.AppDashboard, error)
	UpdateTransactionCategoryFunc func(ctx context.Context, id int64, categoryName string) (*models.AppDashboard, error)
}

func (m *MockGateway) FetchDashboard(ctx context.Context, from, to time.Time) (*models.AppDashboard, error) {
	if m.FetchDashboardFunc != nil {
		return m.FetchDashboardFunc(ctx, from, to)
	}
	return &models.AppDashboard{}, nil
}

func (m *MockGateway) FetchRecurring(ctx context.Context) ([]models.RecurringTransaction, error) {
	if m.FetchRecurringFunc != nil {
		return m.FetchRecurringFunc(ctx)
	}
	return nil, nil
}

func (m *MockGateway) CreateRecurring(ctx context.Context, rule models.RecurringTransaction) (*models.AppDashboard, error) {
	if m.CreateRecurringFunc != nil {
		return m.CreateRecurringFunc(ctx, rule)
	}
	return &models.AppDashboard{}, nil
}

func (m *MockGateway) DeleteRecurring(ctx context.Context, id string) (*models.AppDashboard, error) {
	if m.DeleteRecurringFunc != nil {
		return m.DeleteRecurringFunc(ctx, id)
	}
	return &models.AppDashboard{}, nil
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

func (m *MockGateway) UpdateTransactionCategory(ctx context.Context, id int64, categoryName string) (*models.AppDashboard, error) {
	if m.UpdateTransactionCategoryFunc != nil {
		return m.UpdateTransactionCategoryFunc(ctx, id, categoryName)
	}
	return &models.AppDashboard{}, nil
}

// MockCache is a mock implementation of Cache
type MockCache struct {
	mu    sync.Mutex
	saved map[string]int
	err   error
}

func (m *MockCache) record(slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]int)
	}
	m.saved[slot]++
	return m.err
}

func (m *MockCache) SaveTransactions(ctx context.Context, txns []models.Transaction) error {
	return m.record("transactions")
}

func (m *MockCache) SaveCategories(ctx context.Context, cats []models.UserCategory) error {
	return m.record("categories")
}

func (m *MockCache) SaveProfile(ctx context.Context, p models.UserProfile) error {
	return m.record("profile")
}

func (m *MockCache) SaveRecurring(ctx context.Context, rules []models.RecurringTransaction) error {
	return m.record("recurring")
}

type recordingDispatcher struct {
	mu  sync.Mutex
	ops []outbox.Op
}

func (r *recordingDispatcher) Dispatch(op outbox.Op) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingDispatcher) sent() []outbox.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]outbox.Op(nil), r.ops...)
}

type fakeSession bool

func (f fakeSession) IsAuthenticated() bool { return bool(f) }

type testEngine struct {
	*Engine
	loop    *state.Loop
	cache   *MockCache
	outbox  *outbox.Memory
	logouts int
}

func newTestEngine(t *testing.T, initial state.State, gw Gateway) *testEngine {
	t.Helper()
	loop := state.NewLoop(initial)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	te := &testEngine{loop: loop, cache: &MockCache{}, outbox: outbox.NewMemory()}
	te.Engine = NewEngine(loop, te.cache, gw, fakeSession(true), te.outbox, func(ctx context.Context) error {
		te.logouts++
		return nil
	})
	te.Engine.now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }
	return te
}

func (te *testEngine) snapshot(t *testing.T) state.State {
	t.Helper()
	s, err := te.loop.Snapshot(context.Background())
	require.NoError(t, err)
	return s
}

func TestSync(t *testing.T) {
	var gotFrom, gotTo time.Time
	gw := &MockGateway{
		FetchDashboardFunc: func(ctx context.Context, from, to time.Time) (*models.AppDashboard, error) {
			gotFrom, gotTo = from, to
			return &models.AppDashboard{
				Transactions: []models.Transaction{txn(models.RemoteID(1), 4, models.StatusSuccess, "tmp-a")},
				Categories:   models.DefaultCategories(),
				Profile:      models.DefaultProfile(),
			}, nil
		},
		FetchRecurringFunc: func(ctx context.Context) ([]models.RecurringTransaction, error) {
			return []models.RecurringTransaction{{ID: "7", MerchantName: "Gym", Frequency: models.FrequencyMonthly}}, nil
		},
	}
	initial := state.State{IsAuthenticated: true, Transactions: []models.Transaction{
		txn(models.LocalID("tmp-a"), 4, models.StatusSuccess, "tmp-a"),
		txn(models.LocalID("tmp-b"), 6, models.StatusPending, "tmp-b"),
	}}
	te := newTestEngine(t, initial, gw)

	res, err := te.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), gotFrom)
	assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC), gotTo)
	assert.Equal(t, &Result{ServerTransactions: 1, LocalOnly: 1, Pending: 1}, res)

	s := te.snapshot(t)
	assert.Equal(t, []string{"tmp-b", "1"}, ids(s.Transactions))
	require.Len(t, s.Recurring, 1)
	assert.Equal(t, "Gym", s.Recurring[0].MerchantName)
	assert.True(t, s.IsAuthenticated)
	for _, slot := range []string{"transactions", "categories", "profile", "recurring"} {
		assert.Equal(t, 1, te.cache.saved[slot], slot)
	}
}

func TestSync_FetchFailureLeavesStateUntouched(t *testing.T) {
	gw := &MockGateway{FetchDashboardFunc: func(ctx context.Context, from, to time.Time) (*models.AppDashboard, error) {
		return nil, &gateway.Error{Kind: gateway.KindServer, StatusCode: 500, Message: "Database unavailable"}
	}}
	initial := state.State{Transactions: []models.Transaction{txn(models.RemoteID(3), 2, models.StatusSuccess, "")}}
	te := newTestEngine(t, initial, gw)

	_, err := te.Sync(context.Background())
	require.Error(t, err)

	s := te.snapshot(t)
	assert.Equal(t, []string{"3"}, ids(s.Transactions))
	assert.Equal(t, "Database unavailable", s.ErrorMessage)
	assert.Equal(t, 0, te.logouts)
	assert.Empty(t, te.cache.saved)
}

func TestSync_UnauthorizedLogsOut(t *testing.T) {
	gw := &MockGateway{FetchDashboardFunc: func(ctx context.Context, from, to time.Time) (*models.AppDashboard, error) {
		return nil, &gateway.Error{Kind: gateway.KindUnauthorized, StatusCode: 401}
	}}
	te := newTestEngine(t, state.State{}, gw)

	_, err := te.Sync(context.Background())

	assert.True(t, gateway.IsUnauthorized(err))
	assert.Equal(t, 1, te.logouts)
}

func TestSync_RecurringFailureIsNotFatal(t *testing.T) {
	gw := &MockGateway{
		FetchDashboardFunc: func(ctx context.Context, from, to time.Time) (*models.AppDashboard, error) {
			return &models.AppDashboard{RecurringTransactions: []models.RecurringTransaction{{ID: "1", MerchantName: "Rent"}}}, nil
		},
		FetchRecurringFunc: func(ctx context.Context) ([]models.RecurringTransaction, error) {
			return nil, errors.New("boom")
		},
	}
	te := newTestEngine(t, state.State{}, gw)

	_, err := te.Sync(context.Background())
	require.NoError(t, err)

	s := te.snapshot(t)
	require.Len(t, s.Recurring, 1)
	assert.Equal(t, "Rent", s.Recurring[0].MerchantName)
}

func TestSync_NotAuthenticated(t *testing.T) {
	te := newTestEngine(t, state.State{}, &MockGateway{})
	te.session = fakeSession(false)

	_, err := te.Sync(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSync_ReplaysOutbox(t *testing.T) {
	var created []models.Transaction
	gw := &MockGateway{
		FetchDashboardFunc: func(ctx context.Context, from, to time.Time) (*models.AppDashboard, error) {
			return &models.AppDashboard{Transactions: []models.Transaction{
				txn(models.RemoteID(1), 2, models.StatusSuccess, "tmp-acked"),
			}}, nil
		},
		CreateTransactionFunc: func(ctx context.Context, txn models.Transaction) (*models.AppDashboard, error) {
			created = append(created, txn)
			echoed := txn
			echoed.ID = models.RemoteID(2)
			return &models.AppDashboard{Transactions: []models.Transaction{echoed}}, nil
		},
		UpdateTransactionStatusFunc: func(ctx context.Context, id int64, status models.Status) (*models.AppDashboard, error) {
			return nil, &gateway.Error{Kind: gateway.KindNoResponse}
		},
		DeleteTransactionFunc: func(ctx context.Context, id int64) (*models.AppDashboard, error) {
			return nil, &gateway.Error{Kind: gateway.KindServer, StatusCode: 404, Message: "Not found"}
		},
	}

	unsentTxn := txn(models.LocalID("tmp-unsent"), 5, models.StatusSuccess, "tmp-unsent")
	ackedTxn := txn(models.LocalID("tmp-acked"), 2, models.StatusSuccess, "tmp-acked")
	te := newTestEngine(t, state.State{Transactions: []models.Transaction{unsentTxn, ackedTxn}}, gw)

	ctx := context.Background()
	stale := unsentTxn
	stale.Amount = decimal.NewFromInt(1)
	require.NoError(t, te.outbox.Enqueue(ctx, outbox.Op{Kind: outbox.KindCreate, Transaction: &stale}))
	require.NoError(t, te.outbox.Enqueue(ctx, outbox.Op{Kind: outbox.KindCreate, Transaction: &ackedTxn}))
	require.NoError(t, te.outbox.Enqueue(ctx, outbox.Op{Kind: outbox.KindStatus, RemoteID: 1, Status: models.StatusFailure}))
	require.NoError(t, te.outbox.Enqueue(ctx, outbox.Op{Kind: outbox.KindDelete, RemoteID: 4}))

	res, err := te.Sync(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Replayed)
	assert.Equal(t, 1, res.Requeued)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 1, te.outbox.Len())

	require.Len(t, created, 1)
	assert.Equal(t, "tmp-unsent", created[0].ID.String())
	assert.True(t, created[0].Amount.Equal(unsentTxn.Amount))

	s := te.snapshot(t)
	assert.Equal(t, []string{"2"}, ids(s.Transactions))
}

func TestApplyDashboard(t *testing.T) {
	te := newTestEngine(t, state.State{}, &MockGateway{})
	events, cancel := te.loop.Subscribe()
	defer cancel()

	te.ApplyDashboard(models.AppDashboard{Transactions: []models.Transaction{txn(models.RemoteID(8), 1, models.StatusSuccess, "")}})

	select {
	case ev := <-events:
		assert.Len(t, ev.State.Transactions, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no state event after applying dashboard")
	}
}

func TestAddRecurring(t *testing.T) {
	var got models.RecurringTransaction
	gw := &MockGateway{CreateRecurringFunc: func(ctx context.Context, rule models.RecurringTransaction) (*models.AppDashboard, error) {
		got = rule
		return &models.AppDashboard{RecurringTransactions: []models.RecurringTransaction{rule}}, nil
	}}
	te := newTestEngine(t, state.State{}, gw)
	ctx := context.Background()

	err := te.AddRecurring(ctx, RecurringRequest{MerchantName: "Gym", Amount: decimal.Zero, Frequency: models.FrequencyMonthly})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	err = te.AddRecurring(ctx, RecurringRequest{MerchantName: "Gym", Amount: decimal.NewFromInt(999), Frequency: "FORTNIGHTLY"})
	assert.ErrorIs(t, err, ErrInvalidFrequency)

	err = te.AddRecurring(ctx, RecurringRequest{MerchantName: "Gym", Amount: decimal.NewFromInt(999), Frequency: models.FrequencyMonthly})
	require.NoError(t, err)

	assert.Equal(t, models.CategoryOther, got.CategoryName)
	assert.True(t, got.IsActive)
	assert.True(t, got.NextDueDate.Equal(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)))
	assert.Len(t, te.snapshot(t).Recurring, 1)
}

func TestDeleteRecurring_FailureSurfacesMessage(t *testing.T) {
	gw := &MockGateway{DeleteRecurringFunc: func(ctx context.Context, id string) (*models.AppDashboard, error) {
		return nil, &gateway.Error{Kind: gateway.KindServer, StatusCode: 400, Message: "Rule not found"}
	}}
	te := newTestEngine(t, state.State{}, gw)

	assert.ErrorIs(t, te.DeleteRecurring(context.Background(), ""), ErrMissingRecurrence)

	err := te.DeleteRecurring(context.Background(), "12")
	require.Error(t, err)
	assert.Equal(t, "Rule not found", te.snapshot(t).ErrorMessage)
}

func TestApplyDashboard_DeletedLocalIsPurged(t *testing.T) {
	te := newTestEngine(t, state.State{Transactions: []models.Transaction{}, Deleted: map[string]int64{"tmp-1": 0}}, &MockGateway{})
	d := &recordingDispatcher{}
	te.SetDispatcher(d)

	te.ApplyDashboard(models.AppDashboard{Transactions: []models.Transaction{
		txn(models.RemoteID(42), 3, models.StatusSuccess, "tmp-1"),
	}})

	s := te.snapshot(t)
	assert.Empty(t, s.Transactions)
	assert.Equal(t, int64(42), s.Deleted["tmp-1"])

	ops := d.sent()
	require.Len(t, ops, 1)
	assert.Equal(t, outbox.KindDelete, ops[0].Kind)
	assert.Equal(t, int64(42), ops[0].RemoteID)
	assert.Equal(t, "tmp-1", ops[0].Note)

	te.Acknowledge(ops[0], models.AppDashboard{Transactions: []models.Transaction{}})

	s = te.snapshot(t)
	assert.Empty(t, s.Transactions)
	assert.Empty(t, s.Deleted)
	assert.Len(t, d.sent(), 1)
}

func TestApplyDashboard_PurgeWaitsInOutboxWithoutDispatcher(t *testing.T) {
	te := newTestEngine(t, state.State{Deleted: map[string]int64{"tmp-1": 0}}, &MockGateway{})

	te.ApplyDashboard(models.AppDashboard{Transactions: []models.Transaction{
		txn(models.RemoteID(42), 3, models.StatusSuccess, "tmp-1"),
	}})

	assert.Empty(t, te.snapshot(t).Transactions)
	assert.Equal(t, 1, te.outbox.Len())
}

func TestSync_ReplayedPurgeClearsTombstone(t *testing.T) {
	var deleted []int64
	gw := &MockGateway{
		FetchDashboardFunc: func(ctx context.Context, from, to time.Time) (*models.AppDashboard, error) {
			return &models.AppDashboard{Transactions: []models.Transaction{
				txn(models.RemoteID(42), 3, models.StatusSuccess, "tmp-1"),
			}}, nil
		},
		DeleteTransactionFunc: func(ctx context.Context, id int64) (*models.AppDashboard, error) {
			deleted = append(deleted, id)
			return &models.AppDashboard{Transactions: []models.Transaction{}}, nil
		},
	}
	initial := state.State{IsAuthenticated: true, Deleted: map[string]int64{"tmp-1": 42}}
	te := newTestEngine(t, initial, gw)
	require.NoError(t, te.outbox.Enqueue(context.Background(), outbox.Op{Kind: outbox.KindDelete, RemoteID: 42, Note: "tmp-1"}))

	res, err := te.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Replayed)
	assert.Equal(t, []int64{42}, deleted)
	s := te.snapshot(t)
	assert.Empty(t, s.Transactions)
	assert.Empty(t, s.Deleted)
}

func TestApplyDashboard_DroppedAfterLogout(t *testing.T) {
	te := newTestEngine(t, state.State{Transactions: []models.Transaction{}}, &MockGateway{})
	te.session = fakeSession(false)

	profile := models.DefaultProfile()
	profile.Name = "Previous User"
	te.ApplyDashboard(models.AppDashboard{
		Transactions: []models.Transaction{txn(models.RemoteID(8), 1, models.StatusSuccess, "")},
		Profile:      profile,
	})

	s := te.snapshot(t)
	assert.Empty(t, s.Transactions)
	assert.False(t, s.IsAuthenticated)
	assert.NotEqual(t, "Previous User", s.Profile.Name)
	assert.Empty(t, te.cache.saved)
}
