package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/state"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	SendBudgetWarningFunc func(ctx context.Context, w BudgetWarning) error
	sent                  []BudgetWarning
}

func (m *MockNotifier) SendBudgetWarning(ctx context.Context, w BudgetWarning) error {
	m.sent = append(m.sent, w)
	if m.SendBudgetWarningFunc != nil {
		return m.SendBudgetWarningFunc(ctx, w)
	}
	return nil
}

func stateWithSpend(amount int64, date time.Time) state.State {
	p := models.DefaultProfile()
	p.Email = "asha@example.com"
	return state.State{
		IsAuthenticated: true,
		Profile:         p,
		Transactions: []models.Transaction{{
			ID:           models.RemoteID(1),
			MerchantName: "Electronics",
			Amount:       decimal.NewFromInt(amount),
			Date:         models.NewTimestamp(date),
			Status:       models.StatusSuccess,
		}},
	}
}

func TestMonitor_SendsOncePerMonth(t *testing.T) {
	n := &MockNotifier{}
	m := NewMonitor(n)
	current := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }
	ctx := context.Background()

	sent, err := m.Check(ctx, stateWithSpend(7000, current))
	require.NoError(t, err)
	assert.False(t, sent)

	sent, err = m.Check(ctx, stateWithSpend(8500, current))
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, n.sent, 1)
	assert.Equal(t, time.May, n.sent[0].Month)
	assert.True(t, n.sent[0].Spent.Equal(decimal.NewFromInt(8500)))
	assert.Len(t, n.sent[0].TopSpends, 1)

	sent, _ = m.Check(ctx, stateWithSpend(9000, current))
	assert.False(t, sent)

	current = time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC)
	sent, _ = m.Check(ctx, stateWithSpend(9000, current))
	assert.True(t, sent)
	assert.Len(t, n.sent, 2)
}

func TestMonitor_RetriesAfterFailure(t *testing.T) {
	n := &MockNotifier{SendBudgetWarningFunc: func(ctx context.Context, w BudgetWarning) error {
		return errors.New("smtp down")
	}}
	m := NewMonitor(n)
	current := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	_, err := m.Check(context.Background(), stateWithSpend(9000, current))
	assert.Error(t, err)

	n.SendBudgetWarningFunc = nil
	sent, err := m.Check(context.Background(), stateWithSpend(9000, current))
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestMonitor_SkipsWithoutEmail(t *testing.T) {
	n := &MockNotifier{}
	m := NewMonitor(n)
	current := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }

	s := stateWithSpend(9000, current)
	s.Profile.Email = ""
	sent, err := m.Check(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, n.sent)
}
