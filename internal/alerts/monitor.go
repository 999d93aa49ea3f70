// Package alerts warns the user by email when month-to-date spending crosses
// the profile's warning threshold.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Samir899/SpendVolt/internal/analytics"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/state"
	"github.com/shopspring/decimal"
)

// BudgetWarning is the content of one warning email.
type BudgetWarning struct {
	Name      string
	Email     string
	Currency  models.Currency
	Spent     decimal.Decimal
	Budget    decimal.Decimal
	Usage     analytics.Usage
	Month     time.Month
	Year      int
	TopSpends []models.Transaction
}

// Notifier delivers budget warnings.
type Notifier interface {
	SendBudgetWarning(ctx context.Context, w BudgetWarning) error
}

// Monitor sends at most one warning per address and calendar month.
type Monitor struct {
	notifier Notifier
	now      func() time.Time

	mu   sync.Mutex
	sent map[string]bool
}

func NewMonitor(notifier Notifier) *Monitor {
	return &Monitor{notifier: notifier, now: time.Now, sent: make(map[string]bool)}
}

func monthKey(email string, t time.Time) string {
	return fmt.Sprintf("%s|%04d-%02d", strings.ToLower(email), t.Year(), int(t.Month()))
}

// Check sends a warning if s crossed the threshold this month and none was
// sent yet. It reports whether a warning went out.
func (m *Monitor) Check(ctx context.Context, s state.State) (bool, error) {
	p := s.Profile
	if m.notifier == nil || p.Email == "" || !s.IsAuthenticated {
		return false, nil
	}

	now := m.now()
	spent := analytics.MonthlyTotal(s.Transactions, now.Month(), now.Year())
	usage := analytics.BudgetUsage(spent, p.MonthlyBudget, p.BudgetWarningThreshold)
	if !usage.Warning {
		return false, nil
	}

	key := monthKey(p.Email, now)
	m.mu.Lock()
	if m.sent[key] {
		m.mu.Unlock()
		return false, nil
	}
	// Claim the slot so concurrent checks do not send twice.
	m.sent[key] = true
	m.mu.Unlock()

	w := BudgetWarning{
		Name:      p.Name,
		Email:     p.Email,
		Currency:  p.Currency,
		Spent:     spent,
		Budget:    p.MonthlyBudget,
		Usage:     usage,
		Month:     now.Month(),
		Year:      now.Year(),
		TopSpends: analytics.TopSpends(s.Transactions, now.Month(), now.Year(), 3),
	}
	if err := m.notifier.SendBudgetWarning(ctx, w); err != nil {
		m.mu.Lock()
		delete(m.sent, key)
		m.mu.Unlock()
		return false, fmt.Errorf("failed to send budget warning: %w", err)
	}

	slog.Info("budget warning sent", "ratio", usage.Ratio, "month", now.Format("2006-01"))
	return true, nil
}

// Watch checks every state change until ctx is done.
func (m *Monitor) Watch(ctx context.Context, events <-chan state.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if _, err := m.Check(ctx, ev.State); err != nil {
				slog.Error("failed to check budget", "error", err)
			}
		}
	}
}
