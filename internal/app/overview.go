package app

import (
	"context"
	"time"

	"github.com/Samir899/SpendVolt/internal/analytics"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/shopspring/decimal"
)

// Overview is the home screen: this month's figures computed from local state.
type Overview struct {
	Month        time.Month           `json:"month"`
	Year         int                  `json:"year"`
	Currency     models.Currency      `json:"currency"`
	TotalSpent   decimal.Decimal      `json:"totalSpent"`
	TopSpends    []models.Transaction `json:"topSpends"`
	DailyInsight models.DailyInsight  `json:"dailyInsight"`
	Pending      []models.Transaction `json:"pending"`
	Budget       analytics.Usage      `json:"budget"`
	ErrorMessage string               `json:"errorMessage,omitempty"`
}

func (a *App) Overview(ctx context.Context) (*Overview, error) {
	s, err := a.loop.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := a.now()
	total := analytics.MonthlyTotal(s.Transactions, now.Month(), now.Year())
	pending := s.Pending()
	if pending == nil {
		pending = []models.Transaction{}
	}

	return &Overview{
		Month:        now.Month(),
		Year:         now.Year(),
		Currency:     s.Profile.Currency,
		TotalSpent:   total,
		TopSpends:    analytics.TopSpends(s.Transactions, now.Month(), now.Year(), 3),
		DailyInsight: analytics.DailyInsight(total, s.Profile.MonthlyBudget, now),
		Pending:      pending,
		Budget:       analytics.BudgetUsage(total, s.Profile.MonthlyBudget, s.Profile.BudgetWarningThreshold),
		ErrorMessage: s.ErrorMessage,
	}, nil
}

// CategorySpending breaks down spending for period. Grouped folds everything
// past the largest few categories into Others.
func (a *App) CategorySpending(ctx context.Context, period analytics.Period, grouped bool) ([]models.CategorySpending, error) {
	s, err := a.loop.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.CategorySpending
	if grouped {
		out = analytics.GroupedCategorySpending(s.Transactions, s.Categories, period, a.now())
	} else {
		out = analytics.CategorySpending(s.Transactions, s.Categories, period, a.now())
	}
	if out == nil {
		out = []models.CategorySpending{}
	}
	return out, nil
}
