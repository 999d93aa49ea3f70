package analytics

import (
	"testing"
	"time"

	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 4, 10, 18, 0, 0, 0, time.UTC)

func spend(merchant string, amount int64, category string, date time.Time, status models.Status) models.Transaction {
	return models.Transaction{
		ID:           models.NewLocalID(),
		MerchantName: merchant,
		Amount:       decimal.NewFromInt(amount),
		Date:         models.NewTimestamp(date),
		Status:       status,
		CategoryName: category,
	}
}

func sample() []models.Transaction {
	return []models.Transaction{
		spend("Fuel Pump", 500, "Fuel", now.AddDate(0, 0, -1), models.StatusSuccess),
		spend("Bakery", 200, "Dining", now.AddDate(0, 0, -2), models.StatusSuccess),
		spend("Cafe", 500, "Dining", now.AddDate(0, 0, -3), models.StatusSuccess),
		spend("Pending", 9000, "Dining", now.AddDate(0, 0, -1), models.StatusPending),
		spend("Failed", 7000, "Dining", now.AddDate(0, 0, -1), models.StatusFailure),
		spend("Old", 300, "Grocery", now.AddDate(0, -2, 0), models.StatusSuccess),
	}
}

func TestMonthlyTotal(t *testing.T) {
	total := MonthlyTotal(sample(), time.April, 2024)
	assert.True(t, total.Equal(decimal.NewFromInt(1200)), total.String())

	assert.True(t, MonthlyTotal(sample(), time.February, 2024).Equal(decimal.NewFromInt(300)))
	assert.True(t, MonthlyTotal(nil, time.April, 2024).IsZero())
}

func TestTopSpends(t *testing.T) {
	top := TopSpends(sample(), time.April, 2024, 2)
	require.Len(t, top, 2)
	// Equal amounts keep list order.
	assert.Equal(t, "Fuel Pump", top[0].MerchantName)
	assert.Equal(t, "Cafe", top[1].MerchantName)

	assert.Len(t, TopSpends(sample(), time.April, 2024, 10), 3)
}

func TestDailyInsight(t *testing.T) {
	day10 := time.Date(2024, 9, 10, 9, 0, 0, 0, time.UTC) // September has 30 days

	tests := []struct {
		name      string
		spent     int64
		budget    int64
		now       time.Time
		allowance string
		overPace  bool
		pace      string
	}{
		{name: "nothing spent", spent: 0, budget: 3000, now: day10, allowance: "142.86", overPace: false, pace: "100"},
		{name: "over pace", spent: 2000, budget: 3000, now: day10, allowance: "47.62", overPace: true, pace: "100"},
		{name: "budget blown", spent: 5000, budget: 3000, now: day10, allowance: "0", overPace: true, pace: "400"},
		{name: "last day", spent: 0, budget: 3000, now: time.Date(2024, 9, 30, 9, 0, 0, 0, time.UTC), allowance: "3000", overPace: false, pace: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DailyInsight(decimal.NewFromInt(tt.spent), decimal.NewFromInt(tt.budget), tt.now)
			assert.True(t, got.Allowance.Equal(decimal.RequireFromString(tt.allowance)), got.Allowance.String())
			assert.Equal(t, tt.overPace, got.IsOverPace)
			assert.True(t, got.PaceDifference.Equal(decimal.RequireFromString(tt.pace)), got.PaceDifference.String())
		})
	}
}

func TestCategorySpending(t *testing.T) {
	cats := []models.UserCategory{models.NewCategory("Fuel", "fuelpump.fill")}

	got := CategorySpending(sample(), cats, PeriodMonth, now)
	require.Len(t, got, 2)

	assert.Equal(t, "Dining", got[0].CategoryName)
	assert.True(t, got[0].TotalAmount.Equal(decimal.NewFromInt(700)))
	assert.Equal(t, FallbackIcon, got[0].Icon)
	assert.Equal(t, "Fuel", got[1].CategoryName)
	assert.Equal(t, "fuelpump.fill", got[1].Icon)

	sum := 0.0
	for _, s := range got {
		sum += s.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.0001)

	year := CategorySpending(sample(), cats, PeriodYear, now)
	assert.Len(t, year, 3)

	week := CategorySpending(sample(), cats, PeriodWeek, now)
	assert.Len(t, week, 2)
}

func TestCategorySpending_NothingSpent(t *testing.T) {
	txns := []models.Transaction{spend("Pending", 100, "Fuel", now, models.StatusPending)}
	assert.Empty(t, CategorySpending(txns, nil, PeriodMonth, now))
}

func TestGroupedCategorySpending(t *testing.T) {
	var txns []models.Transaction
	for i, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		txns = append(txns, spend(name, int64(700-i*100), name, now.AddDate(0, 0, -1), models.StatusSuccess))
	}

	got := GroupedCategorySpending(txns, nil, PeriodWeek, now)
	require.Len(t, got, 6)
	assert.Equal(t, "A", got[0].CategoryName)
	others := got[5]
	assert.Equal(t, OthersName, others.CategoryName)
	assert.Equal(t, OthersIcon, others.Icon)
	assert.True(t, others.TotalAmount.Equal(decimal.NewFromInt(300)), others.TotalAmount.String())

	sum := 0.0
	for _, s := range got {
		sum += s.Percentage
	}
	assert.InDelta(t, 100.0, sum, 0.0001)

	assert.Len(t, GroupedCategorySpending(txns[:3], nil, PeriodWeek, now), 3)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("WEEK")
	require.NoError(t, err)
	assert.Equal(t, PeriodWeek, p)

	p, err = ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodMonth, p)

	_, err = ParsePeriod("decade")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestBudgetUsage(t *testing.T) {
	u := BudgetUsage(decimal.NewFromInt(8000), decimal.NewFromInt(10000), 0.8)
	assert.InDelta(t, 0.8, u.Ratio, 1e-9)
	assert.True(t, u.Warning)
	assert.False(t, u.Exceeded)

	u = BudgetUsage(decimal.NewFromInt(12000), decimal.NewFromInt(10000), 0.8)
	assert.True(t, u.Exceeded)

	u = BudgetUsage(decimal.NewFromInt(100), decimal.Zero, 0.8)
	assert.False(t, u.Warning)
	assert.Zero(t, u.Ratio)
}
