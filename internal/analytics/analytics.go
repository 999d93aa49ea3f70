// Package analytics derives spending figures from a transaction list. Nothing
// here mutates its input or touches the network.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/shopspring/decimal"
)

const (
	FallbackIcon = "tag.fill"
	OthersName   = "Others"
	OthersIcon   = "ellipsis.circle.fill"

	// MaxGroups is how many categories a grouped breakdown shows before
	// folding the rest into Others.
	MaxGroups = 5
)

var hundred = decimal.NewFromInt(100)

// Period is the look-back window of a category breakdown.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	case "":
		return PeriodMonth, nil
	}
	return "", models.Validation(fmt.Sprintf("Unknown period %q.", s))
}

// Start returns the beginning of the window ending at now.
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

func inMonth(t models.Transaction, month time.Month, year int) bool {
	return t.IsSuccess() && t.Date.Month() == month && t.Date.Year() == year
}

// MonthlyTotal sums successful transactions dated in the given month.
func MonthlyTotal(txns []models.Transaction, month time.Month, year int) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		if inMonth(t, month, year) {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// TopSpends returns the limit largest successful transactions of the month.
// Equal amounts keep their list order.
func TopSpends(txns []models.Transaction, month time.Month, year, limit int) []models.Transaction {
	var out []models.Transaction
	for _, t := range txns {
		if inMonth(t, month, year) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func daysIn(month time.Month, year int, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// DailyInsight compares month-to-date spend with an even spread of the budget
// over the month containing now.
func DailyInsight(totalSpent, budget decimal.Decimal, now time.Time) models.DailyInsight {
	totalDays := daysIn(now.Month(), now.Year(), now.Location())
	currentDay := now.Day()
	daysRemaining := max(1, totalDays-currentDay+1)

	dailyBudget := budget.Div(decimal.NewFromInt(int64(totalDays)))
	currentAverage := totalSpent.Div(decimal.NewFromInt(int64(max(1, currentDay))))

	allowance := budget.Sub(totalSpent).Div(decimal.NewFromInt(int64(daysRemaining)))
	if allowance.IsNegative() {
		allowance = decimal.Zero
	}

	return models.DailyInsight{
		Allowance:      allowance.Round(2),
		IsOverPace:     currentAverage.GreaterThan(dailyBudget),
		PaceDifference: currentAverage.Sub(dailyBudget).Abs().Round(2),
	}
}

// CategorySpending groups successful transactions from the period by
// category, largest first. It returns nil when nothing was spent.
func CategorySpending(txns []models.Transaction, categories []models.UserCategory, period Period, now time.Time) []models.CategorySpending {
	start := period.Start(now)

	total := decimal.Zero
	sums := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if !t.IsSuccess() || t.Date.Before(start) || t.Date.After(now) {
			continue
		}
		total = total.Add(t.Amount)
		sums[t.CategoryName] = sums[t.CategoryName].Add(t.Amount)
	}
	if !total.IsPositive() {
		return nil
	}

	icons := make(map[string]string, len(categories))
	for _, c := range categories {
		if _, ok := icons[c.Name]; !ok {
			icons[c.Name] = c.Icon
		}
	}

	out := make([]models.CategorySpending, 0, len(sums))
	for name, amount := range sums {
		icon, ok := icons[name]
		if !ok || icon == "" {
			icon = FallbackIcon
		}
		out = append(out, models.CategorySpending{
			CategoryName: name,
			TotalAmount:  amount,
			Percentage:   amount.Div(total).Mul(hundred).InexactFloat64(),
			Icon:         icon,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TotalAmount.Equal(out[j].TotalAmount) {
			return out[i].TotalAmount.GreaterThan(out[j].TotalAmount)
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out
}

// GroupedCategorySpending is CategorySpending capped at MaxGroups entries plus
// an Others entry holding the remainder.
func GroupedCategorySpending(txns []models.Transaction, categories []models.UserCategory, period Period, now time.Time) []models.CategorySpending {
	all := CategorySpending(txns, categories, period, now)
	if len(all) <= MaxGroups {
		return all
	}

	others := models.CategorySpending{CategoryName: OthersName, TotalAmount: decimal.Zero, Icon: OthersIcon}
	for _, s := range all[MaxGroups:] {
		others.TotalAmount = others.TotalAmount.Add(s.TotalAmount)
		others.Percentage += s.Percentage
	}
	return append(all[:MaxGroups:MaxGroups], others)
}

// Usage is month-to-date spend measured against the budget.
type Usage struct {
	Spent    decimal.Decimal `json:"spent"`
	Budget   decimal.Decimal `json:"budget"`
	Ratio    float64         `json:"ratio"`
	Warning  bool            `json:"warning"`
	Exceeded bool            `json:"exceeded"`
}

// BudgetUsage reports how much of the budget is used. Warning is set once the
// ratio reaches threshold.
func BudgetUsage(spent, budget decimal.Decimal, threshold float64) Usage {
	u := Usage{Spent: spent, Budget: budget}
	if !budget.IsPositive() {
		return u
	}
	u.Ratio = spent.Div(budget).InexactFloat64()
	u.Warning = threshold > 0 && u.Ratio >= threshold
	u.Exceeded = spent.GreaterThan(budget)
	return u
}
