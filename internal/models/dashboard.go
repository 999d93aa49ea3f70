package models

import "github.com/shopspring/decimal"

// DailyInsight describes spending pace against the monthly budget.
type DailyInsight struct {
	Allowance      decimal.Decimal `json:"allowance"`
	IsOverPace     bool            `json:"isOverPace"`
	PaceDifference decimal.Decimal `json:"paceDifference"`
}

// Stats are the precomputed figures sent with a dashboard.
type Stats struct {
	TotalSpentThisMonth decimal.Decimal `json:"totalSpentThisMonth"`
	TopThreeSpends      []Transaction   `json:"topThreeSpends"`
	DailyInsight        DailyInsight    `json:"dailyInsight"`
}

// AppDashboard is the backend's authoritative snapshot for a date range.
type AppDashboard struct {
	Transactions          []Transaction          `json:"transactions"`
	Categories            []UserCategory         `json:"categories"`
	Profile               UserProfile            `json:"profile"`
	Stats                 Stats                  `json:"stats"`
	RecurringTransactions []RecurringTransaction `json:"recurringTransactions"`
}

// CategorySpending is one row of a spending breakdown.
type CategorySpending struct {
	CategoryName string          `json:"categoryName"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Percentage   float64         `json:"percentage"`
	Icon         string          `json:"icon"`
}
