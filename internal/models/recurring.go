package models

import "github.com/shopspring/decimal"

// Frequency is how often a recurring payment repeats.
type Frequency string

const (
	FrequencyDaily      Frequency = "DAILY"
	FrequencyWeekly     Frequency = "WEEKLY"
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyQuarterly  Frequency = "QUARTERLY"
	FrequencyHalfYearly Frequency = "HALF_YEARLY"
	FrequencyYearly     Frequency = "YEARLY"
)

var frequencyNames = map[Frequency]string{
	FrequencyDaily:      "Daily",
	FrequencyWeekly:     "Weekly",
	FrequencyMonthly:    "Monthly",
	FrequencyQuarterly:  "Quarterly",
	FrequencyHalfYearly: "Half-Yearly",
	FrequencyYearly:     "Yearly",
}

func (f Frequency) Valid() bool {
	_, ok := frequencyNames[f]
	return ok
}

func (f Frequency) DisplayName() string {
	if name, ok := frequencyNames[f]; ok {
		return name
	}
	return string(f)
}

// RecurringTransaction is a declarative rule. The backend owns its schedule.
type RecurringTransaction struct {
	ID           ServerID        `json:"id,omitempty"`
	MerchantName string          `json:"merchantName"`
	Amount       decimal.Decimal `json:"amount"`
	CategoryName string          `json:"categoryName"`
	Frequency    Frequency       `json:"frequency"`
	NextDueDate  Timestamp       `json:"nextDueDate"`
	IsActive     bool            `json:"isActive"`
}

func CloneRecurring(in []RecurringTransaction) []RecurringTransaction {
	if in == nil {
		return nil
	}
	out := make([]RecurringTransaction, len(in))
	copy(out, in)
	return out
}
