package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO currency code.
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

var currencySymbols = map[Currency]string{
	CurrencyINR: "₹",
	CurrencyUSD: "$",
	CurrencyEUR: "€",
	CurrencyGBP: "£",
}

func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return currencySymbols[CurrencyINR]
}

// UnmarshalJSON accepts a code or a symbol. Anything unknown falls back to INR.
func (c *Currency) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	for code, symbol := range currencySymbols {
		if strings.EqualFold(string(code), raw) || symbol == raw {
			*c = code
			return nil
		}
	}
	*c = CurrencyINR
	return nil
}

// EnergyType is the fuel the user's vehicle runs on.
type EnergyType string

const (
	EnergyPetrol     EnergyType = "Petrol"
	EnergyDiesel     EnergyType = "Diesel"
	EnergyElectric   EnergyType = "Electric (EV)"
	EnergyNaturalGas EnergyType = "Natural Gas"
)

// UserProfile holds the user's budget settings.
type UserProfile struct {
	Name                   string          `json:"name"`
	Currency               Currency        `json:"currency"`
	MonthlyBudget          decimal.Decimal `json:"monthlyBudget"`
	EnergyType             EnergyType      `json:"energyType"`
	DefaultPaymentApp      string          `json:"defaultPaymentApp"`
	BudgetWarningThreshold float64         `json:"budgetWarningThreshold"`
	MonthlyResetDay        int             `json:"monthlyResetDay"`
	Email                  string          `json:"email,omitempty"`
}

// DefaultProfile is the starter profile used until the backend provides one.
func DefaultProfile() UserProfile {
	return UserProfile{
		Name:                   "User",
		Currency:               CurrencyINR,
		MonthlyBudget:          decimal.NewFromInt(10000),
		EnergyType:             EnergyPetrol,
		DefaultPaymentApp:      "Google Pay",
		BudgetWarningThreshold: 0.8,
		MonthlyResetDay:        1,
	}
}

// Validate checks the fields a user can edit.
func (p UserProfile) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return Validation("Please enter your name.")
	case !p.MonthlyBudget.IsPositive():
		return Validation("Monthly budget must be greater than zero.")
	case p.BudgetWarningThreshold < 0 || p.BudgetWarningThreshold > 1:
		return Validation("Budget warning threshold must be between 0 and 1.")
	case p.MonthlyResetDay < 1 || p.MonthlyResetDay > 31:
		return Validation("Monthly reset day must be between 1 and 31.")
	}
	return nil
}
