// Package csvparse reads manual expense entries from a CSV export.
package csvparse

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/Samir899/SpendVolt/internal/ledger"
	"github.com/shopspring/decimal"
)

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02-01-2006",
}

// Header aliases, keyed by the lower-cased header text.
var headerAliases = map[string]string{
	"date":        "Date",
	"merchant":    "Merchant",
	"name":        "Merchant",
	"description": "Merchant",
	"payee":       "Merchant",
	"amount":      "Amount",
	"category":    "Category",
}

// ParseCSV parses manual entries from a CSV string.
// It returns the valid entries and a message for every rejected row.
func ParseCSV(content string) ([]ledger.ManualEntry, []string) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, []string{fmt.Sprintf("Failed to read CSV: %v", err)}
	}

	if len(records) < 2 {
		return []ledger.ManualEntry{}, nil // Empty or header-only
	}

	headers := parseHeaders(records[0])
	for _, required := range []string{"Date", "Merchant", "Amount"} {
		if !contains(headers, required) {
			return nil, []string{fmt.Sprintf("Missing %s column", required)}
		}
	}

	var entries []ledger.ManualEntry
	var errors []string

	for i, record := range records[1:] {
		rowNum := i + 2
		if len(record) < len(headers) {
			errors = append(errors, fmt.Sprintf("Row %d: Not enough fields", rowNum))
			continue
		}

		rowMap := make(map[string]string)
		for j, header := range headers {
			rowMap[header] = strings.TrimSpace(record[j])
		}

		e, err := mapToEntry(rowMap)
		if err != nil {
			errors = append(errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		entries = append(entries, *e)
	}

	return entries, errors
}

func parseHeaders(row []string) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if canonical, ok := headerAliases[strings.ToLower(h)]; ok {
			h = canonical
		}
		headers[i] = h
	}
	return headers
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid Date format: %s", s)
}

// parseAmount strips currency symbols and thousands separators. Debits
// exported as negative numbers count as spend.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "₹", "", "$", "", "€", "", "£", "", " ", "").Replace(s)
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid Amount: %s", s)
	}
	amount = amount.Abs()
	if amount.IsZero() {
		return decimal.Zero, fmt.Errorf("Amount must be greater than zero")
	}
	return amount, nil
}

func mapToEntry(row map[string]string) (*ledger.ManualEntry, error) {
	dateStr := row["Date"]
	if dateStr == "" {
		return nil, fmt.Errorf("missing Date")
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, err
	}

	merchant := row["Merchant"]
	if merchant == "" {
		return nil, fmt.Errorf("missing Merchant")
	}

	amountStr := row["Amount"]
	if amountStr == "" {
		return nil, fmt.Errorf("missing Amount")
	}
	amount, err := parseAmount(amountStr)
	if err != nil {
		return nil, err
	}

	return &ledger.ManualEntry{
		MerchantName: merchant,
		Amount:       amount,
		CategoryName: row["Category"],
		Date:         date,
	}, nil
}
