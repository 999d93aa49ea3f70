package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the backend's wire format for dates. It carries no zone; both
// sides read it as device-local wall-clock time.
const DateLayout = "2006-01-02T15:04:05"

// Status is where a transaction is in its lifecycle. Only the ledger moves a
// transaction between statuses.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := Status(strings.ToUpper(strings.TrimSpace(raw))); v {
	case StatusPending, StatusSuccess, StatusFailure:
		*s = v
		return nil
	default:
		return fmt.Errorf("unknown transaction status %q", raw)
	}
}

// Timestamp is a time.Time that travels in DateLayout, in the local zone.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(t.Local().Format(DateLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range []string{DateLayout, "2006-01-02"} {
		if parsed, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", raw)
}

// Transaction is a single spend entry.
type Transaction struct {
	ID           TransactionID   `json:"id"`
	MerchantName string          `json:"merchantName"`
	Amount       decimal.Decimal `json:"amount"`
	Date         Timestamp       `json:"date"`
	Status       Status          `json:"status"`
	CategoryName string          `json:"categoryName"`
	// Note carries the client token of the local transaction the backend row came from.
	Note string `json:"note,omitempty"`
}

func (t Transaction) IsPending() bool { return t.Status == StatusPending }
func (t Transaction) IsSuccess() bool { return t.Status == StatusSuccess }

// CloneTransactions returns a copy of the slice that can be modified freely.
func CloneTransactions(in []Transaction) []Transaction {
	if in == nil {
		return nil
	}
	out := make([]Transaction, len(in))
	copy(out, in)
	return out
}
