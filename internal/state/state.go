// Package state holds the app's observable state and the goroutine that owns it.
package state

import (
	"maps"

	"github.com/Samir899/SpendVolt/internal/models"
)

// State is everything the UI renders. Only the Loop goroutine touches the
// live copy; everyone else works on snapshots.
type State struct {
	Transactions    []models.Transaction          `json:"transactions"`
	Categories      []models.UserCategory         `json:"categories"`
	Recurring       []models.RecurringTransaction `json:"recurringTransactions"`
	Profile         models.UserProfile            `json:"profile"`
	Stats           models.Stats                  `json:"stats"`
	IsAuthenticated bool                          `json:"isAuthenticated"`
	ErrorMessage    string                        `json:"errorMessage,omitempty"`

	// Deleted maps the token of every confirmed local transaction the user
	// deleted before the backend echoed it to the remote id whose deletion has
	// been requested, or 0 while no server row has shown up yet.
	Deleted map[string]int64 `json:"-"`
}

// Pending returns transactions still awaiting confirmation.
func (s State) Pending() []models.Transaction {
	var out []models.Transaction
	for _, t := range s.Transactions {
		if t.IsPending() {
			out = append(out, t)
		}
	}
	return out
}

// IndexOf returns the position of the transaction with the given id, or -1.
func (s State) IndexOf(id models.TransactionID) int {
	for i, t := range s.Transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s State) Clone() State {
	c := s
	c.Transactions = models.CloneTransactions(s.Transactions)
	c.Categories = models.CloneCategories(s.Categories)
	c.Recurring = models.CloneRecurring(s.Recurring)
	c.Stats.TopThreeSpends = models.CloneTransactions(s.Stats.TopThreeSpends)
	c.Deleted = maps.Clone(s.Deleted)
	return c
}
