// Package reconcile merges the backend dashboard with transactions that only
// exist on this client and keeps the two in sync.
package reconcile

import (
	"sort"
	"time"

	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/state"
)

// CurrentPeriod returns the calendar month containing now, from its first
// second to its last.
func CurrentPeriod(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

// unsent reports whether a local-only transaction still has to be shown next
// to the server list.
func unsent(t models.Transaction, echoed map[string]bool) bool {
	if !t.ID.IsLocal() {
		return false
	}
	if !t.IsPending() && !t.IsSuccess() {
		return false
	}
	return !echoed[t.ID.String()]
}

// Merge returns the server list plus every local-only pending or successful
// transaction whose id the server has not echoed back as a note, newest
// first. Merging the result with the same server list again yields the same
// list.
func Merge(local, server []models.Transaction) []models.Transaction {
	echoed := make(map[string]bool, len(server))
	for _, t := range server {
		if t.Note != "" {
			echoed[t.Note] = true
		}
	}

	merged := models.CloneTransactions(server)
	if merged == nil {
		merged = []models.Transaction{}
	}
	seen := make(map[string]bool)
	for _, t := range local {
		if !unsent(t, echoed) || seen[t.ID.String()] {
			continue
		}
		seen[t.ID.String()] = true
		merged = append(merged, t)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date.Time)
	})
	return merged
}

// Purge is a backend row echoing a transaction the user deleted locally
// before the backend acknowledged it.
type Purge struct {
	Note     string
	RemoteID int64
}

// dropDeleted leaves out rows whose note names a tombstoned local
// transaction. Rows whose deletion has not been requested yet are recorded in
// deleted and returned as purges, so each is requested once.
func dropDeleted(deleted map[string]int64, rows []models.Transaction) ([]models.Transaction, []Purge) {
	if len(deleted) == 0 {
		return rows, nil
	}
	var (
		kept   = make([]models.Transaction, 0, len(rows))
		purges []Purge
	)
	for _, t := range rows {
		requested, ok := deleted[t.Note]
		if t.Note == "" || !ok {
			kept = append(kept, t)
			continue
		}
		remoteID, isRemote := t.ID.Remote()
		if isRemote && requested != remoteID {
			deleted[t.Note] = remoteID
			purges = append(purges, Purge{Note: t.Note, RemoteID: remoteID})
		}
	}
	return kept, purges
}

// Apply returns s with the dashboard applied: transactions merged and every
// other list replaced by the server's copy. Server rows echoing a deleted
// local transaction are left out; the purges list the ones the backend still
// has to be asked to delete.
func Apply(s state.State, d models.AppDashboard) (state.State, []Purge) {
	next := s.Clone()
	server, purges := dropDeleted(next.Deleted, d.Transactions)
	next.Transactions = Merge(s.Transactions, server)
	if d.Categories != nil {
		next.Categories = models.CloneCategories(d.Categories)
	}
	// A profile without a name or a budget is one the backend left out.
	if !d.Profile.MonthlyBudget.IsZero() || d.Profile.Name != "" {
		next.Profile = d.Profile
	}
	if d.RecurringTransactions != nil {
		next.Recurring = models.CloneRecurring(d.RecurringTransactions)
	}
	next.Stats = d.Stats
	next.Stats.TopThreeSpends = make([]models.Transaction, 0, len(d.Stats.TopThreeSpends))
	for _, t := range d.Stats.TopThreeSpends {
		if _, gone := next.Deleted[t.Note]; t.Note == "" || !gone {
			next.Stats.TopThreeSpends = append(next.Stats.TopThreeSpends, t)
		}
	}
	next.ErrorMessage = ""
	return next, purges
}

// LocalOnly counts transactions the backend has not acknowledged yet.
func LocalOnly(list []models.Transaction) int {
	n := 0
	for _, t := range list {
		if t.ID.IsLocal() {
			n++
		}
	}
	return n
}
