// Package ledger owns the lifecycle of individual transactions:
// pending → success | failure, manual entries and deletion.
package ledger

import (
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = models.Validation("Transaction amount must be greater than zero.")
	ErrNegativeAmount      = models.Validation("Transaction amount cannot be negative.")
	ErrMissingMerchant     = models.Validation("Please enter a merchant name.")
	ErrTransactionNotFound = models.NotFound("Transaction not found.")
	ErrNotPending          = models.Conflict("Only pending transactions can be confirmed or rejected.")
)

func indexOf(list []models.Transaction, id models.TransactionID) int {
	for i, t := range list {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Insert returns a new list with txn at the head.
func Insert(list []models.Transaction, txn models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(list)+1)
	out = append(out, txn)
	return append(out, list...)
}

// Confirm marks a pending transaction successful. finalAmount replaces the
// amount when given; the resulting amount must be positive.
func Confirm(list []models.Transaction, id models.TransactionID, finalAmount *decimal.Decimal) ([]models.Transaction, models.Transaction, error) {
	i := indexOf(list, id)
	if i < 0 {
		return nil, models.Transaction{}, ErrTransactionNotFound
	}
	txn := list[i]
	if !txn.IsPending() {
		return nil, models.Transaction{}, ErrNotPending
	}

	amount := txn.Amount
	if finalAmount != nil {
		amount = *finalAmount
	}
	if !amount.IsPositive() {
		return nil, models.Transaction{}, ErrInvalidAmount
	}

	txn.Amount = amount
	txn.Status = models.StatusSuccess
	out := models.CloneTransactions(list)
	out[i] = txn
	return out, txn, nil
}

// Reject marks a pending transaction failed.
func Reject(list []models.Transaction, id models.TransactionID) ([]models.Transaction, models.Transaction, error) {
	i := indexOf(list, id)
	if i < 0 {
		return nil, models.Transaction{}, ErrTransactionNotFound
	}
	txn := list[i]
	if !txn.IsPending() {
		return nil, models.Transaction{}, ErrNotPending
	}

	txn.Status = models.StatusFailure
	out := models.CloneTransactions(list)
	out[i] = txn
	return out, txn, nil
}

// Remove drops a transaction regardless of its status.
func Remove(list []models.Transaction, id models.TransactionID) ([]models.Transaction, models.Transaction, error) {
	i := indexOf(list, id)
	if i < 0 {
		return nil, models.Transaction{}, ErrTransactionNotFound
	}
	removed := list[i]
	out := make([]models.Transaction, 0, len(list)-1)
	out = append(out, list[:i]...)
	out = append(out, list[i+1:]...)
	return out, removed, nil
}
