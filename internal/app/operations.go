package app

import (
	"context"
	"log/slog"

	"github.com/Samir899/SpendVolt/internal/catalog"
	"github.com/Samir899/SpendVolt/internal/csvparse"
	"github.com/Samir899/SpendVolt/internal/gateway"
	"github.com/Samir899/SpendVolt/internal/ledger"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/reconcile"
	"github.com/shopspring/decimal"
)

func (a *App) InitiatePayment(ctx context.Context, req ledger.PaymentRequest) (models.TransactionID, error) {
	return a.ledger.InitiatePayment(ctx, req)
}

func (a *App) ConfirmTransaction(ctx context.Context, id models.TransactionID, finalAmount *decimal.Decimal) error {
	return a.ledger.ConfirmTransaction(ctx, id, finalAmount)
}

func (a *App) RejectTransaction(ctx context.Context, id models.TransactionID) error {
	return a.ledger.RejectTransaction(ctx, id)
}

func (a *App) DeleteTransaction(ctx context.Context, id models.TransactionID) error {
	return a.ledger.DeleteTransaction(ctx, id)
}

func (a *App) AddManualTransaction(ctx context.Context, entry ledger.ManualEntry) (models.TransactionID, error) {
	return a.ledger.AddManualTransaction(ctx, entry)
}

// ImportResult reports a CSV import. Errors holds one message per rejected row.
type ImportResult struct {
	Imported int                    `json:"imported"`
	IDs      []models.TransactionID `json:"ids"`
	Errors   []string               `json:"errors"`
}

// ImportCSV adds every valid row of content as a manual transaction. Rows are
// independent: a bad row is reported and the rest still import.
func (a *App) ImportCSV(ctx context.Context, content string) (*ImportResult, error) {
	entries, rowErrors := csvparse.ParseCSV(content)
	res := &ImportResult{IDs: []models.TransactionID{}, Errors: rowErrors}
	if res.Errors == nil {
		res.Errors = []string{}
	}

	for _, e := range entries {
		id, err := a.ledger.AddManualTransaction(ctx, e)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			res.Errors = append(res.Errors, e.MerchantName+": "+err.Error())
			continue
		}
		res.IDs = append(res.IDs, id)
	}
	res.Imported = len(res.IDs)

	slog.Info("csv import finished", "imported", res.Imported, "rejected", len(res.Errors))
	return res, nil
}

func (a *App) AddCategory(ctx context.Context, name, icon string) error {
	return a.catalog.AddCategory(ctx, name, icon)
}

func (a *App) DeleteCategory(ctx context.Context, id int64, res catalog.Resolution) (int, error) {
	return a.catalog.DeleteCategory(ctx, id, res)
}

func (a *App) DeleteCategoryNamed(ctx context.Context, name string, res catalog.Resolution) (int, error) {
	return a.catalog.DeleteCategoryNamed(ctx, name, res)
}

func (a *App) MoveTransactions(ctx context.Context, from, to string) (int, error) {
	return a.catalog.MoveTransactions(ctx, from, to)
}

func (a *App) UpdateTransactionCategory(ctx context.Context, id models.TransactionID, name string) error {
	return a.catalog.UpdateTransactionCategory(ctx, id, name)
}

func (a *App) SaveProfile(ctx context.Context, p models.UserProfile) error {
	return a.account.SaveProfile(ctx, p)
}

func (a *App) Login(ctx context.Context, username, password string) (*gateway.AuthResponse, error) {
	return a.account.Login(ctx, username, password)
}

func (a *App) Signup(ctx context.Context, req gateway.SignupRequest) (*gateway.SignupResponse, error) {
	return a.account.Signup(ctx, req)
}

func (a *App) Logout(ctx context.Context) error {
	return a.account.Logout(ctx)
}

func (a *App) Sync(ctx context.Context) (*reconcile.Result, error) {
	return a.engine.Sync(ctx)
}

func (a *App) AddRecurring(ctx context.Context, req reconcile.RecurringRequest) error {
	return a.engine.AddRecurring(ctx, req)
}

func (a *App) DeleteRecurring(ctx context.Context, id string) error {
	return a.engine.DeleteRecurring(ctx, id)
}
