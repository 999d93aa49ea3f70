package handler

import (
	"context"

	"github.com/Samir899/SpendVolt/internal/analytics"
	"github.com/Samir899/SpendVolt/internal/app"
	"github.com/Samir899/SpendVolt/internal/catalog"
	"github.com/Samir899/SpendVolt/internal/gateway"
	"github.com/Samir899/SpendVolt/internal/ledger"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/reconcile"
	"github.com/Samir899/SpendVolt/internal/state"
	"github.com/Samir899/SpendVolt/internal/upi"
	"github.com/shopspring/decimal"
)

// AppService defines the app operations used by handlers.
type AppService interface {
	Scan(raw string) (*upi.Payment, error)

	InitiatePayment(ctx context.Context, req ledger.PaymentRequest) (models.TransactionID, error)
	ConfirmTransaction(ctx context.Context, id models.TransactionID, finalAmount *decimal.Decimal) error
	RejectTransaction(ctx context.Context, id models.TransactionID) error
	DeleteTransaction(ctx context.Context, id models.TransactionID) error
	AddManualTransaction(ctx context.Context, entry ledger.ManualEntry) (models.TransactionID, error)
	ImportCSV(ctx context.Context, content string) (*app.ImportResult, error)
	UpdateTransactionCategory(ctx context.Context, id models.TransactionID, name string) error

	AddCategory(ctx context.Context, name, icon string) error
	DeleteCategory(ctx context.Context, id int64, res catalog.Resolution) (int, error)
	DeleteCategoryNamed(ctx context.Context, name string, res catalog.Resolution) (int, error)
	MoveTransactions(ctx context.Context, from, to string) (int, error)

	SaveProfile(ctx context.Context, p models.UserProfile) error
	Login(ctx context.Context, username, password string) (*gateway.AuthResponse, error)
	Signup(ctx context.Context, req gateway.SignupRequest) (*gateway.SignupResponse, error)
	Logout(ctx context.Context) error

	Sync(ctx context.Context) (*reconcile.Result, error)
	AddRecurring(ctx context.Context, req reconcile.RecurringRequest) error
	DeleteRecurring(ctx context.Context, id string) error

	State(ctx context.Context) (state.State, error)
	DismissError(ctx context.Context) error
	Overview(ctx context.Context) (*app.Overview, error)
	CategorySpending(ctx context.Context, period analytics.Period, grouped bool) ([]models.CategorySpending, error)
	Subscribe() (<-chan state.Event, func())
}

// Ensure App implements AppService
var _ AppService = (*app.App)(nil)
