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

// MockAppService is a mock implementation of AppService
type MockAppService struct {
	ScanFunc                      func(raw string) (*upi.Payment, error)
	InitiatePaymentFunc           func(ctx context.Context, req ledger.PaymentRequest) (models.TransactionID, error)
	ConfirmTransactionFunc        func(ctx context.Context, id models.TransactionID, finalAmount *decimal.Decimal) error
	RejectTransactionFunc         func(ctx context.Context, id models.TransactionID) error
	DeleteTransactionFunc         func(ctx context.Context, id models.TransactionID) error
	AddManualTransactionFunc      func(ctx context.Context, entry ledger.ManualEntry) (models.TransactionID, error)
	ImportCSVFunc                 func(ctx context.Context, content string) (*app.ImportResult, error)
	UpdateTransactionCategoryFunc func(ctx context.Context, id models.TransactionID, name string) error
	AddCategoryFunc               func(ctx context.Context, name, icon string) error
	DeleteCategoryFunc            func(ctx context.Context, id int64, res catalog.Resolution) (int, error)
	DeleteCategoryNamedFunc       func(ctx context.Context, name string, res catalog.Resolution) (int, error)
	MoveTransactionsFunc          func(ctx context.Context, from, to string) (int, error)
	SaveProfileFunc               func(ctx context.Context, p models.UserProfile) error
	LoginFunc                     func(ctx context.Context, username, password string) (*gateway.AuthResponse, error)
	SignupFunc                    func(ctx context.Context, req gateway.SignupRequest) (*gateway.SignupResponse, error)
	LogoutFunc                    func(ctx context.Context) error
	SyncFunc                      func(ctx context.Context) (*reconcile.Result, error)
	AddRecurringFunc              func(ctx context.Context, req reconcile.RecurringRequest) error
	DeleteRecurringFunc           func(ctx context.Context, id string) error
	StateFunc                     func(ctx context.Context) (state.State, error)
	DismissErrorFunc              func(ctx context.Context) error
	OverviewFunc                  func(ctx context.Context) (*app.Overview, error)
	CategorySpendingFunc          func(ctx context.Context, period analytics.Period, grouped bool) ([]models.CategorySpending, error)
	SubscribeFunc                 func() (<-chan state.Event, func())
}

func (m *MockAppService) Scan(raw string) (*upi.Payment, error) {
	if m.ScanFunc != nil {
		return m.ScanFunc(raw)
	}
	return &upi.Payment{}, nil
}

func (m *MockAppService) InitiatePayment(ctx context.Context, req ledger.PaymentRequest) (models.TransactionID, error) {
	if m.InitiatePaymentFunc != nil {
		return m.InitiatePaymentFunc(ctx, req)
	}
	return models.TransactionID{}, nil
}

func (m *MockAppService) ConfirmTransaction(ctx context.Context, id models.TransactionID, finalAmount *decimal.Decimal) error {
	if m.ConfirmTransactionFunc != nil {
		return m.ConfirmTransactionFunc(ctx, id, finalAmount)
	}
	return nil
}

func (m *MockAppService) RejectTransaction(ctx context.Context, id models.TransactionID) error {
	if m.RejectTransactionFunc != nil {
		return m.RejectTransactionFunc(ctx, id)
	}
	return nil
}

func (m *MockAppService) DeleteTransaction(ctx context.Context, id models.TransactionID) error {
	if m.DeleteTransactionFunc != nil {
		return m.DeleteTransactionFunc(ctx, id)
	}
	return nil
}

func (m *MockAppService) AddManualTransaction(ctx context.Context, entry ledger.ManualEntry) (models.TransactionID, error) {
	if m.AddManualTransactionFunc != nil {
		return m.AddManualTransactionFunc(ctx, entry)
	}
	return models.TransactionID{}, nil
}

func (m *MockAppService) ImportCSV(ctx context.Context, content string) (*app.ImportResult, error) {
	if m.ImportCSVFunc != nil {
		return m.ImportCSVFunc(ctx, content)
	}
	return &app.ImportResult{}, nil
}

func (m *MockAppService) UpdateTransactionCategory(ctx context.Context, id models.TransactionID, name string) error {
	if m.UpdateTransactionCategoryFunc != nil {
		return m.UpdateTransactionCategoryFunc(ctx, id, name)
	}
	return nil
}

func (m *MockAppService) AddCategory(ctx context.Context, name, icon string) error {
	if m.AddCategoryFunc != nil {
		return m.AddCategoryFunc(ctx, name, icon)
	}
	return nil
}

func (m *MockAppService) DeleteCategory(ctx context.Context, id int64, res catalog.Resolution) (int, error) {
	if m.DeleteCategoryFunc != nil {
		return m.DeleteCategoryFunc(ctx, id, res)
	}
	return 0, nil
}

func (m *MockAppService) DeleteCategoryNamed(ctx context.Context, name string, res catalog.Resolution) (int, error) {
	if m.DeleteCategoryNamedFunc != nil {
		return m.DeleteCategoryNamedFunc(ctx, name, res)
	}
	return 0, nil
}

func (m *MockAppService) MoveTransactions(ctx context.Context, from, to string) (int, error) {
	if m.MoveTransactionsFunc != nil {
		return m.MoveTransactionsFunc(ctx, from, to)
	}
	return 0, nil
}

func (m *MockAppService) SaveProfile(ctx context.Context, p models.UserProfile) error {
	if m.SaveProfileFunc != nil {
		return m.SaveProfileFunc(ctx, p)
	}
	return nil
}

func (m *MockAppService) Login(ctx context.Context, username, password string) (*gateway.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return &gateway.AuthResponse{}, nil
}

func (m *MockAppService) Signup(ctx context.Context, req gateway.SignupRequest) (*gateway.SignupResponse, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, req)
	}
	return &gateway.SignupResponse{}, nil
}

func (m *MockAppService) Logout(ctx context.Context) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx)
	}
	return nil
}

func (m *MockAppService) Sync(ctx context.Context) (*reconcile.Result, error) {
	if m.SyncFunc != nil {
		return m.SyncFunc(ctx)
	}
	return &reconcile.Result{}, nil
}

func (m *MockAppService) AddRecurring(ctx context.Context, req reconcile.RecurringRequest) error {
	if m.AddRecurringFunc != nil {
		return m.AddRecurringFunc(ctx, req)
	}
	return nil
}

func (m *MockAppService) DeleteRecurring(ctx context.Context, id string) error {
	if m.DeleteRecurringFunc != nil {
		return m.DeleteRecurringFunc(ctx, id)
	}
	return nil
}

func (m *MockAppService) State(ctx context.Context) (state.State, error) {
	if m.StateFunc != nil {
		return m.StateFunc(ctx)
	}
	return state.State{}, nil
}

func (m *MockAppService) DismissError(ctx context.Context) error {
	if m.DismissErrorFunc != nil {
		return m.DismissErrorFunc(ctx)
	}
	return nil
}

func (m *MockAppService) Overview(ctx context.Context) (*app.Overview, error) {
	if m.OverviewFunc != nil {
		return m.OverviewFunc(ctx)
	}
	return &app.Overview{}, nil
}

func (m *MockAppService) CategorySpending(ctx context.Context, period analytics.Period, grouped bool) ([]models.CategorySpending, error) {
	if m.CategorySpendingFunc != nil {
		return m.CategorySpendingFunc(ctx, period, grouped)
	}
	return []models.CategorySpending{}, nil
}

func (m *MockAppService) Subscribe() (<-chan state.Event, func()) {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc()
	}
	ch := make(chan state.Event)
	close(ch)
	return ch, func() {}
}
