package handler

import (
	"net/http"
)

// Routes registers every API endpoint on mux.
func (d *Dependencies) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /api/state", d.HandleState)
	mux.HandleFunc("DELETE /api/state/error", d.HandleDismissError)
	mux.HandleFunc("GET /api/events", d.HandleEvents)
	mux.HandleFunc("GET /api/overview", d.HandleOverview)
	mux.HandleFunc("GET /api/analytics/categories", d.HandleCategorySpending)

	mux.HandleFunc("POST /api/scan", d.HandleScan)
	mux.HandleFunc("POST /api/payments", d.HandlePayment)

	mux.HandleFunc("POST /api/transactions", d.HandleManualTransaction)
	mux.HandleFunc("POST /api/transactions/{id}/confirm", d.HandleConfirm)
	mux.HandleFunc("POST /api/transactions/{id}/reject", d.HandleReject)
	mux.HandleFunc("PUT /api/transactions/{id}/category", d.HandleTransactionCategory)
	mux.HandleFunc("DELETE /api/transactions/{id}", d.HandleDeleteTransaction)
	mux.HandleFunc("POST /api/upload", d.HandleUpload)

	mux.HandleFunc("POST /api/categories", d.HandleCategories)
	mux.HandleFunc("DELETE /api/categories", d.HandleCategories)
	mux.HandleFunc("POST /api/categories/move", d.HandleMoveTransactions)

	mux.HandleFunc("PUT /api/profile", d.HandleProfile)
	mux.HandleFunc("POST /api/auth/login", d.HandleLogin)
	mux.HandleFunc("POST /api/auth/signup", d.HandleSignup)
	mux.HandleFunc("POST /api/auth/logout", d.HandleLogout)

	mux.HandleFunc("POST /api/sync", d.HandleSync)
	mux.HandleFunc("POST /api/recurring", d.HandleAddRecurring)
	mux.HandleFunc("DELETE /api/recurring/{id}", d.HandleDeleteRecurring)
}
