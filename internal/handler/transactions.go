package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Samir899/SpendVolt/internal/ledger"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/shopspring/decimal"
)

type idResponse struct {
	ID models.TransactionID `json:"id"`
}

func pathID(r *http.Request) (models.TransactionID, bool) {
	raw := strings.TrimSpace(r.PathValue("id"))
	if raw == "" {
		return models.TransactionID{}, false
	}
	return models.ParseID(raw), true
}

// HandleScan parses scanned QR content.
func (d *Dependencies) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Raw string `json:"raw"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	p, err := d.App.Scan(req.Raw)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// HandlePayment records a pending payment and opens the payment app.
func (d *Dependencies) HandlePayment(w http.ResponseWriter, r *http.Request) {
	var req ledger.PaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := d.App.InitiatePayment(r.Context(), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, idResponse{ID: id})
}

// HandleManualTransaction records a payment made outside the app.
func (d *Dependencies) HandleManualTransaction(w http.ResponseWriter, r *http.Request) {
	var entry ledger.ManualEntry
	if !decodeBody(w, r, &entry) {
		return
	}

	id, err := d.App.AddManualTransaction(r.Context(), entry)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, idResponse{ID: id})
}

// HandleConfirm marks a pending transaction as paid. The body is optional.
func (d *Dependencies) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Missing transaction ID")
		return
	}

	var req struct {
		FinalAmount *decimal.Decimal `json:"finalAmount"`
	}
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	if err := d.App.ConfirmTransaction(r.Context(), id, req.FinalAmount); err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
}

func (d *Dependencies) HandleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Missing transaction ID")
		return
	}

	if err := d.App.RejectTransaction(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (d *Dependencies) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Missing transaction ID")
		return
	}

	if err := d.App.DeleteTransaction(r.Context(), id); err != nil {
		writeAppError(w, r, err)
		return
	}
	slog.Info("transaction delete requested", "id", id.String())
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleTransactionCategory moves one transaction to another category.
func (d *Dependencies) HandleTransactionCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		WriteError(w, http.StatusBadRequest, "Missing transaction ID")
		return
	}

	var req struct {
		CategoryName string `json:"categoryName"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := d.App.UpdateTransactionCategory(r.Context(), id, req.CategoryName); err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
