package handler

import (
	"net/http"

	"github.com/Samir899/SpendVolt/internal/reconcile"
)

// HandleSync pulls the current month from the backend and replays queued
// changes.
func (d *Dependencies) HandleSync(w http.ResponseWriter, r *http.Request) {
	res, err := d.App.Sync(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (d *Dependencies) HandleAddRecurring(w http.ResponseWriter, r *http.Request) {
	var req reconcile.RecurringRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := d.App.AddRecurring(r.Context(), req); err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (d *Dependencies) HandleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := d.App.DeleteRecurring(r.Context(), r.PathValue("id")); err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
