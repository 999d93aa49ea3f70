package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Samir899/SpendVolt/internal/catalog"
)

// HandleCategories handles POST and DELETE requests for categories.
//
// DELETE takes either ?id= or ?name= and an optional ?reassignTo=; without a
// target the category's transactions become Unassigned.
func (d *Dependencies) HandleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
			Icon string `json:"icon"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		if err := d.App.AddCategory(r.Context(), req.Name, req.Icon); err != nil {
			writeAppError(w, r, err)
			return
		}
		slog.Info("category added", "name", req.Name)
		WriteJSON(w, http.StatusCreated, map[string]string{"status": "created"})

	case http.MethodDelete:
		q := r.URL.Query()
		res := catalog.Unassign()
		if target := strings.TrimSpace(q.Get("reassignTo")); target != "" {
			res = catalog.Reassign(target)
		}

		var moved int
		var err error
		switch {
		case q.Get("id") != "":
			id, perr := strconv.ParseInt(q.Get("id"), 10, 64)
			if perr != nil {
				WriteError(w, http.StatusBadRequest, "Invalid category ID")
				return
			}
			moved, err = d.App.DeleteCategory(r.Context(), id, res)
		case q.Get("name") != "":
			moved, err = d.App.DeleteCategoryNamed(r.Context(), q.Get("name"), res)
		default:
			WriteError(w, http.StatusBadRequest, "Missing category ID or name")
			return
		}

		if err != nil {
			writeAppError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"status": "deleted", "moved": moved, "target": res.Target()})

	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleMoveTransactions moves every transaction of one category to another.
func (d *Dependencies) HandleMoveTransactions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	moved, err := d.App.MoveTransactions(r.Context(), req.From, req.To)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"moved": moved})
}
