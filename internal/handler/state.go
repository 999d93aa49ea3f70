package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Samir899/SpendVolt/internal/analytics"
	"github.com/Samir899/SpendVolt/internal/state"
)

func (d *Dependencies) HandleState(w http.ResponseWriter, r *http.Request) {
	s, err := d.App.State(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, s)
}

func (d *Dependencies) HandleDismissError(w http.ResponseWriter, r *http.Request) {
	if err := d.App.DismissError(r.Context()); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dependencies) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := d.App.Overview(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ov)
}

// HandleCategorySpending serves ?period=week|month|year&grouped=true.
func (d *Dependencies) HandleCategorySpending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := analytics.ParsePeriod(q.Get("period"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	grouped, _ := strconv.ParseBool(q.Get("grouped"))

	rows, err := d.App.CategorySpending(r.Context(), period, grouped)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, rows)
}

func writeEvent(w http.ResponseWriter, seq uint64, s state.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: state\ndata: %s\n\n", seq, data)
	return err
}

// HandleEvents streams state snapshots as server-sent events, starting with
// the current one.
func (d *Dependencies) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	events, cancel := d.App.Subscribe()
	defer cancel()

	current, err := d.App.State(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, 0, current); err != nil {
		slog.Warn("failed to write event", "error", err)
		return
	}
	flusher.Flush()

	slog.Info("event stream opened", "remote_addr", r.RemoteAddr)
	for {
		select {
		case <-r.Context().Done():
			slog.Info("event stream closed", "remote_addr", r.RemoteAddr)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, ev.Seq, ev.State); err != nil {
				slog.Warn("failed to write event", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}
