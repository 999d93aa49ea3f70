package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Samir899/SpendVolt/internal/gateway"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/outbox"
	"github.com/Samir899/SpendVolt/internal/state"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNotAuthenticated  = errors.New("not logged in")
	ErrInvalidAmount     = models.Validation("Please enter an amount greater than zero.")
	ErrMissingMerchant   = models.Validation("Please enter a merchant name.")
	ErrInvalidFrequency  = models.Validation("Please choose how often this payment repeats.")
	ErrMissingRecurrence = models.Validation("Recurring payment has no id.")
)

// flushBatch bounds how many queued ops a single sync replays.
const flushBatch = 50

type Cache interface {
	SaveTransactions(ctx context.Context, txns []models.Transaction) error
	SaveCategories(ctx context.Context, cats []models.UserCategory) error
	SaveProfile(ctx context.Context, p models.UserProfile) error
	SaveRecurring(ctx context.Context, rules []models.RecurringTransaction) error
}

type Gateway interface {
	outbox.Gateway
	FetchDashboard(ctx context.Context, from, to time.Time) (*models.AppDashboard, error)
	FetchRecurring(ctx context.Context) ([]models.RecurringTransaction, error)
	CreateRecurring(ctx context.Context, rule models.RecurringTransaction) (*models.AppDashboard, error)
	DeleteRecurring(ctx context.Context, id string) (*models.AppDashboard, error)
}

type Session interface {
	IsAuthenticated() bool
}

// Dispatcher pushes changes to the backend in the background.
type Dispatcher interface {
	Dispatch(op outbox.Op)
}

// Result summarizes one sync pass.
type Result struct {
	ServerTransactions int `json:"serverTransactions"`
	LocalOnly          int `json:"localOnly"`
	Pending            int `json:"pending"`
	Replayed           int `json:"replayed"`
	Requeued           int `json:"requeued"`
	Skipped            int `json:"skipped"`
}

// Engine is the only component that replaces the state lists wholesale.
type Engine struct {
	runner  state.Runner
	cache   Cache
	gateway Gateway
	session Session
	outbox  outbox.Outbox

	// dispatcher deletes backend rows of locally deleted transactions. Without
	// one the deletes wait in the outbox for the next sync.
	dispatcher Dispatcher

	// logout runs when the backend rejects the session.
	logout func(ctx context.Context) error
	now    func() time.Time
}

var (
	_ outbox.Sink         = (*Engine)(nil)
	_ outbox.Acknowledger = (*Engine)(nil)
)

func NewEngine(runner state.Runner, cache Cache, gw Gateway, sess Session, ob outbox.Outbox, logout func(ctx context.Context) error) *Engine {
	return &Engine{
		runner:  runner,
		cache:   cache,
		gateway: gw,
		session: sess,
		outbox:  ob,
		logout:  logout,
		now:     time.Now,
	}
}

// SetDispatcher completes construction when the dispatcher itself delivers
// to the engine.
func (e *Engine) SetDispatcher(d Dispatcher) {
	e.dispatcher = d
}

// apply merges d into s and persists all four slots. A failed cache write is
// logged; the server copy is still applied. Dashboards that arrive after the
// session ended are dropped.
func (e *Engine) apply(ctx context.Context, s *state.State, d models.AppDashboard) {
	if e.session != nil && !e.session.IsAuthenticated() {
		slog.Warn("dropping dashboard received without a session", "transactions", len(d.Transactions))
		return
	}

	next, purges := Apply(*s, d)

	if err := e.cache.SaveTransactions(ctx, next.Transactions); err != nil {
		slog.Error("failed to cache transactions", "error", err)
	}
	if err := e.cache.SaveCategories(ctx, next.Categories); err != nil {
		slog.Error("failed to cache categories", "error", err)
	}
	if err := e.cache.SaveProfile(ctx, next.Profile); err != nil {
		slog.Error("failed to cache profile", "error", err)
	}
	if err := e.cache.SaveRecurring(ctx, next.Recurring); err != nil {
		slog.Error("failed to cache recurring transactions", "error", err)
	}
	*s = next

	for _, p := range purges {
		e.purge(ctx, p)
	}
}

// purge asks the backend to delete a row the user already deleted locally.
func (e *Engine) purge(ctx context.Context, p Purge) {
	op := outbox.Op{Kind: outbox.KindDelete, RemoteID: p.RemoteID, Note: p.Note, EnqueuedAt: e.now()}
	slog.Info("deleting backend copy of removed transaction", "id", p.RemoteID, "token", p.Note)
	if e.dispatcher != nil {
		e.dispatcher.Dispatch(op)
		return
	}
	if e.outbox != nil {
		if err := e.outbox.Enqueue(ctx, op); err != nil {
			slog.Error("failed to queue delete of removed transaction", "op", op.String(), "error", err)
		}
	}
}

// forget clears the tombstones of deletes the backend has carried out.
func forget(s *state.State, ops []outbox.Op) {
	for _, op := range ops {
		if op.Kind != outbox.KindDelete || op.Note == "" {
			continue
		}
		if requested, ok := s.Deleted[op.Note]; ok && requested == op.RemoteID {
			delete(s.Deleted, op.Note)
		}
	}
}

// ApplyDashboard hands a dashboard returned by a background push to the state
// owner.
func (e *Engine) ApplyDashboard(d models.AppDashboard) {
	e.runner.Post(func(ctx context.Context, s *state.State) error {
		e.apply(ctx, s, d)
		return nil
	})
}

// Acknowledge is ApplyDashboard for a push that may have been a purge.
func (e *Engine) Acknowledge(op outbox.Op, d models.AppDashboard) {
	e.runner.Post(func(ctx context.Context, s *state.State) error {
		forget(s, []outbox.Op{op})
		e.apply(ctx, s, d)
		return nil
	})
}

// ApplyNow applies d on the state owner and waits for it.
func (e *Engine) ApplyNow(ctx context.Context, d models.AppDashboard) error {
	return e.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		e.apply(ctx, s, d)
		return nil
	})
}

// Fail reports err to the user. An unauthorized error logs the user out
// instead.
func (e *Engine) Fail(ctx context.Context, err error) error {
	if gateway.IsUnauthorized(err) {
		slog.Warn("session rejected by backend, logging out", "error", err)
		if e.logout != nil {
			if lerr := e.logout(ctx); lerr != nil {
				slog.Error("failed to log out", "error", lerr)
			}
		}
		return err
	}

	msg := gateway.UserMessage(err)
	e.runner.Post(func(ctx context.Context, s *state.State) error {
		s.ErrorMessage = msg
		return nil
	})
	return err
}

// Sync fetches the current month's dashboard and recurring rules, merges them
// into local state and replays changes that failed to reach the backend.
func (e *Engine) Sync(ctx context.Context) (*Result, error) {
	if e.session != nil && !e.session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	from, to := CurrentPeriod(e.now())
	var (
		dash     *models.AppDashboard
		rules    []models.RecurringTransaction
		rulesErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := e.gateway.FetchDashboard(gctx, from, to)
		if err != nil {
			return fmt.Errorf("failed to fetch dashboard: %w", err)
		}
		dash = d
		return nil
	})
	g.Go(func() error {
		r, err := e.gateway.FetchRecurring(gctx)
		if err != nil {
			rulesErr = err
			return nil
		}
		rules = r
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("sync failed", "error", err)
		return nil, e.Fail(ctx, err)
	}

	if rulesErr != nil {
		slog.Warn("failed to fetch recurring transactions", "error", rulesErr)
	} else if rules != nil {
		dash.RecurringTransactions = rules
	}

	res := &Result{ServerTransactions: len(dash.Transactions)}
	err := e.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		e.apply(ctx, s, *dash)
		res.LocalOnly = LocalOnly(s.Transactions)
		res.Pending = len(s.Pending())
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.flush(ctx, res); err != nil {
		slog.Error("failed to replay queued changes", "error", err)
	}

	slog.Info("sync completed",
		"server", res.ServerTransactions,
		"local_only", res.LocalOnly,
		"pending", res.Pending,
		"replayed", res.Replayed,
		"requeued", res.Requeued,
	)
	return res, nil
}

// flush replays queued ops. A create op is only replayed while its
// transaction is still local-only; the merge has already dropped the ones the
// server acknowledged.
func (e *Engine) flush(ctx context.Context, res *Result) error {
	if e.outbox == nil {
		return nil
	}
	ops, err := e.outbox.Drain(ctx, flushBatch)
	if err != nil {
		return fmt.Errorf("failed to drain outbox: %w", err)
	}
	if len(ops) == 0 {
		return nil
	}

	snap, err := e.runner.Snapshot(ctx)
	if err != nil {
		for _, op := range ops {
			outbox.Requeue(ctx, e.outbox, op)
		}
		return err
	}

	var (
		last *models.AppDashboard
		done []outbox.Op
	)
	for _, op := range ops {
		if op.Kind == outbox.KindCreate {
			if op.Transaction == nil {
				res.Skipped++
				continue
			}
			i := snap.IndexOf(op.Transaction.ID)
			if i < 0 || !snap.Transactions[i].ID.IsLocal() {
				res.Skipped++
				continue
			}
			current := snap.Transactions[i]
			op.Transaction = &current
		}

		dash, err := outbox.Execute(ctx, e.gateway, op)
		if err != nil {
			slog.Warn("failed to replay change", "op", op.String(), "error", err)
			if gateway.IsRetryable(err) && outbox.Requeue(ctx, e.outbox, op) {
				res.Requeued++
			} else {
				res.Skipped++
			}
			continue
		}
		res.Replayed++
		last = dash
		done = append(done, op)
	}

	if last == nil {
		return nil
	}
	return e.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		forget(s, done)
		e.apply(ctx, s, *last)
		return nil
	})
}

// RecurringRequest describes a new recurring payment.
type RecurringRequest struct {
	MerchantName string           `json:"merchantName"`
	Amount       decimal.Decimal  `json:"amount"`
	CategoryName string           `json:"categoryName"`
	Frequency    models.Frequency `json:"frequency"`
	StartDate    time.Time        `json:"startDate"`
}

// AddRecurring creates a recurring rule on the backend.
func (e *Engine) AddRecurring(ctx context.Context, req RecurringRequest) error {
	merchant := strings.TrimSpace(req.MerchantName)
	if merchant == "" {
		return ErrMissingMerchant
	}
	if !req.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !req.Frequency.Valid() {
		return ErrInvalidFrequency
	}

	start := req.StartDate
	if start.IsZero() {
		start = e.now()
	}
	category := strings.TrimSpace(req.CategoryName)
	if category == "" {
		category = models.CategoryOther
	}

	rule := models.RecurringTransaction{
		MerchantName: merchant,
		Amount:       req.Amount,
		CategoryName: category,
		Frequency:    req.Frequency,
		NextDueDate:  models.NewTimestamp(start),
		IsActive:     true,
	}
	dash, err := e.gateway.CreateRecurring(ctx, rule)
	if err != nil {
		return e.Fail(ctx, fmt.Errorf("failed to create recurring transaction: %w", err))
	}
	slog.Info("recurring transaction created", "merchant", merchant, "frequency", string(req.Frequency))
	return e.ApplyNow(ctx, *dash)
}

// DeleteRecurring removes a recurring rule on the backend.
func (e *Engine) DeleteRecurring(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrMissingRecurrence
	}
	dash, err := e.gateway.DeleteRecurring(ctx, id)
	if err != nil {
		return e.Fail(ctx, fmt.Errorf("failed to delete recurring transaction: %w", err))
	}
	slog.Info("recurring transaction deleted", "id", id)
	return e.ApplyNow(ctx, *dash)
}
