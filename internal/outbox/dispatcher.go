package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Samir899/SpendVolt/internal/gateway"
	"github.com/Samir899/SpendVolt/internal/models"
)

// Sink receives the dashboards returned by successful pushes.
type Sink interface {
	ApplyDashboard(d models.AppDashboard)
}

// Acknowledger is a Sink that also needs to know which op a dashboard
// answers.
type Acknowledger interface {
	Acknowledge(op Op, d models.AppDashboard)
}

// Dispatcher pushes ops in the background. Local state is never rolled back
// on failure; retryable failures go to the outbox instead.
type Dispatcher struct {
	gateway Gateway
	outbox  Outbox
	sink    Sink
	onError func(error)
	timeout time.Duration
	now     func() time.Time

	wg sync.WaitGroup
}

func NewDispatcher(gw Gateway, ob Outbox, sink Sink, onError func(error)) *Dispatcher {
	return &Dispatcher{
		gateway: gw,
		outbox:  ob,
		sink:    sink,
		onError: onError,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
}

// Dispatch sends op without blocking the caller.
func (d *Dispatcher) Dispatch(op Op) {
	if op.EnqueuedAt.IsZero() {
		op.EnqueuedAt = d.now()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		dash, err := Execute(ctx, d.gateway, op)
		if err != nil {
			slog.Error("failed to push change to backend", "op", op.String(), "error", err)
			if gateway.IsRetryable(err) {
				// The request context may already be spent.
				d.Requeue(context.Background(), op)
			}
			if d.onError != nil {
				d.onError(err)
			}
			return
		}

		slog.Info("pushed change to backend", "op", op.String())
		if ack, ok := d.sink.(Acknowledger); ok {
			ack.Acknowledge(op, *dash)
		} else if d.sink != nil {
			d.sink.ApplyDashboard(*dash)
		}
	}()
}

// Requeue stores op for the next sync unless it has been retried too often.
func (d *Dispatcher) Requeue(ctx context.Context, op Op) {
	Requeue(ctx, d.outbox, op)
}

// Requeue bumps the attempt counter and stores op in ob. Ops that reached
// MaxAttempts are dropped.
func Requeue(ctx context.Context, ob Outbox, op Op) bool {
	op.Attempts++
	if op.Attempts >= MaxAttempts {
		slog.Warn("giving up on change after repeated failures", "op", op.String(), "attempts", op.Attempts)
		return false
	}
	if ob == nil {
		return false
	}
	if err := ob.Enqueue(ctx, op); err != nil {
		slog.Error("failed to enqueue change for retry", "op", op.String(), "error", err)
		return false
	}
	return true
}

// Wait blocks until every dispatched push has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
