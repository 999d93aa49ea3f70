package state

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrStopped is returned when the loop is no longer running.
var ErrStopped = errors.New("state loop stopped")

// Mutation runs on the owner goroutine. Returning an error signals that s
// was left untouched.
type Mutation func(ctx context.Context, s *State) error

// Runner executes mutations on the state owner.
type Runner interface {
	// Do runs fn on the owner and waits for it.
	Do(ctx context.Context, fn Mutation) error
	// Post queues fn without waiting. Used to hand back network results.
	Post(fn Mutation)
	// Snapshot returns a copy of the current state.
	Snapshot(ctx context.Context) (State, error)
}

// Event is published after every successful mutation.
type Event struct {
	Seq   uint64
	State State
}

type request struct {
	ctx      context.Context
	fn       Mutation
	reply    chan error
	readOnly bool
}

// Loop owns a State and applies mutations one at a time.
type Loop struct {
	ops     chan request
	stopped chan struct{}
	once    sync.Once

	state State
	seq   uint64

	mu      sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

var _ Runner = (*Loop)(nil)

func NewLoop(initial State) *Loop {
	return &Loop{
		ops:     make(chan request, 64),
		stopped: make(chan struct{}),
		state:   initial,
		subs:    make(map[int]chan Event),
	}
}

// Run processes mutations until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()
	slog.Info("state loop started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("state loop stopped")
			return ctx.Err()
		case req := <-l.ops:
			l.handle(ctx, req)
		}
	}
}

func (l *Loop) stop() {
	l.once.Do(func() {
		close(l.stopped)
		l.mu.Lock()
		for id, ch := range l.subs {
			close(ch)
			delete(l.subs, id)
		}
		l.mu.Unlock()
	})
}

func (l *Loop) handle(loopCtx context.Context, req request) {
	ctx := req.ctx
	if ctx == nil {
		ctx = loopCtx
	}

	err := req.fn(ctx, &l.state)
	if err == nil && !req.readOnly {
		l.seq++
		l.publish()
	}

	if req.reply != nil {
		req.reply <- err
		return
	}
	if err != nil {
		slog.Warn("posted state update failed", "error", err)
	}
}

func (l *Loop) submit(ctx context.Context, req request) error {
	select {
	case l.ops <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrStopped
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		// The request may have been handled just before the loop exited.
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrStopped
		}
	}
}

func (l *Loop) Do(ctx context.Context, fn Mutation) error {
	return l.submit(ctx, request{ctx: ctx, fn: fn, reply: make(chan error, 1)})
}

func (l *Loop) Post(fn Mutation) {
	select {
	case l.ops <- request{fn: fn}:
	case <-l.stopped:
		slog.Warn("dropping state update, loop stopped")
	}
}

func (l *Loop) Snapshot(ctx context.Context) (State, error) {
	var snap State
	err := l.submit(ctx, request{
		ctx:      ctx,
		readOnly: true,
		reply:    make(chan error, 1),
		fn: func(_ context.Context, s *State) error {
			snap = s.Clone()
			return nil
		},
	})
	return snap, err
}

// Subscribe returns a channel that receives the latest state after each
// change. Slow readers only miss intermediate snapshots, never the newest.
func (l *Loop) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)

	l.mu.Lock()
	select {
	case <-l.stopped:
		l.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch
	l.mu.Unlock()

	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if c, ok := l.subs[id]; ok {
			close(c)
			delete(l.subs, id)
		}
	}
	return ch, cancel
}

func (l *Loop) publish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.subs) == 0 {
		return
	}

	ev := Event{Seq: l.seq, State: l.state.Clone()}
	for _, ch := range l.subs {
		select {
		case ch <- ev:
		default:
			// Drop the stale snapshot and replace it.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
