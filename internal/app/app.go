// Package app wires the managers around a single state owner and exposes the
// operations the UI calls.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Samir899/SpendVolt/internal/account"
	"github.com/Samir899/SpendVolt/internal/alerts"
	"github.com/Samir899/SpendVolt/internal/catalog"
	"github.com/Samir899/SpendVolt/internal/gateway"
	"github.com/Samir899/SpendVolt/internal/ledger"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/outbox"
	"github.com/Samir899/SpendVolt/internal/payment"
	"github.com/Samir899/SpendVolt/internal/reconcile"
	"github.com/Samir899/SpendVolt/internal/session"
	"github.com/Samir899/SpendVolt/internal/state"
	"github.com/Samir899/SpendVolt/internal/storage"
	"github.com/Samir899/SpendVolt/internal/upi"
)

const defaultCacheContainer = "spendvolt-cache"

// Deps holds the collaborators of an App. Nil stores fall back to in-memory
// implementations.
type Deps struct {
	BackendURL     string
	Timeout        time.Duration
	Gateway        gateway.API
	Blobs          storage.BlobClient
	CacheContainer string
	SessionStore   session.Store
	Outbox         outbox.Outbox
	Opener         payment.Opener
	Notifier       alerts.Notifier
}

// App owns the state loop. Field ownership: the ledger writes transaction
// status and list membership, the catalog writes transaction categories, the
// account manager writes the profile and session, and the sync engine
// replaces collections wholesale. Analytics only reads snapshots.
type App struct {
	loop       *state.Loop
	cache      *storage.Cache
	session    *session.Session
	gateway    gateway.API
	dispatcher *outbox.Dispatcher
	engine     *reconcile.Engine
	ledger     *ledger.Manager
	catalog    *catalog.Manager
	account    *account.Manager
	monitor    *alerts.Monitor
	now        func() time.Time

	wg sync.WaitGroup
}

func initialState() state.State {
	return state.State{
		Transactions: []models.Transaction{},
		Categories:   models.DefaultCategories(),
		Profile:      models.DefaultProfile(),
	}
}

// New builds the app. The session is restored from deps.SessionStore before
// anything talks to the backend.
func New(ctx context.Context, deps Deps) (*App, error) {
	if deps.Gateway == nil && deps.BackendURL == "" {
		return nil, fmt.Errorf("backend URL is required")
	}

	blobs := deps.Blobs
	if blobs == nil {
		blobs = storage.NewMemoryBlobs()
	}
	container := deps.CacheContainer
	if container == "" {
		container = defaultCacheContainer
	}
	ob := deps.Outbox
	if ob == nil {
		ob = outbox.NewMemory()
	}
	opener := deps.Opener
	if opener == nil {
		opener = payment.BrowserOpener()
	}

	a := &App{
		loop:    state.NewLoop(initialState()),
		cache:   storage.NewCache(blobs, container),
		session: session.Restore(ctx, deps.SessionStore),
		now:     time.Now,
	}

	a.gateway = deps.Gateway
	if a.gateway == nil {
		a.gateway = gateway.NewClient(deps.BackendURL, a.session, deps.Timeout)
	}

	a.account = account.NewManager(a.loop, a.cache, a.gateway, a.session, nil)
	a.engine = reconcile.NewEngine(a.loop, a.cache, a.gateway, a.session, ob, a.account.Logout)
	a.account.SetSyncer(a.engine)

	a.dispatcher = outbox.NewDispatcher(a.gateway, ob, a.engine, a.reportPushError)
	a.engine.SetDispatcher(a.dispatcher)
	a.ledger = ledger.NewManager(a.loop, a.cache, payment.NewLauncher(opener), a.dispatcher)
	a.catalog = catalog.NewManager(a.loop, a.cache, a.gateway, a.engine, a.dispatcher)

	if deps.Notifier != nil {
		a.monitor = alerts.NewMonitor(deps.Notifier)
	}
	return a, nil
}

// reportPushError surfaces a failed background push. Local state is kept; a
// rejected session is noticed by the next sync.
func (a *App) reportPushError(err error) {
	msg := gateway.UserMessage(err)
	a.loop.Post(func(_ context.Context, s *state.State) error {
		s.ErrorMessage = msg
		return nil
	})
}

// Start runs the state loop and loads the cached state. It returns once the
// cache is loaded; the loop keeps running until ctx is done.
func (a *App) Start(ctx context.Context) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("state loop exited", "error", err)
		}
	}()

	if a.monitor != nil {
		events, cancel := a.loop.Subscribe()
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			defer cancel()
			a.monitor.Watch(ctx, events)
		}()
	}

	if err := a.account.Load(ctx); err != nil {
		return fmt.Errorf("failed to load cached state: %w", err)
	}
	slog.Info("app started", "authenticated", a.session.IsAuthenticated())
	return nil
}

// AutoSync syncs every interval until ctx is done. Sync errors are already
// reported through the state.
func (a *App) AutoSync(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Sync(ctx); err != nil && !errors.Is(err, reconcile.ErrNotAuthenticated) {
				slog.Warn("scheduled sync failed", "error", err)
			}
		}
	}
}

// Wait blocks until background pushes and the loop goroutines have finished.
func (a *App) Wait() {
	a.dispatcher.Wait()
	a.wg.Wait()
}

// State returns a snapshot of the current state.
func (a *App) State(ctx context.Context) (state.State, error) {
	return a.loop.Snapshot(ctx)
}

// Subscribe streams a snapshot after every change.
func (a *App) Subscribe() (<-chan state.Event, func()) {
	return a.loop.Subscribe()
}

// DismissError clears the user-visible error message.
func (a *App) DismissError(ctx context.Context) error {
	return a.loop.Do(ctx, func(_ context.Context, s *state.State) error {
		s.ErrorMessage = ""
		return nil
	})
}

func (a *App) IsAuthenticated() bool {
	return a.session.IsAuthenticated()
}

// Scan parses scanned QR content.
func (a *App) Scan(raw string) (*upi.Payment, error) {
	return upi.Parse(raw)
}
