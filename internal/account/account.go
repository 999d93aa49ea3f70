// Package account handles login, logout and profile edits.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/Samir899/SpendVolt/internal/gateway"
	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/Samir899/SpendVolt/internal/state"
)

var (
	ErrMissingCredentials = models.Validation("Please enter your username and password.")
	ErrMissingName        = models.Validation("Please enter your first and last name.")
	ErrInvalidEmail       = models.Validation("Please enter a valid email address.")
)

type Cache interface {
	SetNamespace(ns string)
	LoadTransactions(ctx context.Context) []models.Transaction
	LoadCategories(ctx context.Context) []models.UserCategory
	LoadProfile(ctx context.Context) models.UserProfile
	LoadRecurring(ctx context.Context) []models.RecurringTransaction
	SaveTransactions(ctx context.Context, txns []models.Transaction) error
	SaveCategories(ctx context.Context, cats []models.UserCategory) error
	SaveProfile(ctx context.Context, p models.UserProfile) error
}

type Gateway interface {
	UpdateProfile(ctx context.Context, profile models.UserProfile) (*models.AppDashboard, error)
	Login(ctx context.Context, username, password string) (*gateway.AuthResponse, error)
	Signup(ctx context.Context, req gateway.SignupRequest) (*gateway.SignupResponse, error)
}

type Session interface {
	Username() string
	IsAuthenticated() bool
	Save(ctx context.Context, token, username string) error
	Clear(ctx context.Context) error
}

// Syncer applies server dashboards and reports backend failures.
type Syncer interface {
	ApplyNow(ctx context.Context, d models.AppDashboard) error
	Fail(ctx context.Context, err error) error
}

// Manager owns the session and the profile.
type Manager struct {
	runner  state.Runner
	cache   Cache
	gateway Gateway
	session Session
	syncer  Syncer
}

func NewManager(runner state.Runner, cache Cache, gw Gateway, sess Session, syncer Syncer) *Manager {
	return &Manager{runner: runner, cache: cache, gateway: gw, session: sess, syncer: syncer}
}

// SetSyncer completes construction when the syncer itself depends on the
// manager.
func (m *Manager) SetSyncer(s Syncer) {
	m.syncer = s
}

// Load fills the state from the cache of the current session's user.
func (m *Manager) Load(ctx context.Context) error {
	if m.session.IsAuthenticated() {
		m.cache.SetNamespace(m.session.Username())
	}
	authenticated := m.session.IsAuthenticated()
	return m.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		s.Transactions = m.cache.LoadTransactions(ctx)
		s.Categories = m.cache.LoadCategories(ctx)
		s.Profile = m.cache.LoadProfile(ctx)
		s.Recurring = m.cache.LoadRecurring(ctx)
		s.IsAuthenticated = authenticated
		return nil
	})
}

// SaveProfile stores the profile locally, then pushes it to the backend. A
// failed push keeps the local copy.
func (m *Manager) SaveProfile(ctx context.Context, p models.UserProfile) error {
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return err
	}

	err := m.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		if err := m.cache.SaveProfile(ctx, p); err != nil {
			return fmt.Errorf("failed to persist profile: %w", err)
		}
		s.Profile = p
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("profile saved", "currency", string(p.Currency), "budget", p.MonthlyBudget.String())

	dash, err := m.gateway.UpdateProfile(ctx, p)
	if err != nil {
		return m.syncer.Fail(ctx, fmt.Errorf("failed to update profile: %w", err))
	}
	return m.syncer.ApplyNow(ctx, *dash)
}

// Login exchanges credentials for a session and switches the cache to the
// user's slots.
func (m *Manager) Login(ctx context.Context, username, password string) (*gateway.AuthResponse, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	resp, err := m.gateway.Login(ctx, username, password)
	if err != nil {
		slog.Warn("login failed", "username", username, "error", err)
		return nil, err
	}
	if resp.Username == "" {
		resp.Username = username
	}

	if err := m.session.Save(ctx, resp.AccessToken, resp.Username); err != nil {
		// The in-memory session is still usable for this run.
		slog.Error("failed to persist session", "error", err)
	}
	m.cache.SetNamespace(resp.Username)
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	slog.Info("logged in", "username", resp.Username)

	if resp.Dashboard != nil {
		if err := m.syncer.ApplyNow(ctx, *resp.Dashboard); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Signup registers a new account. The backend mails the initial password.
func (m *Manager) Signup(ctx context.Context, req gateway.SignupRequest) (*gateway.SignupResponse, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FirstName == "" || req.LastName == "" {
		return nil, ErrMissingName
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	resp, err := m.gateway.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	slog.Info("account registered", "email", req.Email)
	return resp, nil
}

// Logout clears the session, empties the transaction list and restores the
// default categories.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.session.Clear(ctx); err != nil {
		slog.Error("failed to clear session", "error", err)
	}

	err := m.runner.Do(ctx, func(ctx context.Context, s *state.State) error {
		s.IsAuthenticated = false
		s.Transactions = []models.Transaction{}
		s.Categories = models.DefaultCategories()
		s.Recurring = nil
		s.Stats = models.Stats{}
		s.Deleted = nil

		if err := m.cache.SaveTransactions(ctx, s.Transactions); err != nil {
			slog.Error("failed to clear cached transactions", "error", err)
		}
		if err := m.cache.SaveCategories(ctx, s.Categories); err != nil {
			slog.Error("failed to reset cached categories", "error", err)
		}
		return nil
	})
	m.cache.SetNamespace("")
	slog.Info("logged out")
	return err
}
