// Package gateway is the REST client for the SpendVolt backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Samir899/SpendVolt/internal/models"
	"github.com/shopspring/decimal"
)

const defaultServerMessage = "The server could not complete the request."

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

// API is the full backend surface used by the app.
type API interface {
	FetchDashboard(ctx context.Context, from, to time.Time) (*models.AppDashboard, error)
	CreateTransaction(ctx context.Context, txn models.Transaction) (*models.AppDashboard, error)
	DeleteTransaction(ctx context.Context, id int64) (*models.AppDashboard, error)
	UpdateTransactionStatus(ctx context.Context, id int64, status models.Status) (*models.AppDashboard, error)
	UpdateTransactionCategory(ctx context.Context, id int64, categoryName string) (*models.AppDashboard, error)
	FetchProfile(ctx context.Context) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, profile models.UserProfile) (*models.AppDashboard, error)
	FetchCategories(ctx context.Context) ([]models.UserCategory, error)
	CreateCategory(ctx context.Context, category models.UserCategory) (*models.AppDashboard, error)
	DeleteCategory(ctx context.Context, id int64) (*models.AppDashboard, error)
	FetchRecurring(ctx context.Context) ([]models.RecurringTransaction, error)
	CreateRecurring(ctx context.Context, rule models.RecurringTransaction) (*models.AppDashboard, error)
	DeleteRecurring(ctx context.Context, id string) (*models.AppDashboard, error)
	Login(ctx context.Context, username, password string) (*AuthResponse, error)
	Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error)
}

// Ensure Client implements API
var _ API = (*Client)(nil)

// Client talks JSON over HTTP with a bearer token taken from the session.
type Client struct {
	baseURL    string
	session    TokenSource
	httpClient *http.Client
}

func NewClient(baseURL string, session TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    session,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	AccessToken           string               `json:"accessToken"`
	Username              string               `json:"username"`
	FullName              string               `json:"fullName,omitempty"`
	PasswordResetRequired bool                 `json:"passwordResetRequired"`
	Dashboard             *models.AppDashboard `json:"dashboard,omitempty"`
}

// SignupRequest registers a new account.
type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// SignupResponse is the backend's answer to a registration.
type SignupResponse struct {
	Message string `json:"message"`
}

type createTransactionRequest struct {
	MerchantName string           `json:"merchantName"`
	Amount       decimal.Decimal  `json:"amount"`
	Date         models.Timestamp `json:"date"`
	Status       models.Status    `json:"status"`
	CategoryName string           `json:"categoryName"`
	Note         string           `json:"note,omitempty"`
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	if c.baseURL == "" {
		return "", errors.New("base URL is not configured")
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL %q is not absolute", c.baseURL)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// do sends a request and decodes a 2xx body into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target, err := c.endpoint(path, query)
	if err != nil {
		return &Error{Kind: KindInvalidURL, Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindUnknown, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &Error{Kind: KindInvalidURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("backend request failed", "method", method, "path", path, "error", err)
		return &Error{Kind: KindNoResponse, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNoResponse, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		slog.Warn("backend rejected session", "method", method, "path", path)
		return &Error{Kind: KindUnauthorized, StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := ExtractMessage(data, defaultServerMessage)
		slog.Error("backend returned error", "method", method, "path", path, "status", resp.StatusCode, "message", msg)
		return &Error{Kind: KindServer, StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Error{Kind: KindNoResponse, StatusCode: resp.StatusCode}
	}
	if err := json.Unmarshal(data, out); err != nil {
		slog.Error("failed to decode backend response", "method", method, "path", path, "error", err)
		return &Error{Kind: KindDecoding, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

func (c *Client) dashboardCall(ctx context.Context, method, path string, query url.Values, body any) (*models.AppDashboard, error) {
	var dash models.AppDashboard
	if err := c.do(ctx, method, path, query, body, &dash); err != nil {
		return nil, err
	}
	return &dash, nil
}

// FetchDashboard returns the snapshot for [from, to].
func (c *Client) FetchDashboard(ctx context.Context, from, to time.Time) (*models.AppDashboard, error) {
	q := url.Values{}
	q.Set("startDate", from.Format(models.DateLayout))
	q.Set("endDate", to.Format(models.DateLayout))
	return c.dashboardCall(ctx, http.MethodGet, "/dashboard", q, nil)
}

func (c *Client) CreateTransaction(ctx context.Context, txn models.Transaction) (*models.AppDashboard, error) {
	body := createTransactionRequest{
		MerchantName: txn.MerchantName,
		Amount:       txn.Amount,
		Date:         txn.Date,
		Status:       txn.Status,
		CategoryName: txn.CategoryName,
		Note:         txn.Note,
	}
	return c.dashboardCall(ctx, http.MethodPost, "/transactions", nil, body)
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) (*models.AppDashboard, error) {
	return c.dashboardCall(ctx, http.MethodDelete, "/transactions/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) UpdateTransactionStatus(ctx context.Context, id int64, status models.Status) (*models.AppDashboard, error) {
	q := url.Values{}
	q.Set("status", string(status))
	return c.dashboardCall(ctx, http.MethodPatch, "/transactions/"+strconv.FormatInt(id, 10)+"/status", q, nil)
}

func (c *Client) UpdateTransactionCategory(ctx context.Context, id int64, categoryName string) (*models.AppDashboard, error) {
	q := url.Values{}
	q.Set("categoryName", categoryName)
	return c.dashboardCall(ctx, http.MethodPatch, "/transactions/"+strconv.FormatInt(id, 10)+"/category", q, nil)
}

func (c *Client) FetchProfile(ctx context.Context) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := c.do(ctx, http.MethodGet, "/user/profile", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdateProfile(ctx context.Context, profile models.UserProfile) (*models.AppDashboard, error) {
	return c.dashboardCall(ctx, http.MethodPut, "/user/profile", nil, profile)
}

func (c *Client) FetchCategories(ctx context.Context) ([]models.UserCategory, error) {
	var cats []models.UserCategory
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) CreateCategory(ctx context.Context, category models.UserCategory) (*models.AppDashboard, error) {
	return c.dashboardCall(ctx, http.MethodPost, "/categories", nil, category)
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) (*models.AppDashboard, error) {
	return c.dashboardCall(ctx, http.MethodDelete, "/categories/"+strconv.FormatInt(id, 10), nil, nil)
}

func (c *Client) FetchRecurring(ctx context.Context) ([]models.RecurringTransaction, error) {
	var rules []models.RecurringTransaction
	if err := c.do(ctx, http.MethodGet, "/recurring-transactions", nil, nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (c *Client) CreateRecurring(ctx context.Context, rule models.RecurringTransaction) (*models.AppDashboard, error) {
	return c.dashboardCall(ctx, http.MethodPost, "/recurring-transactions", nil, rule)
}

func (c *Client) DeleteRecurring(ctx context.Context, id string) (*models.AppDashboard, error) {
	return c.dashboardCall(ctx, http.MethodDelete, "/recurring-transactions/"+url.PathEscape(id), nil, nil)
}

// Login exchanges credentials for a token. A 401 here means bad credentials,
// not an expired session.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/public/auth/login", nil, body, &resp)
	if IsUnauthorized(err) {
		return nil, &Error{Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized, Message: "Invalid username or password."}
	}
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &Error{Kind: KindDecoding, Err: errors.New("login response has no access token")}
	}
	return &resp, nil
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	var resp SignupResponse
	if err := c.do(ctx, http.MethodPost, "/public/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
