// Package api implements the HTTP client for the passbook backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/insight-ledger/internal/common"
	"github.com/Veraticus/insight-ledger/internal/model"
	"github.com/Veraticus/insight-ledger/internal/session"
)

const defaultTimeout = 30 * time.Second

// Client issues requests against the passbook API. Authenticated calls
// attach the session token as a bearer credential; a 401 from any call
// clears the session so no stale token is reused.
type Client struct {
	session    *session.Store
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the given base URL. The session store
// supplies tokens for authenticated calls and receives tokens returned
// by login and registration.
func NewClient(baseURL string, sess *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: sess,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is a non-2xx response from the backend, carrying the
// server-provided message when one was present.
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap maps authentication failures onto common.ErrAuthentication so
// callers can branch with errors.Is.
func (e *Error) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return common.ErrAuthentication
	}
	if e.StatusCode == http.StatusNotFound {
		return common.ErrNotFound
	}
	return nil
}

// AuthResponse is the envelope returned by login and registration.
type AuthResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    model.User `json:"user"`
}

// Register creates a new account. The returned token is stored in the
// session as a side effect.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/accounts/register/", body, false, &resp); err != nil {
		return nil, err
	}

	if resp.Token != "" {
		if err := c.session.SetToken(resp.Token); err != nil {
			return nil, fmt.Errorf("failed to persist token: %w", err)
		}
		if err := c.session.SetProfile(&resp.User); err != nil {
			return nil, fmt.Errorf("failed to persist profile: %w", err)
		}
	}
	return &resp, nil
}

// Login authenticates by email and password. The returned token is
// stored in the session as a side effect.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/accounts/login/", body, false, &resp); err != nil {
		return nil, err
	}

	if resp.Token != "" {
		if err := c.session.SetToken(resp.Token); err != nil {
			return nil, fmt.Errorf("failed to persist token: %w", err)
		}
		if err := c.session.SetProfile(&resp.User); err != nil {
			return nil, fmt.Errorf("failed to persist profile: %w", err)
		}
	}
	return &resp, nil
}

// VerifyToken confirms the stored token against the backend. Any
// failure, including transport errors, clears the token and returns
// false; success leaves the token untouched.
func (c *Client) VerifyToken(ctx context.Context) bool {
	if !c.session.IsAuthenticated() {
		return false
	}

	if err := c.do(ctx, http.MethodGet, "/accounts/verify-token/", nil, true, nil); err != nil {
		slog.Debug("Token verification failed", "error", err)
		if clearErr := c.session.SetToken(""); clearErr != nil {
			slog.Warn("Failed to clear invalid token", "error", clearErr)
		}
		return false
	}
	return true
}

// Profile fetches the current user profile.
func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/user/profile/", nil, true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Transactions fetches all transactions for the current user,
// normalized to the client shape.
func (c *Client) Transactions(ctx context.Context) ([]model.Transaction, error) {
	var backend []model.BackendTransaction
	if err := c.do(ctx, http.MethodGet, "/transactions/", nil, true, &backend); err != nil {
		return nil, err
	}

	txns := make([]model.Transaction, 0, len(backend))
	for _, b := range backend {
		txns = append(txns, model.Normalize(b))
	}
	return txns, nil
}

// CreateTransaction posts a new transaction and returns it normalized.
func (c *Client) CreateTransaction(ctx context.Context, tx model.BackendTransaction) (*model.Transaction, error) {
	var created model.BackendTransaction
	if err := c.do(ctx, http.MethodPost, "/transactions/", tx, true, &created); err != nil {
		return nil, err
	}
	normalized := model.Normalize(created)
	return &normalized, nil
}

// UpdateTransaction replaces a transaction and returns it normalized.
func (c *Client) UpdateTransaction(ctx context.Context, id int64, tx model.BackendTransaction) (*model.Transaction, error) {
	var updated model.BackendTransaction
	path := fmt.Sprintf("/transactions/%d/", id)
	if err := c.do(ctx, http.MethodPut, path, tx, true, &updated); err != nil {
		return nil, err
	}
	normalized := model.Normalize(updated)
	return &normalized, nil
}

// DeleteTransaction removes a transaction.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/transactions/%d/", id)
	return c.do(ctx, http.MethodDelete, path, nil, true, nil)
}

// Stats fetches the server-computed aggregate statistics.
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.do(ctx, http.MethodGet, "/transactions/stats/", nil, true, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GenerateSample asks the backend to seed sample transactions for the
// current user. Returns the server message.
func (c *Client) GenerateSample(ctx context.Context) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/transactions/generate-sample/", nil, true, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// do performs one request/response cycle: encode the body, attach the
// bearer header on authenticated calls, map non-2xx responses to typed
// errors, and decode a 2xx body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body any, authed bool, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if authed {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.responseError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

// responseError maps a non-2xx response to an *Error. A 401 clears the
// stored token so later authenticated calls never attach it.
func (c *Client) responseError(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.session.SetToken(""); err != nil {
			slog.Warn("Failed to clear token after 401", "error", err)
		}
		return &Error{
			StatusCode: http.StatusUnauthorized,
			Message:    "Authentication failed. Please login again.",
		}
	}

	message := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))

	var payload struct {
		ErrorMsg string `json:"error"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		if payload.ErrorMsg != "" {
			message = payload.ErrorMsg
		} else if payload.Message != "" {
			message = payload.Message
		}
	}

	return &Error{
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
