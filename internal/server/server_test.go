package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/insight-ledger/internal/model"
	"github.com/Veraticus/insight-ledger/internal/sample"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "backend.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := New("127.0.0.1:0", store, []byte("test-secret"))
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type authEnvelope struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    model.User `json:"user"`
}

func registerUser(t *testing.T, ts *httptest.Server, username, email string) authEnvelope {
	t.Helper()
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/accounts/register/", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "Abcdefg1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	env := decode[authEnvelope](t, resp)
	require.NotEmpty(t, env.Token)
	return env
}

func TestRegisterSeedsSampleTransactions(t *testing.T) {
	_, ts := newTestServer(t)
	env := registerUser(t, ts, "jane", "jane@example.com")

	assert.Equal(t, "jane", env.User.Username)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/transactions/", env.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	txns := decode[[]model.BackendTransaction](t, resp)
	assert.Len(t, txns, sample.Count)
}

func TestRegisterValidation(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing username", map[string]string{"email": "a@b.co", "password": "Abcdefg1"}},
		{"bad email", map[string]string{"username": "x", "email": "nope", "password": "Abcdefg1"}},
		{"short password", map[string]string{"username": "x", "email": "a@b.co", "password": "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/accounts/register/", "", tt.body)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	_, ts := newTestServer(t)
	registerUser(t, ts, "jane", "jane@example.com")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/accounts/register/", "", map[string]string{
		"username": "jane2",
		"email":    "jane@example.com",
		"password": "Abcdefg1",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	_, ts := newTestServer(t)
	registerUser(t, ts, "jane", "jane@example.com")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/accounts/login/", "", map[string]string{
		"email":    "jane@example.com",
		"password": "Abcdefg1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode[authEnvelope](t, resp)
	assert.Equal(t, "Login successful", env.Message)
	assert.NotEmpty(t, env.Token)

	// Wrong password and unknown email both answer 401 with the same message.
	for _, body := range []map[string]string{
		{"email": "jane@example.com", "password": "WrongPass1"},
		{"email": "ghost@example.com", "password": "Abcdefg1"},
	} {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/accounts/login/", "", body)
		payload := decode[map[string]string](t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid email or password", payload["error"])
	}
}

func TestVerifyToken(t *testing.T) {
	_, ts := newTestServer(t)
	env := registerUser(t, ts, "jane", "jane@example.com")

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/accounts/verify-token/", env.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payload := decode[map[string]any](t, resp)
	assert.Equal(t, true, payload["valid"])

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/accounts/verify-token/", "garbage-token", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/accounts/verify-token/", "", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTransactionCRUD(t *testing.T) {
	_, ts := newTestServer(t)
	env := registerUser(t, ts, "jane", "jane@example.com")

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/transactions/", env.Token, model.BackendTransaction{
		Title:           "Bus pass",
		Amount:          -55,
		TransactionType: "transport",
		Date:            "2024-09-05",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.BackendTransaction](t, resp)
	require.NotZero(t, created.ID)
	assert.NotEmpty(t, created.CreatedAt)

	resp = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/transactions/%d/", ts.URL, created.ID), env.Token, model.BackendTransaction{
		Title:           "Monthly bus pass",
		Amount:          -60,
		TransactionType: "transport",
		Date:            "2024-09-05",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.BackendTransaction](t, resp)
	assert.Equal(t, "Monthly bus pass", updated.Title)
	assert.Equal(t, -60.0, updated.Amount)

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/transactions/%d/", ts.URL, created.ID), env.Token, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/transactions/%d/", ts.URL, created.ID), env.Token, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTransactionsAreScopedToTheirOwner(t *testing.T) {
	_, ts := newTestServer(t)
	jane := registerUser(t, ts, "jane", "jane@example.com")
	sam := registerUser(t, ts, "sam", "sam@example.com")

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/transactions/", jane.Token, nil)
	janeTxns := decode[[]model.BackendTransaction](t, resp)
	require.NotEmpty(t, janeTxns)

	// Sam cannot touch Jane's records.
	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/transactions/%d/", ts.URL, janeTxns[0].ID), sam.Token, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerateSampleRefusesWhenTransactionsExist(t *testing.T) {
	_, ts := newTestServer(t)
	env := registerUser(t, ts, "jane", "jane@example.com")

	// Registration already seeded the catalog.
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/transactions/generate-sample/", env.Token, nil)
	payload := decode[map[string]string](t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User already has transactions. Sample data not generated.", payload["error"])
}

func TestStatsMatchClientDerivation(t *testing.T) {
	_, ts := newTestServer(t)
	env := registerUser(t, ts, "jane", "jane@example.com")

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/transactions/stats/", env.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	serverStats := decode[model.Stats](t, resp)

	resp = doJSON(t, http.MethodGet, ts.URL+"/api/transactions/", env.Token, nil)
	backend := decode[[]model.BackendTransaction](t, resp)

	normalized := make([]model.Transaction, 0, len(backend))
	for _, b := range backend {
		normalized = append(normalized, model.Normalize(b))
	}
	localStats := model.ComputeStats(normalized)

	assert.Equal(t, localStats.TotalTransactions, serverStats.TotalTransactions)
	assert.InDelta(t, localStats.TotalIncome, serverStats.TotalIncome, 0.001)
	assert.InDelta(t, localStats.TotalExpenses, serverStats.TotalExpenses, 0.001)
	assert.InDelta(t, localStats.NetAmount, serverStats.NetAmount, 0.001)
	assert.Equal(t, localStats.TransactionTypes, serverStats.TransactionTypes)
}

func TestComputeBackendStats(t *testing.T) {
	txns := sample.Transactions(time.Date(2024, 9, 10, 0, 0, 0, 0, time.UTC))
	stats := computeBackendStats(txns)

	assert.Equal(t, sample.Count, stats.TotalTransactions)
	assert.Greater(t, stats.TotalIncome, 0.0)
	assert.Greater(t, stats.TotalExpenses, 0.0)
	assert.InDelta(t, stats.TotalIncome-stats.TotalExpenses, stats.NetAmount, 0.001)
}
