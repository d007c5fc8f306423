// Package server implements the passbook backend consumed by the
// client: account registration and login, token verification, per-user
// transaction CRUD, statistics, and sample-data seeding.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/Veraticus/insight-ledger/internal/common"
	"github.com/Veraticus/insight-ledger/internal/model"
	"github.com/Veraticus/insight-ledger/internal/sample"
	"github.com/Veraticus/insight-ledger/internal/validate"
)

type contextKey struct{}

var userKey contextKey

// Server serves the passbook HTTP API.
type Server struct {
	store      *Store
	httpServer *http.Server
	jwtSecret  []byte
}

// New creates a server listening on addr, backed by store.
func New(addr string, store *Store, jwtSecret []byte) *Server {
	s := &Server{
		store:     store,
		jwtSecret: jwtSecret,
		httpServer: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.httpServer.Handler = s.Router()
	return s
}

// Router builds the API route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/accounts/register/", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/accounts/login/", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/accounts/verify-token/", s.authenticate(s.handleVerifyToken)).Methods(http.MethodGet)
	api.HandleFunc("/user/profile/", s.authenticate(s.handleProfile)).Methods(http.MethodGet)
	api.HandleFunc("/transactions/", s.authenticate(s.handleListTransactions)).Methods(http.MethodGet)
	api.HandleFunc("/transactions/", s.authenticate(s.handleCreateTransaction)).Methods(http.MethodPost)
	api.HandleFunc("/transactions/stats/", s.authenticate(s.handleStats)).Methods(http.MethodGet)
	api.HandleFunc("/transactions/generate-sample/", s.authenticate(s.handleGenerateSample)).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id:[0-9]+}/", s.authenticate(s.handleUpdateTransaction)).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id:[0-9]+}/", s.authenticate(s.handleDeleteTransaction)).Methods(http.MethodDelete)

	return router
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	slog.Info("Starting passbook backend", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	defer slog.Info("Backend stopped")
	return s.httpServer.Shutdown(ctx)
}

// authenticate parses the bearer token and loads the user it was
// issued for. Failures always answer 401 with a JSON error body.
func (s *Server) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header")
			return
		}

		uid, err := parseToken(parts[1], s.jwtSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		u, err := s.store.userByID(r.Context(), uid)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}

func requestUser(r *http.Request) *user {
	u, _ := r.Context().Value(userKey).(*user)
	return u
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}
	if msg := validate.Email(req.Email); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters long.")
		return
	}

	taken, err := s.store.usernameOrEmailTaken(r.Context(), req.Username, req.Email)
	if err != nil {
		s.internalError(w, "register uniqueness check", err)
		return
	}
	if taken {
		writeError(w, http.StatusBadRequest, "A user with this username or email already exists.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(w, "password hashing", err)
		return
	}

	u, err := s.store.createUser(r.Context(), req.Username, req.Email, string(hash))
	if err != nil {
		s.internalError(w, "user creation", err)
		return
	}

	// New accounts start with the sample catalog so the dashboard has
	// something to show.
	if err := s.seedSamples(r.Context(), u.ID); err != nil {
		s.internalError(w, "sample seeding", err)
		return
	}

	token, err := newToken(u.public(), s.jwtSecret)
	if err != nil {
		s.internalError(w, "token issuance", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully with sample transactions",
		"user":    u.public(),
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := s.store.userByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.internalError(w, "user lookup", err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := newToken(u.public(), s.jwtSecret)
	if err != nil {
		s.internalError(w, "token issuance", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    u.public(),
		"token":   token,
	})
}

func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  requestUser(r).public(),
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, requestUser(r).public())
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.store.transactionsForUser(r.Context(), requestUser(r).ID)
	if err != nil {
		s.internalError(w, "transaction listing", err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx model.BackendTransaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if tx.Title == "" || tx.TransactionType == "" || tx.Date == "" {
		writeError(w, http.StatusBadRequest, "title, transaction_type and date are required")
		return
	}

	created, err := s.store.createTransaction(r.Context(), requestUser(r).ID, tx)
	if err != nil {
		s.internalError(w, "transaction creation", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var tx model.BackendTransaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := s.store.updateTransaction(r.Context(), requestUser(r).ID, id, tx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		s.internalError(w, "transaction update", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	if err := s.store.deleteTransaction(r.Context(), requestUser(r).ID, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		s.internalError(w, "transaction deletion", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	txns, err := s.store.transactionsForUser(r.Context(), requestUser(r).ID)
	if err != nil {
		s.internalError(w, "stats query", err)
		return
	}
	writeJSON(w, http.StatusOK, computeBackendStats(txns))
}

// computeBackendStats aggregates raw backend records: income is the
// sum of non-negative amounts, expenses the absolute sum of negative
// ones, and counts are keyed by the capitalized category label so the
// result matches the client's local derivation over the same records.
func computeBackendStats(txns []model.BackendTransaction) model.Stats {
	stats := model.Stats{
		TotalTransactions: len(txns),
		TransactionTypes:  make(map[string]int),
	}
	for _, t := range txns {
		if t.Amount >= 0 {
			stats.TotalIncome += t.Amount
		} else {
			stats.TotalExpenses += -t.Amount
		}
		stats.TransactionTypes[model.CategoryLabel(t.TransactionType)]++
	}
	stats.NetAmount = stats.TotalIncome - stats.TotalExpenses
	return stats
}

func (s *Server) handleGenerateSample(w http.ResponseWriter, r *http.Request) {
	u := requestUser(r)

	exists, err := s.store.hasTransactions(r.Context(), u.ID)
	if err != nil {
		s.internalError(w, "sample precondition check", err)
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "User already has transactions. Sample data not generated.")
		return
	}

	if err := s.seedSamples(r.Context(), u.ID); err != nil {
		s.internalError(w, "sample seeding", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("Generated %d sample transactions", sample.Count),
	})
}

func (s *Server) seedSamples(ctx context.Context, userID int64) error {
	for _, tx := range sample.Transactions(time.Now()) {
		tx.ID = 0 // let the database assign IDs
		if _, err := s.store.createTransaction(ctx, userID, tx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) internalError(w http.ResponseWriter, operation string, err error) {
	slog.Error("Request failed", "operation", operation, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
