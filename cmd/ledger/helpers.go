package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Veraticus/insight-ledger/internal/api"
	"github.com/Veraticus/insight-ledger/internal/cache"
	"github.com/Veraticus/insight-ledger/internal/config"
	"github.com/Veraticus/insight-ledger/internal/ledger"
	"github.com/Veraticus/insight-ledger/internal/model"
	"github.com/Veraticus/insight-ledger/internal/session"
)

// app bundles the wired-up client-side dependencies a command needs.
type app struct {
	cfg     *config.Config
	session *session.Store
	client  *api.Client
}

// newApp loads configuration and builds the session store and API
// client from it.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	sess, err := session.NewStore(cfg.SessionStatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	client := api.NewClient(cfg.APIBaseURL, sess,
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))

	return &app{cfg: cfg, session: sess, client: client}, nil
}

// filterTransactions applies the dashboard's search and category
// semantics to a listing.
func filterTransactions(txns []model.Transaction, search, category string) []model.Transaction {
	return ledger.Filter{Search: search, Category: category}.Apply(txns)
}

// dataSource builds the dashboard data source the config names. The
// remote source needs the snapshot cache; the caller owns closing it.
func (a *app) dataSource() (ledger.Source, func(), error) {
	if a.cfg.DataSource == config.SourceSample {
		return ledger.NewSampleSource(time.Now), func() {}, nil
	}

	store, err := cache.NewStore(a.cfg.CacheDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open snapshot cache: %w", err)
	}
	return ledger.NewRemoteSource(a.client, store), func() { _ = store.Close() }, nil
}
