// Package app assembles the search, auth and wishlist components from a
// Config and ties their change notifications together.
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lukman83/components-radar/config"
	"github.com/lukman83/components-radar/internal/api"
	"github.com/lukman83/components-radar/internal/auth"
	"github.com/lukman83/components-radar/internal/authflow"
	"github.com/lukman83/components-radar/internal/gate"
	"github.com/lukman83/components-radar/internal/httputil"
	"github.com/lukman83/components-radar/internal/models"
	"github.com/lukman83/components-radar/internal/search"
	"github.com/lukman83/components-radar/internal/source"
	"github.com/lukman83/components-radar/internal/storage"
	"github.com/lukman83/components-radar/internal/wishlist"
)

// App is one client session: storage, auth state, search pipeline and
// wishlist sharing the same durable store.
type App struct {
	Config   *config.Config
	Store    storage.Store
	Session  *auth.Session
	Machine  *authflow.Machine
	Wizard   *authflow.SignupFlow
	Gate     gate.Policy
	Filter   *source.Filter
	Search   search.Searcher
	Pipeline *search.Pipeline
	API      *api.Client
	Auth     *auth.Service
	Wishlist *wishlist.Store

	log  zerolog.Logger
	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// New wires every component from cfg. Callers must Close the App.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	transport := &httputil.Transport{
		Headers:     httputil.JSONHeaders(),
		RateLimiter: limiter,
		UserAgent:   "components-radar",
	}
	return NewWithDeps(ctx, cfg, store, search.NewClient(cfg, httputil.NewHTTPClient(transport, cfg.SearchTimeout)), api.New(cfg, store, log), log)
}

// NewWithDeps is New with the store, searcher and backend client supplied.
func NewWithDeps(ctx context.Context, cfg *config.Config, store storage.Store, searcher search.Searcher, client *api.Client, log zerolog.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Store:  store,
		Search: searcher,
		API:    client,
		log:    log.With().Str("component", "app").Logger(),
	}
	a.base, a.stop = context.WithCancel(context.Background())

	var err error
	if a.Machine, err = authflow.Load(ctx, store, log); err != nil {
		return nil, a.abort(err)
	}
	if a.Wizard, err = authflow.LoadSignupFlow(ctx, store); err != nil {
		return nil, a.abort(err)
	}
	a.Session = auth.NewSession(store)
	a.Auth = auth.NewService(client, store, a.Session, a.Machine, a.Wizard, log)

	if a.Gate, err = gate.New(cfg, store, a.Session, a.Machine, log); err != nil {
		return nil, a.abort(err)
	}
	if dwell, ok := a.Gate.(*gate.DwellPolicy); ok && cfg.GateCheckInterval > 0 {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			dwell.Watch(a.base, cfg.GateCheckInterval)
		}()
	}

	a.Filter = source.NewFilter(source.AllowedFromConfig(cfg.AllowedSources()))
	a.Pipeline = search.NewPipeline(searcher, a.Filter, a.Gate, search.Options{
		Debounce:    cfg.Debounce,
		HitsPerPage: cfg.HitsPerPage,
		Logger:      log,
	})

	if a.Wishlist, err = wishlist.New(ctx, store, client, a.Session, log); err != nil {
		return nil, a.abort(err)
	}

	a.Session.OnChange(a.authChanged)
	return a, nil
}

// authChanged reloads the wishlist from its new source of truth and
// re-runs the last search, which may have been gated.
func (a *App) authChanged(authenticated bool) {
	ctx, cancel := context.WithTimeout(a.base, a.Config.APITimeout)
	defer cancel()
	if err := a.Wishlist.Reload(ctx, authenticated); err != nil {
		a.log.Error().Err(err).Bool("authenticated", authenticated).Msg("wishlist reload failed")
	}
	a.Pipeline.Refresh()
}

// SearchPage runs one paged search for a single caller, restricted to ids
// when any are given. It neither cancels nor replaces the interactive
// pipeline's request and leaves the source selection as it was.
func (a *App) SearchPage(ctx context.Context, query string, page int, ids []source.ID) (*search.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &search.Page{Items: []models.Product{}}, nil
	}
	sources, err := a.Filter.Restrict(ids)
	if err != nil {
		return nil, err
	}
	st, err := a.Pipeline.Once(ctx, query, page, sources)
	if err != nil {
		return nil, err
	}
	return &search.Page{Items: st.Items, Total: st.Total, Page: st.Page, Pages: st.Pages}, nil
}

// FetchAll runs the fetch-all variant: every matching hit in one list.
// The gate is consulted exactly as for a paged search.
func (a *App) FetchAll(ctx context.Context, query string, ids []source.ID) (*search.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &search.Page{}, nil
	}
	sources, err := a.Filter.Restrict(ids)
	if err != nil {
		return nil, err
	}
	ok, err := a.Gate.Admit(ctx, query)
	if err != nil {
		a.log.Warn().Err(err).Msg("search gate unavailable")
	} else if !ok {
		return nil, search.ErrLoginRequired
	}
	return search.FetchAll(ctx, a.Search, search.Query{
		Text:    query,
		Sources: sources,
	}, a.Config.FetchAllHitsPerPage, a.Config.MaxConcurrent, nil)
}

func (a *App) abort(err error) error {
	_ = a.Close()
	return err
}

// Close stops background work and releases the store.
func (a *App) Close() error {
	if a.Pipeline != nil {
		a.Pipeline.Close()
	}
	a.stop()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		a.log.Warn().Msg("background work did not stop in time")
	}
	return a.Store.Close()
}
