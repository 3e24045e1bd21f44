package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lukman83/components-radar/internal/models"
	"github.com/lukman83/components-radar/internal/source"
)

// Gate decides whether a search may run. Implementations may open the
// login prompt as a side effect when they refuse.
type Gate interface {
	Admit(ctx context.Context, term string) (bool, error)
}

// State is what the result list shows.
type State struct {
	Query     string           `json:"query"`
	Page      int              `json:"page"`
	Items     []models.Product `json:"items"`
	Total     int              `json:"total"`
	Pages     int              `json:"pages"`
	Loading   bool             `json:"loading"`
	Outcome   Outcome          `json:"-"`
	Err       error            `json:"-"`
	RequestID string           `json:"request_id,omitempty"`
}

// Options configures a Pipeline.
type Options struct {
	Debounce    time.Duration
	HitsPerPage int
	Scheduler   Scheduler
	Logger      zerolog.Logger
}

// Pipeline wires debounce → gate → source filter → search → rank and
// commits only the newest request's result.
type Pipeline struct {
	searcher  Searcher
	filter    *source.Filter
	gate      Gate
	debouncer *Debouncer
	opts      Options
	log       zerolog.Logger

	base context.Context
	stop context.CancelFunc

	mu        sync.Mutex
	current   string
	cancel    context.CancelFunc
	lastQuery string
	lastPage  int
	state     State
	listeners []func(State)
}

func NewPipeline(searcher Searcher, filter *source.Filter, gate Gate, opts Options) *Pipeline {
	sched := opts.Scheduler
	if sched == nil {
		sched = afterFunc
	}
	base, stop := context.WithCancel(context.Background())
	return &Pipeline{
		searcher:  searcher,
		filter:    filter,
		gate:      gate,
		debouncer: NewDebouncerWithScheduler(opts.Debounce, sched),
		opts:      opts,
		log:       opts.Logger.With().Str("component", "search").Logger(),
		base:      base,
		stop:      stop,
		state:     State{Items: []models.Product{}},
	}
}

// OnChange registers fn to receive every committed state.
func (p *Pipeline) OnChange(fn func(State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// State returns the latest committed state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Submit schedules a debounced search. A blank query clears results at once.
func (p *Pipeline) Submit(query string, page int) {
	if strings.TrimSpace(query) == "" {
		p.debouncer.Cancel()
		p.mu.Lock()
		p.lastQuery, p.lastPage = "", 0
		p.abortLocked()
		p.current = ""
		p.mu.Unlock()
		p.commit(State{Items: []models.Product{}})
		return
	}

	p.mu.Lock()
	p.lastQuery, p.lastPage = query, page
	p.mu.Unlock()

	p.debouncer.Trigger(func() {
		if _, err := p.Run(p.base, query, page); err != nil && Classify(err) != OutcomeCancelled {
			p.log.Debug().Err(err).Str("query", query).Msg("debounced search failed")
		}
	})
}

// ToggleSource flips a retailer and re-runs the last query from page 0.
func (p *Pipeline) ToggleSource(id source.ID) (bool, error) {
	on, err := p.filter.Toggle(id)
	if err != nil {
		return false, err
	}
	p.Refresh()
	return on, nil
}

// Refresh re-submits the last non-empty query from page 0, if any.
func (p *Pipeline) Refresh() {
	p.mu.Lock()
	q := p.lastQuery
	p.mu.Unlock()
	if q != "" {
		p.Submit(q, 0)
	}
}

// Run executes one search immediately, superseding any request in flight.
// The returned state is also committed unless a newer request has started
// in the meantime, in which case ErrCancelled is returned. If ctx ends
// first, the state from before the call is restored.
func (p *Pipeline) Run(ctx context.Context, query string, page int) (State, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	token := uuid.NewString()

	p.mu.Lock()
	p.abortLocked()
	p.current = token
	p.cancel = cancel
	prev := p.state
	prev.Loading = false
	loading := p.state
	loading.Loading = true
	loading.Query = query
	loading.Page = page
	loading.RequestID = token
	p.state = loading
	listeners := append([]func(State){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(loading)
	}

	defer cancel()
	log := p.log.With().Str("request_id", token).Str("query", query).Int("page", page).Logger()

	st, cancelled := p.execute(reqCtx, log, query, page, p.filter.Effective(), loading)
	if cancelled {
		p.release(token, prev)
		return State{}, ErrCancelled
	}
	st.RequestID = token
	return p.finish(token, st)
}

// Once runs a single search for sources outside the newest-wins sequence.
// Nothing is committed and no other request is cancelled, so concurrent
// callers do not interfere with each other or with Submit.
func (p *Pipeline) Once(ctx context.Context, query string, page int, sources []source.ID) (State, error) {
	token := uuid.NewString()
	log := p.log.With().Str("request_id", token).Str("query", query).Int("page", page).Logger()

	st, cancelled := p.execute(ctx, log, query, page, sources, State{Items: []models.Product{}})
	if cancelled {
		return State{}, ErrCancelled
	}
	st.RequestID = token
	return st, st.Err
}

// execute runs gate, search and rank. A gated result keeps the items in
// shown. cancelled reports that ctx ended before an answer arrived.
func (p *Pipeline) execute(ctx context.Context, log zerolog.Logger, query string, page int, sources []source.ID, shown State) (State, bool) {
	if p.gate != nil {
		ok, err := p.gate.Admit(ctx, query)
		if err != nil {
			log.Warn().Err(err).Msg("search gate unavailable")
		} else if !ok {
			log.Info().Msg("search gated, login required")
			return State{
				Query: query, Page: page, Items: shown.Items, Total: shown.Total, Pages: shown.Pages,
				Outcome: OutcomeGated, Err: ErrLoginRequired,
			}, false
		}
	}

	if len(sources) == 0 {
		log.Debug().Msg("no effective sources, skipping index")
		return State{Query: query, Page: page, Items: []models.Product{}}, false
	}

	res, err := p.searcher.Search(ctx, Query{
		Text:        strings.TrimSpace(query),
		Page:        page,
		Sources:     sources,
		HitsPerPage: p.opts.HitsPerPage,
	})
	if err != nil {
		outcome := Classify(err)
		if outcome == OutcomeCancelled || ctx.Err() != nil {
			return State{}, true
		}
		log.Warn().Err(err).Str("outcome", outcome.String()).Msg("search failed")
		return State{
			Query: query, Page: page, Items: []models.Product{},
			Outcome: outcome, Err: err,
		}, false
	}

	return State{
		Query: query,
		Page:  page,
		Items: Rank(res.Items),
		Total: res.Total,
		Pages: res.Pages,
	}, false
}

// Close cancels pending and in-flight work.
func (p *Pipeline) Close() {
	p.debouncer.Cancel()
	p.mu.Lock()
	p.abortLocked()
	p.current = ""
	p.mu.Unlock()
	p.stop()
}

// finish commits st if token is still current.
func (p *Pipeline) finish(token string, st State) (State, error) {
	p.mu.Lock()
	if token != p.current {
		p.mu.Unlock()
		return State{}, ErrCancelled
	}
	p.cancel = nil
	p.state = st
	listeners := append([]func(State){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
	return st, st.Err
}

// release drops token without a result and restores prev, unless a newer
// request already took over.
func (p *Pipeline) release(token string, prev State) {
	p.mu.Lock()
	if token != p.current {
		p.mu.Unlock()
		return
	}
	p.current = ""
	p.cancel = nil
	p.mu.Unlock()
	p.commit(prev)
}

func (p *Pipeline) commit(st State) {
	p.mu.Lock()
	p.state = st
	listeners := append([]func(State){}, p.listeners...)
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(st)
	}
}

// abortLocked must be called with mu held.
func (p *Pipeline) abortLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
