package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/lukman83/components-radar/config"
	"github.com/lukman83/components-radar/internal/models"
	"github.com/lukman83/components-radar/internal/source"
)

func testConfig(host string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.AlgoliaAppID = "APP"
	cfg.AlgoliaAPIKey = "KEY"
	cfg.AlgoliaHost = host
	return cfg
}

func weight(w float64) *float64 { return &w }

func TestClientSearchRequestShape(t *testing.T) {
	var body map[string]any
	var header http.Header
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		header = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.Write([]byte(`{"hits":[
			{"objectID":"1","productName":"<em>LED</em> 5mm &amp; holder","price":"4.5","stock":3,"productImage":"a.png","source":"robu"},
			{"objectID":"2","productName":"","price":2,"stock":"out","imageUrl":"b.png","source":"sunrom"},
			{"objectID":"1","productName":"dupe","source":"robu"}
		],"nbHits":23}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), srv.Client())
	page, err := c.Search(context.Background(), Query{Text: "led", Page: 1, Sources: []source.ID{source.Robu, source.Sunrom}})
	require.NoError(t, err)

	assert.Equal(t, "/1/indexes/Products/query", path)
	assert.Equal(t, "APP", header.Get("X-Algolia-Application-Id"))
	assert.Equal(t, "KEY", header.Get("X-Algolia-API-Key"))
	assert.Equal(t, "led", body["query"])
	assert.Equal(t, "source:robu OR source:sunrom", body["filters"])
	assert.Equal(t, false, body["analytics"])
	assert.Equal(t, true, body["distinct"])
	assert.EqualValues(t, 10, body["hitsPerPage"])
	assert.EqualValues(t, 1, body["page"])

	assert.Equal(t, 23, page.Total)
	assert.Equal(t, 3, page.Pages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "LED 5mm & holder", page.Items[0].ProductName)
	assert.Equal(t, "a.png", page.Items[0].Image())
	assert.Equal(t, "Untitled Product", page.Items[1].ProductName)
	assert.Equal(t, "Out of stock", page.Items[1].Stock.Label())
}

func TestClientNoSourcesNoCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	page, err := NewClient(testConfig(srv.URL), srv.Client()).Search(context.Background(), Query{Text: "led"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
	assert.Zero(t, calls.Load())
}

func TestClientTimeoutIsRecoverable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.SearchTimeout = 50 * time.Millisecond
	_, err := NewClient(cfg, srv.Client()).Search(context.Background(), Query{Text: "led", Sources: []source.ID{source.Robu}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, OutcomeTimeout, Classify(err))
}

func TestClientCancelIsSilent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err := NewClient(testConfig(srv.URL), srv.Client()).Search(ctx, Query{Text: "led", Sources: []source.ID{source.Robu}})
	assert.Equal(t, OutcomeCancelled, Classify(err))
}

func TestClientRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Invalid Application-ID or API key","status":403}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), srv.Client()).Search(context.Background(), Query{Text: "x", Sources: []source.ID{source.Robu}})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Invalid Application-ID or API key", se.Message)
	assert.Equal(t, OutcomeRejected, Classify(err))
}

func TestRankWeightedFirst(t *testing.T) {
	items := []models.Product{
		{ObjectID: "w2", Weight: weight(2)},
		{ObjectID: "w5", Weight: weight(5)},
		{ObjectID: "none"},
		{ObjectID: "w1", Weight: weight(1)},
	}
	var got []string
	for _, p := range Rank(items) {
		got = append(got, p.ObjectID)
	}
	assert.Equal(t, []string{"w5", "w2", "w1", "none"}, got)
	assert.Equal(t, "w2", items[0].ObjectID, "input untouched")
}

func TestRankUnweightedStable(t *testing.T) {
	items := []models.Product{{ObjectID: "a"}, {ObjectID: "b"}, {ObjectID: "w", Weight: weight(0)}, {ObjectID: "c"}}
	var got []string
	for _, p := range Rank(items) {
		got = append(got, p.ObjectID)
	}
	assert.Equal(t, []string{"w", "a", "b", "c"}, got)
}

func TestPageWindow(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, PageWindow(1, 3))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, PageWindow(2, 20))
	assert.Equal(t, []int{5, 6, 7, 8, 9}, PageWindow(7, 20))
	assert.Equal(t, []int{15, 16, 17, 18, 19}, PageWindow(17, 20))
	assert.Nil(t, PageWindow(0, 0))
	assert.Equal(t, 3, TotalPages(23, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

// fakeClock is a Scheduler whose timers fire only when told to.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (c *fakeClock) schedule(_ time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) fire() {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}

func TestDebouncerKeepsOnlyLast(t *testing.T) {
	clock := &fakeClock{}
	d := NewDebouncerWithScheduler(300*time.Millisecond, clock.schedule)
	var ran []int
	for i := range 5 {
		d.Trigger(func() { ran = append(ran, i) })
	}
	assert.True(t, d.Pending())
	clock.fire()
	assert.Equal(t, []int{4}, ran)
	assert.False(t, d.Pending())

	d.Trigger(func() { ran = append(ran, 99) })
	d.Cancel()
	clock.fire()
	assert.Equal(t, []int{4}, ran)
}

func TestDebouncerRealTimer(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	done := make(chan string, 2)
	d.Trigger(func() { done <- "first" })
	d.Trigger(func() { done <- "second" })
	select {
	case v := <-done:
		assert.Equal(t, "second", v)
	case <-time.After(time.Second):
		t.Fatal("debounced call never ran")
	}
}

type fakeSearcher struct {
	mu      sync.Mutex
	calls   []Query
	block   map[string]chan struct{}
	started chan string
}

func (f *fakeSearcher) Search(_ context.Context, q Query) (*Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	ch := f.block[q.Text]
	f.mu.Unlock()
	if f.started != nil {
		f.started <- q.Text
	}
	if ch != nil {
		// Ignores ctx on purpose: a late answer must still be discarded.
		<-ch
	}
	return &Page{Items: []models.Product{{ObjectID: q.Text}}, Total: 1, Pages: 1, Page: q.Page}, nil
}

func (f *fakeSearcher) Calls() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Query(nil), f.calls...)
}

type fakeGate struct{ admit bool }

func (g fakeGate) Admit(context.Context, string) (bool, error) { return g.admit, nil }

func newTestPipeline(s Searcher, g Gate, clock *fakeClock) *Pipeline {
	return NewPipeline(s, source.NewFilter(source.IDs()), g, Options{
		Debounce:  300 * time.Millisecond,
		Scheduler: clock.schedule,
	})
}

func TestPipelineRapidSubmitIssuesLastOnly(t *testing.T) {
	clock := &fakeClock{}
	fs := &fakeSearcher{}
	p := newTestPipeline(fs, fakeGate{admit: true}, clock)
	defer p.Close()

	p.Submit("l", 0)
	p.Submit("le", 0)
	p.Submit("led", 2)
	assert.Empty(t, fs.Calls())

	clock.fire()
	calls := fs.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "led", calls[0].Text)
	assert.Equal(t, 2, calls[0].Page)
	assert.Equal(t, "led", p.State().Items[0].ObjectID)
}

func TestPipelineLateResponseIgnored(t *testing.T) {
	fs := &fakeSearcher{
		block:   map[string]chan struct{}{"A": make(chan struct{})},
		started: make(chan string, 2),
	}
	p := newTestPipeline(fs, fakeGate{admit: true}, &fakeClock{})
	defer p.Close()

	errA := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), "A", 0)
		errA <- err
	}()
	require.Equal(t, "A", <-fs.started)

	st, err := p.Run(context.Background(), "B", 0)
	require.NoError(t, err)
	assert.Equal(t, "B", st.Items[0].ObjectID)
	<-fs.started

	close(fs.block["A"])
	assert.ErrorIs(t, <-errA, ErrCancelled)
	assert.Equal(t, "B", p.State().Items[0].ObjectID)
	assert.Equal(t, "B", p.State().Query)
}

// waitingSearcher blocks until its ctx ends.
type waitingSearcher struct{}

func (waitingSearcher) Search(ctx context.Context, _ Query) (*Page, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
}

func TestPipelineCallerCancelRestoresState(t *testing.T) {
	p := newTestPipeline(waitingSearcher{}, fakeGate{admit: true}, &fakeClock{})
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := p.Run(ctx, "led", 0)
	assert.ErrorIs(t, err, ErrCancelled)

	st := p.State()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Query)
}

func TestPipelineOnceDoesNotSupersede(t *testing.T) {
	fs := &fakeSearcher{
		block:   map[string]chan struct{}{"A": make(chan struct{})},
		started: make(chan string, 2),
	}
	p := newTestPipeline(fs, fakeGate{admit: true}, &fakeClock{})
	defer p.Close()

	errA := make(chan error, 1)
	go func() {
		_, err := p.Once(context.Background(), "A", 0, []source.ID{source.Robu})
		errA <- err
	}()
	require.Equal(t, "A", <-fs.started)

	st, err := p.Once(context.Background(), "B", 0, []source.ID{source.Sunrom})
	require.NoError(t, err)
	assert.Equal(t, "B", st.Items[0].ObjectID)
	<-fs.started

	close(fs.block["A"])
	assert.NoError(t, <-errA)
	assert.Empty(t, p.State().Items, "nothing committed")

	calls := fs.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []source.ID{source.Robu}, calls[0].Sources)
}

func TestPipelineEmptyEffectiveSources(t *testing.T) {
	fs := &fakeSearcher{}
	filter := source.NewFilter([]source.ID{source.Robu})
	require.NoError(t, filter.SetSelected([]source.ID{source.Quartz}))
	p := NewPipeline(fs, filter, nil, Options{Scheduler: (&fakeClock{}).schedule})
	defer p.Close()

	st, err := p.Run(context.Background(), "led", 0)
	require.NoError(t, err)
	assert.Empty(t, st.Items)
	assert.NotNil(t, st.Items)
	assert.Zero(t, st.Total)
	assert.Empty(t, fs.Calls())
}

func TestPipelineGateSuppressesCall(t *testing.T) {
	fs := &fakeSearcher{}
	p := newTestPipeline(fs, fakeGate{admit: false}, &fakeClock{})
	defer p.Close()

	st, err := p.Run(context.Background(), "capacitor", 0)
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, OutcomeGated, st.Outcome)
	assert.Empty(t, fs.Calls())
}

func TestPipelineBlankQueryClearsSynchronously(t *testing.T) {
	clock := &fakeClock{}
	fs := &fakeSearcher{}
	p := newTestPipeline(fs, fakeGate{admit: true}, clock)
	defer p.Close()

	_, err := p.Run(context.Background(), "led", 0)
	require.NoError(t, err)
	require.Len(t, p.State().Items, 1)

	p.Submit("typing", 0)
	p.Submit("   ", 0)
	assert.Empty(t, p.State().Items, "cleared without waiting")
	clock.fire()
	assert.Len(t, fs.Calls(), 1, "pending search was discarded")
}

func TestPipelineToggleRetriggersLastQuery(t *testing.T) {
	clock := &fakeClock{}
	fs := &fakeSearcher{}
	p := newTestPipeline(fs, fakeGate{admit: true}, clock)
	defer p.Close()

	_, err := p.ToggleSource(source.Robu)
	require.NoError(t, err)
	clock.fire()
	assert.Empty(t, fs.Calls(), "nothing submitted yet")

	p.Submit("led", 3)
	clock.fire()
	_, err = p.ToggleSource(source.Sunrom)
	require.NoError(t, err)
	clock.fire()

	calls := fs.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 0, calls[1].Page)
	assert.NotContains(t, calls[1].Sources, source.Robu)
	assert.NotContains(t, calls[1].Sources, source.Sunrom)
}

func TestPipelineOnChange(t *testing.T) {
	fs := &fakeSearcher{}
	p := newTestPipeline(fs, fakeGate{admit: true}, &fakeClock{})
	defer p.Close()

	var states []State
	p.OnChange(func(s State) { states = append(states, s) })
	_, err := p.Run(context.Background(), "led", 0)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[1].Loading)
}

type pagedSearcher struct {
	mu    sync.Mutex
	pages int
	calls int
}

func (s *pagedSearcher) Search(_ context.Context, q Query) (*Page, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	w := float64(q.Page)
	return &Page{
		Items: []models.Product{{ObjectID: string(rune('a' + q.Page)), Weight: &w}},
		Total: s.pages,
		Page:  q.Page,
		Pages: s.pages,
	}, nil
}

func TestFetchAll(t *testing.T) {
	ps := &pagedSearcher{pages: 4}
	var progress []string
	ctx := WithProgress(context.Background(), func(m string) { progress = append(progress, m) })

	page, err := FetchAll(ctx, ps, Query{Text: "led", Sources: source.IDs()}, 1000, 2, rate.NewLimiter(rate.Inf, 1))
	require.NoError(t, err)
	assert.Equal(t, 4, ps.calls)
	require.Len(t, page.Items, 4)
	assert.Equal(t, "d", page.Items[0].ObjectID)
	assert.Equal(t, 4, page.Total)
	assert.NotEmpty(t, progress)
}
