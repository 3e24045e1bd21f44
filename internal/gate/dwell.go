package gate

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lukman83/components-radar/internal/storage"
)

// DwellPolicy refuses searches once the visitor has been around longer
// than limit without signing in.
type DwellPolicy struct {
	store  storage.Store
	auth   Authenticator
	prompt Prompter
	limit  time.Duration
	log    zerolog.Logger
	now    func() time.Time

	mu sync.Mutex
}

func NewDwellPolicy(store storage.Store, auth Authenticator, prompt Prompter, limit time.Duration, log zerolog.Logger) *DwellPolicy {
	return &DwellPolicy{store: store, auth: auth, prompt: prompt, limit: limit, log: log, now: time.Now}
}

func (p *DwellPolicy) Admit(ctx context.Context, _ string) (bool, error) {
	if p.auth.IsAuthenticated(ctx) {
		return true, nil
	}
	due, err := p.due(ctx)
	if err != nil {
		return false, err
	}
	if !due {
		return true, nil
	}
	promptLogin(ctx, p.prompt, p.log)
	return false, nil
}

// Watch prompts for login as soon as the dwell limit passes, checking
// every interval until ctx is done.
func (p *DwellPolicy) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.check(ctx)
		}
	}
}

func (p *DwellPolicy) check(ctx context.Context) {
	if p.auth.IsAuthenticated(ctx) {
		return
	}
	due, err := p.due(ctx)
	if err != nil {
		p.log.Warn().Err(err).Msg("dwell check failed")
		return
	}
	if due {
		promptLogin(ctx, p.prompt, p.log)
	}
}

// due records the first visit if needed and reports whether the limit
// has passed.
func (p *DwellPolicy) due(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	raw, ok, err := p.store.Get(ctx, storage.KeyFirstVisitTime)
	if err != nil {
		return false, fmt.Errorf("load first visit: %w", err)
	}
	first, perr := strconv.ParseInt(raw, 10, 64)
	if !ok || perr != nil {
		if err := p.store.Set(ctx, storage.KeyFirstVisitTime, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
			return false, fmt.Errorf("save first visit: %w", err)
		}
		return p.limit <= 0, nil
	}
	return now.Sub(time.UnixMilli(first)) >= p.limit, nil
}
