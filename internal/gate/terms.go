package gate

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lukman83/components-radar/internal/storage"
)

// TermPolicy counts distinct search terms and refuses once threshold is
// reached. Every refused attempt prompts again.
type TermPolicy struct {
	store     storage.Store
	auth      Authenticator
	prompt    Prompter
	threshold int
	log       zerolog.Logger

	mu sync.Mutex
}

func NewTermPolicy(store storage.Store, auth Authenticator, prompt Prompter, threshold int, log zerolog.Logger) *TermPolicy {
	return &TermPolicy{store: store, auth: auth, prompt: prompt, threshold: threshold, log: log}
}

func (p *TermPolicy) Admit(ctx context.Context, term string) (bool, error) {
	norm := Normalize(term)
	if norm == "" || p.auth.IsAuthenticated(ctx) {
		return true, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var seen []string
	if _, err := storage.GetJSON(ctx, p.store, storage.KeySearchedKeywords, &seen); err != nil {
		return false, fmt.Errorf("load searched keywords: %w", err)
	}
	if !slices.Contains(seen, norm) {
		seen = append(seen, norm)
		if err := storage.SetJSON(ctx, p.store, storage.KeySearchedKeywords, seen); err != nil {
			return false, fmt.Errorf("save searched keywords: %w", err)
		}
		if err := p.store.Set(ctx, storage.KeySearchCount, strconv.Itoa(len(seen))); err != nil {
			return false, fmt.Errorf("save search count: %w", err)
		}
	}

	if len(seen) < p.threshold {
		return true, nil
	}
	p.log.Debug().Int("count", len(seen)).Str("query", norm).Msg("search refused")
	promptLogin(ctx, p.prompt, p.log)
	return false, nil
}

// Count returns the stored number of distinct terms.
func (p *TermPolicy) Count(ctx context.Context) (int, error) {
	raw, ok, err := p.store.Get(ctx, storage.KeySearchCount)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return n, nil
}
