// Package gate decides when an anonymous visitor has searched enough and
// must sign in before searching again.
package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lukman83/components-radar/config"
	"github.com/lukman83/components-radar/internal/authflow"
	"github.com/lukman83/components-radar/internal/storage"
)

// Policy admits or refuses a search for term.
type Policy interface {
	Admit(ctx context.Context, term string) (bool, error)
}

// Authenticator reports whether the visitor is signed in.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
}

// Prompter shows the login dialog. *authflow.Machine satisfies it.
type Prompter interface {
	IsOpen() bool
	Open(ctx context.Context, to authflow.Modal) error
}

const (
	PolicyTerms = "terms"
	PolicyDwell = "dwell"
)

// New returns the policy named by cfg.GatePolicy. The two policies are
// alternatives and never combined.
func New(cfg *config.Config, store storage.Store, auth Authenticator, prompt Prompter, log zerolog.Logger) (Policy, error) {
	log = log.With().Str("component", "gate").Str("policy", cfg.GatePolicy).Logger()
	switch cfg.GatePolicy {
	case PolicyTerms, "":
		return NewTermPolicy(store, auth, prompt, cfg.GateThreshold, log), nil
	case PolicyDwell:
		return NewDwellPolicy(store, auth, prompt, cfg.GateDwell, log), nil
	default:
		return nil, fmt.Errorf("unknown gate policy %q", cfg.GatePolicy)
	}
}

// Normalize is the form a term is counted under.
func Normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// promptLogin opens login unless some auth dialog is already up.
func promptLogin(ctx context.Context, prompt Prompter, log zerolog.Logger) {
	if prompt.IsOpen() {
		return
	}
	if err := prompt.Open(ctx, authflow.ModalLogin); err != nil {
		log.Warn().Err(err).Msg("could not open login prompt")
		return
	}
	log.Info().Msg("login required to continue searching")
}
