package gate

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/components-radar/config"
	"github.com/lukman83/components-radar/internal/authflow"
	"github.com/lukman83/components-radar/internal/storage"
)

type fakeAuth bool

func (f *fakeAuth) IsAuthenticated(context.Context) bool { return bool(*f) }

func newMachine(t *testing.T, store storage.Store) *authflow.Machine {
	t.Helper()
	m, err := authflow.Load(context.Background(), store, zerolog.Nop())
	require.NoError(t, err)
	return m
}

func TestTermPolicyDedupesAndBlocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	machine := newMachine(t, store)
	anon := fakeAuth(false)
	p := NewTermPolicy(store, &anon, machine, 3, zerolog.Nop())

	for _, term := range []string{"led", "Led ", "resistor"} {
		ok, err := p.Admit(ctx, term)
		require.NoError(t, err)
		assert.True(t, ok, term)
	}
	n, err := p.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, authflow.ModalNone, machine.Current())

	ok, err := p.Admit(ctx, "capacitor")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, authflow.ModalLogin, machine.Current())

	var seen []string
	_, err = storage.GetJSON(ctx, store, storage.KeySearchedKeywords, &seen)
	require.NoError(t, err)
	assert.Equal(t, []string{"led", "resistor", "capacitor"}, seen)
}

func TestTermPolicyRetriggersAfterDismiss(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	machine := newMachine(t, store)
	anon := fakeAuth(false)
	p := NewTermPolicy(store, &anon, machine, 1, zerolog.Nop())

	ok, _ := p.Admit(ctx, "led")
	assert.False(t, ok)
	require.NoError(t, machine.Close(ctx))

	ok, _ = p.Admit(ctx, "led")
	assert.False(t, ok, "repeated term still blocked")
	assert.Equal(t, authflow.ModalLogin, machine.Current())
}

func TestTermPolicyLeavesOpenModalAlone(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	machine := newMachine(t, store)
	require.NoError(t, machine.Open(ctx, authflow.ModalLogin))
	require.NoError(t, machine.Open(ctx, authflow.ModalSignup))
	anon := fakeAuth(false)
	p := NewTermPolicy(store, &anon, machine, 1, zerolog.Nop())

	ok, err := p.Admit(ctx, "led")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, authflow.ModalSignup, machine.Current())
}

func TestTermPolicyBypassedWhenAuthenticated(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	authed := fakeAuth(true)
	p := NewTermPolicy(store, &authed, newMachine(t, store), 1, zerolog.Nop())

	for _, term := range []string{"a", "b", "c"} {
		ok, err := p.Admit(ctx, term)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	_, found, _ := store.Get(ctx, storage.KeySearchCount)
	assert.False(t, found)
}

func TestDwellPolicy(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	machine := newMachine(t, store)
	anon := fakeAuth(false)
	p := NewDwellPolicy(store, &anon, machine, 3*time.Minute, zerolog.Nop())
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return start }

	ok, err := p.Admit(ctx, "led")
	require.NoError(t, err)
	assert.True(t, ok)

	p.now = func() time.Time { return start.Add(2 * time.Minute) }
	p.check(ctx)
	assert.Equal(t, authflow.ModalNone, machine.Current())

	p.now = func() time.Time { return start.Add(3 * time.Minute) }
	p.check(ctx)
	assert.Equal(t, authflow.ModalLogin, machine.Current())

	ok, err = p.Admit(ctx, "led")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewSelectsPolicy(t *testing.T) {
	store := storage.NewMemoryStore()
	machine := newMachine(t, store)
	anon := fakeAuth(false)
	cfg := config.DefaultConfig()

	p, err := New(cfg, store, &anon, machine, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &TermPolicy{}, p)

	cfg.GatePolicy = PolicyDwell
	p, err = New(cfg, store, &anon, machine, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &DwellPolicy{}, p)

	cfg.GatePolicy = "both"
	_, err = New(cfg, store, &anon, machine, zerolog.Nop())
	assert.Error(t, err)
}
