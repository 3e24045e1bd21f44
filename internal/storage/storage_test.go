package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/components-radar/config"
)

func backends(t *testing.T) map[string]func() Store {
	t.Helper()
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"file": func() Store {
			s, err := NewFileStore(filepath.Join(dir, "session.json"))
			require.NoError(t, err)
			return s
		},
		"redis": func() Store {
			s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), "t")
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			_, ok, err := s.Get(ctx, KeyCurrentModal)
			require.NoError(t, err)
			assert.False(t, ok, "absent key is not an error")

			require.NoError(t, s.Set(ctx, KeyCurrentModal, "otp"))
			v, ok, err := s.Get(ctx, KeyCurrentModal)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "otp", v)

			require.NoError(t, s.Delete(ctx, KeyCurrentModal))
			_, ok, err = s.Get(ctx, KeyCurrentModal)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Delete(ctx, "never-set"))
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, SetJSON(ctx, s, KeySearchedKeywords, []string{"led", "resistor"}))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	var terms []string
	ok, err := GetJSON(ctx, reopened, KeySearchedKeywords, &terms)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"led", "resistor"}, terms)
}

func TestRedisSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	a, err := NewRedisStore(ctx, "redis://"+mr.Addr(), "a")
	require.NoError(t, err)
	b, err := NewRedisStore(ctx, "redis://"+mr.Addr(), "b")
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, KeyToken, "tok"))
	_, ok, err := b.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "tok", mr.HGet("radar:session:a", KeyToken))

	same, err := NewRedisStore(ctx, "redis://"+mr.Addr(), "a")
	require.NoError(t, err)
	v, ok, err := same.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok, "one session id is one shared session")
	assert.Equal(t, "tok", v)
}

func TestGetJSONReportsCorruptValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, KeyUser, "{not json"))
	var v map[string]any
	_, err := GetJSON(ctx, s, KeyUser, &v)
	assert.Error(t, err)
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage = "memory"
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	cfg.Storage = "floppy"
	_, err = Open(context.Background(), cfg)
	assert.Error(t, err)
}
