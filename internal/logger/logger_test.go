package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestInitWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "production", "warn")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	Info().Msg("hidden")
	Warn().Str("query", "led").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"query":"led"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestContextRoundTrip(t *testing.T) {
	l := zerolog.Nop()
	ctx := NewContext(context.Background(), &l)
	assert.Same(t, &l, WithContext(ctx))
	assert.Same(t, Get(), WithContext(context.Background()))
}
