package logger

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERR", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"something", zerolog.InfoLevel},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parseLevel(c.in), c.in)
	}
}

// Not parallel: mutates the global logger.
func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", false)
	assert.Equal(t, zerolog.WarnLevel, L().GetLevel())

	L().Info().Msg("hidden")
	L().Warn().Str("portfolio", "rent").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"portfolio":"rent"`)

	ready = false
	once = sync.Once{}
	L()
	assert.True(t, ready)
	assert.Equal(t, zerolog.InfoLevel, L().GetLevel())
}
