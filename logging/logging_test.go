package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("info", "json", &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("index: build complete", "entities", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "index: build complete", rec["msg"])
	assert.Equal(t, float64(3), rec["entities"])
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
	_, err = New("nope", "json", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestPrettyHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("levels and attributes", func(t *testing.T) {
		for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			var buf bytes.Buffer
			h := NewPrettyHandler(&buf, PrettyHandlerOptions{SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug}})
			r := slog.NewRecord(time.Now(), lvl, "link: ambiguous alias", 0)
			r.AddAttrs(slog.String("name", "Smith"), slog.Int("candidates", 2))

			require.NoError(t, h.Handle(ctx, r))
			out := buf.String()
			assert.Contains(t, out, lvl.String()+":")
			assert.Contains(t, out, "link: ambiguous alias")
			assert.Contains(t, out, `"name": "Smith"`)
			assert.Contains(t, out, `"candidates": 2`)
			assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, out)
		}
	})

	t.Run("no attributes", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewPrettyHandler(&buf, PrettyHandlerOptions{})
		require.NoError(t, h.Handle(ctx, slog.NewRecord(time.Now(), slog.LevelInfo, "plain", 0)))
		assert.Contains(t, buf.String(), "{}")
	})

	t.Run("errors durations and groups", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewPrettyHandler(&buf, PrettyHandlerOptions{})
		r := slog.NewRecord(time.Now(), slog.LevelWarn, "store: failed", 0)
		r.AddAttrs(
			slog.Any("error", errors.New("disk full")),
			slog.Duration("elapsed", 1500*time.Millisecond),
			slog.Group("snapshot", slog.String("hash", "abc")),
		)
		require.NoError(t, h.Handle(ctx, r))
		out := buf.String()
		assert.Contains(t, out, `"error": "disk full"`)
		assert.Contains(t, out, `"elapsed": "1.5s"`)
		assert.Contains(t, out, `"hash": "abc"`)
	})

	t.Run("level filtering through logger", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New("warn", "pretty", &buf)
		require.NoError(t, err)
		log.Info("quiet")
		assert.Empty(t, buf.String())
		log.Warn("loud")
		assert.Contains(t, buf.String(), "loud")
	})

	t.Run("with attrs and group", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(NewPrettyHandler(&buf, PrettyHandlerOptions{})).
			With("component", "index").WithGroup("build")
		log.Info("done", "entities", 7)
		out := buf.String()
		assert.Contains(t, out, `"component": "index"`)
		assert.Contains(t, out, `"build.entities": 7`)
	})

	t.Run("attrs after group", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(NewPrettyHandler(&buf, PrettyHandlerOptions{})).
			WithGroup("build").With("component", "index").WithGroup("refs").With("done", 3)
		log.Info("progress", "total", 9)
		out := buf.String()
		assert.Contains(t, out, `"build.component": "index"`)
		assert.Contains(t, out, `"build.refs.done": 3`)
		assert.Contains(t, out, `"build.refs.total": 9`)
		assert.NotContains(t, out, `"component":`)
	})
}
