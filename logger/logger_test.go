package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("nil configuration gives defaults", func(t *testing.T) {
		log, err := New(nil)
		require.NoError(t, err)
		require.NotNil(t, log)
		require.True(t, log.Enabled(nil, slog.LevelInfo))
		require.False(t, log.Enabled(nil, slog.LevelDebug))
	})

	t.Run("level from configuration", func(t *testing.T) {
		log, err := New(&LogConfiguration{Level: "debug"})
		require.NoError(t, err)
		require.True(t, log.Enabled(nil, slog.LevelDebug))

		log, err = New(&LogConfiguration{Level: "WARN"})
		require.NoError(t, err)
		require.False(t, log.Enabled(nil, slog.LevelInfo))
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := New(&LogConfiguration{Level: "loud"})
		require.ErrorContains(t, err, `parsing log level "loud"`)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := New(&LogConfiguration{Format: "xml"})
		require.ErrorContains(t, err, `unknown log format "xml"`)
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.log")
		log, err := New(&LogConfiguration{OutputPath: path, Format: "json"})
		require.NoError(t, err)

		log.Info("hello from the test")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Contains(t, string(data), `"msg":"hello from the test"`)
	})
}

func TestLoadConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logger-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaultLevel: debug\nformat: json\n"), 0600))

	cfg, err := LoadConfiguration(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Level)
	require.Equal(t, "json", cfg.Format)

	_, err = LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "opening logger configuration file")
}

func TestFormatTimeAttr(t *testing.T) {
	now := time.Now()
	timeAttr := slog.Time(slog.TimeKey, now)

	t.Run("empty format keeps handler default", func(t *testing.T) {
		require.Nil(t, formatTimeAttr(""))
	})

	t.Run("none drops the time attribute", func(t *testing.T) {
		f := formatTimeAttr("none")
		require.True(t, f(nil, timeAttr).Equal(slog.Attr{}))
		// only the built-in top-level time attribute is dropped
		other := slog.String("key", "value")
		require.True(t, f(nil, other).Equal(other))
		require.True(t, f([]string{"group"}, timeAttr).Equal(timeAttr))
	})

	t.Run("layout formats the time", func(t *testing.T) {
		f := formatTimeAttr(time.Kitchen)
		got := f(nil, timeAttr)
		require.Equal(t, slog.KindString, got.Value.Kind())
		require.Equal(t, now.Format(time.Kitchen), got.Value.String())

		// zero times are left alone
		zero := slog.Time(slog.TimeKey, time.Time{})
		require.True(t, f(nil, zero).Equal(zero))
	})
}
