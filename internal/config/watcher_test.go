package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, path, provider string) {
	t.Helper()
	body := "oracle:\n  provider: " + provider + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "anthropic")

	reloaded := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { reloaded <- cfg })
	require.NoError(t, err)
	w.debounceDur = 10 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	writeConfigFile(t, path, "openai")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "openai", cfg.Oracle.Provider)
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback never fired")
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "anthropic")

	var reloads atomic.Int64
	fired := make(chan struct{}, 8)
	w, err := NewWatcher(path, func(*Config) {
		reloads.Add(1)
		fired <- struct{}{}
	})
	require.NoError(t, err)
	w.debounceDur = time.Minute // anything after the first write must be suppressed
	require.NoError(t, w.Start())
	defer w.Stop()

	writeConfigFile(t, path, "openai")
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("first write never triggered a reload")
	}

	writeConfigFile(t, path, "gemini")
	writeConfigFile(t, path, "anthropic")
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, int64(1), reloads.Load())
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "anthropic")

	fired := make(chan struct{}, 1)
	w, err := NewWatcher(path, func(*Config) { fired <- struct{}{} })
	require.NoError(t, err)
	w.debounceDur = time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644))

	select {
	case <-fired:
		t.Fatal("reload fired for an unrelated file")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcherKeepsConfigOnBrokenEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "anthropic")

	fired := make(chan struct{}, 1)
	w, err := NewWatcher(path, func(*Config) { fired <- struct{}{} })
	require.NoError(t, err)
	w.debounceDur = time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("oracle: [broken\n"), 0o644))

	select {
	case <-fired:
		t.Fatal("reload fired for an unparseable config")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcherStopAfterFailedStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "config.yaml")
	w, err := NewWatcher(path, func(*Config) {})
	require.NoError(t, err)

	require.Error(t, w.Start(), "watching a nonexistent directory must fail")

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after a failed Start")
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfigFile(t, path, "anthropic")

	w, err := NewWatcher(path, func(*Config) {})
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.Stop()
	w.Stop()
}
