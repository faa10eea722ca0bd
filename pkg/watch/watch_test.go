package watch

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunv/i18nscan/pkg/config"
	"github.com/arjunv/i18nscan/pkg/engine"
	"github.com/arjunv/i18nscan/pkg/keys"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatcher_WriteTriggersReextraction(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app.tsx")
	require.NoError(t, os.WriteFile(target, []byte(`t('initial');`), 0o644))

	eng := engine.New(config.Defaults(), testLogger())
	defer eng.Close()

	events := make(chan Event, 10)
	w, err := New(eng, testLogger(), DefaultOptions(), func(ev Event, _ *keys.KeyMap) {
		events <- ev
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(dir))
	defer w.Stop()

	require.NoError(t, os.WriteFile(target, []byte(`t('updated');`), 0o644))

	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reextraction event")
	}

	snapshot, _ := w.Snapshot()
	_, ok := snapshot.Get("translation", "updated")
	assert.True(t, ok)
}

func TestWatcher_RemoveDropsContribution(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "gone.ts")
	require.NoError(t, os.WriteFile(target, []byte(`t('present');`), 0o644))

	eng := engine.New(config.Defaults(), testLogger())
	defer eng.Close()

	result, err := eng.ExtractFile(target, []byte(`t('present');`))
	require.NoError(t, err)

	events := make(chan Event, 10)
	w, err := New(eng, testLogger(), DefaultOptions(), func(ev Event, _ *keys.KeyMap) {
		events <- ev
	})
	require.NoError(t, err)
	w.Seed([]string{target}, map[string]*keys.FileResult{target: result})
	require.NoError(t, w.Start(dir))
	defer w.Stop()

	require.NoError(t, os.Remove(target))

	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for removal event")
	}

	snapshot, _ := w.Snapshot()
	_, ok := snapshot.Get("translation", "present")
	assert.False(t, ok)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	eng := engine.New(config.Defaults(), testLogger())
	defer eng.Close()

	w, err := New(eng, testLogger(), DefaultOptions(), nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(dir))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
