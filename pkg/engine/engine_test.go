package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunv/i18nscan/pkg/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestExtractFile_UnsupportedExtensionErrors(t *testing.T) {
	e := New(config.Defaults(), testLogger())
	defer e.Close()

	_, err := e.ExtractFile("notes.md", []byte("t('greeting')"))
	assert.Error(t, err)
}

func TestExtractFile_NoCandidatesShortCircuits(t *testing.T) {
	e := New(config.Defaults(), testLogger())
	defer e.Close()

	result, err := e.ExtractFile("plain.ts", []byte(`const x = 1 + 2;`))
	require.NoError(t, err)
	assert.Equal(t, 0, result.KeyMap.Len())
	assert.Empty(t, result.Warnings)
}

func TestExtractFile_FindsCallExpression(t *testing.T) {
	e := New(config.Defaults(), testLogger())
	defer e.Close()

	result, err := e.ExtractFile("component.tsx", []byte(`
		const { t } = useTranslation('feature');
		t('greeting', 'Hello');
	`))
	require.NoError(t, err)
	rec, ok := result.KeyMap.Get("feature", "greeting")
	require.True(t, ok)
	assert.Equal(t, "Hello", rec.DefaultValue)
}

func TestExtractFile_CacheHitAvoidsReparse(t *testing.T) {
	e := New(config.Defaults(), testLogger(), WithResultCache(0))
	defer e.Close()

	source := []byte(`t('cached');`)
	first, err := e.ExtractFile("cache.ts", source)
	require.NoError(t, err)

	second, err := e.ExtractFile("cache.ts", source)
	require.NoError(t, err)

	assert.Same(t, first, second, "identical path+content should hit the result cache")
}

func TestExtractFile_CacheMissOnContentChange(t *testing.T) {
	e := New(config.Defaults(), testLogger(), WithResultCache(0))
	defer e.Close()

	first, err := e.ExtractFile("cache.ts", []byte(`t('one');`))
	require.NoError(t, err)

	second, err := e.ExtractFile("cache.ts", []byte(`t('two');`))
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	_, ok := second.KeyMap.Get("translation", "one")
	assert.False(t, ok)
}

func TestExtractAll_MergesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.tsx")
	fileB := filepath.Join(dir, "b.tsx")
	require.NoError(t, os.WriteFile(fileA, []byte(`t('fromA', 'A');`), 0o644))
	require.NoError(t, os.WriteFile(fileB, []byte(`t('fromB', 'B');`), 0o644))

	e := New(config.Defaults(), testLogger())
	defer e.Close()

	merged, warnings, err := e.ExtractAll(context.Background(), []string{fileA, fileB})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 2, merged.Len())
	_, okA := merged.Get("translation", "fromA")
	_, okB := merged.Get("translation", "fromB")
	assert.True(t, okA)
	assert.True(t, okB)
}

func TestExtractAll_DeterministicRegardlessOfOrder(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("file%d.ts", i)
		p := filepath.Join(dir, name)
		content := fmt.Sprintf("t('k%d');", i)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}

	e := New(config.Defaults(), testLogger())
	defer e.Close()

	forward, _, err := e.ExtractAll(context.Background(), paths)
	require.NoError(t, err)

	reversed := make([]string, len(paths))
	for i, p := range paths {
		reversed[len(paths)-1-i] = p
	}
	backward, _, err := e.ExtractAll(context.Background(), reversed)
	require.NoError(t, err)

	assert.Equal(t, forward.Len(), backward.Len())
	for _, rec := range forward.Records() {
		_, ok := backward.Get(rec.Namespace, rec.Key)
		assert.True(t, ok, "record %s:%s missing regardless-of-submission-order", rec.Namespace, rec.Key)
	}
}

func TestExtractAll_MissingFileIsReportedNotFatal(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.ts")
	require.NoError(t, os.WriteFile(good, []byte(`t('survives');`), 0o644))
	missing := filepath.Join(dir, "does-not-exist.ts")

	e := New(config.Defaults(), testLogger())
	defer e.Close()

	merged, _, err := e.ExtractAll(context.Background(), []string{good, missing})
	require.NoError(t, err)
	_, ok := merged.Get("translation", "survives")
	assert.True(t, ok)
}

func TestExtractAll_CancellationStopsEarly(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		p := filepath.Join(dir, fmt.Sprintf("file%d.ts", i))
		require.NoError(t, os.WriteFile(p, []byte(`t('k');`), 0o644))
		paths = append(paths, p)
	}

	e := New(config.Defaults(), testLogger())
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := e.ExtractAll(ctx, paths)
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
