package mcpserve

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arjunv/i18nscan/pkg/config"
	"github.com/arjunv/i18nscan/pkg/engine"
	"github.com/arjunv/i18nscan/pkg/keys"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testServer() *Server {
	eng := engine.New(config.Defaults(), testLogger())
	return NewServer(eng, config.Defaults(), nil, testLogger())
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "extract_translation_keys",
			Arguments: args,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

func TestHandleExtractTranslationKeys_RejectsMissingPaths(t *testing.T) {
	s := testServer()
	defer s.eng.Close()

	result, err := s.handleExtractTranslationKeys(context.Background(), makeRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleExtractTranslationKeys_ExtractsFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.tsx")
	require.NoError(t, os.WriteFile(file, []byte(`t('greeting', 'Hi');`), 0o644))

	s := testServer()
	defer s.eng.Close()

	result, err := s.handleExtractTranslationKeys(context.Background(), makeRequest(map[string]any{
		"paths": []any{file},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := resultJSON(t, result)
	var parsed struct {
		Records  []*keys.ExtractedKey
		Warnings []keys.Warning
	}
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	require.Len(t, parsed.Records, 1)
	assert.Equal(t, "greeting", parsed.Records[0].Key)
	assert.Equal(t, "Hi", parsed.Records[0].DefaultValue)
}

func TestHandleExtractTranslationKeys_RecursiveDiscoversDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.ts"), []byte(`t('one');`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "b.ts"), []byte(`t('two');`), 0o644))

	s := testServer()
	defer s.eng.Close()

	result, err := s.handleExtractTranslationKeys(context.Background(), makeRequest(map[string]any{
		"paths":     []any{dir},
		"recursive": true,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := resultJSON(t, result)
	var parsed struct {
		Records []*keys.ExtractedKey
	}
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	assert.Len(t, parsed.Records, 2)
}

func TestHandleExtractTranslationKeys_ConfigOverrideChangesDefaultNamespace(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.ts")
	require.NoError(t, os.WriteFile(file, []byte(`t('greeting');`), 0o644))

	s := testServer()
	defer s.eng.Close()

	result, err := s.handleExtractTranslationKeys(context.Background(), makeRequest(map[string]any{
		"paths":  []any{file},
		"config": "defaultNS: customNS\n",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	body := resultJSON(t, result)
	var parsed struct {
		Records []*keys.ExtractedKey
	}
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	require.Len(t, parsed.Records, 1)
	assert.Equal(t, "customNS", parsed.Records[0].Namespace)
}
