package mcpserve

import "github.com/mark3labs/mcp-go/mcp"

// extractTranslationKeysTool describes the single tool this server exposes:
// extract_translation_keys(paths []string, recursive bool, config string) -> records.
func extractTranslationKeysTool() mcp.Tool {
	return mcp.NewTool("extract_translation_keys",
		mcp.WithDescription("Statically discover i18next-style translation keys referenced in JS/TS/JSX source, without executing it"),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("File or directory paths to scan"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean("recursive",
			mcp.Description("Treat each entry in paths as a directory root and discover files beneath it (default: false, paths are files)"),
		),
		mcp.WithString("config",
			mcp.Description("Inline YAML overriding the default extraction config (functions, useTranslationNames, separators, locales, ...)"),
		),
	)
}
