package mcpserve

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/arjunv/i18nscan/pkg/config"
	"github.com/arjunv/i18nscan/pkg/engine"
	"github.com/arjunv/i18nscan/pkg/keys"
)

func (s *Server) handleExtractTranslationKeys(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	paths, err := stringSlice(args["paths"])
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("paths: %v", err)), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultError("paths must be non-empty"), nil
	}

	recursive, _ := args["recursive"].(bool)

	eng := s.eng
	if cfgYAML, ok := args["config"].(string); ok && cfgYAML != "" {
		overridden, err := overrideConfig(s.defaults, cfgYAML)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("config: %v", err)), nil
		}
		oneOff := engine.New(overridden, s.slogger)
		defer oneOff.Close()
		eng = oneOff
	}

	files := paths
	if recursive {
		files = nil
		for _, root := range paths {
			discovered, err := engine.DiscoverFiles(root, nil, nil)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("discovering %s: %v", root, err)), nil
			}
			files = append(files, discovered...)
		}
	}

	merged, warnings, err := eng.ExtractAll(ctx, files)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body, err := json.Marshal(struct {
		Records  []*keys.ExtractedKey `json:"records"`
		Warnings []keys.Warning       `json:"warnings"`
	}{
		Records:  merged.SortedRecords(),
		Warnings: warnings,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(body)), nil
}

// stringSlice converts a JSON-decoded []any (the shape MCP tool arguments
// arrive in) into []string, rejecting any non-string element.
func stringSlice(v any) ([]string, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected an array of strings")
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected an array of strings, found %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}

// overrideConfig applies cfgYAML on top of a copy of base, the same
// "defaults first, then unmarshal over them" shape config.Load uses for a
// file on disk.
func overrideConfig(base *config.Config, cfgYAML string) (*config.Config, error) {
	cfg := *base
	if err := yaml.Unmarshal([]byte(cfgYAML), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
