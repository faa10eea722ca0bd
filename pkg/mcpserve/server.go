// Package mcpserve exposes the extraction engine as a single MCP tool: a
// Server wrapping *server.MCPServer, an optional *mcplog.Logger wired in
// as tool-handler middleware, and a Close that shuts the logger down (a
// second Close returns the log file's close error).
package mcpserve

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/arjunv/i18nscan/pkg/config"
	"github.com/arjunv/i18nscan/pkg/engine"
	"github.com/arjunv/i18nscan/pkg/mcplog"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server, exposing the engine's extraction as one
// tool call.
type Server struct {
	mcpServer *server.MCPServer
	eng       *engine.Engine
	defaults  *config.Config
	logger    *mcplog.Logger // may be nil if call logging is disabled
	slogger   *slog.Logger
}

// NewServer builds an MCP server backed by eng. logger may be nil to
// disable JSONL call logging; slogger may be nil (defaults to slog.Default()).
func NewServer(eng *engine.Engine, defaults *config.Config, logger *mcplog.Logger, slogger *slog.Logger) *Server {
	if slogger == nil {
		slogger = slog.Default()
	}
	s := &Server{eng: eng, defaults: defaults, logger: logger, slogger: slogger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("i18nscan", serverVersion, opts...)
	s.mcpServer.AddTools(
		server.ServerTool{Tool: extractTranslationKeysTool(), Handler: s.handleExtractTranslationKeys},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the call logger, if one is active. Should be deferred
// right after NewServer.
func (s *Server) Close() error {
	if s.logger != nil {
		return s.logger.Close()
	}
	return nil
}
