package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/arjunv/i18nscan/pkg/config"
	"github.com/arjunv/i18nscan/pkg/engine"
	"github.com/arjunv/i18nscan/pkg/keys"
	"github.com/arjunv/i18nscan/pkg/mcplog"
	"github.com/arjunv/i18nscan/pkg/mcpserve"
	"github.com/arjunv/i18nscan/pkg/util"
	"github.com/arjunv/i18nscan/pkg/watch"
)

const version = "0.1.0-dev"

// logger is shared across every subcommand. Output goes to stderr
// regardless of format, since stdout is reserved for extract's --json
// output and serve's MCP protocol stream.
var logger = util.NewLogger(util.LoggerConfig{
	Level:  util.LevelInfo,
	Format: util.FormatText,
	Output: os.Stderr,
})

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "extract":
		runExtract(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "version":
		fmt.Printf("i18nscan %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runExtract(args []string) {
	var configPath string
	recursive := false
	asJSON := false
	var targets []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				i++
				configPath = args[i]
			}
		case "--recursive":
			recursive = true
		case "--json":
			asJSON = true
		default:
			if !strings.HasPrefix(args[i], "--") {
				targets = append(targets, args[i])
			}
		}
	}

	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "usage: i18nscan extract <file-or-dir>... [--config path] [--recursive] [--json]")
		os.Exit(1)
	}

	cfg, err := resolveConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	files := targets
	if recursive {
		files = nil
		for _, root := range targets {
			discovered, err := engine.DiscoverFiles(root, nil, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to discover files under %s: %v\n", root, err)
				os.Exit(1)
			}
			files = append(files, discovered...)
		}
	}

	eng := engine.New(cfg, logger)
	defer eng.Close()

	merged, warnings, err := eng.ExtractAll(context.Background(), files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extraction failed: %v\n", err)
		os.Exit(1)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(struct {
			Records  []*keys.ExtractedKey `json:"records"`
			Warnings []keys.Warning       `json:"warnings"`
		}{merged.SortedRecords(), warnings})
		return
	}

	for _, rec := range merged.SortedRecords() {
		loc := "?"
		if len(rec.Locations) > 0 {
			loc = fmt.Sprintf("%s:%d", rec.Locations[0].FilePath, rec.Locations[0].StartLine)
		}
		fmt.Printf("%s:%s  %s\n", rec.Namespace, rec.Key, loc)
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s %s:%d %s\n", w.Kind, w.File, w.Line, w.Message)
	}
}

func runWatch(args []string) {
	var configPath, root string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				i++
				configPath = args[i]
			}
		default:
			if !strings.HasPrefix(args[i], "--") {
				root = args[i]
			}
		}
	}
	if root == "" {
		root = "."
	}

	cfg, err := resolveConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(cfg, logger)
	defer eng.Close()

	w, err := watch.New(eng, logger, watch.DefaultOptions(), func(ev watch.Event, snapshot *keys.KeyMap) {
		fmt.Printf("[%s] %s: %d keys total\n", ev.Op, ev.FilePath, snapshot.Len())
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start watcher: %v\n", err)
		os.Exit(1)
	}
	if err := w.Start(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start watcher: %v\n", err)
		os.Exit(1)
	}
	defer w.Stop()

	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", root)
	select {}
}

func runServe(args []string) {
	var configPath, logPath string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				i++
				configPath = args[i]
			}
		case "--log":
			if i+1 < len(args) {
				i++
				logPath = args[i]
			}
		}
	}

	cfg, err := resolveConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(cfg, logger)
	defer eng.Close()

	callLogger, err := mcplog.NewLogger(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open call log: %v\n", err)
		os.Exit(1)
	}

	srv := mcpserve.NewServer(eng, cfg, callLogger, logger)
	defer srv.Close()

	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: i18nscan <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  extract <paths>...  Extract translation keys from files or directories")
	fmt.Println("  watch <dir>         Watch a directory and re-extract on change")
	fmt.Println("  serve               Start the MCP server on stdin/stdout")
	fmt.Println("  version             Print version")
	fmt.Println("  help                Show this help message")
}
