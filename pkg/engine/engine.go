// Package engine orchestrates the parser, the candidate prefilter query,
// and the walker to turn a set of file paths into one merged KeyMap:
// discover, process in parallel via a worker pool, fold sequentially.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arjunv/i18nscan/pkg/config"
	"github.com/arjunv/i18nscan/pkg/filecache"
	"github.com/arjunv/i18nscan/pkg/keys"
	"github.com/arjunv/i18nscan/pkg/parser"
	"github.com/arjunv/i18nscan/pkg/parser/queries"
	"github.com/arjunv/i18nscan/pkg/walker"
)

// DefaultCachedFiles bounds the optional result cache's size when one is
// requested via WithResultCache.
const DefaultCachedFiles = 2000

// Engine ties the extraction pipeline together for a configured project.
// One Engine is shared across a batch (ExtractAll) and across incremental
// calls from pkg/watch; it owns the parser pool and must be closed.
type Engine struct {
	config        *config.Config
	parserManager *parser.ParserManager
	queryManager  *queries.QueryManager
	logger        *slog.Logger
	fileCache     filecache.FileCache

	cache *lru.Cache[string, *keys.FileResult]
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithResultCache enables an LRU cache of *keys.FileResult keyed by
// "path@contentHash", so pkg/watch's incremental re-extraction can skip a
// file whose content hash it has already seen. size <= 0 uses DefaultCachedFiles.
func WithResultCache(size int) Option {
	return func(e *Engine) {
		if size <= 0 {
			size = DefaultCachedFiles
		}
		cache, err := lru.New[string, *keys.FileResult](size)
		if err != nil {
			// Only returns an error for a non-positive size, which is
			// normalized above: this can never happen.
			panic(fmt.Sprintf("engine: failed to create result cache: %v", err))
		}
		e.cache = cache
	}
}

// New builds an Engine for cfg. logger may be nil (defaults to slog.Default()).
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	pm := parser.NewParserManager(logger)
	fcConfig := filecache.DefaultFileCacheConfig()
	fcConfig.Logger = logger
	e := &Engine{
		config:        cfg,
		parserManager: pm,
		queryManager:  queries.NewQueryManager(pm, logger),
		logger:        logger,
		fileCache:     filecache.NewFileCache(fcConfig),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases the parser pool and compiled queries. The Engine must not
// be used afterward.
func (e *Engine) Close() error {
	if err := e.queryManager.Close(); err != nil {
		return err
	}
	if err := e.fileCache.Close(); err != nil {
		return err
	}
	return e.parserManager.Close()
}

// ExtractFile parses and walks a single file's source, returning the
// records and warnings found. A whole-file parse failure is returned as an
// error: the one case where extraction aborts outright; a malformed
// subtree inside an otherwise-parseable file is a Warning on the result,
// not an error.
func (e *Engine) ExtractFile(path string, source []byte) (*keys.FileResult, error) {
	if cached, ok := e.lookupCache(path, source); ok {
		return cached, nil
	}

	lang := parser.DetectLanguage(path)
	if lang == parser.LanguageUnknown {
		return nil, fmt.Errorf("engine: unsupported file extension: %s", path)
	}
	isTSX := parser.IsTSXFile(path) || parser.IsJSXFile(path)

	tree, err := e.parserManager.Parse(source, lang, isTSX)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("engine: parser produced no root node for %s", path)
	}

	hasCandidates, err := e.queryManager.HasCandidates(tree, lang, source)
	if err != nil {
		e.logger.Warn("candidate prefilter failed, falling back to full walk", "file", path, "error", err)
		hasCandidates = true
	}

	result := &keys.FileResult{FilePath: path, KeyMap: keys.New()}
	if !hasCandidates {
		e.storeCache(path, source, result)
		return result, nil
	}

	w := walker.New(e.config, path)
	keyMap, warnings := w.Walk(root, source)
	result.KeyMap = keyMap
	result.Warnings = warnings

	e.storeCache(path, source, result)
	return result, nil
}

// ExtractAll walks every path in parallel via a worker pool sized to
// util.GetOptimalPoolSize (shared with the parser pool's sizing), then
// folds each file's KeyMap into one batch accumulator with a
// single-goroutine sequential merge, chosen because KeyMap.Merge is pure
// data combination and keeping it off the per-file hot path avoids a mutex
// around file-visit CPU work.
//
// Cancellation is checked at file-boundary granularity: the submitting
// loop stops queueing paths once ctx is done, while files already queued
// or in flight run to completion (workers do not check ctx themselves);
// mid-walk cancellation is not required. A whole-file parse failure for
// one path is logged and does not abort the batch; it is not accumulated
// as a keys.Warning because it has no file content to attach a position to.
func (e *Engine) ExtractAll(ctx context.Context, paths []string) (*keys.KeyMap, []keys.Warning, error) {
	pool := newWorkerPool(e, len(paths))
	pool.Start()

	go func() {
		for i, p := range paths {
			if err := pool.Submit(ctx, fileJob{Path: p, JobID: i}); err != nil {
				break
			}
		}
		pool.FinishSubmitting()
	}()

	// Wait runs independently of the merge loop below: workers must be free
	// to keep sending into Results/Errors however long they take, even if
	// ctx is cancelled before a single file finishes, and Wait is the only
	// place that closes those channels. Tying it to the merge loop's exit
	// (as a deferred call) would deadlock a worker mid-send once ctx.Done()
	// fires with nobody left reading.
	go pool.Wait()

	merged := keys.New()
	var cancelErr error
	resultsCh := pool.Results()
	errorsCh := pool.Errors()
	// Loop until both channels are closed, which only happens after every
	// worker has exited: so every submitted job is accounted for
	// regardless of when (or whether) ctx is cancelled.
	for resultsCh != nil || errorsCh != nil {
		select {
		case res, ok := <-resultsCh:
			if !ok {
				resultsCh = nil
				continue
			}
			merged.Merge(res.KeyMap)
			merged.Warnings = append(merged.Warnings, res.Warnings...)
		case ferr, ok := <-errorsCh:
			if !ok {
				errorsCh = nil
				continue
			}
			e.logger.Warn("file extraction failed", "file", ferr.FilePath, "error", ferr.Error)
		case <-ctx.Done():
			// Recorded once; the loop keeps draining until the pool itself
			// reports completion above, not on cancellation alone: a file
			// already in flight runs to completion (file-boundary
			// cancellation granularity).
			if cancelErr == nil {
				cancelErr = ctx.Err()
			}
		}
	}

	return merged, merged.Warnings, cancelErr
}

func (e *Engine) lookupCache(path string, source []byte) (*keys.FileResult, bool) {
	if e.cache == nil {
		return nil, false
	}
	cached, ok := e.cache.Get(cacheKey(path, source))
	return cached, ok
}

func (e *Engine) storeCache(path string, source []byte, result *keys.FileResult) {
	if e.cache == nil {
		return
	}
	e.cache.Add(cacheKey(path, source), result)
}
