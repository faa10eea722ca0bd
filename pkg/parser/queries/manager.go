// Package queries provides tree-sitter query compilation, caching, and
// execution for the translation-key candidate prefilter.
//
// The prefilter is never a source of truth for emitted keys: it exists so
// the engine's worker pool can skip a full walk of files that contain no
// call expressions and no JSX elements at all. The walker (pkg/walker)
// still performs the authoritative, scope-aware traversal of every file it
// is asked to visit.
package queries

import (
	"fmt"
	"log/slog"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/arjunv/i18nscan/pkg/parser"
)

// candidateQuery matches the two node shapes a translation call site or a
// translation JSX component can appear as. It deliberately does not try to
// match callee/tag names: that requires scope information the query layer
// does not have, and is the walker's job.
const candidateQuery = `
(call_expression) @call
(jsx_element) @jsx
(jsx_self_closing_element) @jsx
`

// QueryManager compiles and caches the candidate query per language.
//
// Thread-safe: queries are compiled lazily on first use and cached for
// subsequent calls.
type QueryManager struct {
	parserManager *parser.ParserManager
	cache         map[parser.Language]*ts.Query
	mutex         sync.RWMutex
	logger        *slog.Logger
}

// NewQueryManager creates a new query manager. Logger may be nil.
func NewQueryManager(pm *parser.ParserManager, logger *slog.Logger) *QueryManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryManager{
		parserManager: pm,
		cache:         make(map[parser.Language]*ts.Query),
		logger:        logger,
	}
}

// GetCandidateQuery returns the compiled candidate query for a language,
// compiling and caching it on first use.
func (qm *QueryManager) GetCandidateQuery(lang parser.Language) (*ts.Query, error) {
	qm.mutex.RLock()
	query, exists := qm.cache[lang]
	qm.mutex.RUnlock()
	if exists {
		return query, nil
	}

	qm.mutex.Lock()
	defer qm.mutex.Unlock()
	if query, exists = qm.cache[lang]; exists {
		return query, nil
	}

	langPtr, err := qm.parserManager.GetLanguagePointer(lang, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get language pointer for %s: %w", lang, err)
	}

	tsLang := ts.NewLanguage(langPtr)
	query, qerr := ts.NewQuery(tsLang, candidateQuery)
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile candidate query for %s: %s", lang, qerr.Message)
	}

	qm.cache[lang] = query
	qm.logger.Debug("compiled candidate query", "language", lang.String())
	return query, nil
}

// HasCandidates reports whether tree contains at least one call expression
// or JSX element: a cheap prefilter before a full scope-aware walk.
func (qm *QueryManager) HasCandidates(tree *ts.Tree, lang parser.Language, source []byte) (bool, error) {
	query, err := qm.GetCandidateQuery(lang)
	if err != nil {
		return false, err
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	iter := cursor.Matches(query, tree.RootNode(), source)
	return iter.Next() != nil, nil
}

// Close releases all compiled queries.
func (qm *QueryManager) Close() error {
	qm.mutex.Lock()
	defer qm.mutex.Unlock()

	for lang, query := range qm.cache {
		if query != nil {
			query.Close()
		}
		delete(qm.cache, lang)
	}
	return nil
}
