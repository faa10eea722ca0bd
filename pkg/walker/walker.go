// Package walker implements the single recursive traversal that drives
// every other component: it enters/exits lexical scope at function-like
// nodes, pre-registers forward-referenced translation-hook bindings
// before descending into a block's statements, and dispatches recognized
// call and JSX shapes to pkg/callsite and pkg/transjsx: a single
// "switch on Kind, recurse into children" traversal driving extraction.
package walker

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/arjunv/i18nscan/pkg/callsite"
	"github.com/arjunv/i18nscan/pkg/config"
	"github.com/arjunv/i18nscan/pkg/keys"
	"github.com/arjunv/i18nscan/pkg/resolve"
	"github.com/arjunv/i18nscan/pkg/scope"
	"github.com/arjunv/i18nscan/pkg/transjsx"
)

// functionLikeKinds are the node kinds that open a new lexical scope.
var functionLikeKinds = map[string]bool{
	"function_declaration":           true,
	"function_expression":            true,
	"function":                       true,
	"arrow_function":                 true,
	"generator_function":             true,
	"generator_function_declaration": true,
	"method_definition":              true,
}

// blockLikeKinds are the node kinds whose immediate statement children are
// pre-scanned for hoistable translation-hook declarations before any of
// them (or any other child) is walked.
var blockLikeKinds = map[string]bool{
	"program":         true,
	"statement_block":  true,
	"class_body":       true,
}

// Walker drives one file's traversal. Not safe for concurrent use. Walk
// clears its scope and record state at entry, so a Walker can walk several
// trees in turn, but every record carries the file path given to New: the
// engine gives every file visit its own Walker, one per worker-pool task.
type Walker struct {
	config   *config.Config
	filePath string

	scopeMgr *scope.Manager
	resolver *resolve.Resolver
	callsite *callsite.Handler
	transjsx *transjsx.Handler

	keyMap   *keys.KeyMap
	warnings []keys.Warning
}

// New builds a Walker wired to cfg for one file. hookSpecs is the list of
// translation-hook names (from cfg.UseTranslationNames) the Scope Manager
// should recognize.
func New(cfg *config.Config, filePath string) *Walker {
	hookSpecs := make([]scope.HookSpec, 0, len(cfg.UseTranslationNames))
	for _, h := range cfg.UseTranslationNames {
		hookSpecs = append(hookSpecs, scope.HookSpec{Name: h.Name, NSArg: h.NSArg, KeyPrefixArg: h.KeyPrefixArg})
	}
	mgr := scope.New(hookSpecs)
	resolver := &resolve.Resolver{LookupConstant: mgr.LookupConstant}

	w := &Walker{
		config:   cfg,
		filePath: filePath,
		scopeMgr: mgr,
		resolver: resolver,
	}
	w.callsite = &callsite.Handler{Config: cfg, Scope: mgr, Resolver: resolver, FilePath: filePath}
	w.transjsx = &transjsx.Handler{Config: cfg, Scope: mgr, Resolver: resolver, FilePath: filePath}
	return w
}

// Walk traverses root (already parsed and span-normalized) and returns
// every record extracted, plus any warnings raised along the way. It never
// returns an error: a malformed subtree is a warning, not a file abort. A
// whole-file parse failure is the caller's concern, raised before Walk is
// ever called.
func (w *Walker) Walk(root *ts.Node, source []byte) (*keys.KeyMap, []keys.Warning) {
	w.scopeMgr.Reset()
	w.keyMap = keys.New()
	w.warnings = nil

	w.walk(root, source)

	return w.keyMap, w.warnings
}

func (w *Walker) walk(node *ts.Node, source []byte) {
	if node == nil {
		return
	}
	kind := node.Kind()

	if blockLikeKinds[kind] {
		w.preRegisterDeclarations(node, source)
	}

	switch kind {
	case "call_expression":
		w.handleCall(node, source)
	case "jsx_element", "jsx_self_closing_element":
		w.handleJSX(node, source)
	case "variable_declarator":
		// Registered again here (idempotent) so a declarator reached
		// outside a pre-scanned block (e.g. the sole declarator of a
		// for-loop initializer) is still picked up.
		w.scopeMgr.RegisterDeclarator(node, source)
	}

	entersScope := functionLikeKinds[kind]
	if entersScope {
		w.scopeMgr.EnterScope()
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		w.walk(node.Child(i), source)
	}

	if entersScope {
		w.scopeMgr.ExitScope()
	}
}

// preRegisterDeclarations implements the forward-reference rule:
// before walking any child of a block, every declarator the block
// directly contains is registered, so a hook result bound later in the
// same block is visible to a call site that (in source order) appears
// earlier: the common `const t = useTranslation(...); ... t('key')`
// shape read top-to-bottom poses no problem, but a block that reads,
// e.g., a helper function defined after its first call does.
func (w *Walker) preRegisterDeclarations(node *ts.Node, source []byte) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "lexical_declaration", "variable_declaration":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				decl := child.NamedChild(j)
				if decl != nil && decl.Kind() == "variable_declarator" {
					w.scopeMgr.RegisterDeclarator(decl, source)
				}
			}
		case "variable_declarator":
			w.scopeMgr.RegisterDeclarator(child, source)
		}
	}
}

func (w *Walker) handleCall(node *ts.Node, source []byte) {
	records, warnings := w.callsite.Handle(node, source)
	for _, r := range records {
		w.keyMap.Add(r)
	}
	w.warnings = append(w.warnings, warnings...)
}

func (w *Walker) handleJSX(node *ts.Node, source []byte) {
	records, warnings := w.transjsx.Handle(node, source)
	for _, r := range records {
		w.keyMap.Add(r)
	}
	w.warnings = append(w.warnings, warnings...)
}
