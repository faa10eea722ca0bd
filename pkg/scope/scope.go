// Package scope tracks, for a single file's traversal, which identifiers
// are bound to translation functions and with what namespace/key-prefix
// attached, plus a small map of simple string constants used to resolve
// identifier-valued call arguments. It is the walker's lexical memory: a
// stack of scopes pushed and popped as the AST walk enters and leaves each
// block.
package scope

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/arjunv/i18nscan/pkg/astutil"
	"github.com/arjunv/i18nscan/pkg/keys"
)

// HookSpec names a translation-hook call (e.g. `useTranslation`) and the
// positional argument indices that carry its namespace and key-prefix.
type HookSpec struct {
	Name         string
	NSArg        int
	KeyPrefixArg int
}

// DefaultHookSpec returns the i18next-conventional default: `useTranslation`,
// ns at argument 0, keyPrefix read from an options object (so
// KeyPrefixArg names the options-object argument index, conventionally 1).
func DefaultHookSpec(name string) HookSpec {
	return HookSpec{Name: name, NSArg: 0, KeyPrefixArg: 1}
}

// Manager is a single file's scope state: a stack of identifier→ScopeInfo
// maps, a flat top-level map, and a map of simple string constants. It is
// not safe for concurrent use: each file visit owns its own Manager, per
// the engine's file-level parallelism model.
type Manager struct {
	stack     []map[string]keys.ScopeInfo
	topLevel  map[string]keys.ScopeInfo
	constants map[string]string

	hooks []HookSpec
}

// New returns a Manager configured with the translator hook names it
// should recognize in RegisterDeclarator.
func New(hooks []HookSpec) *Manager {
	m := &Manager{hooks: hooks}
	m.Reset()
	return m
}

// Reset clears all scope and constant state. Must be called at file entry
// so no state leaks between files sharing a Manager instance.
func (m *Manager) Reset() {
	m.stack = nil
	m.topLevel = make(map[string]keys.ScopeInfo)
	m.constants = make(map[string]string)
}

// EnterScope pushes a new lexical scope, called at every function,
// arrow-function, and function-expression node.
func (m *Manager) EnterScope() {
	m.stack = append(m.stack, make(map[string]keys.ScopeInfo))
}

// ExitScope pops the innermost lexical scope.
func (m *Manager) ExitScope() {
	if len(m.stack) == 0 {
		return
	}
	m.stack = m.stack[:len(m.stack)-1]
}

// Lookup searches inner scopes outward, then falls back to the top-level
// map.
func (m *Manager) Lookup(name string) (keys.ScopeInfo, bool) {
	for i := len(m.stack) - 1; i >= 0; i-- {
		if info, ok := m.stack[i][name]; ok {
			return info, true
		}
	}
	info, ok := m.topLevel[name]
	return info, ok
}

// LookupConstant returns a simple string constant recorded for name.
func (m *Manager) LookupConstant(name string) (string, bool) {
	v, ok := m.constants[name]
	return v, ok
}

// bind records info for name in the innermost scope, or the top-level map
// when no scope is open.
func (m *Manager) bind(name string, info keys.ScopeInfo) {
	if name == "" {
		return
	}
	if len(m.stack) > 0 {
		m.stack[len(m.stack)-1][name] = info
		return
	}
	m.topLevel[name] = info
}

// bindConstant records a simple string constant, whatever scope declares
// it: constants live in a single flat map, since they're rare enough
// in practice that file-wide visibility outweighs strict lexical shadowing.
func (m *Manager) bindConstant(name, value string) {
	if name == "" {
		return
	}
	m.constants[name] = value
}

// RegisterDeclarator inspects a `variable_declarator` node and, when its
// initializer recognizably binds a translation function, records scope
// info for every name its LHS pattern introduces. Also records simple
// string-literal constants for identifier-argument resolution. Safe to
// call on any declarator; unrecognized shapes are silently ignored.
func (m *Manager) RegisterDeclarator(declarator *ts.Node, source []byte) {
	if declarator == nil || declarator.Kind() != "variable_declarator" {
		return
	}
	nameNode := declarator.ChildByFieldName("name")
	valueNode := declarator.ChildByFieldName("value")
	if nameNode == nil {
		return
	}
	if valueNode == nil {
		return
	}
	valueNode = astutil.UnwrapAwait(valueNode)

	// Simple string constant: `const x = "literal"`.
	if nameNode.Kind() == "identifier" && valueNode.Kind() == "string" {
		m.bindConstant(nameNode.Utf8Text(source), astutil.StringLiteralValue(valueNode, source))
	}
	if nameNode.Kind() == "identifier" && astutil.IsSimpleTemplateLiteral(valueNode) {
		m.bindConstant(nameNode.Utf8Text(source), astutil.SimpleTemplateLiteralValue(valueNode, source))
	}

	if valueNode.Kind() != "call_expression" {
		return
	}

	info, recognized := m.resolveCallBinding(valueNode, source)
	if !recognized {
		return
	}
	m.bindPattern(nameNode, info, source)
}

// resolveCallBinding classifies a call_expression as one of the three
// recognized translator-binding shapes: a configured hook call
// (useTranslation-like), a direct getFixedT() call, or a call through an
// identifier itself bound by an earlier getFixedT call. It also computes
// the ScopeInfo that should attach to the LHS pattern.
func (m *Manager) resolveCallBinding(call *ts.Node, source []byte) (keys.ScopeInfo, bool) {
	calleeNode := call.ChildByFieldName("function")
	args := callArguments(call)

	calleeName, ok := astutil.CalleeDottedName(calleeNode, source)
	if !ok {
		return keys.ScopeInfo{}, false
	}

	if strings.HasSuffix(calleeName, "getFixedT") {
		return m.resolveGetFixedT(args, source)
	}

	if hook, ok := matchHook(m.hooks, calleeName); ok {
		return m.resolveHookCall(hook, args, source), true
	}

	// `ident = previouslyBoundGetFixedT(lng, ns, keyPrefix)`: the callee
	// identifier was itself bound by an earlier getFixedT call.
	if prevInfo, ok := m.Lookup(calleeName); ok {
		return m.inheritAndOverride(prevInfo, args, source), true
	}

	return keys.ScopeInfo{}, false
}

func matchHook(hooks []HookSpec, name string) (HookSpec, bool) {
	for _, h := range hooks {
		if h.Name == name || lastSegment(name) == h.Name {
			return h, true
		}
	}
	return HookSpec{}, false
}

func lastSegment(dotted string) string {
	idx := strings.LastIndex(dotted, ".")
	if idx < 0 {
		return dotted
	}
	return dotted[idx+1:]
}

// resolveHookCall handles `useTranslation(...)`-shaped calls, including
// the `useTranslation(lng, ns, options)` special case.
func (m *Manager) resolveHookCall(hook HookSpec, args []*ts.Node, source []byte) keys.ScopeInfo {
	nsArg, keyPrefixArg := hook.NSArg, hook.KeyPrefixArg

	if len(args) >= 2 {
		if first := args[0]; first != nil && first.Kind() == "string" {
			if astutil.LooksLikeLanguageTag(astutil.StringLiteralValue(first, source)) {
				// useTranslation(lng, ns, options): shift both indices by one.
				nsArg, keyPrefixArg = 1, 2
			}
		}
	}

	info := keys.ScopeInfo{}
	if ns, ok := m.extractNamespace(argAt(args, nsArg), source); ok {
		info.DefaultNamespace = &ns
	}
	if prefix, ok := m.extractKeyPrefix(argAt(args, keyPrefixArg), source); ok {
		info.KeyPrefix = &prefix
	}
	return info
}

// resolveGetFixedT handles `getFixedT(lng, ns, keyPrefix)`: arg 0 (lng) is
// ignored, ns comes from arg 1, keyPrefix from arg 2.
func (m *Manager) resolveGetFixedT(args []*ts.Node, source []byte) (keys.ScopeInfo, bool) {
	info := keys.ScopeInfo{}
	if ns, ok := m.extractNamespace(argAt(args, 1), source); ok {
		info.DefaultNamespace = &ns
	}
	if prefix, ok := m.extractKeyPrefixArgument(argAt(args, 2), source); ok {
		info.KeyPrefix = &prefix
	}
	return info, true
}

// inheritAndOverride handles `previouslyBoundGetFixedT(lng, ns, keyPrefix)`:
// start from the source binding's scope info and override with whatever
// arguments are present.
func (m *Manager) inheritAndOverride(base keys.ScopeInfo, args []*ts.Node, source []byte) keys.ScopeInfo {
	info := base
	if ns, ok := m.extractNamespace(argAt(args, 1), source); ok {
		info.DefaultNamespace = &ns
	}
	if prefix, ok := m.extractKeyPrefixArgument(argAt(args, 2), source); ok {
		info.KeyPrefix = &prefix
	}
	return info
}

// extractNamespace extracts a namespace from a string-literal argument, or
// an array expression whose first element is a string literal.
func (m *Manager) extractNamespace(arg *ts.Node, source []byte) (string, bool) {
	if arg == nil {
		return "", false
	}
	switch arg.Kind() {
	case "string":
		return astutil.StringLiteralValue(arg, source), true
	case "array":
		if arg.NamedChildCount() == 0 {
			return "", false
		}
		first := arg.NamedChild(0)
		if first != nil && first.Kind() == "string" {
			return astutil.StringLiteralValue(first, source), true
		}
	}
	return "", false
}

// extractKeyPrefix handles the useTranslation-shaped options-object
// argument: reads its `keyPrefix` property. Falls through to the same
// literal/constant handling extractKeyPrefixArgument does, since a caller
// may configure KeyPrefixArg to point at a bare string instead.
func (m *Manager) extractKeyPrefix(arg *ts.Node, source []byte) (string, bool) {
	if arg == nil {
		return "", false
	}
	if arg.Kind() == "object" {
		pv := astutil.PrimitiveValueOf(arg, "keyPrefix", source)
		if pv.Kind == astutil.PrimitiveString {
			return pv.Text, true
		}
		return "", false
	}
	return m.extractKeyPrefixArgument(arg, source)
}

// extractKeyPrefixArgument resolves a bare key-prefix argument: a
// string-literal, a simple template literal, or a known simple-string
// identifier resolved via the constants map.
func (m *Manager) extractKeyPrefixArgument(arg *ts.Node, source []byte) (string, bool) {
	if arg == nil {
		return "", false
	}
	switch arg.Kind() {
	case "string":
		return astutil.StringLiteralValue(arg, source), true
	case "template_string":
		if astutil.IsSimpleTemplateLiteral(arg) {
			return astutil.SimpleTemplateLiteralValue(arg, source), true
		}
	case "identifier":
		return m.LookupConstant(arg.Utf8Text(source))
	}
	return "", false
}

// bindPattern records info for every name a destructuring-capable LHS
// pattern introduces: a plain identifier, an array pattern's first
// element, or an object pattern's properties (including aliases).
func (m *Manager) bindPattern(nameNode *ts.Node, info keys.ScopeInfo, source []byte) {
	switch nameNode.Kind() {
	case "identifier":
		m.bind(nameNode.Utf8Text(source), info)
	case "array_pattern":
		if nameNode.NamedChildCount() == 0 {
			return
		}
		first := nameNode.NamedChild(0)
		if first != nil && first.Kind() == "identifier" {
			m.bind(first.Utf8Text(source), info)
		}
	case "object_pattern":
		for i := uint(0); i < nameNode.NamedChildCount(); i++ {
			prop := nameNode.NamedChild(i)
			if prop == nil {
				continue
			}
			switch prop.Kind() {
			case "shorthand_property_identifier_pattern":
				m.bind(prop.Utf8Text(source), info)
			case "pair_pattern":
				// `{ t: myT }`: bind the alias name, not the source key.
				valueNode := prop.ChildByFieldName("value")
				if valueNode != nil && valueNode.Kind() == "identifier" {
					m.bind(valueNode.Utf8Text(source), info)
				}
			case "object_assignment_pattern":
				// `{ t = defaultT }`: the left side names the bound identifier.
				leftNode := prop.ChildByFieldName("left")
				if leftNode != nil && leftNode.Kind() == "shorthand_property_identifier_pattern" {
					m.bind(leftNode.Utf8Text(source), info)
				}
			}
		}
	}
}

// callArguments returns the positional argument nodes of a call_expression,
// skipping punctuation tokens.
func callArguments(call *ts.Node) []*ts.Node {
	argsNode := call.ChildByFieldName("arguments")
	if argsNode == nil {
		return nil
	}
	out := make([]*ts.Node, 0, argsNode.NamedChildCount())
	for i := uint(0); i < argsNode.NamedChildCount(); i++ {
		out = append(out, argsNode.NamedChild(i))
	}
	return out
}

func argAt(args []*ts.Node, idx int) *ts.Node {
	if idx < 0 || idx >= len(args) {
		return nil
	}
	return args[idx]
}
