// Package resolve computes, for a given JS/TS expression node, the
// (possibly empty) set of string values it could statically take: the
// Expression Resolver. It never executes source; every result is derived
// purely from the AST shape, in a small reusable resolver two call sites
// (key resolution and context-argument resolution) share.
package resolve

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/arjunv/i18nscan/pkg/astutil"
)

// Purpose distinguishes the resolver's two named entry points so a hook
// can contribute purpose-specific candidates for the selector/context
// split.
type Purpose int

const (
	// PurposeKey resolves the first argument of a call, or a JSX
	// component's i18nKey attribute: identifiers used as translation keys.
	PurposeKey Purpose = iota
	// PurposeContext resolves a context option/attribute's value.
	PurposeContext
)

// Hook lets a caller contribute extra candidate strings for an expression
// the built-in rules can't reduce, without the resolver needing to know
// about any particular plugin's AST shapes.
type Hook interface {
	Resolve(node *ts.Node, source []byte, purpose Purpose) []string
}

// Resolver resolves expressions to string sets. The zero value is usable;
// Hooks is optional.
type Resolver struct {
	Hooks []Hook

	// LookupConstant resolves a plain identifier to a known simple string
	// constant (the Scope Manager's constants map). Optional; nil means
	// identifiers never resolve except the literal `undefined`.
	LookupConstant func(name string) (string, bool)
}

// Resolve returns the set of statically possible string values of node,
// for the given purpose. An empty string literal is dropped from the
// result only for PurposeContext with includeEmpty false (an empty context
// is meaningless) and kept otherwise: callers resolving a key's candidate
// set pass includeEmpty=true so template-literal holes can still be
// represented.
func (r *Resolver) Resolve(node *ts.Node, source []byte, purpose Purpose, includeEmpty bool) []string {
	if node == nil {
		return nil
	}

	switch node.Kind() {
	case "string":
		text := astutil.StringLiteralValue(node, source)
		if text == "" && purpose == PurposeContext && !includeEmpty {
			return nil
		}
		return []string{text}

	case "number":
		return []string{astutil.NumberLiteralText(node.Utf8Text(source))}

	case "true", "false":
		return []string{node.Utf8Text(source)}

	case "identifier":
		text := node.Utf8Text(source)
		if text == "undefined" {
			return nil
		}
		if r.LookupConstant != nil {
			if v, ok := r.LookupConstant(text); ok {
				return []string{v}
			}
		}
		return r.hookCandidates(node, source, purpose)

	case "ternary_expression":
		consequence := node.ChildByFieldName("consequence")
		alternative := node.ChildByFieldName("alternative")
		var out []string
		out = append(out, r.Resolve(consequence, source, purpose, includeEmpty)...)
		out = append(out, r.Resolve(alternative, source, purpose, includeEmpty)...)
		return out

	case "parenthesized_expression":
		return r.Resolve(firstNamedChild(node), source, purpose, includeEmpty)

	case "template_string":
		if astutil.IsSimpleTemplateLiteral(node) {
			return []string{astutil.SimpleTemplateLiteralValue(node, source)}
		}
		return r.resolveTemplateLiteral(node, source, purpose, includeEmpty)

	case "as_expression", "satisfies_expression":
		exprNode, typeNode := castOperands(node)
		if values, ok := resolveFromTypeNode(typeNode, source); ok {
			return values
		}
		return r.Resolve(exprNode, source, purpose, includeEmpty)

	default:
		return r.hookCandidates(node, source, purpose)
	}
}

func (r *Resolver) hookCandidates(node *ts.Node, source []byte, purpose Purpose) []string {
	var out []string
	for _, h := range r.Hooks {
		out = append(out, h.Resolve(node, source, purpose)...)
	}
	return out
}

func firstNamedChild(n *ts.Node) *ts.Node {
	if n == nil || n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}

// resolveTemplateLiteral computes the Cartesian product of a template
// literal's quasi text and each substitution's resolved string set. A
// substitution that resolves to nothing collapses the whole product for
// that position unless includeEmpty asks for an empty placeholder instead
// (so a key-context caller can still see the literal surrounding text).
func (r *Resolver) resolveTemplateLiteral(node *ts.Node, source []byte, purpose Purpose, includeEmpty bool) []string {
	parts := []string{""}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "string_fragment":
			parts = appendQuasi(parts, child.Utf8Text(source))
		case "template_substitution":
			expr := firstNamedChild(child)
			values := r.Resolve(expr, source, purpose, includeEmpty)
			if len(values) == 0 {
				if includeEmpty {
					values = []string{""}
				} else {
					return nil
				}
			}
			parts = cartesianAppend(parts, values)
		}
	}
	return parts
}

func appendQuasi(parts []string, quasi string) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p + quasi
	}
	return out
}

func cartesianAppend(parts []string, values []string) []string {
	out := make([]string, 0, len(parts)*len(values))
	for _, p := range parts {
		for _, v := range values {
			out = append(out, p+v)
		}
	}
	return out
}

// castOperands extracts the expression and type operands of an
// `as_expression`/`satisfies_expression` node. Falls back to positional
// children (0: expression, 1: type) when the grammar doesn't expose named
// fields for this node.
func castOperands(node *ts.Node) (expr, typ *ts.Node) {
	expr = node.ChildByFieldName("expression")
	typ = node.ChildByFieldName("type")
	if expr != nil && typ != nil {
		return expr, typ
	}
	if node.NamedChildCount() >= 2 {
		return node.NamedChild(0), node.NamedChild(1)
	}
	return expr, typ
}

// resolveFromTypeNode handles `expr as "literal"` / `expr satisfies
// "literal" | "other"` by resolving against the annotated TypeScript type
// instead of the expression itself.
func resolveFromTypeNode(typeNode *ts.Node, source []byte) ([]string, bool) {
	if typeNode == nil {
		return nil, false
	}
	values := resolveLiteralType(typeNode, source)
	if values == nil {
		return nil, false
	}
	return values, true
}

// resolveLiteralType resolves a TypeScript type annotation to its set of
// literal string values: a literal type, a union of literal types, or a
// template-literal type (recursing the same way a template_string would).
func resolveLiteralType(typeNode *ts.Node, source []byte) []string {
	if typeNode == nil {
		return nil
	}
	switch typeNode.Kind() {
	case "literal_type":
		inner := firstNamedChild(typeNode)
		if inner == nil {
			return nil
		}
		switch inner.Kind() {
		case "string":
			return []string{astutil.StringLiteralValue(inner, source)}
		case "number":
			return []string{astutil.NumberLiteralText(inner.Utf8Text(source))}
		case "true", "false":
			return []string{inner.Utf8Text(source)}
		}
		return nil

	case "union_type":
		var out []string
		for i := uint(0); i < typeNode.NamedChildCount(); i++ {
			member := typeNode.NamedChild(i)
			out = append(out, resolveLiteralType(member, source)...)
		}
		return out

	case "parenthesized_type":
		return resolveLiteralType(firstNamedChild(typeNode), source)

	case "template_literal_type":
		return resolveTemplateLiteralType(typeNode, source)

	default:
		return nil
	}
}

// resolveTemplateLiteralType mirrors resolveTemplateLiteral for the
// TypeScript `` `prefix-${Union}-suffix` `` type-level template syntax.
func resolveTemplateLiteralType(node *ts.Node, source []byte) []string {
	parts := []string{""}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "string_fragment":
			parts = appendQuasi(parts, child.Utf8Text(source))
		default:
			// Any other named child inside a template-literal type is a
			// substitution's type (e.g. a type_identifier or union_type).
			values := resolveLiteralType(child, source)
			if len(values) == 0 {
				return nil
			}
			parts = cartesianAppend(parts, values)
		}
	}
	if len(parts) == 1 && parts[0] == "" {
		return nil
	}
	return parts
}

// AsBool checks a resolved value set for a recognizable boolean literal,
// used by call-site option reading where `true`/`false` text needs to
// become an actual bool.
func AsBool(values []string) (bool, bool) {
	if len(values) != 1 {
		return false, false
	}
	switch values[0] {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// JoinUnique deduplicates values while preserving first-seen order: used
// when multiple resolution paths (e.g. ternary branches) may overlap.
func JoinUnique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// HasPrefix is a small helper context-argument hooks commonly need to
// test a resolved candidate before accepting it.
func HasPrefix(values []string, prefix string) bool {
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			return true
		}
	}
	return false
}
