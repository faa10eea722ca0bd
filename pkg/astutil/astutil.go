// Package astutil holds small, stateless helpers over a parsed tree-sitter
// syntax tree: object-property lookup by name, simple-template-literal
// detection, and extraction of primitive literal values. None of these
// helpers track scope or mutate anything: they are pure functions of a
// node and the file's source bytes.
package astutil

import (
	"regexp"
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// Position is a 1-based line/column pair, the editor/LSP convention the
// rest of the engine's location reporting uses.
type Position struct {
	Line   uint32
	Column uint32
}

// PositionOf converts a node's 0-based tree-sitter start position to the
// 1-based line/column convention used throughout this engine's location
// reporting.
func PositionOf(node *ts.Node) Position {
	if node == nil {
		return Position{}
	}
	start := node.StartPosition()
	return Position{Line: uint32(start.Row) + 1, Column: uint32(start.Column) + 1}
}

func mustLanguageTagRegexp() *regexp.Regexp {
	return regexp.MustCompile(`(?i)^[a-z]{2,3}([-_][A-Za-z0-9]+)?$`)
}

// PrimitiveKind identifies the shape PrimitiveValueOf found, so callers can
// distinguish "absent" from "present but not a primitive we can reduce".
type PrimitiveKind int

const (
	// PrimitiveAbsent means the property does not exist on the object.
	PrimitiveAbsent PrimitiveKind = iota
	// PrimitiveString/Number/Boolean are scalar literal kinds.
	PrimitiveString
	PrimitiveNumber
	PrimitiveBoolean
	// PrimitiveOther means the property exists but its value is not a
	// scalar or simple template literal (e.g. an identifier, a call, an
	// object). Callers usually treat this as "dynamic, can't resolve".
	PrimitiveOther
)

// PrimitiveValue is the scalar result of PrimitiveValueOf.
type PrimitiveValue struct {
	Kind PrimitiveKind
	Text string // raw scalar text (unquoted for strings); unset for PrimitiveOther/Absent
}

// LookupProperty returns the `object`-typed node's property whose key
// (identifier or string literal) equals name, or nil if no such property
// exists. Works on tree-sitter's `object` node for JS/TS object literals.
func LookupProperty(object *ts.Node, name string, source []byte) *ts.Node {
	if object == nil || object.Kind() != "object" {
		return nil
	}
	for i := uint(0); i < object.NamedChildCount(); i++ {
		prop := object.NamedChild(i)
		if prop == nil {
			continue
		}
		switch prop.Kind() {
		case "pair":
			keyNode := prop.ChildByFieldName("key")
			if keyNode == nil {
				continue
			}
			if propertyKeyText(keyNode, source) == name {
				return prop
			}
		case "shorthand_property_identifier":
			if prop.Utf8Text(source) == name {
				return prop
			}
		case "spread_element":
			// Spread contributes unknown properties; not statically
			// resolvable, so it is simply not a match for `name`.
			continue
		}
	}
	return nil
}

// propertyKeyText extracts the literal text of a property key node,
// stripping string-literal quotes.
func propertyKeyText(keyNode *ts.Node, source []byte) string {
	switch keyNode.Kind() {
	case "property_identifier", "identifier":
		return keyNode.Utf8Text(source)
	case "string":
		return StringLiteralValue(keyNode, source)
	default:
		return keyNode.Utf8Text(source)
	}
}

// PrimitiveValueOf returns the scalar value of a property on object, named
// name. Returns PrimitiveAbsent if no such property exists; PrimitiveOther
// if the property's value is not a string/number/boolean/simple template
// literal.
func PrimitiveValueOf(object *ts.Node, name string, source []byte) PrimitiveValue {
	prop := LookupProperty(object, name, source)
	if prop == nil {
		return PrimitiveValue{Kind: PrimitiveAbsent}
	}

	var valueNode *ts.Node
	switch prop.Kind() {
	case "pair":
		valueNode = prop.ChildByFieldName("value")
	case "shorthand_property_identifier":
		// `{ count }`: the value is the identifier itself; it is not a
		// literal the engine can reduce here (the scope manager's
		// constants map handles identifier resolution separately).
		return PrimitiveValue{Kind: PrimitiveOther}
	}
	return primitiveValueOfNode(valueNode, source)
}

func primitiveValueOfNode(valueNode *ts.Node, source []byte) PrimitiveValue {
	if valueNode == nil {
		return PrimitiveValue{Kind: PrimitiveOther}
	}

	switch valueNode.Kind() {
	case "string":
		return PrimitiveValue{Kind: PrimitiveString, Text: StringLiteralValue(valueNode, source)}
	case "number":
		return PrimitiveValue{Kind: PrimitiveNumber, Text: valueNode.Utf8Text(source)}
	case "true", "false":
		return PrimitiveValue{Kind: PrimitiveBoolean, Text: valueNode.Utf8Text(source)}
	case "template_string":
		if IsSimpleTemplateLiteral(valueNode) {
			return PrimitiveValue{Kind: PrimitiveString, Text: SimpleTemplateLiteralValue(valueNode, source)}
		}
		return PrimitiveValue{Kind: PrimitiveOther}
	default:
		return PrimitiveValue{Kind: PrimitiveOther}
	}
}

// ObjectProperty is one key/value pair read off an `object` node by
// ObjectPropertyPairs.
type ObjectProperty struct {
	Key   string
	Value PrimitiveValue
}

// ObjectPropertyPairs lists every property of an `object` node with its key
// text and primitive value, skipping spreads. Used by callers that need to
// scan for a family of keys sharing a prefix (e.g. `defaultValue_*`) rather
// than looking up one name at a time via LookupProperty.
func ObjectPropertyPairs(object *ts.Node, source []byte) []ObjectProperty {
	if object == nil || object.Kind() != "object" {
		return nil
	}
	var out []ObjectProperty
	for i := uint(0); i < object.NamedChildCount(); i++ {
		prop := object.NamedChild(i)
		if prop == nil {
			continue
		}
		switch prop.Kind() {
		case "pair":
			keyNode := prop.ChildByFieldName("key")
			if keyNode == nil {
				continue
			}
			valueNode := prop.ChildByFieldName("value")
			out = append(out, ObjectProperty{
				Key:   propertyKeyText(keyNode, source),
				Value: primitiveValueOfNode(valueNode, source),
			})
		case "shorthand_property_identifier":
			out = append(out, ObjectProperty{Key: prop.Utf8Text(source), Value: PrimitiveValue{Kind: PrimitiveOther}})
		}
	}
	return out
}

// IsSimpleTemplateLiteral reports whether node is a `template_string` with
// zero substitutions and exactly one cooked quasi (i.e. it is equivalent to
// an ordinary string literal).
func IsSimpleTemplateLiteral(node *ts.Node) bool {
	if node == nil || node.Kind() != "template_string" {
		return false
	}
	quasis := 0
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "template_substitution":
			return false
		case "string_fragment":
			quasis++
		}
	}
	return quasis <= 1
}

// SimpleTemplateLiteralValue returns the cooked text of a simple template
// literal (see IsSimpleTemplateLiteral). Returns "" for an empty template.
func SimpleTemplateLiteralValue(node *ts.Node, source []byte) string {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() == "string_fragment" {
			return child.Utf8Text(source)
		}
	}
	return ""
}

// StringLiteralValue returns the unquoted, unescaped text of a `string`
// node. Tree-sitter represents the quotes as separate anonymous children
// around a `string_fragment` (or `escape_sequence` segments); this walks
// those children and concatenates the fragments, applying the common JS
// escape sequences.
func StringLiteralValue(node *ts.Node, source []byte) string {
	if node == nil {
		return ""
	}
	if node.Kind() != "string" {
		return node.Utf8Text(source)
	}

	var b strings.Builder
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "string_fragment":
			b.WriteString(child.Utf8Text(source))
		case "escape_sequence":
			b.WriteString(unescapeSequence(child.Utf8Text(source)))
		}
	}
	return b.String()
}

func unescapeSequence(raw string) string {
	switch raw {
	case `\n`:
		return "\n"
	case `\t`:
		return "\t"
	case `\r`:
		return "\r"
	case `\\`:
		return `\`
	case `\'`:
		return "'"
	case `\"`:
		return `"`
	case "\\`":
		return "`"
	default:
		return raw
	}
}

// NumberLiteralText normalizes a `number` node's text to Go's canonical
// decimal form where possible (so "1.50" and "1.5" compare equal as
// strings); falls back to the raw text if it can't be parsed as a float.
func NumberLiteralText(raw string) string {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return raw
}

// CalleeDottedName serializes a callee expression to a dotted name
// ("ident", "obj.prop", "this.obj.prop"). Reports ok=false for a computed
// member access (`obj[expr]`) or any other shape that isn't a chain of
// plain property accesses over an identifier or `this`.
func CalleeDottedName(node *ts.Node, source []byte) (name string, ok bool) {
	if node == nil {
		return "", false
	}
	switch node.Kind() {
	case "identifier":
		return node.Utf8Text(source), true
	case "this":
		return "this", true
	case "member_expression":
		objectNode := node.ChildByFieldName("object")
		propertyNode := node.ChildByFieldName("property")
		if objectNode == nil || propertyNode == nil {
			return "", false
		}
		if propertyNode.Kind() != "property_identifier" {
			return "", false
		}
		base, baseOK := CalleeDottedName(objectNode, source)
		if !baseOK {
			return "", false
		}
		return base + "." + propertyNode.Utf8Text(source), true
	default:
		return "", false
	}
}

// UnwrapAwait returns the operand of an `await_expression`, or node itself
// if it isn't one. Scope registration and call-site resolution both treat
// `await hook(...)` the same as `hook(...)`.
func UnwrapAwait(node *ts.Node) *ts.Node {
	if node != nil && node.Kind() == "await_expression" {
		if operand := node.NamedChild(0); operand != nil {
			return operand
		}
	}
	return node
}

// languageTagPattern matches a bare BCP-47-ish language tag
// (`en`, `en-US`, `en_US`) used to detect the
// `useTranslation(lng, ns, options)` call shape.
var languageTagPattern = mustLanguageTagRegexp()

// LooksLikeLanguageTag reports whether text resembles a language tag
// rather than a namespace name.
func LooksLikeLanguageTag(text string) bool {
	return languageTagPattern.MatchString(text)
}

// RebaseSpans returns a function that rebases one (startByte, endByte)
// span by subtracting firstTokenByte, compensating for parsers that
// accumulate byte offsets across invocations (a known pitfall for some
// native AST libraries). A span that starts or ends before firstTokenByte
// is returned unchanged. go-tree-sitter does not exhibit this behavior:
// Parse always returns file-relative offsets, so pkg/engine hands the tree
// to the walker without calling this; it is kept so a parser swap in
// pkg/parser has the rebasing step at hand.
func RebaseSpans(firstTokenByte uint32) func(startByte, endByte uint32) (uint32, uint32) {
	return func(startByte, endByte uint32) (uint32, uint32) {
		if startByte < firstTokenByte || endByte < firstTokenByte {
			return startByte, endByte
		}
		return startByte - firstTokenByte, endByte - firstTokenByte
	}
}
