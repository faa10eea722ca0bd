// Package jsxserialize converts the children of a translation JSX element
// (a Trans component) into the canonical placeholder string the i18n
// runtime produces when stringifying those children at render time. It
// walks the full JSX node-kind vocabulary (jsx_element,
// jsx_self_closing_element, jsx_fragment, jsx_text, jsx_expression) to
// build a default-value string.
package jsxserialize

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/arjunv/i18nscan/pkg/astutil"
)

// Options configures serialization.
type Options struct {
	// PreservedTags serialize as `<tag>...</tag>` and do not consume a
	// placeholder slot; their children are serialized recursively.
	// Default: br, strong, i, p.
	PreservedTags map[string]bool
}

// DefaultOptions returns the default preserved-tag set.
func DefaultOptions() Options {
	return Options{PreservedTags: map[string]bool{
		"br": true, "strong": true, "i": true, "p": true,
	}}
}

// node is the serializer's internal representation of one JSX child,
// built in a first pass so slot indices can be computed before any text
// is merged for display.
type node struct {
	kind      nodeKind
	text      string // for kindText / kindExprText
	tag       string // for kindElement
	preserved bool
	hasSlot   bool
	slotIndex int
	children  []*node
}

type nodeKind int

const (
	kindText nodeKind = iota
	kindElement
	kindExprText // an expression container rendered as text (no slot)
)

// Serialize renders children (the named children of a JSX element or
// fragment) into the canonical default-value string.
func Serialize(children []*ts.Node, source []byte, opts Options) string {
	nodes := buildNodes(children, source, opts)
	nodes = trimBoundaryWhitespace(nodes)

	counter := 0
	assignSlots(nodes, &counter)

	nodes = mergeInteriorWhitespace(nodes)

	var b strings.Builder
	renderSiblings(&b, nodes)
	return collapseWhitespace(b.String())
}

func buildNodes(children []*ts.Node, source []byte, opts Options) []*node {
	out := make([]*node, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		if n := buildNode(c, source, opts); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func buildNode(n *ts.Node, source []byte, opts Options) *node {
	switch n.Kind() {
	case "jsx_text":
		return &node{kind: kindText, text: n.Utf8Text(source)}

	case "jsx_expression":
		return buildExpressionContainer(n, source, opts)

	case "jsx_element":
		opening := n.ChildByFieldName("open_tag")
		tag := elementTagName(opening, source)
		preserved := opts.PreservedTags[tag]
		kids := namedJSXChildren(n)
		return &node{
			kind:      kindElement,
			tag:       tag,
			preserved: preserved,
			children:  buildNodes(kids, source, opts),
		}

	case "jsx_self_closing_element":
		tag := elementTagName(n, source)
		preserved := opts.PreservedTags[tag]
		return &node{kind: kindElement, tag: tag, preserved: preserved}

	case "jsx_fragment":
		// A fragment nested in children serializes its own children inline,
		// as if unwrapped, and never consumes a slot itself.
		kids := namedJSXChildren(n)
		merged := buildNodes(kids, source, opts)
		return &node{kind: kindElement, tag: "", preserved: true, children: merged}

	default:
		return nil
	}
}

// buildExpressionContainer handles `{...}` children.
func buildExpressionContainer(exprContainer *ts.Node, source []byte, opts Options) *node {
	inner := firstNamedChild(exprContainer)
	if inner == nil {
		// Explicit `{" "}`-shaped separator with nothing meaningful inside.
		return &node{kind: kindExprText, text: ""}
	}

	switch inner.Kind() {
	case "string":
		return &node{kind: kindExprText, text: astutil.StringLiteralValue(inner, source)}
	case "identifier":
		return &node{kind: kindExprText, text: "{{" + inner.Utf8Text(source) + "}}"}
	case "object":
		if name, ok := singleIdentifierProperty(inner, source); ok {
			return &node{kind: kindExprText, text: "{{" + name + "}}"}
		}
		return &node{kind: kindExprText, text: "{{value}}"}
	case "member_expression":
		if prop := inner.ChildByFieldName("property"); prop != nil && prop.Kind() == "property_identifier" {
			return &node{kind: kindExprText, text: "{{" + prop.Utf8Text(source) + "}}"}
		}
		return &node{kind: kindExprText, text: "{{value}}"}
	case "call_expression":
		if callee := inner.ChildByFieldName("function"); callee != nil && callee.Kind() == "identifier" {
			return &node{kind: kindExprText, text: "{{" + callee.Utf8Text(source) + "}}"}
		}
		return &node{kind: kindExprText, text: "{{value}}"}
	default:
		return &node{kind: kindExprText, text: "{{value}}"}
	}
}

// singleIdentifierProperty reports whether obj has exactly one property
// whose key is an identifier, returning that key.
func singleIdentifierProperty(obj *ts.Node, source []byte) (string, bool) {
	if obj.Kind() != "object" {
		return "", false
	}
	if obj.NamedChildCount() != 1 {
		return "", false
	}
	prop := obj.NamedChild(0)
	if prop == nil {
		return "", false
	}
	switch prop.Kind() {
	case "pair":
		key := prop.ChildByFieldName("key")
		if key != nil && (key.Kind() == "property_identifier" || key.Kind() == "identifier") {
			return key.Utf8Text(source), true
		}
	case "shorthand_property_identifier":
		return prop.Utf8Text(source), true
	}
	return "", false
}

func firstNamedChild(n *ts.Node) *ts.Node {
	if n == nil || n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}

func elementTagName(openingOrSelfClosing *ts.Node, source []byte) string {
	if openingOrSelfClosing == nil {
		return ""
	}
	nameNode := openingOrSelfClosing.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	return nameNode.Utf8Text(source)
}

func namedJSXChildren(n *ts.Node) []*ts.Node {
	out := make([]*ts.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "jsx_opening_element", "jsx_closing_element":
			continue
		}
		out = append(out, child)
	}
	return out
}

func isWhitespaceOnly(text string) bool {
	return strings.TrimSpace(text) == ""
}

func containsNewline(text string) bool {
	return strings.Contains(text, "\n")
}

// trimBoundaryWhitespace drops a pure-whitespace text node containing a
// newline when it sits at the leading or trailing edge of siblings: JSX's
// own automatic trimming of indentation/line-break artifacts, applied
// before slot indices are computed so dropped formatting never perturbs
// numbering. Does not recurse: each element's own children are trimmed
// only if/when they participate in slot counting (see assignSlots).
func trimBoundaryWhitespace(siblings []*node) []*node {
	start, end := 0, len(siblings)
	for start < end && siblings[start].kind == kindText &&
		isWhitespaceOnly(siblings[start].text) && containsNewline(siblings[start].text) {
		start++
	}
	for end > start && siblings[end-1].kind == kindText &&
		isWhitespaceOnly(siblings[end-1].text) && containsNewline(siblings[end-1].text) {
		end--
	}
	return siblings[start:end]
}

// hasElementChild reports whether any of children is itself a JSX element
// (as opposed to plain text or an expression container).
func hasElementChild(children []*node) bool {
	for _, c := range children {
		if c.kind == kindElement {
			return true
		}
	}
	return false
}

// assignSlots numbers siblings in pre-order: every sibling at this level
// consumes one counter tick, regardless of kind, matching the position
// each occupies in the author-written children list. A non-preserved
// element that itself wraps further nested elements continues the same
// shared counter into its own children (so a doubly-nested interactive
// element still gets "its parent's position, then the next one"); a
// non-preserved element whose children are plain content (text/expression
// only) is treated as one opaque indexable unit and its content is never
// itself numbered. A preserved element's children are never numbered,
// whatever they contain: they "inherit no slot".
func assignSlots(siblings []*node, counter *int) {
	for _, n := range siblings {
		n.hasSlot = true
		n.slotIndex = *counter
		*counter++

		if n.kind != kindElement || n.preserved {
			continue
		}
		if hasElementChild(n.children) {
			trimmed := trimBoundaryWhitespace(n.children)
			n.children = trimmed
			assignSlots(trimmed, counter)
		}
	}
}

// mergeInteriorWhitespace recurses over the tree collapsing interior
// whitespace for display purposes only: it never changes which node has
// which slotIndex, only how adjacent text/expr nodes collapse together
// before rendering.
func mergeInteriorWhitespace(siblings []*node) []*node {
	for _, n := range siblings {
		if n.kind == kindElement {
			n.children = mergeInteriorWhitespace(n.children)
		}
	}

	kept := make([]*node, 0, len(siblings))
	for i, n := range siblings {
		isBoundary := i == 0 || i == len(siblings)-1

		if n.kind == kindText && isWhitespaceOnly(n.text) {
			if len(kept) > 0 {
				prev := kept[len(kept)-1]
				if prev.kind == kindExprText {
					continue // interior whitespace following an expression container: dropped
				}
				if prev.kind == kindText {
					prev.text += n.text // interior whitespace following text: merged
					continue
				}
			}
			kept = append(kept, n) // following an element, or standalone: preserved as a literal separator
			continue
		}

		if n.kind == kindExprText && (n.text == "" || n.text == " ") {
			var nextIsNewlineText bool
			if i+1 < len(siblings) {
				next := siblings[i+1]
				nextIsNewlineText = next.kind == kindText && isWhitespaceOnly(next.text) && containsNewline(next.text)
			}
			if isBoundary || nextIsNewlineText {
				continue
			}
			if len(kept) > 0 && kept[len(kept)-1].kind == kindText {
				kept[len(kept)-1].text += " "
				continue
			}
			kept = append(kept, &node{kind: kindExprText, text: " "})
			continue
		}

		kept = append(kept, n)
	}
	return kept
}

func renderSiblings(b *strings.Builder, siblings []*node) {
	for _, n := range siblings {
		renderNode(b, n)
	}
}

func renderNode(b *strings.Builder, n *node) {
	switch n.kind {
	case kindText:
		b.WriteString(n.text)
	case kindExprText:
		b.WriteString(n.text)
	case kindElement:
		if n.tag == "" {
			// Unwrapped fragment: no tag, no slot, children inline.
			renderSiblings(b, n.children)
			return
		}
		if n.preserved {
			b.WriteString("<")
			b.WriteString(n.tag)
			b.WriteString(">")
			renderSiblings(b, n.children)
			b.WriteString("</")
			b.WriteString(n.tag)
			b.WriteString(">")
			return
		}
		open := itoa(n.slotIndex)
		b.WriteString("<")
		b.WriteString(open)
		b.WriteString(">")
		renderSiblings(b, n.children)
		b.WriteString("</")
		b.WriteString(open)
		b.WriteString(">")
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

// collapseWhitespace collapses all whitespace runs to a single space and
// trims the result.
func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
