package jsxserialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ts "github.com/tree-sitter/go-tree-sitter"
	tsjs "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// parseTransChildren parses src (expected to contain exactly one JSX
// element whose children are the ones under test) and returns its named
// children plus the source bytes.
func parseTransChildren(t *testing.T, src string) ([]*ts.Node, []byte) {
	t.Helper()
	lang := ts.NewLanguage(tsjs.Language())
	parser := ts.NewParser()
	defer parser.Close()
	require.NoError(t, parser.SetLanguage(lang))
	source := []byte(src)
	tree := parser.Parse(source, nil)
	require.NotNil(t, tree)
	t.Cleanup(tree.Close)

	var outer *ts.Node
	var find func(*ts.Node)
	find = func(n *ts.Node) {
		if n == nil || outer != nil {
			return
		}
		if n.Kind() == "jsx_element" {
			outer = n
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			find(n.Child(i))
		}
	}
	find(tree.RootNode())
	require.NotNil(t, outer, "expected a jsx_element in source")

	children := make([]*ts.Node, 0, outer.NamedChildCount())
	for i := uint(0); i < outer.NamedChildCount(); i++ {
		c := outer.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "jsx_opening_element", "jsx_closing_element":
			continue
		}
		children = append(children, c)
	}
	return children, source
}

func TestSerialize_ScenarioF_PreservedNestedElement(t *testing.T) {
	children, source := parseTransChildren(t, `const x = <Trans>Hello <strong>name</strong>!</Trans>;`)
	got := Serialize(children, source, DefaultOptions())
	assert.Equal(t, "Hello <strong>name</strong>!", got)
}

func TestSerialize_ScenarioG_NonPreservedElementsWithObjectExpressions(t *testing.T) {
	// Each literal space is its own `{" "}` expression container, the same
	// shape JSX auto-formatters produce around adjacent elements/text:
	// this keeps the surrounding words as distinct children so the
	// placeholder index for the second <span> lands on its true position
	// (4) in the children list, not on a tree-sitter-merged text run.
	src := `const x = <Trans>
  <span>{{username}}</span>{" "}got{" "}<span>{{count}}</span>{" "}ticket
</Trans>;`
	children, source := parseTransChildren(t, src)
	got := Serialize(children, source, DefaultOptions())
	assert.Equal(t, "<0>{{username}}</0> got <4>{{count}}</4> ticket", got)
}

func TestSerialize_PlainStringOnly(t *testing.T) {
	children, source := parseTransChildren(t, `const x = <Trans>Just text</Trans>;`)
	got := Serialize(children, source, DefaultOptions())
	assert.Equal(t, "Just text", got)
}

func TestSerialize_IdentifierExpression(t *testing.T) {
	children, source := parseTransChildren(t, `const x = <Trans>Hi {name}!</Trans>;`)
	got := Serialize(children, source, DefaultOptions())
	assert.Equal(t, "Hi {{name}}!", got)
}

func TestSerialize_MemberExpression(t *testing.T) {
	children, source := parseTransChildren(t, `const x = <Trans>Hi {user.name}!</Trans>;`)
	got := Serialize(children, source, DefaultOptions())
	assert.Equal(t, "Hi {{name}}!", got)
}

func TestSerialize_CallExpressionFallsBackToCalleeName(t *testing.T) {
	children, source := parseTransChildren(t, `const x = <Trans>Hi {getName()}!</Trans>;`)
	got := Serialize(children, source, DefaultOptions())
	assert.Equal(t, "Hi {{getName}}!", got)
}

func TestSerialize_OtherExpressionFallsBackToValue(t *testing.T) {
	children, source := parseTransChildren(t, `const x = <Trans>Hi {1 + 1}!</Trans>;`)
	got := Serialize(children, source, DefaultOptions())
	assert.Equal(t, "Hi {{value}}!", got)
}

func TestSerialize_NonPreservedElementSlotCountsLeadingText(t *testing.T) {
	children, source := parseTransChildren(t, `const x = <Trans>See <Link>here</Link></Trans>;`)
	got := Serialize(children, source, DefaultOptions())
	assert.Equal(t, "See <1>here</1>", got)
}

func TestSerialize_CustomPreservedTags(t *testing.T) {
	children, source := parseTransChildren(t, `const x = <Trans>a <em>b</em> c</Trans>;`)
	got := Serialize(children, source, Options{PreservedTags: map[string]bool{"em": true}})
	assert.Equal(t, "a <em>b</em> c", got)
}
