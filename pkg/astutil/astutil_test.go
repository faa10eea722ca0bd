package astutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ts "github.com/tree-sitter/go-tree-sitter"
	tsjs "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

func parseJS(t *testing.T, src string) (*ts.Node, []byte) {
	t.Helper()
	lang := ts.NewLanguage(tsjs.Language())
	parser := ts.NewParser()
	defer parser.Close()
	require.NoError(t, parser.SetLanguage(lang))
	source := []byte(src)
	tree := parser.Parse(source, nil)
	require.NotNil(t, tree)
	t.Cleanup(tree.Close)
	return tree.RootNode(), source
}

// findFirst returns the first descendant of root (including root) whose
// Kind matches kind, in pre-order.
func findFirst(root *ts.Node, kind string) *ts.Node {
	if root == nil {
		return nil
	}
	if root.Kind() == kind {
		return root
	}
	for i := uint(0); i < root.ChildCount(); i++ {
		if found := findFirst(root.Child(i), kind); found != nil {
			return found
		}
	}
	return nil
}

func TestLookupProperty_FindsPairByIdentifierKey(t *testing.T) {
	root, source := parseJS(t, `const o = { count: 5, name: "a" };`)
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	prop := LookupProperty(obj, "count", source)
	require.NotNil(t, prop)
	assert.Equal(t, "pair", prop.Kind())
}

func TestLookupProperty_FindsPairByStringKey(t *testing.T) {
	root, source := parseJS(t, `const o = { "ns": "common" };`)
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	prop := LookupProperty(obj, "ns", source)
	require.NotNil(t, prop)
}

func TestLookupProperty_FindsShorthand(t *testing.T) {
	root, source := parseJS(t, `const o = { count };`)
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	prop := LookupProperty(obj, "count", source)
	require.NotNil(t, prop)
	assert.Equal(t, "shorthand_property_identifier", prop.Kind())
}

func TestLookupProperty_MissingReturnsNil(t *testing.T) {
	root, source := parseJS(t, `const o = { count: 5 };`)
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	assert.Nil(t, LookupProperty(obj, "missing", source))
}

func TestPrimitiveValueOf_String(t *testing.T) {
	root, source := parseJS(t, `const o = { ns: "common" };`)
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	pv := PrimitiveValueOf(obj, "ns", source)
	require.Equal(t, PrimitiveString, pv.Kind)
	assert.Equal(t, "common", pv.Text)
}

func TestPrimitiveValueOf_Number(t *testing.T) {
	root, source := parseJS(t, `const o = { count: 5 };`)
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	pv := PrimitiveValueOf(obj, "count", source)
	require.Equal(t, PrimitiveNumber, pv.Kind)
	assert.Equal(t, "5", pv.Text)
}

func TestPrimitiveValueOf_Boolean(t *testing.T) {
	root, source := parseJS(t, `const o = { returnObjects: true };`)
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	pv := PrimitiveValueOf(obj, "returnObjects", source)
	require.Equal(t, PrimitiveBoolean, pv.Kind)
	assert.Equal(t, "true", pv.Text)
}

func TestPrimitiveValueOf_AbsentProperty(t *testing.T) {
	root, source := parseJS(t, `const o = { count: 5 };`)
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	pv := PrimitiveValueOf(obj, "missing", source)
	assert.Equal(t, PrimitiveAbsent, pv.Kind)
}

func TestPrimitiveValueOf_DynamicValueIsOther(t *testing.T) {
	root, source := parseJS(t, `const o = { ns: getNamespace() };`)
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	pv := PrimitiveValueOf(obj, "ns", source)
	assert.Equal(t, PrimitiveOther, pv.Kind)
}

func TestPrimitiveValueOf_ShorthandIsOther(t *testing.T) {
	root, source := parseJS(t, `const o = { count };`)
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	pv := PrimitiveValueOf(obj, "count", source)
	assert.Equal(t, PrimitiveOther, pv.Kind)
}

func TestPrimitiveValueOf_SimpleTemplateLiteral(t *testing.T) {
	root, source := parseJS(t, "const o = { ns: `common` };")
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	pv := PrimitiveValueOf(obj, "ns", source)
	require.Equal(t, PrimitiveString, pv.Kind)
	assert.Equal(t, "common", pv.Text)
}

func TestPrimitiveValueOf_InterpolatedTemplateLiteralIsOther(t *testing.T) {
	root, source := parseJS(t, "const o = { ns: `common-${x}` };")
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	pv := PrimitiveValueOf(obj, "ns", source)
	assert.Equal(t, PrimitiveOther, pv.Kind)
}

func TestIsSimpleTemplateLiteral(t *testing.T) {
	root, source := parseJS(t, "const a = `hello`; const b = `hi ${name}`; const c = ``;")
	_ = source
	var templates []*ts.Node
	var collect func(*ts.Node)
	collect = func(n *ts.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "template_string" {
			templates = append(templates, n)
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			collect(n.Child(i))
		}
	}
	collect(root)
	require.Len(t, templates, 3)
	assert.True(t, IsSimpleTemplateLiteral(templates[0]))
	assert.False(t, IsSimpleTemplateLiteral(templates[1]))
	assert.True(t, IsSimpleTemplateLiteral(templates[2]))
}

func TestStringLiteralValue_HandlesEscapes(t *testing.T) {
	root, source := parseJS(t, `const a = "line\nbreak";`)
	str := findFirst(root, "string")
	require.NotNil(t, str)
	assert.Equal(t, "line\nbreak", StringLiteralValue(str, source))
}

func TestNumberLiteralText_NormalizesTrailingZeros(t *testing.T) {
	assert.Equal(t, "1.5", NumberLiteralText("1.50"))
	assert.Equal(t, "not-a-number", NumberLiteralText("not-a-number"))
}

func TestRebaseSpans_SubtractsOffsetWhenAhead(t *testing.T) {
	rebase := RebaseSpans(100)
	start, end := rebase(150, 160)
	assert.Equal(t, uint32(50), start)
	assert.Equal(t, uint32(60), end)
}

func TestRebaseSpans_LeavesUnaffectedSpansAlone(t *testing.T) {
	rebase := RebaseSpans(0)
	start, end := rebase(10, 20)
	assert.Equal(t, uint32(10), start)
	assert.Equal(t, uint32(20), end)
}

func TestCalleeDottedName_Identifier(t *testing.T) {
	root, source := parseJS(t, `t("key");`)
	call := findFirst(root, "call_expression")
	require.NotNil(t, call)
	callee := call.ChildByFieldName("function")
	name, ok := CalleeDottedName(callee, source)
	require.True(t, ok)
	assert.Equal(t, "t", name)
}

func TestCalleeDottedName_MemberChain(t *testing.T) {
	root, source := parseJS(t, `this.props.t("key");`)
	call := findFirst(root, "call_expression")
	require.NotNil(t, call)
	callee := call.ChildByFieldName("function")
	name, ok := CalleeDottedName(callee, source)
	require.True(t, ok)
	assert.Equal(t, "this.props.t", name)
}

func TestCalleeDottedName_ComputedAccessRejected(t *testing.T) {
	root, source := parseJS(t, `obj[expr]("key");`)
	call := findFirst(root, "call_expression")
	require.NotNil(t, call)
	callee := call.ChildByFieldName("function")
	_, ok := CalleeDottedName(callee, source)
	assert.False(t, ok)
}

func TestUnwrapAwait(t *testing.T) {
	root, source := parseJS(t, `const x = await hook();`)
	_ = source
	declarator := findFirst(root, "variable_declarator")
	require.NotNil(t, declarator)
	value := declarator.ChildByFieldName("value")
	require.Equal(t, "await_expression", value.Kind())
	unwrapped := UnwrapAwait(value)
	assert.Equal(t, "call_expression", unwrapped.Kind())
}

func TestObjectPropertyPairs_ListsKeysAndValues(t *testing.T) {
	root, source := parseJS(t, `const o = { defaultValue_one: "a", defaultValue_other: "b", count: 5, ns };`)
	obj := findFirst(root, "object")
	require.NotNil(t, obj)

	pairs := ObjectPropertyPairs(obj, source)
	require.Len(t, pairs, 4)
	assert.Equal(t, "defaultValue_one", pairs[0].Key)
	assert.Equal(t, "a", pairs[0].Value.Text)
	assert.Equal(t, "defaultValue_other", pairs[1].Key)
	assert.Equal(t, "b", pairs[1].Value.Text)
	assert.Equal(t, "count", pairs[2].Key)
	assert.Equal(t, PrimitiveNumber, pairs[2].Value.Kind)
	assert.Equal(t, "ns", pairs[3].Key)
	assert.Equal(t, PrimitiveOther, pairs[3].Value.Kind)
}

func TestPositionOf(t *testing.T) {
	root, source := parseJS(t, "\n\nt(\"key\");")
	call := findFirst(root, "call_expression")
	require.NotNil(t, call)
	pos := PositionOf(call)
	assert.Equal(t, uint32(3), pos.Line)
	assert.Equal(t, uint32(1), pos.Column)
}

func TestLooksLikeLanguageTag(t *testing.T) {
	assert.True(t, LooksLikeLanguageTag("en"))
	assert.True(t, LooksLikeLanguageTag("en-US"))
	assert.True(t, LooksLikeLanguageTag("fr_FR"))
	assert.False(t, LooksLikeLanguageTag("common"))
	assert.False(t, LooksLikeLanguageTag("translation"))
}
