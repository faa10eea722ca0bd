package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ts "github.com/tree-sitter/go-tree-sitter"
	tstsx "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

func parseTSX(t *testing.T, src string) (*ts.Node, []byte) {
	t.Helper()
	lang := ts.NewLanguage(tstsx.LanguageTSX())
	parser := ts.NewParser()
	defer parser.Close()
	require.NoError(t, parser.SetLanguage(lang))
	source := []byte(src)
	tree := parser.Parse(source, nil)
	require.NotNil(t, tree)
	t.Cleanup(tree.Close)
	return tree.RootNode(), source
}

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

func firstCallArg(t *testing.T, root *ts.Node, argIndex int) *ts.Node {
	t.Helper()
	call := findFirst(root, "call_expression")
	require.NotNil(t, call)
	args := call.ChildByFieldName("arguments")
	require.NotNil(t, args)
	require.Greater(t, int(args.NamedChildCount()), argIndex)
	return args.NamedChild(uint(argIndex))
}

func TestResolve_StringLiteral(t *testing.T) {
	root, source := parseTSX(t, `t("hello");`)
	arg := firstCallArg(t, root, 0)
	r := &Resolver{}
	assert.Equal(t, []string{"hello"}, r.Resolve(arg, source, PurposeKey, true))
}

func TestResolve_NumberAndBooleanLiterals(t *testing.T) {
	root, source := parseTSX(t, `f(5, true);`)
	r := &Resolver{}
	assert.Equal(t, []string{"5"}, r.Resolve(firstCallArg(t, root, 0), source, PurposeKey, true))
	assert.Equal(t, []string{"true"}, r.Resolve(firstCallArg(t, root, 1), source, PurposeKey, true))
}

func TestResolve_UndefinedIdentifierYieldsEmpty(t *testing.T) {
	root, source := parseTSX(t, `f(undefined);`)
	r := &Resolver{}
	assert.Empty(t, r.Resolve(firstCallArg(t, root, 0), source, PurposeKey, true))
}

func TestResolve_IdentifierViaConstantLookup(t *testing.T) {
	root, source := parseTSX(t, `f(NS);`)
	r := &Resolver{LookupConstant: func(name string) (string, bool) {
		if name == "NS" {
			return "common", true
		}
		return "", false
	}}
	assert.Equal(t, []string{"common"}, r.Resolve(firstCallArg(t, root, 0), source, PurposeKey, true))
}

func TestResolve_TernaryUnionOfBranches(t *testing.T) {
	root, source := parseTSX(t, `f(isMale ? "male" : "female");`)
	r := &Resolver{}
	got := r.Resolve(firstCallArg(t, root, 0), source, PurposeContext, false)
	assert.ElementsMatch(t, []string{"male", "female"}, got)
}

func TestResolve_SimpleTemplateLiteral(t *testing.T) {
	root, source := parseTSX(t, "f(`hello`);")
	r := &Resolver{}
	assert.Equal(t, []string{"hello"}, r.Resolve(firstCallArg(t, root, 0), source, PurposeKey, true))
}

func TestResolve_TemplateLiteralCartesianProduct(t *testing.T) {
	root, source := parseTSX(t, "f(`a-${x ? 1 : 2}-b`);")
	r := &Resolver{}
	got := r.Resolve(firstCallArg(t, root, 0), source, PurposeKey, true)
	assert.ElementsMatch(t, []string{"a-1-b", "a-2-b"}, got)
}

func TestResolve_TemplateLiteralUnresolvableSubstitutionCollapses(t *testing.T) {
	root, source := parseTSX(t, "f(`a-${getDynamic()}-b`);")
	r := &Resolver{}
	got := r.Resolve(firstCallArg(t, root, 0), source, PurposeKey, false)
	assert.Empty(t, got)
}

func TestResolve_TemplateLiteralUnresolvableSubstitutionWithIncludeEmpty(t *testing.T) {
	root, source := parseTSX(t, "f(`a-${getDynamic()}-b`);")
	r := &Resolver{}
	got := r.Resolve(firstCallArg(t, root, 0), source, PurposeKey, true)
	assert.Equal(t, []string{"a--b"}, got)
}

func TestResolve_AsExpressionWithLiteralType(t *testing.T) {
	root, source := parseTSX(t, `f(x as "common");`)
	r := &Resolver{}
	got := r.Resolve(firstCallArg(t, root, 0), source, PurposeKey, true)
	assert.Equal(t, []string{"common"}, got)
}

func TestResolve_AsExpressionWithUnionType(t *testing.T) {
	root, source := parseTSX(t, `f(x as "a" | "b");`)
	r := &Resolver{}
	got := r.Resolve(firstCallArg(t, root, 0), source, PurposeKey, true)
	assert.ElementsMatch(t, []string{"a", "b"}, got)
}

func TestResolve_EmptyStringExcludedForContextWithoutIncludeEmpty(t *testing.T) {
	root, source := parseTSX(t, `f("");`)
	r := &Resolver{}
	assert.Empty(t, r.Resolve(firstCallArg(t, root, 0), source, PurposeContext, false))
}

func TestResolve_EmptyStringKeptForKeyWithIncludeEmpty(t *testing.T) {
	root, source := parseTSX(t, `f("");`)
	r := &Resolver{}
	assert.Equal(t, []string{""}, r.Resolve(firstCallArg(t, root, 0), source, PurposeKey, true))
}

func TestResolve_UnknownShapeUsesHooks(t *testing.T) {
	root, source := parseTSX(t, `f(someCall());`)
	r := &Resolver{Hooks: []Hook{stubHook{values: []string{"fromHook"}}}}
	got := r.Resolve(firstCallArg(t, root, 0), source, PurposeKey, true)
	assert.Equal(t, []string{"fromHook"}, got)
}

type stubHook struct{ values []string }

func (s stubHook) Resolve(node *ts.Node, source []byte, purpose Purpose) []string {
	return s.values
}

func TestAsBool(t *testing.T) {
	v, ok := AsBool([]string{"true"})
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = AsBool([]string{"false"})
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = AsBool([]string{"other"})
	assert.False(t, ok)
}

func TestJoinUnique(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, JoinUnique([]string{"a", "b", "a"}))
}
