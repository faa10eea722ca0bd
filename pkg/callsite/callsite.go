// Package callsite drives extraction at translation function call sites:
// resolving the callee's identity, picking keys from the first argument,
// computing namespace precedence, applying key prefixes, and emitting
// context/plural variants and nested-translation keys. It is the engine's
// busiest handler: one exported entry point, many small, named steps
// underneath, each handling one piece of a call site's shape.
package callsite

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/arjunv/i18nscan/pkg/astutil"
	"github.com/arjunv/i18nscan/pkg/config"
	"github.com/arjunv/i18nscan/pkg/keys"
	"github.com/arjunv/i18nscan/pkg/plural"
	"github.com/arjunv/i18nscan/pkg/resolve"
	"github.com/arjunv/i18nscan/pkg/scope"
)

// Handler drives extraction at call_expression nodes recognized as
// translation calls. One Handler is built per file visit, sharing that
// visit's Scope Manager and Expression Resolver.
type Handler struct {
	Config   *config.Config
	Scope    *scope.Manager
	Resolver *resolve.Resolver
	FilePath string
}

// contextVariant is one (possibly context-decorated) key produced by
// resolveContextVariants, before plural expansion.
type contextVariant struct {
	key                 string
	isContextVariant    bool
	keyAcceptingContext string // non-empty on the base-key fallback record
}

// Handle processes a call_expression node, returning zero or more
// extracted records plus any warnings raised along the way. Returns
// (nil, nil) when the call isn't recognized as a translation call, or when
// no key could be resolved: an unresolvable key emits nothing and raises
// no error.
func (h *Handler) Handle(call *ts.Node, source []byte) ([]keys.ExtractedKey, []keys.Warning) {
	if call == nil || call.Kind() != "call_expression" {
		return nil, nil
	}

	calleeNode := call.ChildByFieldName("function")
	calleeName, ok := astutil.CalleeDottedName(calleeNode, source)
	if !ok {
		return nil, nil
	}

	boundInfo, hasBound := h.Scope.Lookup(lastSegment(calleeName))
	if !config.MatchesFunctionName(h.Config.Functions, calleeName) && !hasBound {
		return nil, nil
	}

	args := callArguments(call)
	arg0 := argAt(args, 0)
	candidateKeys, isSelector := h.collectCandidateKeys(arg0, source)
	if len(candidateKeys) == 0 {
		return nil, nil
	}

	callDefault, hasCallDefault, options := readDefaultAndOptions(args, source)
	pos := astutil.PositionOf(call)
	loc := keys.Location{FilePath: h.FilePath, StartLine: pos.Line, StartColumn: pos.Column}

	var records []keys.ExtractedKey
	var warnings []keys.Warning
	for _, raw := range candidateKeys {
		recs, warns := h.emitForCandidate(raw, boundInfo, options, callDefault, hasCallDefault, isSelector, loc, source)
		records = append(records, recs...)
		warnings = append(warnings, warns...)
	}
	return records, warnings
}

// emitForCandidate runs the remaining resolution steps for one candidate key string.
func (h *Handler) emitForCandidate(
	raw string,
	boundInfo keys.ScopeInfo,
	options *ts.Node,
	callDefault string,
	hasCallDefault bool,
	isSelector bool,
	loc keys.Location,
	source []byte,
) ([]keys.ExtractedKey, []keys.Warning) {
	key, ordinalFromSuffix := normalizeOrdinalSuffix(raw, h.Config.PluralSeparator)

	ns, strippedKey := h.resolveNamespace(key, options, boundInfo, source)
	finalKey, ok := h.applyKeyPrefix(strippedKey, boundInfo)
	if !ok {
		return nil, []keys.Warning{{
			Kind: keys.WarningInvalidKeyPrefix, File: loc.FilePath, Line: loc.StartLine, Column: loc.StartColumn,
			Message: "key prefix application produced an empty segment for " + strippedKey,
		}}
	}
	if finalKey == "" {
		return nil, []keys.Warning{{
			Kind: keys.WarningEmptyKeyAfterStrip, File: loc.FilePath, Line: loc.StartLine, Column: loc.StartColumn,
			Message: "key is empty after namespace/prefix manipulation",
		}}
	}

	baseExplicit := hasCallDefault || hasPropertyPrefixed(options, "defaultValue", source)
	objectKey := isSelector || isReturnObjectsTrue(options, source)

	variants := h.resolveContextVariants(finalKey, options, source)

	var records []keys.ExtractedKey
	var warnings []keys.Warning
	for _, v := range variants {
		recs, pluralWarns := h.expandPlural(v, ns, ordinalFromSuffix, options, callDefault, hasCallDefault, baseExplicit, objectKey, loc, source)
		records = append(records, recs...)
		warnings = append(warnings, pluralWarns...)

		nested, nestedWarns := h.scanNestedTranslations(v.key, recs, loc)
		records = append(records, nested...)
		warnings = append(warnings, nestedWarns...)
	}
	return records, warnings
}

// collectCandidateKeys picks candidate keys: the selector API for an
// arrow-function first argument, per-element resolution for an array, and
// ordinary Expression Resolver resolution otherwise.
func (h *Handler) collectCandidateKeys(arg0 *ts.Node, source []byte) (candidates []string, isSelector bool) {
	if arg0 == nil {
		return nil, false
	}
	switch arg0.Kind() {
	case "arrow_function", "function_expression", "function":
		if key, ok := h.resolveSelectorAPI(arg0, source); ok {
			return []string{key}, true
		}
		return nil, false
	case "array":
		var out []string
		for i := uint(0); i < arg0.NamedChildCount(); i++ {
			el := arg0.NamedChild(i)
			out = append(out, h.Resolver.Resolve(el, source, resolve.PurposeKey, true)...)
		}
		return resolve.JoinUnique(out), false
	default:
		return resolve.JoinUnique(h.Resolver.Resolve(arg0, source, resolve.PurposeKey, true)), false
	}
}

// resolveSelectorAPI walks the member chain in an arrow function's body
// (or its single `return` statement, if the body is a block) and joins the
// path parts with the configured key separator, the glossary's "Selector
// API" form: `t((props) => props.user.name)` extracts `"user.name"`.
func (h *Handler) resolveSelectorAPI(fn *ts.Node, source []byte) (string, bool) {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return "", false
	}
	expr := body
	if body.Kind() == "statement_block" {
		var ret *ts.Node
		for i := uint(0); i < body.NamedChildCount(); i++ {
			c := body.NamedChild(i)
			if c != nil && c.Kind() == "return_statement" {
				if ret != nil {
					return "", false // more than one return: not a simple selector
				}
				ret = c
			}
		}
		if ret == nil || ret.NamedChildCount() == 0 {
			return "", false
		}
		expr = ret.NamedChild(0)
	}
	parts, ok := memberPathParts(expr, source)
	if !ok || len(parts) == 0 {
		return "", false
	}
	sep := h.Config.KeySeparator.Value
	if h.Config.KeySeparator.Disabled || sep == "" {
		sep = "."
	}
	return strings.Join(parts, sep), true
}

// memberPathParts walks a member-expression chain rooted at an identifier
// or `this`, returning the property names from outermost object to
// innermost property, excluding the root identifier itself.
func memberPathParts(node *ts.Node, source []byte) ([]string, bool) {
	if node == nil {
		return nil, false
	}
	switch node.Kind() {
	case "identifier", "this":
		return nil, true
	case "member_expression":
		obj := node.ChildByFieldName("object")
		prop := node.ChildByFieldName("property")
		if obj == nil || prop == nil || prop.Kind() != "property_identifier" {
			return nil, false
		}
		parts, ok := memberPathParts(obj, source)
		if !ok {
			return nil, false
		}
		return append(parts, prop.Utf8Text(source)), true
	default:
		return nil, false
	}
}

// normalizeOrdinalSuffix handles a candidate key ending in
// `pluralSep + "ordinal"` has that suffix stripped and the ordinal flag set.
func normalizeOrdinalSuffix(key, pluralSep string) (string, bool) {
	if pluralSep == "" {
		return key, false
	}
	suffix := pluralSep + "ordinal"
	if strings.HasSuffix(key, suffix) {
		return strings.TrimSuffix(key, suffix), true
	}
	return key, false
}

// readDefaultAndOptions reads a string (or simple
// template literal) in argument 1 is the default value; an object in
// argument 1 or 2 is the options bag.
func readDefaultAndOptions(args []*ts.Node, source []byte) (defaultValue string, hasDefault bool, options *ts.Node) {
	if second := argAt(args, 1); second != nil {
		switch second.Kind() {
		case "string":
			defaultValue, hasDefault = astutil.StringLiteralValue(second, source), true
		case "template_string":
			if astutil.IsSimpleTemplateLiteral(second) {
				defaultValue, hasDefault = astutil.SimpleTemplateLiteralValue(second, source), true
			}
		case "object":
			options = second
		}
	}
	if third := argAt(args, 2); third != nil && third.Kind() == "object" {
		options = third
	}
	return
}

// resolveNamespace resolves the namespace precedence chain, returning the
// resolved namespace and the key with any `ns:key` prefix stripped.
func (h *Handler) resolveNamespace(key string, options *ts.Node, boundInfo keys.ScopeInfo, source []byte) (ns, strippedKey string) {
	strippedKey = key
	if v, ok := stringOption(options, "ns", source); ok {
		return v, strippedKey
	}
	if !h.Config.NSSeparator.Disabled && h.Config.NSSeparator.Value != "" {
		if idx := strings.Index(key, h.Config.NSSeparator.Value); idx >= 0 {
			return key[:idx], key[idx+len(h.Config.NSSeparator.Value):]
		}
	}
	if boundInfo.DefaultNamespace != nil {
		return *boundInfo.DefaultNamespace, strippedKey
	}
	if !h.Config.DefaultNS.Disabled {
		return h.Config.DefaultNS.Value, strippedKey
	}
	return "", strippedKey
}

// applyKeyPrefix prepends the bound key prefix to the key. Returns ok=false when the result
// would contain an empty path segment.
func (h *Handler) applyKeyPrefix(key string, boundInfo keys.ScopeInfo) (string, bool) {
	if boundInfo.KeyPrefix == nil || *boundInfo.KeyPrefix == "" {
		return key, true
	}
	prefix := *boundInfo.KeyPrefix
	sep := h.Config.KeySeparator.Value

	var full string
	switch {
	case h.Config.KeySeparator.Disabled || sep == "":
		full = prefix + key
	case strings.HasSuffix(prefix, sep):
		full = prefix + key
	default:
		full = prefix + sep + key
	}
	if hasEmptySegment(full, h.Config.KeySeparator) {
		return "", false
	}
	return full, true
}

func hasEmptySegment(full string, keySep config.StringOrFalse) bool {
	if keySep.Disabled || keySep.Value == "" {
		return false
	}
	for _, part := range strings.Split(full, keySep.Value) {
		if part == "" {
			return true
		}
	}
	return false
}

// resolveContextVariants expands context variants.
func (h *Handler) resolveContextVariants(baseKey string, options *ts.Node, source []byte) []contextVariant {
	passthrough := []contextVariant{{key: baseKey}}
	if options == nil {
		return passthrough
	}
	ctxProp := astutil.LookupProperty(options, "context", source)
	if ctxProp == nil {
		return passthrough
	}

	pv := astutil.PrimitiveValueOf(options, "context", source)
	if pv.Kind == astutil.PrimitiveString || pv.Kind == astutil.PrimitiveNumber || pv.Kind == astutil.PrimitiveBoolean {
		return []contextVariant{{key: baseKey + h.Config.ContextSeparator + pv.Text, isContextVariant: true}}
	}

	var valueNode *ts.Node
	if ctxProp.Kind() == "pair" {
		valueNode = ctxProp.ChildByFieldName("value")
	}
	if valueNode == nil {
		return passthrough
	}
	values := resolve.JoinUnique(h.Resolver.Resolve(valueNode, source, resolve.PurposeContext, false))
	if len(values) == 0 {
		return passthrough
	}
	out := make([]contextVariant, 0, len(values)+1)
	for _, v := range values {
		out = append(out, contextVariant{key: baseKey + h.Config.ContextSeparator + v, isContextVariant: true})
	}
	out = append(out, contextVariant{key: baseKey, keyAcceptingContext: baseKey})
	return out
}

// expandPlural expands plural forms for one context variant.
func (h *Handler) expandPlural(
	v contextVariant,
	ns string,
	ordinalFromSuffix bool,
	options *ts.Node,
	callDefault string,
	hasCallDefault bool,
	baseExplicit bool,
	objectKey bool,
	loc keys.Location,
	source []byte,
) ([]keys.ExtractedKey, []keys.Warning) {
	hasCount := ordinalFromSuffix || astutil.LookupProperty(options, "count", source) != nil
	if !hasCount {
		return []keys.ExtractedKey{{
			Key: v.key, Namespace: ns, DefaultValue: callDefault, HasDefault: hasCallDefault,
			ExplicitDefault: baseExplicit, KeyAcceptingContext: v.keyAcceptingContext,
			IsObjectKey: objectKey, Locations: []keys.Location{loc},
		}}, nil
	}

	// A context-fallback record (the base key emitted alongside dynamic
	// context variants) only gets plural-expanded when generateBasePluralForms
	// is set; otherwise it is emitted as a single has_count record.
	if v.keyAcceptingContext != "" && !h.Config.GenerateBasePluralForms {
		return []keys.ExtractedKey{{
			Key: v.key, Namespace: ns, DefaultValue: callDefault, HasDefault: hasCallDefault,
			ExplicitDefault: baseExplicit, HasCount: true, IsOrdinal: ordinalFromSuffix || isOrdinalOption(options, source),
			KeyAcceptingContext: v.keyAcceptingContext, IsObjectKey: objectKey, Locations: []keys.Location{loc},
		}}, nil
	}

	ordinal := ordinalFromSuffix || isOrdinalOption(options, source)
	if h.Config.DisablePlurals {
		return []keys.ExtractedKey{{
			Key: v.key, Namespace: ns, DefaultValue: callDefault, HasDefault: hasCallDefault,
			ExplicitDefault: baseExplicit, HasCount: true, IsOrdinal: ordinal,
			KeyAcceptingContext: v.keyAcceptingContext, IsObjectKey: objectKey, Locations: []keys.Location{loc},
		}}, nil
	}

	primaryResolver := plural.NewResolver(h.Config.PrimaryLanguage)
	var warnings []keys.Warning
	if primaryResolver.UsedFallback() {
		warnings = append(warnings, pluralFallbackWarning(h.Config.PrimaryLanguage, loc))
	}
	primaryCats := primaryResolver.Categories(ordinal)
	if len(primaryCats) == 1 && primaryCats[0] == plural.CategoryOther {
		return []keys.ExtractedKey{{
			Key: v.key, Namespace: ns, DefaultValue: callDefault, HasDefault: hasCallDefault,
			ExplicitDefault: baseExplicit, HasCount: true, IsOrdinal: ordinal,
			KeyAcceptingContext: v.keyAcceptingContext, IsObjectKey: objectKey, Locations: []keys.Location{loc},
		}}, warnings
	}

	warnings = append(warnings, localeFallbackWarnings(h.Config.Locales, h.Config.PrimaryLanguage, loc)...)
	categories := plural.UnionCategories(h.Config.Locales, ordinal)
	baseDefaultHasCount := hasCallDefault && strings.Contains(callDefault, h.Config.InterpolationPrefix+"count"+h.Config.InterpolationSuffix)
	explicitVariant := hasPropertyPrefixed(options, "defaultValue_", source) || (baseExplicit && !baseDefaultHasCount)
	out := make([]keys.ExtractedKey, 0, len(categories))
	for _, cat := range categories {
		suffix := h.Config.PluralSeparator + string(cat)
		if ordinal {
			suffix = h.Config.PluralSeparator + "ordinal" + h.Config.PluralSeparator + string(cat)
		}
		fullKey := v.key + suffix
		defVal, hasDef := h.defaultValueForCategory(cat, ordinal, options, callDefault, hasCallDefault, fullKey, source)
		out = append(out, keys.ExtractedKey{
			Key: fullKey, Namespace: ns, DefaultValue: defVal, HasDefault: hasDef,
			ExplicitDefault: explicitVariant, HasCount: true, IsOrdinal: ordinal,
			KeyAcceptingContext: v.keyAcceptingContext, IsObjectKey: objectKey, Locations: []keys.Location{loc},
		})
	}
	return out, warnings
}

// pluralFallbackWarning reports a locale whose plural rules couldn't be
// resolved and were replaced by the English-shaped fallback.
func pluralFallbackWarning(locale string, loc keys.Location) keys.Warning {
	return keys.Warning{
		Kind: keys.WarningPluralRulesFallback, File: loc.FilePath, Line: loc.StartLine, Column: loc.StartColumn,
		Message: "no plural rules for locale " + locale + "; using English-shaped fallback",
	}
}

// localeFallbackWarnings reports every configured locale (other than
// primary, already checked separately) whose plural rules fell back.
func localeFallbackWarnings(locales []string, primary string, loc keys.Location) []keys.Warning {
	var out []keys.Warning
	seen := make(map[string]bool, len(locales))
	for _, locale := range locales {
		if locale == primary || seen[locale] {
			continue
		}
		seen[locale] = true
		if plural.NewResolver(locale).UsedFallback() {
			out = append(out, pluralFallbackWarning(locale, loc))
		}
	}
	return out
}

// defaultValueForCategory walks the defaultValue_* fallback chain for one
// plural category.
func (h *Handler) defaultValueForCategory(
	category plural.Category,
	ordinal bool,
	options *ts.Node,
	callDefault string,
	hasCallDefault bool,
	fallbackKey string,
	source []byte,
) (string, bool) {
	specific := "defaultValue_" + string(category)
	if ordinal {
		specific = "defaultValue_ordinal_" + string(category)
	}
	if v, ok := stringOption(options, specific, source); ok {
		return v, true
	}
	if category == plural.CategoryOne {
		if v, ok := stringOption(options, "defaultValue", source); ok {
			return v, true
		}
	}
	if v, ok := stringOption(options, "defaultValue_ordinal_other", source); ok {
		return v, true
	}
	if v, ok := stringOption(options, "defaultValue_other", source); ok {
		return v, true
	}
	if v, ok := stringOption(options, "defaultValue", source); ok {
		return v, true
	}
	if hasCallDefault {
		return callDefault, true
	}
	return fallbackKey, true
}

// scanNestedTranslations scans the default value of every record just
// emitted for `defaultValue` (plus the key itself) for
// `nestingPrefix(...)nestingSuffix` occurrences, parsing each as an
// additional call site. Recurses exactly one level by deliberate choice:
// text the discovered keys themselves produce is not rescanned.
func (h *Handler) scanNestedTranslations(key string, emitted []keys.ExtractedKey, loc keys.Location) ([]keys.ExtractedKey, []keys.Warning) {
	if h.Config.NestingPrefix == "" || h.Config.NestingSuffix == "" {
		return nil, nil
	}
	var out []keys.ExtractedKey
	seen := make(map[string]bool)
	scan := func(text string) {
		for _, nk := range h.parseNestedOccurrences(text) {
			if seen[nk.Identity()] {
				continue
			}
			seen[nk.Identity()] = true
			nk.Locations = []keys.Location{loc}
			out = append(out, nk)
		}
	}
	scan(key)
	for _, rec := range emitted {
		if rec.HasDefault {
			scan(rec.DefaultValue)
		}
	}
	return out, nil
}

// parseNestedOccurrences extracts every `nestingPrefix(...)nestingSuffix`
// occurrence in text and resolves it to a namespace/key pair, using the
// same ns-split and default-namespace rules a direct call site would.
func (h *Handler) parseNestedOccurrences(text string) []keys.ExtractedKey {
	var out []keys.ExtractedKey
	prefix, suffix := h.Config.NestingPrefix, h.Config.NestingSuffix
	idx := 0
	for {
		start := strings.Index(text[idx:], prefix)
		if start < 0 {
			break
		}
		start += idx
		contentStart := start + len(prefix)
		rel := strings.Index(text[contentStart:], suffix)
		if rel < 0 {
			break
		}
		end := contentStart + rel
		inner := text[contentStart:end]
		idx = end + len(suffix)

		nestedKeyPart := inner
		if sepIdx := strings.Index(inner, h.Config.NestingOptionsSeparator); sepIdx >= 0 {
			nestedKeyPart = inner[:sepIdx]
		}
		nestedKeyPart = strings.TrimSpace(strings.Trim(strings.TrimSpace(nestedKeyPart), `"'`))
		if nestedKeyPart == "" {
			continue
		}

		ns, key := "", nestedKeyPart
		if !h.Config.NSSeparator.Disabled && h.Config.NSSeparator.Value != "" {
			if i := strings.Index(nestedKeyPart, h.Config.NSSeparator.Value); i >= 0 {
				ns = nestedKeyPart[:i]
				key = nestedKeyPart[i+len(h.Config.NSSeparator.Value):]
			}
		}
		if ns == "" && !h.Config.DefaultNS.Disabled {
			ns = h.Config.DefaultNS.Value
		}
		if key == "" {
			continue
		}
		out = append(out, keys.ExtractedKey{Key: key, Namespace: ns})
	}
	return out
}

func isOrdinalOption(options *ts.Node, source []byte) bool {
	pv := astutil.PrimitiveValueOf(options, "ordinal", source)
	return pv.Kind == astutil.PrimitiveBoolean && pv.Text == "true"
}

func isReturnObjectsTrue(options *ts.Node, source []byte) bool {
	pv := astutil.PrimitiveValueOf(options, "returnObjects", source)
	return pv.Kind == astutil.PrimitiveBoolean && pv.Text == "true"
}

func stringOption(options *ts.Node, name string, source []byte) (string, bool) {
	if options == nil {
		return "", false
	}
	pv := astutil.PrimitiveValueOf(options, name, source)
	if pv.Kind == astutil.PrimitiveString {
		return pv.Text, true
	}
	return "", false
}

func hasPropertyPrefixed(options *ts.Node, prefix string, source []byte) bool {
	if options == nil {
		return false
	}
	for _, p := range astutil.ObjectPropertyPairs(options, source) {
		if strings.HasPrefix(p.Key, prefix) {
			return true
		}
	}
	return false
}

func lastSegment(dotted string) string {
	idx := strings.LastIndex(dotted, ".")
	if idx < 0 {
		return dotted
	}
	return dotted[idx+1:]
}

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
