// Package transjsx drives extraction at Trans-component JSX elements: it
// reads the recognized attributes, serializes children into a default
// value via pkg/jsxserialize, and shares the namespace/context/plural/
// nested-key logic pkg/callsite implements for ordinary calls.
package transjsx

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/arjunv/i18nscan/pkg/astutil"
	"github.com/arjunv/i18nscan/pkg/config"
	"github.com/arjunv/i18nscan/pkg/jsxserialize"
	"github.com/arjunv/i18nscan/pkg/keys"
	"github.com/arjunv/i18nscan/pkg/plural"
	"github.com/arjunv/i18nscan/pkg/resolve"
	"github.com/arjunv/i18nscan/pkg/scope"
)

// Handler drives extraction at jsx_element/jsx_self_closing_element nodes
// whose tag matches a configured translation-component name.
type Handler struct {
	Config   *config.Config
	Scope    *scope.Manager
	Resolver *resolve.Resolver
	FilePath string
}

// attributes is everything Handle reads off the element before any
// resolution happens.
type attributes struct {
	i18nKey      *ts.Node
	ns           *ts.Node
	context      *ts.Node
	count        *ts.Node
	defaults     *ts.Node
	ordinal      *ts.Node
	tOptions     *ts.Node
	tIdentifier  string
	hasTIdent    bool
}

// Handle processes a jsx_element or jsx_self_closing_element node whose
// tag is a configured translation component. Returns (nil, nil) when the
// tag doesn't match, or a warning when the element's children are
// malformed (failure isolation: the element is skipped, not the file).
func (h *Handler) Handle(element *ts.Node, source []byte) ([]keys.ExtractedKey, []keys.Warning) {
	if element == nil {
		return nil, nil
	}

	tag, opening, children, ok := elementShape(element, source)
	if !ok {
		return nil, nil
	}
	if !matchesTransComponent(h.Config.TransComponents, tag) {
		return nil, nil
	}

	attrs, ok := readAttributes(opening, source)
	if !ok {
		pos := astutil.PositionOf(element)
		return nil, []keys.Warning{{
			Kind: keys.WarningMalformedTransSubtree, File: h.FilePath, Line: pos.Line, Column: pos.Column,
			Message: "malformed attribute list on translation component",
		}}
	}

	serializeOpts := jsxserialize.DefaultOptions()
	serializeOpts.PreservedTags = preservedTagSet(h.Config.TransKeepBasicHtmlNodesFor)
	serializedDefault := jsxserialize.Serialize(children, source, serializeOpts)

	candidateKeys := h.candidateKeys(attrs, serializedDefault, source)
	if len(candidateKeys) == 0 {
		return nil, nil
	}

	callDefault, hasCallDefault := h.resolveDefaultValue(attrs, serializedDefault, source)
	options := attrs.tOptions

	boundInfo := h.scopeInfoForTIdentifier(attrs)
	pos := astutil.PositionOf(element)
	loc := keys.Location{FilePath: h.FilePath, StartLine: pos.Line, StartColumn: pos.Column}

	var records []keys.ExtractedKey
	var warnings []keys.Warning
	for _, raw := range candidateKeys {
		recs, warns := h.emitForCandidate(raw, attrs, boundInfo, options, callDefault, hasCallDefault, loc, source)
		records = append(records, recs...)
		warnings = append(warnings, warns...)
	}
	return records, warnings
}

// elementShape extracts the tag name, the opening-tag/self-closing node
// (where attributes live), and the named children (empty for a
// self-closing element).
func elementShape(element *ts.Node, source []byte) (tag string, opening *ts.Node, children []*ts.Node, ok bool) {
	switch element.Kind() {
	case "jsx_self_closing_element":
		nameNode := element.ChildByFieldName("name")
		if nameNode == nil {
			return "", nil, nil, false
		}
		return nameNode.Utf8Text(source), element, nil, true
	case "jsx_element":
		openTag := element.ChildByFieldName("open_tag")
		if openTag == nil {
			return "", nil, nil, false
		}
		nameNode := openTag.ChildByFieldName("name")
		if nameNode == nil {
			return "", nil, nil, false
		}
		var kids []*ts.Node
		for i := uint(0); i < element.NamedChildCount(); i++ {
			c := element.NamedChild(i)
			if c == nil {
				continue
			}
			switch c.Kind() {
			case "jsx_opening_element", "jsx_closing_element":
				continue
			}
			kids = append(kids, c)
		}
		return nameNode.Utf8Text(source), openTag, kids, true
	default:
		return "", nil, nil, false
	}
}

func matchesTransComponent(components []string, tag string) bool {
	for _, c := range components {
		if c == tag {
			return true
		}
	}
	return false
}

// readAttributes reads every attribute off the opening element. Returns ok=false on a shape it
// cannot read at all (the element itself is malformed, not just missing
// an attribute).
func readAttributes(opening *ts.Node, source []byte) (attributes, bool) {
	if opening == nil {
		return attributes{}, false
	}
	var attrs attributes
	for i := uint(0); i < opening.NamedChildCount(); i++ {
		attr := opening.NamedChild(i)
		if attr == nil || attr.Kind() != "jsx_attribute" {
			continue
		}
		nameNode := attr.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Utf8Text(source)
		valueNode := attributeValueNode(attr)

		switch name {
		case "i18nKey":
			attrs.i18nKey = valueNode
		case "ns":
			attrs.ns = valueNode
		case "context":
			attrs.context = valueNode
		case "count":
			attrs.count = valueNode
		case "defaults":
			attrs.defaults = valueNode
		case "ordinal":
			attrs.ordinal = valueNode
		case "tOptions":
			attrs.tOptions = valueNode
		case "values":
			if valueNode != nil && valueNode.Kind() == "object" {
				if countProp := astutil.LookupProperty(valueNode, "count", source); countProp != nil {
					attrs.count = valueNode // treat values.count as equivalent to count
				}
			}
		case "t":
			if ident := identifierAttributeValue(valueNode, source); ident != "" {
				attrs.tIdentifier = ident
				attrs.hasTIdent = true
			}
		}
	}
	return attrs, true
}

// attributeValueNode unwraps a jsx_attribute's value: a string literal
// directly, or the inner expression of a `{...}` expression container.
func attributeValueNode(attr *ts.Node) *ts.Node {
	valueNode := attr.ChildByFieldName("value")
	if valueNode == nil {
		return nil
	}
	if valueNode.Kind() == "jsx_expression" {
		if valueNode.NamedChildCount() == 0 {
			return nil
		}
		return valueNode.NamedChild(0)
	}
	return valueNode
}

func identifierAttributeValue(node *ts.Node, source []byte) string {
	if node == nil || node.Kind() != "identifier" {
		return ""
	}
	return node.Utf8Text(source)
}

// candidateKeys resolves the element's key(s): from i18nKey if present,
// else from the serialized children, matching i18next's own behavior of
// using the Trans element's rendered text as its own key when no explicit
// key is given.
func (h *Handler) candidateKeys(attrs attributes, serializedDefault string, source []byte) []string {
	if attrs.i18nKey != nil {
		return resolve.JoinUnique(h.Resolver.Resolve(attrs.i18nKey, source, resolve.PurposeKey, true))
	}
	if serializedDefault != "" {
		return []string{serializedDefault}
	}
	return nil
}

// resolveDefaultValue prefers an explicit defaults attribute, falling back
// to the element's serialized children.
func (h *Handler) resolveDefaultValue(attrs attributes, serialized string, source []byte) (string, bool) {
	if attrs.defaults != nil {
		values := h.Resolver.Resolve(attrs.defaults, source, resolve.PurposeKey, true)
		if len(values) > 0 {
			return values[0], true
		}
	}
	if serialized != "" {
		return serialized, true
	}
	return "", false
}

// scopeInfoForTIdentifier resolves the `t={someIdent}` scope lookup.
func (h *Handler) scopeInfoForTIdentifier(attrs attributes) keys.ScopeInfo {
	if !attrs.hasTIdent {
		return keys.ScopeInfo{}
	}
	info, _ := h.Scope.Lookup(attrs.tIdentifier)
	return info
}

func (h *Handler) emitForCandidate(
	raw string,
	attrs attributes,
	boundInfo keys.ScopeInfo,
	options *ts.Node,
	callDefault string,
	hasCallDefault bool,
	loc keys.Location,
	source []byte,
) ([]keys.ExtractedKey, []keys.Warning) {
	ns, strippedKey := h.resolveNamespace(raw, attrs, boundInfo, source)
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
	hasContextAttr := attrs.context != nil
	hasCountAttr := attrs.count != nil || astutil.LookupProperty(options, "count", source) != nil
	ordinal := attrs.ordinal != nil && isTruthyBool(attrs.ordinal, source)

	variants := h.resolveContextVariants(finalKey, attrs, hasContextAttr, source)

	var records []keys.ExtractedKey
	var warnings []keys.Warning
	for _, v := range variants {
		recs, pluralWarns := h.expandPlural(v, ns, hasCountAttr, ordinal, options, callDefault, hasCallDefault, baseExplicit, loc, source)
		records = append(records, recs...)
		warnings = append(warnings, pluralWarns...)

		nested, nestedWarns := h.scanNestedTranslations(v.key, recs, loc)
		records = append(records, nested...)
		warnings = append(warnings, nestedWarns...)
	}
	return records, warnings
}

// resolveNamespace resolves the ns attribute / key-prefixed-namespace
// precedence chain for a Trans element.
func (h *Handler) resolveNamespace(key string, attrs attributes, boundInfo keys.ScopeInfo, source []byte) (ns, strippedKey string) {
	strippedKey = key
	if attrs.ns != nil {
		if values := h.Resolver.Resolve(attrs.ns, source, resolve.PurposeKey, false); len(values) == 1 {
			return values[0], strippedKey
		}
	}
	if !h.Config.NSSeparator.Disabled && h.Config.NSSeparator.Value != "" {
		if idx := strings.Index(key, h.Config.NSSeparator.Value); idx >= 0 {
			return key[:idx], key[idx+len(h.Config.NSSeparator.Value):]
		}
	}
	if v, ok := stringOption(attrs.tOptions, "ns", source); ok {
		return v, strippedKey
	}
	if boundInfo.DefaultNamespace != nil {
		return *boundInfo.DefaultNamespace, strippedKey
	}
	if !h.Config.DefaultNS.Disabled {
		return h.Config.DefaultNS.Value, strippedKey
	}
	return "", strippedKey
}

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

type contextVariant struct {
	key                 string
	keyAcceptingContext string
}

func (h *Handler) resolveContextVariants(baseKey string, attrs attributes, hasContextAttr bool, source []byte) []contextVariant {
	passthrough := []contextVariant{{key: baseKey}}
	if !hasContextAttr {
		return passthrough
	}
	values := resolve.JoinUnique(h.Resolver.Resolve(attrs.context, source, resolve.PurposeContext, false))
	if len(values) == 0 {
		return passthrough
	}
	if len(values) == 1 && isStaticContextExpression(attrs.context) {
		return []contextVariant{{key: baseKey + h.Config.ContextSeparator + values[0]}}
	}
	out := make([]contextVariant, 0, len(values)+1)
	for _, v := range values {
		out = append(out, contextVariant{key: baseKey + h.Config.ContextSeparator + v})
	}
	out = append(out, contextVariant{key: baseKey, keyAcceptingContext: baseKey})
	return out
}

func isStaticContextExpression(node *ts.Node) bool {
	switch node.Kind() {
	case "string", "number", "true", "false":
		return true
	default:
		return false
	}
}

func (h *Handler) expandPlural(
	v contextVariant,
	ns string,
	hasCount bool,
	ordinal bool,
	options *ts.Node,
	callDefault string,
	hasCallDefault bool,
	baseExplicit bool,
	loc keys.Location,
	source []byte,
) ([]keys.ExtractedKey, []keys.Warning) {
	if !hasCount {
		return []keys.ExtractedKey{{
			Key: v.key, Namespace: ns, DefaultValue: callDefault, HasDefault: hasCallDefault,
			ExplicitDefault: baseExplicit, KeyAcceptingContext: v.keyAcceptingContext,
			Locations: []keys.Location{loc},
		}}, nil
	}

	if v.keyAcceptingContext != "" && !h.Config.GenerateBasePluralForms {
		return []keys.ExtractedKey{{
			Key: v.key, Namespace: ns, DefaultValue: callDefault, HasDefault: hasCallDefault,
			ExplicitDefault: baseExplicit, HasCount: true, IsOrdinal: ordinal,
			KeyAcceptingContext: v.keyAcceptingContext, Locations: []keys.Location{loc},
		}}, nil
	}

	if h.Config.DisablePlurals {
		return []keys.ExtractedKey{{
			Key: v.key, Namespace: ns, DefaultValue: callDefault, HasDefault: hasCallDefault,
			ExplicitDefault: baseExplicit, HasCount: true, IsOrdinal: ordinal,
			KeyAcceptingContext: v.keyAcceptingContext, Locations: []keys.Location{loc},
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
			KeyAcceptingContext: v.keyAcceptingContext, Locations: []keys.Location{loc},
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
		defVal, hasDef := defaultValueForCategory(cat, ordinal, options, callDefault, hasCallDefault, fullKey, source)
		out = append(out, keys.ExtractedKey{
			Key: fullKey, Namespace: ns, DefaultValue: defVal, HasDefault: hasDef,
			ExplicitDefault: explicitVariant, HasCount: true, IsOrdinal: ordinal,
			KeyAcceptingContext: v.keyAcceptingContext, Locations: []keys.Location{loc},
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

func defaultValueForCategory(
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

// scanNestedTranslations mirrors pkg/callsite's nested-translation scan:
// one level of `$t(...)` occurrences in the key text and any emitted
// default values.
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

func isTruthyBool(node *ts.Node, source []byte) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case "true":
		return true
	case "false":
		return false
	case "string":
		return astutil.StringLiteralValue(node, source) == "true"
	default:
		return false
	}
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

func preservedTagSet(tags []string) map[string]bool {
	out := make(map[string]bool, len(tags))
	for _, t := range tags {
		out[t] = true
	}
	return out
}
