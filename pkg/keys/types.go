// Package keys defines the extraction engine's single output type, the
// extracted translation-key record, and the accumulator that merges
// records observed across one or many file visits.
package keys

// Location is a source position where a key was observed.
//
// Line/column are 1-based (editor/LSP convention); byte offsets are
// 0-based and file-relative, so callers can slice source text directly.
type Location struct {
	FilePath    string
	StartLine   uint32
	StartColumn uint32
	EndLine     uint32
	EndColumn   uint32
	StartByte   uint32
	EndByte     uint32
}

// ScopeInfo is attached to an identifier bound to a translation function
// within the Scope Manager (pkg/scope).
type ScopeInfo struct {
	// DefaultNamespace is the namespace a bound `t`/`getFixedT` resolves to
	// when a call site doesn't supply its own. Nil means none was attached.
	DefaultNamespace *string

	// KeyPrefix is prepended (with the configured key separator) to every
	// key extracted through this binding. Nil means none was attached.
	KeyPrefix *string
}

// ExtractedKey is the engine's single output record: one resolved
// `(namespace, key)` pair plus the metadata needed to write or merge a
// translation resource for it.
type ExtractedKey struct {
	Key       string
	Namespace string

	DefaultValue string
	HasDefault   bool

	HasCount  bool
	IsOrdinal bool

	// ExplicitDefault is true when the source code supplied enough
	// specificity (a literal default string, or a defaultValue* option)
	// that downstream tooling may overwrite an existing translation.
	// Never cleared once set for a given identity (namespace:key).
	ExplicitDefault bool

	// KeyAcceptingContext holds the base key for a context variant record,
	// so downstream tooling can detect a context sibling left orphaned
	// when its parent key disappears. Empty for non-context records.
	KeyAcceptingContext string

	// IsObjectKey flags keys sourced from the selector API or marked
	// `returnObjects: true`: structured-content keys, in a side channel
	// rather than the primary record shape.
	IsObjectKey bool

	Locations []Location
}

// Identity returns the composite `namespace, key` identity the accumulator
// map keys on. A NUL byte separates the two fields so a namespace or key
// containing a literal ':' (a valid nsSeparator override) can never
// collide with another identity.
func (k *ExtractedKey) Identity() string {
	return k.Namespace + "\x00" + k.Key
}

// WarningKind identifies a recoverable, non-fatal defect found during
// extraction.
type WarningKind string

const (
	WarningParseFailure           WarningKind = "parse_failure"
	WarningMalformedTransSubtree  WarningKind = "malformed_trans_subtree"
	WarningEmptyKeyAfterStrip     WarningKind = "empty_key_after_strip"
	WarningInvalidKeyPrefix       WarningKind = "invalid_key_prefix"
	WarningPluralRulesFallback    WarningKind = "plural_rules_fallback"
)

// Warning is a non-fatal defect surfaced to the caller. The engine never
// aborts a batch because of one: it records the warning and continues.
type Warning struct {
	Kind    WarningKind
	File    string
	Line    uint32
	Column  uint32
	Message string
}
