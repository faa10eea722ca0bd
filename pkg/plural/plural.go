// Package plural resolves the CLDR plural category ("one", "other", "few",
// ...) that i18next would append as a suffix (e.g. "key_one", "key_other")
// when a call site passes a count. Locale tags are parsed and matched with
// golang.org/x/text/language, the same BCP-47 handling the rest of the
// ecosystem uses; the category tables themselves mirror the grouping
// i18next's own plural resolver ships (languages sharing identical CLDR
// cardinal/ordinal rules are grouped into one rule set, keyed by language
// family rather than by every individual tag).
package plural

import (
	"golang.org/x/text/language"
)

// Category is one of the six CLDR plural categories. Not every language
// uses every category. The zero value "" is not a category;
// CategoryOther is the category every CLDR rule set falls back to.
type Category string

const (
	CategoryZero  Category = "zero"
	CategoryOne   Category = "one"
	CategoryTwo   Category = "two"
	CategoryFew   Category = "few"
	CategoryMany  Category = "many"
	CategoryOther Category = "other"
)

// ruleSet evaluates an integer count against one language family's CLDR
// cardinal (or ordinal) rule. n is always treated as a non-negative
// integer; i18next resolves fractional counts to "other" upstream of this
// package, matching the real library's behavior for the common case.
type ruleSet func(n int64) Category

// fallbackRuleSet is applied when a locale can't be matched to a known
// family; it implements the English cardinal rule (singular only for
// exactly 1), the same default i18next's resolver falls back to.
func fallbackRuleSet(n int64) Category {
	if n == 1 {
		return CategoryOne
	}
	return CategoryOther
}

// germanicCardinal covers English, German, Dutch, Swedish and siblings:
// "one" for n == 1, "other" otherwise.
func germanicCardinal(n int64) Category {
	if n == 1 {
		return CategoryOne
	}
	return CategoryOther
}

// romanceCardinal covers French, Portuguese (Brazilian) and siblings:
// "one" for n in {0, 1}.
func romanceCardinal(n int64) Category {
	if n == 0 || n == 1 {
		return CategoryOne
	}
	return CategoryOther
}

// slavicCardinal implements the three-category Russian/Polish/Ukrainian
// family rule: "one" for n mod 10 == 1 and n mod 100 != 11; "few" for n mod
// 10 in 2..4 and n mod 100 not in 12..14; "many" otherwise.
func slavicCardinal(n int64) Category {
	if n < 0 {
		n = -n
	}
	mod10 := n % 10
	mod100 := n % 100
	switch {
	case mod10 == 1 && mod100 != 11:
		return CategoryOne
	case mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14):
		return CategoryFew
	default:
		return CategoryMany
	}
}

// arabicCardinal implements the six-category Arabic family rule.
func arabicCardinal(n int64) Category {
	if n < 0 {
		n = -n
	}
	mod100 := n % 100
	switch {
	case n == 0:
		return CategoryZero
	case n == 1:
		return CategoryOne
	case n == 2:
		return CategoryTwo
	case mod100 >= 3 && mod100 <= 10:
		return CategoryFew
	case mod100 >= 11 && mod100 <= 99:
		return CategoryMany
	default:
		return CategoryOther
	}
}

// noPluralCardinal covers languages with a single plural form (Japanese,
// Korean, Chinese, Vietnamese, Thai, Indonesian, and similar): always
// "other".
func noPluralCardinal(n int64) Category {
	return CategoryOther
}

// cardinalFamilies maps a base language subtag to its cardinal rule set.
// Grouping mirrors i18next's bundled plural rule sets: languages with
// identical CLDR cardinal rules share one entry.
var cardinalFamilies = map[language.Base]ruleSet{
	mustBase("en"): germanicCardinal,
	mustBase("de"): germanicCardinal,
	mustBase("nl"): germanicCardinal,
	mustBase("sv"): germanicCardinal,
	mustBase("da"): germanicCardinal,
	mustBase("nb"): germanicCardinal,
	mustBase("nn"): germanicCardinal,
	mustBase("it"): germanicCardinal,
	mustBase("el"): germanicCardinal,
	mustBase("es"): germanicCardinal,
	mustBase("fi"): germanicCardinal,
	mustBase("hu"): germanicCardinal,

	mustBase("fr"): romanceCardinal,
	mustBase("pt"): romanceCardinal,

	mustBase("ru"): slavicCardinal,
	mustBase("uk"): slavicCardinal,
	mustBase("pl"): slavicCardinal,
	mustBase("cs"): slavicCardinal,
	mustBase("sk"): slavicCardinal,

	mustBase("ar"): arabicCardinal,

	mustBase("ja"): noPluralCardinal,
	mustBase("ko"): noPluralCardinal,
	mustBase("zh"): noPluralCardinal,
	mustBase("vi"): noPluralCardinal,
	mustBase("th"): noPluralCardinal,
	mustBase("id"): noPluralCardinal,
	mustBase("ms"): noPluralCardinal,
}

// ordinalFamilies maps a base language to its ordinal rule set ("1st",
// "2nd", "3rd" style selection). Languages absent here use fallbackOrdinal,
// which is also CLDR's "other"-only default for most locales.
var ordinalFamilies = map[language.Base]ruleSet{
	mustBase("en"): englishOrdinal,
}

func fallbackOrdinal(n int64) Category {
	return CategoryOther
}

// englishOrdinal implements English's four-category ordinal rule:
// 1st/2nd/3rd, with the 11/12/13 exception falling to "other".
func englishOrdinal(n int64) Category {
	if n < 0 {
		n = -n
	}
	mod10 := n % 10
	mod100 := n % 100
	switch {
	case mod10 == 1 && mod100 != 11:
		return CategoryOne
	case mod10 == 2 && mod100 != 12:
		return CategoryTwo
	case mod10 == 3 && mod100 != 13:
		return CategoryFew
	default:
		return CategoryOther
	}
}

func mustBase(tag string) language.Base {
	parsed := language.MustParse(tag)
	base, _ := parsed.Base()
	return base
}

// Resolver resolves plural categories for a fixed locale, matched once at
// construction via golang.org/x/text/language so callers don't re-parse a
// BCP-47 tag per call site.
type Resolver struct {
	cardinal ruleSet
	ordinal  ruleSet
	fellBack bool
}

// NewResolver parses locale (a BCP-47 language tag, e.g. "en", "en-US",
// "ru") and returns a Resolver for it. An unparseable or unrecognized
// locale falls back to the English cardinal rule; callers can check
// UsedFallback to decide whether to surface a warning.
func NewResolver(locale string) *Resolver {
	tag, err := language.Parse(locale)
	if err != nil {
		return &Resolver{cardinal: fallbackRuleSet, ordinal: fallbackOrdinal, fellBack: true}
	}
	base, conf := tag.Base()
	if conf == language.No {
		return &Resolver{cardinal: fallbackRuleSet, ordinal: fallbackOrdinal, fellBack: true}
	}

	r := &Resolver{ordinal: fallbackOrdinal}
	if rule, ok := cardinalFamilies[base]; ok {
		r.cardinal = rule
	} else {
		r.cardinal = fallbackRuleSet
		r.fellBack = true
	}
	if rule, ok := ordinalFamilies[base]; ok {
		r.ordinal = rule
	}
	return r
}

// UsedFallback reports whether this resolver fell back to the default
// English-shaped rule because locale was unparseable or unrecognized. The
// walker surfaces this as a WarningPluralRulesFallback.
func (r *Resolver) UsedFallback() bool {
	return r.fellBack
}

// Category returns the CLDR cardinal plural category for n, or the ordinal
// category if ordinal is true.
func (r *Resolver) Category(n int64, ordinal bool) Category {
	if ordinal {
		return r.ordinal(n)
	}
	return r.cardinal(n)
}

// categoryProbeSet is a small sample of counts chosen to surface every
// category any rule set in this package can produce: the slavic/arabic
// mod-10/mod-100 boundaries (1, 2, 3, 4, 11, 12, 13, 14, 100, 101), plus 0.
var categoryProbeSet = []int64{0, 1, 2, 3, 4, 11, 12, 13, 14, 100, 101}

// canonicalCategoryOrder lists the six CLDR categories in their
// conventional documentation order, used to keep Categories' output stable.
var canonicalCategoryOrder = []Category{
	CategoryZero, CategoryOne, CategoryTwo, CategoryFew, CategoryMany, CategoryOther,
}

// Categories returns every distinct plural category this resolver's rule
// set can produce, in canonical order. Used by the call-site handler to
// compute the union of categories a key family must cover, and to detect
// the primary-language "only other" fast path.
func (r *Resolver) Categories(ordinal bool) []Category {
	rule := r.cardinal
	if ordinal {
		rule = r.ordinal
	}
	seen := make(map[Category]bool, len(canonicalCategoryOrder))
	for _, n := range categoryProbeSet {
		seen[rule(n)] = true
	}
	out := make([]Category, 0, len(seen))
	for _, c := range canonicalCategoryOrder {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out
}

// UnionCategories returns every plural category that appears across any of
// locales (falling back to English rules for an unrecognized one), in
// canonical order. Used by the call-site and JSX handlers to compute the
// full set of suffixes a plural key family must cover.
func UnionCategories(locales []string, ordinal bool) []Category {
	seen := make(map[Category]bool, len(canonicalCategoryOrder))
	for _, locale := range locales {
		r := NewResolver(locale)
		for _, c := range r.Categories(ordinal) {
			seen[c] = true
		}
	}
	out := make([]Category, 0, len(seen))
	for _, c := range canonicalCategoryOrder {
		if seen[c] {
			out = append(out, c)
		}
	}
	return out
}
