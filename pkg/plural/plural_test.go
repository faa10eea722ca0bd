package plural

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_EnglishCardinal(t *testing.T) {
	r := NewResolver("en")
	require.False(t, r.UsedFallback())
	assert.Equal(t, CategoryOne, r.Category(1, false))
	assert.Equal(t, CategoryOther, r.Category(0, false))
	assert.Equal(t, CategoryOther, r.Category(2, false))
}

func TestResolver_FrenchCardinalTreatsZeroAsOne(t *testing.T) {
	r := NewResolver("fr")
	assert.Equal(t, CategoryOne, r.Category(0, false))
	assert.Equal(t, CategoryOne, r.Category(1, false))
	assert.Equal(t, CategoryOther, r.Category(2, false))
}

func TestResolver_RussianCardinalThreeCategories(t *testing.T) {
	r := NewResolver("ru")
	assert.Equal(t, CategoryOne, r.Category(1, false))
	assert.Equal(t, CategoryOne, r.Category(21, false))
	assert.Equal(t, CategoryFew, r.Category(2, false))
	assert.Equal(t, CategoryFew, r.Category(3, false))
	assert.Equal(t, CategoryMany, r.Category(5, false))
	assert.Equal(t, CategoryMany, r.Category(11, false))
}

func TestResolver_ArabicCardinalSixCategories(t *testing.T) {
	r := NewResolver("ar")
	assert.Equal(t, CategoryZero, r.Category(0, false))
	assert.Equal(t, CategoryOne, r.Category(1, false))
	assert.Equal(t, CategoryTwo, r.Category(2, false))
	assert.Equal(t, CategoryFew, r.Category(5, false))
	assert.Equal(t, CategoryMany, r.Category(15, false))
	assert.Equal(t, CategoryOther, r.Category(100, false))
}

func TestResolver_NoPluralLanguageAlwaysOther(t *testing.T) {
	r := NewResolver("ja")
	assert.Equal(t, CategoryOther, r.Category(0, false))
	assert.Equal(t, CategoryOther, r.Category(1, false))
	assert.Equal(t, CategoryOther, r.Category(100, false))
}

func TestResolver_EnglishOrdinal(t *testing.T) {
	r := NewResolver("en")
	assert.Equal(t, CategoryOne, r.Category(1, true))
	assert.Equal(t, CategoryTwo, r.Category(2, true))
	assert.Equal(t, CategoryFew, r.Category(3, true))
	assert.Equal(t, CategoryOther, r.Category(4, true))
	assert.Equal(t, CategoryOther, r.Category(11, true))
	assert.Equal(t, CategoryOther, r.Category(12, true))
	assert.Equal(t, CategoryOther, r.Category(13, true))
}

func TestResolver_UnrecognizedLocaleFallsBackToEnglishCardinal(t *testing.T) {
	r := NewResolver("xx-ZZZZZ-unknown")
	assert.True(t, r.UsedFallback())
	assert.Equal(t, CategoryOne, r.Category(1, false))
	assert.Equal(t, CategoryOther, r.Category(5, false))
}

func TestResolver_RegionalVariantMatchesBaseLanguage(t *testing.T) {
	r := NewResolver("en-US")
	require.False(t, r.UsedFallback())
	assert.Equal(t, CategoryOne, r.Category(1, false))
}

func TestCategories_EnglishCardinalHasTwoCategories(t *testing.T) {
	r := NewResolver("en")
	assert.Equal(t, []Category{CategoryOne, CategoryOther}, r.Categories(false))
}

func TestCategories_JapaneseCardinalIsOnlyOther(t *testing.T) {
	r := NewResolver("ja")
	assert.Equal(t, []Category{CategoryOther}, r.Categories(false))
}

func TestCategories_RussianCardinalHasThreeCategories(t *testing.T) {
	r := NewResolver("ru")
	assert.Equal(t, []Category{CategoryOne, CategoryFew, CategoryMany}, r.Categories(false))
}

func TestCategories_ArabicCardinalHasSixCategories(t *testing.T) {
	r := NewResolver("ar")
	assert.Equal(t, []Category{CategoryZero, CategoryOne, CategoryTwo, CategoryFew, CategoryMany, CategoryOther}, r.Categories(false))
}

func TestCategories_EnglishOrdinalHasFourCategories(t *testing.T) {
	r := NewResolver("en")
	assert.Equal(t, []Category{CategoryOne, CategoryTwo, CategoryFew, CategoryOther}, r.Categories(true))
}

func TestUnionCategories_CombinesAcrossLocales(t *testing.T) {
	got := UnionCategories([]string{"en", "ru"}, false)
	assert.Equal(t, []Category{CategoryOne, CategoryFew, CategoryMany, CategoryOther}, got)
}

func TestUnionCategories_SingleJapaneseLocaleIsOnlyOther(t *testing.T) {
	got := UnionCategories([]string{"ja"}, false)
	assert.Equal(t, []Category{CategoryOther}, got)
}
