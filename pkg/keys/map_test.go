package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyMap_AddMergesByIdentity(t *testing.T) {
	m := New()
	m.Add(ExtractedKey{
		Key: "greeting", Namespace: "common",
		DefaultValue: "Hello", HasDefault: true,
		Locations: []Location{{FilePath: "a.ts", StartLine: 1}},
	})
	m.Add(ExtractedKey{
		Key: "greeting", Namespace: "common",
		DefaultValue: "Hi", HasDefault: true, // later default must not win
		Locations: []Location{{FilePath: "b.ts", StartLine: 2}},
	})

	require.Equal(t, 1, m.Len())
	rec, ok := m.Get("common", "greeting")
	require.True(t, ok)
	assert.Equal(t, "Hello", rec.DefaultValue)
	assert.Len(t, rec.Locations, 2)
}

func TestKeyMap_ExplicitDefaultIsSticky(t *testing.T) {
	m := New()
	m.Add(ExtractedKey{Key: "save", Namespace: "ns", ExplicitDefault: false})
	m.Add(ExtractedKey{Key: "save", Namespace: "ns", ExplicitDefault: true})
	m.Add(ExtractedKey{Key: "save", Namespace: "ns", ExplicitDefault: false})

	rec, ok := m.Get("ns", "save")
	require.True(t, ok)
	assert.True(t, rec.ExplicitDefault)
}

func TestKeyMap_HasCountAndOrdinalAreSticky(t *testing.T) {
	m := New()
	m.Add(ExtractedKey{Key: "item", Namespace: "ns"})
	m.Add(ExtractedKey{Key: "item", Namespace: "ns", HasCount: true, IsOrdinal: true})
	m.Add(ExtractedKey{Key: "item", Namespace: "ns"})

	rec, ok := m.Get("ns", "item")
	require.True(t, ok)
	assert.True(t, rec.HasCount)
	assert.True(t, rec.IsOrdinal)
}

func TestKeyMap_DropsEmptyKeys(t *testing.T) {
	m := New()
	m.Add(ExtractedKey{Key: "", Namespace: "ns"})
	assert.Equal(t, 0, m.Len())
}

func TestKeyMap_NamespaceWithColonDoesNotCollide(t *testing.T) {
	// Identity uses a NUL separator, not ':', so a namespace containing a
	// literal colon can't collide with a different namespace/key split.
	m := New()
	m.Add(ExtractedKey{Key: "b", Namespace: "a:x"})
	m.Add(ExtractedKey{Key: "x:b", Namespace: "a"})
	assert.Equal(t, 2, m.Len())
}

func TestKeyMap_SortedRecordsOrdersByLocation(t *testing.T) {
	m := New()
	m.Add(ExtractedKey{Key: "b", Namespace: "ns", Locations: []Location{{FilePath: "z.ts", StartLine: 1, StartColumn: 1}}})
	m.Add(ExtractedKey{Key: "a", Namespace: "ns", Locations: []Location{{FilePath: "a.ts", StartLine: 5, StartColumn: 1}}})
	m.Add(ExtractedKey{Key: "c", Namespace: "ns", Locations: []Location{{FilePath: "a.ts", StartLine: 1, StartColumn: 1}}})

	sorted := m.SortedRecords()
	require.Len(t, sorted, 3)
	assert.Equal(t, "c", sorted[0].Key)
	assert.Equal(t, "a", sorted[1].Key)
	assert.Equal(t, "b", sorted[2].Key)
}

func TestKeyMap_MergeIsAssociative(t *testing.T) {
	fileA := New()
	fileA.Add(ExtractedKey{Key: "x", Namespace: "ns", HasDefault: true, DefaultValue: "X"})

	fileB := New()
	fileB.Add(ExtractedKey{Key: "x", Namespace: "ns", ExplicitDefault: true})
	fileB.Add(ExtractedKey{Key: "y", Namespace: "ns"})

	accumulator := New()
	accumulator.Merge(fileA)
	accumulator.Merge(fileB)

	require.Equal(t, 2, accumulator.Len())
	rec, _ := accumulator.Get("ns", "x")
	assert.Equal(t, "X", rec.DefaultValue)
	assert.True(t, rec.ExplicitDefault)
}

func TestExtractedKey_Identity(t *testing.T) {
	k := ExtractedKey{Namespace: "common", Key: "a.b"}
	assert.Equal(t, "common\x00a.b", k.Identity())
}
