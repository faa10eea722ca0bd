package keys

import "sort"

// KeyMap is the accumulator the engine writes extracted records into. It
// maps each record's identity (ExtractedKey.Identity: namespace and key
// joined by a NUL byte) to one merged record.
//
// KeyMap is not safe for concurrent writes from multiple goroutines: the
// engine's worker pool (pkg/engine) gives each file visit its own KeyMap and
// folds them together sequentially in a dedicated merge step.
type KeyMap struct {
	records  map[string]*ExtractedKey
	order    []string // identity, in first-seen order: for deterministic SortedRecords
	Warnings []Warning
}

// New returns an empty KeyMap.
func New() *KeyMap {
	return &KeyMap{records: make(map[string]*ExtractedKey)}
}

// Add merges rec into the map under its identity: the earliest observed
// default is preserved, locations are appended, and
// ExplicitDefault/HasCount/IsOrdinal are sticky-true.
//
// A record whose Key is empty after namespace/prefix manipulation must
// never reach Add: callers drop it and emit a Warning instead.
func (m *KeyMap) Add(rec ExtractedKey) {
	if rec.Key == "" {
		return
	}

	id := rec.Identity()
	existing, ok := m.records[id]
	if !ok {
		copyRec := rec
		m.records[id] = &copyRec
		m.order = append(m.order, id)
		return
	}

	// Earliest observed default wins: never overwrite once set.
	if !existing.HasDefault && rec.HasDefault {
		existing.DefaultValue = rec.DefaultValue
		existing.HasDefault = true
	}

	existing.Locations = append(existing.Locations, rec.Locations...)

	if rec.ExplicitDefault {
		existing.ExplicitDefault = true
	}
	if rec.HasCount {
		existing.HasCount = true
	}
	if rec.IsOrdinal {
		existing.IsOrdinal = true
	}
	if rec.IsObjectKey {
		existing.IsObjectKey = true
	}
	if existing.KeyAcceptingContext == "" && rec.KeyAcceptingContext != "" {
		existing.KeyAcceptingContext = rec.KeyAcceptingContext
	}
}

// Warn records a non-fatal defect. The engine never aborts a file or
// batch because of a warning.
func (m *KeyMap) Warn(w Warning) {
	m.Warnings = append(m.Warnings, w)
}

// Get returns the merged record for a namespace:key identity, if present.
func (m *KeyMap) Get(namespace, key string) (*ExtractedKey, bool) {
	rec, ok := m.records[namespace+"\x00"+key]
	return rec, ok
}

// Len returns the number of distinct records in the map.
func (m *KeyMap) Len() int {
	return len(m.records)
}

// Records returns all merged records in first-seen insertion order (not
// source order, since records can arrive from files processed out of
// order).
func (m *KeyMap) Records() []*ExtractedKey {
	out := make([]*ExtractedKey, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.records[id])
	}
	return out
}

// SortedRecords returns all merged records sorted by their first location's
// (file, line, column), for callers that want stable cross-file ordering
// without relying on insertion order. Records with no locations sort last,
// by namespace:key identity.
func (m *KeyMap) SortedRecords() []*ExtractedKey {
	out := m.Records()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		la, haveA := firstLocation(a)
		lb, haveB := firstLocation(b)
		if !haveA || !haveB {
			if haveA != haveB {
				return haveA
			}
			return a.Identity() < b.Identity()
		}
		if la.FilePath != lb.FilePath {
			return la.FilePath < lb.FilePath
		}
		if la.StartLine != lb.StartLine {
			return la.StartLine < lb.StartLine
		}
		return la.StartColumn < lb.StartColumn
	})
	return out
}

func firstLocation(rec *ExtractedKey) (Location, bool) {
	if len(rec.Locations) == 0 {
		return Location{}, false
	}
	return rec.Locations[0], true
}

// Merge folds other's records and warnings into m, applying the same
// merge rules Add does. Used by the engine to fold per-file KeyMaps into
// one batch-level accumulator.
func (m *KeyMap) Merge(other *KeyMap) {
	if other == nil {
		return
	}
	for _, id := range other.order {
		m.Add(*other.records[id])
	}
	m.Warnings = append(m.Warnings, other.Warnings...)
}
