// Package reconcile merges a profile's stored complaints with the demo seed
// set into the one list every screen reads.
package reconcile

import (
	"sort"
	"strings"

	"janseva/api/internal/complaint"
)

// Merge returns stored followed by every seed record whose id is not already
// stored, each group in its input order. Neither input is modified.
func Merge(stored, seed []complaint.Record) []complaint.Record {
	ids := make(map[string]struct{}, len(stored))
	merged := make([]complaint.Record, 0, len(stored)+len(seed))
	for _, record := range stored {
		if _, dup := ids[record.ID]; dup {
			continue
		}
		ids[record.ID] = struct{}{}
		merged = append(merged, record)
	}
	for _, record := range seed {
		if _, ok := ids[record.ID]; ok {
			continue
		}
		ids[record.ID] = struct{}{}
		merged = append(merged, record)
	}
	return merged
}

// SortByDate orders a copy of records newest first. Equal dates keep their
// merge order.
func SortByDate(records []complaint.Record) []complaint.Record {
	sorted := append([]complaint.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RegisteredDate.After(sorted[j].RegisteredDate)
	})
	return sorted
}

// Visible is the merged, newest-first list shown for a profile.
func Visible(stored []complaint.Record) []complaint.Record {
	return SortByDate(Merge(stored, complaint.Seed()))
}

// Find looks up id, tolerating the "#" prefix the tracking screen displays.
func Find(records []complaint.Record, id string) (complaint.Record, bool) {
	id = strings.TrimPrefix(strings.TrimSpace(id), "#")
	if id == "" {
		return complaint.Record{}, false
	}
	for _, record := range records {
		if record.ID == id {
			return record, true
		}
	}
	return complaint.Record{}, false
}

// IsSeed reports whether id belongs to the demo seed set.
func IsSeed(id string) bool {
	_, ok := Find(complaint.Seed(), id)
	return ok
}
