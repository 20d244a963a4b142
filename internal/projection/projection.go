// Package projection derives the filtered and sorted views list screens show.
package projection

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"janseva/api/internal/complaint"
)

type SortKey string

const (
	SortDate     SortKey = "date"
	SortPriority SortKey = "priority"

	// StatusAll disables the status filter.
	StatusAll = "all"
)

// ErrUnknownStatus is returned by ParseFilter for a status that is neither a
// complaint status nor StatusAll.
var ErrUnknownStatus = errors.New("unknown status filter")

type Filter struct {
	Search string
	Status string
	Sort   SortKey
}

// ParseFilter builds a Filter from loose query values. Unknown sort keys fall
// back to date; status accepts display or snake_case forms, blank or "all".
// Any other status is rejected with ErrUnknownStatus.
func ParseFilter(search, status, sortKey string) (Filter, error) {
	f := Filter{Search: strings.TrimSpace(search), Status: StatusAll, Sort: SortDate}
	if SortKey(strings.ToLower(strings.TrimSpace(sortKey))) == SortPriority {
		f.Sort = SortPriority
	}

	status = strings.TrimSpace(status)
	if status == "" || strings.EqualFold(status, StatusAll) {
		return f, nil
	}
	parsed, ok := complaint.ParseStatus(status)
	if !ok {
		return Filter{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	f.Status = string(parsed)
	return f, nil
}

// Project returns a new slice holding the records that pass f, ordered by
// f.Sort. records is never modified.
func Project(records []complaint.Record, f Filter) []complaint.Record {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]complaint.Record, 0, len(records))
	for _, record := range records {
		if !matchesStatus(record, f.Status) {
			continue
		}
		if needle != "" && !matchesText(record, needle) {
			continue
		}
		out = append(out, record)
	}

	switch f.Sort {
	case SortPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority.Rank() < out[j].Priority.Rank()
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RegisteredDate.After(out[j].RegisteredDate)
		})
	}
	return out
}

func matchesStatus(record complaint.Record, status string) bool {
	if status == "" || strings.EqualFold(status, StatusAll) {
		return true
	}
	return string(record.Status) == status
}

// MatchesText reports whether text occurs, ignoring case, in the id or subject
// of record. Blank text matches everything.
func MatchesText(record complaint.Record, text string) bool {
	needle := strings.ToLower(strings.TrimSpace(text))
	return needle == "" || matchesText(record, needle)
}

func matchesText(record complaint.Record, needle string) bool {
	return strings.Contains(strings.ToLower(record.ID), needle) ||
		strings.Contains(strings.ToLower(record.Subject), needle)
}

// Summary holds the dashboard counters.
type Summary struct {
	Total      int                `json:"total"`
	Resolved   int                `json:"resolved"`
	InProgress int                `json:"inProgress"`
	Recent     []complaint.Record `json:"recent"`
}

const recentLimit = 3

// Summarize counts records by status and keeps the three newest.
func Summarize(records []complaint.Record) Summary {
	summary := Summary{Total: len(records)}
	for _, record := range records {
		switch record.Status {
		case complaint.StatusResolved:
			summary.Resolved++
		case complaint.StatusInProgress:
			summary.InProgress++
		}
	}
	newest := Project(records, Filter{Sort: SortDate})
	if len(newest) > recentLimit {
		newest = newest[:recentLimit]
	}
	summary.Recent = newest
	return summary
}
