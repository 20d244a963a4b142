package projection

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"janseva/api/internal/complaint"
)

func ids(records []complaint.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func fixtures() []complaint.Record {
	extra := complaint.Record{
		ID:             "1772361000000",
		Subject:        "Pothole on Main Street",
		Department:     complaint.DeptRoadsTraffic,
		Status:         complaint.StatusInProgress,
		RegisteredDate: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		Progress:       complaint.InitialProgress,
	}
	return append([]complaint.Record{extra}, complaint.Seed()...)
}

func TestProject(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "everything by date",
			filter: Filter{},
			want:   []string{"1772361000000", "2025-12346", "2025-12345", "2025-12344", "2025-12343"},
		},
		{
			name:   "resolved only",
			filter: Filter{Status: string(complaint.StatusResolved)},
			want:   []string{"2025-12345", "2025-12344"},
		},
		{
			name:   "all sentinel",
			filter: Filter{Status: "ALL"},
			want:   []string{"1772361000000", "2025-12346", "2025-12345", "2025-12344", "2025-12343"},
		},
		{
			name:   "search subject case insensitive",
			filter: Filter{Search: "POTHOLE"},
			want:   []string{"1772361000000", "2025-12345"},
		},
		{
			name:   "search id",
			filter: Filter{Search: "12344"},
			want:   []string{"2025-12344"},
		},
		{
			name:   "no match",
			filter: Filter{Search: "volcano"},
			want:   []string{},
		},
		{
			name:   "priority order with unranked last",
			filter: Filter{Sort: SortPriority},
			want:   []string{"2025-12346", "2025-12343", "2025-12345", "2025-12344", "1772361000000"},
		},
		{
			name:   "status and search combined",
			filter: Filter{Search: "pothole", Status: string(complaint.StatusResolved)},
			want:   []string{"2025-12345"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Project(fixtures(), tt.filter))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Project() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProjectByDateIsNonIncreasing(t *testing.T) {
	got := Project(fixtures(), Filter{Sort: SortDate})
	for i := 1; i < len(got); i++ {
		if got[i].RegisteredDate.After(got[i-1].RegisteredDate) {
			t.Fatalf("record %d is newer than record %d", i, i-1)
		}
	}
}

func TestProjectIsPureAndIdempotent(t *testing.T) {
	records := fixtures()
	before := ids(records)
	filter := Filter{Sort: SortPriority}

	once := Project(records, filter)
	twice := Project(once, filter)
	if !reflect.DeepEqual(ids(once), ids(twice)) {
		t.Fatalf("projection not idempotent: %v vs %v", ids(once), ids(twice))
	}
	if !reflect.DeepEqual(ids(records), before) {
		t.Fatal("Project() reordered its input")
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		search  string
		status  string
		sort    string
		want    Filter
		wantErr bool
	}{
		{name: "snake status and priority", search: "  leak ", status: "in_progress", sort: "PRIORITY", want: Filter{Search: "leak", Status: string(complaint.StatusInProgress), Sort: SortPriority}},
		{name: "defaults", sort: "bogus", want: Filter{Status: StatusAll, Sort: SortDate}},
		{name: "all sentinel", status: "ALL", want: Filter{Status: StatusAll, Sort: SortDate}},
		{name: "display status", status: "Resolved", want: Filter{Status: string(complaint.StatusResolved), Sort: SortDate}},
		{name: "unknown status", status: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.search, tt.status, tt.sort)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownStatus) {
					t.Fatalf("ParseFilter() error = %v, want ErrUnknownStatus", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFilter() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseFilter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMatchesText(t *testing.T) {
	record := complaint.Seed()[1]
	for text, want := range map[string]bool{"THOLE": true, "": true, "2025-123": true, "Market Area": false} {
		if got := MatchesText(record, text); got != want {
			t.Errorf("MatchesText(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(fixtures())
	if summary.Total != 5 || summary.Resolved != 2 || summary.InProgress != 2 {
		t.Fatalf("Summarize() counts = %+v", summary)
	}
	want := []string{"1772361000000", "2025-12346", "2025-12345"}
	if !reflect.DeepEqual(ids(summary.Recent), want) {
		t.Fatalf("Summarize() recent = %v, want %v", ids(summary.Recent), want)
	}
}
