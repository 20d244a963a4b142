package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGitSlotSaveAndHistory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	slot, err := NewGitSlot(dir)
	if err != nil {
		t.Fatalf("NewGitSlot() error = %v", err)
	}
	if err := slot.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	records := New(slot).Records("asha")
	history, err := records.History(ctx, 10)
	if err != nil || len(history) != 0 {
		t.Fatalf("History() on fresh repo = %+v, %v", history, err)
	}

	if err := records.Create(ctx, sampleRecord("1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := records.Create(ctx, sampleRecord("2")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "profile_3Aasha_3Acomplaints.json")); err != nil {
		t.Fatalf("journal file missing: %v", err)
	}

	history, err = records.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("len(History()) = %d, want 2", len(history))
	}

	older, err := records.At(ctx, history[1].Hash)
	if err != nil {
		t.Fatalf("At() error = %v", err)
	}
	if len(older) != 1 || older[0].ID != "1" {
		t.Fatalf("At(older) = %+v", older)
	}
	if got := records.List(ctx); len(got) != 2 || got[0].ID != "2" {
		t.Fatalf("List() = %+v", got)
	}
}

func TestGitSlotSkipsUnchangedSave(t *testing.T) {
	ctx := context.Background()
	slot, err := NewGitSlot(t.TempDir())
	if err != nil {
		t.Fatalf("NewGitSlot() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := slot.Save(ctx, "profile:asha:complaint_feedback", []byte(`[]`)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	history, err := slot.History(ctx, "profile:asha:complaint_feedback", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(History()) = %d, want 1", len(history))
	}
}

func TestGitSlotKeysAreSeparateFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	slot, err := NewGitSlot(dir)
	if err != nil {
		t.Fatalf("NewGitSlot() error = %v", err)
	}
	if err := slot.Save(ctx, "profile:asha:complaints", []byte(`["a"]`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := slot.Load(ctx, "profile:ravi:complaints"); !errors.Is(err, ErrSlotEmpty) {
		t.Fatalf("Load() other key error = %v, want ErrSlotEmpty", err)
	}

	reopened, err := NewGitSlot(dir)
	if err != nil {
		t.Fatalf("reopen NewGitSlot() error = %v", err)
	}
	raw, err := reopened.Load(ctx, "profile:asha:complaints")
	if err != nil || string(raw) != `["a"]` {
		t.Fatalf("Load() after reopen = %q, %v", raw, err)
	}
}

func TestJournalFileName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{key: "profile:asha:complaints", want: "profile_3Aasha_3Acomplaints.json"},
		{key: "profile:a/b:complaints", want: "profile_3Aa_2Fb_3Acomplaints.json"},
		{key: "profile:a_b:complaints", want: "profile_3Aa_5Fb_3Acomplaints.json"},
		{key: "profile:../x:complaints", want: "profile_3A_2E_2E_2Fx_3Acomplaints.json"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := journalFile(tt.key); got != tt.want {
				t.Fatalf("journalFile(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestGitSlotProfilesWithLookalikeIDsStayApart(t *testing.T) {
	ctx := context.Background()
	slot, err := NewGitSlot(t.TempDir())
	if err != nil {
		t.Fatalf("NewGitSlot() error = %v", err)
	}
	dataStore := New(slot)

	if err := dataStore.Records("a:b").Create(ctx, sampleRecord("1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, profile := range []string{"a_b", "a-b", "a/b", "a.b"} {
		if got := dataStore.Records(profile).List(ctx); len(got) != 0 {
			t.Fatalf("profile %q sees %d complaints written by a:b", profile, len(got))
		}
	}
	if got := dataStore.Records("a:b").List(ctx); len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("a:b complaints = %+v", got)
	}
}
