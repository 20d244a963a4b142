package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"janseva/api/internal/complaint"
)

func sampleRecord(id string) complaint.Record {
	return complaint.Record{
		ID:             id,
		Subject:        "Broken street light " + id,
		Department:     complaint.DeptElectricity,
		Status:         complaint.StatusInProgress,
		RegisteredDate: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Progress:       complaint.InitialProgress,
		Location:       "Ward 9",
		Attachments:    []complaint.Attachment{},
	}
}

func TestRecordStoreListEmpty(t *testing.T) {
	records := New(NewMemorySlot()).Records("")
	got := records.List(context.Background())
	if got == nil || len(got) != 0 {
		t.Fatalf("List() = %#v, want empty non-nil list", got)
	}
}

func TestRecordStoreCreatePrepends(t *testing.T) {
	ctx := context.Background()
	records := New(NewMemorySlot()).Records("asha")

	for _, id := range []string{"1", "2", "3"} {
		if err := records.Create(ctx, sampleRecord(id)); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	got := records.List(ctx)
	if len(got) != 3 {
		t.Fatalf("len(List()) = %d", len(got))
	}
	for i, want := range []string{"3", "2", "1"} {
		if got[i].ID != want {
			t.Fatalf("List()[%d].ID = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestRecordStoreDelete(t *testing.T) {
	ctx := context.Background()
	records := New(NewMemorySlot()).Records("asha")
	for _, id := range []string{"1", "2"} {
		if err := records.Create(ctx, sampleRecord(id)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	removed, err := records.Delete(ctx, "1")
	if err != nil || !removed {
		t.Fatalf("Delete(1) = %v, %v", removed, err)
	}
	removed, err = records.Delete(ctx, "missing")
	if err != nil || removed {
		t.Fatalf("Delete(missing) = %v, %v", removed, err)
	}

	got := records.List(ctx)
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("List() after delete = %+v", got)
	}
}

func TestRecordStoreCorruptSlot(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	store := New(slot)
	records := store.Records("asha")
	key := slotKey("asha", complaintsSlot)
	if err := slot.Save(ctx, key, []byte(`{"not":"a list"`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if got := records.List(ctx); len(got) != 0 {
		t.Fatalf("List() on corrupt slot = %+v", got)
	}
	if err := records.Create(ctx, sampleRecord("1")); !errors.Is(err, ErrCorruptSlot) {
		t.Fatalf("Create() error = %v, want ErrCorruptSlot", err)
	}
	if _, err := records.Delete(ctx, "1"); !errors.Is(err, ErrCorruptSlot) {
		t.Fatalf("Delete() error = %v, want ErrCorruptSlot", err)
	}

	raw, _ := slot.Load(ctx, key)
	if string(raw) != `{"not":"a list"` {
		t.Fatalf("corrupt content was overwritten: %s", raw)
	}
}

func TestRecordStoreNormalizesLegacyEntries(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	legacy := `[{"id":"#77","title":"Overflowing drain","category":"Sanitation","status":"resolved","date":"2025-02-01","progress":100}]`
	if err := slot.Save(ctx, slotKey("asha", complaintsSlot), []byte(legacy)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got := New(slot).Records("asha").List(ctx)
	if len(got) != 1 {
		t.Fatalf("List() = %+v", got)
	}
	if got[0].ID != "77" || got[0].Subject != "Overflowing drain" || got[0].Status != complaint.StatusResolved {
		t.Fatalf("legacy entry not normalized: %+v", got[0])
	}
}

func TestProfilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := New(NewMemorySlot())
	if err := store.Records("asha").Create(ctx, sampleRecord("1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := store.Records("ravi").List(ctx); len(got) != 0 {
		t.Fatalf("other profile sees records: %+v", got)
	}
	if got := store.Records("").List(ctx); len(got) != 0 {
		t.Fatalf("default profile sees records: %+v", got)
	}
}

func TestConcurrentCreatesInOneProcessAreSerialized(t *testing.T) {
	ctx := context.Background()
	store := New(NewMemorySlot())

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Records("asha").Create(ctx, sampleRecord(fmt.Sprintf("%d", i))); err != nil {
				t.Errorf("Create() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := store.Records("asha").List(ctx); len(got) != writers {
		t.Fatalf("len(List()) = %d, want %d", len(got), writers)
	}
}

func TestSeparateStoresOnOneSlotLastWriteWins(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	first := New(slot).Records("asha")
	second := New(slot).Records("asha")

	// Both writers read the empty list before either writes.
	stale := first.List(ctx)
	if err := second.Create(ctx, sampleRecord("2")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := first.write(ctx, append([]complaint.Record{sampleRecord("1")}, stale...)); err != nil {
		t.Fatalf("write() error = %v", err)
	}

	got := second.List(ctx)
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("List() = %+v, want only the last write", got)
	}
}

func TestRecordStoreHistoryNeedsJournal(t *testing.T) {
	records := New(NewMemorySlot()).Records("asha")
	if _, err := records.History(context.Background(), 10); !errors.Is(err, ErrNoJournal) {
		t.Fatalf("History() error = %v, want ErrNoJournal", err)
	}
}

func TestFeedbackLedger(t *testing.T) {
	ctx := context.Background()
	ledger := New(NewMemorySlot()).Feedback("asha")

	if ledger.HasFeedback(ctx, "2025-12345") {
		t.Fatal("expected no feedback yet")
	}
	entry := complaint.Feedback{
		ID:          "f-1",
		ComplaintID: "2025-12345",
		Rating:      4,
		Feedback:    "Pothole filled",
		SubmittedAt: time.Now().UTC(),
	}
	if err := ledger.Submit(ctx, entry); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !ledger.HasFeedback(ctx, "2025-12345") {
		t.Fatal("expected feedback after submit")
	}
	if ledger.HasFeedback(ctx, "2025-12346") {
		t.Fatal("feedback leaked to another complaint")
	}

	// Duplicates are appended; callers check HasFeedback first.
	if err := ledger.Submit(ctx, entry); err != nil {
		t.Fatalf("Submit() duplicate error = %v", err)
	}
	if got := ledger.List(ctx); len(got) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(got))
	}
}

func TestFeedbackLedgerCorruptSlot(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	if err := slot.Save(ctx, slotKey("asha", feedbackSlot), []byte("nope")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	ledger := New(slot).Feedback("asha")
	if ledger.HasFeedback(ctx, "1") {
		t.Fatal("corrupt ledger reports feedback")
	}
	if err := ledger.Submit(ctx, complaint.Feedback{ComplaintID: "1", Rating: 3, Feedback: "ok"}); !errors.Is(err, ErrCorruptSlot) {
		t.Fatalf("Submit() error = %v, want ErrCorruptSlot", err)
	}
}
