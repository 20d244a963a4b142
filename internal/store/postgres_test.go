package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"janseva/api/internal/complaint"
)

func TestPostgresSlotRoundTrip(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("JANSEVA_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("JANSEVA_TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, migrationsDir); err != nil {
		t.Fatalf("ApplyMigrations() error = %v", err)
	}
	// Second pass must be a no-op.
	if err := ApplyMigrations(ctx, db, migrationsDir); err != nil {
		t.Fatalf("ApplyMigrations() second pass error = %v", err)
	}

	slot := NewPostgresSlot(db)
	if _, err := slot.Load(ctx, "profile:pg:complaints"); !errors.Is(err, ErrSlotEmpty) {
		t.Fatalf("Load() on empty slot error = %v", err)
	}

	records := New(slot).Records("pg")
	seed := complaint.Seed()
	for i := len(seed) - 1; i >= 0; i-- {
		if err := records.Create(ctx, seed[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	got := records.List(ctx)
	if len(got) != len(seed) || got[0].ID != seed[0].ID {
		t.Fatalf("unexpected list: %+v", got)
	}

	removed, err := records.Delete(ctx, seed[0].ID)
	if err != nil || !removed {
		t.Fatalf("Delete() = %v, %v", removed, err)
	}
	if len(records.List(ctx)) != len(seed)-1 {
		t.Fatal("expected one record removed")
	}
}
