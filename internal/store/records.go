package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"janseva/api/internal/complaint"
)

// RecordStore is the complaint list of one profile, most recent first.
type RecordStore struct {
	slot Slot
	key  string
	lock *sync.Mutex
}

// List never fails: a missing, unreadable or malformed slot reads as an
// empty list.
func (s *RecordStore) List(ctx context.Context) []complaint.Record {
	records, err := s.read(ctx)
	if err != nil {
		log.Printf("store: list %s: %v", s.key, err)
		return []complaint.Record{}
	}
	return records
}

// Create prepends record and writes the whole list back.
func (s *RecordStore) Create(ctx context.Context, record complaint.Record) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	records, err := s.read(ctx)
	if err != nil {
		return fmt.Errorf("create complaint %s: %w", record.ID, err)
	}
	updated := make([]complaint.Record, 0, len(records)+1)
	updated = append(updated, complaint.Normalize(record))
	updated = append(updated, records...)
	return s.write(ctx, updated)
}

// Delete removes the record with the given id and reports whether one was
// present. The list is rewritten either way.
func (s *RecordStore) Delete(ctx context.Context, id string) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	records, err := s.read(ctx)
	if err != nil {
		return false, fmt.Errorf("delete complaint %s: %w", id, err)
	}
	kept := make([]complaint.Record, 0, len(records))
	removed := false
	for _, record := range records {
		if record.ID == id {
			removed = true
			continue
		}
		kept = append(kept, record)
	}
	if err := s.write(ctx, kept); err != nil {
		return false, err
	}
	return removed, nil
}

// History lists earlier versions of the list when the backend journals them.
func (s *RecordStore) History(ctx context.Context, limit int) ([]Revision, error) {
	journal, ok := s.slot.(Journal)
	if !ok {
		return nil, ErrNoJournal
	}
	return journal.History(ctx, s.key, limit)
}

// At decodes the list as it was saved in revision hash.
func (s *RecordStore) At(ctx context.Context, hash string) ([]complaint.Record, error) {
	journal, ok := s.slot.(Journal)
	if !ok {
		return nil, ErrNoJournal
	}
	raw, err := journal.Revision(ctx, s.key, hash)
	if errors.Is(err, ErrSlotEmpty) {
		return []complaint.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	var records []complaint.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSlot, err)
	}
	if records == nil {
		records = []complaint.Record{}
	}
	return records, nil
}

func (s *RecordStore) read(ctx context.Context) ([]complaint.Record, error) {
	raw, err := s.slot.Load(ctx, s.key)
	if errors.Is(err, ErrSlotEmpty) {
		return []complaint.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	var records []complaint.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSlot, err)
	}
	if records == nil {
		records = []complaint.Record{}
	}
	return records, nil
}

func (s *RecordStore) write(ctx context.Context, records []complaint.Record) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal complaints: %w", err)
	}
	if err := s.slot.Save(ctx, s.key, payload); err != nil {
		return fmt.Errorf("save complaints: %w", err)
	}
	return nil
}
