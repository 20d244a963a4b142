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

// FeedbackLedger is an append-only list of satisfaction entries. At most one
// entry per complaint is intended but only checked by callers through
// HasFeedback; Submit itself appends unconditionally.
type FeedbackLedger struct {
	slot Slot
	key  string
	lock *sync.Mutex
}

func (l *FeedbackLedger) List(ctx context.Context) []complaint.Feedback {
	entries, err := l.read(ctx)
	if err != nil {
		log.Printf("store: list %s: %v", l.key, err)
		return []complaint.Feedback{}
	}
	return entries
}

func (l *FeedbackLedger) HasFeedback(ctx context.Context, complaintID string) bool {
	for _, entry := range l.List(ctx) {
		if entry.ComplaintID == complaintID {
			return true
		}
	}
	return false
}

func (l *FeedbackLedger) Submit(ctx context.Context, entry complaint.Feedback) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	entries, err := l.read(ctx)
	if err != nil {
		return fmt.Errorf("submit feedback for %s: %w", entry.ComplaintID, err)
	}
	entries = append(entries, entry)
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	if err := l.slot.Save(ctx, l.key, payload); err != nil {
		return fmt.Errorf("save feedback: %w", err)
	}
	return nil
}

func (l *FeedbackLedger) read(ctx context.Context) ([]complaint.Feedback, error) {
	raw, err := l.slot.Load(ctx, l.key)
	if errors.Is(err, ErrSlotEmpty) {
		return []complaint.Feedback{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	var entries []complaint.Feedback
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSlot, err)
	}
	if entries == nil {
		entries = []complaint.Feedback{}
	}
	return entries, nil
}
