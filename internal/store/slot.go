// Package store persists complaint records and feedback entries. Each
// profile owns one keyed slot per collection, and every slot holds a JSON
// array that is always read and written whole.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	// ErrSlotEmpty is returned by Slot.Load when nothing was ever saved
	// under the key.
	ErrSlotEmpty = errors.New("slot empty")
	// ErrCorruptSlot is returned by writers when the current slot content
	// cannot be decoded; the content is left untouched.
	ErrCorruptSlot = errors.New("slot content is not a valid JSON array")
	// ErrNoJournal is returned for history lookups on a backend that keeps
	// only the latest value.
	ErrNoJournal = errors.New("slot backend keeps no history")
)

// Slot is a durable key/value cell. Implementations only need whole-value
// reads and writes.
type Slot interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}

// Journal is implemented by slots that keep earlier versions of a key.
type Journal interface {
	History(ctx context.Context, key string, limit int) ([]Revision, error)
	Revision(ctx context.Context, key, hash string) ([]byte, error)
}

const (
	complaintsSlot = "complaints"
	feedbackSlot   = "complaint_feedback"
	DefaultProfile = "default"
)

func slotKey(profile, name string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = DefaultProfile
	}
	return "profile:" + profile + ":" + name
}

// MemorySlot keeps values in process memory. Used in tests and when no
// backend is configured.
type MemorySlot struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string][]byte)}
}

func (m *MemorySlot) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), value...), nil
}

func (m *MemorySlot) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemorySlot) Ping(context.Context) error { return nil }

// Store hands out profile-scoped record stores and feedback ledgers that
// share one backend. Writers to the same key are serialized in-process;
// writers in other processes still race (last write wins).
type Store struct {
	slot   Slot
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

func New(slot Slot) *Store {
	return &Store{slot: slot, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) Records(profile string) *RecordStore {
	key := slotKey(profile, complaintsSlot)
	return &RecordStore{slot: s.slot, key: key, lock: s.keyLock(key)}
}

func (s *Store) Feedback(profile string) *FeedbackLedger {
	key := slotKey(profile, feedbackSlot)
	return &FeedbackLedger{slot: s.slot, key: key, lock: s.keyLock(key)}
}

func (s *Store) Slot() Slot {
	return s.slot
}

func (s *Store) Ping(ctx context.Context) error {
	return s.slot.Ping(ctx)
}

func (s *Store) keyLock(key string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[key]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[key] = lock
	return lock
}
