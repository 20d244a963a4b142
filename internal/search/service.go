// Package search answers the complaint list's free-text filter. Meilisearch
// is used while it is reachable; otherwise the in-memory substring projection
// serves the same request.
package search

import (
	"log"
	"sync"

	"janseva/api/internal/complaint"
	"janseva/api/internal/projection"
)

// Engine is the subset of Meili the service depends on.
type Engine interface {
	Healthy() bool
	Epoch() uint64
	MatchingIDs(profile, text string) ([]string, error)
	Index(profile string, records ...complaint.Record) error
	Delete(profile, id string) error
}

// Service is the facade over the engine and projection.Project. Engine hits
// are candidates only: the substring rule of projection decides membership,
// so a record the index has not caught up with is still listed.
type Service struct {
	engine Engine

	mu     sync.Mutex
	synced map[string]uint64
}

// NewService creates a search service. engine may be nil when Meilisearch is
// not configured.
func NewService(engine Engine) *Service {
	return &Service{engine: engine, synced: make(map[string]uint64)}
}

// Response is the list envelope returned to clients.
type Response struct {
	Results []complaint.Record `json:"results"`
	Total   int                `json:"total"`
	Query   string             `json:"query"`
	Engine  string             `json:"engine"`
}

// List filters and sorts records, the reconciled list of profile. Records
// are pushed to the engine the first time profile is listed after the index
// was (re)configured.
func (s *Service) List(profile string, records []complaint.Record, f projection.Filter) Response {
	results := projection.Project(records, f)
	if !s.engineReady() {
		return Response{Results: results, Total: len(results), Query: f.Search, Engine: "projection"}
	}
	s.backfill(profile, records)
	if f.Search == "" {
		return Response{Results: results, Total: len(results), Query: f.Search, Engine: "projection"}
	}

	ids, err := s.engine.MatchingIDs(profile, f.Search)
	if err != nil {
		log.Printf("search: meilisearch error, falling back to projection: %v", err)
		return Response{Results: results, Total: len(results), Query: f.Search, Engine: "projection"}
	}

	hits := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		hits[id] = struct{}{}
	}
	merged := candidates(records, hits, f.Search)
	seen := make(map[string]struct{}, len(merged))
	for _, record := range merged {
		seen[record.ID] = struct{}{}
	}
	missing := make([]complaint.Record, 0)
	for _, record := range results {
		if _, ok := hits[record.ID]; !ok {
			missing = append(missing, record)
		}
		if _, ok := seen[record.ID]; !ok {
			merged = append(merged, record)
		}
	}
	if len(missing) > 0 {
		s.indexAsync(profile, missing)
	}

	rest := f
	rest.Search = ""
	results = projection.Project(merged, rest)
	return Response{Results: results, Total: len(results), Query: f.Search, Engine: "meilisearch"}
}

// Index pushes a complaint to the engine without blocking the caller.
func (s *Service) Index(profile string, record complaint.Record) {
	if !s.engineReady() {
		return
	}
	s.indexAsync(profile, []complaint.Record{record})
}

// Delete removes a complaint from the engine without blocking the caller.
func (s *Service) Delete(profile, id string) {
	if !s.engineReady() {
		return
	}
	go func() {
		if err := s.engine.Delete(profile, id); err != nil {
			log.Printf("search: delete complaint %s: %v", id, err)
		}
	}()
}

func (s *Service) engineReady() bool {
	return s.engine != nil && s.engine.Healthy()
}

func (s *Service) backfill(profile string, records []complaint.Record) {
	epoch := s.engine.Epoch()
	s.mu.Lock()
	if s.synced[profile] == epoch {
		s.mu.Unlock()
		return
	}
	s.synced[profile] = epoch
	s.mu.Unlock()

	s.indexAsync(profile, records)
}

func (s *Service) indexAsync(profile string, records []complaint.Record) {
	if len(records) == 0 {
		return
	}
	batch := append([]complaint.Record(nil), records...)
	go func() {
		if err := s.engine.Index(profile, batch...); err != nil {
			log.Printf("search: index %d complaints for %s: %v", len(batch), profile, err)
		}
	}()
}

// candidates keeps the records whose id the engine returned and which still
// pass the substring rule, preserving records' order.
func candidates(records []complaint.Record, hits map[string]struct{}, text string) []complaint.Record {
	out := make([]complaint.Record, 0, len(hits))
	for _, record := range records {
		if _, ok := hits[record.ID]; ok && projection.MatchesText(record, text) {
			out = append(out, record)
		}
	}
	return out
}
