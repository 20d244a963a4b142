package search

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"janseva/api/internal/complaint"
)

const (
	idxComplaints = "janseva_complaints"
	// seedProfile holds the demo complaints every profile sees.
	seedProfile = "_seed"
	hitLimit    = 200
)

// Document is what gets indexed for one complaint of one profile.
type Document struct {
	DocID       string `json:"docId"`
	ID          string `json:"id"`
	Profile     string `json:"profile"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Department  string `json:"department"`
	Status      string `json:"status"`
}

func documentFor(profile string, record complaint.Record) Document {
	return Document{
		DocID:       docID(profile, record.ID),
		ID:          record.ID,
		Profile:     profile,
		Subject:     record.Subject,
		Description: record.Description,
		Location:    record.Location,
		Department:  string(record.Department),
		Status:      string(record.Status),
	}
}

// docID builds a Meilisearch-safe primary key from profile and complaint id.
// Both parts are hex encoded so distinct pairs never collide.
func docID(profile, id string) string {
	return hex.EncodeToString([]byte(profile)) + "-" + hex.EncodeToString([]byte(id))
}

// Meili indexes complaints in Meilisearch and answers free-text queries.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	// epoch counts index (re)configurations; callers re-push their records
	// when it moves.
	epoch atomic.Uint64
	done  chan struct{}
}

// NewMeili creates a Meilisearch client and configures the complaint index.
// The returned value is usable even when the server is down; Healthy reports
// false until the background check sees it.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxComplaints,
		PrimaryKey: "docId",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxComplaints, err)
	}

	index := m.client.Index(idxComplaints)
	filterable := []interface{}{"profile", "status", "department"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs for %s: %v", idxComplaints, err)
	}
	searchable := []string{"id", "subject"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxComplaints, err)
	}
	if err := m.Index(seedProfile, complaint.Seed()...); err != nil {
		log.Printf("search: index seed complaints: %v", err)
	}
	m.epoch.Add(1)
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Epoch changes every time the index is configured, starting at 1.
func (m *Meili) Epoch() uint64 {
	return m.epoch.Load()
}

// MatchingIDs returns the ids of complaints visible to profile that match
// text, best match first.
func (m *Meili) MatchingIDs(profile, text string) ([]string, error) {
	if !m.healthy.Load() {
		return nil, fmt.Errorf("meilisearch unhealthy")
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{{
			IndexUID: idxComplaints,
			Query:    text,
			Limit:    hitLimit,
			Filter:   profileFilter(profile),
		}},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	ids := make([]string, 0)
	for _, result := range resp.Results {
		for _, hit := range result.Hits {
			if id := decodeString(hit, "id"); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func profileFilter(profile string) string {
	return fmt.Sprintf("profile = %q OR profile = %q", profile, seedProfile)
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// Index adds or updates complaints of profile.
func (m *Meili) Index(profile string, records ...complaint.Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]Document, 0, len(records))
	for _, record := range records {
		docs = append(docs, documentFor(profile, record))
	}
	_, err := m.client.Index(idxComplaints).AddDocuments(docs, nil)
	return err
}

// Delete removes one complaint of profile from the index.
func (m *Meili) Delete(profile, id string) error {
	_, err := m.client.Index(idxComplaints).DeleteDocument(docID(profile, id), nil)
	return err
}
