package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/contratoclaro/contratoclaro/internal/analysis"
)

type resultEntry struct {
	doc      *analysis.DocumentAnalysis
	storedAt time.Time
}

// ResultStore holds completed document analyses in memory with TTL
// eviction, keyed by document ID.
type ResultStore struct {
	mu      sync.Mutex
	results map[string]resultEntry
	ttl     time.Duration
}

func NewResultStore(ttl time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ResultStore{
		results: make(map[string]resultEntry),
		ttl:     ttl,
	}
}

func (s *ResultStore) Put(doc *analysis.DocumentAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[doc.DocumentID] = resultEntry{doc: doc, storedAt: time.Now()}
}

func (s *ResultStore) Get(docID string) (*analysis.DocumentAnalysis, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.results[docID]
	if !ok {
		return nil, false
	}
	return entry.doc, true
}

func (s *ResultStore) Delete(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[docID]; !ok {
		return false
	}
	delete(s.results, docID)
	return true
}

// ListEntry is the per-document line returned by the listing endpoint.
type ListEntry struct {
	DocumentID   string               `json:"document_id"`
	Filename     string               `json:"filename"`
	TotalClauses int                  `json:"total_clauses"`
	RiskSummary  analysis.RiskSummary `json:"risk_summary"`
	CreatedAt    time.Time            `json:"created_at"`
}

// List returns a summary line per stored analysis, newest first.
func (s *ResultStore) List() []ListEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]ListEntry, 0, len(s.results))
	for _, e := range s.results {
		entries = append(entries, ListEntry{
			DocumentID:   e.doc.DocumentID,
			Filename:     e.doc.Filename,
			TotalClauses: e.doc.TotalClauses,
			RiskSummary:  e.doc.RiskSummary,
			CreatedAt:    e.doc.CreatedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries
}

// Cleanup removes expired analyses.
func (s *ResultStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, e := range s.results {
		if now.Sub(e.storedAt) > s.ttl {
			delete(s.results, id)
		}
	}
}
