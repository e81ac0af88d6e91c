package workspace

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/nextstep/pkg/errors"
)

// Record is a saved graph.
type Record struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"` // Graph document as written by the io package
	SavedAt  time.Time       `json:"savedAt"`
}

// Summary describes a saved graph without its document.
type Summary struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	SavedAt time.Time `json:"savedAt"`
}

func (r Record) summary() Summary {
	return Summary{ID: r.ID, Name: r.Name, SavedAt: r.SavedAt}
}

// Store persists saved graphs.
//
// Load returns a NOT_FOUND coded error for unknown ids. List is ordered by
// name, then id.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "no saved graph %q", id)
}

func sortSummaries(s []Summary) {
	slices.SortFunc(s, func(a, b Summary) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// MemoryStore keeps records in memory. It is the default store and is used
// in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Document = slices.Clone(rec.Document)
	s.recs[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return Record{}, notFound(id)
	}
	return rec, nil
}

func (s *MemoryStore) List(context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.recs))
	for _, r := range s.recs {
		out = append(out, r.summary())
	}
	sortSummaries(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
