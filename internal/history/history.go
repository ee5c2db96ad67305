// Package history keeps the summaries of past evaluation runs.
package history

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ricesearch/rice-eval/internal/config"
	"github.com/ricesearch/rice-eval/internal/evaluation"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

// Entry is one completed analyzer evaluation.
type Entry struct {
	RunID          string             `json:"run_id"`
	Analyzer       string             `json:"analyzer"`
	Timestamp      time.Time          `json:"timestamp"`
	Duration       time.Duration      `json:"duration"`
	CollectionHash string             `json:"collection_hash,omitempty"`
	Summary        evaluation.Summary `json:"summary"`
}

// Store persists entries. List returns the newest entries first; an empty
// analyzer lists every analyzer.
type Store interface {
	Save(ctx context.Context, e Entry) error
	List(ctx context.Context, analyzer string, limit int) ([]Entry, error)
	Close() error
}

// DefaultMaxEntries bounds the entries kept per analyzer.
const DefaultMaxEntries = 100

// NewStore creates the store selected by cfg.
func NewStore(cfg config.HistoryConfig) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "none", "":
		return NopStore{}, nil
	case "memory":
		return NewMemoryStore(cfg.MaxEntries), nil
	case "redis":
		return NewRedisStore(cfg.RedisURL, cfg.MaxEntries)
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown history type: %s", cfg.Type))
	}
}

// NopStore keeps nothing.
type NopStore struct{}

// Save implements Store.
func (NopStore) Save(context.Context, Entry) error { return nil }

// List implements Store.
func (NopStore) List(context.Context, string, int) ([]Entry, error) { return nil, nil }

// Close implements Store.
func (NopStore) Close() error { return nil }

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string][]Entry // oldest first
	maxEntries int
}

// NewMemoryStore creates a store that keeps maxEntries per analyzer.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		entries:    make(map[string][]Entry),
		maxEntries: maxEntries,
	}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.entries[e.Analyzer], e)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.Before(list[j].Timestamp)
	})
	if len(list) > s.maxEntries {
		list = list[len(list)-s.maxEntries:]
	}
	s.entries[e.Analyzer] = list
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, analyzer string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for name, list := range s.entries {
		if analyzer != "" && name != analyzer {
			continue
		}
		out = append(out, list...)
	}
	return newestFirst(out, limit), nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// newestFirst sorts entries by descending timestamp and applies limit (0 = all).
func newestFirst(entries []Entry, limit int) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Analyzer < entries[j].Analyzer
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
