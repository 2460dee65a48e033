package store

import (
	"sync"
	"time"

	"github.com/protforge/mutameter/internal/scan"
	"github.com/protforge/mutameter/internal/types"
)

// Record is everything the service retains about one scan run. The full
// validated table and its ranked rows are kept so that the full heatmap view
// and the export bundle always derive from the original ranked data, never
// from a truncated view.
type Record struct {
	ID      string
	Kind    types.AnalysisKind
	Scorer  string
	Stage   types.RunStage
	Message string

	Table    *scan.Table
	Schema   scan.Schema
	SchemaOK bool
	Ranked   []scan.RankedRow

	Summary     string
	SummaryOK   bool
	CSVPath     string
	HeatmapPath string
	ReportPath  string
	BundlePath  string

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Status projects the externally visible state of the record.
func (r *Record) Status() types.RunStatus {
	return types.RunStatus{
		ID:        r.ID,
		Kind:      r.Kind,
		Scorer:    r.Scorer,
		Stage:     r.Stage,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
	}
}

// Store is a thread-safe in-memory run store with TTL expiry. Runs are
// transient by design; expired records simply disappear together with their
// usefulness (the export bundle remains on disk until the host cleans the
// output directory).
type Store struct {
	mu   sync.RWMutex
	runs map[string]*Record
	ttl  time.Duration
}

// New creates a store and starts its janitor goroutine.
func New(ttl time.Duration) *Store {
	s := &Store{
		runs: make(map[string]*Record),
		ttl:  ttl,
	}
	go s.cleanup()
	return s
}

func (s *Store) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		s.mu.Lock()
		for id, rec := range s.runs {
			if now.After(rec.ExpiresAt) {
				delete(s.runs, id)
			}
		}
		s.mu.Unlock()
	}
}

// Put inserts or replaces a record, refreshing its expiry.
func (s *Store) Put(rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ExpiresAt = time.Now().Add(s.ttl)
	s.runs[rec.ID] = rec
}

// Get returns a snapshot of the record taken under the lock, or false if
// absent/expired. A shallow copy is enough: tables and ranked slices are
// never mutated in place after being set, so readers can use the snapshot
// while the pipeline goroutine keeps updating the live record.
func (s *Store) Get(id string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[id]
	if !ok || time.Now().After(rec.ExpiresAt) {
		return nil, false
	}
	snapshot := *rec
	return &snapshot, true
}

// Update applies fn to the record under the write lock.
func (s *Store) Update(id string, fn func(*Record)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[id]
	if !ok {
		return false
	}
	fn(rec)
	return true
}

// Size returns the number of live records.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Stats returns store statistics for the ops endpoint.
func (s *Store) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expired := 0
	byStage := make(map[types.RunStage]int)
	now := time.Now()
	for _, rec := range s.runs {
		if now.After(rec.ExpiresAt) {
			expired++
		}
		byStage[rec.Stage]++
	}

	return map[string]interface{}{
		"total_runs":    len(s.runs),
		"expired_runs":  expired,
		"runs_by_stage": byStage,
		"ttl_seconds":   s.ttl.Seconds(),
	}
}
