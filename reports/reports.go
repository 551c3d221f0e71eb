// Package reports keeps the bounded, ordered collection of user-submitted
// reports. The store owns report identity: IDs are monotonically increasing
// and never reused, even across deletions and evictions.
package reports

import (
	"log"
	"sort"
	"sync"
	"time"
)

// Capacity is the maximum number of stored reports. Submitting beyond it
// evicts the single oldest report.
const Capacity = 100

type Report struct {
	ID         uint64
	Reporter   string
	TargetName string
	TargetID   string
	Category   string
	Subject    string
	Message    string
	Timestamp  time.Time
}

// Page is one newest-first slice of the store.
type Page struct {
	Items      []Report
	Index      int
	Total      int
	TotalPages int
}

// PersistFunc receives the full collection, oldest first, after every
// mutation. Persist failures are logged but never block a mutation.
type PersistFunc func([]Report) error

type Store struct {
	mu      sync.Mutex
	reports []Report // oldest first
	nextID  uint64
	persist PersistFunc
	now     func() time.Time
}

// NewStore seeds the store from the persisted collection. The next ID is
// one past the highest seeded ID so identities survive restarts.
func NewStore(seed []Report, persist PersistFunc) *Store {
	s := &Store{
		reports: append([]Report(nil), seed...),
		nextID:  1,
		persist: persist,
		now:     time.Now,
	}
	for _, r := range s.reports {
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
	if len(s.reports) > Capacity {
		s.reports = s.reports[len(s.reports)-Capacity:]
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Submit appends a new report and returns its ID. It always succeeds; blank
// fields are replaced with placeholders so list rows never render empty.
func (s *Store) Submit(reporter, targetName, targetID, category, subject, message string) uint64 {
	s.mu.Lock()
	report := Report{
		ID:         s.nextID,
		Reporter:   orDefault(reporter, "Unknown"),
		TargetName: orDefault(targetName, "Unknown"),
		TargetID:   orDefault(targetID, "Unknown"),
		Category:   orDefault(category, "Other"),
		Subject:    orDefault(subject, "No subject"),
		Message:    orDefault(message, "No message"),
		Timestamp:  s.now(),
	}
	s.nextID++
	s.reports = append(s.reports, report)
	if len(s.reports) > Capacity {
		s.reports = s.reports[1:]
	}
	s.persistLocked()
	s.mu.Unlock()
	return report.ID
}

// Get returns the report with the given ID.
func (s *Store) Get(id uint64) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reports {
		if r.ID == id {
			return r, true
		}
	}
	return Report{}, false
}

// Delete removes the report with the given ID and persists. Returns false
// if no such report exists; the caller degrades to a not-found message.
func (s *Store) Delete(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.reports {
		if r.ID == id {
			s.reports = append(s.reports[:i], s.reports[i+1:]...)
			s.persistLocked()
			return true
		}
	}
	return false
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

// ListPage returns one page of reports ordered newest first. The page index
// is clamped to the valid range, and an empty store still reports one
// (empty) page, so callers never divide by zero or render a negative page.
func (s *Store) ListPage(page, size int) Page {
	s.mu.Lock()
	snapshot := make([]Report, len(s.reports))
	copy(snapshot, s.reports)
	s.mu.Unlock()

	// Newest first; IDs break wall-clock ties so ordering is stable for
	// reports submitted within the same clock tick.
	sort.Slice(snapshot, func(i, j int) bool {
		if !snapshot[i].Timestamp.Equal(snapshot[j].Timestamp) {
			return snapshot[i].Timestamp.After(snapshot[j].Timestamp)
		}
		return snapshot[i].ID > snapshot[j].ID
	})

	total := len(snapshot)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}
	start := page * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Items:      snapshot[start:end],
		Index:      page,
		Total:      total,
		TotalPages: totalPages,
	}
}

// All returns the collection oldest first, as persisted.
func (s *Store) All() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Report, len(s.reports))
	copy(result, s.reports)
	return result
}

func (s *Store) persistLocked() {
	if s.persist == nil {
		return
	}
	snapshot := make([]Report, len(s.reports))
	copy(snapshot, s.reports)
	if err := s.persist(snapshot); err != nil {
		log.Printf("Persisting %d reports: %v", len(snapshot), err)
	}
}
