package feed

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"minu.io/hub/internal/core/filtering"
	"minu.io/hub/internal/core/ranking"
	"minu.io/hub/internal/core/stream"
)

// SessionID is a value object identifying one stream session
type SessionID struct {
	value string
}

// NewSessionID creates a new SessionID with validation
func NewSessionID(value string) (SessionID, error) {
	if value == "" {
		return SessionID{}, fmt.Errorf("session ID cannot be empty")
	}
	return SessionID{value: value}, nil
}

// GenerateSessionID creates a new unique SessionID
func GenerateSessionID() SessionID {
	return SessionID{value: uuid.NewString()}
}

// Value returns the string value of the SessionID
func (s SessionID) Value() string {
	return s.value
}

// String implements the Stringer interface
func (s SessionID) String() string {
	return s.value
}

// Config configures a feed session
type Config struct {
	Capacity int `yaml:"capacity"`
}

// DefaultConfig returns the default session configuration
func DefaultConfig() Config {
	return Config{Capacity: DefaultCapacity}
}

// Stats counts session activity since creation. Counters are
// cumulative; they survive Clear.
type Stats struct {
	Inserted  int
	Evicted   int
	ReadMarks int
}

// Session is the aggregate owning one feed: the bounded buffer, the
// selection, and the active filter criteria. Every exported method is
// one atomic state transition behind the lock; the realtime transport
// goroutine and the UI goroutine are the two callers.
type Session struct {
	mu        sync.RWMutex
	id        SessionID
	buffer    *Buffer
	selection *Selection
	criteria  filtering.Criteria
	stats     Stats
	startTime time.Time
}

// NewSession creates an empty session with default filter criteria
func NewSession(config Config) *Session {
	return &Session{
		id:        GenerateSessionID(),
		buffer:    NewBuffer(config.Capacity),
		selection: NewSelection(),
		criteria:  filtering.DefaultCriteria(),
		startTime: time.Now(),
	}
}

// ID returns the session ID
func (s *Session) ID() SessionID {
	return s.id
}

// StartTime returns the session creation time
func (s *Session) StartTime() time.Time {
	return s.startTime
}

// Capacity returns the buffer capacity
func (s *Session) Capacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Capacity()
}

// Len returns the number of buffered items
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Len()
}

// Insert appends a newly arrived item, evicting the oldest when over
// capacity. The evicted item (if any) is returned for secondary-index
// cleanup; ok reports whether the item was actually inserted (duplicate
// ids are rejected). The selection is left untouched on eviction:
// selected ids of evicted items simply become unreferenced.
func (s *Session) Insert(item *stream.Item) (evicted *stream.Item, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted, ok = s.buffer.Insert(item)
	if ok {
		s.stats.Inserted++
		if evicted != nil {
			s.stats.Evicted++
		}
	}
	return evicted, ok
}

// Get returns the buffered item with the given id
func (s *Session) Get(id stream.ItemID) (*stream.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Get(id)
}

// MarkRead marks one item read; false when the id is no longer
// buffered, which callers treat as a no-op rather than an error.
func (s *Session) MarkRead(id stream.ItemID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, found := s.buffer.Get(id)
	if !found {
		return false
	}
	if !item.IsRead() {
		item.MarkRead()
		s.stats.ReadMarks++
	}
	return true
}

// MarkAllRead marks every buffered item read and returns how many
// flags changed. Calling it twice in a row is a no-op the second time.
func (s *Session) MarkAllRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.buffer.MarkAllRead()
	s.stats.ReadMarks += changed
	return changed
}

// MarkReadBatch marks a set of ids read in one atomic transition; ids
// no longer buffered are skipped. Used by the bulk-delete path after
// all partitions succeed.
func (s *Session) MarkReadBatch(ids []stream.ItemID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	for _, id := range ids {
		item, found := s.buffer.Get(id)
		if !found || item.IsRead() {
			continue
		}
		item.MarkRead()
		marked++
	}
	s.stats.ReadMarks += marked
	return marked
}

// UnreadCount returns the number of unread buffered items
func (s *Session) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.UnreadCount()
}

// ToggleSelect flips the selected state of an id and returns the new
// state. Selecting an id that later gets evicted is harmless.
func (s *Session) ToggleSelect(id stream.ItemID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Toggle(id)
}

// IsSelected returns true if the id is currently selected
func (s *Session) IsSelected(id stream.ItemID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.Has(id)
}

// SelectedIDs returns the selected ids in deterministic order
func (s *Session) SelectedIDs() []stream.ItemID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.IDs()
}

// SelectionSize returns the number of selected ids
func (s *Session) SelectionSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection.Len()
}

// ClearSelection deselects everything
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
}

// Criteria returns the active filter criteria
func (s *Session) Criteria() filtering.Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

// UpdateCriteria replaces the filter criteria atomically; there is no
// partial-filter application.
func (s *Session) UpdateCriteria(criteria filtering.Criteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = criteria
}

// Items returns the buffered items in insertion order
func (s *Session) Items() []*stream.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer.Snapshot()
}

// FilteredItems applies the active criteria and the priority ranking,
// producing the items in display order. Recomputed on every call; the
// order is never cached across render cycles.
func (s *Session) FilteredItems() []*stream.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ranking.Rank(filtering.Apply(s.criteria, s.buffer.Snapshot()))
}

// PartitionSelected splits the selected ids by underlying kind for the
// bulk-delete fan-out. Selected ids no longer in the buffer cannot be
// partitioned and are dropped from both partitions.
func (s *Session) PartitionSelected() (issueIDs, eventIDs []stream.ItemID) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.selection.IDs() {
		item, found := s.buffer.Get(id)
		if !found {
			continue
		}
		if item.IsIssue() {
			issueIDs = append(issueIDs, id)
		} else {
			eventIDs = append(eventIDs, id)
		}
	}
	return issueIDs, eventIDs
}

// Clear empties the buffer and resets derived state: the selection is
// dropped and unread counters fall out implicitly. Nothing is deleted
// server-side.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer.Clear()
	s.selection.Clear()
}

// Stats returns a copy of the cumulative session counters
func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// String returns a string representation of the session
func (s *Session) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fmt.Sprintf("Session{ID: %s, Items: %d/%d, Unread: %d, Selected: %d}",
		s.id.Value(),
		s.buffer.Len(),
		s.buffer.Capacity(),
		s.buffer.UnreadCount(),
		s.selection.Len(),
	)
}
