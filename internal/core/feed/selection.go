package feed

import (
	"sort"

	"minu.io/hub/internal/core/stream"
)

// Selection tracks the items multi-selected for bulk actions. It is
// deliberately independent of the buffer: an id whose item was evicted
// stays selected and simply becomes unreferenced, which is harmless.
type Selection struct {
	ids map[stream.ItemID]struct{}
}

// NewSelection creates an empty selection
func NewSelection() *Selection {
	return &Selection{ids: make(map[stream.ItemID]struct{})}
}

// Toggle flips the selected state of an id and returns the new state
func (s *Selection) Toggle(id stream.ItemID) bool {
	if _, selected := s.ids[id]; selected {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Has returns true if the id is selected
func (s *Selection) Has(id stream.ItemID) bool {
	_, selected := s.ids[id]
	return selected
}

// Len returns the number of selected ids
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in deterministic (lexicographic) order
func (s *Selection) IDs() []stream.ItemID {
	ids := make([]stream.ItemID, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Value() < ids[j].Value()
	})
	return ids
}

// Clear deselects everything
func (s *Selection) Clear() {
	s.ids = make(map[stream.ItemID]struct{})
}
