package feed

import (
	"minu.io/hub/internal/core/stream"
)

const (
	// DefaultCapacity is used when a session is created without an
	// explicit buffer size.
	DefaultCapacity = 150

	// MaxCapacity bounds caller-configured buffer sizes.
	MaxCapacity = 1000
)

// Buffer is the bounded, ordered collection of stream items for one
// feed session. It is a fixed arena with a head pointer: insertion
// appends, overflow evicts the oldest item (by insertion order) in
// O(1), and a per-id index serves lookups. The buffer itself is not
// synchronized; Session owns it behind a lock.
type Buffer struct {
	arena    []*stream.Item
	head     int
	size     int
	capacity int
	index    map[stream.ItemID]int
}

// NewBuffer creates an empty buffer. Capacities outside [1, MaxCapacity]
// are normalized: non-positive values fall back to DefaultCapacity,
// oversized values are clamped.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if capacity > MaxCapacity {
		capacity = MaxCapacity
	}
	return &Buffer{
		arena:    make([]*stream.Item, capacity),
		capacity: capacity,
		index:    make(map[stream.ItemID]int, capacity),
	}
}

// Capacity returns the fixed capacity
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Len returns the number of items currently held
func (b *Buffer) Len() int {
	return b.size
}

// slot maps a logical position (0 = oldest) to an arena index
func (b *Buffer) slot(pos int) int {
	return (b.head + pos) % b.capacity
}

// Insert appends an item. When the buffer is full the oldest item is
// evicted unconditionally (regardless of read state or severity) and
// returned so callers can clean up secondary indices. An item whose ID
// is already present is rejected (ok=false); IDs are unique for the
// buffer's lifetime and rejection keeps the one-notification-per-item
// contract for callers dispatching on insert.
func (b *Buffer) Insert(item *stream.Item) (evicted *stream.Item, ok bool) {
	if item == nil {
		return nil, false
	}
	if _, exists := b.index[item.ID()]; exists {
		return nil, false
	}

	if b.size == b.capacity {
		evicted = b.arena[b.head]
		delete(b.index, evicted.ID())
		b.arena[b.head] = nil
		b.head = (b.head + 1) % b.capacity
		b.size--
	}

	pos := b.slot(b.size)
	b.arena[pos] = item
	b.index[item.ID()] = pos
	b.size++

	return evicted, true
}

// Get returns the item with the given id
func (b *Buffer) Get(id stream.ItemID) (*stream.Item, bool) {
	pos, found := b.index[id]
	if !found {
		return nil, false
	}
	return b.arena[pos], true
}

// RemoveByID removes an item while preserving the relative order of the
// remainder. Unknown ids return false, never an error. Removal shifts
// trailing items one slot back, so it is O(n) against the small fixed
// capacity; eviction stays O(1).
func (b *Buffer) RemoveByID(id stream.ItemID) bool {
	pos, found := b.index[id]
	if !found {
		return false
	}
	delete(b.index, id)

	// logical position of the removed slot
	logical := (pos - b.head + b.capacity) % b.capacity

	for i := logical; i < b.size-1; i++ {
		from := b.slot(i + 1)
		to := b.slot(i)
		b.arena[to] = b.arena[from]
		b.index[b.arena[to].ID()] = to
	}
	b.arena[b.slot(b.size-1)] = nil
	b.size--

	return true
}

// MarkRead sets the read flag on one item. Marking an already-read item
// is a no-op, not an error. Returns false when the id is not present.
func (b *Buffer) MarkRead(id stream.ItemID) bool {
	pos, found := b.index[id]
	if !found {
		return false
	}
	b.arena[pos].MarkRead()
	return true
}

// MarkAllRead marks every item read and returns how many flags changed
func (b *Buffer) MarkAllRead() int {
	changed := 0
	for i := 0; i < b.size; i++ {
		item := b.arena[b.slot(i)]
		if !item.IsRead() {
			item.MarkRead()
			changed++
		}
	}
	return changed
}

// UnreadCount returns the number of unread items
func (b *Buffer) UnreadCount() int {
	unread := 0
	for i := 0; i < b.size; i++ {
		if !b.arena[b.slot(i)].IsRead() {
			unread++
		}
	}
	return unread
}

// Snapshot returns the items in insertion order. The slice is a copy;
// the items are shared references.
func (b *Buffer) Snapshot() []*stream.Item {
	items := make([]*stream.Item, 0, b.size)
	for i := 0; i < b.size; i++ {
		items = append(items, b.arena[b.slot(i)])
	}
	return items
}

// Clear empties the buffer
func (b *Buffer) Clear() {
	b.arena = make([]*stream.Item, b.capacity)
	b.index = make(map[stream.ItemID]int, b.capacity)
	b.head = 0
	b.size = 0
}
