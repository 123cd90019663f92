// Package ranking defines the default display order of the feed: a
// total order recomputed on every buffer or filter change, never cached
// across render cycles.
package ranking

import (
	"sort"

	"minu.io/hub/internal/core/stream"
)

// Compare orders two items for display. The tie-break chain is
// evaluated top to bottom until a non-zero result:
//
//  1. unread before read
//  2. severity priority, only when both items are issues
//     (critical < high < medium < low)
//  3. an issue before an event, regardless of the issue's severity
//  4. newer arrival first (descending ReceivedAt)
//
// A final comparison on the item ID makes the order total, so equal
// outcomes only occur for the same item.
func Compare(a, b *stream.Item) int {
	if a.IsRead() != b.IsRead() {
		if !a.IsRead() {
			return -1
		}
		return 1
	}

	severityA, aIsIssue := a.Severity()
	severityB, bIsIssue := b.Severity()

	if aIsIssue && bIsIssue {
		if d := severityA.Priority() - severityB.Priority(); d != 0 {
			return d
		}
	} else if aIsIssue != bIsIssue {
		if aIsIssue {
			return -1
		}
		return 1
	}

	if !a.ReceivedAt().Equal(b.ReceivedAt()) {
		if a.ReceivedAt().After(b.ReceivedAt()) {
			return -1
		}
		return 1
	}

	switch {
	case a.ID().Value() < b.ID().Value():
		return -1
	case a.ID().Value() > b.ID().Value():
		return 1
	default:
		return 0
	}
}

// Rank returns the items sorted by Compare. The input slice is never
// mutated; the result is a fresh slice sharing the item references.
func Rank(items []*stream.Item) []*stream.Item {
	ranked := make([]*stream.Item, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Compare(ranked[i], ranked[j]) < 0
	})
	return ranked
}
