// Package history keeps the recent-search list shown under the search box.
//
// The list itself is a plain value: Add and Clear return new lists and never
// touch storage. A Manager pairs the current list with a Store and is the
// object the surfaces share.
package history

import "strings"

const (
	// DefaultMax is the number of entries kept
	DefaultMax = 10
	// DefaultKey is the storage key the list is persisted under
	DefaultKey = "shopserve:search-history"
)

// History is an ordered list of distinct search terms, most recent first.
type History []string

// Add returns a new history with term at the front, any earlier occurrence
// removed, truncated to limit entries. A blank term returns an unchanged copy.
func Add(h History, term string, limit int) History {
	if limit <= 0 {
		limit = DefaultMax
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return h.clone()
	}

	out := make(History, 0, min(len(h)+1, limit))
	out = append(out, term)
	for _, existing := range h {
		if len(out) == limit {
			break
		}
		if existing != term {
			out = append(out, existing)
		}
	}
	return out
}

// Clear returns an empty history
func Clear() History {
	return History{}
}

// Contains reports whether term is in h
func (h History) Contains(term string) bool {
	for _, t := range h {
		if t == term {
			return true
		}
	}
	return false
}

func (h History) clone() History {
	out := make(History, len(h))
	copy(out, h)
	return out
}
