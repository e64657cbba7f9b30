package utils

// SuggestionFilter is an insertion-ordered set of suggestion strings.
// Duplicates are compared exactly, so "iPhone" and "iphone" are distinct.
// Not safe for concurrent use; build one per request.
type SuggestionFilter struct {
	seen  map[string]struct{}
	words []string
}

// NewSuggestionFilter creates an empty filter sized for roughly n entries
func NewSuggestionFilter(n int) *SuggestionFilter {
	return &SuggestionFilter{
		seen:  make(map[string]struct{}, n),
		words: make([]string, 0, n),
	}
}

// Insert adds word if it has not been seen before.
// Returns true if the word was added, false if it's a duplicate
func (f *SuggestionFilter) Insert(word string) bool {
	if _, ok := f.seen[word]; ok {
		return false
	}
	f.seen[word] = struct{}{}
	f.words = append(f.words, word)
	return true
}

// Len returns the number of unique words collected so far
func (f *SuggestionFilter) Len() int {
	return len(f.words)
}

// Words returns the collected words in first-insertion order
func (f *SuggestionFilter) Words() []string {
	out := make([]string, len(f.words))
	copy(out, f.words)
	return out
}
