package suggest

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/go-faster/errors"
	"github.com/tchap/go-patricia/v2/patricia"
)

// PredictionTable maps short lowercase prefixes to curated search terms.
type PredictionTable struct {
	trie  *patricia.Trie
	terms int
}

// NewTable creates an empty prediction table
func NewTable() *PredictionTable {
	return &PredictionTable{trie: patricia.NewTrie()}
}

// Set replaces the terms stored for prefix. The prefix is lowercased.
func (t *PredictionTable) Set(prefix string, terms []string) {
	key := patricia.Prefix(strings.ToLower(strings.TrimSpace(prefix)))
	if len(key) == 0 {
		return
	}
	if old, ok := t.trie.Get(key).([]string); ok {
		t.terms -= len(old)
	}

	stored := make([]string, len(terms))
	copy(stored, terms)
	t.trie.Set(key, stored)
	t.terms += len(stored)
}

// Lookup returns the terms stored for exactly prefix, or nil
func (t *PredictionTable) Lookup(prefix string) []string {
	terms, _ := t.trie.Get(patricia.Prefix(prefix)).([]string)
	return terms
}

// Under returns every prefix in the table that starts with prefix.
func (t *PredictionTable) Under(prefix string) []string {
	var keys []string
	err := t.trie.VisitSubtree(patricia.Prefix(strings.ToLower(prefix)), func(p patricia.Prefix, item patricia.Item) error {
		keys = append(keys, string(p))
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting prediction table: %v", err)
	}
	return keys
}

// Merge copies every entry of other into t, replacing existing prefixes
func (t *PredictionTable) Merge(other *PredictionTable) {
	if other == nil {
		return
	}
	err := other.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		if terms, ok := item.([]string); ok {
			t.Set(string(p), terms)
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error merging prediction table: %v", err)
	}
}

// Len returns the number of prefixes in the table
func (t *PredictionTable) Len() int {
	n := 0
	_ = t.trie.Visit(func(patricia.Prefix, patricia.Item) error {
		n++
		return nil
	})
	return n
}

// Terms returns the total number of terms across all prefixes
func (t *PredictionTable) Terms() int {
	return t.terms
}

type tableFile struct {
	Prefixes map[string][]string `toml:"prefixes"`
}

// LoadTable reads a TOML prediction file and merges it over the default table.
//
//	[prefixes]
//	ip = ["iPhone", "iPhone 15", "iPad"]
func LoadTable(path string) (*PredictionTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read prediction table %s", path)
	}

	var file tableFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		return nil, errors.Wrapf(err, "parse prediction table %s", path)
	}

	extra := NewTable()
	for prefix, terms := range file.Prefixes {
		if n := len([]rune(prefix)); n == 0 || n > 3 {
			log.Warnf("Skipping prediction prefix %q: must be 1-3 characters", prefix)
			continue
		}
		extra.Set(prefix, terms)
	}

	table := DefaultTable()
	table.Merge(extra)
	log.Debugf("Loaded %d prediction prefixes from %s", extra.Len(), path)
	return table, nil
}
