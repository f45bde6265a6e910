// Package naturalkey maps stable, human-meaningful keys (names, slugs, file
// names) to destination identities. It is how a run detects content that a
// previous run already created.
package naturalkey

import "github.com/lherron/pressmigrate/internal/domain"

// Index maps a natural key to a destination id
type Index struct {
	ids map[string]string
}

// Build indexes records by key. Records with an empty key are ignored; when a
// key repeats, the first record wins.
func Build(records []domain.Record) *Index {
	idx := &Index{ids: make(map[string]string, len(records))}
	for _, r := range records {
		if r.Key == "" || r.ID == "" {
			continue
		}
		if _, ok := idx.ids[r.Key]; ok {
			continue
		}
		idx.ids[r.Key] = r.ID
	}
	return idx
}

// Lookup returns the destination id for key
func (i *Index) Lookup(key string) (string, bool) {
	if i == nil || key == "" {
		return "", false
	}
	id, ok := i.ids[key]
	return id, ok
}

// Put records a destination id created during the current run
func (i *Index) Put(key, id string) {
	if i == nil || key == "" || id == "" {
		return
	}
	if i.ids == nil {
		i.ids = make(map[string]string)
	}
	i.ids[key] = id
}

// Len returns the number of indexed keys
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.ids)
}

// Indexes bundles the existing-content lookups for every deduplicated kind
type Indexes struct {
	Authors    *Index // by display name
	Categories *Index // by slug
	Assets     *Index // by file name
	Posts      *Index // by slug
}

// NewIndexes returns empty indexes for a destination with no content
func NewIndexes() *Indexes {
	return &Indexes{
		Authors:    Build(nil),
		Categories: Build(nil),
		Assets:     Build(nil),
		Posts:      Build(nil),
	}
}
