package migrate

import (
	"github.com/juju/collections/set"

	"github.com/lherron/pressmigrate/internal/asset"
	"github.com/lherron/pressmigrate/internal/naturalkey"
)

// PublishSet is an insertion-ordered set of destination ids awaiting publish
type PublishSet struct {
	seen   set.Strings
	order  []string
	labels map[string]string
}

func newPublishSet() *PublishSet {
	return &PublishSet{seen: set.NewStrings(), labels: make(map[string]string)}
}

// Add queues id once; label is the natural key shown in status lines
func (p *PublishSet) Add(id, label string) {
	if id == "" || p.seen.Contains(id) {
		return
	}
	p.seen.Add(id)
	p.order = append(p.order, id)
	p.labels[id] = label
}

// Contains reports whether id is queued
func (p *PublishSet) Contains(id string) bool {
	return p.seen.Contains(id)
}

// IDs returns the queued ids in insertion order
func (p *PublishSet) IDs() []string {
	return append([]string(nil), p.order...)
}

// Label returns the natural key recorded for id
func (p *PublishSet) Label(id string) string {
	if l, ok := p.labels[id]; ok {
		return l
	}
	return id
}

// Len returns the number of queued ids
func (p *PublishSet) Len() int {
	return len(p.order)
}

// linkRequest is a post whose categories still have to be set
type linkRequest struct {
	PostID      string
	Slug        string
	CategoryIDs []int64
}

// linkQueue keeps one request per post in first-queued order
type linkQueue struct {
	index    map[string]int
	requests []linkRequest
}

func newLinkQueue() *linkQueue {
	return &linkQueue{index: make(map[string]int)}
}

// Add queues a post. Queuing the same post again replaces its categories.
func (q *linkQueue) Add(req linkRequest) {
	if i, ok := q.index[req.PostID]; ok {
		q.requests[i].CategoryIDs = req.CategoryIDs
		return
	}
	q.index[req.PostID] = len(q.requests)
	q.requests = append(q.requests, req)
}

// State is everything one run learns about identities. It is created per
// Run and passed to each phase.
type State struct {
	Existing *naturalkey.Indexes

	// source id -> destination id
	Authors map[int64]string
	Posts   map[int64]string
	// source category id -> slug of a category with a destination id
	CategorySlugs map[int64]string

	PublishCategories *PublishSet
	PublishAssets     *PublishSet
	PublishPosts      *PublishSet
	PublishComments   *PublishSet
	PublishAuthors    *PublishSet

	// posts found by slug; published after their categories are linked
	PublishExistingPosts *PublishSet

	links  *linkQueue
	assets *asset.Materializer
}

// NewState creates run state on top of the existing destination content
func NewState(existing *naturalkey.Indexes) *State {
	if existing == nil {
		existing = naturalkey.NewIndexes()
	}
	return &State{
		Existing:          existing,
		Authors:           make(map[int64]string),
		Posts:             make(map[int64]string),
		CategorySlugs:     make(map[int64]string),
		PublishCategories: newPublishSet(),
		PublishAssets:     newPublishSet(),
		PublishPosts:      newPublishSet(),
		PublishComments:   newPublishSet(),
		PublishAuthors:    newPublishSet(),
		links:             newLinkQueue(),

		PublishExistingPosts: newPublishSet(),
	}
}
