// Package testutil holds test helpers and in-memory fakes of the source
// site, the destination API and the upload target.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/juju/errors"

	"github.com/lherron/pressmigrate/internal/domain"
	"github.com/lherron/pressmigrate/internal/naturalkey"
)

// Operation names used by Call and FailOn
const (
	OpCreateAuthor   = "createAuthor"
	OpCreateCategory = "createCategory"
	OpCreatePost     = "createPost"
	OpCreateComment  = "createComment"
	OpCreateAsset    = "createAsset"
	OpUpdateAsset    = "updateAsset"
	OpSetCategories  = "setCategories"
	OpPublish        = "publish"
)

// Entry is one stored destination entity
type Entry struct {
	ID        string
	Kind      domain.Kind
	Key       string
	Published bool
	Data      interface{}
}

// Call is one recorded destination operation. Key is the natural key for
// creates and the entity id for everything else.
type Call struct {
	Op   string
	Kind domain.Kind
	Key  string
}

func (c Call) String() string {
	if c.Kind != "" {
		return fmt.Sprintf("%s %s %s", c.Op, c.Kind, c.Key)
	}
	return fmt.Sprintf("%s %s", c.Op, c.Key)
}

// Destination is an in-memory destination content graph
type Destination struct {
	mu      sync.Mutex
	entries []*Entry
	byID    map[string]*Entry
	links   map[string][]string
	calls   []Call
	fail    map[string]error
	nextID  int

	// ExistingErr makes ExistingContent fail
	ExistingErr error
	// NoTicket makes CreateAsset return an empty upload ticket
	NoTicket bool
}

// NewDestination returns an empty destination
func NewDestination() *Destination {
	return &Destination{
		byID:  make(map[string]*Entry),
		links: make(map[string][]string),
		fail:  make(map[string]error),
	}
}

// Seed stores a pre-existing entity and returns its id
func (d *Destination) Seed(kind domain.Kind, key string, published bool) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store(kind, key, published, nil).ID
}

// FailOn makes op fail for key (natural key for creates, id otherwise)
func (d *Destination) FailOn(op, key string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		err = errors.Errorf("%s %s: simulated failure", op, key)
	}
	d.fail[op+"|"+key] = err
}

// Calls returns every recorded operation in order
func (d *Destination) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Entries returns the stored entities of kind in creation order
func (d *Destination) Entries(kind domain.Kind) []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Entry
	for _, e := range d.entries {
		if e.Kind == kind {
			out = append(out, *e)
		}
	}
	return out
}

// Count returns how many entities of kind exist
func (d *Destination) Count(kind domain.Kind) int {
	return len(d.Entries(kind))
}

// Lookup returns the entity of kind with key
func (d *Destination) Lookup(kind domain.Kind, key string) (Entry, bool) {
	for _, e := range d.Entries(kind) {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Links returns the category slugs currently set on a post
func (d *Destination) Links(postID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.links[postID]...)
}

func (d *Destination) store(kind domain.Kind, key string, published bool, data interface{}) *Entry {
	d.nextID++
	e := &Entry{ID: fmt.Sprintf("%s-%d", kind, d.nextID), Kind: kind, Key: key, Published: published, Data: data}
	d.entries = append(d.entries, e)
	d.byID[e.ID] = e
	return e
}

// record logs the call and returns the configured failure, if any
func (d *Destination) record(op string, kind domain.Kind, key string) error {
	d.calls = append(d.calls, Call{Op: op, Kind: kind, Key: key})
	return d.fail[op+"|"+key]
}

// ExistingContent indexes the stored entities by natural key
func (d *Destination) ExistingContent(ctx context.Context) (*naturalkey.Indexes, error) {
	if d.ExistingErr != nil {
		return nil, d.ExistingErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	records := make(map[domain.Kind][]domain.Record)
	for _, e := range d.entries {
		if e.Kind == domain.KindPost && domain.IsReservedPostSlug(e.Key) {
			continue
		}
		records[e.Kind] = append(records[e.Kind], domain.Record{ID: e.ID, Key: e.Key})
	}
	return &naturalkey.Indexes{
		Authors:    naturalkey.Build(records[domain.KindAuthor]),
		Categories: naturalkey.Build(records[domain.KindCategory]),
		Assets:     naturalkey.Build(records[domain.KindAsset]),
		Posts:      naturalkey.Build(records[domain.KindPost]),
	}, nil
}

func (d *Destination) create(ctx context.Context, op string, kind domain.Kind, key string, data interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(op, kind, key); err != nil {
		return "", err
	}
	return d.store(kind, key, false, data).ID, nil
}

// CreateAuthor stores a draft author keyed by name
func (d *Destination) CreateAuthor(ctx context.Context, draft domain.AuthorDraft) (string, error) {
	if err := domain.ValidateAuthorDraft(draft); err != nil {
		return "", err
	}
	return d.create(ctx, OpCreateAuthor, domain.KindAuthor, draft.Name, draft)
}

// CreateCategory stores a draft category keyed by slug
func (d *Destination) CreateCategory(ctx context.Context, draft domain.CategoryDraft) (string, error) {
	if err := domain.ValidateCategoryDraft(draft); err != nil {
		return "", err
	}
	return d.create(ctx, OpCreateCategory, domain.KindCategory, draft.Slug, draft)
}

// CreatePost stores a draft post keyed by slug
func (d *Destination) CreatePost(ctx context.Context, draft domain.PostDraft) (string, error) {
	if err := domain.ValidatePostDraft(draft); err != nil {
		return "", err
	}
	return d.create(ctx, OpCreatePost, domain.KindPost, draft.Slug, draft)
}

// CreateComment stores a draft comment keyed by its body
func (d *Destination) CreateComment(ctx context.Context, draft domain.CommentDraft) (string, error) {
	if err := domain.ValidateCommentDraft(draft); err != nil {
		return "", err
	}
	return d.create(ctx, OpCreateComment, domain.KindComment, draft.Body, draft)
}

// CreateAsset stores a draft asset keyed by file name and issues a ticket
func (d *Destination) CreateAsset(ctx context.Context, fileName string) (string, domain.UploadTicket, error) {
	id, err := d.create(ctx, OpCreateAsset, domain.KindAsset, fileName, nil)
	if err != nil {
		return "", domain.UploadTicket{}, err
	}
	if d.NoTicket {
		return id, domain.UploadTicket{}, nil
	}
	return id, domain.UploadTicket{
		URL:    "https://upload.test/" + id,
		Fields: []domain.FormField{{Name: "key", Value: fileName}},
	}, nil
}

// AssetMetadata is what UpdateAssetMetadata stores
type AssetMetadata struct {
	AltText string
	Caption string
}

// UpdateAssetMetadata stores alt text and caption on an asset
func (d *Destination) UpdateAssetMetadata(ctx context.Context, id, altText, caption string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpUpdateAsset, domain.KindAsset, id); err != nil {
		return err
	}
	e, ok := d.byID[id]
	if !ok {
		return errors.NotFoundf("asset %s", id)
	}
	e.Data = AssetMetadata{AltText: altText, Caption: caption}
	return nil
}

// SetPostCategories replaces the category set of a post
func (d *Destination) SetPostCategories(ctx context.Context, postID string, slugs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpSetCategories, domain.KindPost, postID); err != nil {
		return err
	}
	if _, ok := d.byID[postID]; !ok {
		return errors.NotFoundf("post %s", postID)
	}
	d.links[postID] = append([]string(nil), slugs...)
	return nil
}

// Publish marks an entity published
func (d *Destination) Publish(ctx context.Context, kind domain.Kind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record(OpPublish, kind, id); err != nil {
		return err
	}
	e, ok := d.byID[id]
	if !ok || e.Kind != kind {
		return errors.NotFoundf("%s %s", kind, id)
	}
	e.Published = true
	return nil
}

// Source is an in-memory source site
type Source struct {
	Snapshot domain.Snapshot
	Err      error
	// Media maps a media URL to its bytes; unknown URLs fail to download
	Media map[string][]byte

	mu        sync.Mutex
	downloads []string
}

// FetchSnapshot returns a copy of Snapshot
func (s *Source) FetchSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	snap := domain.Snapshot{
		Authors:    append([]domain.SourceAuthor(nil), s.Snapshot.Authors...),
		Categories: append([]domain.SourceCategory(nil), s.Snapshot.Categories...),
		Posts:      append([]domain.SourcePost(nil), s.Snapshot.Posts...),
		Comments:   append([]domain.SourceComment(nil), s.Snapshot.Comments...),
	}
	return &snap, nil
}

// Download returns the bytes registered for url
func (s *Source) Download(ctx context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = append(s.downloads, url)
	data, ok := s.Media[url]
	if !ok {
		return nil, errors.NotFoundf("media %s", url)
	}
	return data, nil
}

// Downloads returns every requested URL in order
func (s *Source) Downloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.downloads...)
}

// Uploader records uploads instead of sending them
type Uploader struct {
	mu      sync.Mutex
	uploads []string
	fail    map[string]error
}

// FailOn makes uploads of fileName fail
func (u *Uploader) FailOn(fileName string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail == nil {
		u.fail = make(map[string]error)
	}
	if err == nil {
		err = errors.Errorf("upload %s: simulated failure", fileName)
	}
	u.fail[fileName] = err
}

// Upload records fileName
func (u *Uploader) Upload(ctx context.Context, ticket domain.UploadTicket, fileName string, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.fail[fileName]; err != nil {
		return err
	}
	u.uploads = append(u.uploads, fileName)
	return nil
}

// Uploads returns the uploaded file names in order
func (u *Uploader) Uploads() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.uploads...)
}
