package domain

// Kind identifies a destination entity type
type Kind string

const (
	KindAuthor   Kind = "author"
	KindCategory Kind = "category"
	KindAsset    Kind = "asset"
	KindPost     Kind = "post"
	KindComment  Kind = "comment"
)

// Kinds lists every entity kind in migration order
var Kinds = []Kind{KindAuthor, KindCategory, KindAsset, KindPost, KindComment}

// Source lifecycle values that gate admission
const (
	SourcePostPublished    = "publish"
	SourceCommentApproved  = "approved"
	ReservedAuthorSlug     = "hygraphexport"
	PlaceholderEmailDomain = "placeholder.invalid"
)

// ReservedPostSlugs are the stock posts every fresh source install ships with.
// They are never migrated and never counted as existing destination posts.
var ReservedPostSlugs = []string{"hello-world", "sample-page"}

// SourceAuthor is a user record from the source content store
type SourceAuthor struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// SourceCategory is a taxonomy term from the source content store
type SourceCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// SourceMedia is the embedded featured media of a source post
type SourceMedia struct {
	SourceURL   string `json:"source_url"`
	AltText     string `json:"alt_text,omitempty"`
	CaptionHTML string `json:"caption_html,omitempty"`
}

// SourcePost is a post from the source content store. HTML fields hold
// the rendered markup exactly as the source returned it.
type SourcePost struct {
	ID            int64        `json:"id"`
	Status        string       `json:"status"`
	Slug          string       `json:"slug"`
	TitleHTML     string       `json:"title_html"`
	ExcerptHTML   string       `json:"excerpt_html,omitempty"`
	ContentHTML   string       `json:"content_html,omitempty"`
	AuthorID      int64        `json:"author_id"`
	CategoryIDs   []int64      `json:"category_ids,omitempty"`
	FeaturedMedia *SourceMedia `json:"featured_media,omitempty"`
}

// SourceComment is a reader comment from the source content store
type SourceComment struct {
	ID          int64  `json:"id"`
	PostID      int64  `json:"post_id"`
	AuthorID    int64  `json:"author_id,omitempty"` // 0 for anonymous commenters
	Status      string `json:"status"`
	AuthorName  string `json:"author_name,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`
	AuthorURL   string `json:"author_url,omitempty"`
	ContentHTML string `json:"content_html,omitempty"`
}

// Snapshot is the bounded source content set read once at the start of a run
type Snapshot struct {
	Authors    []SourceAuthor
	Categories []SourceCategory
	Posts      []SourcePost
	Comments   []SourceComment
}

// Record is an existing destination entry and its natural key
type Record struct {
	ID  string
	Key string
}

// AuthorDraft is the payload for creating a destination author
type AuthorDraft struct {
	Name  string
	About string
}

// CategoryDraft is the payload for creating a destination category
type CategoryDraft struct {
	Name        string
	Slug        string
	Description string
}

// PostDraft is the payload for creating a destination post.
// FeaturedImageID is empty when the post has no asset.
type PostDraft struct {
	Title           string
	Slug            string
	Excerpt         string
	Body            Document
	AuthorID        string
	FeaturedImageID string
}

// CommentDraft is the payload for creating a destination comment
type CommentDraft struct {
	Body        string
	UserName    string
	UserEmail   string
	UserWebsite string
	PostID      string
}

// FormField is one name/value pair of an upload ticket
type FormField struct {
	Name  string
	Value string
}

// UploadTicket is the one-time authorization for a direct binary upload.
// Fields are forwarded verbatim and in order.
type UploadTicket struct {
	URL    string
	Fields []FormField
}
