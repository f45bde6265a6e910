package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/lherron/pressmigrate/internal/domain"
	"github.com/lherron/pressmigrate/internal/richtext"
)

func (m *Migrator) migrateAuthors(ctx context.Context, st *State, authors []domain.SourceAuthor, r *Report) {
	r.BeginPhase(PhaseAuthors)
	for _, a := range authors {
		if ctx.Err() != nil {
			return
		}
		m.migrateAuthor(ctx, st, a, r)
	}
}

func (m *Migrator) migrateAuthor(ctx context.Context, st *State, a domain.SourceAuthor, r *Report) {
	out := Outcome{Phase: PhaseAuthors, Kind: domain.KindAuthor, Key: a.Name}
	if a.Slug == domain.ReservedAuthorSlug {
		logger.Debugf("skipping reserved author %q", a.Slug)
		return
	}

	if id, ok := st.Existing.Authors.Lookup(a.Name); ok {
		st.Authors[a.ID] = id
		st.PublishAuthors.Add(id, a.Name)
		out.DestID, out.Status = id, StatusReused
		r.Add(out)
		return
	}

	draft := domain.AuthorDraft{Name: a.Name, About: a.Description}
	if err := domain.ValidateAuthorDraft(draft); err != nil {
		out.Key = fmt.Sprintf("#%d", a.ID)
		out.Status, out.Err = StatusFailed, err
		r.Add(out)
		return
	}
	id, err := m.dest.CreateAuthor(ctx, draft)
	if err != nil {
		out.Status, out.Err = StatusFailed, err
		r.Add(out)
		return
	}
	st.Existing.Authors.Put(a.Name, id)
	st.Authors[a.ID] = id
	st.PublishAuthors.Add(id, a.Name)
	out.DestID, out.Status = id, StatusCreated
	r.Add(out)
}

func (m *Migrator) migrateCategories(ctx context.Context, st *State, categories []domain.SourceCategory, r *Report) {
	r.BeginPhase(PhaseCategories)
	for _, c := range categories {
		if ctx.Err() != nil {
			return
		}
		m.migrateCategory(ctx, st, c, r)
	}
}

func (m *Migrator) migrateCategory(ctx context.Context, st *State, c domain.SourceCategory, r *Report) {
	out := Outcome{Phase: PhaseCategories, Kind: domain.KindCategory, Key: c.Slug}

	if id, ok := st.Existing.Categories.Lookup(c.Slug); ok {
		st.CategorySlugs[c.ID] = c.Slug
		st.PublishCategories.Add(id, c.Slug)
		out.DestID, out.Status = id, StatusReused
		r.Add(out)
		return
	}

	draft := domain.CategoryDraft{Name: richtext.StripTags(c.Name), Slug: c.Slug, Description: c.Description}
	if err := domain.ValidateCategoryDraft(draft); err != nil {
		out.Status, out.Err = StatusFailed, err
		r.Add(out)
		return
	}
	id, err := m.dest.CreateCategory(ctx, draft)
	if err != nil {
		out.Status, out.Err = StatusFailed, err
		r.Add(out)
		return
	}
	st.Existing.Categories.Put(c.Slug, id)
	st.CategorySlugs[c.ID] = c.Slug
	st.PublishCategories.Add(id, c.Slug)
	out.DestID, out.Status = id, StatusCreated
	r.Add(out)
}

func (m *Migrator) migratePosts(ctx context.Context, st *State, posts []domain.SourcePost, r *Report) {
	r.BeginPhase(PhasePosts)
	for _, p := range posts {
		if ctx.Err() != nil {
			return
		}
		m.migratePost(ctx, st, p, r)
	}
}

func (m *Migrator) migratePost(ctx context.Context, st *State, p domain.SourcePost, r *Report) {
	out := Outcome{Phase: PhasePosts, Kind: domain.KindPost, Key: p.Slug}

	switch {
	case p.Status != domain.SourcePostPublished:
		out.Status, out.Message = StatusSkipped, "status "+p.Status
		r.Add(out)
		return
	case domain.IsReservedPostSlug(p.Slug):
		out.Status, out.Message = StatusSkipped, "reserved slug"
		r.Add(out)
		return
	}

	if id, ok := st.Existing.Posts.Lookup(p.Slug); ok {
		st.Posts[p.ID] = id
		st.PublishExistingPosts.Add(id, p.Slug)
		st.links.Add(linkRequest{PostID: id, Slug: p.Slug, CategoryIDs: p.CategoryIDs})
		out.DestID, out.Status = id, StatusReused
		r.Add(out)
		return
	}

	authorID, ok := st.Authors[p.AuthorID]
	if !ok {
		out.Status, out.Message = StatusWarning, fmt.Sprintf("author #%d has no destination identity", p.AuthorID)
		r.Add(out)
		return
	}

	draft := domain.PostDraft{
		Title:    richtext.StripTags(p.TitleHTML),
		Slug:     p.Slug,
		Excerpt:  richtext.StripTags(p.ExcerptHTML),
		Body:     richtext.ToDocument(p.ContentHTML),
		AuthorID: authorID,
	}
	if err := domain.ValidatePostDraft(draft); err != nil {
		out.Status, out.Err = StatusFailed, err
		r.Add(out)
		return
	}
	if draft.Body.IsEmpty() {
		logger.Debugf("post %s has no paragraphs or lists to carry over", p.Slug)
	}
	if p.FeaturedMedia != nil && p.FeaturedMedia.SourceURL != "" {
		draft.FeaturedImageID = m.materializeAsset(ctx, st, *p.FeaturedMedia, r)
	}
	id, err := m.dest.CreatePost(ctx, draft)
	if err != nil {
		out.Status, out.Err = StatusFailed, err
		r.Add(out)
		return
	}
	st.Existing.Posts.Put(p.Slug, id)
	st.Posts[p.ID] = id
	st.PublishPosts.Add(id, p.Slug)
	st.links.Add(linkRequest{PostID: id, Slug: p.Slug, CategoryIDs: p.CategoryIDs})
	out.DestID, out.Status = id, StatusCreated
	r.Add(out)
}

// materializeAsset returns the featured image id, or "" when the post has
// to go without one
func (m *Migrator) materializeAsset(ctx context.Context, st *State, media domain.SourceMedia, r *Report) string {
	res := st.assets.Materialize(ctx, media, st.Existing.Assets)
	out := Outcome{Phase: PhasePosts, Kind: domain.KindAsset, Key: res.FileName, DestID: res.ID}
	if out.Key == "" {
		out.Key = media.SourceURL
	}

	switch {
	case !res.OK():
		out.Status, out.Err = StatusFailed, res.Err
		r.Add(out)
		return ""
	case res.Reused:
		out.Status = StatusReused
	default:
		out.Status = StatusCreated
	}
	st.PublishAssets.Add(res.ID, res.FileName)
	r.Add(out)
	return res.ID
}

func (m *Migrator) migrateComments(ctx context.Context, st *State, comments []domain.SourceComment, r *Report) {
	r.BeginPhase(PhaseComments)
	for _, c := range comments {
		if ctx.Err() != nil {
			return
		}
		m.migrateComment(ctx, st, c, r)
	}
}

func (m *Migrator) migrateComment(ctx context.Context, st *State, c domain.SourceComment, r *Report) {
	out := Outcome{Phase: PhaseComments, Kind: domain.KindComment, Key: fmt.Sprintf("#%d", c.ID)}

	if c.Status != domain.SourceCommentApproved {
		out.Status, out.Message = StatusSkipped, "status "+c.Status
		r.Add(out)
		return
	}
	postID, ok := st.Posts[c.PostID]
	if !ok {
		out.Status, out.Message = StatusWarning, fmt.Sprintf("post #%d was not migrated", c.PostID)
		r.Add(out)
		return
	}
	body := richtext.StripTags(c.ContentHTML)
	name := strings.TrimSpace(c.AuthorName)
	if body == "" || name == "" {
		out.Status, out.Message = StatusWarning, "missing author name or content"
		r.Add(out)
		return
	}

	email := c.AuthorEmail
	if email == "" {
		email = domain.PlaceholderEmail(c)
	}
	draft := domain.CommentDraft{
		Body:        body,
		UserName:    name,
		UserEmail:   email,
		UserWebsite: c.AuthorURL,
		PostID:      postID,
	}
	if err := domain.ValidateCommentDraft(draft); err != nil {
		out.Status, out.Err = StatusFailed, err
		r.Add(out)
		return
	}
	id, err := m.dest.CreateComment(ctx, draft)
	if err != nil {
		out.Status, out.Err = StatusFailed, err
		r.Add(out)
		return
	}
	st.PublishComments.Add(id, out.Key)
	out.DestID, out.Status = id, StatusCreated
	r.Add(out)
}
