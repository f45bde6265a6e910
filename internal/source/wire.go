package source

import (
	"github.com/lherron/pressmigrate/internal/domain"
)

type rendered struct {
	Rendered string `json:"rendered"`
}

type wireUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (u wireUser) toDomain() domain.SourceAuthor {
	return domain.SourceAuthor{ID: u.ID, Name: u.Name, Slug: u.Slug, Description: u.Description}
}

type wireCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (c wireCategory) toDomain() domain.SourceCategory {
	return domain.SourceCategory{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description}
}

type wireMedia struct {
	SourceURL string   `json:"source_url"`
	AltText   string   `json:"alt_text"`
	Caption   rendered `json:"caption"`
}

type wirePost struct {
	ID         int64    `json:"id"`
	Status     string   `json:"status"`
	Slug       string   `json:"slug"`
	Title      rendered `json:"title"`
	Excerpt    rendered `json:"excerpt"`
	Content    rendered `json:"content"`
	Author     int64    `json:"author"`
	Categories []int64  `json:"categories"`
	Embedded   struct {
		FeaturedMedia []wireMedia `json:"wp:featuredmedia"`
	} `json:"_embedded"`
}

func (p wirePost) toDomain() domain.SourcePost {
	post := domain.SourcePost{
		ID:          p.ID,
		Status:      p.Status,
		Slug:        p.Slug,
		TitleHTML:   p.Title.Rendered,
		ExcerptHTML: p.Excerpt.Rendered,
		ContentHTML: p.Content.Rendered,
		AuthorID:    p.Author,
		CategoryIDs: p.Categories,
	}
	if len(p.Embedded.FeaturedMedia) > 0 && p.Embedded.FeaturedMedia[0].SourceURL != "" {
		m := p.Embedded.FeaturedMedia[0]
		post.FeaturedMedia = &domain.SourceMedia{
			SourceURL:   m.SourceURL,
			AltText:     m.AltText,
			CaptionHTML: m.Caption.Rendered,
		}
	}
	return post
}

type wireComment struct {
	ID          int64    `json:"id"`
	Post        int64    `json:"post"`
	Author      int64    `json:"author"`
	Status      string   `json:"status"`
	AuthorName  string   `json:"author_name"`
	AuthorEmail string   `json:"author_email"`
	AuthorURL   string   `json:"author_url"`
	Content     rendered `json:"content"`
}

func (c wireComment) toDomain() domain.SourceComment {
	return domain.SourceComment{
		ID:          c.ID,
		PostID:      c.Post,
		AuthorID:    c.Author,
		Status:      c.Status,
		AuthorName:  c.AuthorName,
		AuthorEmail: c.AuthorEmail,
		AuthorURL:   c.AuthorURL,
		ContentHTML: c.Content.Rendered,
	}
}
