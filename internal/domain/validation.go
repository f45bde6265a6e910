package domain

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

// IsReservedPostSlug reports whether slug is one of the stock source posts
func IsReservedPostSlug(slug string) bool {
	for _, reserved := range ReservedPostSlugs {
		if slug == reserved {
			return true
		}
	}
	return false
}

// PlaceholderEmail synthesizes an address for a commenter without one.
// Registered commenters are keyed by their author id, anonymous ones by the
// comment id.
func PlaceholderEmail(c SourceComment) string {
	key := c.AuthorID
	if key == 0 {
		key = c.ID
	}
	return fmt.Sprintf("user.id-%d@%s", key, PlaceholderEmailDomain)
}

// ValidateAuthorDraft checks the fields the destination requires
func ValidateAuthorDraft(d AuthorDraft) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.Errorf("author name is required")
	}
	return nil
}

// ValidateCategoryDraft checks the fields the destination requires
func ValidateCategoryDraft(d CategoryDraft) error {
	if strings.TrimSpace(d.Slug) == "" {
		return errors.Errorf("category slug is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.Errorf("category name is required")
	}
	return nil
}

// ValidatePostDraft checks the fields the destination requires
func ValidatePostDraft(d PostDraft) error {
	if strings.TrimSpace(d.Slug) == "" {
		return errors.Errorf("post slug is required")
	}
	if strings.TrimSpace(d.Title) == "" {
		return errors.Errorf("post title is required")
	}
	if d.AuthorID == "" {
		return errors.Errorf("post author is required")
	}
	return nil
}

// ValidateCommentDraft checks the fields the destination requires
func ValidateCommentDraft(d CommentDraft) error {
	switch {
	case strings.TrimSpace(d.Body) == "":
		return errors.Errorf("comment body is required")
	case strings.TrimSpace(d.UserName) == "":
		return errors.Errorf("comment author name is required")
	case d.UserEmail == "":
		return errors.Errorf("comment author email is required")
	case d.PostID == "":
		return errors.Errorf("comment post is required")
	}
	return nil
}
