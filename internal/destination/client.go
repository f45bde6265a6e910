// Package destination talks to the destination content graph over GraphQL.
package destination

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/machinebox/graphql"
	"golang.org/x/sync/errgroup"

	"github.com/lherron/pressmigrate/internal/domain"
	"github.com/lherron/pressmigrate/internal/naturalkey"
)

var logger = loggo.GetLogger("pressmigrate.destination")

// pageSize is the largest page the destination returns for a list query
const pageSize = 100

// typeNames maps entity kinds to destination schema type names
var typeNames = map[domain.Kind]string{
	domain.KindAuthor:   "Author",
	domain.KindCategory: "Category",
	domain.KindAsset:    "Asset",
	domain.KindPost:     "BlogPost",
	domain.KindComment:  "Comment",
}

// Client is a GraphQL client for the destination content API
type Client struct {
	gql   *graphql.Client
	token string
}

// NewClient creates a destination client. Both endpoint and token are required.
func NewClient(endpoint, token string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.NotValidf("destination endpoint %q", endpoint)
	}
	if strings.TrimSpace(token) == "" {
		return nil, errors.NewNotValid(nil, "missing destination token")
	}
	gql := graphql.NewClient(endpoint, graphql.WithHTTPClient(&http.Client{Timeout: timeout}))
	gql.Log = func(s string) { logger.Tracef("%s", s) }
	return &Client{gql: gql, token: token}, nil
}

type idResult struct {
	ID string `json:"id"`
}

func (c *Client) run(ctx context.Context, op, query string, vars map[string]interface{}, resp interface{}) error {
	req := graphql.NewRequest(query)
	for k, v := range vars {
		req.Var(k, v)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if err := c.gql.Run(ctx, req, resp); err != nil {
		return errors.Annotatef(err, "%s", op)
	}
	return nil
}

// mutateID runs a mutation whose only selection is the id of field
func (c *Client) mutateID(ctx context.Context, op, field, query string, vars map[string]interface{}) (string, error) {
	var resp map[string]*idResult
	if err := c.run(ctx, op, query, vars, &resp); err != nil {
		return "", err
	}
	res := resp[field]
	if res == nil || res.ID == "" {
		return "", errors.Errorf("%s: no id in response", op)
	}
	return res.ID, nil
}

// ExistingContent reads every deduplicated kind concurrently
func (c *Client) ExistingContent(ctx context.Context) (*naturalkey.Indexes, error) {
	idx := naturalkey.NewIndexes()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := c.ExistingAuthors(gctx)
		idx.Authors = naturalkey.Build(records)
		return err
	})
	g.Go(func() error {
		records, err := c.ExistingCategories(gctx)
		idx.Categories = naturalkey.Build(records)
		return err
	})
	g.Go(func() error {
		records, err := c.ExistingAssets(gctx)
		idx.Assets = naturalkey.Build(records)
		return err
	})
	g.Go(func() error {
		records, err := c.ExistingPosts(gctx)
		idx.Posts = naturalkey.Build(records)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Infof("destination has %d authors, %d categories, %d assets, %d posts",
		idx.Authors.Len(), idx.Categories.Len(), idx.Assets.Len(), idx.Posts.Len())
	return idx, nil
}

// ExistingAuthors lists destination authors keyed by display name
func (c *Client) ExistingAuthors(ctx context.Context) ([]domain.Record, error) {
	return c.listRecords(ctx, "authors", existingAuthorsQuery, nil, func(n node) string { return n.Name })
}

// ExistingCategories lists destination categories keyed by slug
func (c *Client) ExistingCategories(ctx context.Context) ([]domain.Record, error) {
	return c.listRecords(ctx, "categories", existingCategoriesQuery, nil, func(n node) string { return n.CategorySlug })
}

// ExistingAssets lists destination assets keyed by file name
func (c *Client) ExistingAssets(ctx context.Context) ([]domain.Record, error) {
	return c.listRecords(ctx, "assets", existingAssetsQuery, nil, func(n node) string { return n.FileName })
}

// ExistingPosts lists destination posts keyed by slug, leaving out the
// reserved stock posts
func (c *Client) ExistingPosts(ctx context.Context) ([]domain.Record, error) {
	vars := map[string]interface{}{"reserved": domain.ReservedPostSlugs}
	return c.listRecords(ctx, "blogPosts", existingPostsQuery, vars, func(n node) string { return n.Slug })
}

type node struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	FileName     string `json:"fileName"`
	CategorySlug string `json:"categorySlug"`
}

func (c *Client) listRecords(ctx context.Context, field, query string, extra map[string]interface{}, key func(node) string) ([]domain.Record, error) {
	var records []domain.Record
	for skip := 0; ; skip += pageSize {
		vars := map[string]interface{}{"first": pageSize, "skip": skip}
		for k, v := range extra {
			vars[k] = v
		}
		var resp map[string][]node
		if err := c.run(ctx, "listing existing "+field, query, vars, &resp); err != nil {
			return nil, err
		}
		page := resp[field]
		for _, n := range page {
			records = append(records, domain.Record{ID: n.ID, Key: key(n)})
		}
		if len(page) < pageSize {
			break
		}
	}
	return records, nil
}

// CreateAuthor creates a draft author
func (c *Client) CreateAuthor(ctx context.Context, d domain.AuthorDraft) (string, error) {
	return c.mutateID(ctx, "creating author "+d.Name, "createAuthor", createAuthorMutation, map[string]interface{}{
		"name":  d.Name,
		"about": d.About,
	})
}

// CreateCategory creates a draft category
func (c *Client) CreateCategory(ctx context.Context, d domain.CategoryDraft) (string, error) {
	return c.mutateID(ctx, "creating category "+d.Slug, "createCategory", createCategoryMutation, map[string]interface{}{
		"name":        d.Name,
		"slug":        d.Slug,
		"description": d.Description,
	})
}

// CreatePost creates a draft post. The featured image connection is only
// sent when the draft carries an asset.
func (c *Client) CreatePost(ctx context.Context, d domain.PostDraft) (string, error) {
	return c.mutateID(ctx, "creating post "+d.Slug, "createBlogPost", createPostMutation, map[string]interface{}{
		"data": postInput(d),
	})
}

func postInput(d domain.PostDraft) map[string]interface{} {
	data := map[string]interface{}{
		"title":       d.Title,
		"slug":        d.Slug,
		"excerpt":     d.Excerpt,
		"description": d.Body,
		"author":      connect(d.AuthorID),
	}
	if d.FeaturedImageID != "" {
		data["featuredImage"] = connect(d.FeaturedImageID)
	}
	return data
}

func connect(id string) map[string]interface{} {
	return map[string]interface{}{"connect": map[string]string{"id": id}}
}

// CreateComment creates a draft comment connected to its post
func (c *Client) CreateComment(ctx context.Context, d domain.CommentDraft) (string, error) {
	return c.mutateID(ctx, "creating comment on "+d.PostID, "createComment", createCommentMutation, map[string]interface{}{
		"blogPostComment": d.Body,
		"userName":        d.UserName,
		"userEmail":       d.UserEmail,
		"userWebsite":     d.UserWebsite,
		"blogPostId":      d.PostID,
	})
}

type requestPostData struct {
	URL           string `json:"url"`
	Date          string `json:"date"`
	Key           string `json:"key"`
	Signature     string `json:"signature"`
	Algorithm     string `json:"algorithm"`
	Policy        string `json:"policy"`
	Credential    string `json:"credential"`
	SecurityToken string `json:"securityToken"`
}

// ticket orders the form fields the way the storage endpoint expects them
func (r requestPostData) ticket() domain.UploadTicket {
	return domain.UploadTicket{
		URL: r.URL,
		Fields: []domain.FormField{
			{Name: "key", Value: r.Key},
			{Name: "policy", Value: r.Policy},
			{Name: "x-amz-signature", Value: r.Signature},
			{Name: "x-amz-credential", Value: r.Credential},
			{Name: "x-amz-algorithm", Value: r.Algorithm},
			{Name: "x-amz-date", Value: r.Date},
			{Name: "x-amz-security-token", Value: r.SecurityToken},
		},
	}
}

// CreateAsset creates a draft asset record and returns its id with the
// upload ticket for the binary
func (c *Client) CreateAsset(ctx context.Context, fileName string) (string, domain.UploadTicket, error) {
	var resp struct {
		CreateAsset *struct {
			ID     string `json:"id"`
			Upload *struct {
				RequestPostData *requestPostData `json:"requestPostData"`
			} `json:"upload"`
		} `json:"createAsset"`
	}
	op := "creating asset " + fileName
	if err := c.run(ctx, op, createAssetMutation, map[string]interface{}{"name": fileName}, &resp); err != nil {
		return "", domain.UploadTicket{}, err
	}
	if resp.CreateAsset == nil || resp.CreateAsset.ID == "" {
		return "", domain.UploadTicket{}, errors.Errorf("%s: no id in response", op)
	}
	id := resp.CreateAsset.ID
	if resp.CreateAsset.Upload == nil || resp.CreateAsset.Upload.RequestPostData == nil {
		return id, domain.UploadTicket{}, nil
	}
	return id, resp.CreateAsset.Upload.RequestPostData.ticket(), nil
}

// UpdateAssetMetadata sets alt text and caption on an asset
func (c *Client) UpdateAssetMetadata(ctx context.Context, id, altText, caption string) error {
	_, err := c.mutateID(ctx, "updating asset "+id, "updateAsset", updateAssetMetadataMutation, map[string]interface{}{
		"id":      id,
		"altText": altText,
		"caption": caption,
	})
	return err
}

// SetPostCategories replaces the category set of a post
func (c *Client) SetPostCategories(ctx context.Context, postID string, slugs []string) error {
	categories := make([]map[string]string, 0, len(slugs))
	for _, s := range slugs {
		categories = append(categories, map[string]string{"categorySlug": s})
	}
	_, err := c.mutateID(ctx, "linking categories on "+postID, "updateBlogPost", setPostCategoriesMutation, map[string]interface{}{
		"id":         postID,
		"categories": categories,
	})
	return err
}

// Publish promotes a draft entity to the published stage
func (c *Client) Publish(ctx context.Context, kind domain.Kind, id string) error {
	typeName, ok := typeNames[kind]
	if !ok {
		return errors.NotValidf("publish kind %q", kind)
	}
	_, err := c.mutateID(ctx, fmt.Sprintf("publishing %s %s", kind, id), "publish"+typeName,
		fmt.Sprintf(publishMutation, typeName), map[string]interface{}{"id": id})
	return err
}
