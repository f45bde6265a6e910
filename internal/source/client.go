// Package source reads authors, categories, posts and comments from the
// source site's REST API.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"golang.org/x/sync/errgroup"

	"github.com/lherron/pressmigrate/internal/domain"
)

var logger = loggo.GetLogger("pressmigrate.source")

// totalPagesHeader carries the page count of a list response
const totalPagesHeader = "X-WP-TotalPages"

// maxPages caps pagination when the server omits the page count
const maxPages = 1000

// Options configures a Client
type Options struct {
	BaseURL  string
	User     string
	Password string
	PerPage  int
	Timeout  time.Duration
}

// Client is a read-only REST client for the source site
type Client struct {
	base     string
	user     string
	password string
	perPage  int
	http     *http.Client
}

// NewClient creates a source client. Credentials are optional.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.NewNotValid(nil, "missing source API URL")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, errors.NotValidf("source API URL %q", base)
	}
	perPage := opts.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 100
	}
	return &Client{
		base:     base,
		user:     opts.User,
		password: opts.Password,
		perPage:  perPage,
		http:     &http.Client{Timeout: opts.Timeout},
	}, nil
}

// FetchSnapshot reads the four source collections concurrently. Any list
// failure fails the whole snapshot.
func (c *Client) FetchSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		authors, err := c.Authors(gctx)
		snap.Authors = authors
		return err
	})
	g.Go(func() error {
		categories, err := c.Categories(gctx)
		snap.Categories = categories
		return err
	})
	g.Go(func() error {
		posts, err := c.Posts(gctx)
		snap.Posts = posts
		return err
	})
	g.Go(func() error {
		comments, err := c.Comments(gctx)
		snap.Comments = comments
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Infof("source snapshot: %d authors, %d categories, %d posts, %d comments",
		len(snap.Authors), len(snap.Categories), len(snap.Posts), len(snap.Comments))
	return &snap, nil
}

// Authors lists source users
func (c *Client) Authors(ctx context.Context) ([]domain.SourceAuthor, error) {
	items, err := list[wireUser](ctx, c, "users", nil)
	if err != nil {
		return nil, errors.Annotate(err, "listing source authors")
	}
	out := make([]domain.SourceAuthor, 0, len(items))
	for _, u := range items {
		out = append(out, u.toDomain())
	}
	return out, nil
}

// Categories lists source categories
func (c *Client) Categories(ctx context.Context) ([]domain.SourceCategory, error) {
	items, err := list[wireCategory](ctx, c, "categories", nil)
	if err != nil {
		return nil, errors.Annotate(err, "listing source categories")
	}
	out := make([]domain.SourceCategory, 0, len(items))
	for _, cat := range items {
		out = append(out, cat.toDomain())
	}
	return out, nil
}

// Posts lists source posts with their featured media embedded
func (c *Client) Posts(ctx context.Context) ([]domain.SourcePost, error) {
	items, err := list[wirePost](ctx, c, "posts", url.Values{"_embed": {"1"}})
	if err != nil {
		return nil, errors.Annotate(err, "listing source posts")
	}
	out := make([]domain.SourcePost, 0, len(items))
	for _, p := range items {
		out = append(out, p.toDomain())
	}
	return out, nil
}

// Comments lists source comments
func (c *Client) Comments(ctx context.Context) ([]domain.SourceComment, error) {
	items, err := list[wireComment](ctx, c, "comments", nil)
	if err != nil {
		return nil, errors.Annotate(err, "listing source comments")
	}
	out := make([]domain.SourceComment, 0, len(items))
	for _, cm := range items {
		out = append(out, cm.toDomain())
	}
	return out, nil
}

// Download fetches a media file with the same credentials as the list reads
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Annotatef(err, "building download request for %s", rawURL)
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Annotatef(err, "downloading %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("downloading %s: status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Annotatef(err, "reading %s", rawURL)
	}
	logger.Debugf("downloaded %s (%s)", rawURL, humanize.Bytes(uint64(len(data))))
	return data, nil
}

// list walks every page of a collection. It stops at the advertised page
// count, on an empty page, or on a short page.
func list[T any](ctx context.Context, c *Client, resource string, extra url.Values) ([]T, error) {
	var all []T
	for page := 1; page <= maxPages; page++ {
		items, totalPages, err := fetchPage[T](ctx, c, resource, extra, page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		logger.Tracef("%s page %d: %d items", resource, page, len(items))

		if len(items) == 0 || len(items) < c.perPage {
			break
		}
		if totalPages > 0 && page >= totalPages {
			break
		}
	}
	return all, nil
}

func fetchPage[T any](ctx context.Context, c *Client, resource string, extra url.Values, page int) ([]T, int, error) {
	q := url.Values{}
	for k, v := range extra {
		q[k] = v
	}
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(page))
	u := fmt.Sprintf("%s/%s?%s", c.base, resource, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, errors.Annotate(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, errors.Annotatef(err, "GET %s", resource)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, errors.Annotatef(err, "reading %s", resource)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, errors.Errorf("GET %s page %d: status %d: %s", resource, page, resp.StatusCode, truncate(string(body), 256))
	}

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, 0, errors.Annotatef(err, "decoding %s page %d", resource, page)
	}

	totalPages, _ := strconv.Atoi(resp.Header.Get(totalPagesHeader))
	return items, totalPages, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.user != "" || c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
