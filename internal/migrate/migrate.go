// Package migrate moves a source content snapshot into the destination
// content graph. A run is two passes: the first creates drafts (or reuses
// content found by natural key), the second publishes in dependency order
// and links posts to their categories. Every remote call is attempted once
// and a failing item never stops its siblings.
package migrate

import (
	"context"
	"io"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"golang.org/x/sync/errgroup"

	"github.com/lherron/pressmigrate/internal/asset"
	"github.com/lherron/pressmigrate/internal/domain"
	"github.com/lherron/pressmigrate/internal/naturalkey"
)

var logger = loggo.GetLogger("pressmigrate.migrate")

// Source is the read side of a migration
type Source interface {
	FetchSnapshot(ctx context.Context) (*domain.Snapshot, error)
	asset.Downloader
}

// Destination is the write side of a migration
type Destination interface {
	ExistingContent(ctx context.Context) (*naturalkey.Indexes, error)
	CreateAuthor(ctx context.Context, d domain.AuthorDraft) (string, error)
	CreateCategory(ctx context.Context, d domain.CategoryDraft) (string, error)
	CreatePost(ctx context.Context, d domain.PostDraft) (string, error)
	CreateComment(ctx context.Context, d domain.CommentDraft) (string, error)
	SetPostCategories(ctx context.Context, postID string, slugs []string) error
	Publish(ctx context.Context, kind domain.Kind, id string) error
	asset.Creator
}

// Options tunes a Migrator
type Options struct {
	// Jobs bounds concurrent publishes within one publish phase
	Jobs int
	// Out receives the status lines; nil discards them
	Out io.Writer
	// Observer sees every outcome as it is recorded
	Observer     func(Outcome)
	ShowProgress bool
}

// Migrator runs migrations from one source to one destination
type Migrator struct {
	source   Source
	dest     Destination
	uploader asset.Uploader
	opts     Options
}

// New creates a Migrator
func New(source Source, dest Destination, uploader asset.Uploader, opts Options) *Migrator {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Migrator{
		source:   source,
		dest:     dest,
		uploader: uploader,
		opts:     opts,
	}
}

// Run performs one complete migration. The returned error is only set when
// the run could not start (the initial reads failed) or was cancelled;
// item failures are recorded in the report.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	report := NewReport(m.opts.Out, m.opts.Observer)

	existing, snap, err := m.load(ctx)
	if err != nil {
		return report, err
	}
	st := NewState(existing)
	st.assets = asset.New(m.source, m.dest, m.uploader)

	// pass 1: drafts
	m.migrateAuthors(ctx, st, snap.Authors, report)
	m.migrateCategories(ctx, st, snap.Categories, report)
	m.publishSet(ctx, PhasePublishCategories, domain.KindCategory, st.PublishCategories, report)
	m.migratePosts(ctx, st, snap.Posts, report)
	m.migrateComments(ctx, st, snap.Comments, report)

	// pass 2: publish and link
	m.publishSet(ctx, PhasePublishAssets, domain.KindAsset, st.PublishAssets, report)
	m.publishSet(ctx, PhasePublishPosts, domain.KindPost, st.PublishPosts, report)
	m.publishSet(ctx, PhasePublishComments, domain.KindComment, st.PublishComments, report)
	m.linkCategories(ctx, st, report)
	m.publishSet(ctx, PhasePublishExisting, domain.KindPost, st.PublishExistingPosts, report)
	m.publishSet(ctx, PhasePublishAuthors, domain.KindAuthor, st.PublishAuthors, report)

	if err := ctx.Err(); err != nil {
		return report, errors.Annotate(err, "migration interrupted")
	}
	logger.Infof("migration complete: %d outcomes, %d failed", len(report.Outcomes()), len(report.Failed()))
	return report, nil
}

// load reads the existing destination content and the source snapshot
// concurrently. Either failing is fatal since dedup needs both.
func (m *Migrator) load(ctx context.Context) (*naturalkey.Indexes, *domain.Snapshot, error) {
	var (
		existing *naturalkey.Indexes
		snap     *domain.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		existing, err = m.dest.ExistingContent(gctx)
		return errors.Annotate(err, "reading existing destination content")
	})
	g.Go(func() error {
		var err error
		snap, err = m.source.FetchSnapshot(gctx)
		return errors.Annotate(err, "reading source content")
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return existing, snap, nil
}
