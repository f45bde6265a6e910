package migrate

import (
	"context"
	"fmt"

	"github.com/juju/collections/set"

	"github.com/lherron/pressmigrate/internal/domain"
)

// resolveCategories maps source category ids to destination slugs, dropping
// unknown ids and repeats while keeping order
func resolveCategories(st *State, ids []int64) []string {
	seen := set.NewStrings()
	var slugs []string
	for _, id := range ids {
		slug, ok := st.CategorySlugs[id]
		if !ok || seen.Contains(slug) {
			continue
		}
		seen.Add(slug)
		slugs = append(slugs, slug)
	}
	return slugs
}

// linkCategories sets the category list of every post that has one
func (m *Migrator) linkCategories(ctx context.Context, st *State, r *Report) {
	r.BeginPhase(PhaseLink)
	for _, req := range st.links.requests {
		if ctx.Err() != nil {
			return
		}
		if len(req.CategoryIDs) == 0 {
			continue
		}
		m.linkPost(ctx, st, req, r)
	}
}

func (m *Migrator) linkPost(ctx context.Context, st *State, req linkRequest, r *Report) {
	out := Outcome{Phase: PhaseLink, Kind: domain.KindPost, Key: req.Slug, DestID: req.PostID}

	slugs := resolveCategories(st, req.CategoryIDs)
	if len(slugs) == 0 {
		out.Status, out.Message = StatusSkipped, "no resolvable categories"
		r.Add(out)
		return
	}

	if err := m.dest.SetPostCategories(ctx, req.PostID, slugs); err != nil {
		out.Status, out.Err = StatusFailed, err
		r.Add(out)
		return
	}
	out.Status, out.Message = StatusLinked, fmt.Sprintf("%d categories", len(slugs))
	r.Add(out)
}
