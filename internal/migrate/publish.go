package migrate

import (
	"context"

	"github.com/lherron/pressmigrate/internal/bulk"
	"github.com/lherron/pressmigrate/internal/domain"
)

// publishSet publishes every queued id of one kind. The call returns only
// after all items finished, so each publish phase is a barrier.
func (m *Migrator) publishSet(ctx context.Context, phase Phase, kind domain.Kind, set *PublishSet, r *Report) {
	r.BeginPhase(phase)
	if set.Len() == 0 {
		logger.Debugf("%s: nothing to publish", phase)
		return
	}

	op := bulk.Operation{
		Jobs:            m.opts.Jobs,
		ContinueOnError: true,
		ShowProgress:    m.opts.ShowProgress,
	}
	result := op.Execute(ctx, set.IDs(), func(ctx context.Context, id string) error {
		out := Outcome{Phase: phase, Kind: kind, Key: set.Label(id), DestID: id, Status: StatusPublished}
		if err := m.dest.Publish(ctx, kind, id); err != nil {
			out.Status, out.Err = StatusFailed, err
			r.Add(out)
			return err
		}
		r.Add(out)
		return nil
	})

	if result.Skipped > 0 {
		logger.Warningf("%s: %d of %d not attempted", phase, result.Skipped, result.TotalItems)
	}
	logger.Debugf("%s: %d published, %d failed", phase, result.Succeeded, result.Failed)
}
