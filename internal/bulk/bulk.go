// Package bulk runs one operation over a list of items, either in order or
// through a bounded worker pool.
package bulk

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juju/loggo"
	"github.com/mattn/go-isatty"
)

var logger = loggo.GetLogger("pressmigrate.bulk")

// progressInterval is how often the parallel progress line is redrawn
var progressInterval = 100 * time.Millisecond

// Operation represents a bulk operation configuration
type Operation struct {
	// Jobs is the number of concurrent workers; 0 and 1 both mean sequential
	Jobs            int
	ContinueOnError bool
	ShowProgress    bool
	// Progress receives the progress line; defaults to stderr
	Progress io.Writer
}

// Result represents the result of a bulk operation
type Result struct {
	TotalItems int
	Succeeded  int
	Failed     int
	Skipped    int // not attempted because of cancellation or stop-on-error
	Errors     []ItemError
}

// ItemError represents an error for a specific item
type ItemError struct {
	Item  string
	Error error
	index int
}

// ItemFunc is the function to execute for each item
type ItemFunc func(ctx context.Context, item string) error

// Execute runs fn for every item. Items are processed in order when Jobs <= 1.
// Once ctx is done no further items are started.
func (op *Operation) Execute(ctx context.Context, items []string, fn ItemFunc) *Result {
	if len(items) == 0 {
		return &Result{}
	}

	jobs := op.Jobs
	if jobs <= 1 {
		return op.executeSequential(ctx, items, fn)
	}
	if jobs > len(items) {
		jobs = len(items)
	}
	return op.executeParallel(ctx, items, fn, jobs)
}

// executeSequential processes items one by one
func (op *Operation) executeSequential(ctx context.Context, items []string, fn ItemFunc) *Result {
	result := &Result{
		TotalItems: len(items),
	}
	progress := op.progressWriter()

	for i, item := range items {
		if ctx.Err() != nil {
			result.Skipped = len(items) - i
			break
		}
		if progress != nil {
			fmt.Fprintf(progress, "\rProcessing %d/%d...", i+1, len(items))
		}

		if err := fn(ctx, item); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ItemError{Item: item, Error: err, index: i})
			logger.Debugf("%s: error: %v", item, err)

			if !op.ContinueOnError {
				result.Skipped = len(items) - i - 1
				break
			}
			continue
		}
		result.Succeeded++
	}

	if progress != nil {
		fmt.Fprint(progress, "\r\033[K")
	}

	return result
}

// executeParallel processes items in parallel using a worker pool
func (op *Operation) executeParallel(ctx context.Context, items []string, fn ItemFunc, workers int) *Result {
	result := &Result{
		TotalItems: len(items),
	}

	type job struct {
		index int
		item  string
	}
	workQueue := make(chan job, len(items))
	for i, item := range items {
		workQueue <- job{index: i, item: item}
	}
	close(workQueue)

	var (
		completed  int32
		succeeded  int32
		failed     int32
		errorsMux  sync.Mutex
		stopSignal int32 // 0 = continue, 1 = stop
	)

	progress := op.progressWriter()
	var stopProgress, progressDone chan struct{}
	if progress != nil {
		stopProgress = make(chan struct{})
		progressDone = make(chan struct{})
		go func() {
			defer close(progressDone)
			ticker := time.NewTicker(progressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-stopProgress:
					return
				case <-ticker.C:
					c := atomic.LoadInt32(&completed)
					s := atomic.LoadInt32(&succeeded)
					f := atomic.LoadInt32(&failed)
					pct := int(float64(c) / float64(len(items)) * 100)
					fmt.Fprintf(progress, "\rProcessing with %d workers... [%s] %d/%d (✓ %d ✗ %d)",
						workers, progressBar(pct, 20), c, len(items), s, f)
				}
			}
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := range workQueue {
				if ctx.Err() != nil {
					continue
				}
				if !op.ContinueOnError && atomic.LoadInt32(&stopSignal) == 1 {
					continue
				}

				err := fn(ctx, j.item)
				atomic.AddInt32(&completed, 1)

				if err != nil {
					atomic.AddInt32(&failed, 1)
					errorsMux.Lock()
					result.Errors = append(result.Errors, ItemError{Item: j.item, Error: err, index: j.index})
					errorsMux.Unlock()
					logger.Debugf("%s: error: %v", j.item, err)

					if !op.ContinueOnError {
						atomic.StoreInt32(&stopSignal, 1)
					}
					continue
				}
				atomic.AddInt32(&succeeded, 1)
			}
		}()
	}

	wg.Wait()

	if progressDone != nil {
		close(stopProgress)
		<-progressDone
		fmt.Fprint(progress, "\r\033[K")
	}

	sort.Slice(result.Errors, func(a, b int) bool {
		return result.Errors[a].index < result.Errors[b].index
	})
	result.Succeeded = int(succeeded)
	result.Failed = int(failed)
	result.Skipped = len(items) - int(completed)

	return result
}

// progressWriter returns where to draw progress, or nil when progress is
// disabled or the destination is not a terminal.
func (op *Operation) progressWriter() io.Writer {
	if !op.ShowProgress {
		return nil
	}
	w := op.Progress
	if w == nil {
		w = os.Stderr
	}
	if f, ok := w.(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
		return nil
	}
	return w
}

// progressBar creates a simple progress bar
func progressBar(percent, width int) string {
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
