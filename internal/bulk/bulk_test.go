package bulk

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSequentialExecution(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	executed := []string{}

	op := &Operation{
		Jobs:            1,
		ContinueOnError: false,
	}

	fn := func(ctx context.Context, item string) error {
		executed = append(executed, item)
		return nil
	}

	result := op.Execute(context.Background(), items, fn)

	if result.TotalItems != 5 {
		t.Errorf("Expected 5 total items, got %d", result.TotalItems)
	}
	if result.Succeeded != 5 {
		t.Errorf("Expected 5 successes, got %d", result.Succeeded)
	}
	if result.Failed != 0 {
		t.Errorf("Expected 0 failures, got %d", result.Failed)
	}

	// Check order is preserved
	for i, item := range items {
		if executed[i] != item {
			t.Errorf("Order not preserved: expected %s at index %d, got %s", item, i, executed[i])
		}
	}
}

func TestZeroJobsIsSequential(t *testing.T) {
	items := []string{"x", "y", "z"}
	var executed []string

	op := &Operation{ContinueOnError: true}
	op.Execute(context.Background(), items, func(ctx context.Context, item string) error {
		executed = append(executed, item)
		return nil
	})

	if strings.Join(executed, ",") != "x,y,z" {
		t.Errorf("Expected in-order execution, got %v", executed)
	}
}

func TestParallelExecution(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	executedMap := make(map[string]bool)
	var mu sync.Mutex

	op := &Operation{
		Jobs:            4,
		ContinueOnError: true,
	}

	fn := func(ctx context.Context, item string) error {
		mu.Lock()
		executedMap[item] = true
		mu.Unlock()
		time.Sleep(10 * time.Millisecond) // Simulate work
		return nil
	}

	result := op.Execute(context.Background(), items, fn)

	if result.TotalItems != 8 {
		t.Errorf("Expected 8 total items, got %d", result.TotalItems)
	}
	if result.Succeeded != 8 {
		t.Errorf("Expected 8 successes, got %d", result.Succeeded)
	}
	if result.Failed != 0 {
		t.Errorf("Expected 0 failures, got %d", result.Failed)
	}

	for _, item := range items {
		if !executedMap[item] {
			t.Errorf("Item %s was not executed", item)
		}
	}
}

func TestParallelErrorsInInputOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f"}

	op := &Operation{
		Jobs:            3,
		ContinueOnError: true,
	}

	result := op.Execute(context.Background(), items, func(ctx context.Context, item string) error {
		if item == "b" || item == "e" {
			return errors.New("simulated error")
		}
		return nil
	})

	if result.Failed != 2 || result.Succeeded != 4 {
		t.Fatalf("Expected 4/2 split, got %d succeeded %d failed", result.Succeeded, result.Failed)
	}
	if result.Errors[0].Item != "b" || result.Errors[1].Item != "e" {
		t.Errorf("Errors not in input order: %+v", result.Errors)
	}
}

func TestContinueOnError(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	op := &Operation{
		Jobs:            1,
		ContinueOnError: true,
	}

	fn := func(ctx context.Context, item string) error {
		if item == "c" {
			return errors.New("simulated error")
		}
		return nil
	}

	result := op.Execute(context.Background(), items, fn)

	if result.TotalItems != 5 {
		t.Errorf("Expected 5 total items, got %d", result.TotalItems)
	}
	if result.Succeeded != 4 {
		t.Errorf("Expected 4 successes, got %d", result.Succeeded)
	}
	if result.Failed != 1 {
		t.Errorf("Expected 1 failure, got %d", result.Failed)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(result.Errors))
	}
	if result.Errors[0].Item != "c" {
		t.Errorf("Expected error for item 'c', got '%s'", result.Errors[0].Item)
	}
}

func TestStopOnError(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	executed := []string{}

	op := &Operation{
		Jobs:            1,
		ContinueOnError: false,
	}

	fn := func(ctx context.Context, item string) error {
		executed = append(executed, item)
		if item == "c" {
			return errors.New("simulated error")
		}
		return nil
	}

	result := op.Execute(context.Background(), items, fn)

	if result.Succeeded != 2 {
		t.Errorf("Expected 2 successes, got %d", result.Succeeded)
	}
	if result.Failed != 1 {
		t.Errorf("Expected 1 failure, got %d", result.Failed)
	}
	if result.Skipped != 2 {
		t.Errorf("Expected 2 skipped, got %d", result.Skipped)
	}
	if len(executed) != 3 {
		t.Errorf("Expected execution to stop after 3 items, got %d", len(executed))
	}
}

func TestCancelledContextStopsDequeue(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	ctx, cancel := context.WithCancel(context.Background())

	var executed []string
	op := &Operation{Jobs: 1, ContinueOnError: true}
	result := op.Execute(ctx, items, func(ctx context.Context, item string) error {
		executed = append(executed, item)
		if item == "b" {
			cancel()
		}
		return nil
	})

	if len(executed) != 2 {
		t.Errorf("Expected 2 executed items, got %v", executed)
	}
	if result.Skipped != 2 {
		t.Errorf("Expected 2 skipped, got %d", result.Skipped)
	}
}

func TestEmptyItems(t *testing.T) {
	op := &Operation{Jobs: 4}

	called := false
	result := op.Execute(context.Background(), nil, func(ctx context.Context, item string) error {
		called = true
		return nil
	})

	if called {
		t.Error("fn should not be called for empty input")
	}
	if result.TotalItems != 0 || result.Succeeded != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}

func TestProgressSuppressedForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	op := &Operation{Jobs: 1, ShowProgress: true, Progress: &buf}

	// A plain buffer is not an *os.File, so it is treated as an explicit sink.
	op.Execute(context.Background(), []string{"a"}, func(ctx context.Context, item string) error { return nil })
	if !strings.Contains(buf.String(), "Processing 1/1") {
		t.Errorf("Expected progress output, got %q", buf.String())
	}

	buf.Reset()
	op.ShowProgress = false
	op.Execute(context.Background(), []string{"a"}, func(ctx context.Context, item string) error { return nil })
	if buf.Len() != 0 {
		t.Errorf("Expected no progress output, got %q", buf.String())
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(50, 10); got != "█████░░░░░" {
		t.Errorf("progressBar(50, 10) = %q", got)
	}
	if got := progressBar(150, 4); got != "████" {
		t.Errorf("progressBar(150, 4) = %q", got)
	}
}

func TestParallelProgressRedrawsOnTicker(t *testing.T) {
	old := progressInterval
	progressInterval = 10 * time.Millisecond
	t.Cleanup(func() { progressInterval = old })

	var buf bytes.Buffer
	op := &Operation{Jobs: 2, ContinueOnError: true, ShowProgress: true, Progress: &buf}
	result := op.Execute(context.Background(), []string{"a", "b"}, func(ctx context.Context, item string) error {
		time.Sleep(60 * time.Millisecond)
		return nil
	})

	if result.Succeeded != 2 {
		t.Fatalf("Expected 2 succeeded, got %+v", result)
	}
	redraws := strings.Count(buf.String(), "Processing with 2 workers")
	if redraws == 0 || redraws > 30 {
		t.Errorf("Expected a handful of ticker-driven redraws, got %d", redraws)
	}
}
