package batch

import (
	"runtime"
	"sync"
	"time"

	"github.com/inodb/cadd-thresholds/internal/dataset"
	"github.com/inodb/cadd-thresholds/internal/metrics"
	"github.com/inodb/cadd-thresholds/internal/panel"
)

// WorkItem is one (dataset, panel) pair queued for processing.
type WorkItem struct {
	Seq     int
	Dataset dataset.ID
	Panel   panel.Entry
	Path    string
	Entry   string
	// Duplicate is set when an earlier panel in the same run already
	// claimed Path.
	Duplicate bool
}

// WorkResult holds the outcome for a single pair.
type WorkResult struct {
	Seq     int
	Item    WorkItem
	Outcome Outcome
	Rows    []metrics.Row
	Elapsed time.Duration
	Err     error
}

// process runs items through a pool of workers calling fn.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func process(items <-chan WorkItem, workers int, fn func(WorkItem) WorkResult) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				r := fn(item)
				r.Seq = item.Seq
				r.Item = item
				results <- r
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// Out-of-order results are buffered until the next expected sequence number
// arrives. Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
