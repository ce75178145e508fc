package hunter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/helixir/paper-retrieval-service/internal/domain"
)

// DefaultBatchConcurrency bounds parallel in-flight hunts when the caller
// does not choose a limit. Per-source throughput is still governed by each
// source's rate limiter, not by this bound.
const DefaultBatchConcurrency = 5

// ProgressFunc receives batch progress updates. It is invoked at least once
// per completed item; panics inside the callback are recovered and never
// abort the batch.
type ProgressFunc func(completed, total int, message string)

// BatchOptions controls a batch hunt.
type BatchOptions struct {
	// MaxConcurrency bounds parallel hunts; defaults to DefaultBatchConcurrency.
	MaxConcurrency int64

	// Progress, when set, is called after each completed item.
	Progress ProgressFunc
}

// BatchHunt runs hunts for all identifiers with bounded concurrency.
// Output order matches input order regardless of completion order. When the
// context is cancelled, no new hunts are scheduled and the remaining slots
// are filled with empty-shell results.
func (h *Hunter) BatchHunt(ctx context.Context, raws []string, opts BatchOptions) []*domain.PaperResult {
	start := time.Now()
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultBatchConcurrency
	}
	if h.metrics != nil {
		h.metrics.RecordBatchStarted(len(raws))
	}

	results := make([]*domain.PaperResult, len(raws))
	sem := semaphore.NewWeighted(opts.MaxConcurrency)

	var wg sync.WaitGroup
	var completed atomic.Int64

	notify := func(message string) {
		if opts.Progress == nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				h.logger.Warn().Interface("panic", r).Msg("batch progress callback panicked")
			}
		}()
		opts.Progress(int(completed.Load()), len(raws), message)
	}

	for i, raw := range raws {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Cancelled: stop scheduling, fill the rest with shells.
			for j := i; j < len(raws); j++ {
				results[j] = h.emptyShell(raws[j])
			}
			completed.Add(int64(len(raws) - i))
			notify("batch cancelled")
			break
		}

		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			defer sem.Release(1)

			results[i] = h.Hunt(ctx, raw)
			completed.Add(1)
			notify(fmt.Sprintf("retrieved %s", results[i].Identifier))
		}(i, raw)
	}

	wg.Wait()

	h.publishBatchCompleted(ctx, results, time.Since(start))

	h.logger.Info().
		Int("total", len(raws)).
		Dur("duration", time.Since(start)).
		Msg("batch hunt completed")

	return results
}

// emptyShell builds the result for an identifier the batch never got to
// hunt: no metadata, placeholder document.
func (h *Hunter) emptyShell(raw string) *domain.PaperResult {
	id := domain.Classify(raw)
	shell := &domain.PaperResult{
		Identifier:  id.Canonical,
		Kind:        id.Kind,
		RetrievedAt: time.Now().UTC(),
	}

	text, confidence := synthesize(shell)
	shell.FullText = text
	shell.FullTextSource = domain.FullTextSourceVirtual
	shell.Confidence = confidence
	shell.QualityScore = qualityScore(shell)
	return shell
}

// publishBatchCompleted emits the batch.completed event when a publisher
// is configured.
func (h *Hunter) publishBatchCompleted(ctx context.Context, results []*domain.PaperResult, duration time.Duration) {
	if h.publisher == nil {
		return
	}

	var fullText, virtual int
	for _, result := range results {
		if result == nil {
			continue
		}
		if result.IsVirtual() {
			virtual++
		} else {
			fullText++
		}
	}

	batchID := uuid.New()
	event, err := domain.NewEvent(domain.EventTypeBatchCompleted, batchID.String(), domain.BatchCompletedPayload{
		BatchID:       batchID,
		Total:         len(results),
		FullTextFound: fullText,
		Virtual:       virtual,
		Duration:      duration,
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("building batch event failed")
		return
	}

	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn().Err(err).Msg("publishing batch event failed")
	}
}
