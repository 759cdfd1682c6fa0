// Package pipeline runs batches of SMS messages through the financial filter
// and the transaction extractor.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/smsfin/internal/common"
	"github.com/Veraticus/smsfin/internal/model"
	"github.com/Veraticus/smsfin/internal/service"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DefaultReviewThreshold is the confidence below which extracted transactions are flagged.
const DefaultReviewThreshold = 0.5

// Classifier decides whether a message is financial.
type Classifier interface {
	Classify(sender, body string) model.ClassificationResult
}

// Extractor pulls structured fields out of a financial message.
type Extractor interface {
	Extract(body, sender string, received time.Time) model.ExtractedTransaction
}

// Options configures a pipeline.
type Options struct {
	Sink            service.RecordSink // Optional; receives records and the run summary
	Progress        func(done, total int)
	Source          string // Recorded on the run, usually the input path
	Retry           common.RetryOptions
	Workers         int
	SaveBatchSize   int
	ReviewThreshold float64       // Confidence threshold for review flagging (0.0-1.0)
	DedupeWindow    time.Duration // Remember hashes across runs for this long; 0 means per run
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Workers:         4,
		ReviewThreshold: DefaultReviewThreshold,
		SaveBatchSize:   500,
		Retry:           common.DefaultRetryOptions(),
	}
}

// Pipeline classifies and extracts batches of messages. It is safe for
// sequential reuse; concurrent Run calls share the dedupe window.
type Pipeline struct {
	filter    Classifier
	extractor Extractor
	seen      *cache.Cache
	opts      Options
}

// New creates a pipeline. Zero option values fall back to DefaultOptions.
func New(filter Classifier, extractor Extractor, opts Options) (*Pipeline, error) {
	if filter == nil || extractor == nil {
		return nil, errors.New("pipeline requires a filter and an extractor")
	}

	defaults := DefaultOptions()
	if opts.Workers <= 0 {
		opts.Workers = defaults.Workers
	}
	if opts.SaveBatchSize <= 0 {
		opts.SaveBatchSize = defaults.SaveBatchSize
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = defaults.Retry
	}
	if opts.ReviewThreshold < 0 || opts.ReviewThreshold > 1 {
		return nil, fmt.Errorf("%w: review threshold %.2f outside 0..1", common.ErrInvalidConfig, opts.ReviewThreshold)
	}

	p := &Pipeline{
		filter:    filter,
		extractor: extractor,
		opts:      opts,
	}
	if opts.DedupeWindow > 0 {
		p.seen = cache.New(opts.DedupeWindow, 2*opts.DedupeWindow)
	}
	return p, nil
}

type workResult struct {
	record model.Record
	index  int
}

// Run processes msgs and returns one record per input message in input order.
// When a sink is configured and saving fails, the result is still returned
// alongside the error.
func (p *Pipeline) Run(ctx context.Context, msgs []model.RawMessage) (*Result, error) {
	return p.RunSource(ctx, p.opts.Source, msgs)
}

// RunSource is Run with the recorded source overridden, for processing
// several exports through one dedupe window.
func (p *Pipeline) RunSource(ctx context.Context, source string, msgs []model.RawMessage) (*Result, error) {
	if len(msgs) == 0 {
		return nil, common.ErrNoMessages
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Source:    source,
		StartedAt: time.Now(),
		Records:   make([]model.Record, len(msgs)),
	}

	slog.Info("Starting extraction run",
		"run_id", result.RunID,
		"messages", len(msgs),
		"workers", p.opts.Workers)

	work := p.prepare(result.Records, msgs)

	if err := p.process(ctx, result.Records, work); err != nil {
		return nil, err
	}

	result.FinishedAt = time.Now()
	result.Summary = summarize(result.Records, result.FinishedAt.Sub(result.StartedAt))

	slog.Info("Extraction run complete",
		"run_id", result.RunID,
		"financial", result.Summary.Financial,
		"excluded", result.Summary.Excluded,
		"needs_review", result.Summary.NeedsReview,
		"duration", result.Summary.Duration)

	if p.opts.Sink != nil {
		if err := p.save(ctx, result); err != nil {
			return result, err
		}
	}

	return result, nil
}

// prepare assigns IDs and hashes and marks outbound and duplicate messages.
// It returns the indexes that still need classification.
func (p *Pipeline) prepare(records []model.Record, msgs []model.RawMessage) []int {
	seen := p.seen
	if seen == nil {
		seen = cache.New(cache.NoExpiration, 0)
	}

	work := make([]int, 0, len(msgs))
	for i, msg := range msgs {
		if msg.ID == "" {
			msg.ID = model.MessageID(i + 1)
		}
		rec := model.Record{Message: msg, Hash: msg.Hash()}

		switch {
		case !msg.IsInbound():
			rec.SkipReason = model.SkipOutbound
		case seen.Add(rec.Hash, msg.ID, cache.DefaultExpiration) != nil:
			rec.SkipReason = model.SkipDuplicate
		default:
			work = append(work, i)
		}
		records[i] = rec
	}
	return work
}

// process fans the work out to the configured number of workers.
func (p *Pipeline) process(ctx context.Context, records []model.Record, work []int) error {
	workChan := make(chan int, len(work))
	for _, idx := range work {
		workChan <- idx
	}
	close(workChan)

	resultsChan := make(chan workResult, len(work))

	var wg sync.WaitGroup
	wg.Add(p.opts.Workers)
	for i := 0; i < p.opts.Workers; i++ {
		go func() {
			defer wg.Done()
			p.worker(ctx, records, workChan, resultsChan)
		}()
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	done := 0
	for res := range resultsChan {
		records[res.index] = res.record
		done++
		if p.opts.Progress != nil {
			p.opts.Progress(done, len(work))
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("extraction interrupted after %d of %d messages: %w", done, len(work), err)
	}
	return nil
}

// worker reads records only at the indexes it receives, so no locking is needed.
func (p *Pipeline) worker(ctx context.Context, records []model.Record, workChan <-chan int, resultsChan chan<- workResult) {
	for idx := range workChan {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rec := records[idx]
		msg := rec.Message
		rec.Classification = p.filter.Classify(msg.Sender, msg.Body)

		if rec.Classification.IsFinancial {
			txn := p.extractor.Extract(msg.Body, msg.Sender, msg.Timestamp)
			rec.Transaction = &txn
			rec.NeedsReview = !txn.Reliable(p.opts.ReviewThreshold)
			if !txn.HasAmount() {
				common.LogDebug("No amount found in financial message", common.Fields{
					"id":         msg.ID,
					"confidence": txn.Confidence,
				})
			}
		}

		resultsChan <- workResult{index: idx, record: rec}
	}
}

// save hands records to the sink in batches, retrying transient failures,
// then records the run.
func (p *Pipeline) save(ctx context.Context, result *Result) error {
	batch := make([]model.Record, 0, p.opts.SaveBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := common.WithRetry(ctx, func() error {
			return p.opts.Sink.SaveRecords(ctx, result.RunID, batch)
		}, p.opts.Retry)
		if err != nil {
			common.LogError(err, "Failed to save batch", common.Fields{
				"run_id":  result.RunID,
				"records": len(batch),
			})
		}
		batch = batch[:0]
		return err
	}

	for _, rec := range result.Records {
		if rec.Skipped() {
			continue
		}
		batch = append(batch, rec)
		if len(batch) == p.opts.SaveBatchSize {
			if err := flush(); err != nil {
				return fmt.Errorf("failed to save records: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}

	run := result.Run()
	if err := common.WithRetry(ctx, func() error {
		return p.opts.Sink.SaveRun(ctx, run)
	}, p.opts.Retry); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	common.LogInfo("Saved run", common.Fields{
		"run_id":  result.RunID,
		"records": result.Summary.Total - result.Summary.OutboundSkipped - result.Summary.Duplicates,
	})
	return nil
}
