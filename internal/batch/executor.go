// Package batch fans out independent document-validation jobs with a hard
// concurrency ceiling, reporting per-item and aggregate progress.
package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sertech/docflow/internal/events"
	"github.com/sertech/docflow/internal/ocr"
	"github.com/sertech/docflow/pkg/metrics"
)

const emitterID = "batch"

// Processor is the two-phase document pipeline: extract a classification key
// from the artifact, then validate the full artifact against the rule set
// selected by that key's prefix.
type Processor interface {
	ExtractOrderNumber(ctx context.Context, path string) (string, error)
	ValidateRequirements(ctx context.Context, path string, orderNumber string) (*ocr.Validation, error)
}

// Emitter is the progress side channel.
type Emitter interface {
	Emit(senderID string, e events.Event)
}

// Outcome is one item's terminal state within a batch.
type Outcome struct {
	Item         string          `json:"item"`
	OK           bool            `json:"ok"`
	OrderNumber  string          `json:"oc_number,omitempty"`
	Class        string          `json:"document_class,omitempty"`
	Denomination string          `json:"denomination,omitempty"`
	Validation   *ocr.Validation `json:"validation,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// Summary aggregates a whole batch run.
type Summary struct {
	Total        int       `json:"total"`
	SuccessCount int       `json:"success_count"`
	ErrorCount   int       `json:"error_count"`
	Outcomes     []Outcome `json:"outcomes"`
	Elapsed      string    `json:"elapsed"`
}

type Executor struct {
	processor Processor
	emitter   Emitter
	logger    *zap.SugaredLogger
}

func NewExecutor(processor Processor, emitter Emitter) *Executor {
	return &Executor{
		processor: processor,
		emitter:   emitter,
		logger:    zap.S().Named("batch"),
	}
}

// Run discovers qualifying documents under roots and validates them with at
// most limit items in flight.
func (e *Executor) Run(ctx context.Context, roots []string, limit int64) (*Summary, error) {
	items, err := Discover(roots, ".pdf")
	if err != nil {
		return nil, fmt.Errorf("discovering documents: %w", err)
	}
	return e.RunItems(ctx, items, limit)
}

// RunItems validates an explicit list of documents. Failure of one item never
// cancels the others; a stuck item only holds one concurrency slot.
func (e *Executor) RunItems(ctx context.Context, items []string, limit int64) (*Summary, error) {
	if limit < 1 {
		limit = 1
	}
	start := time.Now()
	total := len(items)

	e.emit(events.Event{
		Type:    events.TypeBatchStart,
		Message: fmt.Sprintf("starting validation of %d documents", total),
		Date:    time.Now(),
		Total:   total,
	})

	if total == 0 {
		return &Summary{Total: 0, Outcomes: []Outcome{}, Elapsed: time.Since(start).String()}, nil
	}

	var (
		sem       = semaphore.NewWeighted(limit)
		wg        sync.WaitGroup
		mu        sync.Mutex
		outcomes  = make([]Outcome, 0, total)
		processed int32
	)

	for _, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			// context cancelled: record the remaining items as not run
			mu.Lock()
			outcomes = append(outcomes, Outcome{Item: item, Error: err.Error()})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(item string) {
			defer wg.Done()
			defer sem.Release(1)

			outcome := e.processItem(ctx, item)

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()

			status := "completed"
			if !outcome.OK {
				status = "failed"
			}
			metrics.IncreaseBatchItemsTotalMetric(status)

			done := int(atomic.AddInt32(&processed, 1))
			e.emit(events.Event{
				Type:      events.TypeBatchProgress,
				Message:   fmt.Sprintf("processed %s (%d/%d)", item, done, total),
				Date:      time.Now(),
				Processed: done,
				Total:     total,
			})
		}(item)
	}
	wg.Wait()

	summary := &Summary{Total: total, Outcomes: outcomes, Elapsed: time.Since(start).String()}
	for _, o := range outcomes {
		if o.OK {
			summary.SuccessCount++
		} else {
			summary.ErrorCount++
		}
	}

	e.emit(events.Event{
		Type:      events.TypeBatchComplete,
		Message:   fmt.Sprintf("batch finished: %d ok, %d failed", summary.SuccessCount, summary.ErrorCount),
		Date:      time.Now(),
		Processed: summary.SuccessCount + summary.ErrorCount,
		Total:     total,
		Data:      map[string]interface{}{"summary": summary},
	})
	e.logger.Infof("batch of %d documents finished in %s (%d ok, %d failed)",
		total, summary.Elapsed, summary.SuccessCount, summary.ErrorCount)

	return summary, nil
}

// processItem runs the two-phase pipeline for one document. Panics are
// contained and converted into a failed outcome for that item alone.
func (e *Executor) processItem(ctx context.Context, item string) (outcome Outcome) {
	outcome = Outcome{Item: item}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("document %s crashed the pipeline: %v", item, r)
			outcome.OK = false
			outcome.Error = fmt.Sprintf("processing crashed: %v", r)
		}
	}()

	orderNumber, err := e.processor.ExtractOrderNumber(ctx, item)
	if err != nil {
		outcome.Error = fmt.Sprintf("first-page analysis: %v", err)
		return outcome
	}
	if orderNumber == "" {
		outcome.Error = "no order number found on first page"
		return outcome
	}

	outcome.OrderNumber = orderNumber
	classification := ocr.Classify(orderNumber)
	outcome.Class = classification.Class
	outcome.Denomination = classification.Denomination

	validation, err := e.processor.ValidateRequirements(ctx, item, orderNumber)
	if err != nil {
		outcome.Error = fmt.Sprintf("requirement validation: %v", err)
		return outcome
	}

	outcome.Validation = validation
	outcome.OK = true
	return outcome
}

func (e *Executor) emit(event events.Event) {
	if e.emitter != nil {
		e.emitter.Emit(emitterID, event)
	}
}
