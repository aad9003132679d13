package worker

import (
	"context"
	"fmt"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/sertech/docflow/internal/exchange"
	"github.com/sertech/docflow/pkg/metrics"
)

// Handler executes one claimed job and returns the data for its result.
type Handler interface {
	Handle(ctx context.Context, job *exchange.Job) (map[string]interface{}, error)
}

// Watcher drains one exchange queue: it scans the pending directory on a
// jittered interval, claims whatever it finds and runs each job to a
// deposited result. Jobs within one scan are executed sequentially; portal
// runs hold a browser session and must not overlap on the same machine.
type Watcher struct {
	queue    *exchange.Queue
	handler  Handler
	interval time.Duration
	logger   *zap.SugaredLogger
}

func NewWatcher(queue *exchange.Queue, handler Handler, interval time.Duration) *Watcher {
	return &Watcher{
		queue:    queue,
		handler:  handler,
		interval: interval,
		logger:   zap.S().Named("watcher").With("queue", queue.Name()),
	}
}

// Run blocks until ctx is cancelled. A failing or crashing job never takes
// the loop down; its failure is deposited as that job's result.
func (w *Watcher) Run(ctx context.Context) {
	ticker := jitterbug.New(w.interval, &jitterbug.Norm{Stdev: 100 * time.Millisecond})
	defer ticker.Stop()

	w.logger.Infof("watching for jobs every %s", w.interval)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return
		case <-ticker.C:
		}
		w.scan(ctx)
	}
}

func (w *Watcher) scan(ctx context.Context) {
	metrics.UpdateQueuePendingJobsMetric(w.queue.Name(), w.queue.PendingCount())

	jobs, err := w.queue.PollPending()
	if err != nil {
		w.logger.Errorf("failed to scan pending jobs: %v", err)
		return
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		if err := w.queue.Claim(job.ID); err != nil {
			if err != exchange.ErrNotClaimed {
				w.logger.Errorf("failed to claim job %s: %v", job.ID, err)
			}
			continue
		}
		w.execute(ctx, job)
	}
}

func (w *Watcher) execute(ctx context.Context, job *exchange.Job) {
	w.logger.Infof("executing job %s (%s)", job.ID, job.Action)
	start := time.Now()

	data, err := w.safeHandle(ctx, job)
	if err != nil {
		w.logger.Warnf("job %s failed after %s: %v", job.ID, time.Since(start), err)
		metrics.IncreaseJobsProcessedTotalMetric(job.Action, exchange.StatusFailed)
		if ferr := w.queue.Fail(job.ID, err); ferr != nil {
			w.logger.Errorf("failed to deposit failure for job %s: %v", job.ID, ferr)
		}
		return
	}

	w.logger.Infof("job %s completed in %s", job.ID, time.Since(start))
	metrics.IncreaseJobsProcessedTotalMetric(job.Action, exchange.StatusCompleted)
	if err := w.queue.Complete(job.ID, exchange.NewCompletedResult(job.ID, data)); err != nil {
		w.logger.Errorf("failed to deposit result for job %s: %v", job.ID, err)
	}
}

// safeHandle contains handler panics so a single poisonous job cannot kill
// the watcher loop.
func (w *Watcher) safeHandle(ctx context.Context, job *exchange.Job) (data map[string]interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorf("job %s crashed the handler: %v", job.ID, r)
			err = fmt.Errorf("job handler crashed: %v", r)
		}
	}()
	return w.handler.Handle(ctx, job)
}
