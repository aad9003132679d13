// Package bridge submits jobs to an exchange queue on behalf of the control
// plane and waits for the execution plane to deposit a matching result.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sertech/docflow/internal/exchange"
)

const (
	DefaultWaitTimeout  = 120 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

// ErrTimeout is returned when no result appeared within the wait window. The
// underlying job is not cancelled; it may still complete later and leave an
// orphaned result file behind.
var ErrTimeout = errors.New("timed out waiting for job result")

type Bridge struct {
	queue        *exchange.Queue
	waitTimeout  time.Duration
	pollInterval time.Duration
	logger       *zap.SugaredLogger
}

type Option func(*Bridge)

func WithWaitTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.waitTimeout = d }
}

func WithPollInterval(d time.Duration) Option {
	return func(b *Bridge) { b.pollInterval = d }
}

func New(queue *exchange.Queue, opts ...Option) *Bridge {
	b := &Bridge{
		queue:        queue,
		waitTimeout:  DefaultWaitTimeout,
		pollInterval: DefaultPollInterval,
		logger:       zap.S().Named("bridge"),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Submission describes one job to cross the plane boundary.
type Submission struct {
	Action       string
	Payload      interface{}
	ArtifactPath string
	OrderNumber  string
	MimeType     string
	Prompt       string
}

// SubmitAndWait enqueues the job and polls for its result until the wait
// timeout (or ctx) expires. Artifact copy failures surface synchronously and
// leave nothing behind in the pending directory.
func (b *Bridge) SubmitAndWait(ctx context.Context, sub Submission) (*exchange.Result, error) {
	job := &exchange.Job{
		ID:          uuid.NewString(),
		Action:      sub.Action,
		OrderNumber: sub.OrderNumber,
		MimeType:    sub.MimeType,
		Prompt:      sub.Prompt,
		CreatedAt:   time.Now().Format(time.RFC3339),
	}

	if sub.ArtifactPath != "" {
		name, err := b.queue.CopyArtifact(sub.ArtifactPath)
		if err != nil {
			return nil, fmt.Errorf("artifact transport: %w", err)
		}
		job.FileName = name
	}

	if sub.Payload != nil {
		data, err := json.Marshal(sub.Payload)
		if err != nil {
			return nil, fmt.Errorf("encoding payload: %w", err)
		}
		job.Payload = data
	}

	if err := b.queue.Enqueue(job); err != nil {
		return nil, err
	}
	b.logger.Infof("submitted job %s (%s), waiting up to %s", job.ID, job.Action, b.waitTimeout)

	return b.await(ctx, job.ID)
}

func (b *Bridge) await(ctx context.Context, jobID string) (*exchange.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, b.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		result, ok, err := b.queue.TakeResult(jobID)
		if err != nil {
			return nil, err
		}
		if ok {
			b.logger.Infof("job %s finished with status %q", jobID, result.Status)
			return result, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				b.logger.Warnf("job %s: no result after %s", jobID, b.waitTimeout)
				return nil, ErrTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
