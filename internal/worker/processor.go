package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/metrics"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/storage"

	"go.uber.org/zap"
)

// ErrCancelled marks tasks that could not finish because the run was
// cancelled before they resolved.
var ErrCancelled = errors.New("migration cancelled")

// TaskProcessor migrates a single file: existence check first, then upload
// with bounded retry
type TaskProcessor struct {
	config  Config
	client  storage.Client
	metrics *metrics.Collector
	logger  *zap.Logger
}

// Process resolves one task to exactly one outcome. It never panics the
// worker and never aborts the batch: every error becomes a Failed outcome.
func (p *TaskProcessor) Process(ctx context.Context, task Task) Outcome {
	start := time.Now()

	outcome := p.process(ctx, task)

	switch outcome.Status {
	case StatusUploaded:
		p.metrics.IncUploaded(task.Size)
		p.metrics.ObserveDuration(time.Since(start))
		p.logger.Info("Uploaded file",
			zap.String("path", task.SourcePath),
			zap.String("key", task.Key),
			zap.Int64("size", task.Size),
			zap.Duration("duration", time.Since(start)),
		)
	case StatusSkipped:
		p.metrics.IncSkipped(task.Size)
		p.logger.Debug("Skipping file - already exists in bucket",
			zap.String("path", task.SourcePath),
			zap.String("key", task.Key),
		)
	case StatusFailed:
		p.metrics.IncFailed()
		p.logger.Error("Task failed",
			zap.String("path", task.SourcePath),
			zap.String("key", task.Key),
			zap.Error(outcome.Err),
		)
	}

	return outcome
}

func (p *TaskProcessor) process(ctx context.Context, task Task) Outcome {
	if ctx.Err() != nil {
		return Outcome{Task: task, Status: StatusFailed, Err: ErrCancelled}
	}

	exists, err := p.checkExists(ctx, task)
	if err != nil {
		return Outcome{Task: task, Status: StatusFailed, Err: err}
	}
	if exists {
		return Outcome{Task: task, Status: StatusSkipped}
	}

	if err := p.uploadWithRetry(ctx, task); err != nil {
		return Outcome{Task: task, Status: StatusFailed, Err: err}
	}

	return Outcome{Task: task, Status: StatusUploaded}
}

// checkExists queries the destination for the task's key. A missing object is
// an ordinary false; a failed query is an error, because treating an outage
// as "does not exist" would mask it behind redundant uploads. Transient query
// failures are retried on the same budget as uploads.
func (p *TaskProcessor) checkExists(ctx context.Context, task Task) (bool, error) {
	var lastErr error

	for attempt := 0; attempt <= p.config.Retries; attempt++ {
		p.logger.Debug("Checking destination for existing object",
			zap.String("key", task.Key),
			zap.Int("attempt", attempt+1),
		)

		_, err := p.statObject(ctx, task.Key)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}

		lastErr = err
		p.logger.Warn("Existence check failed, retrying",
			zap.String("key", task.Key),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		if attempt < p.config.Retries {
			if err := p.backoff(ctx); err != nil {
				return false, err
			}
		}
	}

	return false, fmt.Errorf("existence check for %s: %w", task.Key, lastErr)
}

// uploadWithRetry attempts the upload at most Retries+1 times with a fixed
// backoff between attempts. The existence check is not repeated between
// attempts; only the upload is retried.
func (p *TaskProcessor) uploadWithRetry(ctx context.Context, task Task) error {
	var lastErr error

	for attempt := 0; attempt <= p.config.Retries; attempt++ {
		p.logger.Debug("Uploading file",
			zap.String("path", task.SourcePath),
			zap.String("key", task.Key),
			zap.Int("attempt", attempt+1),
		)

		err := p.upload(ctx, task)
		if err == nil {
			return nil
		}

		lastErr = err
		p.logger.Warn("Upload attempt failed",
			zap.String("path", task.SourcePath),
			zap.String("key", task.Key),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		if attempt < p.config.Retries {
			if err := p.backoff(ctx); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("upload %s after %d attempts: %w", task.SourcePath, p.config.Retries+1, lastErr)
}

// backoff waits the fixed retry interval, abandoning the wait when the run is
// cancelled. The interval is deliberately constant rather than exponential:
// this is a bounded one-shot batch, not a long-lived service.
func (p *TaskProcessor) backoff(ctx context.Context) error {
	select {
	case <-time.After(time.Duration(p.config.RetryBackoffMs) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ErrCancelled
	}
}

func (p *TaskProcessor) statObject(ctx context.Context, key string) (storage.ObjectInfo, error) {
	ctx, cancel := p.requestContext(ctx)
	defer cancel()
	return p.client.StatObject(ctx, p.config.Bucket, key)
}

func (p *TaskProcessor) upload(ctx context.Context, task Task) error {
	ctx, cancel := p.requestContext(ctx)
	defer cancel()
	return p.client.Upload(ctx, p.config.Bucket, task.Key, task.SourcePath)
}

// requestContext bounds a single network call so a stalled connection
// surfaces as a retryable failure instead of hanging a worker. The attempt is
// detached from run cancellation: once a store call is in flight it runs to
// completion, so the store is never left holding a half-written object.
// Cancellation takes effect between attempts and during backoff instead.
func (p *TaskProcessor) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if p.config.RequestTimeoutMs <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(p.config.RequestTimeoutMs)*time.Millisecond)
}
