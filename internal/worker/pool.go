package worker

import (
	"context"
	"sync"

	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/metrics"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/storage"

	"go.uber.org/zap"
)

// Pool distributes migration tasks across a fixed number of workers
type Pool struct {
	size    int
	config  Config
	client  storage.Client
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewPool creates a new worker pool
func NewPool(
	size int,
	config Config,
	client storage.Client,
	metricsCollector *metrics.Collector,
	logger *zap.Logger,
) *Pool {
	return &Pool{
		size:    size,
		config:  config,
		client:  client,
		metrics: metricsCollector,
		logger:  logger,
	}
}

// Run migrates the full task set and blocks until every task has resolved to
// exactly one outcome. One file's failure never halts the others. On
// cancellation, workers finish the attempt they are in, pending retries are
// abandoned, and tasks never claimed resolve as failed with ErrCancelled, so
// the report still accounts for the whole set.
func (p *Pool) Run(ctx context.Context, tasks []Task) *Report {
	taskCh := make(chan Task, len(tasks))
	for _, t := range tasks {
		taskCh <- t
	}
	close(taskCh)

	results := make(chan Outcome, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go p.worker(ctx, i, taskCh, results, &wg)
	}

	// Single aggregator goroutine owns the report while workers publish
	// outcomes, so no counter is ever written from two goroutines.
	report := &Report{Total: len(tasks)}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for outcome := range results {
			report.add(outcome)
		}
	}()

	wg.Wait()

	// Tasks still in the channel were never claimed before cancellation.
	for t := range taskCh {
		p.metrics.IncFailed()
		results <- Outcome{Task: t, Status: StatusFailed, Err: ErrCancelled}
	}

	close(results)
	<-done

	return report
}

func (p *Pool) worker(ctx context.Context, id int, tasks <-chan Task, results chan<- Outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := p.logger.With(zap.Int("worker_id", id))
	logger.Debug("Worker started")

	processor := &TaskProcessor{
		config:  p.config,
		client:  p.client,
		metrics: p.metrics,
		logger:  logger,
	}

	for {
		select {
		case task, ok := <-tasks:
			if !ok {
				logger.Debug("Worker finished - no more tasks")
				return
			}

			results <- processor.Process(ctx, task)

		case <-ctx.Done():
			logger.Debug("Worker stopped - run cancelled")
			return
		}
	}
}
