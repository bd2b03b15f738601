package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/config"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/keymap"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/metrics"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/progress"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/storage"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/walker"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/worker"

	"go.uber.org/zap"
)

// requestTimeout bounds each individual store call so one stalled connection
// surfaces as a retryable failure rather than hanging a worker forever.
const requestTimeout = 5 * time.Minute

// Migrator wires enumeration, key mapping and the worker pool together for
// one migration run. It owns the storage client for the run's lifetime.
type Migrator struct {
	cfg     *config.Config
	logger  *zap.Logger
	client  storage.Client
	metrics *metrics.Collector
	workers *worker.Pool
}

// New creates a migrator with a live store client built from the
// configuration
func New(cfg *config.Config, logger *zap.Logger) (*Migrator, error) {
	client, err := storage.NewMinIOClient(storage.Config{
		Endpoint:     cfg.S3.Endpoint,
		Region:       cfg.S3.Region,
		AccessKey:    cfg.S3.AccessKey,
		SecretKey:    cfg.S3.SecretKey,
		SessionToken: cfg.S3.SessionToken,
		Secure:       cfg.S3.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return NewWithClient(cfg, logger, client), nil
}

// NewWithClient creates a migrator around an existing store client; used by
// tests
func NewWithClient(cfg *config.Config, logger *zap.Logger, client storage.Client) *Migrator {
	metricsCollector := metrics.New()

	workerPool := worker.NewPool(cfg.Migration.Concurrency, worker.Config{
		Bucket:           cfg.Migration.Bucket,
		Retries:          cfg.Migration.Retries,
		RetryBackoffMs:   cfg.Migration.RetryBackoffMs,
		RequestTimeoutMs: int(requestTimeout / time.Millisecond),
	}, client, metricsCollector, logger)

	return &Migrator{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		metrics: metricsCollector,
		workers: workerPool,
	}
}

// Run executes one migration: enumerate, map keys, dispatch to the pool, and
// report. Enumeration failure aborts the whole run before any upload starts;
// per-file failures never do.
func (m *Migrator) Run(ctx context.Context) (*worker.Report, error) {
	mig := m.cfg.Migration

	m.logger.Info("Starting migration",
		zap.String("local_folder", mig.LocalFolder),
		zap.String("bucket", mig.Bucket),
		zap.String("prefix", mig.Prefix),
		zap.Bool("include_root_folder", mig.IncludeRootFolder),
		zap.Int("concurrency", mig.Concurrency),
		zap.Bool("dry_run", mig.DryRun),
	)

	if mig.MetricsAddr != "" {
		go func() {
			if err := m.metrics.StartServer(mig.MetricsAddr); err != nil {
				m.logger.Error("Failed to start metrics server", zap.Error(err))
			}
		}()
	}

	w, err := walker.New(mig.LocalFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to open local folder: %w", err)
	}

	files, err := w.Walk()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate files: %w", err)
	}

	if len(files) == 0 {
		m.logger.Info("No files found under local folder, nothing to migrate")
		return &worker.Report{}, nil
	}

	var totalBytes int64
	for _, f := range files {
		totalBytes += f.Size
	}
	m.metrics.SetTotalCounts(int64(len(files)), totalBytes)
	m.logger.Info("Enumeration completed",
		zap.Int("files", len(files)),
		zap.String("total_size", progress.FormatBytes(totalBytes)),
	)

	tasks, badPaths := m.mapTasks(w.Root(), files)

	if mig.DryRun {
		for _, t := range tasks {
			m.logger.Info("Would upload file",
				zap.String("path", t.SourcePath),
				zap.String("key", t.Key),
				zap.Int64("size", t.Size),
			)
		}
		return &worker.Report{Total: len(files), Failed: badPaths}, nil
	}

	var display *progress.Display
	if progress.IsTerminalSupported() {
		display = progress.NewDisplay(m.metrics.GetProgressTracker(), 2*time.Second)
		display.Start()
	}

	report := m.workers.Run(ctx, tasks)

	if display != nil {
		display.Stop()
	}

	// Files whose keys could not be derived still count against the run.
	report.Total += len(badPaths)
	report.Failed = append(report.Failed, badPaths...)

	m.logSummary(report)
	return report, nil
}

// mapTasks derives destination keys for every enumerated file. A file whose
// key cannot be derived fails immediately without retry; it is a bad input,
// not a transient condition.
func (m *Migrator) mapTasks(root string, files []walker.FileInfo) ([]worker.Task, []worker.Failure) {
	mig := m.cfg.Migration

	tasks := make([]worker.Task, 0, len(files))
	var failures []worker.Failure

	for _, f := range files {
		key, err := keymap.ObjectKey(f.Path, root, mig.Prefix, mig.IncludeRootFolder)
		if err != nil {
			m.logger.Error("Cannot derive destination key",
				zap.String("path", f.Path),
				zap.Error(err),
			)
			m.metrics.IncFailed()
			failures = append(failures, worker.Failure{
				Task: worker.Task{SourcePath: f.Path, Size: f.Size},
				Err:  err,
			})
			continue
		}

		tasks = append(tasks, worker.Task{SourcePath: f.Path, Key: key, Size: f.Size})
	}

	return tasks, failures
}

func (m *Migrator) logSummary(report *worker.Report) {
	m.logger.Info("Migration completed",
		zap.Int("total", report.Total),
		zap.Int("uploaded", report.Uploaded),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)),
	)

	for _, f := range report.Failed {
		m.logger.Error("Failed file",
			zap.String("path", f.Task.SourcePath),
			zap.String("key", f.Task.Key),
			zap.Error(f.Err),
		)
	}
}
