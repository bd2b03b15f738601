package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/metrics"
	"github.com/jase-perf/p4-migrate-depot-to-s3/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubClient is an in-memory storage.Client that counts calls and can be told
// to fail uploads or existence checks per key.
type stubClient struct {
	mu          sync.Mutex
	existing    map[string]bool
	failUploads map[string]int // key -> upload failures before success; -1 fails forever
	statErr     error          // non-nil makes every stat fail with this error
	statCalls   map[string]int
	uploadCalls map[string]int
	uploadDelay time.Duration
}

func newStubClient() *stubClient {
	return &stubClient{
		existing:    map[string]bool{},
		failUploads: map[string]int{},
		statCalls:   map[string]int{},
		uploadCalls: map[string]int{},
	}
}

func (s *stubClient) StatObject(ctx context.Context, bucket, key string) (storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statCalls[key]++
	if s.statErr != nil {
		return storage.ObjectInfo{}, s.statErr
	}
	if s.existing[key] {
		return storage.ObjectInfo{Key: key}, nil
	}
	return storage.ObjectInfo{}, storage.ErrNotFound
}

func (s *stubClient) Upload(ctx context.Context, bucket, key, filePath string) error {
	if s.uploadDelay > 0 {
		select {
		case <-time.After(s.uploadDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploadCalls[key]++
	remaining := s.failUploads[key]
	if remaining < 0 {
		return errors.New("connection reset")
	}
	if remaining > 0 {
		s.failUploads[key] = remaining - 1
		return errors.New("connection reset")
	}

	s.existing[key] = true
	return nil
}

func newTestProcessor(client storage.Client, retries int) *TaskProcessor {
	return &TaskProcessor{
		config: Config{
			Bucket:         "bucket",
			Retries:        retries,
			RetryBackoffMs: 1,
		},
		client:  client,
		metrics: metrics.New(),
		logger:  zap.NewNop(),
	}
}

func TestProcessUploadsMissingFile(t *testing.T) {
	client := newStubClient()
	p := newTestProcessor(client, 1)

	task := Task{SourcePath: "/src/a.txt", Key: "backup/a.txt", Size: 2}
	outcome := p.Process(context.Background(), task)

	assert.Equal(t, StatusUploaded, outcome.Status)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, 1, client.uploadCalls["backup/a.txt"])
	assert.True(t, client.existing["backup/a.txt"])
}

func TestProcessSkipsExistingKeyWithoutUploading(t *testing.T) {
	client := newStubClient()
	client.existing["backup/a.txt"] = true
	p := newTestProcessor(client, 1)

	outcome := p.Process(context.Background(), Task{SourcePath: "/src/a.txt", Key: "backup/a.txt"})

	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Zero(t, client.uploadCalls["backup/a.txt"])
}

func TestProcessRetriesUntilSuccess(t *testing.T) {
	// Fails exactly maxRetries times, succeeds on the final attempt.
	client := newStubClient()
	client.failUploads["k"] = 2
	p := newTestProcessor(client, 2)

	outcome := p.Process(context.Background(), Task{SourcePath: "/src/f", Key: "k"})

	assert.Equal(t, StatusUploaded, outcome.Status)
	assert.Equal(t, 3, client.uploadCalls["k"])
	// The existence check runs once, never between retries.
	assert.Equal(t, 1, client.statCalls["k"])
}

func TestProcessFailsAfterExhaustingRetries(t *testing.T) {
	client := newStubClient()
	client.failUploads["k"] = -1
	p := newTestProcessor(client, 2)

	outcome := p.Process(context.Background(), Task{SourcePath: "/src/f", Key: "k"})

	assert.Equal(t, StatusFailed, outcome.Status)
	require.Error(t, outcome.Err)
	assert.Equal(t, 3, client.uploadCalls["k"], "expected exactly maxRetries+1 attempts")
}

func TestProcessExistenceQueryFailureIsNotTreatedAsAbsent(t *testing.T) {
	client := newStubClient()
	client.statErr = errors.New("503 service unavailable")
	p := newTestProcessor(client, 1)

	outcome := p.Process(context.Background(), Task{SourcePath: "/src/f", Key: "k"})

	assert.Equal(t, StatusFailed, outcome.Status)
	require.Error(t, outcome.Err)
	// A failed query must never fall through to an upload.
	assert.Zero(t, client.uploadCalls["k"])
	assert.Equal(t, 2, client.statCalls["k"])
}

func TestProcessAbandonsBackoffOnCancellation(t *testing.T) {
	client := newStubClient()
	client.failUploads["k"] = -1
	p := newTestProcessor(client, 10)
	p.config.RetryBackoffMs = 60_000

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	outcome := p.Process(ctx, Task{SourcePath: "/src/f", Key: "k"})

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.ErrorIs(t, outcome.Err, ErrCancelled)
	assert.Less(t, time.Since(start), 10*time.Second, "backoff wait was not abandoned")
}

func TestProcessInFlightAttemptFinishesAfterCancellation(t *testing.T) {
	// Cancelling the run must not tear down an upload that is already on
	// the wire; the dispatched attempt runs to completion.
	client := newStubClient()
	client.uploadDelay = 200 * time.Millisecond
	p := newTestProcessor(client, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	outcome := p.Process(ctx, Task{SourcePath: "/src/a.txt", Key: "backup/a.txt"})

	assert.Equal(t, StatusUploaded, outcome.Status)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, 1, client.uploadCalls["backup/a.txt"])
	assert.True(t, client.existing["backup/a.txt"])
}

func TestProcessCancelledBeforeStart(t *testing.T) {
	client := newStubClient()
	p := newTestProcessor(client, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := p.Process(ctx, Task{SourcePath: "/src/f", Key: "k"})

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.ErrorIs(t, outcome.Err, ErrCancelled)
	assert.Zero(t, client.statCalls["k"])
	assert.Zero(t, client.uploadCalls["k"])
}
