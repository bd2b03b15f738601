package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by StatObject when the object does not exist in the
// bucket. Callers must distinguish it from other failures: an absent object
// means the file still needs uploading, while a failed query means nothing can
// be concluded about the destination.
var ErrNotFound = errors.New("object not found")

// Client defines the two destination operations the migration needs
type Client interface {
	// StatObject fetches object metadata, returning ErrNotFound if the key
	// is absent from the bucket.
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)

	// Upload stores the file at filePath under bucket/key. Large files may
	// be transferred in multiple parts internally.
	Upload(ctx context.Context, bucket, key, filePath string) error
}

// ObjectInfo contains object metadata
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Config contains client configuration
type Config struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	SessionToken string
	Secure       bool
}
