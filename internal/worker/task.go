package worker

// Task represents one file to migrate
type Task struct {
	SourcePath string `json:"source_path"`
	Key        string `json:"key"`
	Size       int64  `json:"size"`
}

// Config contains worker configuration
type Config struct {
	Bucket           string
	Retries          int
	RetryBackoffMs   int
	RequestTimeoutMs int
}
