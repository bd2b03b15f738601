package worker

// Status classifies how a task resolved
type Status int

const (
	// StatusUploaded means the file was transferred to the bucket
	StatusUploaded Status = iota
	// StatusSkipped means the destination key already existed
	StatusSkipped
	// StatusFailed means the task gave up after exhausting retries, hit an
	// unretryable error, or was cancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUploaded:
		return "uploaded"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the single result a worker produces for one task
type Outcome struct {
	Task   Task
	Status Status
	Err    error
}

// Failure records a task that ended in StatusFailed
type Failure struct {
	Task Task
	Err  error
}

// Report aggregates the outcome of a whole run. It is written by the single
// aggregator goroutine while workers run and must only be read after Run
// returns.
type Report struct {
	Total    int
	Uploaded int
	Skipped  int
	Failed   []Failure
}

func (r *Report) add(o Outcome) {
	switch o.Status {
	case StatusUploaded:
		r.Uploaded++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed = append(r.Failed, Failure{Task: o.Task, Err: o.Err})
	}
}

// OK reports whether every task resolved without failure
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}
