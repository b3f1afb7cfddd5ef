package transcribe

import "context"

// JobStatus is the lifecycle state of a managed transcription job.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// Terminal reports whether no further transitions can happen.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is a snapshot of a managed transcription job.
type Job struct {
	ID            string
	Backend       string
	Status        JobStatus
	ResultURI     string // set when Status == JobCompleted
	FailureReason string // set when Status == JobFailed
}

// JobClient starts and inspects asynchronous transcription jobs.
type JobClient interface {
	StartJob(ctx context.Context, name, sourceURI, language, format string) (string, error)
	JobStatus(ctx context.Context, id string) (*Job, error)
}

// ResultFetcher downloads a completed job's payload and extracts the transcript.
type ResultFetcher interface {
	FetchTranscript(ctx context.Context, uri string) (string, error)
}
