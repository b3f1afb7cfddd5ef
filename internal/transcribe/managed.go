package transcribe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/snarg/bitacora/internal/metrics"
)

// errPending keeps the poll loop going while a job is not terminal.
var errPending = errors.New("job not finished")

const noFailureReason = "No failure reason provided"

// ManagedOptions configures a ManagedBackend.
type ManagedOptions struct {
	Name         string // backend label for logs and errors, default "aws"
	Jobs         JobClient
	Results      ResultFetcher
	Language     string
	MediaFormat  string
	PollInterval time.Duration
	MaxPolls     int // 0 = poll until terminal or ctx is done
	Log          zerolog.Logger
}

// ManagedBackend drives an asynchronous transcription job to completion by
// polling its status on a fixed interval. Implements Backend.
type ManagedBackend struct {
	opts    ManagedOptions
	log     zerolog.Logger
	newName func() string
}

// NewManagedBackend creates a managed-job backend.
func NewManagedBackend(opts ManagedOptions) *ManagedBackend {
	if opts.Name == "" {
		opts.Name = "aws"
	}
	return &ManagedBackend{
		opts:    opts,
		log:     opts.Log.With().Str("backend", opts.Name).Logger(),
		newName: func() string { return "transcripcion-" + uuid.NewString() },
	}
}

// Name returns the backend name.
func (m *ManagedBackend) Name() string { return m.opts.Name }

// NeedsRemote is true: the service reads the audio from durable storage.
func (m *ManagedBackend) NeedsRemote() bool { return true }

// Transcribe starts a job for audio.URI, waits for it to finish and fetches
// the transcript from the job result.
func (m *ManagedBackend) Transcribe(ctx context.Context, audio Audio, language string) (string, error) {
	if audio.URI == "" {
		return "", &Error{Backend: m.Name(), Reason: "audio must be uploaded before starting a job"}
	}
	if language == "" {
		language = m.opts.Language
	}
	format := audio.Format
	if format == "" {
		format = m.opts.MediaFormat
	}

	name := m.newName()
	id, err := m.opts.Jobs.StartJob(ctx, name, audio.URI, language, format)
	if err != nil {
		return "", &Error{Backend: m.Name(), Reason: "start job", Err: err}
	}
	m.log.Info().Str("job", id).Str("source", audio.URI).Str("language", language).Msg("transcription job started")

	job, err := m.Wait(ctx, id)
	if err != nil {
		return "", err
	}

	if job.Status == JobFailed {
		reason := job.FailureReason
		if reason == "" {
			reason = noFailureReason
		}
		m.log.Warn().Str("job", id).Str("reason", reason).Msg("transcription job failed")
		return "", &Error{Backend: m.Name(), Reason: reason}
	}

	text, err := m.opts.Results.FetchTranscript(ctx, job.ResultURI)
	if err != nil {
		return "", &Error{Backend: m.Name(), Reason: "fetch result", Err: err}
	}
	m.log.Info().Str("job", id).Int("chars", len(text)).Msg("transcription job completed")
	return text, nil
}

// Wait polls the job until it reaches a terminal state and returns that
// snapshot. The first poll happens immediately. Status lookups that fail are
// not retried.
func (m *ManagedBackend) Wait(ctx context.Context, id string) (*Job, error) {
	var b backoff.BackOff = backoff.NewConstantBackOff(m.opts.PollInterval)
	if m.opts.MaxPolls > 0 {
		b = backoff.WithMaxRetries(b, uint64(m.opts.MaxPolls-1))
	}
	b = backoff.WithContext(b, ctx)

	var last *Job
	polls := 0
	op := func() error {
		polls++
		job, err := m.opts.Jobs.JobStatus(ctx, id)
		if err != nil {
			return backoff.Permanent(&Error{Backend: m.Name(), Reason: "get job status", Err: err})
		}
		last = job
		metrics.TranscriptionPollsTotal.WithLabelValues(string(job.Status)).Inc()

		switch job.Status {
		case JobCompleted, JobFailed:
			return nil
		case JobPending, JobRunning:
			return errPending
		default:
			return backoff.Permanent(&Error{Backend: m.Name(), Reason: fmt.Sprintf("unknown job status %q", job.Status)})
		}
	}
	notify := func(_ error, next time.Duration) {
		m.log.Debug().Str("job", id).Str("status", string(last.Status)).Int("poll", polls).Dur("next", next).Msg("waiting for transcription")
	}

	err := backoff.RetryNotify(op, b, notify)
	switch {
	case err == nil:
		return last, nil
	case errors.Is(err, errPending):
		return nil, &Error{Backend: m.Name(), Reason: fmt.Sprintf("job %s still %s after %d polls", id, last.Status, polls)}
	case ctx.Err() != nil:
		return nil, &Error{Backend: m.Name(), Reason: "wait cancelled", Err: ctx.Err()}
	default:
		var te *Error
		if errors.As(err, &te) {
			return nil, te
		}
		return nil, &Error{Backend: m.Name(), Reason: "poll failed", Err: err}
	}
}
