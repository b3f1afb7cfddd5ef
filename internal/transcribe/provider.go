package transcribe

import (
	"context"
	"fmt"
)

// Backend is the interface for speech-to-text backends.
type Backend interface {
	// Transcribe turns audio into transcript text. language is backend
	// specific ("es" for whisper, "es-ES" for AWS Transcribe); empty means the
	// backend default.
	Transcribe(ctx context.Context, audio Audio, language string) (string, error)
	Name() string // "whisper", "aws"
	// NeedsRemote reports whether Audio.URI must be set before calling Transcribe.
	NeedsRemote() bool
}

// Audio references one recorded clip, either on local disk or in durable storage.
type Audio struct {
	Path   string // local file, always set
	URI    string // remote copy, set after upload
	Format string // container, e.g. "wav" or "mp3"
}

// Error is returned by every backend. Reason is the backend-reported cause
// and is safe to show to callers.
type Error struct {
	Backend string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s transcription: %s: %v", e.Backend, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s transcription: %s", e.Backend, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }
