package bitacora

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/bitacora/internal/analysis"
	"github.com/snarg/bitacora/internal/database"
	"github.com/snarg/bitacora/internal/metrics"
	"github.com/snarg/bitacora/internal/mqttclient"
	"github.com/snarg/bitacora/internal/storage"
	"github.com/snarg/bitacora/internal/transcribe"
)

// allowedExtensions are the accepted audio containers.
var allowedExtensions = map[string]bool{"wav": true, "mp3": true}

// Uploader copies a local file to durable storage and returns its URI.
type Uploader interface {
	Put(ctx context.Context, localPath, key string) (string, error)
}

// Analyzer turns a transcript into a validated analysis.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (*analysis.Result, error)
}

// Store persists finished entries.
type Store interface {
	InsertBitacora(ctx context.Context, row *database.BitacoraRow) (*database.Bitacora, error)
}

// Notifier delivers the follow-up question of a stored entry.
type Notifier interface {
	PublishFollowUp(ctx context.Context, msg mqttclient.FollowUp) error
}

// Submission is one uploaded recording.
type Submission struct {
	UserID   string
	Filename string    // client-side name, only its extension is used
	Audio    io.Reader // nil when the request carried no file
	Variant  Variant   // empty selects the pipeline default
}

type Options struct {
	Scratch        *storage.Scratch
	Uploader       Uploader // required by backends that need a remote copy
	Backends       map[Variant]transcribe.Backend
	DefaultVariant Variant
	Analyzer       Analyzer
	Store          Store
	Notifier       Notifier // optional
	Log            zerolog.Logger

	// OnStage, if set, is called on every stage transition.
	OnStage func(Stage)
}

// Pipeline validates, transcribes, analyzes and stores journal submissions.
// It is safe for concurrent use; each Process call owns its own temp file.
type Pipeline struct {
	opts     Options
	log      zerolog.Logger
	inFlight atomic.Int64
}

func New(opts Options) *Pipeline {
	if opts.DefaultVariant == "" {
		opts.DefaultVariant = VariantAWS
	}
	return &Pipeline{
		opts: opts,
		log:  opts.Log.With().Str("component", "pipeline").Logger(),
	}
}

// InFlight returns the number of submissions currently being processed.
func (p *Pipeline) InFlight() int { return int(p.inFlight.Load()) }

// Variants lists the configured transcription variants.
func (p *Pipeline) Variants() []Variant {
	var out []Variant
	for _, v := range []Variant{VariantAWS, VariantWhisper} {
		if _, ok := p.opts.Backends[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// run tracks one invocation: current stage, timing and log context.
type run struct {
	p          *Pipeline
	log        zerolog.Logger
	stage      Stage
	stageStart time.Time
}

func (r *run) enter(s Stage) {
	now := time.Now()
	if r.stage != "" {
		metrics.StageDuration.WithLabelValues(r.stage.metricLabel()).Observe(now.Sub(r.stageStart).Seconds())
	}
	r.stage, r.stageStart = s, now
	r.log.Debug().Str("stage", string(s)).Msg("stage")
	if r.p.opts.OnStage != nil {
		r.p.opts.OnStage(s)
	}
}

// Process runs a submission through every stage and returns the stored entry.
//
// Errors are typed: *ValidationError, *transcribe.Error, *analysis.Error or
// *PersistenceError. Anything else is an internal failure. The temp file is
// removed on every path once it exists.
func (p *Pipeline) Process(ctx context.Context, sub Submission) (entry *database.Bitacora, err error) {
	p.inFlight.Add(1)
	defer p.inFlight.Add(-1)

	start := time.Now()
	r := &run{p: p, log: p.log.With().Str("user_id", sub.UserID).Logger()}
	variant := sub.Variant

	defer func() {
		outcome := outcomeOf(err)
		metrics.SubmissionsTotal.WithLabelValues(variantLabel(variant), outcome).Inc()
		if err != nil {
			failedAt := r.stage
			r.enter(StageFailed)
			ev := r.log.Warn()
			if outcome == "internal_error" || outcome == "persistence_error" {
				ev = r.log.Error()
			}
			ev.Err(err).
				Str("variant", string(variant)).
				Str("stage", string(failedAt)).
				Str("outcome", outcome).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Msg("bitacora failed")
		}
	}()

	r.enter(StageValidating)
	backend, ext, err := p.validate(&sub)
	variant = sub.Variant
	if err != nil {
		return nil, err
	}
	r.log = r.log.With().Str("variant", string(variant)).Logger()

	r.enter(StageAcquiring)
	tmp, err := p.opts.Scratch.Save(sub.Audio, ext)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	defer func() {
		if rerr := tmp.Release(); rerr != nil {
			r.log.Warn().Err(rerr).Str("path", tmp.Path).Msg("failed to remove temp audio")
		}
	}()

	audio := transcribe.Audio{Path: tmp.Path, Format: tmp.Ext}
	if backend.NeedsRemote() {
		uri, err := p.opts.Uploader.Put(ctx, tmp.Path, tmp.Name)
		if err != nil {
			return nil, &transcribe.Error{Backend: backend.Name(), Reason: "upload audio", Err: err}
		}
		audio.URI = uri
		r.log.Debug().Str("uri", uri).Msg("audio uploaded")
	}

	r.enter(StageTranscribing)
	text, err := backend.Transcribe(ctx, audio, "")
	if err != nil {
		var te *transcribe.Error
		if !errors.As(err, &te) {
			err = &transcribe.Error{Backend: backend.Name(), Reason: "transcription failed", Err: err}
		}
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &transcribe.Error{Backend: backend.Name(), Reason: "empty transcript"}
	}

	r.enter(StageAnalyzing)
	result, err := p.opts.Analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}

	r.enter(StagePersisting)
	row := &database.BitacoraRow{
		UserID:               sub.UserID,
		Title:                result.Title,
		Transcription:        text,
		Summary:              result.Summary,
		EmotionState:         result.EmotionState,
		FollowUpQuestion:     result.FollowUpQuestion,
		Analysis:             result.Analysis,
		TranscriptionService: string(variant),
	}
	entry, err = p.opts.Store.InsertBitacora(ctx, row)
	if err != nil {
		return nil, &PersistenceError{Entry: row, Err: err}
	}

	p.notify(ctx, entry)

	r.enter(StageDone)
	r.log.Info().
		Int64("bitacora_id", entry.ID).
		Str("emotion_state", entry.EmotionState).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("bitacora processed")
	return entry, nil
}

// validate checks the submission, resolves its variant and returns the
// backend and the normalized file extension.
func (p *Pipeline) validate(sub *Submission) (transcribe.Backend, string, error) {
	if strings.TrimSpace(sub.UserID) == "" {
		return nil, "", &ValidationError{Message: "user_id is required"}
	}
	if sub.Audio == nil {
		return nil, "", &ValidationError{Message: "No audio file provided"}
	}
	if sub.Filename == "" {
		return nil, "", &ValidationError{Message: "No selected file"}
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(sub.Filename), "."))
	if !allowedExtensions[ext] {
		return nil, "", &ValidationError{Message: "File type not allowed"}
	}

	v, err := ParseVariant(string(sub.Variant), p.opts.DefaultVariant)
	if err != nil {
		return nil, "", err
	}
	sub.Variant = v

	backend, ok := p.opts.Backends[v]
	if !ok {
		return nil, "", &ValidationError{Message: fmt.Sprintf("Transcription service not available: %s", v)}
	}
	if backend.NeedsRemote() && p.opts.Uploader == nil {
		return nil, "", &ValidationError{Message: fmt.Sprintf("Transcription service not available: %s", v)}
	}
	return backend, ext, nil
}

// notify publishes the follow-up question. Failures never fail the submission.
func (p *Pipeline) notify(ctx context.Context, entry *database.Bitacora) {
	if p.opts.Notifier == nil {
		return
	}
	err := p.opts.Notifier.PublishFollowUp(context.WithoutCancel(ctx), mqttclient.FollowUp{
		BitacoraID:       entry.ID,
		UserID:           entry.UserID,
		Title:            entry.Title,
		EmotionState:     entry.EmotionState,
		FollowUpQuestion: entry.FollowUpQuestion,
		CreatedAt:        entry.CreatedAt,
	})
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		p.log.Warn().Err(err).Int64("bitacora_id", entry.ID).Msg("follow-up notification failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
}

// variantLabel keeps the metric label set closed when a caller sends an
// unknown service name.
func variantLabel(v Variant) string {
	switch v {
	case VariantAWS, VariantWhisper:
		return string(v)
	default:
		return "unknown"
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		ve *ValidationError
		te *transcribe.Error
		ae *analysis.Error
		pe *PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &te):
		return "transcription_error"
	case errors.As(err, &ae):
		return "analysis_error"
	case errors.As(err, &pe):
		return "persistence_error"
	default:
		return "internal_error"
	}
}
