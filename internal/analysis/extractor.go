package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/snarg/bitacora/internal/metrics"
)

// Model is a single-turn text completion client.
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor turns transcripts into validated Results.
type Extractor struct {
	model   Model
	timeout time.Duration
	log     zerolog.Logger
}

// NewExtractor creates an extractor. A zero timeout leaves the model call
// bounded only by ctx.
func NewExtractor(model Model, timeout time.Duration, log zerolog.Logger) *Extractor {
	return &Extractor{
		model:   model,
		timeout: timeout,
		log:     log.With().Str("component", "analysis").Logger(),
	}
}

// Analyze prompts the model with transcript and returns the parsed result
// with emotion_state normalized to its canonical label. Every failure is an
// *Error.
func (x *Extractor) Analyze(ctx context.Context, transcript string) (*Result, error) {
	if x.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := x.model.Complete(ctx, BuildPrompt(transcript))
	if err != nil {
		return nil, x.fail(&Error{Reason: ReasonModel, Err: err})
	}
	x.log.Debug().Int("chars", len(text)).Dur("took", time.Since(start)).Msg("model responded")

	res, err := ParseResponse(text)
	if err != nil {
		var ae *Error
		if errors.As(err, &ae) {
			if ae.Reason == ReasonUnparseable {
				x.log.Warn().Str("response", truncate(text, 500)).Msg("model response is not json")
			}
			return nil, x.fail(ae)
		}
		return nil, err
	}

	emotion, ok := NormalizeEmotion(res.EmotionState)
	if !ok {
		x.log.Warn().Str("emotion_state", res.EmotionState).Msg("model returned unknown emotion")
		return nil, x.fail(&Error{Reason: ReasonInvalidEmotion})
	}
	res.EmotionState = string(emotion)
	return res, nil
}

func (x *Extractor) fail(e *Error) *Error {
	metrics.AnalysisFailuresTotal.WithLabelValues(e.metricLabel()).Inc()
	return e
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
