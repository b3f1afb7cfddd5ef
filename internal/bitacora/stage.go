package bitacora

import (
	"fmt"
	"strings"
)

// Stage is a step of Pipeline.Process. Stages run strictly in declaration
// order; any of them may end in StageFailed.
type Stage string

const (
	StageValidating   Stage = "VALIDATING"
	StageAcquiring    Stage = "ACQUIRING_RESOURCE"
	StageTranscribing Stage = "TRANSCRIBING"
	StageAnalyzing    Stage = "ANALYZING"
	StagePersisting   Stage = "PERSISTING"
	StageDone         Stage = "DONE"
	StageFailed       Stage = "FAILED"
)

// metricLabel is the stage_duration_seconds label.
func (s Stage) metricLabel() string { return strings.ToLower(string(s)) }

// Variant selects the transcription backend.
type Variant string

const (
	VariantAWS     Variant = "aws"
	VariantWhisper Variant = "whisper"
)

// ParseVariant accepts "aws" or "whisper", case-insensitively. Empty input
// returns def.
func ParseVariant(s string, def Variant) (Variant, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	switch v := Variant(s); v {
	case VariantAWS, VariantWhisper:
		return v, nil
	default:
		return "", &ValidationError{Message: fmt.Sprintf("Unsupported transcription service: %s", s)}
	}
}
