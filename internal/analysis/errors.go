package analysis

import (
	"fmt"
	"strings"
)

const (
	ReasonModel          = "model call failed"
	ReasonUnparseable    = "unparseable response"
	ReasonMissingKeys    = "missing keys"
	ReasonInvalidEmotion = "invalid emotion_state"
)

// Error reports a model response that could not be turned into a Result.
// Missing is set only for ReasonMissingKeys and lists keys in RequiredKeys order.
type Error struct {
	Reason  string
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	msg := "analysis: " + e.Reason
	if len(e.Missing) > 0 {
		msg += ": " + strings.Join(e.Missing, ", ")
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// metricLabel is the analysis_failures_total reason label.
func (e *Error) metricLabel() string {
	switch e.Reason {
	case ReasonModel:
		return "model"
	case ReasonUnparseable:
		return "unparseable"
	case ReasonMissingKeys:
		return "missing_keys"
	case ReasonInvalidEmotion:
		return "invalid_emotion"
	default:
		return "other"
	}
}
