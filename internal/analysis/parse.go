package analysis

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// RequiredKeys are the fields every model response must carry.
var RequiredKeys = []string{"title", "summary", "emotion_state", "follow_up_question", "analysis"}

// Result is a validated analysis of one transcript.
type Result struct {
	Title            string `json:"title"`
	Summary          string `json:"summary"`
	EmotionState     string `json:"emotion_state"`
	FollowUpQuestion string `json:"follow_up_question"`
	Analysis         string `json:"analysis"`
}

// objectPattern spans the first '{' to the last '}'.
var objectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseResponse extracts a Result from free-form model output. It first
// parses the whole text as a JSON object and, failing that, the substring
// between the first '{' and the last '}'. Keys that are absent or null are
// reported together in an *Error. Non-string values (the model sometimes
// returns analysis as an object) are kept as compact JSON.
//
// emotion_state is returned as written; Extractor.Analyze validates it.
func ParseResponse(text string) (*Result, error) {
	fields, ok := decodeObject([]byte(text))
	if !ok {
		m := objectPattern.FindString(text)
		if m == "" {
			return nil, &Error{Reason: ReasonUnparseable}
		}
		if fields, ok = decodeObject([]byte(m)); !ok {
			return nil, &Error{Reason: ReasonUnparseable}
		}
	}

	values := make(map[string]string, len(RequiredKeys))
	var missing []string
	for _, key := range RequiredKeys {
		raw, present := fields[key]
		if !present || isNull(raw) {
			missing = append(missing, key)
			continue
		}
		values[key] = fieldString(raw)
	}
	if len(missing) > 0 {
		return nil, &Error{Reason: ReasonMissingKeys, Missing: missing}
	}

	return &Result{
		Title:            values["title"],
		Summary:          values["summary"],
		EmotionState:     values["emotion_state"],
		FollowUpQuestion: values["follow_up_question"],
		Analysis:         values["analysis"],
	}, nil
}

func decodeObject(b []byte) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func fieldString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
