package analysis

import "strings"

// Emotion is one of the ten canonical emotional-state labels. Labels are
// stored in Spanish.
type Emotion string

const (
	Felicidad Emotion = "Felicidad"
	Tristeza  Emotion = "Tristeza"
	Ira       Emotion = "Ira"
	Miedo     Emotion = "Miedo"
	Ansiedad  Emotion = "Ansiedad"
	Amor      Emotion = "Amor"
	Sorpresa  Emotion = "Sorpresa"
	Verguenza Emotion = "Vergüenza"
	Esperanza Emotion = "Esperanza"
	Orgullo   Emotion = "Orgullo"
)

// Emotions lists the canonical labels in prompt order.
var Emotions = []Emotion{
	Felicidad, Tristeza, Ira, Miedo, Ansiedad,
	Amor, Sorpresa, Verguenza, Esperanza, Orgullo,
}

// emotionAliases maps lowercased Spanish, English and unaccented spellings
// to the canonical label.
var emotionAliases = map[string]Emotion{
	"happiness": Felicidad,
	"sadness":   Tristeza,
	"anger":     Ira,
	"fear":      Miedo,
	"anxiety":   Ansiedad,
	"love":      Amor,
	"surprise":  Sorpresa,
	"shame":     Verguenza,
	"verguenza": Verguenza,
	"hope":      Esperanza,
	"pride":     Orgullo,
}

func init() {
	for _, e := range Emotions {
		emotionAliases[strings.ToLower(string(e))] = e
	}
}

// NormalizeEmotion resolves a model-provided label, case-insensitively.
// ok is false for anything outside the ten known states.
func NormalizeEmotion(label string) (e Emotion, ok bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.TrimRight(key, ".")
	e, ok = emotionAliases[key]
	return e, ok
}
