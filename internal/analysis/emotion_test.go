package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmotion(t *testing.T) {
	tests := []struct {
		in     string
		want   Emotion
		wantOK bool
	}{
		{"Felicidad", Felicidad, true},
		{"felicidad", Felicidad, true},
		{"  TRISTEZA ", Tristeza, true},
		{"Happiness", Felicidad, true},
		{"anger", Ira, true},
		{"Vergüenza", Verguenza, true},
		{"verguenza", Verguenza, true},
		{"VERGÜENZA", Verguenza, true},
		{"Shame", Verguenza, true},
		{"Orgullo.", Orgullo, true},
		{"Nostalgia", "", false},
		{"", "", false},
		{"Felicidad y Amor", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeEmotion(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmotionsAreCanonical(t *testing.T) {
	assert.Len(t, Emotions, 10)
	for _, e := range Emotions {
		got, ok := NormalizeEmotion(string(e))
		assert.True(t, ok, e)
		assert.Equal(t, e, got)
	}
}
