package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize_FirstMatchWins(t *testing.T) {
	v := Default()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"film beats digital", "a digital documentary series", "Film & Documentary"},
		{"digital media", "online interactive works", "Digital Media"},
		{"arts", "support for the arts sector", "Arts & Culture"},
		{"innovation", "startup accelerator", "Innovation & Technology"},
		{"fallback", "community garden", "General Funding"},
		{"media inside a word", "apply immediately", "General Funding"},
		{"arts inside a word", "the round starts in parts", "General Funding"},
		{"tech inside a word", "a biotechnical lab", "General Funding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Categorize(tt.text))
		})
	}
}

func TestMatches_PreservesListOrder(t *testing.T) {
	got := Matches("screen production for film makers", []string{"film", "media", "screen", "production"})
	assert.Equal(t, []string{"film", "screen", "production"}, got)
	assert.Nil(t, Matches("nothing here", []string{"film"}))
}

func TestCount(t *testing.T) {
	assert.Equal(t, 2, Count("deadline closing", []string{"deadline", "closing", "soon"}))
	assert.Equal(t, 0, Count("", []string{"deadline"}))
}

func TestHasWord(t *testing.T) {
	tests := []struct {
		text string
		term string
		want bool
	}{
		{"film makers", "film", true},
		{"australian filmmakers", "film", true},
		{"grant-card", "grant", true},
		{"(grants)", "grant", true},
		{"apply immediately", "media", false},
		{"immediately, media", "media", true},
		{"refund", "fund", false},
		{"financial support", "financial support", true},
		{"", "film", false},
		{"film", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.term+" in "+tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, HasWord(tt.text, tt.term))
		})
	}
}

func TestCount_IgnoresWordInteriors(t *testing.T) {
	topical := Default().Topical
	assert.Equal(t, 0, Count("apply immediately, the call starts soon", topical))
	assert.Equal(t, 2, Count("media and arts", topical))
}
