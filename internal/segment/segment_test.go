package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegex_Segment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"空文本", "", []string{}},
		{"仅空白", "  \n\t ", []string{}},
		{"单句无标点", "no punctuation here", []string{"no punctuation here"}},
		{"三种标点", "First one. Second one! Third one? Tail", []string{"First one.", "Second one!", "Third one?", "Tail"}},
		{"换行作为分隔", "Line one.\nLine two.", []string{"Line one.", "Line two."}},
		{"标点后无空白不切分", "Version 1.2 is out. Ok.", []string{"Version 1.2 is out.", "Ok."}},
		{"首尾空白被去除", "  Padded.   Next.  ", []string{"Padded.", "Next."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Regex{}.Segment(tt.text))
		})
	}
}

func TestSegment_PreservesWordCount(t *testing.T) {
	texts := []string{
		"The committee met on Tuesday. It approved the budget! Was anyone surprised? Nobody said so.",
		"Dr. Smith arrived at 5 p.m. and left early.  The meeting, however, continued without him.",
		"One sentence without a terminal mark",
		strings.Repeat("Alpha beta gamma delta. ", 40),
	}
	segmenters := []Segmenter{Regex{}, New()}
	for _, seg := range segmenters {
		for _, text := range texts {
			sentences := seg.Segment(text)
			joined := strings.Join(sentences, " ")
			assert.Equal(t, len(strings.Fields(text)), len(strings.Fields(joined)), "strategy=%s", seg.Strategy())
		}
	}
}

func TestSegment_Deterministic(t *testing.T) {
	seg := New()
	text := "Mr. Brown went home. He was tired. The end."
	first := seg.Segment(text)
	require.NotEmpty(t, first)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, seg.Segment(text))
	}
}

func TestNew_UsesPunkt(t *testing.T) {
	seg := New()
	assert.Equal(t, StrategyPunkt, seg.Strategy())
	got := seg.Segment("The meeting ended. Everyone went home.")
	assert.Equal(t, []string{"The meeting ended.", "Everyone went home."}, got)
}
