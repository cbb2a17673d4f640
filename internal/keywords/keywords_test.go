package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	text := "The River flows. River banks erode; the river floods. Banks that were built with stone last."
	sig := Extract(text, 3)

	assert.Equal(t, Signature{
		{Word: "river", Count: 3},
		{Word: "banks", Count: 2},
		{Word: "flows", Count: 1},
	}, sig)
}

func TestExtract_FiltersShortWordsAndStopwords(t *testing.T) {
	sig := Extract("the cat sat with that dog which said there were ant", 10)
	assert.Empty(t, sig)
}

func TestExtract_TieBreakFirstSeen(t *testing.T) {
	sig := Extract("zebra apple mango apple zebra mango", 10)
	assert.Equal(t, []string{"zebra", "apple", "mango"}, sig.Words())
}

func TestExtract_NonPositiveTopN(t *testing.T) {
	assert.Empty(t, Extract("plenty of words here", 0))
}

func TestCoverage(t *testing.T) {
	tests := []struct {
		name     string
		original string
		summary  string
		want     float64
	}{
		{"原文无关键词视为完全覆盖", "a b c", "anything", 1.0},
		{"摘要与原文相同", "Solar panels convert sunlight into electricity efficiently.", "Solar panels convert sunlight into electricity efficiently.", 1.0},
		{"部分覆盖", "alpha bravo charlie delta", "alpha charlie", 0.5},
		{"摘要为空", "alpha bravo", "", 0.0},
		{"大小写不敏感", "Alpha BRAVO", "alpha bravo", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Coverage(Extract(tt.original, 20), Extract(tt.summary, 20)), 1e-9)
		})
	}
}

func TestCoverage_OnlyCountsSummaryTopN(t *testing.T) {
	original := Extract("alpha bravo", 2)
	// bravo 出现在摘要中，但排在 topN 之外
	summary := Extract("alpha alpha charlie charlie bravo", 2)
	assert.InDelta(t, 0.5, Coverage(original, summary), 1e-9)
}

func TestExtract_UnicodeWordBoundaries(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"带变音符的词整体丢弃", "Zürich Zürich Zürich", []string{}},
		{"非 ASCII 字母不截断出子串", "café naïve façade", []string{}},
		{"字母数字混合", "data2024 route66 river", []string{"river"}},
		{"下划线连接", "snake_case river", []string{"river"}},
		{"标点分隔", "river;valley,forest", []string{"river", "valley", "forest"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text, 10).Words())
		})
	}
}
