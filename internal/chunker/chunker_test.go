package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/fachebot/text-digest/internal/segment"
	"github.com/fachebot/text-digest/internal/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSentences 生成 n 个 39 字符的句子，k 句拼接后估算为 10k-1 tokens
func fixedSentences(n int) []string {
	result := make([]string, n)
	for i := range result {
		result[i] = fmt.Sprintf("Sentence %02d has exactly forty chars ok.", i)
	}
	return result
}

func newTestBuilder(maxTokens, overlap int) *Builder {
	cfg := config.Chunking{MinTokens: maxTokens - 10, MaxTokens: maxTokens, OverlapSentences: overlap}
	return NewBuilder(cfg, tokenizer.Estimator{}, segment.Regex{})
}

func TestBuild_Empty(t *testing.T) {
	b := newTestBuilder(50, 2)
	assert.Empty(t, b.Build(""))
	assert.Empty(t, b.Build("   \n "))
}

func TestBuild_ShortTextSingleChunk(t *testing.T) {
	b := newTestBuilder(50, 2)
	sentences := fixedSentences(3)
	chunks := b.Build(strings.Join(sentences, " "))
	require.Len(t, chunks, 1)
	assert.Equal(t, sentences, chunks[0].Sentences)
	assert.Equal(t, 29, chunks[0].Tokens)
}

func TestBuild_OverlappingChunks(t *testing.T) {
	b := newTestBuilder(50, 2)
	sentences := fixedSentences(20)
	chunks := b.Build(strings.Join(sentences, " "))

	require.Len(t, chunks, 6)
	assert.Equal(t, sentences[0:5], chunks[0].Sentences)
	assert.Equal(t, sentences[3:8], chunks[1].Sentences)
	assert.Equal(t, sentences[15:20], chunks[5].Sentences)

	for i, c := range chunks {
		assert.LessOrEqual(t, c.Tokens, 50, "chunk %d", i)
		assert.Equal(t, c.Tokens, tokenizer.Estimator{}.Count(c.Text()))
	}
	for i := 0; i < len(chunks)-1; i++ {
		prev, next := chunks[i].Sentences, chunks[i+1].Sentences
		assert.Equal(t, prev[len(prev)-2:], next[:2], "chunk %d -> %d", i, i+1)
	}
}

func TestBuild_CoversEverySentenceInOrder(t *testing.T) {
	b := newTestBuilder(50, 2)
	sentences := fixedSentences(17)
	chunks := b.Build(strings.Join(sentences, " "))

	seen := make([]string, 0)
	for _, c := range chunks {
		for _, s := range c.Sentences {
			if len(seen) == 0 || s > seen[len(seen)-1] {
				seen = append(seen, s)
			}
		}
	}
	assert.Equal(t, sentences, seen)
}

func TestBuild_NoOverlap(t *testing.T) {
	b := newTestBuilder(50, 0)
	chunks := b.Build(strings.Join(fixedSentences(10), " "))
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0].Sentences, 5)
	assert.Len(t, chunks[1].Sentences, 5)
}

func TestBuild_OversizedSentence(t *testing.T) {
	b := newTestBuilder(50, 2)
	long := strings.Repeat("x", 399) + "."
	sentences := append(fixedSentences(2), long)
	sentences = append(sentences, fixedSentences(2)...)
	chunks := b.Build(strings.Join(sentences, " "))

	require.Len(t, chunks, 3)
	assert.Equal(t, []string{long}, chunks[1].Sentences)
	assert.Equal(t, 100, chunks[1].Tokens)
	for _, c := range chunks {
		if len(c.Sentences) > 1 {
			assert.LessOrEqual(t, c.Tokens, 50)
		}
	}
}

func TestBuild_OverlapShrinksToFit(t *testing.T) {
	b := newTestBuilder(50, 2)
	// 第四句 124 字符，与两句重叠合计超限，只能带一句重叠
	medium := strings.Repeat("y", 123) + "."
	sentences := append(fixedSentences(3), medium)
	chunks := b.Build(strings.Join(sentences, " "))

	require.Len(t, chunks, 2)
	assert.Equal(t, sentences[0:3], chunks[0].Sentences)
	assert.Equal(t, []string{sentences[2], medium}, chunks[1].Sentences)
	assert.LessOrEqual(t, chunks[1].Tokens, 50)
}

func TestBuild_Deterministic(t *testing.T) {
	b := newTestBuilder(50, 2)
	text := strings.Join(fixedSentences(12), " ")
	assert.Equal(t, b.Build(text), b.Build(text))
}
