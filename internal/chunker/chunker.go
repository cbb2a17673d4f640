// Package chunker 将长文本按句子边界打包为带重叠、受 token 上限约束的分块。
package chunker

import (
	"strings"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/fachebot/text-digest/internal/segment"
	"github.com/fachebot/text-digest/internal/tokenizer"
)

// Chunk 由连续句子组成的分块
type Chunk struct {
	Sentences []string
	Tokens    int
}

// Text 以单个空格拼接句子
func (c Chunk) Text() string {
	return strings.Join(c.Sentences, " ")
}

type Builder struct {
	counter   tokenizer.Counter
	segmenter segment.Segmenter
	maxTokens int
	overlap   int
}

func NewBuilder(cfg config.Chunking, counter tokenizer.Counter, segmenter segment.Segmenter) *Builder {
	return &Builder{
		counter:   counter,
		segmenter: segmenter,
		maxTokens: cfg.MaxTokens,
		overlap:   cfg.OverlapSentences,
	}
}

// Build 切分文本。除单句本身超限外，每个分块 token 数不超过 maxTokens；
// 新分块以上一分块末尾 overlap 句开头，放不下时从最旧的重叠句开始舍弃。
func (b *Builder) Build(text string) []Chunk {
	chunks := make([]Chunk, 0)
	current := make([]string, 0)

	for _, sentence := range b.segmenter.Segment(text) {
		candidate := appendSentence(current, sentence)
		if len(current) > 0 && b.count(candidate) > b.maxTokens {
			chunks = append(chunks, b.newChunk(current))
			current = b.seed(current, sentence)
			continue
		}
		// 当前块为空时即使单句超限也直接接受，避免死循环
		current = candidate
	}

	if len(current) > 0 {
		chunks = append(chunks, b.newChunk(current))
	}
	return chunks
}

// seed 生成下一个分块的起始句子：上一块末尾的重叠句 + 新句
func (b *Builder) seed(prev []string, sentence string) []string {
	k := min(b.overlap, len(prev))
	for ; k > 0; k-- {
		candidate := appendSentence(prev[len(prev)-k:], sentence)
		if b.count(candidate) <= b.maxTokens {
			return candidate
		}
	}
	return []string{sentence}
}

func (b *Builder) count(sentences []string) int {
	return b.counter.Count(strings.Join(sentences, " "))
}

func (b *Builder) newChunk(sentences []string) Chunk {
	return Chunk{
		Sentences: sentences,
		Tokens:    b.count(sentences),
	}
}

// appendSentence 返回新切片，不修改 sentences 的底层数组
func appendSentence(sentences []string, sentence string) []string {
	result := make([]string, 0, len(sentences)+1)
	result = append(result, sentences...)
	return append(result, sentence)
}
