// Package segment 将文本切分为有序句子序列。
package segment

import (
	"regexp"
	"strings"

	"github.com/fachebot/text-digest/internal/logger"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

const (
	StrategyPunkt = "punkt"
	StrategyRegex = "regex"
)

// Segmenter 句子切分器，对相同输入结果确定
type Segmenter interface {
	Segment(text string) []string
	Strategy() string
}

// Punkt 基于训练好的句子边界模型
type Punkt struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func (p *Punkt) Segment(text string) []string {
	result := make([]string, 0)
	for _, s := range p.tokenizer.Tokenize(text) {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (p *Punkt) Strategy() string {
	return StrategyPunkt
}

var boundaryRe = regexp.MustCompile(`[.!?]\s+`)

// Regex 在 . ! ? 之后的空白处切分
type Regex struct{}

func (Regex) Segment(text string) []string {
	result := make([]string, 0)
	start := 0
	for _, loc := range boundaryRe.FindAllStringIndex(text, -1) {
		// 标点保留在前一句末尾
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			result = append(result, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		result = append(result, s)
	}
	return result
}

func (Regex) Strategy() string {
	return StrategyRegex
}

// New 加载 Punkt 模型，失败时退回正则切分
func New() Segmenter {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		logger.Warnf("[Segmenter] 加载 Punkt 模型失败，退回正则切分: %v", err)
		return Regex{}
	}
	return &Punkt{tokenizer: tokenizer}
}
