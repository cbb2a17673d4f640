// Package tokenizer 估算文本在模型输入中占用的 token 数。
package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/fachebot/text-digest/internal/logger"
	"github.com/pkoukk/tiktoken-go"
)

const (
	StrategyTiktoken  = "tiktoken"
	StrategyEstimator = "char-estimate"

	charsPerToken = 4
)

// Counter 统计 token 数，调用方只看到整数结果
type Counter interface {
	Count(text string) int
	Strategy() string
}

// Tiktoken 使用 BPE 编码精确计数
type Tiktoken struct {
	encoding string
	tke      *tiktoken.Tiktoken
}

func (t *Tiktoken) Count(text string) int {
	return len(t.tke.Encode(text, nil, nil))
}

func (t *Tiktoken) Strategy() string {
	return StrategyTiktoken + ":" + t.encoding
}

// Estimator 按字符数 / 4 近似
type Estimator struct{}

func (Estimator) Count(text string) int {
	return utf8.RuneCountInString(text) / charsPerToken
}

func (Estimator) Strategy() string {
	return StrategyEstimator
}

// New 优先加载精确分词器，加载失败时退回字符估算
// encodingOrModel 可以是编码名（r50k_base）或模型名（gpt2、gpt-4o）
func New(encodingOrModel string) Counter {
	tke, err := loadEncoding(encodingOrModel)
	if err != nil {
		logger.Warnf("[Tokenizer] 无法加载分词器 %q，退回字符估算: %v", encodingOrModel, err)
		return Estimator{}
	}

	logger.Infof("[Tokenizer] 使用精确分词器: %s", encodingOrModel)
	return &Tiktoken{encoding: encodingOrModel, tke: tke}
}

// loadEncoding 先按编码名再按模型名查找，两次失败的原因都保留
func loadEncoding(encodingOrModel string) (*tiktoken.Tiktoken, error) {
	tke, encodingErr := tiktoken.GetEncoding(encodingOrModel)
	if encodingErr == nil {
		return tke, nil
	}

	tke, modelErr := tiktoken.EncodingForModel(encodingOrModel)
	if modelErr == nil {
		return tke, nil
	}

	return nil, fmt.Errorf("按编码名加载失败: %w; 按模型名加载失败: %w", encodingErr, modelErr)
}
