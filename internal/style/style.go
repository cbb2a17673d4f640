// Package style 将基础摘要转换为指定的展示风格，风格模型不可用时在本地降级格式化。
package style

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fachebot/text-digest/internal/logger"
	"github.com/fachebot/text-digest/internal/metrics"
	"github.com/fachebot/text-digest/internal/segment"
)

type Style string

const (
	Brief    Style = "brief"
	Detailed Style = "detailed"
	Bullet   Style = "bullet_points"
	Custom   Style = "custom"
)

var (
	ErrMissingInstruction = errors.New("custom_prompt is required when style is 'custom'")
	ErrUnknownStyle       = errors.New("unsupported style")
)

// All 支持的风格
func All() []Style {
	return []Style{Brief, Detailed, Bullet, Custom}
}

// Parse 解析风格名称，空值默认为 brief
func Parse(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Brief):
		return Brief, nil
	case string(Detailed):
		return Detailed, nil
	case string(Bullet), "bullet", "bullets":
		return Bullet, nil
	case string(Custom):
		return Custom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, s)
	}
}

const (
	bulletMarker = "• "
	minBullets   = 3
	maxBullets   = 8
)

var bulletPrefixRe = regexp.MustCompile(`^[•\-*·]\s*`)

// Transformer 风格转换模型
type Transformer interface {
	Transform(ctx context.Context, instruction string, maxNewTokens int) (string, error)
}

type Formatter struct {
	transformer  Transformer
	segmenter    segment.Segmenter
	maxNewTokens int
	metrics      *metrics.Metrics
}

func NewFormatter(transformer Transformer, segmenter segment.Segmenter, maxNewTokens int, m *metrics.Metrics) *Formatter {
	return &Formatter{
		transformer:  transformer,
		segmenter:    segmenter,
		maxNewTokens: maxNewTokens,
		metrics:      m,
	}
}

// Result 格式化结果，Degraded 表示使用了本地降级格式
type Result struct {
	Text     string
	Degraded bool
}

// Format 仅在参数不合法时返回错误，模型调用失败一律降级处理
func (f *Formatter) Format(ctx context.Context, summary string, st Style, instruction string) (Result, error) {
	prompt, err := BuildPrompt(st, summary, instruction)
	if err != nil {
		return Result{}, err
	}

	if f.transformer == nil {
		return f.fallback(summary, st, "未配置风格模型"), nil
	}

	out, err := f.transformer.Transform(ctx, prompt, f.maxNewTokens)
	if err != nil {
		return f.fallback(summary, st, err.Error()), nil
	}
	if strings.TrimSpace(out) == "" {
		return f.fallback(summary, st, "模型返回空结果"), nil
	}

	if st == Bullet {
		if bullets, ok := normalizeBullets(out); ok {
			return Result{Text: bullets}, nil
		}
		logger.Debugf("[Formatter] 模型输出不是有效的要点列表，改用句子生成要点")
		f.metrics.ObserveFallback(string(st))
		return Result{Text: f.formatAsBullets(summary), Degraded: true}, nil
	}
	return Result{Text: strings.TrimSpace(out)}, nil
}

// BuildPrompt 构造各风格的转换指令
func BuildPrompt(st Style, summary, instruction string) (string, error) {
	switch st {
	case Brief:
		return "Condense this summary into exactly 1-2 clear, concise sentences that capture the main point:\n\n" + summary, nil
	case Detailed:
		return "Expand this summary with more context and details. Elaborate on key points while maintaining accuracy:\n\n" + summary, nil
	case Bullet:
		return "Convert this summary into 5-8 clear bullet points. " +
			"Each bullet must represent a complete, distinct idea. " +
			"Cover all key concepts from the summary:\n\n" + summary, nil
	case Custom:
		if strings.TrimSpace(instruction) == "" {
			return "", ErrMissingInstruction
		}
		return instruction + "\n\nText to transform:\n" + summary, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, string(st))
	}
}

func (f *Formatter) fallback(summary string, st Style, reason string) Result {
	logger.Warnf("[Formatter] 风格转换失败，使用本地格式化 (style=%s): %s", st, reason)
	f.metrics.ObserveFallback(string(st))

	switch st {
	case Brief:
		sentences := f.segmenter.Segment(summary)
		if len(sentences) == 0 {
			return Result{Text: summary, Degraded: true}
		}
		return Result{Text: strings.Join(sentences[:min(2, len(sentences))], " "), Degraded: true}
	case Bullet:
		return Result{Text: f.formatAsBullets(summary), Degraded: true}
	default:
		return Result{Text: summary, Degraded: true}
	}
}

// normalizeBullets 统一模型输出中的要点符号，要点不足 minBullets 条时视为无效
func normalizeBullets(text string) (string, bool) {
	lines := make([]string, 0)
	hasMarker := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if bulletPrefixRe.MatchString(line) {
			hasMarker = true
		}
		lines = append(lines, line)
	}
	if !hasMarker {
		return "", false
	}

	bullets := make([]string, 0, len(lines))
	for _, line := range lines {
		if clean := strings.TrimSpace(bulletPrefixRe.ReplaceAllString(line, "")); clean != "" {
			bullets = append(bullets, bulletMarker+clean)
		}
	}
	if len(bullets) < minBullets {
		return "", false
	}
	return strings.Join(bullets, "\n"), true
}

// formatAsBullets 按句子生成要点，超过 maxBullets 句时两两合并，剩余句子并入最后一条
func (f *Formatter) formatAsBullets(text string) string {
	sentences := f.segmenter.Segment(text)

	bullets := make([]string, 0, maxBullets)
	if len(sentences) <= maxBullets {
		for _, s := range sentences {
			bullets = append(bullets, bulletMarker+s)
		}
		return strings.Join(bullets, "\n")
	}

	i := 0
	for i < len(sentences) && len(bullets) < maxBullets-1 {
		if i+1 < len(sentences) {
			bullets = append(bullets, bulletMarker+sentences[i]+" "+sentences[i+1])
			i += 2
		} else {
			bullets = append(bullets, bulletMarker+sentences[i])
			i++
		}
	}
	if i < len(sentences) {
		bullets = append(bullets, bulletMarker+strings.Join(sentences[i:], " "))
	}
	return strings.Join(bullets, "\n")
}
