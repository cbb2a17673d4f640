package summarizer

import (
	"context"
	"errors"
	"strings"

	"github.com/fachebot/text-digest/internal/chunker"
	"github.com/fachebot/text-digest/internal/config"
	"github.com/fachebot/text-digest/internal/llm"
	"github.com/fachebot/text-digest/internal/logger"
	"github.com/fachebot/text-digest/internal/metrics"
	"github.com/fachebot/text-digest/internal/tokenizer"
	"golang.org/x/sync/errgroup"
)

// SummaryModel 外部摘要模型（便于测试注入 mock）
type SummaryModel interface {
	Summarize(ctx context.Context, text string, minLen, maxLen int) (string, error)
}

// Outcome 分层摘要的结果
type Outcome struct {
	Summary string
	Depth   int // 最终结果所在层
	Chunks  int // 各层分块总数
}

type Orchestrator struct {
	model       SummaryModel
	builder     *chunker.Builder
	counter     tokenizer.Counter
	chunking    config.Chunking
	compression config.Compression
	metrics     *metrics.Metrics
}

func NewOrchestrator(
	model SummaryModel,
	builder *chunker.Builder,
	counter tokenizer.Counter,
	chunking config.Chunking,
	compression config.Compression,
	m *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		model:       model,
		builder:     builder,
		counter:     counter,
		chunking:    chunking,
		compression: compression,
		metrics:     m,
	}
}

// Ready 是否已配置摘要模型
func (o *Orchestrator) Ready() bool {
	return o != nil && o.model != nil
}

// Summarize 分层摘要。文本足够小或达到最大层数时直接总结，
// 否则分块总结后合并，合并结果仍超过阈值则进入下一层。
// 层数上限为 MaxDepth，外部调用最多 MaxDepth+1 层。
func (o *Orchestrator) Summarize(ctx context.Context, text string) (Outcome, error) {
	current := text
	totalChunks := 0

	for depth := 0; ; depth++ {
		tokens := o.counter.Count(current)
		if depth >= o.chunking.MaxDepth || o.fits(current, tokens) {
			summary, err := o.summarizeDirect(ctx, current, tokens, depth)
			if err != nil {
				return Outcome{}, err
			}
			o.metrics.ObserveDepth(depth)
			return Outcome{Summary: summary, Depth: depth, Chunks: totalChunks}, nil
		}

		chunks := o.builder.Build(current)
		totalChunks += len(chunks)
		logger.Infof("[Orchestrator] 第 %d 层: %d 词 / %d tokens，切分为 %d 块",
			depth, wordCount(current), tokens, len(chunks))

		merged, err := o.summarizeChunks(ctx, chunks, depth)
		if err != nil {
			return Outcome{}, err
		}

		if o.fits(merged, o.counter.Count(merged)) {
			o.metrics.ObserveDepth(depth)
			return Outcome{Summary: merged, Depth: depth, Chunks: totalChunks}, nil
		}

		logger.Infof("[Orchestrator] 第 %d 层合并结果仍超过阈值 (%d 词)，继续下一层", depth, wordCount(merged))
		current = merged
	}
}

func (o *Orchestrator) fits(text string, tokens int) bool {
	return wordCount(text) <= o.chunking.TriggerWords && tokens <= o.chunking.MaxTokens
}

func (o *Orchestrator) summarizeDirect(ctx context.Context, text string, tokens, depth int) (string, error) {
	bounds := AdaptiveBounds(o.compression, tokens)
	logger.Debugf("[Orchestrator] 第 %d 层直接总结: %d tokens, 长度范围 [%d, %d]", depth, tokens, bounds.Min, bounds.Max)

	summary, err := o.model.Summarize(ctx, text, bounds.Min, bounds.Max)
	if err != nil {
		logger.Errorf("[Orchestrator] 第 %d 层直接总结失败: %v", depth, err)
		return "", classifyModelError(err, depth)
	}
	return summary, nil
}

// summarizeChunks 并发总结各分块，失败的分块跳过，结果按分块顺序拼接
func (o *Orchestrator) summarizeChunks(ctx context.Context, chunks []chunker.Chunk, depth int) (string, error) {
	summaries := make([]string, len(chunks))
	errs := make([]error, len(chunks))

	g := new(errgroup.Group)
	g.SetLimit(max(1, o.chunking.Workers))
	for i, chunk := range chunks {
		g.Go(func() error {
			bounds := AdaptiveBounds(o.compression, chunk.Tokens)
			summary, err := o.model.Summarize(ctx, chunk.Text(), bounds.Min, bounds.Max)
			if err != nil {
				logger.Warnf("[Orchestrator] 第 %d 层分块 %d/%d 总结失败，已跳过: %v", depth, i+1, len(chunks), err)
				o.metrics.ObserveChunkCall(metrics.OutcomeError)
				errs[i] = err
				return nil
			}
			o.metrics.ObserveChunkCall(metrics.OutcomeSuccess)
			summaries[i] = summary
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]string, 0, len(chunks))
	unavailable := 0
	var firstErr error
	for i := range chunks {
		if errs[i] == nil {
			merged = append(merged, summaries[i])
			continue
		}
		if firstErr == nil {
			firstErr = errs[i]
		}
		if errors.Is(errs[i], llm.ErrServiceUnavailable) {
			unavailable++
		}
	}

	if len(merged) == 0 {
		if len(chunks) > 0 && unavailable == len(chunks) {
			return "", &ServiceUnavailableError{Service: "summarization", Err: firstErr}
		}
		return "", &SummarizationError{Kind: KindNoChunksSucceeded, Depth: depth, Chunks: len(chunks), Err: firstErr}
	}

	if skipped := len(chunks) - len(merged); skipped > 0 {
		logger.Warnf("[Orchestrator] 第 %d 层共 %d 块，跳过 %d 块", depth, len(chunks), skipped)
	}
	return strings.Join(merged, " "), nil
}

func classifyModelError(err error, depth int) error {
	switch {
	case errors.Is(err, llm.ErrServiceUnavailable):
		return &ServiceUnavailableError{Service: "summarization", Err: err}
	case errors.Is(err, llm.ErrInputTooLong):
		return &SummarizationError{Kind: KindChunkTooLong, Depth: depth, Chunks: 1, Err: err}
	default:
		return &SummarizationError{Kind: KindServiceError, Depth: depth, Chunks: 1, Err: err}
	}
}
