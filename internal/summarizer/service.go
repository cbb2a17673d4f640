package summarizer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/fachebot/text-digest/internal/history"
	"github.com/fachebot/text-digest/internal/keywords"
	"github.com/fachebot/text-digest/internal/logger"
	"github.com/fachebot/text-digest/internal/metrics"
	"github.com/fachebot/text-digest/internal/style"
	"github.com/google/uuid"
)

const invalidStyleLabel = "invalid"

// baseSummarizer 生成基础摘要（便于测试注入 mock）
type baseSummarizer interface {
	Ready() bool
	Summarize(ctx context.Context, text string) (Outcome, error)
}

// styleFormatter 按风格格式化基础摘要（便于测试注入 mock）
type styleFormatter interface {
	Format(ctx context.Context, summary string, st style.Style, instruction string) (style.Result, error)
}

// runRecorder 记录运行诊断信息（便于测试注入 mock）
type runRecorder interface {
	Record(ctx context.Context, run *history.Run) error
}

// CoverageReport 关键词覆盖率低于阈值时的上下文
type CoverageReport struct {
	RunID     string
	Coverage  float64
	Threshold float64
	Original  keywords.Signature
	Summary   string
}

// CoverageHook 覆盖率不足时的回调，默认只记录不重试
type CoverageHook func(ctx context.Context, report CoverageReport)

type Service struct {
	limits       config.Limits
	coverage     config.Coverage
	orchestrator baseSummarizer
	formatter    styleFormatter
	recorder     runRecorder
	metrics      *metrics.Metrics
	coverageHook CoverageHook
}

func NewService(cfg *config.Config, orchestrator *Orchestrator, formatter *style.Formatter, recorder *history.Store, m *metrics.Metrics) *Service {
	s := &Service{
		limits:       cfg.Limits,
		coverage:     cfg.Coverage,
		orchestrator: orchestrator,
		formatter:    formatter,
		metrics:      m,
	}
	if recorder != nil {
		s.recorder = recorder
	}
	return s
}

// SetCoverageHook 设置覆盖率不足时的回调
func (s *Service) SetCoverageHook(hook CoverageHook) {
	s.coverageHook = hook
}

// Summarize 校验 → 关键词快照 → 分层摘要 → 覆盖率比较 → 风格格式化 → 字数统计
func (s *Service) Summarize(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()

	result, err := s.summarize(ctx, runID, req)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	s.metrics.ObserveRequest(string(req.Channel), styleLabel(req.Style), outcome)
	s.record(ctx, runID, req, result, err, time.Since(started))

	if err != nil {
		logger.Warnf("[Summarizer] 请求 %s 失败 (%s): %v", runID, ErrorKind(err), err)
		return nil, err
	}
	logger.Infof("[Summarizer] 请求 %s 完成: style=%s, depth=%d, chunks=%d, coverage=%.2f, %d 词, 耗时 %s",
		runID, result.Style, result.Depth, result.Chunks, result.Coverage, result.WordCount, time.Since(started).Round(time.Millisecond))
	return result, nil
}

func (s *Service) summarize(ctx context.Context, runID string, req Request) (*Result, error) {
	if err := Validate(s.limits, req.Text, req.Channel); err != nil {
		return nil, err
	}

	st, err := style.Parse(req.Style)
	if err != nil {
		return nil, &ValidationError{Kind: KindUnsupportedStyle, Channel: req.Channel, Detail: err.Error()}
	}
	if st == style.Custom && strings.TrimSpace(req.Instruction) == "" {
		return nil, &ValidationError{Kind: KindMissingInstruction, Channel: req.Channel, Detail: style.ErrMissingInstruction.Error()}
	}

	if s.orchestrator == nil || !s.orchestrator.Ready() {
		return nil, &ServiceUnavailableError{Service: "summarization"}
	}

	original := keywords.Extract(req.Text, s.coverage.TopKeywords)

	outcome, err := s.orchestrator.Summarize(ctx, req.Text)
	if err != nil {
		return nil, err
	}

	coverage := keywords.Coverage(original, keywords.Extract(outcome.Summary, s.coverage.TopKeywords))
	lowCoverage := coverage < s.coverage.Threshold
	s.metrics.ObserveCoverage(coverage, lowCoverage)
	if lowCoverage {
		logger.Warnf("[Summarizer] 请求 %s 关键词覆盖率 %.2f 低于阈值 %.2f, 原文关键词: %s",
			runID, coverage, s.coverage.Threshold, strings.Join(original.Words(), ","))
		if s.coverageHook != nil {
			s.coverageHook(ctx, CoverageReport{
				RunID:     runID,
				Coverage:  coverage,
				Threshold: s.coverage.Threshold,
				Original:  original,
				Summary:   outcome.Summary,
			})
		}
	}

	formatted, err := s.formatter.Format(ctx, outcome.Summary, st, req.Instruction)
	if err != nil {
		if errors.Is(err, style.ErrMissingInstruction) {
			return nil, &ValidationError{Kind: KindMissingInstruction, Channel: req.Channel, Detail: err.Error()}
		}
		return nil, &ValidationError{Kind: KindUnsupportedStyle, Channel: req.Channel, Detail: err.Error()}
	}

	return &Result{
		Summary:     formatted.Text,
		BaseSummary: outcome.Summary,
		Style:       st,
		WordCount:   wordCount(formatted.Text),
		Coverage:    coverage,
		LowCoverage: lowCoverage,
		Depth:       outcome.Depth,
		Chunks:      outcome.Chunks,
		Degraded:    formatted.Degraded,
		RunID:       runID,
	}, nil
}

// styleLabel 指标与运行记录使用的风格名，无法识别的取值统一为 invalid
func styleLabel(raw string) string {
	st, err := style.Parse(raw)
	if err != nil {
		return invalidStyleLabel
	}
	return string(st)
}

// record 写入运行记录，失败只记录日志
func (s *Service) record(ctx context.Context, runID string, req Request, result *Result, err error, elapsed time.Duration) {
	if s.recorder == nil {
		return
	}

	run := &history.Run{
		ID:         runID,
		CreatedAt:  time.Now().UTC(),
		Channel:    string(req.Channel),
		Style:      styleLabel(req.Style),
		InputWords: wordCount(req.Text),
		Duration:   elapsed,
		ErrorKind:  ErrorKind(err),
	}
	if result != nil {
		run.Style = string(result.Style)
		run.OutputWords = result.WordCount
		run.Chunks = result.Chunks
		run.Depth = result.Depth
		run.Coverage = result.Coverage
		run.Degraded = result.Degraded
	}

	if recordErr := s.recorder.Record(ctx, run); recordErr != nil {
		logger.Errorf("[Summarizer] 保存运行记录失败: %v", recordErr)
	}
}
