package summarizer

import (
	"errors"
	"fmt"
)

type ValidationKind string

const (
	KindTooEmpty           ValidationKind = "too_empty"
	KindTooShort           ValidationKind = "too_short"
	KindTooLong            ValidationKind = "too_long"
	KindMissingInstruction ValidationKind = "missing_instruction"
	KindUnsupportedStyle   ValidationKind = "unsupported_style"
)

// ValidationError 输入校验失败，直接返回给调用方，不重试
type ValidationError struct {
	Kind     ValidationKind
	Channel  Channel
	Bound    int
	Observed int
	Detail   string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindTooEmpty:
		return fmt.Sprintf("%s: Text cannot be empty. Minimum %d words required. Your text has %d words.",
			e.Channel.Label(), e.Bound, e.Observed)
	case KindTooShort:
		return fmt.Sprintf("%s: Text too short. Minimum %d words required. Your text has %d words.",
			e.Channel.Label(), e.Bound, e.Observed)
	case KindTooLong:
		return fmt.Sprintf("%s: Text too long. Maximum %d words allowed. Your text has %d words.",
			e.Channel.Label(), e.Bound, e.Observed)
	default:
		return e.Detail
	}
}

type FailureKind string

const (
	KindNoChunksSucceeded FailureKind = "no_chunks_succeeded"
	KindChunkTooLong      FailureKind = "chunk_too_long"
	KindServiceError      FailureKind = "service_error"
)

// SummarizationError 摘要生成失败
type SummarizationError struct {
	Kind   FailureKind
	Depth  int
	Chunks int
	Err    error
}

func (e *SummarizationError) Error() string {
	switch e.Kind {
	case KindNoChunksSucceeded:
		return fmt.Sprintf("Failed to summarize any chunks (depth %d, %d chunks): %v", e.Depth, e.Chunks, e.Err)
	case KindChunkTooLong:
		return "Text chunk is too long for the model. Please try with shorter text."
	default:
		return fmt.Sprintf("Summarization failed: %v", e.Err)
	}
}

func (e *SummarizationError) Unwrap() error {
	return e.Err
}

// ServiceUnavailableError 模型服务不可达或未配置
type ServiceUnavailableError struct {
	Service string
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service is not available", e.Service)
	}
	return fmt.Sprintf("%s service is not available: %v", e.Service, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.Err
}

// ErrorKind 返回错误类别，用于 HTTP 响应与运行记录
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return string(validationErr.Kind)
	}
	var unavailableErr *ServiceUnavailableError
	if errors.As(err, &unavailableErr) {
		return "service_unavailable"
	}
	var summarizationErr *SummarizationError
	if errors.As(err, &summarizationErr) {
		return string(summarizationErr.Kind)
	}
	return "internal_error"
}
