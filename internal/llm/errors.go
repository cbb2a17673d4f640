package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrInputTooLong 输入超过模型可接受的长度
	ErrInputTooLong = errors.New("input too long for model")
	// ErrServiceUnavailable 模型服务无法访问
	ErrServiceUnavailable = errors.New("model service unavailable")
)

// isLengthMessage 判断错误信息是否与输入长度或 token 上限有关
func isLengthMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "length") ||
		strings.Contains(msg, "too long") ||
		strings.Contains(msg, "token") ||
		strings.Contains(msg, "index out of range")
}

func isUnavailableStatus(code int) bool {
	return code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}

// classifyStatus 将 HTTP 状态码和错误信息归类
func classifyStatus(code int, msg string) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("模型服务拒绝访问 (%d): %s", code, msg)
	case isUnavailableStatus(code) || strings.Contains(strings.ToLower(msg), "currently loading"):
		return fmt.Errorf("%w (%d): %s", ErrServiceUnavailable, code, msg)
	case isLengthMessage(msg):
		return fmt.Errorf("%w: %s", ErrInputTooLong, msg)
	default:
		return fmt.Errorf("模型服务返回错误 (%d): %s", code, msg)
	}
}

// classifyTransportError 处理请求未得到响应的情况，超时按普通失败处理
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("调用模型超时或被取消: %w", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("调用模型超时: %w", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return fmt.Errorf("调用模型失败: %w", err)
}
