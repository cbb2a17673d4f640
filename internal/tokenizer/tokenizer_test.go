package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimator_Count(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"空文本", "", 0},
		{"不足 4 字符", "abc", 0},
		{"正好 4 字符", "abcd", 1},
		{"英文句子", "This is a test message", 5},
		{"多字节字符按字符计", "这是一段中文测试文本", 2},
		{"长文本", strings.Repeat("word ", 100), 125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimator{}.Count(tt.text))
		})
	}
}

func TestNew_UnknownEncodingFallsBack(t *testing.T) {
	c := New("no-such-encoding-or-model")
	assert.Equal(t, StrategyEstimator, c.Strategy())
	assert.Equal(t, 1, c.Count("abcd"))
}

func TestLoadEncoding_KeepsBothCauses(t *testing.T) {
	_, err := loadEncoding("no-such-encoding-or-model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "按编码名加载失败")
	assert.Contains(t, err.Error(), "按模型名加载失败")
	assert.Equal(t, 2, len(unwrapAll(err)))
}

// unwrapAll 展开 fmt.Errorf 多个 %w 包装的错误
func unwrapAll(err error) []error {
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		return multi.Unwrap()
	}
	return nil
}
