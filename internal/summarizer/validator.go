package summarizer

import (
	"strings"

	"github.com/fachebot/text-digest/internal/config"
)

// Validate 校验文本非空且字数在该来源的范围内
func Validate(limits config.Limits, text string, channel Channel) error {
	bounds := limits.TextArea
	if channel == ChannelFileUpload {
		bounds = limits.FileUpload
	}

	if strings.TrimSpace(text) == "" {
		return &ValidationError{Kind: KindTooEmpty, Channel: channel, Bound: bounds.MinWords, Observed: 0}
	}

	words := wordCount(text)
	if words < bounds.MinWords {
		return &ValidationError{Kind: KindTooShort, Channel: channel, Bound: bounds.MinWords, Observed: words}
	}
	if words > bounds.MaxWords {
		return &ValidationError{Kind: KindTooLong, Channel: channel, Bound: bounds.MaxWords, Observed: words}
	}
	return nil
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
