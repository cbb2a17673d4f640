package summarizer

import "github.com/fachebot/text-digest/internal/style"

// Channel 输入来源，决定字数校验范围
type Channel string

const (
	ChannelTextArea   Channel = "text_area"
	ChannelFileUpload Channel = "file_upload"
)

// Label 用于错误信息的展示名称
func (c Channel) Label() string {
	switch c {
	case ChannelFileUpload:
		return "File upload"
	default:
		return "Text area"
	}
}

// Request 单次摘要请求
type Request struct {
	Text        string
	Channel     Channel
	Style       string
	Instruction string // custom 风格的转换指令
}

// Result 摘要结果及诊断信息
type Result struct {
	Summary     string      `json:"summary"`
	BaseSummary string      `json:"base_summary"`
	Style       style.Style `json:"style"`
	WordCount   int         `json:"word_count"`
	Coverage    float64     `json:"coverage"`
	LowCoverage bool        `json:"low_coverage"`
	Depth       int         `json:"depth"`
	Chunks      int         `json:"chunks"`
	Degraded    bool        `json:"degraded"`
	RunID       string      `json:"run_id"`
}

// Bounds 摘要模型的输出长度范围（token）
type Bounds struct {
	Min int
	Max int
}
