package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Sock5Proxy struct {
	Host   string `yaml:"Host"`
	Port   int32  `yaml:"Port"`
	Enable bool   `yaml:"Enable"`
}

type Server struct {
	Addr           string   `yaml:"Addr"`           // 监听地址，如 ":8000"
	AllowedOrigins []string `yaml:"AllowedOrigins"` // CORS 允许的来源
	RateLimit      string   `yaml:"RateLimit"`      // 限流规则，如 "30-M"，留空表示不限流
	MaxUploadBytes int64    `yaml:"MaxUploadBytes"` // 上传文件大小上限
}

type LLM struct {
	Provider          string `yaml:"Provider"` // "huggingface" / "openai"
	BaseURL           string `yaml:"BaseURL"`
	APIKey            string `yaml:"APIKey"`
	SummaryModel      string `yaml:"SummaryModel"`      // 摘要模型，如 facebook/bart-large-cnn
	StyleModel        string `yaml:"StyleModel"`        // 风格转换模型，如 google/flan-t5-base
	Timeout           int    `yaml:"Timeout"`           // 单次调用超时（秒）
	StyleMaxNewTokens int    `yaml:"StyleMaxNewTokens"` // 风格转换最大生成 token 数
	Tokenizer         string `yaml:"Tokenizer"`         // tiktoken 编码或模型名
}

// CallTimeout 单次模型调用的超时时间
func (l LLM) CallTimeout() time.Duration {
	return time.Duration(l.Timeout) * time.Second
}

type WordBounds struct {
	MinWords int `yaml:"MinWords"`
	MaxWords int `yaml:"MaxWords"`
}

type Limits struct {
	TextArea   WordBounds `yaml:"TextArea"`
	FileUpload WordBounds `yaml:"FileUpload"`
}

type Chunking struct {
	TriggerWords     int `yaml:"TriggerWords"`     // 超过该词数触发分块
	MinTokens        int `yaml:"MinTokens"`        // 分块目标下限
	MaxTokens        int `yaml:"MaxTokens"`        // 分块硬上限
	OverlapSentences int `yaml:"OverlapSentences"` // 相邻分块重叠句数
	Workers          int `yaml:"Workers"`          // 并发总结的 worker 数
	MaxDepth         int `yaml:"MaxDepth"`         // 合并再总结的最大层数
}

type Compression struct {
	Min        float64 `yaml:"Min"` // 目标压缩比下限
	Max        float64 `yaml:"Max"` // 目标压缩比上限
	MinFloor   int     `yaml:"MinFloor"`
	MinCeiling int     `yaml:"MinCeiling"`
	MaxFloor   int     `yaml:"MaxFloor"`
	MaxCeiling int     `yaml:"MaxCeiling"`
	Delta      int     `yaml:"Delta"` // min >= max 时 max = min + Delta
}

type Coverage struct {
	Threshold   float64 `yaml:"Threshold"`
	TopKeywords int     `yaml:"TopKeywords"`
}

type History struct {
	Enable        bool   `yaml:"Enable"`
	Path          string `yaml:"Path"`
	RetentionDays int    `yaml:"RetentionDays"`
	Cron          string `yaml:"Cron"`
}

type Log struct {
	Level string `yaml:"Level"`
	Dir   string `yaml:"Dir"`
}

type Config struct {
	Server      Server      `yaml:"Server"`
	Sock5Proxy  Sock5Proxy  `yaml:"Sock5Proxy"`
	LLM         LLM         `yaml:"LLM"`
	Limits      Limits      `yaml:"Limits"`
	Chunking    Chunking    `yaml:"Chunking"`
	Compression Compression `yaml:"Compression"`
	Coverage    Coverage    `yaml:"Coverage"`
	History     History     `yaml:"History"`
	Log         Log         `yaml:"Log"`
}

// Default 返回默认配置，配置文件中的字段会覆盖这些值
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:5174", "http://localhost:3000"},
			RateLimit:      "30-M",
			MaxUploadBytes: 10 * 1024 * 1024,
		},
		LLM: LLM{
			Provider:          "huggingface",
			BaseURL:           "https://api-inference.huggingface.co",
			SummaryModel:      "facebook/bart-large-cnn",
			StyleModel:        "google/flan-t5-base",
			Timeout:           120,
			StyleMaxNewTokens: 512,
			Tokenizer:         "r50k_base",
		},
		Limits: Limits{
			TextArea:   WordBounds{MinWords: 150, MaxWords: 1500},
			FileUpload: WordBounds{MinWords: 300, MaxWords: 4000},
		},
		Chunking: Chunking{
			TriggerWords:     1500,
			MinTokens:        650,
			MaxTokens:        750,
			OverlapSentences: 2,
			Workers:          4,
			MaxDepth:         2,
		},
		Compression: Compression{
			Min:        0.25,
			Max:        0.35,
			MinFloor:   60,
			MinCeiling: 150,
			MaxFloor:   180,
			MaxCeiling: 300,
			Delta:      20,
		},
		Coverage: Coverage{
			Threshold:   0.60,
			TopKeywords: 20,
		},
		History: History{
			Enable:        false,
			Path:          "data/history.db",
			RetentionDays: 30,
			Cron:          "0 3 * * *",
		},
		Log: Log{
			Level: "info",
			Dir:   "logs",
		},
	}
}

func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	c := Default()
	err = yaml.Unmarshal(data, c)
	if err != nil {
		return nil, err
	}

	// 环境变量覆盖敏感配置
	c.ApplyEnv()

	// 验证配置
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// ApplyEnv 使用环境变量覆盖密钥和端点
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	} else if v := os.Getenv("HF_TOKEN"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	// 验证 Server
	if c.Server.Addr == "" {
		return fmt.Errorf("Server.Addr 不能为空")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("Server.MaxUploadBytes 必须大于 0")
	}

	// 验证 LLM
	if c.LLM.Provider != "huggingface" && c.LLM.Provider != "openai" {
		return fmt.Errorf("LLM.Provider 必须是 'huggingface' 或 'openai'")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("LLM.BaseURL 不能为空")
	}
	if c.LLM.SummaryModel == "" {
		return fmt.Errorf("LLM.SummaryModel 不能为空")
	}
	if c.LLM.StyleModel == "" {
		return fmt.Errorf("LLM.StyleModel 不能为空")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM.Timeout 必须大于 0")
	}
	if c.LLM.StyleMaxNewTokens <= 0 {
		return fmt.Errorf("LLM.StyleMaxNewTokens 必须大于 0")
	}

	// 验证 Limits
	for name, b := range map[string]WordBounds{"TextArea": c.Limits.TextArea, "FileUpload": c.Limits.FileUpload} {
		if b.MinWords <= 0 || b.MaxWords < b.MinWords {
			return fmt.Errorf("Limits.%s 必须满足 0 < MinWords <= MaxWords", name)
		}
	}

	// 验证 Chunking
	if c.Chunking.TriggerWords <= 0 {
		return fmt.Errorf("Chunking.TriggerWords 必须大于 0")
	}
	if c.Chunking.MinTokens <= 0 || c.Chunking.MaxTokens < c.Chunking.MinTokens {
		return fmt.Errorf("Chunking 必须满足 0 < MinTokens <= MaxTokens")
	}
	if c.Chunking.OverlapSentences < 0 {
		return fmt.Errorf("Chunking.OverlapSentences 必须 >= 0")
	}
	if c.Chunking.Workers <= 0 {
		return fmt.Errorf("Chunking.Workers 必须大于 0")
	}
	if c.Chunking.MaxDepth < 0 {
		return fmt.Errorf("Chunking.MaxDepth 必须 >= 0")
	}

	// 验证 Compression：保证 AdaptiveBounds 始终满足 min < max 且落在上下限内
	cp := c.Compression
	if cp.Min <= 0 || cp.Max < cp.Min || cp.Max > 1 {
		return fmt.Errorf("Compression 必须满足 0 < Min <= Max <= 1")
	}
	if cp.MinFloor <= 0 || cp.MinCeiling < cp.MinFloor {
		return fmt.Errorf("Compression 必须满足 0 < MinFloor <= MinCeiling")
	}
	if cp.MaxCeiling < cp.MaxFloor || cp.MaxFloor <= cp.MinFloor {
		return fmt.Errorf("Compression 必须满足 MinFloor < MaxFloor <= MaxCeiling")
	}
	if cp.Delta <= 0 || cp.MinCeiling+cp.Delta > cp.MaxCeiling {
		return fmt.Errorf("Compression 必须满足 Delta > 0 且 MinCeiling + Delta <= MaxCeiling")
	}

	// 验证 Coverage
	if c.Coverage.Threshold < 0 || c.Coverage.Threshold > 1 {
		return fmt.Errorf("Coverage.Threshold 必须在 [0, 1] 之间")
	}
	if c.Coverage.TopKeywords <= 0 {
		return fmt.Errorf("Coverage.TopKeywords 必须大于 0")
	}

	// 验证 History
	if c.History.Enable {
		if c.History.Path == "" {
			return fmt.Errorf("History.Path 不能为空（当 Enable 为 true 时）")
		}
		if c.History.RetentionDays < 0 {
			return fmt.Errorf("History.RetentionDays 必须 >= 0")
		}
		if c.History.Cron == "" {
			return fmt.Errorf("History.Cron 不能为空（当 Enable 为 true 时）")
		}
	}

	return nil
}
