package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// HFClient HuggingFace Inference API 客户端
type HFClient struct {
	config *config.LLM
	http   *resty.Client
}

func NewHFClient(cfg *config.LLM, transport *http.Transport) *HFClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.CallTimeout()).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	if transport != nil {
		client.SetTransport(transport)
	}

	return &HFClient{
		config: cfg,
		http:   client,
	}
}

func (c *HFClient) Name() string {
	return "huggingface"
}

// Summarize 调用摘要模型，返回 summary_text
func (c *HFClient) Summarize(ctx context.Context, text string, minLen, maxLen int) (string, error) {
	body := map[string]any{
		"inputs": text,
		"parameters": map[string]any{
			"min_length": minLen,
			"max_length": maxLen,
		},
	}
	raw, err := c.post(ctx, c.config.SummaryModel, body)
	if err != nil {
		return "", err
	}
	return firstField(raw, "summary_text")
}

// Transform 调用文本生成模型，返回 generated_text
func (c *HFClient) Transform(ctx context.Context, instruction string, maxNewTokens int) (string, error) {
	body := map[string]any{
		"inputs": instruction,
		"parameters": map[string]any{
			"max_new_tokens":   maxNewTokens,
			"return_full_text": false,
		},
	}
	raw, err := c.post(ctx, c.config.StyleModel, body)
	if err != nil {
		return "", err
	}
	return firstField(raw, "generated_text")
}

func (c *HFClient) post(ctx context.Context, model string, body any) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/models/" + model)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	raw := resp.Body()
	if msg := gjson.GetBytes(raw, "error"); msg.Exists() || resp.IsError() {
		detail := msg.String()
		if detail == "" {
			detail = resp.Status()
		}
		return nil, classifyStatus(resp.StatusCode(), detail)
	}
	return raw, nil
}

// firstField 兼容数组与对象两种返回格式
func firstField(raw []byte, field string) (string, error) {
	result := gjson.GetBytes(raw, "0."+field)
	if !result.Exists() {
		result = gjson.GetBytes(raw, field)
	}
	if !result.Exists() {
		return "", fmt.Errorf("模型返回结果缺少 %s 字段", field)
	}
	return strings.TrimSpace(result.String()), nil
}
