package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/sashabaranov/go-openai"
)

// Model 摘要与风格转换两种能力
type Model interface {
	Summarize(ctx context.Context, text string, minLen, maxLen int) (string, error)
	Transform(ctx context.Context, instruction string, maxNewTokens int) (string, error)
	Name() string
}

// New 按配置创建模型客户端，transport 为空时使用默认传输
func New(cfg *config.LLM, transport *http.Transport) (Model, error) {
	switch cfg.Provider {
	case "huggingface":
		return NewHFClient(cfg, transport), nil
	case "openai":
		return NewClient(cfg, transport), nil
	default:
		return nil, fmt.Errorf("未知的模型服务提供方: %s", cfg.Provider)
	}
}

// openAIClientInterface 定义 OpenAI 客户端接口，便于测试
type openAIClientInterface interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client 兼容 OpenAI API 的模型客户端
type Client struct {
	config       *config.LLM
	openaiClient openAIClientInterface
}

func NewClient(cfg *config.LLM, transport *http.Transport) *Client {
	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	openaiConfig.BaseURL = cfg.BaseURL
	if transport != nil {
		openaiConfig.HTTPClient = &http.Client{Transport: transport}
	}

	return &Client{
		config:       cfg,
		openaiClient: openai.NewClientWithConfig(openaiConfig),
	}
}

func (c *Client) Name() string {
	return "openai"
}

const summarizeSystemPrompt = `You are a summarization model. Summarize the text provided by the user faithfully, in plain prose.
Keep the key facts, names and figures. Do not add information that is not in the text. Output only the summary.`

// Summarize 生成长度约在 [minLen, maxLen] token 之间的摘要
func (c *Client) Summarize(ctx context.Context, text string, minLen, maxLen int) (string, error) {
	userPrompt := fmt.Sprintf("Summarize the following text in roughly %d to %d tokens.\n\n%s", minLen, maxLen, text)

	req := openai.ChatCompletionRequest{
		Model: c.config.SummaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarizeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.3,
		MaxTokens:   maxLen,
	}
	return c.complete(ctx, req)
}

// Transform 按指令改写文本
func (c *Client) Transform(ctx context.Context, instruction string, maxNewTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.config.StyleModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: instruction},
		},
		Temperature: 0.3,
		MaxTokens:   maxNewTokens,
	}
	return c.complete(ctx, req)
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.CallTimeout())
	defer cancel()

	resp, err := c.openaiClient.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("调用 LLM API 失败: %w", classifyOpenAIError(err))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM API 返回空结果")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content), nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == "context_length_exceeded" {
			return fmt.Errorf("%w: %s", ErrInputTooLong, apiErr.Message)
		}
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return classifyStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}
	return classifyTransportError(err)
}
