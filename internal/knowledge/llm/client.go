package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// DefaultChatModel 缺省对话模型
const DefaultChatModel = "gpt-3.5-turbo"

// Client 对话模型客户端。问答与摘要都用确定性输出（temperature 0）。
type Client struct {
	client *openai.Client
	model  string
	logger *logger.Logger
}

// Config 客户端配置
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewClient 创建对话模型客户端
func NewClient(cfg *Config, lgr *logger.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultChatModel
	}

	log := lgr
	if log == nil {
		log = logger.L()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: log,
	}, nil
}

// Complete 发送单轮 prompt 并返回模型回复文本
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithModel(ctx, c.model, prompt)
}

// CompleteWithModel 用指定模型发送单轮 prompt
func (c *Client) CompleteWithModel(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = c.model
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	})
	if err != nil {
		c.logger.Error("chat completion failed",
			zap.String("model", model),
			zap.Error(err))
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Model 返回缺省模型名称
func (c *Client) Model() string {
	return c.model
}
