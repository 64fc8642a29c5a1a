package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// embedBatchSize 单次 API 请求的文本数量上限
const embedBatchSize = 100

// OpenAIEmbedder OpenAI Embedder 实现
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	logger    *logger.Logger
}

// OpenAIEmbedderConfig OpenAI Embedder 配置
type OpenAIEmbedderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
}

// NewOpenAIEmbedder 创建 OpenAI Embedder
func NewOpenAIEmbedder(cfg *OpenAIEmbedderConfig, lgr *logger.Logger) (*OpenAIEmbedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	if cfg.Dimension == 0 {
		cfg.Dimension = 1536
	}

	log := lgr
	if log == nil {
		log = logger.L()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	log.Info("openai embedder created",
		zap.String("model", cfg.Model),
		zap.Int("dimension", cfg.Dimension))

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		logger:    log,
	}, nil
}

// Embed 对单个文本生成向量
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding generated")
	}

	return embeddings[0], nil
}

// BatchEmbed 批量生成向量，按 API 限制分批请求
func (e *OpenAIEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	embeddings := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		req := openai.EmbeddingRequestStrings{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(e.model),
		}

		resp, err := e.client.CreateEmbeddings(ctx, req)
		if err != nil {
			e.logger.Error("failed to create embeddings",
				zap.Error(err),
				zap.Int("text_count", end-start))
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}

		for _, data := range resp.Data {
			embeddings = append(embeddings, data.Embedding)
		}
	}

	e.logger.Debug("embeddings created",
		zap.String("model", e.model),
		zap.Int("count", len(embeddings)))

	return embeddings, nil
}

// Dimension 返回向量维度
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// Model 返回模型名称
func (e *OpenAIEmbedder) Model() string {
	return e.model
}
