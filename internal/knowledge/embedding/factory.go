package embedding

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
	"github.com/docqa-project/docqa-backend/internal/pkg/redis"
)

// Factory Embedder 工厂
type Factory struct {
	logger *logger.Logger
	cache  *redis.Client
}

// NewFactory 创建 Embedder 工厂。cache 为 nil 时不做缓存包装。
func NewFactory(lgr *logger.Logger, cache *redis.Client) *Factory {
	if lgr == nil {
		lgr = logger.L()
	}
	return &Factory{
		logger: lgr,
		cache:  cache,
	}
}

// CreateEmbedderConfig 创建 Embedder 配置
type CreateEmbedderConfig struct {
	Model       string
	Dimension   int
	APIKey      string
	BaseURL     string
	EnableCache bool
}

// CreateEmbedder 创建 Embedder。只有 text-embedding 系列模型
// 受支持，其他模型名一律回退到缺省模型。
func (f *Factory) CreateEmbedder(cfg *CreateEmbedderConfig) (Embedder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if !strings.HasPrefix(model, "text-embedding") {
		f.logger.Warn("embedding model not supported, falling back to default",
			zap.String("requested", model),
			zap.String("fallback", DefaultModel))
		model = DefaultModel
	}

	embedder, err := NewOpenAIEmbedder(&OpenAIEmbedderConfig{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     model,
		Dimension: cfg.Dimension,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	if cfg.EnableCache && f.cache != nil {
		return NewCacheEmbedder(embedder, f.cache, nil, f.logger), nil
	}

	return embedder, nil
}
