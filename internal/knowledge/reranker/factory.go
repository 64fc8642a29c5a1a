package reranker

import (
	"fmt"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// Factory Reranker 工厂
type Factory struct {
	logger *logger.Logger
}

// NewFactory 创建 Reranker 工厂
func NewFactory(lgr *logger.Logger) *Factory {
	if lgr == nil {
		lgr = logger.L()
	}
	return &Factory{
		logger: lgr,
	}
}

// CreateRerankerConfig 创建 Reranker 配置
type CreateRerankerConfig struct {
	Kind     types.RerankKind
	APIKey   string
	BaseURL  string
	Model    string
	Complete CompletionFunc // llm 策略使用
}

// CreateReranker 创建 Reranker。创建失败由调用方决定是否
// 降级为无重排序检索。
func (f *Factory) CreateReranker(cfg *CreateRerankerConfig) (Reranker, error) {
	if cfg == nil {
		return NewNoOpReranker(), nil
	}

	switch cfg.Kind {
	case types.RerankCohere:
		return NewCohereReranker(&CohereRerankerConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}, f.logger)

	case types.RerankLLM:
		return NewLLMExtractor(cfg.Complete, f.logger)

	case types.RerankNone, "":
		return NewNoOpReranker(), nil

	default:
		return nil, fmt.Errorf("unsupported rerank kind: %s", cfg.Kind)
	}
}
