package retriever

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/knowledge/embedding"
	"github.com/docqa-project/docqa-backend/internal/knowledge/reranker"
	"github.com/docqa-project/docqa-backend/internal/knowledge/storage"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// DefaultTopK 缺省返回的分块数量
const DefaultTopK = 3

// RerankConfig 外部重排序服务配置
type RerankConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Retriever 向量检索器。重排序策略按序尝试，失败时静默降级为
// 纯相似度 top-k，不向调用方抛错。
type Retriever struct {
	embedder        embedding.Embedder
	store           storage.VectorStore
	rerankerFactory *reranker.Factory
	rerankConfig    RerankConfig
	complete        reranker.CompletionFunc
	logger          *logger.Logger
}

// Config 检索器配置
type Config struct {
	Embedder embedding.Embedder
	Store    storage.VectorStore
	Rerank   RerankConfig
	Complete reranker.CompletionFunc // llm 重排序使用
	Logger   *logger.Logger
}

// New 创建检索器
func New(cfg *Config) (*Retriever, error) {
	if cfg == nil || cfg.Embedder == nil || cfg.Store == nil {
		return nil, fmt.Errorf("embedder and store are required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.L()
	}

	return &Retriever{
		embedder:        cfg.Embedder,
		store:           cfg.Store,
		rerankerFactory: reranker.NewFactory(log),
		rerankConfig:    cfg.Rerank,
		complete:        cfg.Complete,
		logger:          log,
	}, nil
}

// strategy 一次检索尝试：候选倍数 + 重排序器构造
type strategy struct {
	name    string
	fetchN  func(k int) int
	build   func() (reranker.Reranker, error)
}

// strategies 返回给定策略的尝试顺序。重排序策略后面总跟着纯
// top-k 兜底。
func (r *Retriever) strategies(kind types.RerankKind) []strategy {
	plain := strategy{
		name:   "plain",
		fetchN: func(k int) int { return k },
		build:  func() (reranker.Reranker, error) { return reranker.NewNoOpReranker(), nil },
	}

	switch kind {
	case types.RerankCohere:
		return []strategy{
			{
				name:   "cohere",
				fetchN: func(k int) int { return k * 2 },
				build: func() (reranker.Reranker, error) {
					return r.rerankerFactory.CreateReranker(&reranker.CreateRerankerConfig{
						Kind:    types.RerankCohere,
						APIKey:  r.rerankConfig.APIKey,
						BaseURL: r.rerankConfig.BaseURL,
						Model:   r.rerankConfig.Model,
					})
				},
			},
			plain,
		}

	case types.RerankLLM:
		return []strategy{
			{
				name:   "llm",
				fetchN: func(k int) int { return k * 2 },
				build: func() (reranker.Reranker, error) {
					return r.rerankerFactory.CreateReranker(&reranker.CreateRerankerConfig{
						Kind:     types.RerankLLM,
						Complete: r.complete,
					})
				},
			},
			plain,
		}

	default:
		return []strategy{plain}
	}
}

// Retrieve 检索与 query 最相关的 k 个分块
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, kind types.RerankKind) ([]*types.RetrievedDocument, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var lastErr error
	for _, s := range r.strategies(kind) {
		rr, err := s.build()
		if err != nil {
			r.logger.Warn("reranker unavailable, trying next strategy",
				zap.String("strategy", s.name),
				zap.Error(err))
			lastErr = err
			continue
		}

		candidates, err := r.store.Query(ctx, queryVec, s.fetchN(k))
		if err != nil {
			return nil, fmt.Errorf("vector query failed: %w", err)
		}

		docs, err := rr.Rerank(ctx, query, candidates, k)
		if err != nil {
			r.logger.Warn("rerank failed, trying next strategy",
				zap.String("strategy", s.name),
				zap.Error(err))
			lastErr = err
			continue
		}

		return docs, nil
	}

	return nil, fmt.Errorf("all retrieval strategies failed: %w", lastErr)
}
