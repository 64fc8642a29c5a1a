package reranker

import (
	"context"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

// Reranker 检索结果重排序接口
type Reranker interface {
	// Rerank 对候选文档重排序并截取前 topN 个
	Rerank(ctx context.Context, query string, docs []*types.RetrievedDocument, topN int) ([]*types.RetrievedDocument, error)
}

// NoOpReranker 无操作重排序器，保持相似度顺序只做截断
type NoOpReranker struct{}

// NewNoOpReranker 创建无操作重排序器
func NewNoOpReranker() *NoOpReranker {
	return &NoOpReranker{}
}

// Rerank 直接按原顺序截取前 topN 个
func (r *NoOpReranker) Rerank(ctx context.Context, query string, docs []*types.RetrievedDocument, topN int) ([]*types.RetrievedDocument, error) {
	if topN > 0 && len(docs) > topN {
		return docs[:topN], nil
	}
	return docs, nil
}
