package storage

import (
	"context"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

// DefaultCollection 缺省集合名
const DefaultCollection = "documents"

// VectorStore 向量存储接口。向量由上游生成后传入，存储层不做
// 嵌入调用。
type VectorStore interface {
	// Upsert 写入分块内容、向量与元数据，各切片长度一致
	Upsert(ctx context.Context, ids []string, embeddings [][]float32, metadatas []types.ChunkMetadata, contents []string) error

	// Query 按查询向量返回相似度最高的 k 个分块
	Query(ctx context.Context, embedding []float32, k int) ([]*types.RetrievedDocument, error)

	// DeleteByIDs 按向量 ID 删除分块
	DeleteByIDs(ctx context.Context, ids []string) error

	// ListCollections 返回所有集合名
	ListCollections(ctx context.Context) ([]string, error)

	// DeleteAllCollections 删除所有集合，返回删除数量
	DeleteAllCollections(ctx context.Context) (int, error)

	// Count 返回缺省集合中的分块数量
	Count(ctx context.Context) (int, error)

	// Reopen 目录被外部重建后重新打开底层存储
	Reopen() error
}
