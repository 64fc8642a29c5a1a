package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// ChromemStore 基于 chromem-go 的落盘向量存储
type ChromemStore struct {
	mu     sync.RWMutex
	db     *chromem.DB
	path   string
	logger *logger.Logger
}

// NewChromemStore 打开（或创建）落盘向量库
func NewChromemStore(path string, lgr *logger.Logger) (*ChromemStore, error) {
	if path == "" {
		return nil, fmt.Errorf("vector db path is required")
	}

	if lgr == nil {
		lgr = logger.L()
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector db: %w", err)
	}

	lgr.Info("vector store opened", zap.String("path", path))

	return &ChromemStore{
		db:     db,
		path:   path,
		logger: lgr,
	}, nil
}

// externalEmbeddings 占位嵌入函数。向量始终由上游传入，集合内部
// 不应该再发起嵌入调用。
func externalEmbeddings(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("embeddings must be provided by the caller")
}

// collection 获取或创建缺省集合
func (s *ChromemStore) collection() (*chromem.Collection, error) {
	return s.db.GetOrCreateCollection(DefaultCollection, nil, externalEmbeddings)
}

// Upsert 写入分块内容、向量与元数据
func (s *ChromemStore) Upsert(ctx context.Context, ids []string, embeddings [][]float32, metadatas []types.ChunkMetadata, contents []string) error {
	if len(ids) == 0 {
		return nil
	}

	if len(ids) != len(embeddings) || len(ids) != len(metadatas) || len(ids) != len(contents) {
		return fmt.Errorf("ids, embeddings, metadatas and contents must have equal length")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.collection()
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}

	metadataMaps := make([]map[string]string, len(metadatas))
	for i, m := range metadatas {
		metadataMaps[i] = encodeMetadata(m)
	}

	if err := col.Add(ctx, ids, embeddings, metadataMaps, contents); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	s.logger.Info("chunks stored",
		zap.Int("count", len(ids)),
		zap.String("collection", DefaultCollection))

	return nil
}

// Query 按查询向量返回相似度最高的 k 个分块
func (s *ChromemStore) Query(ctx context.Context, embedding []float32, k int) ([]*types.RetrievedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, err := s.collection()
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	count := col.Count()
	if count == 0 {
		return []*types.RetrievedDocument{}, nil
	}
	if k > count {
		k = count
	}
	if k <= 0 {
		return []*types.RetrievedDocument{}, nil
	}

	results, err := col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	docs := make([]*types.RetrievedDocument, len(results))
	for i, result := range results {
		docs[i] = &types.RetrievedDocument{
			PageContent: result.Content,
			Metadata:    decodeMetadata(result.Metadata),
			Score:       result.Similarity,
		}
	}

	return docs, nil
}

// DeleteByIDs 按向量 ID 删除分块
func (s *ChromemStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.collection()
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}

	if err := col.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	return nil
}

// ListCollections 返回所有集合名
func (s *ChromemStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	collections := s.db.ListCollections()
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	return names, nil
}

// DeleteAllCollections 删除所有集合，返回删除数量
func (s *ChromemStore) DeleteAllCollections(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collections := s.db.ListCollections()
	deleted := 0
	for name := range collections {
		if err := s.db.DeleteCollection(name); err != nil {
			return deleted, fmt.Errorf("failed to delete collection %s: %w", name, err)
		}
		deleted++
	}

	s.logger.Info("collections deleted", zap.Int("count", deleted))
	return deleted, nil
}

// Count 返回缺省集合中的分块数量
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	collections := s.db.ListCollections()
	if _, ok := collections[DefaultCollection]; !ok {
		return 0, nil
	}

	col, err := s.collection()
	if err != nil {
		return 0, fmt.Errorf("failed to get collection: %w", err)
	}
	return col.Count(), nil
}

// Reopen 目录被外部重建后重新打开底层存储
func (s *ChromemStore) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := chromem.NewPersistentDB(s.path, false)
	if err != nil {
		return fmt.Errorf("failed to reopen vector db: %w", err)
	}

	s.db = db
	s.logger.Info("vector store reopened", zap.String("path", s.path))
	return nil
}

// encodeMetadata 转换为 chromem 的 map[string]string 元数据
func encodeMetadata(m types.ChunkMetadata) map[string]string {
	out := map[string]string{
		"source":          m.Source,
		"file_type":       string(m.FileType),
		"embedding_model": m.EmbeddingModel,
		"chunk_index":     strconv.Itoa(m.ChunkIndex),
	}
	if m.FilePath != "" {
		out["file_path"] = m.FilePath
	}
	if m.PageNumber > 0 {
		out["page_number"] = strconv.Itoa(m.PageNumber)
	}
	if m.ParagraphNumber > 0 {
		out["paragraph_number"] = strconv.Itoa(m.ParagraphNumber)
	}
	if m.EstimatedPage {
		out["estimated_page"] = "true"
	}
	if m.Title != "" {
		out["title"] = m.Title
	}
	if m.URL != "" {
		out["url"] = m.URL
	}
	return out
}

// decodeMetadata 从 chromem 元数据还原 ChunkMetadata
func decodeMetadata(m map[string]string) types.ChunkMetadata {
	out := types.ChunkMetadata{
		Source:         m["source"],
		FileType:       types.FileType(m["file_type"]),
		EmbeddingModel: m["embedding_model"],
		FilePath:       m["file_path"],
		Title:          m["title"],
		URL:            m["url"],
	}
	if v, err := strconv.Atoi(m["chunk_index"]); err == nil {
		out.ChunkIndex = v
	}
	if v, err := strconv.Atoi(m["page_number"]); err == nil {
		out.PageNumber = v
	}
	if v, err := strconv.Atoi(m["paragraph_number"]); err == nil {
		out.ParagraphNumber = v
	}
	out.EstimatedPage = m["estimated_page"] == "true"
	return out
}
