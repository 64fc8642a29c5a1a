package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/knowledge/chunker"
	"github.com/docqa-project/docqa-backend/internal/knowledge/embedding"
	"github.com/docqa-project/docqa-backend/internal/knowledge/extractor"
	"github.com/docqa-project/docqa-backend/internal/knowledge/storage"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// EmbedderProvider 按模型名提供 Embedder
type EmbedderProvider func(model string) (embedding.Embedder, error)

// Ingestor 文档入库编排器：抽取、分块、span 映射、嵌入、入库、
// 登记，一条链走完。
type Ingestor struct {
	extractor   *extractor.Factory
	chunker     chunker.Chunker
	embedderFor EmbedderProvider
	store       storage.VectorStore
	registry    *storage.Registry
	mapper      *SpanMapper
	logger      *logger.Logger
}

// Config 入库编排器配置
type Config struct {
	Extractor   *extractor.Factory
	Chunker     chunker.Chunker
	EmbedderFor EmbedderProvider
	Store       storage.VectorStore
	Registry    *storage.Registry
	Mapper      *SpanMapper
	Logger      *logger.Logger
}

// New 创建入库编排器
func New(cfg *Config) (*Ingestor, error) {
	if cfg == nil || cfg.Chunker == nil || cfg.EmbedderFor == nil || cfg.Store == nil {
		return nil, fmt.Errorf("chunker, embedder provider and store are required")
	}

	ext := cfg.Extractor
	if ext == nil {
		ext = extractor.NewFactory()
	}

	mapper := cfg.Mapper
	if mapper == nil {
		mapper = NewSpanMapper(nil)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.L()
	}

	return &Ingestor{
		extractor:   ext,
		chunker:     cfg.Chunker,
		embedderFor: cfg.EmbedderFor,
		store:       cfg.Store,
		registry:    cfg.Registry,
		mapper:      mapper,
		logger:      log,
	}, nil
}

// Ingest 处理一个文件路径或 URL，返回入库的分块数量。抽取失败
// 或无内容时返回 (0, nil)；嵌入与存储错误向上传递。
func (ing *Ingestor) Ingest(ctx context.Context, input, embeddingModel string) (int, error) {
	extraction := ing.extractor.Extract(ctx, input)
	if extraction.Failed() {
		ing.logger.Warn("extraction failed, nothing to ingest",
			zap.String("input", input),
			zap.Error(extraction.Err))
		return 0, nil
	}

	if strings.TrimSpace(extraction.Text) == "" {
		ing.logger.Warn("no text extracted", zap.String("input", input))
		return 0, nil
	}

	chunks, err := ing.chunker.Chunk(ctx, extraction.Text)
	if err != nil {
		return 0, fmt.Errorf("chunking failed: %w", err)
	}
	if len(chunks) == 0 {
		ing.logger.Warn("no chunks created", zap.String("input", input))
		return 0, nil
	}

	embedder, err := ing.embedderFor(embeddingModel)
	if err != nil {
		return 0, fmt.Errorf("failed to create embedder: %w", err)
	}

	fileType := types.DetectFileType(input)
	metadatas := ing.mapper.Map(input, fileType, embedder.Model(), chunks, extraction.Spans)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding failed: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: got %d, want %d", len(embeddings), len(chunks))
	}

	ids := make([]string, len(chunks))
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	if err := ing.store.Upsert(ctx, ids, embeddings, metadatas, texts); err != nil {
		return 0, fmt.Errorf("vector store upsert failed: %w", err)
	}

	if ing.registry != nil {
		doc := &types.Document{
			ID:             uuid.NewString(),
			Source:         metadatas[0].Source,
			FilePath:       input,
			FileType:       fileType,
			EmbeddingModel: embedder.Model(),
			ChunkCount:     len(chunks),
		}
		if err := ing.registry.RecordDocument(ctx, doc, ids); err != nil {
			return 0, fmt.Errorf("failed to record document: %w", err)
		}
	}

	ing.logger.Info("document ingested",
		zap.String("input", input),
		zap.Int("chunks", len(chunks)),
		zap.String("embedding_model", embedder.Model()))

	return len(chunks), nil
}
