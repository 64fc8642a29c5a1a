package ingest

import (
	"path/filepath"
	"strings"

	"github.com/docqa-project/docqa-backend/internal/knowledge/chunker"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

// MatchPolicy 为分块区间挑选命中 span
type MatchPolicy func(chunkStart, chunkEnd int, spans []types.SourceSpan) *types.SourceSpan

// FirstMatch 按文档顺序取第一个与分块区间重叠的 span
func FirstMatch(chunkStart, chunkEnd int, spans []types.SourceSpan) *types.SourceSpan {
	for i := range spans {
		s := &spans[i]
		if !(chunkEnd <= s.CharStart || chunkStart >= s.CharEnd) {
			return s
		}
	}
	return nil
}

// SpanMapper 把分块映射回抽取阶段的结构 spans，为每个分块生成
// 入库元数据。分块位置按累计长度推进（上一块的结束即下一块的
// 开始），与分块重叠无关。
type SpanMapper struct {
	policy MatchPolicy
}

// NewSpanMapper 创建映射器。policy 为 nil 时用 FirstMatch。
func NewSpanMapper(policy MatchPolicy) *SpanMapper {
	if policy == nil {
		policy = FirstMatch
	}
	return &SpanMapper{policy: policy}
}

// Map 为每个分块生成元数据
func (m *SpanMapper) Map(input string, fileType types.FileType, embeddingModel string, chunks []*chunker.TextChunk, spans []types.SourceSpan) []types.ChunkMetadata {
	source := input
	if !strings.HasPrefix(input, "http") {
		source = filepath.Base(input)
	}

	metadatas := make([]types.ChunkMetadata, len(chunks))
	currentPos := 0

	for i, chunk := range chunks {
		chunkEnd := currentPos + len(chunk.Content)

		metadata := types.ChunkMetadata{
			Source:         source,
			FileType:       fileType,
			EmbeddingModel: embeddingModel,
			ChunkIndex:     i,
			FilePath:       input,
		}

		if span := m.policy(currentPos, chunkEnd, spans); span != nil {
			metadata.PageNumber = span.PageNumber
			metadata.ParagraphNumber = span.ParagraphNumber
			metadata.EstimatedPage = span.EstimatedPage
			metadata.Title = span.Title
			metadata.URL = span.URL
		}

		metadatas[i] = metadata
		currentPos = chunkEnd
	}

	return metadatas
}
