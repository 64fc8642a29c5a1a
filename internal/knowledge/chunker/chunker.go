package chunker

import (
	"context"
)

// ChunkStrategy 分块策略
type ChunkStrategy string

const (
	// StrategyRecursive 递归字符分块（默认）
	StrategyRecursive ChunkStrategy = "recursive"
	// StrategyToken 按 token 窗口分块
	StrategyToken ChunkStrategy = "token"
)

// Chunker 文本分块接口
type Chunker interface {
	// Chunk 将文本分块
	Chunk(ctx context.Context, text string) ([]*TextChunk, error)

	// ChunkSize 返回分块大小
	ChunkSize() int

	// ChunkOverlap 返回分块重叠大小
	ChunkOverlap() int
}

// TextChunk 文本分块。块在原文中的位置由上游按内容匹配求得，
// 这里只携带内容与统计信息。
type TextChunk struct {
	Index      int    // 块序号（从 0 开始）
	Content    string // 块内容
	TokenCount int    // Token 数量（cl100k_base）
}
