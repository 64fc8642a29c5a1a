package chunker

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenChunker 按 token 窗口分块的分块器。窗口大小与重叠都按
// token 计，适合需要严格控制嵌入输入长度的场景。
type TokenChunker struct {
	encoding *tiktoken.Tiktoken
	size     int
	overlap  int
}

// TokenChunkerConfig Token 分块器配置
type TokenChunkerConfig struct {
	Size     int    // 每块的 token 数量
	Overlap  int    // 重叠的 token 数量
	Encoding string // 编码方式（默认 cl100k_base）
}

// NewTokenChunker 创建 Token 分块器
func NewTokenChunker(cfg *TokenChunkerConfig) (*TokenChunker, error) {
	if cfg == nil {
		cfg = &TokenChunkerConfig{}
	}

	if cfg.Size == 0 {
		cfg.Size = 500
	}

	if cfg.Size < 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}

	if cfg.Overlap < 0 {
		return nil, fmt.Errorf("chunk overlap cannot be negative")
	}

	if cfg.Overlap >= cfg.Size {
		return nil, fmt.Errorf("chunk overlap must be less than chunk size")
	}

	if cfg.Encoding == "" {
		cfg.Encoding = "cl100k_base"
	}

	encoding, err := tiktoken.GetEncoding(cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}

	return &TokenChunker{
		encoding: encoding,
		size:     cfg.Size,
		overlap:  cfg.Overlap,
	}, nil
}

// Chunk 将文本按固定 token 窗口滑动分块
func (c *TokenChunker) Chunk(ctx context.Context, text string) ([]*TextChunk, error) {
	if text == "" {
		return []*TextChunk{}, nil
	}

	tokens := c.encoding.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return []*TextChunk{}, nil
	}

	step := c.size - c.overlap
	chunks := make([]*TextChunk, 0, (len(tokens)+step-1)/step)

	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}

		window := tokens[start:end]
		chunks = append(chunks, &TextChunk{
			Index:      len(chunks),
			Content:    c.encoding.Decode(window),
			TokenCount: len(window),
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}

// ChunkSize 返回分块大小
func (c *TokenChunker) ChunkSize() int {
	return c.size
}

// ChunkOverlap 返回分块重叠大小
func (c *TokenChunker) ChunkOverlap() int {
	return c.overlap
}
