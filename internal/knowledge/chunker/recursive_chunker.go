package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// RecursiveChunker 递归字符分块器。按分隔符优先级递归切分，
// 再贪心合并为不超过 Size 个字符的块，相邻块之间保留约
// Overlap 个字符的重叠。大小按字符计，token 数仅作统计。
type RecursiveChunker struct {
	encoding   *tiktoken.Tiktoken
	size       int
	overlap    int
	separators []string
}

// RecursiveChunkerConfig 递归分块器配置
type RecursiveChunkerConfig struct {
	Size       int      // 每块的字符数上限
	Overlap    int      // 相邻块的重叠字符数
	Encoding   string   // token 统计用的编码方式
	Separators []string // 分隔符列表（按优先级）
}

// NewRecursiveChunker 创建递归分块器
func NewRecursiveChunker(cfg *RecursiveChunkerConfig) (*RecursiveChunker, error) {
	if cfg == nil {
		cfg = &RecursiveChunkerConfig{}
	}

	if cfg.Size == 0 {
		cfg.Size = 500
	}

	if cfg.Size < 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}

	if cfg.Overlap == 0 {
		cfg.Overlap = 50
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

	// 默认分隔符（按优先级从高到低）
	if len(cfg.Separators) == 0 {
		cfg.Separators = []string{
			"\n\n", // 段落
			"\n",   // 换行
			". ",   // 句子
			" ",    // 空格
			"",     // 字符
		}
	}

	encoding, err := tiktoken.GetEncoding(cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}

	return &RecursiveChunker{
		encoding:   encoding,
		size:       cfg.Size,
		overlap:    cfg.Overlap,
		separators: cfg.Separators,
	}, nil
}

// Chunk 将文本分块。空文本返回零个块。
func (c *RecursiveChunker) Chunk(ctx context.Context, text string) ([]*TextChunk, error) {
	if strings.TrimSpace(text) == "" {
		return []*TextChunk{}, nil
	}

	pieces := c.splitText(text, c.separators)

	chunks := make([]*TextChunk, 0, len(pieces))
	for _, piece := range pieces {
		chunks = append(chunks, &TextChunk{
			Index:      len(chunks),
			Content:    piece,
			TokenCount: len(c.encoding.Encode(piece, nil, nil)),
		})
	}

	return chunks, nil
}

// splitText 用当前文本中出现的最高优先级分隔符切分，超长片段
// 落到下一级分隔符继续递归。
func (c *RecursiveChunker) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var remaining []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			separator = s
			remaining = separators[i+1:]
			break
		}
	}

	var parts []string
	if separator == "" {
		for _, r := range text {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(text, separator)
	}

	var final []string
	var pending []string
	flush := func() {
		if len(pending) > 0 {
			final = append(final, c.mergeSplits(pending, separator)...)
			pending = nil
		}
	}

	for _, part := range parts {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) < c.size {
			pending = append(pending, part)
			continue
		}
		flush()
		if len(remaining) == 0 {
			final = append(final, part)
		} else {
			final = append(final, c.splitText(part, remaining)...)
		}
	}
	flush()

	return final
}

// mergeSplits 贪心合并切分片段：装满一块后从队首淘汰，直到剩余
// 长度落进重叠窗口，再继续装下一块。
func (c *RecursiveChunker) mergeSplits(splits []string, separator string) []string {
	sepLen := utf8.RuneCountInString(separator)

	var docs []string
	var window []string
	total := 0

	join := func() string {
		return strings.TrimSpace(strings.Join(window, separator))
	}

	for _, split := range splits {
		length := utf8.RuneCountInString(split)

		if len(window) > 0 && total+length+sepLen > c.size {
			if doc := join(); doc != "" {
				docs = append(docs, doc)
			}
			for len(window) > 0 && (total > c.overlap || total+length+sepLen > c.size) {
				total -= utf8.RuneCountInString(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}

		if len(window) > 0 {
			total += sepLen
		}
		window = append(window, split)
		total += length
	}

	if doc := join(); doc != "" {
		docs = append(docs, doc)
	}

	return docs
}

// ChunkSize 返回分块大小
func (c *RecursiveChunker) ChunkSize() int {
	return c.size
}

// ChunkOverlap 返回分块重叠大小
func (c *RecursiveChunker) ChunkOverlap() int {
	return c.overlap
}
