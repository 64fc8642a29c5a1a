package chunker

import (
	"fmt"
)

// Factory Chunker 工厂
type Factory struct{}

// NewFactory 创建 Chunker 工厂
func NewFactory() *Factory {
	return &Factory{}
}

// CreateChunkerConfig 创建 Chunker 配置
type CreateChunkerConfig struct {
	Strategy   ChunkStrategy
	Size       int
	Overlap    int
	Encoding   string
	Separators []string
}

// CreateChunker 创建 Chunker。策略缺省为递归字符分块。
func (f *Factory) CreateChunker(cfg *CreateChunkerConfig) (Chunker, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	strategy := cfg.Strategy
	if strategy == "" {
		strategy = StrategyRecursive
	}

	switch strategy {
	case StrategyRecursive:
		return NewRecursiveChunker(&RecursiveChunkerConfig{
			Size:       cfg.Size,
			Overlap:    cfg.Overlap,
			Encoding:   cfg.Encoding,
			Separators: cfg.Separators,
		})

	case StrategyToken:
		return NewTokenChunker(&TokenChunkerConfig{
			Size:     cfg.Size,
			Overlap:  cfg.Overlap,
			Encoding: cfg.Encoding,
		})

	default:
		return nil, fmt.Errorf("unsupported chunk strategy: %s", strategy)
	}
}
