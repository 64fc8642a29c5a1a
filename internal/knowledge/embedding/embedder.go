package embedding

import (
	"context"
)

// DefaultModel 缺省嵌入模型。配置的模型不可用时回退到它。
const DefaultModel = "text-embedding-3-small"

// Embedder 文本向量化接口
type Embedder interface {
	// Embed 对单个文本生成向量
	Embed(ctx context.Context, text string) ([]float32, error)

	// BatchEmbed 批量生成向量
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension 返回向量维度
	Dimension() int

	// Model 返回模型名称
	Model() string
}
