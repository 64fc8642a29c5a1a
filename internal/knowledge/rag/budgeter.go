package rag

import (
	"context"

	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// DefaultMaxContextTokens 上下文缺省预算（token）
const DefaultMaxContextTokens = 3000

// truncatedSuffix 硬截断时的结尾标记
const truncatedSuffix = "...[truncated]"

// SummarizeFunc 压缩摘要调用
type SummarizeFunc func(ctx context.Context, prompt string) (string, error)

// Budgeter 上下文预算器。token 数按 len/4 估算；超预算时先尝试
// 用模型摘要压缩，模型不可用则硬截断。Fit 从不返回错误。
type Budgeter struct {
	maxTokens int
	summarize SummarizeFunc
	logger    *logger.Logger
}

// NewBudgeter 创建预算器。summarize 为 nil 时超预算只做硬截断。
func NewBudgeter(maxTokens int, summarize SummarizeFunc, lgr *logger.Logger) *Budgeter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxContextTokens
	}

	if lgr == nil {
		lgr = logger.L()
	}

	return &Budgeter{
		maxTokens: maxTokens,
		summarize: summarize,
		logger:    lgr,
	}
}

// Fit 把上下文压进预算。返回值第二项表示是否做了压缩或截断。
func (b *Budgeter) Fit(ctx context.Context, text string) (string, bool) {
	estimatedTokens := len(text) / 4
	if estimatedTokens <= b.maxTokens {
		return text, false
	}

	b.logger.Info("context over budget, compressing",
		zap.Int("estimated_tokens", estimatedTokens),
		zap.Int("max_tokens", b.maxTokens))

	// 压缩后的目标长度按每 token 约 3 字符估算
	targetLength := b.maxTokens * 3

	if b.summarize != nil && len(text) > targetLength {
		input := text
		if len(input) > targetLength*2 {
			input = input[:targetLength*2]
		}

		summary, err := b.summarize(ctx, BuildSummaryPrompt(input))
		if err == nil {
			return summary, true
		}

		b.logger.Warn("context compression failed, truncating", zap.Error(err))
	}

	if len(text) > targetLength {
		return text[:targetLength] + truncatedSuffix, true
	}

	return text, false
}

// MaxTokens 返回预算上限
func (b *Budgeter) MaxTokens() int {
	return b.maxTokens
}
