package reranker

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// noOutputMarker 模型判定文档与问题无关时的约定回复
const noOutputMarker = "NO_OUTPUT"

// extractPrompt 片段抽取 prompt。要求模型原样摘出相关内容，
// 不允许改写。
const extractPrompt = `Given the following question and context, extract any part of the context *AS IS* that is relevant to answer the question. If none of the context is relevant return %s.

Remember, *DO NOT* edit the extracted parts of the context.

> Question: %s
> Context:
>>>
%s
>>>
Extracted relevant parts:`

// CompletionFunc 单轮补全调用
type CompletionFunc func(ctx context.Context, prompt string) (string, error)

// LLMExtractor 用回答模型逐个抽取候选文档的相关片段。
// 判定无关的文档被丢弃，留下的文档内容替换为抽取结果。
type LLMExtractor struct {
	complete CompletionFunc
	logger   *logger.Logger
}

// NewLLMExtractor 创建 LLM 抽取重排序器
func NewLLMExtractor(complete CompletionFunc, lgr *logger.Logger) (*LLMExtractor, error) {
	if complete == nil {
		return nil, fmt.Errorf("completion func is required")
	}

	if lgr == nil {
		lgr = logger.L()
	}

	return &LLMExtractor{
		complete: complete,
		logger:   lgr,
	}, nil
}

// Rerank 逐文档抽取相关片段，丢弃无关文档，截取前 topN 个
func (r *LLMExtractor) Rerank(ctx context.Context, query string, docs []*types.RetrievedDocument, topN int) ([]*types.RetrievedDocument, error) {
	if len(docs) == 0 {
		return docs, nil
	}

	if topN <= 0 {
		topN = len(docs)
	}

	kept := make([]*types.RetrievedDocument, 0, topN)
	for _, doc := range docs {
		prompt := fmt.Sprintf(extractPrompt, noOutputMarker, query, doc.PageContent)

		extracted, err := r.complete(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("llm extraction failed: %w", err)
		}

		extracted = strings.TrimSpace(extracted)
		if extracted == "" || strings.Contains(extracted, noOutputMarker) {
			continue
		}

		filtered := *doc
		filtered.PageContent = extracted
		kept = append(kept, &filtered)

		if len(kept) == topN {
			break
		}
	}

	r.logger.Info("reranked search results",
		zap.String("provider", "llm"),
		zap.Int("original_count", len(docs)),
		zap.Int("kept_count", len(kept)))

	return kept, nil
}
