package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/knowledge/language"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// languageSampleChars 判定文档语言时每个文档取样的字符数
const languageSampleChars = 200

// languageSampleDocs 判定文档语言时取样的文档数
const languageSampleDocs = 3

// Retriever 检索依赖
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, kind types.RerankKind) ([]*types.RetrievedDocument, error)
}

// CompleteFunc 按模型发起单轮补全
type CompleteFunc func(ctx context.Context, model, prompt string) (string, error)

// Answerer 问答编排器。检索、语言判定、上下文预算与引用汇总都
// 在这里串联。
type Answerer struct {
	retriever Retriever
	budgeter  *Budgeter
	complete  CompleteFunc
	logger    *logger.Logger
}

// AnswererConfig 问答编排器配置
type AnswererConfig struct {
	Retriever Retriever
	Budgeter  *Budgeter
	Complete  CompleteFunc
	Logger    *logger.Logger
}

// NewAnswerer 创建问答编排器
func NewAnswerer(cfg *AnswererConfig) (*Answerer, error) {
	if cfg == nil || cfg.Retriever == nil || cfg.Complete == nil {
		return nil, fmt.Errorf("retriever and complete func are required")
	}

	log := cfg.Logger
	if log == nil {
		log = logger.L()
	}

	budgeter := cfg.Budgeter
	if budgeter == nil {
		budgeter = NewBudgeter(DefaultMaxContextTokens, nil, log)
	}

	return &Answerer{
		retriever: cfg.Retriever,
		budgeter:  budgeter,
		complete:  cfg.Complete,
		logger:    log,
	}, nil
}

// Answer 回答一个问题并附出处引用
func (a *Answerer) Answer(ctx context.Context, req *types.AnswerRequest) (*types.AnswerResult, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	kind := req.RerankerKind
	if kind == "" {
		kind = types.RerankNone
	}

	docs, err := a.retriever.Retrieve(ctx, req.Query, req.ChunkCount, kind)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	lang := a.detectLanguage(req.Query, docs)
	sources := collectCitations(docs)

	a.logger.Info("answering query",
		zap.String("language", string(lang)),
		zap.Int("chunks", len(docs)),
		zap.String("reranker", string(kind)))

	contextText := joinDocs(docs)

	// 压缩分支：只在不做重排序时启用，避免重复加工；失败落回
	// 标准路径
	if req.UseCompression && kind == types.RerankNone {
		fitted, _ := a.budgeter.Fit(ctx, contextText)

		answer, err := a.complete(ctx, req.Model, BuildPrompt(lang, fitted, req.Query))
		if err == nil {
			return &types.AnswerResult{
				Answer:           answer,
				Sources:          sources,
				ChunksUsed:       len(docs),
				CompressionUsed:  true,
				LanguageDetected: string(lang),
			}, nil
		}

		a.logger.Warn("compression path failed, falling back to standard retrieval",
			zap.Error(err))
	}

	answer, err := a.complete(ctx, req.Model, BuildPrompt(lang, contextText, req.Query))
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	return &types.AnswerResult{
		Answer:           answer,
		Sources:          sources,
		ChunksUsed:       len(docs),
		CompressionUsed:  false,
		LanguageDetected: string(lang),
	}, nil
}

// detectLanguage 先看问题语言，再取样前几个文档的开头内容，
// 文档是越南语时优先越南语作答。
func (a *Answerer) detectLanguage(query string, docs []*types.RetrievedDocument) language.Language {
	detected := language.Detect(query)

	if len(docs) > 0 {
		samples := make([]string, 0, languageSampleDocs)
		for _, doc := range docs {
			if len(samples) == languageSampleDocs {
				break
			}
			// 按 rune 取样，避免把多字节的越南语字符切出半截
			content := doc.PageContent
			if runes := []rune(content); len(runes) > languageSampleChars {
				content = string(runes[:languageSampleChars])
			}
			samples = append(samples, content)
		}

		if language.Detect(strings.Join(samples, " ")) == language.Vietnamese {
			detected = language.Vietnamese
		}
	}

	return detected
}

// collectCitations 汇总出处引用，按 (文件名, 页码) 去重并保持
// 首次出现顺序
func collectCitations(docs []*types.RetrievedDocument) []types.SourceCitation {
	sources := make([]types.SourceCitation, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))

	for _, doc := range docs {
		m := doc.Metadata

		fileName := m.Source
		if fileName == "" {
			fileName = "Unknown"
		}

		key := fmt.Sprintf("%s_%d", fileName, m.PageNumber)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		sources = append(sources, types.SourceCitation{
			FileName:        fileName,
			FilePath:        m.FilePath,
			PageNumber:      m.PageNumber,
			ParagraphNumber: m.ParagraphNumber,
			EstimatedPage:   m.EstimatedPage,
			Title:           m.Title,
			URL:             m.URL,
			FileType:        m.FileType,
		})
	}

	return sources
}

// joinDocs 拼接检索内容为上下文
func joinDocs(docs []*types.RetrievedDocument) string {
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = doc.PageContent
	}
	return strings.Join(parts, "\n\n")
}
