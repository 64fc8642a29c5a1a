package rag

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa-project/docqa-backend/internal/knowledge/language"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

func TestBudgeterWithinBudget(t *testing.T) {
	b := NewBudgeter(100, nil, nil)

	text := strings.Repeat("a", 100)
	out, compressed := b.Fit(context.Background(), text)
	assert.Equal(t, text, out)
	assert.False(t, compressed)
}

func TestBudgeterSummarizes(t *testing.T) {
	summarize := func(ctx context.Context, prompt string) (string, error) {
		assert.Contains(t, prompt, "Please summarize")
		return "short summary", nil
	}
	b := NewBudgeter(100, summarize, nil)

	text := strings.Repeat("b", 1000)
	out, compressed := b.Fit(context.Background(), text)
	assert.Equal(t, "short summary", out)
	assert.True(t, compressed)
}

func TestBudgeterSendsSummaryInstructionOnce(t *testing.T) {
	// summarize 回调拿到的已经是完整 prompt，按补全接口的写法
	// 原样转发，不再套一层模板
	var llmReceived string
	summarize := func(ctx context.Context, prompt string) (string, error) {
		llmReceived = prompt
		return "short summary", nil
	}
	b := NewBudgeter(100, summarize, nil)

	b.Fit(context.Background(), strings.Repeat("e", 1000))

	assert.Equal(t, 1, strings.Count(llmReceived, "Please summarize the following text"))
	assert.Equal(t, 1, strings.Count(llmReceived, "Summary:"))
	assert.True(t, strings.HasSuffix(llmReceived, "Summary:"))
}

func TestBudgeterTruncatesOnSummaryError(t *testing.T) {
	summarize := func(ctx context.Context, prompt string) (string, error) {
		return "", fmt.Errorf("llm down")
	}
	b := NewBudgeter(100, summarize, nil)

	text := strings.Repeat("c", 1000)
	out, compressed := b.Fit(context.Background(), text)
	assert.True(t, compressed)
	assert.True(t, strings.HasSuffix(out, truncatedSuffix))
	assert.Equal(t, 300+len(truncatedSuffix), len(out))
}

func TestBudgeterTruncatesWithoutSummarizer(t *testing.T) {
	b := NewBudgeter(100, nil, nil)

	text := strings.Repeat("d", 1000)
	out, compressed := b.Fit(context.Background(), text)
	assert.True(t, compressed)
	assert.True(t, strings.HasSuffix(out, truncatedSuffix))
}

func TestBuildPromptLanguages(t *testing.T) {
	en := BuildPrompt(language.English, "ctx body", "what is it?")
	assert.Contains(t, en, "Respond in English")
	assert.Contains(t, en, "ctx body")
	assert.Contains(t, en, "what is it?")

	vi := BuildPrompt(language.Vietnamese, "ngữ cảnh", "câu hỏi?")
	assert.Contains(t, vi, "Trả lời bằng tiếng Việt")
	assert.Contains(t, vi, "ngữ cảnh")
}

type fakeRetriever struct {
	docs []*types.RetrievedDocument
	err  error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, k int, kind types.RerankKind) ([]*types.RetrievedDocument, error) {
	return f.docs, f.err
}

func englishDocs() []*types.RetrievedDocument {
	return []*types.RetrievedDocument{
		{
			PageContent: "The system processes uploaded documents into chunks.",
			Metadata:    types.ChunkMetadata{Source: "manual.pdf", FileType: types.FileTypePdf, PageNumber: 2},
		},
		{
			PageContent: "Chunks are embedded and stored in the vector database.",
			Metadata:    types.ChunkMetadata{Source: "manual.pdf", FileType: types.FileTypePdf, PageNumber: 2, ParagraphNumber: 4},
		},
		{
			PageContent: "Queries retrieve the most similar chunks.",
			Metadata:    types.ChunkMetadata{Source: "guide.txt", FileType: types.FileTypeTxt},
		},
	}
}

func TestAnswerPlainPath(t *testing.T) {
	var gotPrompt, gotModel string
	complete := func(ctx context.Context, model, prompt string) (string, error) {
		gotModel = model
		gotPrompt = prompt
		return "the answer", nil
	}

	a, err := NewAnswerer(&AnswererConfig{
		Retriever: &fakeRetriever{docs: englishDocs()},
		Complete:  complete,
	})
	require.NoError(t, err)

	result, err := a.Answer(context.Background(), &types.AnswerRequest{
		Query: "How are documents processed?",
		Model: "gpt-4o",
	})
	require.NoError(t, err)

	assert.Equal(t, "the answer", result.Answer)
	assert.Equal(t, 3, result.ChunksUsed)
	assert.False(t, result.CompressionUsed)
	assert.Equal(t, "english", result.LanguageDetected)
	assert.Equal(t, "gpt-4o", gotModel)
	assert.Contains(t, gotPrompt, "processes uploaded documents")

	// (文件名, 页码) 去重：manual.pdf 第 2 页的两个分块合并
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "manual.pdf", result.Sources[0].FileName)
	assert.Equal(t, 2, result.Sources[0].PageNumber)
	assert.Equal(t, "guide.txt", result.Sources[1].FileName)
}

func TestAnswerCompressionPath(t *testing.T) {
	complete := func(ctx context.Context, model, prompt string) (string, error) {
		return "compressed answer", nil
	}

	a, err := NewAnswerer(&AnswererConfig{
		Retriever: &fakeRetriever{docs: englishDocs()},
		Complete:  complete,
	})
	require.NoError(t, err)

	result, err := a.Answer(context.Background(), &types.AnswerRequest{
		Query:          "How are documents processed?",
		UseCompression: true,
	})
	require.NoError(t, err)
	assert.True(t, result.CompressionUsed)
	assert.Equal(t, "compressed answer", result.Answer)
}

func TestAnswerCompressionSkippedWhenReranking(t *testing.T) {
	complete := func(ctx context.Context, model, prompt string) (string, error) {
		return "answer", nil
	}

	a, err := NewAnswerer(&AnswererConfig{
		Retriever: &fakeRetriever{docs: englishDocs()},
		Complete:  complete,
	})
	require.NoError(t, err)

	result, err := a.Answer(context.Background(), &types.AnswerRequest{
		Query:          "How are documents processed?",
		UseCompression: true,
		RerankerKind:   types.RerankCohere,
	})
	require.NoError(t, err)
	assert.False(t, result.CompressionUsed)
}

func TestAnswerDocumentLanguageOverride(t *testing.T) {
	docs := []*types.RetrievedDocument{
		{
			PageContent: "Hệ thống xử lý tài liệu được tải lên thành các phần nhỏ để tìm kiếm.",
			Metadata:    types.ChunkMetadata{Source: "tailieu.pdf", FileType: types.FileTypePdf, PageNumber: 1},
		},
	}

	complete := func(ctx context.Context, model, prompt string) (string, error) {
		assert.Contains(t, prompt, "Trả lời bằng tiếng Việt")
		return "câu trả lời", nil
	}

	a, err := NewAnswerer(&AnswererConfig{
		Retriever: &fakeRetriever{docs: docs},
		Complete:  complete,
	})
	require.NoError(t, err)

	// 问题是英语，但文档是越南语，应按越南语作答
	result, err := a.Answer(context.Background(), &types.AnswerRequest{
		Query: "What does the system do?",
	})
	require.NoError(t, err)
	assert.Equal(t, "vietnamese", result.LanguageDetected)
}

func TestAnswerLanguageSampleKeepsMultibyteRunes(t *testing.T) {
	// 文档前 200 个字符里有 20 个多字节越南语字符，全部落在
	// 180 字节之后。取样必须按 rune 数，按字节截断会把这批
	// 字符大半切掉，带声调字符占比就落到阈值以下
	content := strings.Repeat("a", 180) + strings.Repeat("ế", 20)
	docs := []*types.RetrievedDocument{
		{
			PageContent: content,
			Metadata:    types.ChunkMetadata{Source: "tailieu.txt", FileType: types.FileTypeTxt},
		},
	}

	a, err := NewAnswerer(&AnswererConfig{
		Retriever: &fakeRetriever{docs: docs},
		Complete: func(ctx context.Context, model, prompt string) (string, error) {
			return "câu trả lời", nil
		},
	})
	require.NoError(t, err)

	result, err := a.Answer(context.Background(), &types.AnswerRequest{
		Query: "What does the system do?",
	})
	require.NoError(t, err)
	assert.Equal(t, "vietnamese", result.LanguageDetected)
}

func TestAnswerRetrievalError(t *testing.T) {
	a, err := NewAnswerer(&AnswererConfig{
		Retriever: &fakeRetriever{err: fmt.Errorf("store down")},
		Complete: func(ctx context.Context, model, prompt string) (string, error) {
			return "", nil
		},
	})
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), &types.AnswerRequest{Query: "q"})
	assert.Error(t, err)
}

func TestAnswerEmptyQuery(t *testing.T) {
	a, err := NewAnswerer(&AnswererConfig{
		Retriever: &fakeRetriever{},
		Complete: func(ctx context.Context, model, prompt string) (string, error) {
			return "", nil
		},
	})
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), &types.AnswerRequest{Query: "   "})
	assert.Error(t, err)
}

func TestAnswerCompressionFallsBackOnError(t *testing.T) {
	calls := 0
	complete := func(ctx context.Context, model, prompt string) (string, error) {
		calls++
		if calls == 1 {
			return "", fmt.Errorf("first call fails")
		}
		return "fallback answer", nil
	}

	a, err := NewAnswerer(&AnswererConfig{
		Retriever: &fakeRetriever{docs: englishDocs()},
		Complete:  complete,
	})
	require.NoError(t, err)

	result, err := a.Answer(context.Background(), &types.AnswerRequest{
		Query:          "How are documents processed?",
		UseCompression: true,
	})
	require.NoError(t, err)
	assert.False(t, result.CompressionUsed)
	assert.Equal(t, "fallback answer", result.Answer)
	assert.Equal(t, 2, calls)
}
