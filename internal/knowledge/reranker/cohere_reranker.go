package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// CohereReranker Cohere Rerank API 实现
type CohereReranker struct {
	apiKey  string
	baseURL string
	model   string
	logger  *logger.Logger
	client  *http.Client
}

// CohereRerankerConfig Cohere Reranker 配置
type CohereRerankerConfig struct {
	APIKey  string
	BaseURL string // 默认 https://api.cohere.com/v1
	Model   string // 默认 rerank-english-v3.0
}

// NewCohereReranker 创建 Cohere Reranker
func NewCohereReranker(cfg *CohereRerankerConfig, lgr *logger.Logger) (*CohereReranker, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cohere.com/v1"
	}

	if cfg.Model == "" {
		cfg.Model = "rerank-english-v3.0"
	}

	if lgr == nil {
		lgr = logger.L()
	}

	return &CohereReranker{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		logger:  lgr,
		client:  &http.Client{},
	}, nil
}

// cohereRerankRequest Cohere API 请求体
type cohereRerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

// cohereRerankResponse Cohere API 响应体
type cohereRerankResponse struct {
	Results []cohereRerankResult `json:"results"`
}

// cohereRerankResult Cohere 重排序结果
type cohereRerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float32 `json:"relevance_score"`
}

// Rerank 对候选文档重排序并截取前 topN 个
func (r *CohereReranker) Rerank(ctx context.Context, query string, docs []*types.RetrievedDocument, topN int) ([]*types.RetrievedDocument, error) {
	if len(docs) == 0 {
		return docs, nil
	}

	if topN <= 0 || topN > len(docs) {
		topN = len(docs)
	}

	documents := make([]string, len(docs))
	for i, doc := range docs {
		documents[i] = doc.PageContent
	}

	reqBody := cohereRerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	}

	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/rerank", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.apiKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank API returned status %d: %s", resp.StatusCode, string(body))
	}

	var respBody cohereRerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	sort.Slice(respBody.Results, func(i, j int) bool {
		return respBody.Results[i].RelevanceScore > respBody.Results[j].RelevanceScore
	})

	reranked := make([]*types.RetrievedDocument, 0, topN)
	for _, result := range respBody.Results {
		if result.Index < 0 || result.Index >= len(docs) {
			continue
		}
		doc := *docs[result.Index]
		doc.Score = result.RelevanceScore
		reranked = append(reranked, &doc)
		if len(reranked) == topN {
			break
		}
	}

	r.logger.Info("reranked search results",
		zap.String("provider", "cohere"),
		zap.String("model", r.model),
		zap.Int("original_count", len(docs)),
		zap.Int("reranked_count", len(reranked)))

	return reranked, nil
}
