package retriever

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

type fakeEmbedder struct{}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }
func (f *fakeEmbedder) Model() string  { return "fake" }

// fakeStore 记录每次请求的 k，按序返回预置文档
type fakeStore struct {
	requestedK []int
	docs       []*types.RetrievedDocument
	queryErr   error
}

func (f *fakeStore) Upsert(ctx context.Context, ids []string, embeddings [][]float32, metadatas []types.ChunkMetadata, contents []string) error {
	return nil
}

func (f *fakeStore) Query(ctx context.Context, embedding []float32, k int) ([]*types.RetrievedDocument, error) {
	f.requestedK = append(f.requestedK, k)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if k > len(f.docs) {
		k = len(f.docs)
	}
	return f.docs[:k], nil
}

func (f *fakeStore) DeleteByIDs(ctx context.Context, ids []string) error       { return nil }
func (f *fakeStore) ListCollections(ctx context.Context) ([]string, error)     { return nil, nil }
func (f *fakeStore) DeleteAllCollections(ctx context.Context) (int, error)     { return 0, nil }
func (f *fakeStore) Count(ctx context.Context) (int, error)                    { return len(f.docs), nil }
func (f *fakeStore) Reopen() error                                             { return nil }

func storeWithDocs(n int) *fakeStore {
	docs := make([]*types.RetrievedDocument, n)
	for i := range docs {
		docs[i] = &types.RetrievedDocument{
			PageContent: fmt.Sprintf("chunk %d", i),
			Score:       float32(n - i),
		}
	}
	return &fakeStore{docs: docs}
}

func TestRetrievePlainTopK(t *testing.T) {
	store := storeWithDocs(6)
	r, err := New(&Config{Embedder: &fakeEmbedder{}, Store: store})
	require.NoError(t, err)

	docs, err := r.Retrieve(context.Background(), "query", 3, types.RerankNone)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	assert.Equal(t, []int{3}, store.requestedK)
}

func TestRetrieveDefaultK(t *testing.T) {
	store := storeWithDocs(6)
	r, err := New(&Config{Embedder: &fakeEmbedder{}, Store: store})
	require.NoError(t, err)

	docs, err := r.Retrieve(context.Background(), "query", 0, types.RerankNone)
	require.NoError(t, err)
	assert.Len(t, docs, DefaultTopK)
}

func TestRetrieveRerankHeadroom(t *testing.T) {
	store := storeWithDocs(8)
	complete := func(ctx context.Context, prompt string) (string, error) {
		return "relevant excerpt", nil
	}
	r, err := New(&Config{Embedder: &fakeEmbedder{}, Store: store, Complete: complete})
	require.NoError(t, err)

	docs, err := r.Retrieve(context.Background(), "query", 3, types.RerankLLM)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	// 重排序时应取 2k 个候选
	assert.Equal(t, []int{6}, store.requestedK)
	assert.Equal(t, "relevant excerpt", docs[0].PageContent)
}

func TestRetrieveCohereFallsBackWithoutKey(t *testing.T) {
	store := storeWithDocs(6)
	r, err := New(&Config{Embedder: &fakeEmbedder{}, Store: store})
	require.NoError(t, err)

	// 没有 API key，cohere 策略构造失败，应静默降级为纯 top-k
	docs, err := r.Retrieve(context.Background(), "query", 3, types.RerankCohere)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	assert.Equal(t, []int{3}, store.requestedK)
	assert.Equal(t, "chunk 0", docs[0].PageContent)
}

func TestRetrieveLLMRerankFailureFallsBack(t *testing.T) {
	store := storeWithDocs(6)
	complete := func(ctx context.Context, prompt string) (string, error) {
		return "", fmt.Errorf("model unavailable")
	}
	r, err := New(&Config{Embedder: &fakeEmbedder{}, Store: store, Complete: complete})
	require.NoError(t, err)

	docs, err := r.Retrieve(context.Background(), "query", 3, types.RerankLLM)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	// 先取 2k 尝试重排序，失败后回退取 k
	assert.Equal(t, []int{6, 3}, store.requestedK)
}

func TestRetrieveStoreError(t *testing.T) {
	store := &fakeStore{queryErr: fmt.Errorf("db closed")}
	r, err := New(&Config{Embedder: &fakeEmbedder{}, Store: store})
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "query", 3, types.RerankNone)
	assert.Error(t, err)
}
