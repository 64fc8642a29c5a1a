package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa-project/docqa-backend/internal/knowledge/chunker"
	"github.com/docqa-project/docqa-backend/internal/knowledge/embedding"
	"github.com/docqa-project/docqa-backend/internal/knowledge/storage"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/workerpool"
)

func textChunks(contents ...string) []*chunker.TextChunk {
	chunks := make([]*chunker.TextChunk, len(contents))
	for i, c := range contents {
		chunks[i] = &chunker.TextChunk{Index: i, Content: c}
	}
	return chunks
}

func TestSpanMapperRunningPosition(t *testing.T) {
	spans := []types.SourceSpan{
		{CharStart: 0, CharEnd: 10, PageNumber: 1},
		{CharStart: 10, CharEnd: 25, PageNumber: 2},
	}
	chunks := textChunks("0123456789", "abcdefghij")

	mapper := NewSpanMapper(nil)
	metadatas := mapper.Map("/tmp/doc.pdf", types.FileTypePdf, "model-x", chunks, spans)

	require.Len(t, metadatas, 2)
	assert.Equal(t, "doc.pdf", metadatas[0].Source)
	assert.Equal(t, "/tmp/doc.pdf", metadatas[0].FilePath)
	assert.Equal(t, "model-x", metadatas[0].EmbeddingModel)
	assert.Equal(t, 0, metadatas[0].ChunkIndex)
	assert.Equal(t, 1, metadatas[0].PageNumber)

	// 第二块落在 [10,20)，命中第二个 span
	assert.Equal(t, 1, metadatas[1].ChunkIndex)
	assert.Equal(t, 2, metadatas[1].PageNumber)
}

func TestSpanMapperFirstMatchOnOverlap(t *testing.T) {
	// 分块横跨两个 span，文档顺序在前的 span 胜出
	spans := []types.SourceSpan{
		{CharStart: 0, CharEnd: 5, PageNumber: 1},
		{CharStart: 5, CharEnd: 20, PageNumber: 2},
	}
	chunks := textChunks("0123456789")

	metadatas := NewSpanMapper(nil).Map("doc.pdf", types.FileTypePdf, "m", chunks, spans)
	require.Len(t, metadatas, 1)
	assert.Equal(t, 1, metadatas[0].PageNumber)
}

func TestSpanMapperURLSource(t *testing.T) {
	spans := []types.SourceSpan{{CharStart: 0, CharEnd: 100, Title: "Page Title", URL: "https://example.com/a"}}
	chunks := textChunks("some web content here")

	metadatas := NewSpanMapper(nil).Map("https://example.com/a", types.FileTypeURL, "m", chunks, spans)
	require.Len(t, metadatas, 1)
	assert.Equal(t, "https://example.com/a", metadatas[0].Source)
	assert.Equal(t, "Page Title", metadatas[0].Title)
	assert.Equal(t, "https://example.com/a", metadatas[0].URL)
}

func TestSpanMapperNoMatch(t *testing.T) {
	chunks := textChunks("text beyond any span")
	metadatas := NewSpanMapper(nil).Map("doc.txt", types.FileTypeTxt, "m", chunks, nil)
	require.Len(t, metadatas, 1)
	assert.Zero(t, metadatas[0].PageNumber)
	assert.Zero(t, metadatas[0].ParagraphNumber)
}

// captureStore 记录 Upsert 参数
type captureStore struct {
	ids       []string
	metadatas []types.ChunkMetadata
	contents  []string
	upsertErr error
}

func (c *captureStore) Upsert(ctx context.Context, ids []string, embeddings [][]float32, metadatas []types.ChunkMetadata, contents []string) error {
	if c.upsertErr != nil {
		return c.upsertErr
	}
	c.ids = ids
	c.metadatas = metadatas
	c.contents = contents
	return nil
}

func (c *captureStore) Query(ctx context.Context, embedding []float32, k int) ([]*types.RetrievedDocument, error) {
	return nil, nil
}
func (c *captureStore) DeleteByIDs(ctx context.Context, ids []string) error   { return nil }
func (c *captureStore) ListCollections(ctx context.Context) ([]string, error) { return nil, nil }
func (c *captureStore) DeleteAllCollections(ctx context.Context) (int, error) { return 0, nil }
func (c *captureStore) Count(ctx context.Context) (int, error)                { return len(c.ids), nil }
func (c *captureStore) Reopen() error                                         { return nil }

type unitEmbedder struct{ model string }

func (u *unitEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}

func (u *unitEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func (u *unitEmbedder) Dimension() int { return 1 }
func (u *unitEmbedder) Model() string  { return u.model }

func newTestIngestor(t *testing.T, store storage.VectorStore, registry *storage.Registry) *Ingestor {
	t.Helper()

	c, err := chunker.NewRecursiveChunker(nil)
	require.NoError(t, err)

	ing, err := New(&Config{
		Chunker: c,
		EmbedderFor: func(model string) (embedding.Embedder, error) {
			if model == "" {
				model = embedding.DefaultModel
			}
			return &unitEmbedder{model: model}, nil
		},
		Store:    store,
		Registry: registry,
	})
	require.NoError(t, err)
	return ing
}

func TestIngestTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha beta gamma delta"), 0o644))

	registry, err := storage.OpenRegistry(filepath.Join(dir, "vector_db"), nil)
	require.NoError(t, err)
	defer registry.Close()

	store := &captureStore{}
	ing := newTestIngestor(t, store, registry)

	count, err := ing.Ingest(context.Background(), path, "text-embedding-3-small")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, store.contents, 1)
	assert.Equal(t, "alpha beta gamma delta", store.contents[0])
	assert.Equal(t, "note.txt", store.metadatas[0].Source)
	assert.Equal(t, types.FileTypeTxt, store.metadatas[0].FileType)

	ids, err := registry.AllChunkIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.ids, ids)

	docs, err := registry.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "note.txt", docs[0].Source)
	assert.Equal(t, 1, docs[0].ChunkCount)
}

func TestIngestUnsupportedInputIsNoop(t *testing.T) {
	store := &captureStore{}
	ing := newTestIngestor(t, store, nil)

	count, err := ing.Ingest(context.Background(), "diagram.xyz", "")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, store.ids)
}

func TestIngestEmptyFileIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("   \n "), 0o644))

	ing := newTestIngestor(t, &captureStore{}, nil)

	count, err := ing.Ingest(context.Background(), path, "")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngestStoreErrorPropagates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("some content"), 0o644))

	store := &captureStore{upsertErr: fmt.Errorf("disk full")}
	ing := newTestIngestor(t, store, nil)

	_, err := ing.Ingest(context.Background(), path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func newTestPool(t *testing.T) *workerpool.Pool {
	t.Helper()
	pool, err := workerpool.New(2)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func TestBatchRunnerMixedResults(t *testing.T) {
	ingestFn := func(ctx context.Context, input, model string) (int, error) {
		switch input {
		case "good.txt":
			return 4, nil
		case "bad.txt":
			return 0, fmt.Errorf("broken file")
		default:
			return 0, nil
		}
	}

	runner, err := NewBatchRunner(ingestFn, newTestPool(t), time.Second, nil)
	require.NoError(t, err)

	results := runner.Run(context.Background(), []string{"good.txt", "bad.txt"}, "m")
	require.Len(t, results, 2)

	assert.Equal(t, "success", results[0].Status)
	assert.Equal(t, 4, results[0].ChunkCount)

	assert.Equal(t, "error", results[1].Status)
	assert.Contains(t, results[1].Message, "broken file")
}

func TestBatchRunnerTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	ingestFn := func(ctx context.Context, input, model string) (int, error) {
		<-release
		return 0, ctx.Err()
	}

	runner, err := NewBatchRunner(ingestFn, newTestPool(t), 50*time.Millisecond, nil)
	require.NoError(t, err)

	results := runner.Run(context.Background(), []string{"slow.txt", "fast.txt"}, "m")
	require.Len(t, results, 2)

	assert.Equal(t, "timeout", results[0].Status)
	assert.Contains(t, results[0].Message, "Processing timeout after")

	// 批处理在超时后继续
	assert.Equal(t, "timeout", results[1].Status)
}
