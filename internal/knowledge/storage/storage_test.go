package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

func TestRegistryRecordAndQuery(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, RegistryExists(dir))

	reg, err := OpenRegistry(dir, nil)
	require.NoError(t, err)
	defer reg.Close()

	assert.True(t, RegistryExists(dir))

	ctx := context.Background()
	doc := &types.Document{
		ID:             "doc-1",
		Source:         "report.pdf",
		FilePath:       "/uploads/report.pdf",
		FileType:       types.FileTypePdf,
		EmbeddingModel: "text-embedding-3-small",
		ChunkCount:     2,
	}
	require.NoError(t, reg.RecordDocument(ctx, doc, []string{"chunk-a", "chunk-b"}))

	ids, err := reg.AllChunkIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk-a", "chunk-b"}, ids)

	docs, err := reg.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "report.pdf", docs[0].Source)
	assert.Equal(t, types.FileTypePdf, docs[0].FileType)
	assert.Equal(t, 2, docs[0].ChunkCount)
	assert.False(t, docs[0].CreatedAt.IsZero())
}

func TestRegistryTruncate(t *testing.T) {
	reg, err := OpenRegistry(t.TempDir(), nil)
	require.NoError(t, err)
	defer reg.Close()

	ctx := context.Background()
	doc := &types.Document{ID: "d", Source: "s.txt", FileType: types.FileTypeTxt, EmbeddingModel: "m", ChunkCount: 1}
	require.NoError(t, reg.RecordDocument(ctx, doc, []string{"c1"}))

	require.NoError(t, reg.Truncate(ctx))

	ids, err := reg.AllChunkIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	docs, err := reg.Documents(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRegistryInspect(t *testing.T) {
	reg, err := OpenRegistry(t.TempDir(), nil)
	require.NoError(t, err)
	defer reg.Close()

	ctx := context.Background()
	doc := &types.Document{ID: "d", Source: "s.txt", FileType: types.FileTypeTxt, EmbeddingModel: "m", ChunkCount: 1}
	require.NoError(t, reg.RecordDocument(ctx, doc, []string{"c1"}))

	result, err := reg.Inspect(ctx)
	require.NoError(t, err)

	docsTable, ok := result.Tables["documents"]
	require.True(t, ok)
	assert.Equal(t, 1, docsTable.RowCount)
	assert.Contains(t, docsTable.Columns, "source")
	assert.Contains(t, docsTable.Columns, "embedding_model")

	chunksTable, ok := result.Tables["chunks"]
	require.True(t, ok)
	assert.Equal(t, 1, chunksTable.RowCount)
	assert.Contains(t, chunksTable.Columns, "document_id")
}

func makeStore(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(t.TempDir(), nil)
	require.NoError(t, err)
	return store
}

func TestChromemStoreUpsertAndQuery(t *testing.T) {
	store := makeStore(t)
	ctx := context.Background()

	metadatas := []types.ChunkMetadata{
		{Source: "a.pdf", FileType: types.FileTypePdf, EmbeddingModel: "m", ChunkIndex: 0, PageNumber: 3},
		{Source: "b.txt", FileType: types.FileTypeTxt, EmbeddingModel: "m", ChunkIndex: 1},
	}
	err := store.Upsert(ctx,
		[]string{"id-1", "id-2"},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
		metadatas,
		[]string{"first chunk text", "second chunk text"})
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	docs, err := store.Query(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "first chunk text", docs[0].PageContent)
	assert.Equal(t, "a.pdf", docs[0].Metadata.Source)
	assert.Equal(t, 3, docs[0].Metadata.PageNumber)
	assert.Equal(t, types.FileTypePdf, docs[0].Metadata.FileType)
}

func TestChromemStoreQueryEmpty(t *testing.T) {
	store := makeStore(t)

	docs, err := store.Query(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestChromemStoreQueryClampsK(t *testing.T) {
	store := makeStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx,
		[]string{"only"},
		[][]float32{{0, 0, 1}},
		[]types.ChunkMetadata{{Source: "s", FileType: types.FileTypeTxt, EmbeddingModel: "m"}},
		[]string{"content"})
	require.NoError(t, err)

	docs, err := store.Query(ctx, []float32{0, 0, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestChromemStoreDeleteByIDs(t *testing.T) {
	store := makeStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx,
		[]string{"id-1", "id-2"},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
		[]types.ChunkMetadata{
			{Source: "s", FileType: types.FileTypeTxt, EmbeddingModel: "m"},
			{Source: "s", FileType: types.FileTypeTxt, EmbeddingModel: "m", ChunkIndex: 1},
		},
		[]string{"one", "two"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteByIDs(ctx, []string{"id-1"}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestChromemStoreDeleteAllCollections(t *testing.T) {
	store := makeStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx,
		[]string{"id-1"},
		[][]float32{{1, 0, 0}},
		[]types.ChunkMetadata{{Source: "s", FileType: types.FileTypeTxt, EmbeddingModel: "m"}},
		[]string{"one"})
	require.NoError(t, err)

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, DefaultCollection)

	deleted, err := store.DeleteAllCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	names, err = store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestChromemStoreReopen(t *testing.T) {
	store := makeStore(t)
	ctx := context.Background()

	err := store.Upsert(ctx,
		[]string{"id-1"},
		[][]float32{{1, 0, 0}},
		[]types.ChunkMetadata{{Source: "s", FileType: types.FileTypeTxt, EmbeddingModel: "m"}},
		[]string{"one"})
	require.NoError(t, err)

	require.NoError(t, store.Reopen())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
