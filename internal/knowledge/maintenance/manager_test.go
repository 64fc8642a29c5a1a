package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqa-project/docqa-backend/internal/knowledge/storage"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

func seedStore(t *testing.T, store storage.VectorStore, registry *storage.Registry, ids ...string) {
	t.Helper()

	embeddings := make([][]float32, len(ids))
	metadatas := make([]types.ChunkMetadata, len(ids))
	contents := make([]string, len(ids))
	for i := range ids {
		embeddings[i] = []float32{1, 0}
		metadatas[i] = types.ChunkMetadata{Source: "seed.txt", FileType: types.FileTypeTxt, ChunkIndex: i}
		contents[i] = "chunk " + ids[i]
	}

	require.NoError(t, store.Upsert(context.Background(), ids, embeddings, metadatas, contents))
	require.NoError(t, registry.RecordDocument(context.Background(), &types.Document{
		ID:             "doc-" + ids[0],
		Source:         "seed.txt",
		FileType:       types.FileTypeTxt,
		EmbeddingModel: "m",
		ChunkCount:     len(ids),
	}, ids))
}

func newTestManager(t *testing.T) (*Manager, storage.VectorStore, *storage.Registry, string, string) {
	t.Helper()

	base := t.TempDir()
	vectorDir := filepath.Join(base, "vector_db")
	uploadsDir := filepath.Join(base, "uploads")
	require.NoError(t, os.MkdirAll(uploadsDir, 0o755))

	registry, err := storage.OpenRegistry(vectorDir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })

	store, err := storage.NewChromemStore(vectorDir, nil)
	require.NoError(t, err)

	mgr, err := New(&Config{
		Store:      store,
		Registry:   registry,
		VectorDir:  vectorDir,
		UploadsDir: uploadsDir,
	})
	require.NoError(t, err)

	return mgr, store, registry, vectorDir, uploadsDir
}

func TestClearRemovesEverything(t *testing.T) {
	mgr, store, registry, vectorDir, uploadsDir := newTestManager(t)

	seedStore(t, store, registry, "a1", "a2")
	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "doc.pdf"), []byte("x"), 0o644))

	result := mgr.Clear(context.Background())

	assert.True(t, result.Success)
	assert.True(t, result.VectorDBCleared)
	assert.True(t, result.CollectionsCleared)
	assert.True(t, result.UploadsCleared)
	assert.Equal(t, "collections_api", result.MethodUsed)

	// 目录被重建，库处于可用的空状态
	_, err := os.Stat(vectorDir)
	require.NoError(t, err)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	ids, err := registry.AllChunkIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)

	entries, err := os.ReadDir(uploadsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClearAlreadyEmpty(t *testing.T) {
	mgr, _, _, _, _ := newTestManager(t)

	result := mgr.Clear(context.Background())

	assert.True(t, result.Success)
	assert.True(t, result.VectorDBCleared)
	assert.False(t, result.UploadsCleared)
}

func TestSimpleClearDeletesByLedger(t *testing.T) {
	mgr, store, registry, _, _ := newTestManager(t)

	seedStore(t, store, registry, "b1", "b2", "b3")

	result := mgr.SimpleClear(context.Background())

	assert.True(t, result.Success)
	assert.True(t, result.VectorDBCleared)
	assert.Equal(t, "simple_clear", result.MethodUsed)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	ids, err := registry.AllChunkIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestClearWithFallbackUsesComprehensiveFirst(t *testing.T) {
	mgr, store, registry, _, _ := newTestManager(t)
	seedStore(t, store, registry, "c1")

	result := mgr.ClearWithFallback(context.Background())

	assert.True(t, result.Success)
	assert.Equal(t, "collections_api", result.MethodUsed)
}

func TestStatusReflectsContents(t *testing.T) {
	mgr, store, registry, _, uploadsDir := newTestManager(t)

	seedStore(t, store, registry, "d1", "d2")
	require.NoError(t, os.WriteFile(filepath.Join(uploadsDir, "a.txt"), []byte("x"), 0o644))

	status := mgr.Status(context.Background())

	assert.True(t, status.DatabaseFileExists)
	assert.True(t, status.VectorDBExists)
	assert.Equal(t, 1, status.VectorDBCollections)
	assert.Contains(t, status.CollectionNames, storage.DefaultCollection)
	assert.Equal(t, 2, status.VectorDBDocuments)
	assert.False(t, status.DatabaseCompletelyClear)
	assert.Equal(t, 1, status.UploadedFiles)
	assert.Equal(t, []string{"a.txt"}, status.UploadedFileList)
}

func TestStatusAfterClear(t *testing.T) {
	mgr, store, registry, _, _ := newTestManager(t)

	seedStore(t, store, registry, "e1")
	result := mgr.Clear(context.Background())
	require.True(t, result.Success)

	status := mgr.Status(context.Background())
	assert.True(t, status.DatabaseCompletelyClear)
	assert.Zero(t, status.VectorDBDocuments)
}

func TestInspectListsRegistryTables(t *testing.T) {
	mgr, store, registry, _, _ := newTestManager(t)
	seedStore(t, store, registry, "f1", "f2")

	result := mgr.Inspect(context.Background())

	require.Empty(t, result.Error)
	require.Contains(t, result.Tables, "documents")
	require.Contains(t, result.Tables, "chunks")
	assert.Equal(t, 1, result.Tables["documents"].RowCount)
	assert.Equal(t, 2, result.Tables["chunks"].RowCount)
	assert.Contains(t, result.Tables["chunks"].Columns, "document_id")
}

func TestInspectWithoutRegistryFile(t *testing.T) {
	base := t.TempDir()
	vectorDir := filepath.Join(base, "vector_db")

	registry, err := storage.OpenRegistry(vectorDir, nil)
	require.NoError(t, err)
	store, err := storage.NewChromemStore(vectorDir, nil)
	require.NoError(t, err)

	mgr, err := New(&Config{Store: store, Registry: registry, VectorDir: vectorDir})
	require.NoError(t, err)

	require.NoError(t, registry.Close())
	require.NoError(t, os.RemoveAll(vectorDir))

	result := mgr.Inspect(context.Background())
	assert.Equal(t, "Database file does not exist", result.Error)
}
