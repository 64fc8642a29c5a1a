package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// RegistryFileName 登记库文件名，放在向量库目录内。该文件的存在
// 与否是判断"库非空"的依据。
const RegistryFileName = "registry.db"

// Registry 文档登记库。记录每个已入库文档及其分块向量 ID，
// 支撑轻量清库与状态诊断。
type Registry struct {
	db     *sql.DB
	path   string
	logger *logger.Logger
}

// RegistryPath 返回登记库文件路径
func RegistryPath(vectorDBDir string) string {
	return filepath.Join(vectorDBDir, RegistryFileName)
}

// RegistryExists 判断登记库文件是否存在
func RegistryExists(vectorDBDir string) bool {
	_, err := os.Stat(RegistryPath(vectorDBDir))
	return err == nil
}

// OpenRegistry 打开（或初始化）登记库
func OpenRegistry(vectorDBDir string, lgr *logger.Logger) (*Registry, error) {
	if vectorDBDir == "" {
		return nil, fmt.Errorf("vector db dir is required")
	}

	if lgr == nil {
		lgr = logger.L()
	}

	if err := os.MkdirAll(vectorDBDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create vector db dir: %w", err)
	}

	path := RegistryPath(vectorDBDir)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}

	r := &Registry{db: db, path: path, logger: lgr}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return r, nil
}

func (r *Registry) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			file_path TEXT,
			file_type TEXT NOT NULL,
			embedding_model TEXT NOT NULL,
			chunk_count INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			FOREIGN KEY (document_id) REFERENCES documents(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id)`,
	}

	for _, stmt := range schema {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate registry: %w", err)
		}
	}
	return nil
}

// RecordDocument 登记一个文档及其分块向量 ID（同一事务）
func (r *Registry) RecordDocument(ctx context.Context, doc *types.Document, chunkIDs []string) error {
	if doc == nil {
		return fmt.Errorf("document is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, source, file_path, file_type, embedding_model, chunk_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Source, doc.FilePath, string(doc.FileType), doc.EmbeddingModel, doc.ChunkCount, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	for i, chunkID := range chunkIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (id, document_id, chunk_index) VALUES (?, ?, ?)`,
			chunkID, doc.ID, i); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	r.logger.Info("document recorded",
		zap.String("source", doc.Source),
		zap.Int("chunk_count", len(chunkIDs)))

	return nil
}

// AllChunkIDs 返回登记过的全部分块向量 ID
func (r *Registry) AllChunkIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM chunks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Documents 返回全部登记文档
func (r *Registry) Documents(ctx context.Context) ([]*types.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source, file_path, file_type, embedding_model, chunk_count, created_at
		 FROM documents ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*types.Document
	for rows.Next() {
		var doc types.Document
		var fileType string
		if err := rows.Scan(&doc.ID, &doc.Source, &doc.FilePath, &fileType,
			&doc.EmbeddingModel, &doc.ChunkCount, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.FileType = types.FileType(fileType)
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// Truncate 清空全部登记记录（轻量清库用）
func (r *Registry) Truncate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("failed to truncate chunks: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("failed to truncate documents: %w", err)
	}
	return nil
}

// Inspect 遍历 sqlite_master，返回每张表的行数与列名
func (r *Registry) Inspect(ctx context.Context) (*types.InspectResult, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &types.InspectResult{Tables: make(map[string]types.TableInfo, len(tables))}
	for _, table := range tables {
		info := types.TableInfo{}

		if err := r.db.QueryRowContext(ctx,
			fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table)).Scan(&info.RowCount); err != nil {
			return nil, fmt.Errorf("failed to count rows of %s: %w", table, err)
		}

		colRows, err := r.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, table))
		if err != nil {
			return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
		}
		for colRows.Next() {
			var cid int
			var name, colType string
			var notNull, pk int
			var dflt sql.NullString
			if err := colRows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
				_ = colRows.Close()
				return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
			}
			info.Columns = append(info.Columns, name)
		}
		if err := colRows.Err(); err != nil {
			_ = colRows.Close()
			return nil, err
		}
		_ = colRows.Close()

		result.Tables[table] = info
	}

	return result, nil
}

// Reopen 关闭并重新打开登记库（清库后目录被重建时使用），
// 持有同一指针的调用方无需换新句柄
func (r *Registry) Reopen() error {
	_ = r.db.Close()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to recreate vector db dir: %w", err)
	}

	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return fmt.Errorf("failed to reopen registry: %w", err)
	}

	r.db = db
	return r.migrate()
}

// Path 返回登记库文件路径
func (r *Registry) Path() string {
	return r.path
}

// Close 关闭登记库
func (r *Registry) Close() error {
	return r.db.Close()
}
