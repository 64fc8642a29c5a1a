package maintenance

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/knowledge/storage"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

const removeAttempts = 3

// Manager 向量库运维：两级清库、状态查询、登记库诊断。
// 清库与入库并发执行没有保护，调用方需要自行避开。
type Manager struct {
	store      storage.VectorStore
	registry   *storage.Registry
	vectorDir  string
	uploadsDir string
	logger     *logger.Logger
}

// Config 运维管理器配置
type Config struct {
	Store      storage.VectorStore
	Registry   *storage.Registry
	VectorDir  string
	UploadsDir string
	Logger     *logger.Logger
}

// New 创建运维管理器
func New(cfg *Config) (*Manager, error) {
	if cfg == nil || cfg.Store == nil || cfg.Registry == nil || cfg.VectorDir == "" {
		return nil, fmt.Errorf("store, registry and vector dir are required")
	}

	lgr := cfg.Logger
	if lgr == nil {
		lgr = logger.L()
	}

	return &Manager{
		store:      cfg.Store,
		registry:   cfg.Registry,
		vectorDir:  cfg.VectorDir,
		uploadsDir: cfg.UploadsDir,
		logger:     lgr,
	}, nil
}

// Clear 全量清库。先走存储 API 删除全部集合，失败则直接删登记库
// 文件；随后尽力移除并重建向量目录（目录删不掉但集合已清也算
// 成功），最后清掉上传文件。不向调用方返回 Go error，子步骤成败
// 都记在结果里。
func (m *Manager) Clear(ctx context.Context) types.ClearResult {
	var result types.ClearResult

	collectionsCleared := false
	directoryRemoved := false

	if _, err := os.Stat(m.vectorDir); err == nil {
		deleted, err := m.store.DeleteAllCollections(ctx)
		if err == nil {
			// 没有集合也算已清
			collectionsCleared = true
			m.logger.Info("collections cleared via store api", zap.Int("deleted", deleted))
		} else {
			m.logger.Warn("could not clear via store api, removing registry file directly", zap.Error(err))
			if rmErr := os.Remove(storage.RegistryPath(m.vectorDir)); rmErr == nil {
				collectionsCleared = true
			} else {
				m.logger.Warn("could not delete registry file directly", zap.Error(rmErr))
			}
		}

		// 删目录前先关掉登记库句柄，否则 Windows 上文件删不掉
		_ = m.registry.Close()
		directoryRemoved = m.removeVectorDir()
		result.VectorDBCleared = collectionsCleared || directoryRemoved
	} else {
		m.logger.Info("vector db directory does not exist, already clear")
		result.VectorDBCleared = true
	}

	if err := os.MkdirAll(m.vectorDir, 0o755); err != nil {
		result.Error = fmt.Sprintf("failed to recreate vector db dir: %v", err)
		return result
	}

	if err := m.registry.Reopen(); err != nil {
		result.Error = fmt.Sprintf("failed to reopen registry: %v", err)
		return result
	}
	if err := m.store.Reopen(); err != nil {
		result.Error = fmt.Sprintf("failed to reopen vector store: %v", err)
		return result
	}

	result.UploadsCleared = m.clearUploads()

	result.Success = true
	result.CollectionsCleared = collectionsCleared
	switch {
	case collectionsCleared:
		result.MethodUsed = "collections_api"
	case result.VectorDBCleared:
		result.MethodUsed = "directory_removal"
	default:
		result.MethodUsed = "none"
	}

	return result
}

// removeVectorDir 尽力移除向量目录：先把文件权限放开，再整体
// 删除，最多重试数次
func (m *Manager) removeVectorDir() bool {
	for attempt := 1; attempt <= removeAttempts; attempt++ {
		_ = filepath.WalkDir(m.vectorDir, func(path string, d fs.DirEntry, err error) error {
			if err == nil && !d.IsDir() {
				_ = os.Chmod(path, 0o777)
			}
			return nil
		})

		_ = os.RemoveAll(m.vectorDir)

		if _, err := os.Stat(m.vectorDir); os.IsNotExist(err) {
			m.logger.Info("vector db directory removed", zap.String("dir", m.vectorDir))
			return true
		}

		m.logger.Warn("vector db directory still exists, retrying",
			zap.Int("attempt", attempt))
		time.Sleep(500 * time.Millisecond)
	}

	m.logger.Warn("all removal attempts failed, collections may still be cleared")
	return false
}

func (m *Manager) clearUploads() bool {
	if m.uploadsDir == "" {
		return false
	}

	entries, err := os.ReadDir(m.uploadsDir)
	if err != nil {
		return false
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(m.uploadsDir, entry.Name())
		if err := os.Remove(path); err != nil {
			m.logger.Warn("could not remove uploaded file",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}

	return removed > 0
}

// SimpleClear 轻量清库：按登记库的分块 ID 清单从默认集合删数据，
// 不动目录
func (m *Manager) SimpleClear(ctx context.Context) types.ClearResult {
	if _, err := os.Stat(m.vectorDir); os.IsNotExist(err) {
		return types.ClearResult{
			Success:         true,
			VectorDBCleared: true,
			MethodUsed:      "no_database",
		}
	}

	ids, err := m.registry.AllChunkIDs(ctx)
	if err != nil {
		return types.ClearResult{Error: err.Error()}
	}

	if len(ids) > 0 {
		if err := m.store.DeleteByIDs(ctx, ids); err != nil {
			return types.ClearResult{Error: err.Error()}
		}
		m.logger.Info("deleted chunks from collection", zap.Int("count", len(ids)))
	}

	if err := m.registry.Truncate(ctx); err != nil {
		return types.ClearResult{Error: err.Error()}
	}

	return types.ClearResult{
		Success:         true,
		VectorDBCleared: true,
		MethodUsed:      "simple_clear",
	}
}

// ClearWithFallback 先全量清库，没清掉再降级到轻量清库；两级都
// 失败时把两个错误合并进结果
func (m *Manager) ClearWithFallback(ctx context.Context) types.ClearResult {
	result := m.Clear(ctx)
	if result.Success && result.VectorDBCleared {
		return result
	}

	m.logger.Warn("comprehensive clear failed, trying simple clear")
	simple := m.SimpleClear(ctx)
	if simple.Success {
		return simple
	}

	compErr := result.Error
	if compErr == "" {
		compErr = "Unknown error"
	}
	simpleErr := simple.Error
	if simpleErr == "" {
		simpleErr = "Unknown error"
	}

	return types.ClearResult{
		Error: fmt.Sprintf("Both clearing methods failed. Comprehensive: %s. Simple: %s",
			compErr, simpleErr),
	}
}

// Status 汇总向量库与上传目录的当前状态
func (m *Manager) Status(ctx context.Context) types.DatabaseStatus {
	status := types.DatabaseStatus{
		CollectionNames:  []string{},
		UploadedFileList: []string{},
	}

	status.DatabaseFileExists = storage.RegistryExists(m.vectorDir)

	if !status.DatabaseFileExists {
		status.DatabaseCompletelyClear = true
	} else {
		names, err := m.store.ListCollections(ctx)
		if err != nil {
			m.logger.Warn("could not list collections", zap.Error(err))
			// 文件在但读不了，保守起见不算已清
			status.VectorDBExists = true
		} else {
			status.VectorDBExists = true
			status.VectorDBCollections = len(names)
			status.CollectionNames = names

			total, err := m.store.Count(ctx)
			if err != nil {
				m.logger.Warn("could not count documents", zap.Error(err))
			} else {
				status.VectorDBDocuments = total
			}

			status.DatabaseCompletelyClear = len(names) == 0 || total == 0
		}
	}

	if m.uploadsDir != "" {
		if entries, err := os.ReadDir(m.uploadsDir); err == nil {
			for _, entry := range entries {
				if !entry.IsDir() {
					status.UploadedFileList = append(status.UploadedFileList, entry.Name())
				}
			}
			status.UploadedFiles = len(status.UploadedFileList)
		}
	}

	return status
}

// Inspect 返回登记库的表级诊断信息
func (m *Manager) Inspect(ctx context.Context) types.InspectResult {
	if !storage.RegistryExists(m.vectorDir) {
		return types.InspectResult{Error: "Database file does not exist"}
	}

	result, err := m.registry.Inspect(ctx)
	if err != nil {
		return types.InspectResult{Error: err.Error()}
	}
	return *result
}
