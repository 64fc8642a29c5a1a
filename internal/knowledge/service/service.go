package service

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/docqa-project/docqa-backend/internal/knowledge/ingest"
	"github.com/docqa-project/docqa-backend/internal/knowledge/maintenance"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
)

// AnswerFunc 问答调用
type AnswerFunc func(ctx context.Context, req *types.AnswerRequest) (*types.AnswerResult, error)

// DocQAService 文档问答 HTTP 服务
type DocQAService struct {
	batch       *ingest.BatchRunner
	ingestOne   ingest.IngestFunc
	answer      AnswerFunc
	maintenance *maintenance.Manager
	uploadDir   string
	logger      *logger.Logger
}

// Config 服务依赖
type Config struct {
	Batch       *ingest.BatchRunner
	IngestOne   ingest.IngestFunc
	Answer      AnswerFunc
	Maintenance *maintenance.Manager
	UploadDir   string
	Logger      *logger.Logger
}

// NewDocQAService 创建文档问答服务
func NewDocQAService(cfg *Config) (*DocQAService, error) {
	if cfg == nil || cfg.Batch == nil || cfg.IngestOne == nil || cfg.Answer == nil ||
		cfg.Maintenance == nil || cfg.UploadDir == "" {
		return nil, fmt.Errorf("batch runner, ingest func, answer func, maintenance manager and upload dir are required")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	lgr := cfg.Logger
	if lgr == nil {
		lgr = logger.L()
	}

	return &DocQAService{
		batch:       cfg.Batch,
		ingestOne:   cfg.IngestOne,
		answer:      cfg.Answer,
		maintenance: cfg.Maintenance,
		uploadDir:   cfg.UploadDir,
		logger:      lgr,
	}, nil
}

// RegisterRoutes 注册路由
func (s *DocQAService) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/upload", s.Upload)
	r.POST("/upload-url", s.UploadURL)
	r.POST("/chat", s.Chat)
	r.POST("/clear", s.Clear)
	r.POST("/clear-simple", s.SimpleClear)
	r.GET("/status", s.Status)
	r.GET("/inspect", s.Inspect)
	r.GET("/files/:name", s.Download)
}
