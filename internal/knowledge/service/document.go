package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/knowledge/embedding"
	"github.com/docqa-project/docqa-backend/internal/pkg/response"
)

// Upload 批量上传文件并入库。文件按顺序处理，单个文件的失败或
// 超时不影响后续文件，逐个记入 results。
func (s *DocQAService) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		response.BadRequest(c, "no files provided")
		return
	}

	embeddingModel := c.DefaultPostForm("embedding_model", embedding.DefaultModel)

	results := make([]UploadFileResult, 0, len(files))
	totalChunks := 0
	processed := 0

	for _, fh := range files {
		filename := filepath.Base(fh.Filename)
		ext := strings.ToLower(filepath.Ext(filename))

		if !supportedExtensions[ext] {
			results = append(results, UploadFileResult{
				Filename: filename,
				Status:   response.StatusError,
				Message: fmt.Sprintf("Unsupported file type: %s. Supported types: %s",
					ext, supportedExtensionList),
			})
			continue
		}

		path := filepath.Join(s.uploadDir, filename)
		if err := c.SaveUploadedFile(fh, path); err != nil {
			s.logger.Error("failed to save uploaded file",
				zap.String("filename", filename), zap.Error(err))
			results = append(results, UploadFileResult{
				Filename: filename,
				Status:   response.StatusError,
				Message:  fmt.Sprintf("failed to save file: %v", err),
			})
			continue
		}

		batchResults := s.batch.Run(c.Request.Context(), []string{path}, embeddingModel)
		r := batchResults[0]

		if r.Status == response.StatusSuccess {
			totalChunks += r.ChunkCount
			processed++
			results = append(results, UploadFileResult{
				Filename:       filename,
				Status:         r.Status,
				ChunksAdded:    r.ChunkCount,
				EmbeddingModel: embeddingModel,
			})
		} else {
			results = append(results, UploadFileResult{
				Filename: filename,
				Status:   r.Status,
				Message:  r.Message,
			})
		}
	}

	c.JSON(200, gin.H{
		"status":          response.StatusCompleted,
		"files_processed": processed,
		"total_chunks":    totalChunks,
		"results":         results,
	})
}

// UploadURL 抓取网页并入库
func (s *DocQAService) UploadURL(c *gin.Context) {
	var req URLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	embeddingModel := req.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = embedding.DefaultModel
	}

	chunks, err := s.ingestOne(c.Request.Context(), req.URL, embeddingModel)
	if err != nil {
		s.logger.Error("failed to ingest url", zap.String("url", req.URL), zap.Error(err))
		response.ErrorFields(c, err.Error(), gin.H{"url": req.URL})
		return
	}

	response.Success(c, gin.H{
		"url":             req.URL,
		"chunks_added":    chunks,
		"embedding_model": embeddingModel,
	})
}

// Download 下载已上传的文件
func (s *DocQAService) Download(c *gin.Context) {
	filename := filepath.Base(c.Param("name"))
	path := filepath.Join(s.uploadDir, filename)

	absUploadDir, err := filepath.Abs(s.uploadDir)
	if err != nil {
		response.InternalError(c, fmt.Sprintf("Error downloading file: %v", err))
		return
	}
	absPath, err := filepath.Abs(path)
	if err != nil || !strings.HasPrefix(absPath, absUploadDir+string(os.PathSeparator)) {
		response.Error(c, "Invalid file path")
		return
	}

	if _, err := os.Stat(path); err != nil {
		response.Error(c, "File not found")
		return
	}

	mediaType := mediaTypes[strings.ToLower(filepath.Ext(filename))]
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	c.Header("Content-Type", mediaType)
	c.FileAttachment(path, filename)
}
