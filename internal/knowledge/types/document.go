package types

import (
	"path/filepath"
	"strings"
	"time"
)

// FileType 文档来源类型
type FileType string

const (
	FileTypePdf     FileType = "pdf"
	FileTypeDocx    FileType = "docx"
	FileTypeDoc     FileType = "doc"
	FileTypeTxt     FileType = "txt"
	FileTypeHTML    FileType = "html"
	FileTypeURL     FileType = "url"
	FileTypeUnknown FileType = "unknown"
)

// DetectFileType 根据路径或 URL 识别来源类型
func DetectFileType(pathOrURL string) FileType {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return FileTypeURL
	}

	switch strings.ToLower(filepath.Ext(pathOrURL)) {
	case ".pdf":
		return FileTypePdf
	case ".docx":
		return FileTypeDocx
	case ".doc":
		return FileTypeDoc
	case ".txt":
		return FileTypeTxt
	case ".html", ".htm":
		return FileTypeHTML
	default:
		return FileTypeUnknown
	}
}

// Document 已入库文档的登记记录
type Document struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	FilePath       string    `json:"file_path"`
	FileType       FileType  `json:"file_type"`
	EmbeddingModel string    `json:"embedding_model"`
	ChunkCount     int       `json:"chunk_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// IngestResult 单个文件的入库结果
type IngestResult struct {
	Source     string `json:"source"`
	Status     string `json:"status"` // success / error / timeout
	ChunkCount int    `json:"chunk_count"`
	Message    string `json:"message,omitempty"`
}
