package service

import (
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

// supportedExtensions 可入库的文件扩展名
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".txt":  true,
	".html": true,
	".htm":  true,
}

// supportedExtensionList 错误提示里展示的扩展名顺序
const supportedExtensionList = ".pdf, .docx, .doc, .txt, .html, .htm"

// mediaTypes 下载接口按扩展名返回的 Content-Type
var mediaTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".txt":  "text/plain",
	".html": "text/html",
	".htm":  "text/html",
}

// UploadFileResult 单个上传文件的处理结果
type UploadFileResult struct {
	Filename       string `json:"filename"`
	Status         string `json:"status"`
	ChunksAdded    int    `json:"chunks_added,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	Message        string `json:"message,omitempty"`
}

// URLRequest 按 URL 入库的请求
type URLRequest struct {
	URL            string `json:"url" binding:"required"`
	EmbeddingModel string `json:"embedding_model"`
}

// ChatRequest 问答请求。use_compression 缺省为开启，用指针区分
// "未传"与"显式关闭"。
type ChatRequest struct {
	Query          string `form:"query" json:"query" binding:"required"`
	Model          string `form:"model" json:"model"`
	EmbeddingModel string `form:"embedding_model" json:"embedding_model"`
	ChunkCount     int    `form:"chunk_count" json:"chunk_count"`
	RerankerType   string `form:"reranker_type" json:"reranker_type"`
	UseCompression *bool  `form:"use_compression" json:"use_compression"`
}

// ChatResponse 问答响应
type ChatResponse struct {
	Answer             string                 `json:"answer"`
	Sources            []types.SourceCitation `json:"sources"`
	ModelUsed          string                 `json:"model_used"`
	EmbeddingModelUsed string                 `json:"embedding_model_used"`
	ChunkCount         int                    `json:"chunk_count"`
	ChunksUsed         int                    `json:"chunks_used"`
	RerankerType       string                 `json:"reranker_type"`
	CompressionUsed    bool                   `json:"compression_used"`
	LanguageDetected   string                 `json:"language_detected"`
}
