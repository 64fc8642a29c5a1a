package types

// RerankKind 重排序策略
type RerankKind string

const (
	// RerankNone 不做重排序，直接取相似度 top-k
	RerankNone RerankKind = "none"
	// RerankCohere 调用外部 Cohere Rerank API
	RerankCohere RerankKind = "cohere"
	// RerankLLM 用回答模型抽取各候选文档的相关片段
	RerankLLM RerankKind = "llm"
)

// RetrievedDocument 向量检索返回的文档
type RetrievedDocument struct {
	PageContent string        `json:"page_content"`
	Metadata    ChunkMetadata `json:"metadata"`
	Score       float32       `json:"score"`
}

// SourceCitation 面向用户的出处引用。去重键为 (FileName, PageNumber)，
// 段落号不同但文件与页码相同的检索结果合并为一条引用。
type SourceCitation struct {
	FileName        string   `json:"file_name"`
	FilePath        string   `json:"file_path,omitempty"`
	PageNumber      int      `json:"page_number,omitempty"`
	ParagraphNumber int      `json:"paragraph_number,omitempty"`
	EstimatedPage   bool     `json:"estimated_page,omitempty"`
	Title           string   `json:"title,omitempty"`
	URL             string   `json:"url,omitempty"`
	FileType        FileType `json:"file_type"`
}

// AnswerRequest 问答请求
type AnswerRequest struct {
	Query          string     `json:"query" binding:"required"`
	Model          string     `json:"model"`
	EmbeddingModel string     `json:"embedding_model"`
	ChunkCount     int        `json:"chunk_count"`
	RerankerKind   RerankKind `json:"reranker_kind"`
	UseCompression bool       `json:"use_compression"`
}

// AnswerResult 问答结果
type AnswerResult struct {
	Answer           string           `json:"answer"`
	Sources          []SourceCitation `json:"sources"`
	ChunksUsed       int              `json:"chunks_used"`
	CompressionUsed  bool             `json:"compression_used"`
	LanguageDetected string           `json:"language_detected"` // english / vietnamese
}
