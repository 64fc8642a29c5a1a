package types

// SourceSpan 抽取阶段发现的文档结构单元（页或段落）
//
// CharStart/CharEnd 为针对全文的半开区间。同一文档的 spans 按
// CharStart 非递减顺序产出；有内容的 span 区间非空。没有更细结构的
// 格式（纯文本、DOC 降级、HTML 文件）产出单个整文档占位 span。
type SourceSpan struct {
	CharStart       int    `json:"char_start"`
	CharEnd         int    `json:"char_end"`
	PageNumber      int    `json:"page_number,omitempty"`      // 1-based，0 表示未知
	ParagraphNumber int    `json:"paragraph_number,omitempty"` // 1-based，0 表示未知
	EstimatedPage   bool   `json:"estimated_page,omitempty"`   // 页码由字符数估算
	Title           string `json:"title,omitempty"`
	URL             string `json:"url,omitempty"`
	LineCount       int    `json:"line_count,omitempty"`
	WasTruncated    bool   `json:"was_truncated,omitempty"`
	Err             bool   `json:"error,omitempty"`
}

// Extraction 抽取结果。抽取器对可读输入不返回 Go error，失败以
// Err + 错误标记 span 的形式编码在结果内，便于上游统一降级为
// "无可入库内容"。
type Extraction struct {
	Text  string
	Spans []SourceSpan
	Err   error
}

// Failed 判断抽取是否失败
func (e *Extraction) Failed() bool {
	if e.Err != nil {
		return true
	}
	for _, s := range e.Spans {
		if s.Err {
			return true
		}
	}
	return false
}

// FailedExtraction 构造失败结果，message 同时作为正文以保持
// 单 span 的区间不为空
func FailedExtraction(err error, message, url string) *Extraction {
	return &Extraction{
		Text: message,
		Spans: []SourceSpan{{
			PageNumber: 1,
			CharStart:  0,
			CharEnd:    len(message),
			URL:        url,
			Err:        true,
		}},
		Err: err,
	}
}

// ChunkMetadata 随分块向量一并持久化的元数据。来自命中 span 的
// 字段（页码、段落号等）仅在 span 携带时出现，是稀疏结构而非固定记录。
type ChunkMetadata struct {
	Source          string   `json:"source"`
	FileType        FileType `json:"file_type"`
	EmbeddingModel  string   `json:"embedding_model"`
	ChunkIndex      int      `json:"chunk_index"`
	FilePath        string   `json:"file_path"`
	PageNumber      int      `json:"page_number,omitempty"`
	ParagraphNumber int      `json:"paragraph_number,omitempty"`
	EstimatedPage   bool     `json:"estimated_page,omitempty"`
	Title           string   `json:"title,omitempty"`
	URL             string   `json:"url,omitempty"`
}
