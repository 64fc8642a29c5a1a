package types

// ClearResult 清库结果。清库操作本身不向调用方抛错，各子步骤的
// 成败记录在字段里。
type ClearResult struct {
	Success            bool   `json:"success"`
	VectorDBCleared    bool   `json:"vector_db_cleared"`
	CollectionsCleared bool   `json:"collections_cleared"`
	UploadsCleared     bool   `json:"uploads_cleared"`
	MethodUsed         string `json:"method_used"` // collections_api / directory_removal / simple_clear / none
	Error              string `json:"error,omitempty"`
}

// DatabaseStatus 向量库与上传目录的当前状态
type DatabaseStatus struct {
	VectorDBExists          bool     `json:"vector_db_exists"`
	VectorDBCollections     int      `json:"vector_db_collections"`
	VectorDBDocuments       int      `json:"vector_db_documents"`
	CollectionNames         []string `json:"collection_names"`
	DatabaseFileExists      bool     `json:"database_file_exists"`
	DatabaseCompletelyClear bool     `json:"database_completely_clear"`
	UploadedFiles           int      `json:"uploaded_files"`
	UploadedFileList        []string `json:"uploaded_file_list"`
}

// TableInfo 登记库单表的行数与列名（诊断用）
type TableInfo struct {
	RowCount int      `json:"row_count"`
	Columns  []string `json:"columns"`
}

// InspectResult 登记库的原始表信息
type InspectResult struct {
	Tables map[string]TableInfo `json:"tables"`
	Error  string               `json:"error,omitempty"`
}
