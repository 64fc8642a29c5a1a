package extractor

import (
	"context"
	"fmt"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

// Extractor 文档抽取器接口。input 为文件路径或 URL。
//
// 对受支持且可读的输入不返回 Go error：失败编码在 Extraction 内
// （错误标记 span + 错误正文），上游统一降级处理。
type Extractor interface {
	// Extract 抽取全文与结构 spans
	Extract(ctx context.Context, input string) *types.Extraction

	// SupportedTypes 返回支持的来源类型
	SupportedTypes() []types.FileType
}

// Factory Extractor 工厂
type Factory struct {
	extractors map[types.FileType]Extractor
}

// NewFactory 创建 Extractor 工厂并注册全部抽取器
func NewFactory() *Factory {
	factory := &Factory{
		extractors: make(map[types.FileType]Extractor),
	}

	factory.register(NewPDFExtractor())
	factory.register(NewDOCXExtractor())
	factory.register(NewDOCExtractor())
	factory.register(NewTextExtractor())
	factory.register(NewHTMLFileExtractor())
	factory.register(NewURLExtractor())

	return factory
}

func (f *Factory) register(ext Extractor) {
	for _, fileType := range ext.SupportedTypes() {
		f.extractors[fileType] = ext
	}
}

// Extract 识别来源类型并调度对应抽取器。未知类型同样以带内错误
// 返回，不会越过编排层抛出。
func (f *Factory) Extract(ctx context.Context, input string) *types.Extraction {
	fileType := types.DetectFileType(input)

	ext, ok := f.extractors[fileType]
	if !ok {
		err := fmt.Errorf("unsupported file type: %s", fileType)
		return types.FailedExtraction(err, fmt.Sprintf("Unsupported file type: %s", fileType), "")
	}

	return ext.Extract(ctx, input)
}

// SupportedTypes 返回所有支持的来源类型
func (f *Factory) SupportedTypes() []types.FileType {
	fileTypes := make([]types.FileType, 0, len(f.extractors))
	for fileType := range f.extractors {
		fileTypes = append(fileTypes, fileType)
	}
	return fileTypes
}
