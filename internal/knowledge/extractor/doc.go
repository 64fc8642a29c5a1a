package extractor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

// DOCExtractor 旧版二进制 DOC 抽取器。尽力而为：按 UTF-8 解码并
// 丢弃不可打印字符，产出单个整文档 span，没有真实分页。
type DOCExtractor struct{}

// NewDOCExtractor 创建 DOC 抽取器
func NewDOCExtractor() *DOCExtractor {
	return &DOCExtractor{}
}

// Extract 抽取 DOC 内容
func (e *DOCExtractor) Extract(ctx context.Context, input string) *types.Extraction {
	data, err := os.ReadFile(input)
	if err != nil {
		return types.FailedExtraction(err, fmt.Sprintf("Error reading doc file: %v", err), "")
	}

	// 丢弃无效 UTF-8 序列后过滤不可打印字符（保留空白）
	decoded := strings.ToValidUTF8(string(data), "")
	var textBuilder strings.Builder
	for _, r := range decoded {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			textBuilder.WriteRune(r)
		}
	}
	text := textBuilder.String()

	return &types.Extraction{
		Text: text,
		Spans: []types.SourceSpan{{
			PageNumber: 1,
			CharStart:  0,
			CharEnd:    len(text),
		}},
	}
}

// SupportedTypes 返回支持的来源类型
func (e *DOCExtractor) SupportedTypes() []types.FileType {
	return []types.FileType{types.FileTypeDoc}
}
