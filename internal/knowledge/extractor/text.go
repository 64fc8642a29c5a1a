package extractor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

// TextExtractor 纯文本抽取器
type TextExtractor struct{}

// NewTextExtractor 创建纯文本抽取器
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract 按 UTF-8 读取，非法编码时降级为 Latin-1。产出单个整文档
// span，附带行数便于诊断。
func (e *TextExtractor) Extract(ctx context.Context, input string) *types.Extraction {
	data, err := os.ReadFile(input)
	if err != nil {
		return types.FailedExtraction(err, fmt.Sprintf("Error reading txt file: %v", err), "")
	}

	var text string
	if utf8.Valid(data) {
		text = string(data)
	} else {
		text = decodeLatin1(data)
	}

	return &types.Extraction{
		Text: text,
		Spans: []types.SourceSpan{{
			PageNumber: 1,
			CharStart:  0,
			CharEnd:    len(text),
			LineCount:  strings.Count(text, "\n") + 1,
		}},
	}
}

// decodeLatin1 将每个字节映射为对应码点
func decodeLatin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

// SupportedTypes 返回支持的来源类型
func (e *TextExtractor) SupportedTypes() []types.FileType {
	return []types.FileType{types.FileTypeTxt}
}
