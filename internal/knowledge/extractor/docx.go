package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/fumiama/go-docx"
)

// docxCharsPerPage DOCX 没有真实分页信息，按约 500 词/页
// （约 3000 字符含空格）估算页码。
const docxCharsPerPage = 3000

// DOCXExtractor Word 文档抽取器
type DOCXExtractor struct{}

// NewDOCXExtractor 创建 Word 文档抽取器
func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

// Extract 逐段落抽取文本。每个非空段落产出一个 span，页码由字符
// 偏移估算并标记 EstimatedPage。段落序号对所有段落（含空段落）
// 无条件递增，因此产出的 ParagraphNumber 可能不连续，与既有行为
// 保持一致。
func (e *DOCXExtractor) Extract(ctx context.Context, input string) *types.Extraction {
	data, err := os.ReadFile(input)
	if err != nil {
		return types.FailedExtraction(err, fmt.Sprintf("Error processing docx file: %v", err), "")
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return types.FailedExtraction(err, fmt.Sprintf("Error processing docx file: %v", err), "")
	}

	var textBuilder strings.Builder
	var spans []types.SourceSpan

	paraNumber := 0
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		paraNumber++

		paraText := para.String() + "\n"
		charStart := textBuilder.Len()
		textBuilder.WriteString(paraText)

		if strings.TrimSpace(paraText) == "" {
			continue
		}

		estimatedPage := charStart/docxCharsPerPage + 1
		if estimatedPage < 1 {
			estimatedPage = 1
		}

		spans = append(spans, types.SourceSpan{
			PageNumber:      estimatedPage,
			ParagraphNumber: paraNumber,
			CharStart:       charStart,
			CharEnd:         textBuilder.Len(),
			EstimatedPage:   true,
		})
	}

	return &types.Extraction{
		Text:  textBuilder.String(),
		Spans: spans,
	}
}

// SupportedTypes 返回支持的来源类型
func (e *DOCXExtractor) SupportedTypes() []types.FileType {
	return []types.FileType{types.FileTypeDocx}
}
