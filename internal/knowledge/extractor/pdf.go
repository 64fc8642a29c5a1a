package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/gen2brain/go-fitz"
)

// PDFExtractor PDF 抽取器（go-fitz/MuPDF）
type PDFExtractor struct{}

// NewPDFExtractor 创建 PDF 抽取器
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract 逐页抽取文本。每个有非空白内容的页产出一个 span，偏移量
// 取追加该页前后的累计长度；仅含空白的页保持全文连续但不产出 span。
func (e *PDFExtractor) Extract(ctx context.Context, input string) *types.Extraction {
	doc, err := fitz.New(input)
	if err != nil {
		return types.FailedExtraction(err, fmt.Sprintf("Error processing pdf file: %v", err), "")
	}
	defer doc.Close()

	var textBuilder strings.Builder
	var spans []types.SourceSpan

	numPages := doc.NumPage()
	for i := 0; i < numPages; i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			// 跳过无法抽取的页
			continue
		}

		charStart := textBuilder.Len()
		textBuilder.WriteString(pageText)

		if strings.TrimSpace(pageText) != "" {
			spans = append(spans, types.SourceSpan{
				PageNumber: i + 1,
				CharStart:  charStart,
				CharEnd:    textBuilder.Len(),
			})
		}
	}

	return &types.Extraction{
		Text:  textBuilder.String(),
		Spans: spans,
	}
}

// SupportedTypes 返回支持的来源类型
func (e *PDFExtractor) SupportedTypes() []types.FileType {
	return []types.FileType{types.FileTypePdf}
}
