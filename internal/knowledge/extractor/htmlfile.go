package extractor

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

// defaultHTMLTitle 本地 HTML 文件缺少 <title> 时的占位标题
const defaultHTMLTitle = "Untitled HTML Document"

// HTMLFileExtractor 本地 HTML 文件抽取器
type HTMLFileExtractor struct{}

// NewHTMLFileExtractor 创建 HTML 文件抽取器
func NewHTMLFileExtractor() *HTMLFileExtractor {
	return &HTMLFileExtractor{}
}

// Extract 解析 DOM，剔除 script/style，按块级元素换行抽取文本。
// 产出单个整文档 span，附带标题。
func (e *HTMLFileExtractor) Extract(ctx context.Context, input string) *types.Extraction {
	data, err := os.ReadFile(input)
	if err != nil {
		return types.FailedExtraction(err, fmt.Sprintf("Error reading html file: %v", err), "")
	}

	root, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		return types.FailedExtraction(err, fmt.Sprintf("Error parsing html file: %v", err), "")
	}

	title := findTitle(root)
	if title == "" {
		title = defaultHTMLTitle
	}

	removeElements(root, map[string]bool{"script": true, "style": true})

	text := extractBlockText(root)

	// 修剪各行并去空行
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	text = strings.Join(lines, "\n")

	return &types.Extraction{
		Text: text,
		Spans: []types.SourceSpan{{
			PageNumber: 1,
			CharStart:  0,
			CharEnd:    len(text),
			Title:      title,
		}},
	}
}

// SupportedTypes 返回支持的来源类型
func (e *HTMLFileExtractor) SupportedTypes() []types.FileType {
	return []types.FileType{types.FileTypeHTML}
}
