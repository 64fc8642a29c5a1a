package extractor

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

// maxWebContentChars 网页正文上限，超出部分截断
const maxWebContentChars = 50000

// truncationMarker 截断标记
const truncationMarker = "\n\n[Content truncated due to size limit]"

// contentSelectors 主内容区域探测顺序，先命中者优先
var contentSelectors = []string{
	"main", "article", ".content", "#content", ".main", "#main",
	".post", ".entry", ".article-content", ".page-content",
}

// noiseElements 抽取网页正文时整体剔除的元素
var noiseElements = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"header": true,
	"footer": true,
	"aside":  true,
}

// parseWebContent 解析网页 HTML：剔除噪音元素，优先定位主内容区域，
// 过滤短行，超限截断，并加上来源前缀行。URL 抽取器共用。
func parseWebContent(content []byte, url string) *types.Extraction {
	root, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		message := fmt.Sprintf("Error parsing HTML content from %s: %v", url, err)
		return types.FailedExtraction(err, message, url)
	}

	title := findTitle(root)
	if title == "" {
		title = url
	}

	removeElements(root, noiseElements)

	contentRoot := root
	for _, selector := range contentSelectors {
		if node := selectOne(root, selector); node != nil {
			contentRoot = node
			break
		}
	}
	if contentRoot == root {
		if body := findElement(root, "body"); body != nil {
			contentRoot = body
		}
	}

	text := extractBlockText(contentRoot)

	// 过滤去噪：丢弃修剪后长度 ≤2 的行
	var cleanedLines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 2 {
			cleanedLines = append(cleanedLines, line)
		}
	}
	cleaned := strings.Join(cleanedLines, "\n")

	wasTruncated := false
	if len(cleaned) > maxWebContentChars {
		cleaned = cleaned[:maxWebContentChars] + truncationMarker
		wasTruncated = true
	}

	finalText := fmt.Sprintf("Content from %s:\n\n%s", url, cleaned)

	return &types.Extraction{
		Text: finalText,
		Spans: []types.SourceSpan{{
			PageNumber:   1,
			CharStart:    0,
			CharEnd:      len(finalText),
			Title:        title,
			URL:          url,
			WasTruncated: wasTruncated,
		}},
	}
}

// findTitle 查找 <title> 文本
func findTitle(root *html.Node) string {
	node := findElement(root, "title")
	if node == nil {
		return ""
	}
	return strings.TrimSpace(nodeText(node))
}

// findElement 深度优先查找第一个指定标签的元素
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// selectOne 支持标签名、.class 与 #id 三种形式的查找
func selectOne(n *html.Node, selector string) *html.Node {
	switch {
	case strings.HasPrefix(selector, "."):
		return findByAttr(n, "class", selector[1:])
	case strings.HasPrefix(selector, "#"):
		return findByAttr(n, "id", selector[1:])
	default:
		return findElement(n, selector)
	}
}

// findByAttr 按属性值查找元素；class 属性按空格分词匹配
func findByAttr(n *html.Node, key, value string) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key != key {
				continue
			}
			if key == "class" {
				for _, cls := range strings.Fields(attr.Val) {
					if cls == value {
						return n
					}
				}
			} else if attr.Val == value {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByAttr(c, key, value); found != nil {
			return found
		}
	}
	return nil
}

// removeElements 从树中摘除指定标签的子树
func removeElements(n *html.Node, tags map[string]bool) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode && tags[c.Data] {
			n.RemoveChild(c)
			continue
		}
		removeElements(c, tags)
	}
}

// blockElements 文本抽取时产生换行的块级元素
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "section": true, "article": true,
}

// extractBlockText 抽取文本，块级元素边界转为换行
func extractBlockText(n *html.Node) string {
	var textBuilder strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			trimmed := strings.TrimSpace(node.Data)
			if trimmed != "" {
				textBuilder.WriteString(trimmed)
				textBuilder.WriteString("\n")
			}
			return
		}
		if node.Type == html.ElementNode && blockElements[node.Data] {
			textBuilder.WriteString("\n")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return textBuilder.String()
}

// nodeText 拼接节点下全部文本
func nodeText(n *html.Node) string {
	var textBuilder strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			textBuilder.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return textBuilder.String()
}
