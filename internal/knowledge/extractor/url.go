package extractor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
)

// urlFetchTimeout 网页抓取超时
const urlFetchTimeout = 60 * time.Second

// browserHeaders 模拟浏览器的请求头，降低被站点拒绝的概率
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Cache-Control":             "max-age=0",
}

// URLExtractor 网页抽取器。抓取失败（超时、连接、TLS、HTTP 错误）
// 一律转为带内错误结果，不向调用方抛出。TLS 校验失败时关闭校验
// 重试一次。
type URLExtractor struct {
	client         *http.Client
	insecureClient *http.Client
}

// NewURLExtractor 创建网页抽取器
func NewURLExtractor() *URLExtractor {
	return &URLExtractor{
		client: &http.Client{
			Timeout: urlFetchTimeout,
		},
		insecureClient: &http.Client{
			Timeout: urlFetchTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// Extract 抓取并解析网页内容
func (e *URLExtractor) Extract(ctx context.Context, input string) *types.Extraction {
	resp, err := e.fetch(ctx, e.client, input)
	if err != nil {
		if isCertificateError(err) {
			// TLS 校验失败，关闭校验重试一次
			resp, err = e.fetch(ctx, e.insecureClient, input)
			if err != nil {
				message := fmt.Sprintf("Error fetching content from %s (SSL retry failed): %v", input, err)
				return types.FailedExtraction(err, message, input)
			}
		} else {
			return types.FailedExtraction(err, fetchErrorMessage(input, err), input)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		err := fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
		message := fmt.Sprintf("HTTP error %d fetching content from %s", resp.StatusCode, input)
		return types.FailedExtraction(err, message, input)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		message := fmt.Sprintf("Error reading content from %s: %v", input, err)
		return types.FailedExtraction(err, message, input)
	}

	extraction := parseWebContent(body, input)
	if extraction.Failed() {
		return extraction
	}

	// 声明的内容类型不是 HTML 时仍尝试解析，但加警告行
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		warning := fmt.Sprintf("Warning: Content type '%s' may not be HTML. Attempting to parse anyway.\n\n", contentType)
		extraction.Text = warning + extraction.Text
		extraction.Spans[0].CharEnd = len(extraction.Text)
	}

	return extraction
}

// fetch 发起带浏览器头的 GET 请求
func (e *URLExtractor) fetch(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}
	return client.Do(req)
}

// isCertificateError 判断错误是否源于 TLS 证书校验失败
func isCertificateError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}
	var invalidCert x509.CertificateInvalidError
	return errors.As(err, &invalidCert)
}

// fetchErrorMessage 区分超时与连接错误，生成对应错误正文
func fetchErrorMessage(url string, err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("Timeout error fetching content from %s: %v", url, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Sprintf("Connection error fetching content from %s: %v", url, err)
	}
	return fmt.Sprintf("Request error fetching content from %s: %v", url, err)
}

// SupportedTypes 返回支持的来源类型
func (e *URLExtractor) SupportedTypes() []types.FileType {
	return []types.FileType{types.FileTypeURL}
}
