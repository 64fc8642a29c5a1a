package language

import (
	"regexp"
	"strings"
	"unicode"
)

// Language 检测结果
type Language string

const (
	// English 英语（默认）
	English Language = "english"
	// Vietnamese 越南语
	Vietnamese Language = "vietnamese"
)

// vietnameseDiacritics 越南语特有的带调字符集合
const vietnameseDiacritics = "àáạảãâầấậẩẫăằắặẳẵèéẹẻẽêềếệểễìíịỉĩòóọỏõôồốộổỗơờớợởỡùúụủũưừứựửữỳýỵỷỹđ"

// vietnameseFunctionWords 越南语高频虚词与常用词
var vietnameseFunctionWords = map[string]struct{}{
	"là": {}, "của": {}, "và": {}, "trong": {}, "có": {}, "được": {}, "với": {},
	"này": {}, "cho": {}, "từ": {}, "một": {}, "các": {}, "người": {}, "không": {},
	"tôi": {}, "bạn": {}, "gì": {}, "như": {}, "thế": {}, "nào": {}, "về": {},
	"khi": {}, "đã": {}, "sẽ": {}, "để": {}, "những": {}, "sau": {}, "theo": {},
	"cũng": {}, "lại": {}, "hay": {}, "nhiều": {}, "việc": {}, "qua": {}, "vào": {},
	"ra": {}, "lên": {}, "xuống": {}, "trên": {}, "dưới": {}, "ngoài": {}, "bên": {},
	"giữa": {}, "cần": {}, "phải": {}, "nên": {}, "sao": {}, "đây": {}, "đó": {},
	"kia": {}, "bao": {}, "mấy": {}, "đâu": {}, "ai": {}, "cái": {}, "con": {},
	"chiếc": {}, "làm": {}, "xem": {}, "biết": {}, "hiểu": {}, "nói": {}, "viết": {},
}

// vietnamesePhrasePatterns 越南语疑问短语
var vietnamesePhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(làm sao|thế nào|như thế nào|ra sao)`),
	regexp.MustCompile(`(là gì|gì là|cái gì)`),
	regexp.MustCompile(`(ở đâu|đâu là|tại đâu)`),
	regexp.MustCompile(`(khi nào|lúc nào|bao giờ)`),
	regexp.MustCompile(`(tại sao|vì sao|sao lại)`),
	regexp.MustCompile(`(có phải|phải không|đúng không)`),
}

var nonWordChars = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Detect 判定文本语言。三级启发式：带调字符占比超过 5%、
// 虚词占比超过 10%、出现越南语疑问短语，任一命中判为越南语，
// 否则判为英语。空文本判为英语。
func Detect(text string) Language {
	if strings.TrimSpace(text) == "" {
		return English
	}

	lower := strings.ToLower(text)

	diacriticCount := 0
	alphaCount := 0
	for _, r := range lower {
		if unicode.IsLetter(r) {
			alphaCount++
			if strings.ContainsRune(vietnameseDiacritics, r) {
				diacriticCount++
			}
		}
	}
	if alphaCount > 0 && float64(diacriticCount)/float64(alphaCount) > 0.05 {
		return Vietnamese
	}

	normalized := nonWordChars.ReplaceAllString(lower, " ")
	words := strings.Fields(normalized)
	if len(words) == 0 {
		return English
	}

	functionWordCount := 0
	for _, word := range words {
		if _, ok := vietnameseFunctionWords[word]; ok {
			functionWordCount++
		}
	}
	if float64(functionWordCount)/float64(len(words)) > 0.1 {
		return Vietnamese
	}

	for _, pattern := range vietnamesePhrasePatterns {
		if pattern.MatchString(lower) {
			return Vietnamese
		}
	}

	return English
}
