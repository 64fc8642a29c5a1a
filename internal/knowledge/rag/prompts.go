package rag

import (
	"fmt"

	"github.com/docqa-project/docqa-backend/internal/knowledge/language"
)

// englishPromptTemplate 英语问答模板
const englishPromptTemplate = `You are an AI assistant that answers questions based on the provided context.
Always provide accurate answers based on the context and include source references when possible.

Context:
%s

Question: %s

Instructions:
1. Answer the question based on the provided context
2. Be accurate and concise
3. If the context doesn't contain enough information to answer the question fully, say so
4. Reference specific documents or pages when relevant
5. Respond in English

Answer:`

// vietnamesePromptTemplate 越南语问答模板
const vietnamesePromptTemplate = `Bạn là một trợ lý AI hỗ trợ. Sử dụng ngữ cảnh được cung cấp để trả lời câu hỏi.
Nếu câu trả lời không có trong ngữ cảnh, hãy nói "Tôi không biết".
Luôn trả lời bằng tiếng Việt và tham khảo các nguồn cụ thể khi có thể.

Ngữ cảnh:
%s

Câu hỏi:
%s

Hướng dẫn:
1. Trả lời câu hỏi dựa trên ngữ cảnh được cung cấp
2. Hãy chính xác và ngắn gọn
3. Nếu ngữ cảnh không chứa đủ thông tin để trả lời đầy đủ câu hỏi, hãy nói rõ
4. Tham khảo các tài liệu hoặc trang cụ thể khi có liên quan
5. Trả lời bằng tiếng Việt

Trả lời:`

// summaryPromptTemplate 上下文压缩摘要模板
const summaryPromptTemplate = `Please summarize the following text, keeping the most important information:

%s

Summary:`

// BuildPrompt 按语言组装问答 prompt
func BuildPrompt(lang language.Language, context, question string) string {
	if lang == language.Vietnamese {
		return fmt.Sprintf(vietnamesePromptTemplate, context, question)
	}
	return fmt.Sprintf(englishPromptTemplate, context, question)
}

// BuildSummaryPrompt 组装压缩摘要 prompt
func BuildSummaryPrompt(text string) string {
	return fmt.Sprintf(summaryPromptTemplate, text)
}
