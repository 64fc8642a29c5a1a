package service

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/knowledge/embedding"
	"github.com/docqa-project/docqa-backend/internal/knowledge/llm"
	"github.com/docqa-project/docqa-backend/internal/knowledge/retriever"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/response"
)

// Chat 基于已入库文档回答问题
func (s *DocQAService) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if req.Model == "" {
		req.Model = llm.DefaultChatModel
	}
	if req.EmbeddingModel == "" {
		req.EmbeddingModel = embedding.DefaultModel
	}
	if req.ChunkCount <= 0 {
		req.ChunkCount = retriever.DefaultTopK
	}
	if req.RerankerType == "" {
		req.RerankerType = string(types.RerankNone)
	}
	useCompression := true
	if req.UseCompression != nil {
		useCompression = *req.UseCompression
	}

	result, err := s.answer(c.Request.Context(), &types.AnswerRequest{
		Query:          req.Query,
		Model:          req.Model,
		EmbeddingModel: req.EmbeddingModel,
		ChunkCount:     req.ChunkCount,
		RerankerKind:   types.RerankKind(req.RerankerType),
		UseCompression: useCompression,
	})
	if err != nil {
		s.logger.Error("failed to answer query", zap.Error(err))
		response.InternalError(c, err.Error())
		return
	}

	c.JSON(200, ChatResponse{
		Answer:             result.Answer,
		Sources:            result.Sources,
		ModelUsed:          req.Model,
		EmbeddingModelUsed: req.EmbeddingModel,
		ChunkCount:         req.ChunkCount,
		ChunksUsed:         result.ChunksUsed,
		RerankerType:       req.RerankerType,
		CompressionUsed:    result.CompressionUsed,
		LanguageDetected:   result.LanguageDetected,
	})
}
