package service

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docqa-project/docqa-backend/internal/pkg/response"
)

// Clear 清空向量库与上传文件。全量清库失败时自动降级为轻量
// 清库，两级都失败才报错。
func (s *DocQAService) Clear(c *gin.Context) {
	result := s.maintenance.ClearWithFallback(c.Request.Context())

	if !result.Success {
		response.ErrorFields(c, result.Error, gin.H{"details": result})
		return
	}

	if result.MethodUsed == "simple_clear" || result.MethodUsed == "no_database" {
		response.SuccessMessage(c, "Successfully cleared vector database using simple method",
			gin.H{"details": result})
		return
	}

	var cleared []string
	if result.VectorDBCleared {
		cleared = append(cleared, "vector database")
	}
	if result.UploadsCleared {
		cleared = append(cleared, "uploaded files")
	}

	message := "Successfully cleared: "
	if len(cleared) > 0 {
		message += strings.Join(cleared, " and ")
	} else {
		message += "database (was already empty)"
	}

	response.SuccessMessage(c, message, gin.H{"details": result})
}

// SimpleClear 轻量清库：只删数据，不动目录
func (s *DocQAService) SimpleClear(c *gin.Context) {
	result := s.maintenance.SimpleClear(c.Request.Context())

	if !result.Success {
		errMsg := result.Error
		if errMsg == "" {
			errMsg = "Unknown error"
		}
		response.ErrorFields(c, fmt.Sprintf("Simple clear failed: %s", errMsg),
			gin.H{"details": result})
		return
	}

	response.SuccessMessage(c, "Successfully cleared vector database using simple method",
		gin.H{"details": result})
}

// Status 返回向量库与上传目录的状态
func (s *DocQAService) Status(c *gin.Context) {
	response.SuccessData(c, s.maintenance.Status(c.Request.Context()))
}

// Inspect 返回登记库的表级诊断信息
func (s *DocQAService) Inspect(c *gin.Context) {
	response.SuccessData(c, s.maintenance.Inspect(c.Request.Context()))
}
