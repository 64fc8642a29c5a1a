package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusSuccess / StatusError / StatusCompleted 是响应里 status
// 字段的取值。前端按该字段而非 HTTP 状态码分支。
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCompleted = "completed"
)

// Success 成功响应：{"status":"success", ...fields}
func Success(c *gin.Context, fields gin.H) {
	body := gin.H{"status": StatusSuccess}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// SuccessData 带 data 的成功响应：{"status":"success","data":...}
func SuccessData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"status": StatusSuccess,
		"data":   data,
	})
}

// SuccessMessage 带提示信息的成功响应
func SuccessMessage(c *gin.Context, message string, fields gin.H) {
	body := gin.H{"status": StatusSuccess, "message": message}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// Error 业务错误。维护类接口即使失败也回 200，由 status 字段
// 标识，照顾轮询前端。
func Error(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"status":  StatusError,
		"message": message,
	})
}

// ErrorFields 带附加字段的业务错误
func ErrorFields(c *gin.Context, message string, fields gin.H) {
	body := gin.H{"status": StatusError, "message": message}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// BadRequest 参数错误（400）
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status":  StatusError,
		"message": message,
	})
}

// InternalError 服务端错误（500）
func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":  StatusError,
		"message": message,
	})
}
