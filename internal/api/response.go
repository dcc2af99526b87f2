package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// 错误码
const (
	CodeSuccess = 0

	CodeGameNotFound  = 20001
	CodeGameFinished  = 20002
	CodeLaunchBlocked = 20003
	CodeInvalidParams = 20004

	CodeServerError = 50000
)

var codeMessages = map[int]string{
	CodeSuccess:       "success",
	CodeGameNotFound:  "牌局不存在",
	CodeGameFinished:  "牌局已结束",
	CodeLaunchBlocked: "终端模式不支持新开牌局",
	CodeInvalidParams: "参数校验失败",
	CodeServerError:   "服务器内部错误",
}

// Success 成功响应
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, status, code int) {
	message := codeMessages[code]
	if message == "" {
		message = "unknown error"
	}
	c.JSON(status, Response{
		Code:    code,
		Message: message,
	})
}
