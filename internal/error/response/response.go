package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
)

// Response 定义统一的成功响应格式
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 定义统一的失败响应格式
type ErrorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// CodedError 业务错误需要实现的接口，由 Error 转换为HTTP响应
type CodedError interface {
	error
	HTTPStatus() int
	BusinessCode() int
	PublicMessage() string
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    code.ErrSuccess,
		Message: code.GetMessage(code.ErrSuccess),
		Data:    data,
	})
}

// SuccessWithMessage 成功响应（自定义消息）
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    code.ErrSuccess,
		Message: message,
		Data:    data,
	})
}

// Created 资源创建成功响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    code.ErrSuccess,
		Message: message,
		Data:    data,
	})
}

// Fail 失败响应
func Fail(c *gin.Context, errorCode int) {
	c.JSON(code.GetStatus(errorCode), ErrorResponse{
		Code:  errorCode,
		Error: code.GetMessage(errorCode),
	})
}

// FailWithMessage 失败响应（自定义消息）
func FailWithMessage(c *gin.Context, errorCode int, message string) {
	c.JSON(code.GetStatus(errorCode), ErrorResponse{
		Code:  errorCode,
		Error: message,
	})
}

// Error 将服务层错误转换为响应，未知错误统一返回500
func Error(c *gin.Context, err error) {
	var coded CodedError
	if errors.As(err, &coded) {
		c.JSON(coded.HTTPStatus(), ErrorResponse{
			Code:  coded.BusinessCode(),
			Error: coded.PublicMessage(),
		})
		return
	}

	Logger.Error("请求 %s %s 处理失败: %v", c.Request.Method, c.Request.URL.Path, err)
	Fail(c, code.ErrUnknown)
}

// ParamError 参数错误响应
func ParamError(c *gin.Context, message string) {
	FailWithMessage(c, code.ErrValidation, message)
}

// ServerError 服务器错误响应
func ServerError(c *gin.Context) {
	Fail(c, code.ErrUnknown)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = code.GetMessage(code.ErrRecordNotFound)
	}
	FailWithMessage(c, code.ErrRecordNotFound, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context) {
	Fail(c, code.ErrTokenInvalid)
}

// Forbidden 无权访问响应
func Forbidden(c *gin.Context) {
	Fail(c, code.ErrForbidden)
}
