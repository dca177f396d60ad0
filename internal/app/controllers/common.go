package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/app/middleware"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
)

// SuccessResponse 表示成功响应
type SuccessResponse struct {
	Code    int         `json:"code" example:"100000"`
	Message string      `json:"message" example:"成功"`
	Data    interface{} `json:"data"`
}

// ErrorResponse 表示错误响应
type ErrorResponse struct {
	Code  int    `json:"code" example:"101000"`
	Error string `json:"error" example:"user not found"`
}

// parseIDParam 读取路径中的数字ID，格式错误时直接写入错误响应
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.FailWithMessage(ctx, code.ErrValidation, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON 绑定请求体，失败时写入参数错误响应
func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		response.FailWithMessage(ctx, code.ErrBind, "invalid request parameters: "+err.Error())
		return false
	}
	return true
}

// bindQuery 绑定查询参数
func bindQuery(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindQuery(req); err != nil {
		response.FailWithMessage(ctx, code.ErrBind, "invalid query parameters: "+err.Error())
		return false
	}
	return true
}

// currentActor 读取当前登录用户，未登录时写入401
func currentActor(ctx *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.CurrentActor(ctx)
	if !ok {
		response.Unauthorized(ctx)
		return services.Actor{}, false
	}
	return actor, true
}

// unknownMethod 路由绑定了不存在的方法
func unknownMethod(ctx *gin.Context) {
	response.FailWithMessage(ctx, code.ErrBind, "无效的方法")
}
