package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
)

// ListNotifications 献血者通知记录，普通用户只能看到发给自己的通知
// @Summary      List Donor Notifications
// @Tags         Notification
// @Produce      json
// @Param        page         query  int     false  "Page number"
// @Param        limit        query  int     false  "Page size"
// @Param        userId       query  int     false  "Admin only"
// @Param        bloodTypeId  query  int     false  "Blood type ID"
// @Param        provinceId   query  int     false  "Province ID"
// @Param        status       query  string  false  "sent or failed"
// @Param        jobId        query  string  false  "Notification job ID"
// @Param        kind         query  string  false  "emergency or blood_drive"
// @Success      200  {object}  SuccessResponse{data=services.NotificationListResult}
// @Failure      400  {object}  ErrorResponse
// @Router       /notifications [get]
// @Security     BearerAuth
func ListNotifications(container *container.ServiceContainer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actor, ok := currentActor(ctx)
		if !ok {
			return
		}
		var filter services.NotificationFilter
		if !bindQuery(ctx, &filter) {
			return
		}
		if actor.Role != models.RoleAdmin {
			filter.UserID = actor.ID
		}

		notificationService := container.GetService("notification").(*services.NotificationService)
		result, err := notificationService.ListNotifications(ctx.Request.Context(), filter)
		if err != nil {
			response.Error(ctx, err)
			return
		}
		response.Success(ctx, result)
	}
}

// ListOperationLogs 业务数据变更记录，仅管理员
// @Summary      List Operation Logs
// @Tags         Admin
// @Produce      json
// @Param        page           query  int     false  "Page number"
// @Param        limit          query  int     false  "Page size"
// @Param        resourceType   query  string  false  "emergency_request or blood_drive"
// @Param        resourceId     query  int     false  "Resource ID"
// @Param        userId         query  int     false  "Acting user ID"
// @Param        operationType  query  string  false  "create, update, status_change or delete"
// @Success      200  {object}  SuccessResponse{data=services.OperationLogListResult}
// @Failure      400  {object}  ErrorResponse
// @Router       /admin/operation-logs [get]
// @Security     BearerAuth
func ListOperationLogs(container *container.ServiceContainer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var filter services.OperationLogFilter
		if !bindQuery(ctx, &filter) {
			return
		}

		logs := container.GetService("operation_log").(services.InterfaceOperationLogService)
		result, err := logs.ListOperationLogs(ctx.Request.Context(), filter)
		if err != nil {
			response.Error(ctx, err)
			return
		}
		response.Success(ctx, result)
	}
}
