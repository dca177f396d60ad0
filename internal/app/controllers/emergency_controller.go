package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
)

// InterfaceEmergencyController 定义紧急请求控制器接口
type InterfaceEmergencyController interface {
	CreateEmergencyRequest()
	GetAllEmergencyRequests()
	GetEmergencyRequestByID()
	UpdateEmergencyRequest()
	DeleteEmergencyRequest()
	UpdateStatus()
	GetHistory()
}

// EmergencyController 处理紧急用血请求
type EmergencyController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewEmergencyController 创建一个新的紧急请求控制器
func NewEmergencyController(ctx *gin.Context, container *container.ServiceContainer) *EmergencyController {
	return &EmergencyController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleEmergencyFunc 返回一个处理紧急请求的Gin处理函数
func HandleEmergencyFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewEmergencyController(ctx, container)

		switch method {
		case "createEmergencyRequest":
			controller.CreateEmergencyRequest()
		case "getAllEmergencyRequests":
			controller.GetAllEmergencyRequests()
		case "getEmergencyRequestByID":
			controller.GetEmergencyRequestByID()
		case "updateEmergencyRequest":
			controller.UpdateEmergencyRequest()
		case "deleteEmergencyRequest":
			controller.DeleteEmergencyRequest()
		case "updateStatus":
			controller.UpdateStatus()
		case "getHistory":
			controller.GetHistory()
		default:
			unknownMethod(ctx)
		}
	}
}

func (c *EmergencyController) service() services.InterfaceEmergencyService {
	return c.Container.GetService("emergency").(services.InterfaceEmergencyService)
}

// 1. CreateEmergencyRequest 创建紧急用血请求
// @Summary      Create Emergency Request
// @Description  Create an emergency blood request. When the blood type is out of stock in the target province, eligible donors are notified in the background.
// @Tags         Emergency
// @Accept       json
// @Produce      json
// @Param        request body services.CreateEmergencyRequestInput true "Emergency request"
// @Success      201  {object}  SuccessResponse{data=models.EmergencyRequest}
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse  "Blood type unavailable, donors are being notified"
// @Router       /emergency/request [post]
// @Security     BearerAuth
func (c *EmergencyController) CreateEmergencyRequest() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}

	var req services.CreateEmergencyRequestInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	result, err := c.service().CreateEmergencyRequest(c.Ctx.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, result.Message, result.Request)
}

// 2. GetAllEmergencyRequests 分页查询紧急请求
// @Summary      List Emergency Requests
// @Description  List emergency requests with filters, sorting and pagination
// @Tags         Emergency
// @Produce      json
// @Param        page       query  int     false  "Page number, default 1"
// @Param        limit      query  int     false  "Page size, default 10, max 100"
// @Param        bloodType  query  string  false  "Blood type id or code"
// @Param        startDate  query  string  false  "YYYY-MM-DD"
// @Param        endDate    query  string  false  "YYYY-MM-DD, inclusive"
// @Param        provinceId query  int     false  "Requester province id"
// @Param        status     query  string  false  "pending, inProgress, fulfilled, expired, cancelled"
// @Param        searchBy   query  string  false  "location or additionalInfo"
// @Param        query      query  string  false  "Search text"
// @Param        sortBy     query  string  false  "requestDate, status, createdAt, id"
// @Param        sortOrder  query  string  false  "asc or desc"
// @Success      200  {object}  SuccessResponse{data=services.EmergencyRequestListResult}
// @Failure      400  {object}  ErrorResponse
// @Router       /emergency [get]
// @Security     BearerAuth
func (c *EmergencyController) GetAllEmergencyRequests() {
	var filter services.EmergencyRequestFilter
	if !bindQuery(c.Ctx, &filter) {
		return
	}

	result, err := c.service().GetAllEmergencyRequests(c.Ctx.Request.Context(), filter)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}

	response.SuccessWithMessage(c.Ctx, "Emergency requests fetched successfully", result)
}

// 3. GetEmergencyRequestByID 获取紧急请求详情
// @Summary      Get Emergency Request
// @Tags         Emergency
// @Produce      json
// @Param        emergencyRequestId  path  int  true  "Emergency request ID"
// @Success      200  {object}  SuccessResponse{data=models.EmergencyRequest}
// @Failure      404  {object}  ErrorResponse
// @Router       /emergency/{emergencyRequestId} [get]
// @Security     BearerAuth
func (c *EmergencyController) GetEmergencyRequestByID() {
	id, ok := parseIDParam(c.Ctx, "emergencyRequestId")
	if !ok {
		return
	}

	request, err := c.service().GetEmergencyRequestByID(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, request)
}

// 4. UpdateEmergencyRequest 更新紧急请求
// @Summary      Update Emergency Request
// @Description  Owner or admin may change additional info, blood type or location of an open request
// @Tags         Emergency
// @Accept       json
// @Produce      json
// @Param        emergencyRequestId  path  int  true  "Emergency request ID"
// @Param        request body services.UpdateEmergencyRequestInput true "Fields to change"
// @Success      200  {object}  SuccessResponse{data=models.EmergencyRequest}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /emergency/{emergencyRequestId} [put]
// @Security     BearerAuth
func (c *EmergencyController) UpdateEmergencyRequest() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "emergencyRequestId")
	if !ok {
		return
	}

	var req services.UpdateEmergencyRequestInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	request, err := c.service().UpdateEmergencyRequest(c.Ctx.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}

	response.SuccessWithMessage(c.Ctx, "Emergency request updated successfully", request)
}

// 5. DeleteEmergencyRequest 删除紧急请求
// @Summary      Delete Emergency Request
// @Tags         Emergency
// @Produce      json
// @Param        emergencyRequestId  path  int  true  "Emergency request ID"
// @Success      200  {object}  SuccessResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /emergency/{emergencyRequestId} [delete]
// @Security     BearerAuth
func (c *EmergencyController) DeleteEmergencyRequest() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "emergencyRequestId")
	if !ok {
		return
	}

	if err := c.service().DeleteEmergencyRequest(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}

	response.SuccessWithMessage(c.Ctx, "Emergency request deleted successfully", nil)
}

// 6. UpdateStatus 更新紧急请求状态
// @Summary      Update Emergency Request Status
// @Tags         Emergency
// @Accept       json
// @Produce      json
// @Param        emergencyRequestId  path  int  true  "Emergency request ID"
// @Param        request body services.UpdateStatusInput true "New status"
// @Success      200  {object}  SuccessResponse{data=models.EmergencyRequest}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /emergency/{emergencyRequestId}/status [put]
// @Security     BearerAuth
func (c *EmergencyController) UpdateStatus() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "emergencyRequestId")
	if !ok {
		return
	}

	var req services.UpdateStatusInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	request, err := c.service().UpdateStatus(c.Ctx.Request.Context(), actor, id, req.NewStatus)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}

	response.SuccessWithMessage(c.Ctx, "Emergency request status updated successfully", request)
}

// HistoryQuery 分页参数
type HistoryQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// 7. GetHistory 紧急请求变更记录
// @Summary      Emergency Request History
// @Description  Status changes, edits and creation of the request, newest first. Owner or admin only.
// @Tags         Emergency
// @Produce      json
// @Param        emergencyRequestId  path   int  true   "Emergency request ID"
// @Param        page                query  int  false  "Page number"
// @Param        limit               query  int  false  "Page size"
// @Success      200  {object}  SuccessResponse{data=services.OperationLogListResult}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /emergency/{emergencyRequestId}/history [get]
// @Security     BearerAuth
func (c *EmergencyController) GetHistory() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "emergencyRequestId")
	if !ok {
		return
	}
	var query HistoryQuery
	if !bindQuery(c.Ctx, &query) {
		return
	}

	history, err := c.service().GetEmergencyRequestHistory(c.Ctx.Request.Context(), actor, id, query.Page, query.Limit)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, history)
}
