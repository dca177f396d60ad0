package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
)

// BloodDriveController 献血活动公告
type BloodDriveController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewBloodDriveController 创建献血活动控制器
func NewBloodDriveController(ctx *gin.Context, container *container.ServiceContainer) *BloodDriveController {
	return &BloodDriveController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleBloodDriveFunc 返回一个处理献血活动请求的Gin处理函数
func HandleBloodDriveFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewBloodDriveController(ctx, container)

		switch method {
		case "createBloodDrive":
			controller.CreateBloodDrive()
		case "listBloodDrives":
			controller.ListBloodDrives()
		case "getBloodDrive":
			controller.GetBloodDrive()
		case "updateBloodDrive":
			controller.UpdateBloodDrive()
		case "deleteBloodDrive":
			controller.DeleteBloodDrive()
		default:
			unknownMethod(ctx)
		}
	}
}

func (c *BloodDriveController) service() services.InterfaceBloodDriveService {
	return c.Container.GetService("blood_drive").(services.InterfaceBloodDriveService)
}

// 1. CreateBloodDrive 发布献血活动
// @Summary      Create Blood Drive
// @Description  Admin only. Volunteers in the drive's province receive an alert.
// @Tags         BloodDrive
// @Accept       json
// @Produce      json
// @Param        request body services.CreateBloodDriveInput true "Blood drive"
// @Success      201  {object}  SuccessResponse{data=models.BloodDrive}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /blood-drives [post]
// @Security     BearerAuth
func (c *BloodDriveController) CreateBloodDrive() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var req services.CreateBloodDriveInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	drive, err := c.service().CreateBloodDrive(c.Ctx.Request.Context(), actor, req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, "Blood drive created successfully", drive)
}

// 2. ListBloodDrives 献血活动列表
// @Summary      List Blood Drives
// @Tags         BloodDrive
// @Produce      json
// @Param        page           query  int     false  "Page number"
// @Param        limit          query  int     false  "Page size"
// @Param        institute      query  string  false  "Institute contains"
// @Param        designation    query  string  false  "Designation contains"
// @Param        provinceName   query  string  false  "Province name contains"
// @Param        scheduledDate  query  string  false  "Day of the drive (YYYY-MM-DD)"
// @Param        searchBy       query  string  false  "all, institute, designation or provinceName"
// @Param        query          query  string  false  "Search text"
// @Param        orderBy        query  string  false  "field:asc|desc"
// @Success      200  {object}  SuccessResponse{data=services.BloodDriveListResult}
// @Router       /blood-drives [get]
func (c *BloodDriveController) ListBloodDrives() {
	var filter services.BloodDriveFilter
	if !bindQuery(c.Ctx, &filter) {
		return
	}

	result, err := c.service().ListBloodDrives(c.Ctx.Request.Context(), filter)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Blood drives fetched successfully", result)
}

// 3. GetBloodDrive 献血活动详情
// @Summary      Get Blood Drive
// @Tags         BloodDrive
// @Produce      json
// @Param        bloodDriveId  path  int  true  "Blood drive ID"
// @Success      200  {object}  SuccessResponse{data=models.BloodDrive}
// @Failure      404  {object}  ErrorResponse
// @Router       /blood-drives/{bloodDriveId} [get]
func (c *BloodDriveController) GetBloodDrive() {
	id, ok := parseIDParam(c.Ctx, "bloodDriveId")
	if !ok {
		return
	}
	drive, err := c.service().GetBloodDrive(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Blood drive fetched successfully", drive)
}

// 4. UpdateBloodDrive 更新献血活动
// @Summary      Update Blood Drive
// @Tags         BloodDrive
// @Accept       json
// @Produce      json
// @Param        bloodDriveId  path  int  true  "Blood drive ID"
// @Param        request body services.UpdateBloodDriveInput true "Fields to change"
// @Success      200  {object}  SuccessResponse{data=models.BloodDrive}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /blood-drives/{bloodDriveId} [put]
// @Security     BearerAuth
func (c *BloodDriveController) UpdateBloodDrive() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "bloodDriveId")
	if !ok {
		return
	}
	var req services.UpdateBloodDriveInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	drive, err := c.service().UpdateBloodDrive(c.Ctx.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Blood drive updated successfully", drive)
}

// 5. DeleteBloodDrive 删除献血活动
// @Summary      Delete Blood Drive
// @Tags         BloodDrive
// @Produce      json
// @Param        bloodDriveId  path  int  true  "Blood drive ID"
// @Success      200  {object}  SuccessResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /blood-drives/{bloodDriveId} [delete]
// @Security     BearerAuth
func (c *BloodDriveController) DeleteBloodDrive() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "bloodDriveId")
	if !ok {
		return
	}
	if err := c.service().DeleteBloodDrive(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Blood drive deleted successfully", nil)
}
