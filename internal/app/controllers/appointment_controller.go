package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
)

// AppointmentController 献血预约
type AppointmentController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAppointmentController 创建献血预约控制器
func NewAppointmentController(ctx *gin.Context, container *container.ServiceContainer) *AppointmentController {
	return &AppointmentController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleAppointmentFunc 返回一个处理献血预约请求的Gin处理函数
func HandleAppointmentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAppointmentController(ctx, container)

		switch method {
		case "createAppointment":
			controller.CreateAppointment()
		case "listAppointments":
			controller.ListAppointments()
		case "getAppointment":
			controller.GetAppointment()
		case "rescheduleAppointment":
			controller.RescheduleAppointment()
		case "updateAppointmentStatus":
			controller.UpdateAppointmentStatus()
		default:
			unknownMethod(ctx)
		}
	}
}

func (c *AppointmentController) service() services.InterfaceAppointmentService {
	return c.Container.GetService("appointment").(services.InterfaceAppointmentService)
}

// 1. CreateAppointment 创建预约
// @Summary      Create Appointment
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        request body services.CreateAppointmentInput true "Appointment"
// @Success      201  {object}  SuccessResponse{data=models.Appointment}
// @Failure      400  {object}  ErrorResponse
// @Router       /appointments [post]
// @Security     BearerAuth
func (c *AppointmentController) CreateAppointment() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var req services.CreateAppointmentInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	appointment, err := c.service().CreateAppointment(c.Ctx.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, "Appointment created successfully", appointment)
}

// 2. ListAppointments 预约列表，普通用户只能看到自己的预约
// @Summary      List Appointments
// @Tags         Appointment
// @Produce      json
// @Param        page       query  int     false  "Page number"
// @Param        limit      query  int     false  "Page size"
// @Param        status     query  string  false  "scheduled, completed, cancelled, rescheduled"
// @Param        startDate  query  string  false  "YYYY-MM-DD"
// @Param        endDate    query  string  false  "YYYY-MM-DD, inclusive"
// @Param        userId     query  int     false  "Admin only"
// @Param        sortOrder  query  string  false  "asc or desc"
// @Success      200  {object}  SuccessResponse{data=services.AppointmentListResult}
// @Router       /appointments [get]
// @Security     BearerAuth
func (c *AppointmentController) ListAppointments() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var filter services.AppointmentFilter
	if !bindQuery(c.Ctx, &filter) {
		return
	}

	result, err := c.service().ListAppointments(c.Ctx.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Appointments fetched successfully", result)
}

// 3. GetAppointment 预约详情
// @Summary      Get Appointment
// @Tags         Appointment
// @Produce      json
// @Param        appointmentId  path  int  true  "Appointment ID"
// @Success      200  {object}  SuccessResponse{data=models.Appointment}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /appointments/{appointmentId} [get]
// @Security     BearerAuth
func (c *AppointmentController) GetAppointment() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "appointmentId")
	if !ok {
		return
	}

	appointment, err := c.service().GetAppointment(c.Ctx.Request.Context(), actor, id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, appointment)
}

// 4. RescheduleAppointment 预约改期
// @Summary      Reschedule Appointment
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        appointmentId  path  int  true  "Appointment ID"
// @Param        request body services.RescheduleAppointmentInput true "New date"
// @Success      200  {object}  SuccessResponse{data=models.Appointment}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /appointments/{appointmentId}/reschedule [put]
// @Security     BearerAuth
func (c *AppointmentController) RescheduleAppointment() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "appointmentId")
	if !ok {
		return
	}
	var req services.RescheduleAppointmentInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	appointment, err := c.service().RescheduleAppointment(c.Ctx.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Appointment rescheduled successfully", appointment)
}

// 5. UpdateAppointmentStatus 更新预约状态
// @Summary      Update Appointment Status
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        appointmentId  path  int  true  "Appointment ID"
// @Param        request body services.AppointmentStatusInput true "New status"
// @Success      200  {object}  SuccessResponse{data=models.Appointment}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /appointments/{appointmentId}/status [put]
// @Security     BearerAuth
func (c *AppointmentController) UpdateAppointmentStatus() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "appointmentId")
	if !ok {
		return
	}
	var req services.AppointmentStatusInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	appointment, err := c.service().UpdateAppointmentStatus(c.Ctx.Request.Context(), actor, id, req.Status)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Appointment status updated successfully", appointment)
}
