package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
)

// HelpOfferController 志愿献血登记
type HelpOfferController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewHelpOfferController 创建志愿献血登记控制器
func NewHelpOfferController(ctx *gin.Context, container *container.ServiceContainer) *HelpOfferController {
	return &HelpOfferController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleHelpOfferFunc 返回一个处理志愿献血登记请求的Gin处理函数
func HandleHelpOfferFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHelpOfferController(ctx, container)

		switch method {
		case "createHelpOffer":
			controller.CreateHelpOffer()
		case "listHelpOffers":
			controller.ListHelpOffers()
		case "getHelpOffer":
			controller.GetHelpOffer()
		case "updateHelpOffer":
			controller.UpdateHelpOffer()
		case "deleteHelpOffer":
			controller.DeleteHelpOffer()
		default:
			unknownMethod(ctx)
		}
	}
}

func (c *HelpOfferController) service() services.InterfaceHelpOfferService {
	return c.Container.GetService("help_offer").(services.InterfaceHelpOfferService)
}

// 1. CreateHelpOffer 登记志愿献血
// @Summary      Create Help Offer
// @Tags         HelpOffer
// @Accept       json
// @Produce      json
// @Param        request body services.CreateHelpOfferInput true "Help offer"
// @Success      201  {object}  SuccessResponse{data=models.HelpOffer}
// @Failure      400  {object}  ErrorResponse
// @Router       /help-offers [post]
// @Security     BearerAuth
func (c *HelpOfferController) CreateHelpOffer() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var req services.CreateHelpOfferInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	offer, err := c.service().CreateHelpOffer(c.Ctx.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, "Help offer created successfully", offer)
}

// 2. ListHelpOffers 志愿献血登记列表
// @Summary      List Help Offers
// @Tags         HelpOffer
// @Produce      json
// @Param        page                query  int     false  "Page number"
// @Param        limit               query  int     false  "Page size"
// @Param        bloodType           query  string  false  "Blood type id or code"
// @Param        isWillingToDonate   query  string  false  "true or false"
// @Param        canHelpInEmergency  query  string  false  "true or false"
// @Success      200  {object}  SuccessResponse{data=services.HelpOfferListResult}
// @Router       /help-offers [get]
// @Security     BearerAuth
func (c *HelpOfferController) ListHelpOffers() {
	var filter services.HelpOfferFilter
	if !bindQuery(c.Ctx, &filter) {
		return
	}

	result, err := c.service().ListHelpOffers(c.Ctx.Request.Context(), filter)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Help offers fetched successfully", result)
}

// 3. GetHelpOffer 登记详情
// @Summary      Get Help Offer
// @Tags         HelpOffer
// @Produce      json
// @Param        helpOfferId  path  int  true  "Help offer ID"
// @Success      200  {object}  SuccessResponse{data=models.HelpOffer}
// @Failure      404  {object}  ErrorResponse
// @Router       /help-offers/{helpOfferId} [get]
// @Security     BearerAuth
func (c *HelpOfferController) GetHelpOffer() {
	id, ok := parseIDParam(c.Ctx, "helpOfferId")
	if !ok {
		return
	}
	offer, err := c.service().GetHelpOffer(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, offer)
}

// 4. UpdateHelpOffer 更新登记
// @Summary      Update Help Offer
// @Tags         HelpOffer
// @Accept       json
// @Produce      json
// @Param        helpOfferId  path  int  true  "Help offer ID"
// @Param        request body services.UpdateHelpOfferInput true "Fields to change"
// @Success      200  {object}  SuccessResponse{data=models.HelpOffer}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /help-offers/{helpOfferId} [put]
// @Security     BearerAuth
func (c *HelpOfferController) UpdateHelpOffer() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "helpOfferId")
	if !ok {
		return
	}
	var req services.UpdateHelpOfferInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	offer, err := c.service().UpdateHelpOffer(c.Ctx.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Help offer updated successfully", offer)
}

// 5. DeleteHelpOffer 删除登记
// @Summary      Delete Help Offer
// @Tags         HelpOffer
// @Produce      json
// @Param        helpOfferId  path  int  true  "Help offer ID"
// @Success      200  {object}  SuccessResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /help-offers/{helpOfferId} [delete]
// @Security     BearerAuth
func (c *HelpOfferController) DeleteHelpOffer() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "helpOfferId")
	if !ok {
		return
	}
	if err := c.service().DeleteHelpOffer(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Help offer deleted successfully", nil)
}
