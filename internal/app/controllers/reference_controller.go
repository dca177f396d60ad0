package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
)

// ReferenceController 省份与血型基础数据
type ReferenceController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewReferenceController 创建基础数据控制器
func NewReferenceController(ctx *gin.Context, container *container.ServiceContainer) *ReferenceController {
	return &ReferenceController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleReferenceFunc 返回一个处理基础数据请求的Gin处理函数
func HandleReferenceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewReferenceController(ctx, container)

		switch method {
		case "listProvinces":
			controller.ListProvinces()
		case "getProvince":
			controller.GetProvince()
		case "listBloodTypes":
			controller.ListBloodTypes()
		case "getBloodType":
			controller.GetBloodType()
		default:
			unknownMethod(ctx)
		}
	}
}

func (c *ReferenceController) service() services.InterfaceReferenceService {
	return c.Container.GetService("reference").(services.InterfaceReferenceService)
}

// ListProvinces 省份列表
// @Summary      List Provinces
// @Tags         Reference
// @Produce      json
// @Success      200  {object}  SuccessResponse{data=[]models.Province}
// @Router       /provinces [get]
func (c *ReferenceController) ListProvinces() {
	provinces, err := c.service().ListProvinces(c.Ctx.Request.Context())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, provinces)
}

// GetProvince 省份详情
// @Summary      Get Province
// @Tags         Reference
// @Produce      json
// @Param        id  path  int  true  "Province ID"
// @Success      200  {object}  SuccessResponse{data=models.Province}
// @Failure      404  {object}  ErrorResponse
// @Router       /provinces/{id} [get]
func (c *ReferenceController) GetProvince() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}
	province, err := c.service().GetProvince(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, province)
}

// ListBloodTypes 血型列表
// @Summary      List Blood Types
// @Tags         Reference
// @Produce      json
// @Success      200  {object}  SuccessResponse{data=[]models.BloodType}
// @Router       /blood-types [get]
func (c *ReferenceController) ListBloodTypes() {
	bloodTypes, err := c.service().ListBloodTypes(c.Ctx.Request.Context())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, bloodTypes)
}

// GetBloodType 血型详情
// @Summary      Get Blood Type
// @Tags         Reference
// @Produce      json
// @Param        id  path  int  true  "Blood type ID"
// @Success      200  {object}  SuccessResponse{data=models.BloodType}
// @Failure      404  {object}  ErrorResponse
// @Router       /blood-types/{id} [get]
func (c *ReferenceController) GetBloodType() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}
	bloodType, err := c.service().GetBloodType(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, bloodType)
}
