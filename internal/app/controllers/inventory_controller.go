package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
)

// InventoryController 血液库存
type InventoryController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewInventoryController 创建库存控制器
func NewInventoryController(ctx *gin.Context, container *container.ServiceContainer) *InventoryController {
	return &InventoryController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleInventoryFunc 返回一个处理库存请求的Gin处理函数
func HandleInventoryFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewInventoryController(ctx, container)

		switch method {
		case "createInventory":
			controller.CreateInventory()
		case "listInventory":
			controller.ListInventory()
		case "getInventory":
			controller.GetInventory()
		case "updateInventory":
			controller.UpdateInventory()
		case "deleteInventory":
			controller.DeleteInventory()
		default:
			unknownMethod(ctx)
		}
	}
}

func (c *InventoryController) service() services.InterfaceInventoryService {
	return c.Container.GetService("inventory").(services.InterfaceInventoryService)
}

// 1. CreateInventory 新增库存
// @Summary      Create Inventory
// @Description  Add a stock record; expiry defaults to 42 days from today
// @Tags         Inventory
// @Accept       json
// @Produce      json
// @Param        request body services.CreateInventoryInput true "Inventory"
// @Success      201  {object}  SuccessResponse{data=models.BloodInventory}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /inventory [post]
// @Security     BearerAuth
func (c *InventoryController) CreateInventory() {
	var req services.CreateInventoryInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	inventory, err := c.service().CreateInventory(c.Ctx.Request.Context(), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, "Inventory created successfully", inventory)
}

// 2. ListInventory 库存列表
// @Summary      List Inventory
// @Tags         Inventory
// @Produce      json
// @Param        page        query  int     false  "Page number"
// @Param        limit       query  int     false  "Page size"
// @Param        bloodType   query  string  false  "Blood type id or code"
// @Param        provinceId  query  int     false  "Province id"
// @Success      200  {object}  SuccessResponse{data=services.InventoryListResult}
// @Router       /inventory [get]
// @Security     BearerAuth
func (c *InventoryController) ListInventory() {
	var filter services.InventoryFilter
	if !bindQuery(c.Ctx, &filter) {
		return
	}

	result, err := c.service().ListInventory(c.Ctx.Request.Context(), filter)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, result)
}

// 3. GetInventory 库存详情
// @Summary      Get Inventory
// @Tags         Inventory
// @Produce      json
// @Param        id  path  int  true  "Inventory ID"
// @Success      200  {object}  SuccessResponse{data=models.BloodInventory}
// @Failure      404  {object}  ErrorResponse
// @Router       /inventory/{id} [get]
// @Security     BearerAuth
func (c *InventoryController) GetInventory() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}
	inventory, err := c.service().GetInventory(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, inventory)
}

// 4. UpdateInventory 更新库存
// @Summary      Update Inventory
// @Tags         Inventory
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "Inventory ID"
// @Param        request body services.UpdateInventoryInput true "Fields to change"
// @Success      200  {object}  SuccessResponse{data=models.BloodInventory}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /inventory/{id} [put]
// @Security     BearerAuth
func (c *InventoryController) UpdateInventory() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}
	var req services.UpdateInventoryInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	inventory, err := c.service().UpdateInventory(c.Ctx.Request.Context(), id, req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Inventory updated successfully", inventory)
}

// 5. DeleteInventory 删除库存
// @Summary      Delete Inventory
// @Tags         Inventory
// @Produce      json
// @Param        id  path  int  true  "Inventory ID"
// @Success      200  {object}  SuccessResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /inventory/{id} [delete]
// @Security     BearerAuth
func (c *InventoryController) DeleteInventory() {
	id, ok := parseIDParam(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().DeleteInventory(c.Ctx.Request.Context(), id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Inventory deleted successfully", nil)
}
