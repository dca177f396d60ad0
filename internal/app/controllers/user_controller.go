package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
)

// UserController 处理用户管理相关的请求
type UserController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// AssignRoleRequest 修改角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin" example:"admin"`
}

// NewUserController 创建一个新的用户控制器
func NewUserController(ctx *gin.Context, container *container.ServiceContainer) *UserController {
	return &UserController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleUserFunc 返回一个处理用户请求的Gin处理函数
func HandleUserFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewUserController(ctx, container)

		switch method {
		case "getUsers":
			controller.GetUsers()
		case "getUser":
			controller.GetUser()
		case "createUser":
			controller.CreateUser()
		case "updateUser":
			controller.UpdateUser()
		case "assignRole":
			controller.AssignRole()
		case "deleteUser":
			controller.DeleteUser()
		case "updateProfile":
			controller.UpdateProfile()
		default:
			unknownMethod(ctx)
		}
	}
}

func (c *UserController) service() services.InterfaceUserService {
	return c.Container.GetService("user").(services.InterfaceUserService)
}

// 1. GetUsers 获取用户列表
// @Summary      List Users
// @Description  分页获取用户列表，可按用户名、邮箱、姓名搜索
// @Tags         Admin
// @Produce      json
// @Param        page    query  int     false  "页码, 默认为1"
// @Param        limit   query  int     false  "每页条数, 默认为10"
// @Param        search  query  string  false  "搜索关键词"
// @Success      200  {object}  SuccessResponse{data=services.UserListResult}
// @Failure      403  {object}  ErrorResponse
// @Router       /admin/users [get]
// @Security     BearerAuth
func (c *UserController) GetUsers() {
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.Ctx.DefaultQuery("limit", "10"))
	search := c.Ctx.Query("search")

	result, err := c.service().ListUsers(c.Ctx.Request.Context(), page, limit, search)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, result)
}

// 2. GetUser 获取用户详情
// @Summary      Get User
// @Tags         Admin
// @Produce      json
// @Param        userId  path  int  true  "用户ID"
// @Success      200  {object}  SuccessResponse{data=models.User}
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/users/{userId} [get]
// @Security     BearerAuth
func (c *UserController) GetUser() {
	id, ok := parseIDParam(c.Ctx, "userId")
	if !ok {
		return
	}

	user, err := c.service().GetUserByID(c.Ctx.Request.Context(), id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, user)
}

// 3. CreateUser 创建用户
// @Summary      Create User
// @Description  管理员直接创建已验证的账户
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body services.CreateUserInput true "用户信息"
// @Success      201  {object}  SuccessResponse{data=models.User}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /admin/users [post]
// @Security     BearerAuth
func (c *UserController) CreateUser() {
	var req services.CreateUserInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	user, err := c.service().CreateUser(c.Ctx.Request.Context(), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, "User created successfully", user)
}

// 4. UpdateUser 更新用户信息
// @Summary      Update User
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        userId  path  int  true  "用户ID"
// @Param        request body services.UpdateUserInput true "需要修改的字段"
// @Success      200  {object}  SuccessResponse{data=models.User}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /admin/users/{userId} [put]
// @Security     BearerAuth
func (c *UserController) UpdateUser() {
	id, ok := parseIDParam(c.Ctx, "userId")
	if !ok {
		return
	}
	c.update(id)
}

// 5. AssignRole 修改用户角色
// @Summary      Assign Role
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        userId  path  int  true  "用户ID"
// @Param        request body AssignRoleRequest true "角色"
// @Success      200  {object}  SuccessResponse{data=models.User}
// @Failure      400  {object}  ErrorResponse
// @Router       /admin/users/{userId}/role [put]
// @Security     BearerAuth
func (c *UserController) AssignRole() {
	id, ok := parseIDParam(c.Ctx, "userId")
	if !ok {
		return
	}
	var req AssignRoleRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	user, err := c.service().AssignRole(c.Ctx.Request.Context(), id, req.Role)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Role updated successfully", user)
}

// 6. DeleteUser 删除用户及其全部记录
// @Summary      Delete User
// @Tags         Admin
// @Produce      json
// @Param        userId  path  int  true  "用户ID"
// @Success      200  {object}  SuccessResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      412  {object}  ErrorResponse
// @Router       /admin/users/{userId} [delete]
// @Security     BearerAuth
func (c *UserController) DeleteUser() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(c.Ctx, "userId")
	if !ok {
		return
	}

	if err := c.service().DeleteUser(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "User deleted successfully", nil)
}

// 7. UpdateProfile 当前用户修改自己的资料
// @Summary      Update Profile
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body services.UpdateUserInput true "需要修改的字段"
// @Success      200  {object}  SuccessResponse{data=models.User}
// @Failure      400  {object}  ErrorResponse
// @Router       /auth/me [put]
// @Security     BearerAuth
func (c *UserController) UpdateProfile() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	c.update(actor.ID)
}

func (c *UserController) update(id uint) {
	var req services.UpdateUserInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	user, err := c.service().UpdateUser(c.Ctx.Request.Context(), id, req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "User updated successfully", user)
}
