package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/app/middleware"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
)

// RefreshTokenCookie 浏览器端保存刷新令牌的 cookie 名称
const RefreshTokenCookie = "refreshToken"

// InterfaceAuthController 定义认证控制器接口
type InterfaceAuthController interface {
	Register()
	VerifyEmail()
	Login()
	Refresh()
	Logout()
	Me()
}

// AuthController 处理身份验证请求
type AuthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAuthController 创建一个新的认证控制器
func NewAuthController(ctx *gin.Context, container *container.ServiceContainer) *AuthController {
	return &AuthController{
		Ctx:       ctx,
		Container: container,
	}
}

// RefreshRequest 刷新令牌请求，未提供时读取 cookie
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// HandleAuthFunc 返回一个处理认证请求的Gin处理函数
func HandleAuthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAuthController(ctx, container)

		switch method {
		case "register":
			controller.Register()
		case "verifyEmail":
			controller.VerifyEmail()
		case "login":
			controller.Login()
		case "refresh":
			controller.Refresh()
		case "logout":
			controller.Logout()
		case "me":
			controller.Me()
		default:
			unknownMethod(ctx)
		}
	}
}

func (c *AuthController) service() services.InterfaceAuthService {
	return c.Container.GetService("auth").(services.InterfaceAuthService)
}

// 1. Register 用户注册
// @Summary      Register
// @Description  Register a new user account; a verification link is sent by email
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body services.RegisterInput true "Registration data"
// @Success      201  {object}  SuccessResponse{data=models.User}
// @Failure      400  {object}  ErrorResponse
// @Router       /auth/register [post]
func (c *AuthController) Register() {
	var req services.RegisterInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	user, err := c.service().Register(c.Ctx.Request.Context(), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, "User registered successfully, please check your email to verify your account", user)
}

// 2. VerifyEmail 验证邮箱
// @Summary      Verify Email
// @Tags         Auth
// @Produce      json
// @Param        token  path  string  true  "Verification token"
// @Success      200  {object}  SuccessResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /auth/verify-email/{token} [get]
func (c *AuthController) VerifyEmail() {
	if err := c.service().VerifyEmail(c.Ctx.Request.Context(), c.Ctx.Param("token")); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.SuccessWithMessage(c.Ctx, "Email verified successfully", nil)
}

// 3. Login 用户登录
// @Summary      Login
// @Description  Authenticate with username and password. Tokens are returned in the body and set as httpOnly cookies.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body services.LoginInput true "Credentials"
// @Success      200  {object}  SuccessResponse{data=services.LoginResult}
// @Failure      401  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Router       /auth/login [post]
func (c *AuthController) Login() {
	var req services.LoginInput
	if !bindJSON(c.Ctx, &req) {
		return
	}

	result, err := c.service().Login(c.Ctx.Request.Context(), req)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}

	c.setTokenCookies(result.TokenPair)
	response.SuccessWithMessage(c.Ctx, "Login successful", result)
}

// 4. Refresh 刷新令牌
// @Summary      Refresh Tokens
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Refresh token, falls back to the refreshToken cookie"
// @Success      200  {object}  SuccessResponse{data=services.LoginResult}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/refresh [post]
func (c *AuthController) Refresh() {
	var req RefreshRequest
	_ = c.Ctx.ShouldBindJSON(&req)
	if req.RefreshToken == "" {
		req.RefreshToken, _ = c.Ctx.Cookie(RefreshTokenCookie)
	}
	if req.RefreshToken == "" {
		response.FailWithMessage(c.Ctx, code.ErrTokenInvalid, "refresh token is required")
		return
	}

	result, err := c.service().Refresh(c.Ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}

	c.setTokenCookies(result.TokenPair)
	response.SuccessWithMessage(c.Ctx, "Token refreshed successfully", result)
}

// 5. Logout 注销
// @Summary      Logout
// @Description  Revoke the current access token and clear auth cookies
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/logout [post]
// @Security     BearerAuth
func (c *AuthController) Logout() {
	if err := c.service().Logout(c.Ctx.Request.Context(), middleware.CurrentClaims(c.Ctx)); err != nil {
		response.Error(c.Ctx, err)
		return
	}

	c.Ctx.SetSameSite(http.SameSiteStrictMode)
	c.Ctx.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
	c.Ctx.SetCookie(RefreshTokenCookie, "", -1, "/", "", false, true)
	response.SuccessWithMessage(c.Ctx, "Logout successful", nil)
}

// 6. Me 当前用户资料
// @Summary      Current User
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  SuccessResponse{data=models.User}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
// @Security     BearerAuth
func (c *AuthController) Me() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}

	user, err := c.service().GetProfile(c.Ctx.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, user)
}

func (c *AuthController) setTokenCookies(pair *services.TokenPair) {
	now := time.Now()
	secure := c.Container.GetConfig().EnvType == "SERVER"

	c.Ctx.SetSameSite(http.SameSiteStrictMode)
	c.Ctx.SetCookie(middleware.AccessTokenCookie, pair.AccessToken, int(pair.AccessExpiresAt.Sub(now).Seconds()), "/", "", secure, true)
	c.Ctx.SetCookie(RefreshTokenCookie, pair.RefreshToken, int(pair.RefreshExpiresAt.Sub(now).Seconds()), "/", "", secure, true)
}
