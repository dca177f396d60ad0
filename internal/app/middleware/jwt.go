package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
)

// 上下文中保存的认证信息
const (
	ContextUserID = "userID"
	ContextRole   = "role"
	ContextClaims = "claims"

	// AccessTokenCookie 浏览器端保存访问令牌的 cookie 名称
	AccessTokenCookie = "accessToken"
)

// RevocationChecker 判断令牌是否已注销
type RevocationChecker interface {
	IsRevoked(ctx context.Context, claims *services.JWTClaims) bool
}

var (
	jwtService services.InterfaceJWTService
	revocation RevocationChecker
)

// InitAuthMiddleware 初始化认证中间件，revocationChecker 可以为 nil
func InitAuthMiddleware(jwt services.InterfaceJWTService, revocationChecker RevocationChecker) {
	jwtService = jwt
	revocation = revocationChecker
}

// extractToken 优先从授权头读取，其次读取 cookie
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// Authentication 通用的认证中间件，校验访问令牌并把用户信息写入上下文
func Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			response.FailWithMessage(c, code.ErrTokenInvalid, "authorization token is required")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			response.FailWithMessage(c, code.ErrTokenInvalid, "invalid or expired token")
			c.Abort()
			return
		}

		if revocation != nil && revocation.IsRevoked(c.Request.Context(), claims) {
			response.Fail(c, code.ErrTokenRevoked)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireRoles 要求当前用户具有指定角色之一，需放在 Authentication 之后
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		response.FailWithMessage(c, code.ErrForbidden, "insufficient permissions: requires role "+strings.Join(roles, " or "))
		c.Abort()
	}
}

// AuthenticateAdmin 验证系统管理员权限
func AuthenticateAdmin() gin.HandlersChain {
	return gin.HandlersChain{Authentication(), RequireRoles(models.RoleAdmin)}
}

// AuthenticateUser 验证普通用户权限
func AuthenticateUser() gin.HandlersChain {
	return gin.HandlersChain{Authentication(), RequireRoles(models.RoleUser)}
}

// CurrentActor 从上下文读取当前用户
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return services.Actor{}, false
	}
	id, ok := userID.(uint)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{ID: id, Role: c.GetString(ContextRole)}, true
}

// CurrentClaims 从上下文读取令牌声明
func CurrentClaims(c *gin.Context) *services.JWTClaims {
	if value, ok := c.Get(ContextClaims); ok {
		if claims, ok := value.(*services.JWTClaims); ok {
			return claims
		}
	}
	return nil
}
