package routes

import (
	"time"

	_ "github.com/m-istighfar/BE-M-Blood/docs"
	"github.com/m-istighfar/BE-M-Blood/internal/app/controllers"
	"github.com/m-istighfar/BE-M-Blood/internal/app/middleware"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(serviceContainer *container.ServiceContainer) *gin.Engine {
	cfg := serviceContainer.GetConfig()

	// 初始化 Gin
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(metrics.GinMiddleware())

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.AppBaseURL)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// 初始化认证中间件
	jwtService := serviceContainer.GetService("jwt").(services.InterfaceJWTService)
	authService := serviceContainer.GetService("auth").(services.InterfaceAuthService)
	middleware.InitAuthMiddleware(jwtService, authService)

	// Swagger 文档与 Prometheus 指标
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	cfg := container.GetConfig()

	// API 路由根路径，按IP限流
	api := r.Group("/api")
	api.Use(middleware.IPRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst))

	registerPublicRoutes(api, container)
	registerAuthRoutes(api, container)
	registerEmergencyRoutes(api, container)
	registerInventoryRoutes(api, container)
	registerHelpOfferRoutes(api, container)
	registerAppointmentRoutes(api, container)
	registerBloodDriveRoutes(api, container)
	registerAdminRoutes(api, container)

	// 献血者通知记录
	api.GET("/notifications", middleware.Authentication(), controllers.ListNotifications(container))
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	health := controllers.NewHealthCheckController(container)

	// 健康检查路由
	api.GET("/ping", health.Ping)
	api.GET("/health", health.Ping)

	healthGroup := api.Group("/health")
	healthGroup.GET("/status", health.Status)
	healthGroup.GET("/cache-stats", append(middleware.AuthenticateAdmin(), health.CacheStats)...)
	healthGroup.DELETE("/cache", append(middleware.AuthenticateAdmin(), health.PurgeCache)...)

	// 省份与血型基础数据变化很少，响应缓存10分钟
	cache := middleware.Cache(middleware.CacheConfig{Expiration: 10 * time.Minute})
	api.GET("/provinces", cache, controllers.HandleReferenceFunc(container, "listProvinces"))
	api.GET("/provinces/:id", cache, controllers.HandleReferenceFunc(container, "getProvince"))
	api.GET("/blood-types", cache, controllers.HandleReferenceFunc(container, "listBloodTypes"))
	api.GET("/blood-types/:id", cache, controllers.HandleReferenceFunc(container, "getBloodType"))
}

// registerAuthRoutes 注册认证路由
func registerAuthRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	cfg := container.GetConfig()

	authGroup := api.Group("/auth")
	// 登录和注册按IP与路径组合限流
	authGroup.Use(middleware.CombinedRateLimiter(cfg.AuthRateLimitPerSecond, cfg.AuthRateLimitBurst))

	authGroup.POST("/register", controllers.HandleAuthFunc(container, "register"))
	authGroup.GET("/verify-email/:token", controllers.HandleAuthFunc(container, "verifyEmail"))
	authGroup.POST("/login", controllers.HandleAuthFunc(container, "login"))
	authGroup.POST("/refresh", controllers.HandleAuthFunc(container, "refresh"))

	session := authGroup.Group("")
	session.Use(middleware.Authentication())
	session.POST("/logout", controllers.HandleAuthFunc(container, "logout"))
	session.GET("/me", controllers.HandleAuthFunc(container, "me"))
	session.PUT("/me", controllers.HandleUserFunc(container, "updateProfile"))
}

// registerEmergencyRoutes 注册紧急用血请求路由
func registerEmergencyRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	emergencyGroup := api.Group("/emergency")

	emergencyGroup.POST("/request", append(middleware.AuthenticateUser(), controllers.HandleEmergencyFunc(container, "createEmergencyRequest"))...)

	session := emergencyGroup.Group("")
	session.Use(middleware.Authentication())
	session.GET("", controllers.HandleEmergencyFunc(container, "getAllEmergencyRequests"))
	session.GET("/:emergencyRequestId", controllers.HandleEmergencyFunc(container, "getEmergencyRequestByID"))
	session.PUT("/:emergencyRequestId", controllers.HandleEmergencyFunc(container, "updateEmergencyRequest"))
	session.DELETE("/:emergencyRequestId", controllers.HandleEmergencyFunc(container, "deleteEmergencyRequest"))
	session.PUT("/:emergencyRequestId/status", controllers.HandleEmergencyFunc(container, "updateStatus"))
	session.GET("/:emergencyRequestId/history", controllers.HandleEmergencyFunc(container, "getHistory"))
}

// registerInventoryRoutes 注册血液库存路由，写操作仅限管理员
func registerInventoryRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	inventoryGroup := api.Group("/inventory")
	inventoryGroup.Use(middleware.Authentication())

	inventoryGroup.GET("", controllers.HandleInventoryFunc(container, "listInventory"))
	inventoryGroup.GET("/:id", controllers.HandleInventoryFunc(container, "getInventory"))

	admin := inventoryGroup.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("", controllers.HandleInventoryFunc(container, "createInventory"))
	admin.PUT("/:id", controllers.HandleInventoryFunc(container, "updateInventory"))
	admin.DELETE("/:id", controllers.HandleInventoryFunc(container, "deleteInventory"))
}

// registerHelpOfferRoutes 注册志愿献血登记路由
func registerHelpOfferRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	helpOfferGroup := api.Group("/help-offers")
	helpOfferGroup.Use(middleware.Authentication())

	helpOfferGroup.POST("", controllers.HandleHelpOfferFunc(container, "createHelpOffer"))
	helpOfferGroup.GET("", controllers.HandleHelpOfferFunc(container, "listHelpOffers"))
	helpOfferGroup.GET("/:helpOfferId", controllers.HandleHelpOfferFunc(container, "getHelpOffer"))
	helpOfferGroup.PUT("/:helpOfferId", controllers.HandleHelpOfferFunc(container, "updateHelpOffer"))
	helpOfferGroup.DELETE("/:helpOfferId", controllers.HandleHelpOfferFunc(container, "deleteHelpOffer"))
}

// registerAppointmentRoutes 注册献血预约路由
func registerAppointmentRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	appointmentGroup := api.Group("/appointments")
	appointmentGroup.Use(middleware.Authentication())

	appointmentGroup.POST("", controllers.HandleAppointmentFunc(container, "createAppointment"))
	appointmentGroup.GET("", controllers.HandleAppointmentFunc(container, "listAppointments"))
	appointmentGroup.GET("/:appointmentId", controllers.HandleAppointmentFunc(container, "getAppointment"))
	appointmentGroup.PUT("/:appointmentId/reschedule", controllers.HandleAppointmentFunc(container, "rescheduleAppointment"))
	appointmentGroup.PUT("/:appointmentId/status", controllers.HandleAppointmentFunc(container, "updateAppointmentStatus"))
}

// registerBloodDriveRoutes 注册献血活动路由，公告对所有人公开，写操作仅限管理员
func registerBloodDriveRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	bloodDriveGroup := api.Group("/blood-drives")

	bloodDriveGroup.GET("", controllers.HandleBloodDriveFunc(container, "listBloodDrives"))
	bloodDriveGroup.GET("/:bloodDriveId", controllers.HandleBloodDriveFunc(container, "getBloodDrive"))

	admin := bloodDriveGroup.Group("")
	admin.Use(middleware.AuthenticateAdmin()...)
	admin.POST("", controllers.HandleBloodDriveFunc(container, "createBloodDrive"))
	admin.PUT("/:bloodDriveId", controllers.HandleBloodDriveFunc(container, "updateBloodDrive"))
	admin.DELETE("/:bloodDriveId", controllers.HandleBloodDriveFunc(container, "deleteBloodDrive"))
}

// registerAdminRoutes 注册管理员用户管理和操作记录路由
func registerAdminRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AuthenticateAdmin()...)

	adminGroup.GET("/users", controllers.HandleUserFunc(container, "getUsers"))
	adminGroup.POST("/users", controllers.HandleUserFunc(container, "createUser"))
	adminGroup.GET("/users/:userId", controllers.HandleUserFunc(container, "getUser"))
	adminGroup.PUT("/users/:userId", controllers.HandleUserFunc(container, "updateUser"))
	adminGroup.PUT("/users/:userId/role", controllers.HandleUserFunc(container, "assignRole"))
	adminGroup.DELETE("/users/:userId", controllers.HandleUserFunc(container, "deleteUser"))

	// 紧急请求和献血活动的变更记录
	adminGroup.GET("/operation-logs", controllers.ListOperationLogs(container))
}
