package container

import (
	"context"
	"sync"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config

	// 基础服务
	redisService  services.InterfaceRedisService
	jwtService    services.InterfaceJWTService
	authzService  services.InterfaceAuthorizationService
	mailService   services.Mailer
	messageSender services.MessageSender

	// MQTT事件发布，未配置 Broker 时为 nil
	mqttService services.InterfaceMQTTService

	// 业务服务
	referenceService    services.InterfaceReferenceService
	inventoryService    services.InterfaceInventoryService
	notificationService *services.NotificationService
	emergencyService    services.InterfaceEmergencyService
	helpOfferService    services.InterfaceHelpOfferService
	appointmentService  services.InterfaceAppointmentService
	reminderService     *services.ReminderService
	authService         services.InterfaceAuthService
	userService         services.InterfaceUserService
	bloodDriveService   services.InterfaceBloodDriveService
	operationLogService services.InterfaceOperationLogService

	mu sync.RWMutex
}

// Options 可替换的外部依赖，未设置的字段按配置创建
type Options struct {
	Redis       services.InterfaceRedisService
	Sender      services.MessageSender
	Mailer      services.Mailer
	MQTT        services.InterfaceMQTTService
	DisableMQTT bool
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, opts Options) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
	}
	container.initializeServices(opts)
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices(opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化Redis服务，连接失败时不使用缓存、登录限制和令牌注销
	c.redisService = opts.Redis
	if c.redisService == nil {
		redisService := services.NewRedisService(c.config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisService.Ping(ctx); err != nil {
			Logger.Warning("Redis连接测试失败: %v，将不使用Redis", err)
		} else {
			c.redisService = redisService
		}
	}

	c.jwtService = services.NewJWTService(c.config)

	authz, err := services.NewAuthorizationService()
	if err != nil {
		panic("初始化授权服务失败: " + err.Error())
	}
	c.authzService = authz

	c.mailService = opts.Mailer
	if c.mailService == nil {
		c.mailService = services.NewMailService(c.config)
	}

	c.messageSender = opts.Sender
	if c.messageSender == nil {
		c.messageSender = services.NewMessageSender(c.config)
	}

	// 初始化MQTT服务并连接
	c.mqttService = opts.MQTT
	if c.mqttService == nil && !opts.DisableMQTT && c.config.MQTTBrokerURL != "" {
		mqttService := services.NewMQTTService(c.config)
		if err := mqttService.Connect(); err != nil {
			Logger.Error("MQTT服务连接失败: %v", err)
		}
		c.mqttService = mqttService
	}

	var publisher services.EventPublisher
	if c.mqttService != nil {
		publisher = c.mqttService
	}

	// 初始化业务服务
	c.referenceService = services.NewReferenceService(c.db, c.config, c.redisService)
	c.inventoryService = services.NewInventoryService(c.db, c.config, c.referenceService)
	c.operationLogService = services.NewOperationLogService(c.db)
	c.notificationService = services.NewNotificationService(c.db, c.config, c.messageSender, publisher)
	c.emergencyService = services.NewEmergencyService(c.db, c.config, c.referenceService, c.inventoryService, c.authzService, c.notificationService, c.operationLogService)
	c.bloodDriveService = services.NewBloodDriveService(c.db, c.config, c.referenceService, c.notificationService, c.operationLogService)
	c.helpOfferService = services.NewHelpOfferService(c.db, c.config, c.referenceService, c.authzService)
	c.appointmentService = services.NewAppointmentService(c.db, c.config, c.referenceService, c.authzService)
	c.reminderService = services.NewReminderService(c.db, c.config, c.messageSender)
	c.authService = services.NewAuthService(c.db, c.config, c.jwtService, c.redisService, c.referenceService, c.mailService)
	c.userService = services.NewUserService(c.db, c.config, c.referenceService)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "redis":
		return c.redisService
	case "jwt":
		return c.jwtService
	case "authorization":
		return c.authzService
	case "mail":
		return c.mailService
	case "sender":
		return c.messageSender
	case "mqtt":
		return c.mqttService
	case "reference":
		return c.referenceService
	case "inventory":
		return c.inventoryService
	case "notification":
		return c.notificationService
	case "emergency":
		return c.emergencyService
	case "help_offer":
		return c.helpOfferService
	case "appointment":
		return c.appointmentService
	case "reminder":
		return c.reminderService
	case "auth":
		return c.authService
	case "user":
		return c.userService
	case "blood_drive":
		return c.bloodDriveService
	case "operation_log":
		return c.operationLogService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	return c.db
}

// GetConfig 获取配置
func (c *ServiceContainer) GetConfig() *config.Config {
	return c.config
}

// Shutdown 停止定时任务，等待通知队列处理完毕并断开MQTT
func (c *ServiceContainer) Shutdown() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.reminderService.Stop()
	c.notificationService.Close()
	if c.mqttService != nil {
		c.mqttService.Disconnect()
	}
	Logger.Info("服务容器已关闭")
}
