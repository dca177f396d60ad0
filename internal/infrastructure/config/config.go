package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	config     *Config
	configOnce sync.Once
)

// 紧急请求在库存不足时的处理策略
const (
	EmergencyPolicyBlock  = "block"  // 不创建请求，只通知献血者
	EmergencyPolicyNotify = "notify" // 创建请求，同时通知献血者
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Database
	DBDriver        string // mysql(默认) 或 postgres
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBMigrationMode string // 数据库迁移模式: "auto"(默认), "drop"(删除重建)
	DBSeed          bool   // 启动时写入省份和血型基础数据

	// 连接池，零值使用默认值
	DBMaxIdleConns    int
	DBMaxOpenConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
	DBLogLevel        string // silent, error, warn, info

	// Server
	ServerPort string
	AppBaseURL string // 用于生成邮箱验证链接

	// 接口限流，每秒请求数与突发数
	RateLimitPerSecond     float64
	RateLimitBurst         int
	AuthRateLimitPerSecond float64
	AuthRateLimitBurst     int

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT Authentication
	JWTSecretKey           string
	JWTRefreshSecretKey    string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration

	// 登录失败限制
	LoginMaxAttempts int
	LoginWindow      time.Duration

	// Admin
	DefaultAdminPassword string

	// MQTT配置，BrokerURL 为空时不发布通知事件
	MQTTBrokerURL string
	MQTTClientID  string
	MQTTUsername  string
	MQTTPassword  string
	MQTTQoS       int
	MQTTTopic     string

	// 消息通道: whatsapp, telegram, log
	NotifyChannel   string
	NotifyWorkers   int
	NotifyQueueSize int

	// Twilio WhatsApp
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Telegram
	TelegramBotToken string

	// SMTP，Host 为空时只记录验证链接
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// 紧急请求策略
	EmergencyCreatePolicy string

	// 预约提醒定时任务
	ReminderEnabled     bool
	ReminderHourlySpec  string
	ReminderMorningSpec string
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	envType := getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	if strings.ToUpper(envType) == "LOCAL" {
		prefix = "LOCAL_"
	} else if strings.ToUpper(envType) == "SERVER" {
		prefix = "SERVER_"
	} else {
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	fmt.Printf("Loading configuration for environment: %s\n", envType)

	policy := strings.ToLower(getEnv("EMERGENCY_CREATE_POLICY", EmergencyPolicyBlock))
	if policy != EmergencyPolicyBlock && policy != EmergencyPolicyNotify {
		fmt.Printf("Warning: Unknown EMERGENCY_CREATE_POLICY '%s', using '%s'\n", policy, EmergencyPolicyBlock)
		policy = EmergencyPolicyBlock
	}

	return &Config{
		EnvType: envType,

		DBDriver:        strings.ToLower(getEnv(prefix+"DB_DRIVER", getEnv("DB_DRIVER", "mysql"))),
		DBHost:          getEnvRequired(prefix + "DB_HOST"),
		DBUser:          getEnvRequired(prefix + "DB_USER"),
		DBPassword:      getEnvRequired(prefix + "DB_PASSWORD"),
		DBName:          getEnvRequired(prefix + "DB_NAME"),
		DBPort:          getEnvRequired(prefix + "DB_PORT"),
		DBMigrationMode: getEnv(prefix+"DB_MIGRATION_MODE", "auto"),
		DBSeed:          getEnvAsBool("DB_SEED", true),

		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		DBConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		DBLogLevel:        getEnv("DB_LOG_LEVEL", "warn"),

		ServerPort: getEnv(prefix+"SERVER_PORT", getEnv("SERVER_PORT", "8080")),
		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:8080"),

		RateLimitPerSecond:     getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:         getEnvAsInt("RATE_LIMIT_BURST", 20),
		AuthRateLimitPerSecond: getEnvAsFloat("AUTH_RATE_LIMIT_RPS", 2),
		AuthRateLimitBurst:     getEnvAsInt("AUTH_RATE_LIMIT_BURST", 5),

		RedisHost:     getEnv(prefix+"REDIS_HOST", getEnv("REDIS_HOST", "localhost")),
		RedisPort:     getEnv(prefix+"REDIS_PORT", getEnv("REDIS_PORT", "6379")),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecretKey:           getEnv("JWT_SECRET_KEY", "bloodlink-secret-key-change-in-production"),
		JWTRefreshSecretKey:    getEnv("JWT_REFRESH_SECRET_KEY", "bloodlink-refresh-secret-change-in-production"),
		AccessTokenExpiration:  getEnvAsDuration("ACCESS_TOKEN_EXPIRATION", 1*time.Hour),
		RefreshTokenExpiration: getEnvAsDuration("REFRESH_TOKEN_EXPIRATION", 7*24*time.Hour),

		LoginMaxAttempts: getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindow:      getEnvAsDuration("LOGIN_WINDOW", 15*time.Minute),

		DefaultAdminPassword: getEnvRequired("DEFAULT_ADMIN_PASSWORD"),

		MQTTBrokerURL: getEnv("MQTT_BROKER_URL", ""),
		MQTTClientID:  getEnv("MQTT_CLIENT_ID", "bloodlink_server"),
		MQTTUsername:  getEnv("MQTT_USERNAME", ""),
		MQTTPassword:  getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:       getEnvAsInt("MQTT_QOS", 1),
		MQTTTopic:     getEnv("MQTT_NOTIFICATION_TOPIC", "bloodlink/emergency/donor-notifications"),

		NotifyChannel:   strings.ToLower(getEnv("NOTIFY_CHANNEL", "whatsapp")),
		NotifyWorkers:   getEnvAsInt("NOTIFY_WORKERS", 2),
		NotifyQueueSize: getEnvAsInt("NOTIFY_QUEUE_SIZE", 100),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_WHATSAPP_FROM", "+14155238886"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@bloodlink.local"),

		EmergencyCreatePolicy: policy,

		ReminderEnabled:     getEnvAsBool("REMINDER_ENABLED", true),
		ReminderHourlySpec:  getEnv("REMINDER_HOURLY_SPEC", "* * * * *"),
		ReminderMorningSpec: getEnv("REMINDER_MORNING_SPEC", "0 7 * * *"),
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the database connection string for the configured driver
func (c *Config) GetDSN() string {
	if c.DBDriver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=Asia/Jakarta",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true"
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// 解析浮点数
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// 解析时长，如 "15m"、"24h"
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// 要求必须提供环境变量的辅助函数
func getEnvRequired(key string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	panic(fmt.Sprintf("Required environment variable %s is not set", key))
}
