// Package testserver 在进程内启动完整的 HTTP 服务，供接口测试和压测使用
package testserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/m-istighfar/BE-M-Blood/internal/app/routes"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services/container"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AdminPassword 测试环境默认管理员密码
const AdminPassword = "admin-secret"

// Server 进程内服务
type Server struct {
	*httptest.Server
	DB        *gorm.DB
	Config    *config.Config
	Container *container.ServiceContainer
	Redis     *miniredis.Miniredis
}

// Envelope 统一响应结构
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// Config 测试配置，关闭定时提醒与 MQTT
func Config() *config.Config {
	return &config.Config{
		EnvType:                "LOCAL",
		AppBaseURL:             "http://localhost:8080",
		JWTSecretKey:           "test-access-secret",
		JWTRefreshSecretKey:    "test-refresh-secret",
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
		LoginMaxAttempts:       5,
		LoginWindow:            15 * time.Minute,
		DefaultAdminPassword:   AdminPassword,
		NotifyChannel:          services.ChannelLog,
		NotifyWorkers:          1,
		NotifyQueueSize:        16,
		EmergencyCreatePolicy:  config.EmergencyPolicyBlock,
		RateLimitPerSecond:     1000,
		RateLimitBurst:         1000,
		AuthRateLimitPerSecond: 1000,
		AuthRateLimitBurst:     1000,
	}
}

// New 创建 sqlite 内存库与 miniredis，并启动完整路由，opts 可在启动前修改配置
func New(tb testing.TB, opts ...func(*config.Config)) *Server {
	tb.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(tb, err)
	sqlDB, err := db.DB()
	require.NoError(tb, err)
	sqlDB.SetMaxOpenConns(1)

	cfg := Config()
	for _, opt := range opts {
		opt(cfg)
	}
	require.NoError(tb, database.AutoMigrate(db))
	require.NoError(tb, database.Seed(db))
	require.NoError(tb, database.EnsureAdminExists(db, cfg))

	mr := miniredis.RunT(tb)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	c := container.NewServiceContainer(db, cfg, container.Options{
		Redis:       services.NewRedisServiceWithClient(client),
		Sender:      services.LogSender{},
		DisableMQTT: true,
	})
	srv := httptest.NewServer(routes.SetupRouter(c))

	tb.Cleanup(func() {
		srv.Close()
		c.Shutdown()
		client.Close()
		sqlDB.Close()
	})

	return &Server{Server: srv, DB: db, Config: cfg, Container: c, Redis: mr}
}

// Do 发送 JSON 请求并解析响应
func (s *Server) Do(tb testing.TB, method, path, token string, body interface{}) (int, Envelope) {
	tb.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(tb, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(tb, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(tb, err)
	defer resp.Body.Close()

	var env Envelope
	require.NoError(tb, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

// Login 登录并返回访问令牌
func (s *Server) Login(tb testing.TB, username, password string) string {
	tb.Helper()
	status, env := s.Do(tb, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(tb, http.StatusOK, status, env.Error)

	var result struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(tb, json.Unmarshal(env.Data, &result))
	require.NotEmpty(tb, result.AccessToken)
	return result.AccessToken
}

// LoginAdmin 以默认管理员登录
func (s *Server) LoginAdmin(tb testing.TB) string {
	tb.Helper()
	return s.Login(tb, database.DefaultAdminUsername, AdminPassword)
}
