package container

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestServiceContainerWiring(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{
		JWTSecretKey:          "a",
		JWTRefreshSecretKey:   "b",
		AccessTokenExpiration: time.Hour,
		NotifyWorkers:         1,
		NotifyQueueSize:       1,
		EmergencyCreatePolicy: config.EmergencyPolicyBlock,
		MQTTBrokerURL:         "tcp://127.0.0.1:1",
	}

	c := NewServiceContainer(db, cfg, Options{
		Redis:       services.NewRedisServiceWithClient(client),
		Sender:      services.LogSender{},
		DisableMQTT: true,
	})

	assert.Same(t, db, c.GetDB())
	assert.Same(t, cfg, c.GetConfig())
	assert.Nil(t, c.GetService("mqtt"))
	assert.Nil(t, c.GetService("unknown"))

	for _, name := range []string{"redis", "jwt", "authorization", "mail", "sender", "reference", "inventory",
		"notification", "emergency", "help_offer", "appointment", "reminder", "auth", "user", "blood_drive", "operation_log"} {
		assert.NotNil(t, c.GetService(name), name)
	}

	_, ok := c.GetService("emergency").(services.InterfaceEmergencyService)
	assert.True(t, ok)
	_, ok = c.GetService("auth").(services.InterfaceAuthService)
	assert.True(t, ok)
	_, ok = c.GetService("blood_drive").(services.InterfaceBloodDriveService)
	assert.True(t, ok)

	c.Shutdown()
}

func TestNewServiceContainerPanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() { NewServiceContainer(nil, &config.Config{}, Options{}) })
}
