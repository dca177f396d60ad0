package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.Seed(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		EmergencyCreatePolicy:  config.EmergencyPolicyBlock,
		JWTSecretKey:           "access-secret",
		JWTRefreshSecretKey:    "refresh-secret",
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: 24 * time.Hour,
		LoginMaxAttempts:       3,
		LoginWindow:            15 * time.Minute,
		NotifyWorkers:          2,
		NotifyQueueSize:        10,
		MQTTTopic:              "bloodlink/test",
		MQTTQoS:                1,
		AppBaseURL:             "http://localhost:8080",
	}
}

func uintPtr(v uint) *uint    { return &v }
func strPtr(v string) *string { return &v }
func int64Ptr(v int64) *int64 { return &v }

func bloodTypeID(t *testing.T, db *gorm.DB, bloodType string) uint {
	t.Helper()
	var bt models.BloodType
	require.NoError(t, db.Where("type = ?", bloodType).First(&bt).Error)
	return bt.ID
}

func createUser(t *testing.T, db *gorm.DB, username string, provinceID *uint, role string) models.User {
	t.Helper()
	user := models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "x",
		Role:       role,
		Verified:   true,
		Name:       username,
		Phone:      "+6281200000" + username,
		ProvinceID: provinceID,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func addInventory(t *testing.T, db *gorm.DB, bloodTypeID, provinceID uint, quantity int) {
	t.Helper()
	require.NoError(t, db.Create(&models.BloodInventory{
		BloodTypeID: bloodTypeID,
		ProvinceID:  provinceID,
		Quantity:    quantity,
		ExpiryDate:  time.Now().AddDate(0, 0, 42),
	}).Error)
}

func countEmergencyRequests(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.EmergencyRequest{}).Count(&n).Error)
	return n
}

type notifyCall struct {
	BloodTypeID uint
	ProvinceID  uint
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (f *fakeNotifier) NotifyEligibleDonors(bloodTypeID, provinceID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{bloodTypeID, provinceID})
}

func (f *fakeNotifier) Calls() []notifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notifyCall(nil), f.calls...)
}

type fakeSender struct {
	mu       sync.Mutex
	sent     []Recipient
	messages []string
	failOn   map[uint]bool
}

func (f *fakeSender) Channel() string { return "fake" }

func (f *fakeSender) Send(_ context.Context, to Recipient, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[to.UserID] {
		return errors.New("delivery failed")
	}
	f.sent = append(f.sent, to)
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeSender) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func (f *fakeSender) SentTo() []uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]uint, 0, len(f.sent))
	for _, r := range f.sent {
		ids = append(ids, r.UserID)
	}
	return ids
}

type fakePublisher struct {
	mu     sync.Mutex
	events []DonorNotificationEvent
}

func (f *fakePublisher) PublishDonorNotificationEvent(event DonorNotificationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Events() []DonorNotificationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DonorNotificationEvent(nil), f.events...)
}
