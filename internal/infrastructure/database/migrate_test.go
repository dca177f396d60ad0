package database

import (
	"testing"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestMigrateAndSeed(t *testing.T) {
	db := newSQLiteDB(t)
	require.NoError(t, Migrate(db, "auto"))
	require.NoError(t, Seed(db))
	// 第二次执行不会重复写入
	require.NoError(t, Seed(db))

	var provinces, bloodTypes int64
	db.Model(&models.Province{}).Count(&provinces)
	db.Model(&models.BloodType{}).Count(&bloodTypes)
	assert.Equal(t, int64(len(DefaultProvinces)), provinces)
	assert.Equal(t, int64(8), bloodTypes)

	var jakarta models.Province
	require.NoError(t, db.First(&jakarta, 31).Error)
	assert.Equal(t, "Jakarta", jakarta.Capital)
}

func TestMigrateDropRecreatesTables(t *testing.T) {
	db := newSQLiteDB(t)
	require.NoError(t, Migrate(db, "auto"))
	require.NoError(t, Seed(db))

	require.NoError(t, Migrate(db, "drop"))

	var provinces int64
	db.Model(&models.Province{}).Count(&provinces)
	assert.Zero(t, provinces)
}

func TestEnsureAdminExists(t *testing.T) {
	db := newSQLiteDB(t)
	require.NoError(t, AutoMigrate(db))
	cfg := &config.Config{DefaultAdminPassword: "s3cret"}

	require.NoError(t, EnsureAdminExists(db, cfg))
	require.NoError(t, EnsureAdminExists(db, cfg))

	var admins []models.User
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.True(t, admins[0].Verified)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admins[0].Password), []byte("s3cret")))
}
