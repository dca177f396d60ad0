package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockPool(t *testing.T) (*ConnectionPool, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})
	pool, err := Open(dialector, PoolOptions{MaxOpenConns: 20, MaxIdleConns: 50, LogLevel: logger.Silent})
	require.NoError(t, err)

	return pool, mock
}

func TestConnectionPoolStats(t *testing.T) {
	pool, mock := newMockPool(t)

	stats, err := pool.Stats()
	require.NoError(t, err)
	assert.Equal(t, 20, stats["max_open_connections"])
	assert.Contains(t, stats, "wait_duration")
	assert.Equal(t, 20, pool.Options.MaxIdleConns)
	assert.Equal(t, DefaultPoolOptions.ConnMaxLifetime, pool.Options.ConnMaxLifetime)

	require.NoError(t, pool.HealthCheck(context.Background()))

	mock.ExpectClose()
	require.NoError(t, pool.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionPoolWithTransactionCommits(t *testing.T) {
	pool, mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := pool.WithTransaction(func(tx *gorm.DB) error {
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionPoolWithTransactionRollsBack(t *testing.T) {
	pool, mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	errBoom := errors.New("boom")
	err := pool.WithTransaction(func(tx *gorm.DB) error {
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(&config.Config{DBMaxOpenConns: 5, DBLogLevel: "INFO"})
	assert.Equal(t, 5, opts.MaxOpenConns)
	assert.Equal(t, logger.Info, opts.LogLevel)

	opts = OptionsFromConfig(&config.Config{DBLogLevel: "verbose"}).withDefaults()
	assert.Equal(t, DefaultPoolOptions, opts)
}

func TestDialectorRejectsUnknownDriver(t *testing.T) {
	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	require.Error(t, err)

	d, err := Dialector(&config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
}
