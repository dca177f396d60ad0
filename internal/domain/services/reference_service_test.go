package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisServiceWithClient(client), mr
}

func TestReferenceLookups(t *testing.T) {
	db := newTestDB(t)
	svc := NewReferenceService(db, testConfig(), nil)
	ctx := context.Background()

	province, err := svc.FindProvinceByName(ctx, "DKI JAKARTA")
	require.NoError(t, err)
	assert.Equal(t, uint(31), province.ID)
	assert.Equal(t, "Jakarta", province.Capital)

	_, err = svc.FindProvinceByName(ctx, "dki jakarta")
	assert.True(t, IsKind(err, KindNotFound))

	bloodType, err := svc.FindBloodTypeByCode(ctx, "AB-")
	require.NoError(t, err)

	byID, err := svc.ResolveBloodType(ctx, "6")
	require.NoError(t, err)
	assert.Equal(t, bloodType.ID, byID.ID)

	_, err = svc.ResolveBloodType(ctx, "C+")
	assert.True(t, IsKind(err, KindNotFound))

	_, err = svc.GetProvince(ctx, 99)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestReferenceListsAreCached(t *testing.T) {
	db := newTestDB(t)
	cache, mr := newTestRedis(t)
	svc := NewReferenceService(db, testConfig(), cache)
	ctx := context.Background()

	provinces, err := svc.ListProvinces(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, provinces)
	assert.True(t, mr.Exists(provincesCacheKey))

	// later reads come from the cache even if the table changes underneath
	require.NoError(t, db.Create(&models.Province{ID: 99, Name: "NEW PROVINCE", Capital: "Somewhere"}).Error)
	cached, err := svc.ListProvinces(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, len(provinces))

	svc.InvalidateCache(ctx)
	assert.False(t, mr.Exists(provincesCacheKey))

	fresh, err := svc.ListProvinces(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, len(provinces)+1)
}

func TestReferenceCacheUnavailableFallsBackToDatabase(t *testing.T) {
	db := newTestDB(t)
	cache, mr := newTestRedis(t)
	mr.Close()

	svc := NewReferenceService(db, testConfig(), cache)
	bloodTypes, err := svc.ListBloodTypes(context.Background())
	require.NoError(t, err)
	assert.Len(t, bloodTypes, 8)
}

func TestRedisLoginCounterAndRevocation(t *testing.T) {
	cache, mr := newTestRedis(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := cache.IncrWithExpiry(ctx, "login_attempts:rina", testConfig().LoginWindow)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	assert.True(t, mr.TTL("login_attempts:rina") > 0)

	mr.FastForward(testConfig().LoginWindow)
	assert.False(t, mr.Exists("login_attempts:rina"))

	require.NoError(t, cache.RevokeToken(ctx, "jti-1", testConfig().AccessTokenExpiration))
	revoked, err := cache.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = cache.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}
