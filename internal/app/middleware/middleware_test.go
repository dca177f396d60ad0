package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/services"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, claims *services.JWTClaims) bool {
	return r[claims.ID]
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *services.JWTService {
	return services.NewJWTService(&config.Config{
		JWTSecretKey:           "access",
		JWTRefreshSecretKey:    "refresh",
		AccessTokenExpiration:  time.Hour,
		RefreshTokenExpiration: time.Hour,
	})
}

func protectedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": actor.Role})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestAuthenticationAcceptsBearerAndCookie(t *testing.T) {
	jwt := newTestJWT()
	InitAuthMiddleware(jwt, revokedSet{})
	pair, err := jwt.GenerateTokenPair(&models.User{BaseModel: models.BaseModel{ID: 7}, Username: "u", Role: models.RoleUser})
	require.NoError(t, err)

	r := protectedRouter(Authentication())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"role":"user"}`, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: pair.AccessToken})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticationRejectsRevokedToken(t *testing.T) {
	jwt := newTestJWT()
	pair, err := jwt.GenerateTokenPair(&models.User{BaseModel: models.BaseModel{ID: 1}, Role: models.RoleUser})
	require.NoError(t, err)
	claims, err := jwt.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	InitAuthMiddleware(jwt, revokedSet{claims.ID: true})
	r := protectedRouter(Authentication())

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":100007`)
}

func TestRequireRoles(t *testing.T) {
	jwt := newTestJWT()
	InitAuthMiddleware(jwt, nil)
	userPair, err := jwt.GenerateTokenPair(&models.User{BaseModel: models.BaseModel{ID: 2}, Role: models.RoleUser})
	require.NoError(t, err)
	adminPair, err := jwt.GenerateTokenPair(&models.User{BaseModel: models.BaseModel{ID: 3}, Role: models.RoleAdmin})
	require.NoError(t, err)

	r := protectedRouter(AuthenticateAdmin()...)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+userPair.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+adminPair.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterRejectsAfterBurst(t *testing.T) {
	r := gin.New()
	r.GET("/limited", RateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2, LimitType: LimitByIP}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/limited", nil))
		statuses = append(statuses, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
	assert.Equal(t, http.StatusTooManyRequests, code.GetStatus(code.ErrTooManyRequests))
}

func TestLimiterStoreEvictsIdleEntries(t *testing.T) {
	store := newLimiterStore(RateLimiterConfig{Rate: 1, Burst: 1, ExpiryTime: time.Minute})
	start := time.Now()

	assert.True(t, store.allow("a", start))
	assert.False(t, store.allow("a", start))
	assert.True(t, store.allow("b", start))
	assert.Equal(t, 2, store.size())

	assert.True(t, store.allow("c", start.Add(2*time.Minute)))
	assert.Equal(t, 1, store.size())
}

func TestCacheServesHitsAndPurgesByPrefix(t *testing.T) {
	PurgeCache()
	calls := 0
	r := gin.New()
	r.GET("/api/provinces", Cache(CacheConfig{Expiration: time.Minute}), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/provinces?b=2&a=1", nil))
		assert.JSONEq(t, `{"calls":1}`, w.Body.String())
	}
	assert.Equal(t, 1, CacheStats()["total_items"])

	PurgeCacheByPrefix("/api/provinces")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/provinces?a=1&b=2", nil))
	assert.JSONEq(t, `{"calls":2}`, w.Body.String())
	assert.Zero(t, CleanExpiredCache())
}
