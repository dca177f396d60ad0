package routes_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/app/middleware"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/m-istighfar/BE-M-Blood/internal/test/testserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jakarta = 31

// registerVerified 注册并通过邮箱验证
func registerVerified(t *testing.T, s *testserver.Server, username string) string {
	t.Helper()

	status, env := s.Do(t, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"username":   username,
		"email":      username + "@example.com",
		"password":   "secret123",
		"name":       "Test " + username,
		"phone":      "+628123456789",
		"provinceId": jakarta,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	var user models.User
	require.NoError(t, s.DB.Where("username = ?", username).First(&user).Error)
	require.NotNil(t, user.VerificationToken)

	status, env = s.Do(t, http.MethodGet, "/api/auth/verify-email/"+*user.VerificationToken, "", nil)
	require.Equal(t, http.StatusOK, status, env.Error)

	return s.Login(t, username, "secret123")
}

func TestEmergencyRequestLifecycle(t *testing.T) {
	s := testserver.New(t)
	admin := s.LoginAdmin(t)
	token := registerVerified(t, s, "requester")

	// 无库存时只通知献血者，不创建请求
	status, env := s.Do(t, http.MethodPost, "/api/emergency/request", token, map[string]string{"bloodType": "A+"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, code.ErrBloodUnavailable, env.Code)

	status, env = s.Do(t, http.MethodPost, "/api/inventory", admin, map[string]interface{}{
		"bloodTypeId": 1,
		"provinceId":  jakarta,
		"quantity":    3,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = s.Do(t, http.MethodPost, "/api/emergency/request", token, map[string]string{
		"bloodType":      "A+",
		"additionalInfo": "surgery",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	assert.Equal(t, code.ErrSuccess, env.Code)

	var created models.EmergencyRequest
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, models.RequestPending, created.Status)
	assert.Equal(t, "Jakarta", created.Location)

	path := fmt.Sprintf("/api/emergency/%d", created.ID)

	status, env = s.Do(t, http.MethodGet, "/api/emergency?status=pending", token, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	var list struct {
		Requests     []models.EmergencyRequest `json:"requests"`
		TotalRecords int64                     `json:"total_records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.TotalRecords)

	status, env = s.Do(t, http.MethodPut, path+"/status", token, map[string]string{"newStatus": "inProgress"})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = s.Do(t, http.MethodPut, path+"/status", token, map[string]string{"newStatus": "pending"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEqual(t, code.ErrSuccess, env.Code)

	// 其他用户不能修改别人的请求
	other := registerVerified(t, s, "bystander")
	status, env = s.Do(t, http.MethodPut, path, other, map[string]string{"location": "Bandung"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, code.ErrForbidden, env.Code)

	// 管理员可以删除
	status, env = s.Do(t, http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, status, env.Error)

	status, _ = s.Do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEmergencyRoutesRequireSession(t *testing.T) {
	s := testserver.New(t)

	status, env := s.Do(t, http.MethodGet, "/api/emergency", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, code.ErrTokenInvalid, env.Code)

	// 管理员不能以普通用户身份发起请求
	admin := s.LoginAdmin(t)
	status, env = s.Do(t, http.MethodPost, "/api/emergency/request", admin, map[string]string{"bloodType": "A+"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, code.ErrForbidden, env.Code)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	s := testserver.New(t)
	token := registerVerified(t, s, "leaver")

	status, env := s.Do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = s.Do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = s.Do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, code.ErrTokenRevoked, env.Code)
}

func TestAdminUserManagement(t *testing.T) {
	s := testserver.New(t)
	admin := s.LoginAdmin(t)
	user := registerVerified(t, s, "donor")

	status, env := s.Do(t, http.MethodGet, "/api/admin/users", user, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, code.ErrForbidden, env.Code)

	status, env = s.Do(t, http.MethodGet, "/api/admin/users?search=donor", admin, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	var list struct {
		Users        []models.User `json:"users"`
		TotalRecords int64         `json:"total_records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Users, 1)

	path := fmt.Sprintf("/api/admin/users/%d", list.Users[0].ID)
	status, env = s.Do(t, http.MethodPut, path+"/role", admin, map[string]string{"role": models.RoleAdmin})
	require.Equal(t, http.StatusOK, status, env.Error)

	var updated models.User
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, models.RoleAdmin, updated.Role)

	status, env = s.Do(t, http.MethodPut, path+"/role", admin, map[string]string{"role": "root"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, code.ErrBind, env.Code)
}

func TestProfileUpdateAndHelpOffers(t *testing.T) {
	s := testserver.New(t)
	token := registerVerified(t, s, "helper")

	status, env := s.Do(t, http.MethodPut, "/api/auth/me", token, map[string]interface{}{"telegramChatId": 4242})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = s.Do(t, http.MethodPost, "/api/help-offers", token, map[string]interface{}{
		"bloodType":          "O-",
		"isWillingToDonate":  true,
		"canHelpInEmergency": true,
		"reason":             "regular donor",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = s.Do(t, http.MethodGet, "/api/help-offers?canHelpInEmergency=true", token, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	var list struct {
		TotalRecords int64 `json:"total_records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.TotalRecords)
}

func TestReferenceRoutesAreCached(t *testing.T) {
	s := testserver.New(t)
	middleware.PurgeCache()

	first, err := s.Client().Get(s.URL + "/api/blood-types")
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Empty(t, first.Header.Get("X-Cache"))

	second, err := s.Client().Get(s.URL + "/api/blood-types")
	require.NoError(t, err)
	second.Body.Close()
	assert.Equal(t, "HIT", second.Header.Get("X-Cache"))

	admin := s.LoginAdmin(t)
	status, env := s.Do(t, http.MethodDelete, "/api/health/cache?prefix=/api/blood-types", admin, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.JSONEq(t, `{"removed":1}`, string(env.Data))

	third, err := s.Client().Get(s.URL + "/api/blood-types")
	require.NoError(t, err)
	third.Body.Close()
	assert.Empty(t, third.Header.Get("X-Cache"))
}

func TestAPIRateLimit(t *testing.T) {
	s := testserver.New(t, func(cfg *config.Config) {
		cfg.RateLimitPerSecond = 0.001
		cfg.RateLimitBurst = 2
	})

	for i := 0; i < 2; i++ {
		status, _ := s.Do(t, http.MethodGet, "/api/ping", "", nil)
		require.Equal(t, http.StatusOK, status)
	}

	status, env := s.Do(t, http.MethodGet, "/api/ping", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, code.ErrTooManyRequests, env.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := testserver.New(t)

	status, env := s.Do(t, http.MethodGet, "/api/health/status", "", nil)
	require.Equal(t, http.StatusOK, status)
	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health.Status)

	resp, err := s.Client().Get(s.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBloodDriveRoutes(t *testing.T) {
	s := testserver.New(t)
	admin := s.LoginAdmin(t)
	user := registerVerified(t, s, "volunteer")

	body := map[string]interface{}{
		"institute":     "PMI Jakarta",
		"provinceId":    jakarta,
		"designation":   "Blood Donation Day",
		"scheduledDate": time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
	}

	status, env := s.Do(t, http.MethodPost, "/api/blood-drives", "", body)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = s.Do(t, http.MethodPost, "/api/blood-drives", user, body)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, code.ErrForbidden, env.Code)

	status, env = s.Do(t, http.MethodPost, "/api/blood-drives", admin, body)
	require.Equal(t, http.StatusCreated, status, env.Error)
	var drive models.BloodDrive
	require.NoError(t, json.Unmarshal(env.Data, &drive))
	assert.Equal(t, "PMI Jakarta", drive.Institute)

	// 公告无需登录即可查看
	status, env = s.Do(t, http.MethodGet, "/api/blood-drives?searchBy=all&query=donation", "", nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	var list struct {
		BloodDrives  []models.BloodDrive `json:"blood_drives"`
		TotalRecords int64               `json:"total_records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.EqualValues(t, 1, list.TotalRecords)

	path := fmt.Sprintf("/api/blood-drives/%d", drive.ID)
	status, env = s.Do(t, http.MethodPut, path, admin, map[string]string{"designation": "Weekend Drive"})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = s.Do(t, http.MethodDelete, path, user, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = s.Do(t, http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = s.Do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, code.ErrBloodDriveNotFound, env.Code)

	status, env = s.Do(t, http.MethodGet, "/api/admin/operation-logs?resourceType=blood_drive", admin, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	var logs struct {
		Logs []models.OperationLog `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	require.Len(t, logs.Logs, 3)
	assert.Equal(t, models.OperationDelete, logs.Logs[0].OperationType)
}

func TestOwnerCannotDeleteClosedRequest(t *testing.T) {
	s := testserver.New(t)
	admin := s.LoginAdmin(t)
	token := registerVerified(t, s, "closer")

	status, env := s.Do(t, http.MethodPost, "/api/inventory", admin, map[string]interface{}{
		"bloodTypeId": 1,
		"provinceId":  jakarta,
		"quantity":    2,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = s.Do(t, http.MethodPost, "/api/emergency/request", token, map[string]string{"bloodType": "A+"})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var created models.EmergencyRequest
	require.NoError(t, json.Unmarshal(env.Data, &created))
	path := fmt.Sprintf("/api/emergency/%d", created.ID)

	status, env = s.Do(t, http.MethodPut, path+"/status", token, map[string]string{"newStatus": "cancelled"})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = s.Do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, code.ErrEmergencyRequestClosed, env.Code)

	// 请求的变更记录由所有者查看
	status, env = s.Do(t, http.MethodGet, path+"/history", token, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	var history struct {
		Logs         []models.OperationLog `json:"logs"`
		TotalRecords int64                 `json:"total_records"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.EqualValues(t, 2, history.TotalRecords)

	other := registerVerified(t, s, "onlooker")
	status, _ = s.Do(t, http.MethodGet, path+"/history", other, nil)
	assert.Equal(t, http.StatusForbidden, status)
}
