package services

import (
	"context"
	"testing"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeMailer struct {
	tokens map[string]string
}

func (f *fakeMailer) SendVerificationEmail(to, token string) error {
	if f.tokens == nil {
		f.tokens = map[string]string{}
	}
	f.tokens[to] = token
	return nil
}

func (f *fakeMailer) SendPlain(string, string, string) error { return nil }

func newTestAuthService(t *testing.T, withRedis bool) (*AuthService, *gorm.DB, *fakeMailer) {
	t.Helper()
	db := newTestDB(t)
	cfg := testConfig()
	mailer := &fakeMailer{}

	var redisSvc InterfaceRedisService
	if withRedis {
		r, _ := newTestRedis(t)
		redisSvc = r
	}

	svc := NewAuthService(db, cfg, NewJWTService(cfg), redisSvc, NewReferenceService(db, cfg, nil), mailer)
	svc.BcryptCost = bcrypt.MinCost
	return svc, db, mailer
}

func registerInput(username string) RegisterInput {
	return RegisterInput{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "secret123",
		Name:       "Test " + username,
		Phone:      "+628123456789",
		ProvinceID: 31,
	}
}

func TestRegisterVerifyAndLogin(t *testing.T) {
	svc, _, mailer := newTestAuthService(t, true)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput("budi"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.Verified)
	assert.NotEqual(t, "secret123", user.Password)

	_, err = svc.Login(ctx, LoginInput{Username: "budi", Password: "secret123"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnauthorized))

	token := mailer.tokens["budi@example.com"]
	require.NotEmpty(t, token)
	require.NoError(t, svc.VerifyEmail(ctx, token))

	err = svc.VerifyEmail(ctx, token)
	assert.True(t, IsKind(err, KindInvalidInput), "token is single use")

	result, err := svc.Login(ctx, LoginInput{Username: "budi", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.UserID)
	assert.Equal(t, models.RoleUser, result.Role)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
}

func TestRegisterRejectsDuplicatesAndUnknownProvince(t *testing.T) {
	svc, _, _ := newTestAuthService(t, false)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("sari"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput("sari"))
	assert.True(t, IsKind(err, KindConflict))

	dupEmail := registerInput("sari2")
	dupEmail.Email = "sari@example.com"
	_, err = svc.Register(ctx, dupEmail)
	assert.True(t, IsKind(err, KindConflict))

	badProvince := registerInput("andi")
	badProvince.ProvinceID = 9999
	_, err = svc.Register(ctx, badProvince)
	assert.True(t, IsKind(err, KindInvalidInput))
}

func TestLoginFailedAttemptLimit(t *testing.T) {
	svc, db, _ := newTestAuthService(t, true)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("rina"))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "rina").Update("verified", true).Error)

	for i := 0; i < svc.Config.LoginMaxAttempts; i++ {
		_, err = svc.Login(ctx, LoginInput{Username: "rina", Password: "wrong"})
		assert.True(t, IsKind(err, KindUnauthorized))
	}

	_, err = svc.Login(ctx, LoginInput{Username: "rina", Password: "secret123"})
	assert.True(t, IsKind(err, KindTooManyRequests))
}

func TestLoginSuccessResetsAttempts(t *testing.T) {
	svc, db, _ := newTestAuthService(t, true)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("tono"))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "tono").Update("verified", true).Error)

	for i := 0; i < svc.Config.LoginMaxAttempts-1; i++ {
		_, _ = svc.Login(ctx, LoginInput{Username: "tono", Password: "wrong"})
	}
	_, err = svc.Login(ctx, LoginInput{Username: "tono", Password: "secret123"})
	require.NoError(t, err)

	_, _ = svc.Login(ctx, LoginInput{Username: "tono", Password: "wrong"})
	_, err = svc.Login(ctx, LoginInput{Username: "tono", Password: "secret123"})
	require.NoError(t, err)
}

func TestRefreshRotatesAndLogoutRevokes(t *testing.T) {
	svc, db, _ := newTestAuthService(t, true)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("dewi"))
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "dewi").Update("verified", true).Error)

	login, err := svc.Login(ctx, LoginInput{Username: "dewi", Password: "secret123"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.True(t, IsKind(err, KindUnauthorized), "old refresh token is revoked")

	_, err = svc.Refresh(ctx, login.AccessToken)
	assert.True(t, IsKind(err, KindUnauthorized), "access token is not a refresh token")

	claims, err := svc.JWT.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.False(t, svc.IsRevoked(ctx, claims))
	require.NoError(t, svc.Logout(ctx, claims))
	assert.True(t, svc.IsRevoked(ctx, claims))
}

func TestGetProfile(t *testing.T) {
	svc, _, _ := newTestAuthService(t, false)
	ctx := context.Background()

	user, err := svc.Register(ctx, registerInput("eko"))
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.Province)
	assert.Equal(t, "DKI JAKARTA", profile.Province.Name)

	_, err = svc.GetProfile(ctx, 424242)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestMailServiceWithoutSMTPOnlyLogs(t *testing.T) {
	cfg := testConfig()
	mail := NewMailService(cfg)
	assert.Equal(t, "http://localhost:8080/api/auth/verify-email/abc", mail.VerificationLink("abc"))
	assert.NoError(t, mail.SendVerificationEmail("x@example.com", "abc"))
}
