package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InterfaceAuthService 用户认证服务接口
type InterfaceAuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	Logout(ctx context.Context, claims *JWTClaims) error
	IsRevoked(ctx context.Context, claims *JWTClaims) bool
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
}

// RegisterInput 注册参数
type RegisterInput struct {
	Username       string `json:"username" binding:"required,min=3,max=50"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	Name           string `json:"name" binding:"required"`
	Phone          string `json:"phone" binding:"required"`
	ProvinceID     uint   `json:"provinceId" binding:"required"`
	AdditionalInfo string `json:"additionalInfo"`
}

// LoginInput 登录参数
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult 表示登录结果
type LoginResult struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	*TokenPair
}

// AuthService 用户认证服务
type AuthService struct {
	DB         *gorm.DB
	Config     *config.Config
	JWT        InterfaceJWTService
	Redis      InterfaceRedisService
	Reference  InterfaceReferenceService
	Mailer     Mailer
	BcryptCost int
	now        func() time.Time
}

// NewAuthService 创建认证服务，redis 为 nil 时不限制登录次数也不支持注销
func NewAuthService(
	db *gorm.DB,
	cfg *config.Config,
	jwtService InterfaceJWTService,
	redis InterfaceRedisService,
	reference InterfaceReferenceService,
	mailer Mailer,
) *AuthService {
	return &AuthService{
		DB:         db,
		Config:     cfg,
		JWT:        jwtService,
		Redis:      redis,
		Reference:  reference,
		Mailer:     mailer,
		BcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// 1 Register 注册新用户并发送验证邮件
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", input.Username).Count(&count).Error; err != nil {
		return nil, ErrInternal(err)
	}
	if count > 0 {
		return nil, ErrConflict(code.ErrUserAlreadyExist, "username already exists")
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, ErrInternal(err)
	}
	if count > 0 {
		return nil, ErrConflict(code.ErrUserAlreadyExist, "email already exists")
	}

	if _, err := s.Reference.GetProvince(ctx, input.ProvinceID); err != nil {
		if IsKind(err, KindNotFound) {
			return nil, ErrInvalidInput(code.ErrInvalidLocation, "invalid province")
		}
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.BcryptCost)
	if err != nil {
		return nil, ErrInternal(err)
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	provinceID := input.ProvinceID
	user := &models.User{
		Username:          input.Username,
		Email:             input.Email,
		Password:          string(hashedPassword),
		Role:              models.RoleUser,
		VerificationToken: &token,
		Name:              input.Name,
		Phone:             input.Phone,
		ProvinceID:        &provinceID,
		AdditionalInfo:    input.AdditionalInfo,
	}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, ErrInternal(err)
	}

	if s.Mailer != nil {
		if err := s.Mailer.SendVerificationEmail(user.Email, token); err != nil {
			Logger.Error("发送验证邮件失败: user=%d err=%v", user.ID, err)
		}
	}

	Logger.Info("新用户注册: id=%d username=%s", user.ID, user.Username)
	return user, nil
}

// 2 VerifyEmail 使用验证令牌激活账户，令牌只能使用一次
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidInput(code.ErrVerificationTokenInvalid, "invalid verification token")
	}

	result := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("verification_token = ?", token).
		Updates(map[string]interface{}{"verified": true, "verification_token": nil})
	if result.Error != nil {
		return ErrInternal(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidInput(code.ErrVerificationTokenInvalid, "invalid verification token")
	}
	return nil
}

// 3 Login 校验用户名密码并签发令牌，失败次数超过上限后在窗口期内拒绝登录
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	attemptKey := "login_attempts:" + input.Username
	if s.tooManyAttempts(ctx, attemptKey) {
		return nil, ErrTooManyRequests(code.ErrLoginAttemptsExceeded, "too many failed login attempts, please try again later")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", input.Username).First(&user).Error; err != nil {
		if isNotFound(err) {
			s.recordFailure(ctx, attemptKey)
			return nil, ErrUnauthorized(code.ErrUserPasswordIncorrect, "invalid username or password")
		}
		return nil, ErrInternal(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		s.recordFailure(ctx, attemptKey)
		return nil, ErrUnauthorized(code.ErrUserPasswordIncorrect, "invalid username or password")
	}

	if !user.Verified {
		return nil, ErrUnauthorized(code.ErrUserNotVerified, "email not verified, please verify your email first")
	}

	if s.Redis != nil {
		if err := s.Redis.Delete(ctx, attemptKey); err != nil {
			Logger.Warning("清除登录失败计数失败: %v", err)
		}
	}

	return s.issue(&user)
}

// 4 Refresh 使用刷新令牌换取新令牌，旧刷新令牌随即失效
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.JWT.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrUnauthorized(code.ErrTokenInvalid, "invalid refresh token")
	}
	if s.IsRevoked(ctx, claims) {
		return nil, ErrUnauthorized(code.ErrTokenRevoked, "refresh token has been revoked")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrUnauthorized(code.ErrUserNotFound, "user not found")
		}
		return nil, ErrInternal(err)
	}

	result, err := s.issue(&user)
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, claims)
	return result, nil
}

// 5 Logout 注销访问令牌
func (s *AuthService) Logout(ctx context.Context, claims *JWTClaims) error {
	if claims == nil {
		return ErrUnauthorized(code.ErrTokenInvalid, "")
	}
	if s.Redis == nil {
		return nil
	}
	if err := s.Redis.RevokeToken(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
		return ErrInternal(err)
	}
	return nil
}

// 6 IsRevoked 令牌是否已注销，Redis 不可用时视为未注销
func (s *AuthService) IsRevoked(ctx context.Context, claims *JWTClaims) bool {
	if s.Redis == nil || claims == nil || claims.ID == "" {
		return false
	}
	revoked, err := s.Redis.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		Logger.Warning("查询令牌黑名单失败: %v", err)
		return false
	}
	return revoked
}

// 7 GetProfile 获取用户资料
func (s *AuthService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Province").First(&user, userID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound(code.ErrUserNotFound, "user not found")
		}
		return nil, ErrInternal(err)
	}
	return &user, nil
}

func (s *AuthService) issue(user *models.User) (*LoginResult, error) {
	pair, err := s.JWT.GenerateTokenPair(user)
	if err != nil {
		return nil, ErrInternal(err)
	}
	return &LoginResult{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		TokenPair: pair,
	}, nil
}

func (s *AuthService) revoke(ctx context.Context, claims *JWTClaims) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.RevokeToken(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
		Logger.Warning("注销令牌失败: %v", err)
	}
}

func (s *AuthService) tooManyAttempts(ctx context.Context, key string) bool {
	if s.Redis == nil || s.Config.LoginMaxAttempts <= 0 {
		return false
	}
	var attempts int64
	if err := s.Redis.Get(ctx, key, &attempts); err != nil {
		if !IsCacheMiss(err) {
			Logger.Warning("读取登录失败计数失败: %v", err)
		}
		return false
	}
	return attempts >= int64(s.Config.LoginMaxAttempts)
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if s.Redis == nil {
		return
	}
	if _, err := s.Redis.IncrWithExpiry(ctx, key, s.Config.LoginWindow); err != nil {
		Logger.Warning("记录登录失败次数失败: %v", err)
	}
}
