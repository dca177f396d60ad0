package services

import (
	"context"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InterfaceUserService 用户管理服务接口
type InterfaceUserService interface {
	CheckPassword(password, hash string) bool
	ListUsers(ctx context.Context, page, limit int, search string) (*UserListResult, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*models.User, error)
	AssignRole(ctx context.Context, id uint, role string) (*models.User, error)
	DeleteUser(ctx context.Context, actor Actor, id uint) error
}

// CreateUserInput 管理员创建用户参数，创建的账户默认已验证
type CreateUserInput struct {
	Username   string `json:"username" binding:"required,min=3,max=50"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Role       string `json:"role" binding:"omitempty,oneof=user admin"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	ProvinceID *uint  `json:"provinceId"`
}

// UpdateUserInput 更新用户资料，未提供的字段保持不变
type UpdateUserInput struct {
	Username       *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email          *string `json:"email" binding:"omitempty,email"`
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	ProvinceID     *uint   `json:"provinceId"`
	TelegramChatID *int64  `json:"telegramChatId"`
	AdditionalInfo *string `json:"additionalInfo"`
}

// UserListResult 用户分页结果
type UserListResult struct {
	Users []models.User `json:"users"`
	models.PaginationResult
}

// UserService 提供用户管理相关的服务
type UserService struct {
	DB         *gorm.DB
	Config     *config.Config
	Reference  InterfaceReferenceService
	BcryptCost int
}

// NewUserService 创建用户管理服务
func NewUserService(db *gorm.DB, cfg *config.Config, reference InterfaceReferenceService) *UserService {
	return &UserService{
		DB:         db,
		Config:     cfg,
		Reference:  reference,
		BcryptCost: bcrypt.DefaultCost,
	}
}

// 1 CheckPassword 验证密码是否匹配
func (s *UserService) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// 2 ListUsers 获取所有用户，支持分页和搜索
func (s *UserService) ListUsers(ctx context.Context, page, limit int, search string) (*UserListResult, error) {
	page, limit = normalizePage(page, limit)
	query := s.DB.WithContext(ctx).Model(&models.User{})

	if search != "" {
		like := "%" + search + "%"
		query = query.Where("username LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, ErrInternal(err)
	}

	var users []models.User
	if err := query.Preload("Province").Order("id ASC").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		return nil, ErrInternal(err)
	}

	return &UserListResult{
		Users:            users,
		PaginationResult: models.NewPaginationResult(total, page, limit),
	}, nil
}

// 3 GetUserByID 根据ID获取用户
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Province").First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound(code.ErrUserNotFound, "user not found")
		}
		return nil, ErrInternal(err)
	}
	return &user, nil
}

// 4 CreateUser 管理员创建用户
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if err := s.ensureUnique(ctx, 0, &input.Username, &input.Email); err != nil {
		return nil, err
	}
	if err := s.ensureProvince(ctx, input.ProvinceID); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.BcryptCost)
	if err != nil {
		return nil, ErrInternal(err)
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}

	user := &models.User{
		Username:   input.Username,
		Email:      input.Email,
		Password:   string(hashedPassword),
		Role:       role,
		Verified:   true,
		Name:       input.Name,
		Phone:      input.Phone,
		ProvinceID: input.ProvinceID,
	}
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		return nil, ErrInternal(err)
	}

	Logger.Info("管理员创建用户: id=%d username=%s role=%s", user.ID, user.Username, user.Role)
	return s.GetUserByID(ctx, user.ID)
}

// 5 UpdateUser 更新用户资料
func (s *UserService) UpdateUser(ctx context.Context, id uint, input UpdateUserInput) (*models.User, error) {
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, id, input.Username, input.Email); err != nil {
		return nil, err
	}
	if err := s.ensureProvince(ctx, input.ProvinceID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Username != nil {
		updates["username"] = *input.Username
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.ProvinceID != nil {
		updates["province_id"] = *input.ProvinceID
	}
	if input.TelegramChatID != nil {
		updates["telegram_chat_id"] = *input.TelegramChatID
	}
	if input.AdditionalInfo != nil {
		updates["additional_info"] = *input.AdditionalInfo
	}

	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, ErrInternal(err)
		}
	}
	return s.GetUserByID(ctx, id)
}

// 6 AssignRole 修改用户角色
func (s *UserService) AssignRole(ctx context.Context, id uint, role string) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, ErrInvalidInput(code.ErrValidation, "role must be user or admin")
	}
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role).Error; err != nil {
		return nil, ErrInternal(err)
	}
	return s.GetUserByID(ctx, id)
}

// 7 DeleteUser 删除用户及其登记、预约和紧急请求，管理员不能删除自己
func (s *UserService) DeleteUser(ctx context.Context, actor Actor, id uint) error {
	if actor.ID == id {
		return ErrPreconditionFailed(code.ErrValidation, "cannot delete your own account")
	}
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, related := range []interface{}{&models.HelpOffer{}, &models.Appointment{}, &models.EmergencyRequest{}} {
			if err := tx.Where("user_id = ?", id).Delete(related).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return ErrInternal(err)
	}

	Logger.Info("用户已删除: id=%d 操作人=%d", id, actor.ID)
	return nil
}

// ensureUnique 检查用户名和邮箱未被其他用户占用
func (s *UserService) ensureUnique(ctx context.Context, selfID uint, username, email *string) error {
	check := func(column, value, message string) error {
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.User{}).
			Where(column+" = ? AND id <> ?", value, selfID).
			Count(&count).Error; err != nil {
			return ErrInternal(err)
		}
		if count > 0 {
			return ErrConflict(code.ErrUserAlreadyExist, message)
		}
		return nil
	}

	if username != nil {
		if err := check("username", *username, "username already exists"); err != nil {
			return err
		}
	}
	if email != nil {
		if err := check("email", *email, "email already exists"); err != nil {
			return err
		}
	}
	return nil
}

func (s *UserService) ensureProvince(ctx context.Context, provinceID *uint) error {
	if provinceID == nil {
		return nil
	}
	if _, err := s.Reference.GetProvince(ctx, *provinceID); err != nil {
		if IsKind(err, KindNotFound) {
			return ErrInvalidInput(code.ErrInvalidLocation, "invalid province")
		}
		return err
	}
	return nil
}
