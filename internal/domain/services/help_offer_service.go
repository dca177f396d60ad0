package services

import (
	"context"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"gorm.io/gorm"
)

// InterfaceHelpOfferService 志愿献血登记服务接口
type InterfaceHelpOfferService interface {
	CreateHelpOffer(ctx context.Context, userID uint, input CreateHelpOfferInput) (*models.HelpOffer, error)
	ListHelpOffers(ctx context.Context, filter HelpOfferFilter) (*HelpOfferListResult, error)
	GetHelpOffer(ctx context.Context, id uint) (*models.HelpOffer, error)
	UpdateHelpOffer(ctx context.Context, actor Actor, id uint, input UpdateHelpOfferInput) (*models.HelpOffer, error)
	DeleteHelpOffer(ctx context.Context, actor Actor, id uint) error
}

// CreateHelpOfferInput 登记参数
type CreateHelpOfferInput struct {
	BloodType          string `json:"bloodType" binding:"required"`
	IsWillingToDonate  *bool  `json:"isWillingToDonate" binding:"required"`
	CanHelpInEmergency *bool  `json:"canHelpInEmergency" binding:"required"`
	Reason             string `json:"reason"`
}

// UpdateHelpOfferInput 更新参数，未提供的字段保持不变
type UpdateHelpOfferInput struct {
	IsWillingToDonate  *bool   `json:"isWillingToDonate"`
	CanHelpInEmergency *bool   `json:"canHelpInEmergency"`
	Reason             *string `json:"reason"`
}

// HelpOfferFilter 查询条件，布尔过滤取 "true"/"false"
type HelpOfferFilter struct {
	Page               int    `form:"page"`
	Limit              int    `form:"limit"`
	BloodType          string `form:"bloodType"`
	IsWillingToDonate  string `form:"isWillingToDonate"`
	CanHelpInEmergency string `form:"canHelpInEmergency"`
}

// HelpOfferListResult 分页结果
type HelpOfferListResult struct {
	HelpOffers []models.HelpOffer `json:"help_offers"`
	models.PaginationResult
}

// HelpOfferService 志愿献血登记服务
type HelpOfferService struct {
	DB        *gorm.DB
	Config    *config.Config
	Reference InterfaceReferenceService
	Authz     InterfaceAuthorizationService
}

// NewHelpOfferService 创建志愿献血登记服务
func NewHelpOfferService(db *gorm.DB, cfg *config.Config, reference InterfaceReferenceService, authz InterfaceAuthorizationService) *HelpOfferService {
	return &HelpOfferService{
		DB:        db,
		Config:    cfg,
		Reference: reference,
		Authz:     authz,
	}
}

// 1 CreateHelpOffer 登记志愿献血
func (s *HelpOfferService) CreateHelpOffer(ctx context.Context, userID uint, input CreateHelpOfferInput) (*models.HelpOffer, error) {
	if input.IsWillingToDonate == nil || input.CanHelpInEmergency == nil {
		return nil, ErrInvalidInput(code.ErrValidation, "isWillingToDonate and canHelpInEmergency must be booleans")
	}

	bloodType, err := s.Reference.FindBloodTypeByCode(ctx, input.BloodType)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, ErrInvalidInput(code.ErrInvalidBloodType, "invalid blood type")
		}
		return nil, err
	}

	offer := &models.HelpOffer{
		UserID:             userID,
		BloodTypeID:        bloodType.ID,
		IsWillingToDonate:  *input.IsWillingToDonate,
		CanHelpInEmergency: *input.CanHelpInEmergency,
		Reason:             input.Reason,
	}
	if err := s.DB.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, ErrInternal(err)
	}

	Logger.Info("用户 %d 登记志愿献血: 血型=%s 紧急=%t", userID, bloodType.Type, offer.CanHelpInEmergency)
	return s.GetHelpOffer(ctx, offer.ID)
}

// 2 ListHelpOffers 分页查询志愿献血登记
func (s *HelpOfferService) ListHelpOffers(ctx context.Context, filter HelpOfferFilter) (*HelpOfferListResult, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	query := s.DB.WithContext(ctx).Model(&models.HelpOffer{})

	if filter.BloodType != "" {
		bloodType, err := s.Reference.ResolveBloodType(ctx, filter.BloodType)
		if err != nil {
			if IsKind(err, KindNotFound) {
				return nil, ErrInvalidInput(code.ErrInvalidBloodType, "unknown blood type")
			}
			return nil, err
		}
		query = query.Where("blood_type_id = ?", bloodType.ID)
	}
	if filter.IsWillingToDonate != "" {
		query = query.Where("is_willing_to_donate = ?", filter.IsWillingToDonate == "true")
	}
	if filter.CanHelpInEmergency != "" {
		query = query.Where("can_help_in_emergency = ?", filter.CanHelpInEmergency == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, ErrInternal(err)
	}

	var offers []models.HelpOffer
	if err := query.
		Preload("BloodType").
		Preload("User", publicUserColumns).
		Order("id ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&offers).Error; err != nil {
		return nil, ErrInternal(err)
	}

	return &HelpOfferListResult{
		HelpOffers:       offers,
		PaginationResult: models.NewPaginationResult(total, page, limit),
	}, nil
}

// 3 GetHelpOffer 获取登记详情
func (s *HelpOfferService) GetHelpOffer(ctx context.Context, id uint) (*models.HelpOffer, error) {
	var offer models.HelpOffer
	if err := s.DB.WithContext(ctx).
		Preload("BloodType").
		Preload("User", publicUserColumns).
		First(&offer, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound(code.ErrHelpOfferNotFound, "help offer not found")
		}
		return nil, ErrInternal(err)
	}
	return &offer, nil
}

// 4 UpdateHelpOffer 更新登记，仅所有者或管理员
func (s *HelpOfferService) UpdateHelpOffer(ctx context.Context, actor Actor, id uint, input UpdateHelpOfferInput) (*models.HelpOffer, error) {
	if _, err := s.loadForAction(ctx, actor, id, ActionUpdate); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.IsWillingToDonate != nil {
		updates["is_willing_to_donate"] = *input.IsWillingToDonate
	}
	if input.CanHelpInEmergency != nil {
		updates["can_help_in_emergency"] = *input.CanHelpInEmergency
	}
	if input.Reason != nil {
		updates["reason"] = *input.Reason
	}

	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.HelpOffer{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, ErrInternal(err)
		}
	}
	return s.GetHelpOffer(ctx, id)
}

// 5 DeleteHelpOffer 删除登记，仅所有者或管理员
func (s *HelpOfferService) DeleteHelpOffer(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.loadForAction(ctx, actor, id, ActionDelete); err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(&models.HelpOffer{}, id).Error; err != nil {
		return ErrInternal(err)
	}
	return nil
}

func (s *HelpOfferService) loadForAction(ctx context.Context, actor Actor, id uint, action string) (*models.HelpOffer, error) {
	var offer models.HelpOffer
	if err := s.DB.WithContext(ctx).First(&offer, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound(code.ErrHelpOfferNotFound, "help offer not found")
		}
		return nil, ErrInternal(err)
	}
	if !s.Authz.CanActOn(actor, Resource{OwnerID: offer.UserID}, action) {
		return nil, ErrForbidden("you are not allowed to modify this help offer")
	}
	return &offer, nil
}

// publicUserColumns 关联用户时只返回公开字段
func publicUserColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "name", "province_id")
}
