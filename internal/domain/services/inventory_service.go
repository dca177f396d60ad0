package services

import (
	"context"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"gorm.io/gorm"
)

// DefaultShelfLifeDays 未指定有效期时的默认保存天数
const DefaultShelfLifeDays = 42

// InterfaceInventoryService 血液库存服务接口
type InterfaceInventoryService interface {
	HasStock(ctx context.Context, bloodTypeID, provinceID uint) (bool, error)
	CreateInventory(ctx context.Context, input CreateInventoryInput) (*models.BloodInventory, error)
	ListInventory(ctx context.Context, filter InventoryFilter) (*InventoryListResult, error)
	GetInventory(ctx context.Context, id uint) (*models.BloodInventory, error)
	UpdateInventory(ctx context.Context, id uint, input UpdateInventoryInput) (*models.BloodInventory, error)
	DeleteInventory(ctx context.Context, id uint) error
}

// CreateInventoryInput 新增库存参数
type CreateInventoryInput struct {
	BloodTypeID uint       `json:"bloodTypeId" binding:"required"`
	ProvinceID  uint       `json:"provinceId" binding:"required"`
	Quantity    int        `json:"quantity" binding:"required,gt=0"`
	ExpiryDate  *time.Time `json:"expiryDate"`
}

// UpdateInventoryInput 更新库存参数
type UpdateInventoryInput struct {
	Quantity   *int       `json:"quantity" binding:"omitempty,gte=0"`
	ExpiryDate *time.Time `json:"expiryDate"`
}

// InventoryFilter 库存查询条件
type InventoryFilter struct {
	BloodType  string `form:"bloodType"`
	ProvinceID uint   `form:"provinceId"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// InventoryListResult 库存分页结果
type InventoryListResult struct {
	Inventories []models.BloodInventory `json:"inventories"`
	models.PaginationResult
}

// InventoryService 血液库存服务
type InventoryService struct {
	DB        *gorm.DB
	Config    *config.Config
	Reference InterfaceReferenceService
	now       func() time.Time
}

// NewInventoryService 创建血液库存服务
func NewInventoryService(db *gorm.DB, cfg *config.Config, reference InterfaceReferenceService) *InventoryService {
	return &InventoryService{
		DB:        db,
		Config:    cfg,
		Reference: reference,
		now:       time.Now,
	}
}

// 1 HasStock 判断某省某血型是否存在数量大于0的库存记录
func (s *InventoryService) HasStock(ctx context.Context, bloodTypeID, provinceID uint) (bool, error) {
	var inventory models.BloodInventory
	err := s.DB.WithContext(ctx).
		Where("blood_type_id = ? AND province_id = ? AND quantity > 0", bloodTypeID, provinceID).
		Select("id").
		Take(&inventory).Error
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, ErrInternal(err)
	}
	return true, nil
}

// 2 CreateInventory 新增库存记录，省份和血型必须存在
func (s *InventoryService) CreateInventory(ctx context.Context, input CreateInventoryInput) (*models.BloodInventory, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidInput(code.ErrValidation, "quantity must be positive")
	}
	if _, err := s.Reference.GetProvince(ctx, input.ProvinceID); err != nil {
		return nil, err
	}
	if _, err := s.Reference.GetBloodType(ctx, input.BloodTypeID); err != nil {
		return nil, err
	}

	expiry := s.defaultExpiry()
	if input.ExpiryDate != nil {
		expiry = *input.ExpiryDate
	}

	inventory := &models.BloodInventory{
		BloodTypeID: input.BloodTypeID,
		ProvinceID:  input.ProvinceID,
		Quantity:    input.Quantity,
		ExpiryDate:  expiry,
	}
	if err := s.DB.WithContext(ctx).Create(inventory).Error; err != nil {
		return nil, ErrInternal(err)
	}
	return inventory, nil
}

// 3 ListInventory 分页查询库存
func (s *InventoryService) ListInventory(ctx context.Context, filter InventoryFilter) (*InventoryListResult, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	query := s.DB.WithContext(ctx).Model(&models.BloodInventory{})

	if filter.BloodType != "" {
		bloodType, err := s.Reference.ResolveBloodType(ctx, filter.BloodType)
		if err != nil {
			return nil, err
		}
		query = query.Where("blood_type_id = ?", bloodType.ID)
	}
	if filter.ProvinceID != 0 {
		query = query.Where("province_id = ?", filter.ProvinceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, ErrInternal(err)
	}

	var inventories []models.BloodInventory
	if err := query.Preload("BloodType").Preload("Province").
		Order("id ASC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&inventories).Error; err != nil {
		return nil, ErrInternal(err)
	}

	return &InventoryListResult{
		Inventories:      inventories,
		PaginationResult: models.NewPaginationResult(total, page, limit),
	}, nil
}

// 4 GetInventory 获取库存详情
func (s *InventoryService) GetInventory(ctx context.Context, id uint) (*models.BloodInventory, error) {
	var inventory models.BloodInventory
	if err := s.DB.WithContext(ctx).Preload("BloodType").Preload("Province").First(&inventory, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound(code.ErrInventoryNotFound, "blood inventory not found")
		}
		return nil, ErrInternal(err)
	}
	return &inventory, nil
}

// 5 UpdateInventory 更新数量或有效期
func (s *InventoryService) UpdateInventory(ctx context.Context, id uint, input UpdateInventoryInput) (*models.BloodInventory, error) {
	inventory, err := s.GetInventory(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, ErrInvalidInput(code.ErrValidation, "quantity must not be negative")
		}
		updates["quantity"] = *input.Quantity
	}
	if input.ExpiryDate != nil {
		updates["expiry_date"] = *input.ExpiryDate
	}
	if len(updates) == 0 {
		return inventory, nil
	}

	if err := s.DB.WithContext(ctx).Model(&models.BloodInventory{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, ErrInternal(err)
	}
	return s.GetInventory(ctx, id)
}

// 6 DeleteInventory 删除库存记录
func (s *InventoryService) DeleteInventory(ctx context.Context, id uint) error {
	result := s.DB.WithContext(ctx).Delete(&models.BloodInventory{}, id)
	if result.Error != nil {
		return ErrInternal(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound(code.ErrInventoryNotFound, "blood inventory not found")
	}
	return nil
}

// defaultExpiry 当天零点加42天
func (s *InventoryService) defaultExpiry() time.Time {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, DefaultShelfLifeDays)
}

// normalizePage 页码从1开始，每页默认10条，最多100条
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
