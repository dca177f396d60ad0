package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"gorm.io/gorm"
)

const (
	provincesCacheKey  = "reference:provinces"
	bloodTypesCacheKey = "reference:blood_types"
	referenceCacheTTL  = time.Hour
)

// InterfaceReferenceService 省份与血型基础数据服务接口
type InterfaceReferenceService interface {
	ListProvinces(ctx context.Context) ([]models.Province, error)
	GetProvince(ctx context.Context, id uint) (*models.Province, error)
	FindProvinceByName(ctx context.Context, name string) (*models.Province, error)
	ListBloodTypes(ctx context.Context) ([]models.BloodType, error)
	GetBloodType(ctx context.Context, id uint) (*models.BloodType, error)
	FindBloodTypeByCode(ctx context.Context, bloodType string) (*models.BloodType, error)
	ResolveBloodType(ctx context.Context, idOrCode string) (*models.BloodType, error)
	InvalidateCache(ctx context.Context)
}

// ReferenceService 基础数据服务，列表结果缓存在 Redis 中
type ReferenceService struct {
	DB     *gorm.DB
	Config *config.Config
	Cache  InterfaceRedisService
}

// NewReferenceService 创建基础数据服务，cache 为 nil 时直接查询数据库
func NewReferenceService(db *gorm.DB, cfg *config.Config, cache InterfaceRedisService) *ReferenceService {
	return &ReferenceService{
		DB:     db,
		Config: cfg,
		Cache:  cache,
	}
}

// 1 ListProvinces 获取全部省份
func (s *ReferenceService) ListProvinces(ctx context.Context) ([]models.Province, error) {
	var provinces []models.Province
	if s.fromCache(ctx, provincesCacheKey, &provinces) {
		return provinces, nil
	}

	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&provinces).Error; err != nil {
		return nil, ErrInternal(err)
	}
	if len(provinces) > 0 {
		s.toCache(ctx, provincesCacheKey, provinces)
	}
	return provinces, nil
}

// 2 GetProvince 根据ID获取省份
func (s *ReferenceService) GetProvince(ctx context.Context, id uint) (*models.Province, error) {
	provinces, err := s.ListProvinces(ctx)
	if err != nil {
		return nil, err
	}
	for i := range provinces {
		if provinces[i].ID == id {
			return &provinces[i], nil
		}
	}
	return nil, ErrNotFound(code.ErrProvinceNotFound, "province not found")
}

// 3 FindProvinceByName 按名称精确匹配省份
func (s *ReferenceService) FindProvinceByName(ctx context.Context, name string) (*models.Province, error) {
	provinces, err := s.ListProvinces(ctx)
	if err != nil {
		return nil, err
	}
	for i := range provinces {
		if provinces[i].Name == name {
			return &provinces[i], nil
		}
	}
	return nil, ErrNotFound(code.ErrProvinceNotFound, "province not found")
}

// 4 ListBloodTypes 获取全部血型
func (s *ReferenceService) ListBloodTypes(ctx context.Context) ([]models.BloodType, error) {
	var bloodTypes []models.BloodType
	if s.fromCache(ctx, bloodTypesCacheKey, &bloodTypes) {
		return bloodTypes, nil
	}

	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&bloodTypes).Error; err != nil {
		return nil, ErrInternal(err)
	}
	if len(bloodTypes) > 0 {
		s.toCache(ctx, bloodTypesCacheKey, bloodTypes)
	}
	return bloodTypes, nil
}

// 5 GetBloodType 根据ID获取血型
func (s *ReferenceService) GetBloodType(ctx context.Context, id uint) (*models.BloodType, error) {
	bloodTypes, err := s.ListBloodTypes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range bloodTypes {
		if bloodTypes[i].ID == id {
			return &bloodTypes[i], nil
		}
	}
	return nil, ErrNotFound(code.ErrBloodTypeNotFound, "blood type not found")
}

// 6 FindBloodTypeByCode 按编码精确匹配血型，如 "O-"
func (s *ReferenceService) FindBloodTypeByCode(ctx context.Context, bloodType string) (*models.BloodType, error) {
	bloodTypes, err := s.ListBloodTypes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range bloodTypes {
		if bloodTypes[i].Type == bloodType {
			return &bloodTypes[i], nil
		}
	}
	return nil, ErrNotFound(code.ErrBloodTypeNotFound, "blood type not found")
}

// 7 ResolveBloodType 接受数字ID或血型编码
func (s *ReferenceService) ResolveBloodType(ctx context.Context, idOrCode string) (*models.BloodType, error) {
	idOrCode = strings.TrimSpace(idOrCode)
	if id, err := strconv.ParseUint(idOrCode, 10, 64); err == nil {
		return s.GetBloodType(ctx, uint(id))
	}
	return s.FindBloodTypeByCode(ctx, idOrCode)
}

// InvalidateCache 清除基础数据缓存，数据变更或重新写入种子数据后调用
func (s *ReferenceService) InvalidateCache(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, provincesCacheKey, bloodTypesCacheKey); err != nil {
		Logger.Warning("清除基础数据缓存失败: %v", err)
	}
}

func (s *ReferenceService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.Cache == nil {
		return false
	}
	if err := s.Cache.Get(ctx, key, dest); err != nil {
		if !IsCacheMiss(err) {
			Logger.Warning("读取缓存 %s 失败: %v", key, err)
		}
		return false
	}
	return true
}

func (s *ReferenceService) toCache(ctx context.Context, key string, value interface{}) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, key, value, referenceCacheTTL); err != nil {
		Logger.Warning("写入缓存 %s 失败: %v", key, err)
	}
}
