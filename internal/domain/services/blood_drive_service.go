package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"gorm.io/gorm"
)

// BloodDriveNotifier 发布献血活动公告，调用方不等待结果
type BloodDriveNotifier interface {
	NotifyBloodDrive(drive *models.BloodDrive, isNew bool)
}

// InterfaceBloodDriveService 献血活动服务接口
type InterfaceBloodDriveService interface {
	CreateBloodDrive(ctx context.Context, actor Actor, input CreateBloodDriveInput) (*models.BloodDrive, error)
	ListBloodDrives(ctx context.Context, filter BloodDriveFilter) (*BloodDriveListResult, error)
	GetBloodDrive(ctx context.Context, id uint) (*models.BloodDrive, error)
	UpdateBloodDrive(ctx context.Context, actor Actor, id uint, input UpdateBloodDriveInput) (*models.BloodDrive, error)
	DeleteBloodDrive(ctx context.Context, actor Actor, id uint) error
}

// CreateBloodDriveInput 创建献血活动参数
type CreateBloodDriveInput struct {
	Institute     string    `json:"institute" binding:"required"`
	ProvinceID    uint      `json:"provinceId" binding:"required"`
	Designation   string    `json:"designation" binding:"required"`
	ScheduledDate time.Time `json:"scheduledDate" binding:"required"`
}

// UpdateBloodDriveInput 更新参数，未提供的字段保持不变
type UpdateBloodDriveInput struct {
	Institute     *string    `json:"institute"`
	ProvinceID    *uint      `json:"provinceId"`
	Designation   *string    `json:"designation"`
	ScheduledDate *time.Time `json:"scheduledDate"`
}

// BloodDriveFilter 查询条件；SearchBy 取 all、institute、designation、provinceName，OrderBy 形如 "scheduledDate:asc"
type BloodDriveFilter struct {
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
	Institute     string `form:"institute"`
	Designation   string `form:"designation"`
	ProvinceName  string `form:"provinceName"`
	ScheduledDate string `form:"scheduledDate"`
	SearchBy      string `form:"searchBy"`
	Query         string `form:"query"`
	OrderBy       string `form:"orderBy"`
}

// BloodDriveListResult 分页结果
type BloodDriveListResult struct {
	BloodDrives []models.BloodDrive `json:"blood_drives"`
	models.PaginationResult
}

var bloodDriveSortColumns = map[string]string{
	"scheduledDate": "scheduled_date",
	"institute":     "institute",
	"designation":   "designation",
	"createdAt":     "created_at",
	"id":            "id",
}

// BloodDriveService 献血活动服务，写操作仅限管理员
type BloodDriveService struct {
	DB        *gorm.DB
	Config    *config.Config
	Reference InterfaceReferenceService
	Notifier  BloodDriveNotifier
	Logs      InterfaceOperationLogService
	now       func() time.Time
}

// NewBloodDriveService 创建献血活动服务，notifier 和 logs 可以为 nil
func NewBloodDriveService(
	db *gorm.DB,
	cfg *config.Config,
	reference InterfaceReferenceService,
	notifier BloodDriveNotifier,
	logs InterfaceOperationLogService,
) *BloodDriveService {
	return &BloodDriveService{
		DB:        db,
		Config:    cfg,
		Reference: reference,
		Notifier:  notifier,
		Logs:      logs,
		now:       time.Now,
	}
}

// 1 CreateBloodDrive 发布献血活动并通知所在省份的志愿者
func (s *BloodDriveService) CreateBloodDrive(ctx context.Context, actor Actor, input CreateBloodDriveInput) (*models.BloodDrive, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	institute := strings.TrimSpace(input.Institute)
	designation := strings.TrimSpace(input.Designation)
	if institute == "" || designation == "" {
		return nil, ErrInvalidInput(code.ErrValidation, "institute and designation are required")
	}
	if !input.ScheduledDate.After(s.now()) {
		return nil, ErrInvalidInput(code.ErrBloodDriveDateInvalid, "scheduled date must be in the future")
	}
	province, err := s.resolveProvince(ctx, input.ProvinceID)
	if err != nil {
		return nil, err
	}

	drive := &models.BloodDrive{
		UserID:        actor.ID,
		Institute:     institute,
		ProvinceID:    province.ID,
		Designation:   designation,
		ScheduledDate: input.ScheduledDate,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(drive).Error; err != nil {
			return err
		}
		return s.record(tx, actor.ID, drive.ID, models.OperationCreate, "province="+province.Name)
	})
	if err != nil {
		return nil, ErrInternal(err)
	}
	drive.Province = province

	Logger.Info("献血活动已发布: id=%d, 机构=%s, 省份=%s, 时间=%s", drive.ID, institute, province.Name, drive.ScheduledDate.Format(time.RFC3339))
	s.announce(drive, true)
	return drive, nil
}

// 2 ListBloodDrives 分页查询献血活动，默认按活动时间升序
func (s *BloodDriveService) ListBloodDrives(ctx context.Context, filter BloodDriveFilter) (*BloodDriveListResult, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	query := s.DB.WithContext(ctx).Model(&models.BloodDrive{})

	if filter.Institute != "" {
		query = query.Where("LOWER(institute) LIKE ?", likePattern(filter.Institute))
	}
	if filter.Designation != "" {
		query = query.Where("LOWER(designation) LIKE ?", likePattern(filter.Designation))
	}
	if filter.ProvinceName != "" {
		query = query.Where("province_id IN (?)", s.provincesNamed(filter.ProvinceName))
	}
	if filter.ScheduledDate != "" {
		day, err := parseDate(filter.ScheduledDate)
		if err != nil {
			return nil, ErrInvalidInput(code.ErrValidation, "invalid scheduledDate, expected YYYY-MM-DD")
		}
		query = query.Where("scheduled_date >= ? AND scheduled_date < ?", day, day.AddDate(0, 0, 1))
	}

	if filter.SearchBy != "" && filter.Query != "" {
		pattern := likePattern(filter.Query)
		conditions := make([]string, 0, 3)
		args := make([]interface{}, 0, 3)
		if filter.SearchBy == "all" || filter.SearchBy == "institute" {
			conditions = append(conditions, "LOWER(institute) LIKE ?")
			args = append(args, pattern)
		}
		if filter.SearchBy == "all" || filter.SearchBy == "designation" {
			conditions = append(conditions, "LOWER(designation) LIKE ?")
			args = append(args, pattern)
		}
		if filter.SearchBy == "all" || filter.SearchBy == "provinceName" {
			conditions = append(conditions, "province_id IN (?)")
			args = append(args, s.provincesNamed(filter.Query))
		}
		if len(conditions) == 0 {
			return nil, ErrInvalidInput(code.ErrValidation, "invalid searchBy, expected all, institute, designation or provinceName")
		}
		query = query.Where("("+strings.Join(conditions, " OR ")+")", args...)
	}

	orderBy, err := bloodDriveOrder(filter.OrderBy)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, ErrInternal(err)
	}

	drives := make([]models.BloodDrive, 0)
	if err := query.
		Preload("Province").
		Preload("User", publicUserColumns).
		Order(orderBy).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&drives).Error; err != nil {
		return nil, ErrInternal(err)
	}

	return &BloodDriveListResult{
		BloodDrives:      drives,
		PaginationResult: models.NewPaginationResult(total, page, limit),
	}, nil
}

// 3 GetBloodDrive 获取献血活动详情
func (s *BloodDriveService) GetBloodDrive(ctx context.Context, id uint) (*models.BloodDrive, error) {
	var drive models.BloodDrive
	if err := s.DB.WithContext(ctx).
		Preload("Province").
		Preload("User", publicUserColumns).
		First(&drive, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound(code.ErrBloodDriveNotFound, "blood drive not found")
		}
		return nil, ErrInternal(err)
	}
	return &drive, nil
}

// 4 UpdateBloodDrive 更新献血活动并重新通知志愿者
func (s *BloodDriveService) UpdateBloodDrive(ctx context.Context, actor Actor, id uint, input UpdateBloodDriveInput) (*models.BloodDrive, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.GetBloodDrive(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Institute != nil {
		institute := strings.TrimSpace(*input.Institute)
		if institute == "" {
			return nil, ErrInvalidInput(code.ErrValidation, "institute must not be empty")
		}
		updates["institute"] = institute
	}
	if input.Designation != nil {
		designation := strings.TrimSpace(*input.Designation)
		if designation == "" {
			return nil, ErrInvalidInput(code.ErrValidation, "designation must not be empty")
		}
		updates["designation"] = designation
	}
	if input.ProvinceID != nil {
		province, err := s.resolveProvince(ctx, *input.ProvinceID)
		if err != nil {
			return nil, err
		}
		updates["province_id"] = province.ID
	}
	if input.ScheduledDate != nil {
		if !input.ScheduledDate.After(s.now()) {
			return nil, ErrInvalidInput(code.ErrBloodDriveDateInvalid, "scheduled date must be in the future")
		}
		updates["scheduled_date"] = *input.ScheduledDate
	}

	if len(updates) == 0 {
		return s.GetBloodDrive(ctx, id)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BloodDrive{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return s.record(tx, actor.ID, id, models.OperationUpdate, "fields="+changedFields(updates))
	})
	if err != nil {
		return nil, ErrInternal(err)
	}

	drive, err := s.GetBloodDrive(ctx, id)
	if err != nil {
		return nil, err
	}
	s.announce(drive, false)
	return drive, nil
}

// 5 DeleteBloodDrive 删除献血活动
func (s *BloodDriveService) DeleteBloodDrive(ctx context.Context, actor Actor, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	drive, err := s.GetBloodDrive(ctx, id)
	if err != nil {
		return err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.BloodDrive{}, id).Error; err != nil {
			return err
		}
		return s.record(tx, actor.ID, id, models.OperationDelete, "institute="+drive.Institute)
	})
	if err != nil {
		return ErrInternal(err)
	}
	Logger.Info("献血活动已删除: id=%d, 操作人=%d", id, actor.ID)
	return nil
}

func (s *BloodDriveService) announce(drive *models.BloodDrive, isNew bool) {
	if s.Notifier != nil {
		s.Notifier.NotifyBloodDrive(drive, isNew)
	}
}

func (s *BloodDriveService) record(tx *gorm.DB, userID, driveID uint, operation, details string) error {
	if s.Logs == nil {
		return nil
	}
	return s.Logs.Record(tx, models.OperationLog{
		OperationType: operation,
		ResourceType:  models.ResourceBloodDrive,
		ResourceID:    driveID,
		UserID:        userID,
		Details:       details,
		Timestamp:     s.now(),
	})
}

// resolveProvince 省份必须存在，否则视为参数错误
func (s *BloodDriveService) resolveProvince(ctx context.Context, id uint) (*models.Province, error) {
	if id == 0 {
		return nil, ErrInvalidInput(code.ErrInvalidLocation, "provinceId is required")
	}
	province, err := s.Reference.GetProvince(ctx, id)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, ErrInvalidInput(code.ErrInvalidLocation, "invalid province")
		}
		return nil, err
	}
	return province, nil
}

// provincesNamed 名称包含 name 的省份ID子查询
func (s *BloodDriveService) provincesNamed(name string) *gorm.DB {
	return s.DB.Model(&models.Province{}).Select("id").Where("LOWER(name) LIKE ?", likePattern(name))
}

// requireAdmin 只有管理员可以管理献血活动
func requireAdmin(actor Actor) error {
	if actor.Role != models.RoleAdmin {
		return ErrForbidden("only administrators can manage blood drives")
	}
	return nil
}

// likePattern 不区分大小写的包含匹配
func likePattern(value string) string {
	return "%" + strings.ToLower(strings.TrimSpace(value)) + "%"
}

// bloodDriveOrder 解析 "字段:方向"，默认按活动时间升序
func bloodDriveOrder(orderBy string) (string, error) {
	if orderBy == "" {
		return "scheduled_date ASC, id ASC", nil
	}

	field, direction, _ := strings.Cut(orderBy, ":")
	column, ok := bloodDriveSortColumns[field]
	if !ok {
		return "", ErrInvalidInput(code.ErrValidation, fmt.Sprintf("invalid orderBy field %q", field))
	}

	switch strings.ToLower(direction) {
	case "", "asc":
		direction = "ASC"
	case "desc":
		direction = "DESC"
	default:
		return "", ErrInvalidInput(code.ErrValidation, "invalid orderBy direction, expected asc or desc")
	}

	if column == "id" {
		return "id " + direction, nil
	}
	return column + " " + direction + ", id " + direction, nil
}
