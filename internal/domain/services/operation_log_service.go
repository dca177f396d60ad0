package services

import (
	"context"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"gorm.io/gorm"
)

// InterfaceOperationLogService 操作记录服务接口
type InterfaceOperationLogService interface {
	Record(tx *gorm.DB, entry models.OperationLog) error
	ListOperationLogs(ctx context.Context, filter OperationLogFilter) (*OperationLogListResult, error)
}

// OperationLogFilter 操作记录查询条件
type OperationLogFilter struct {
	Page          int    `form:"page"`
	Limit         int    `form:"limit"`
	ResourceType  string `form:"resourceType"`
	ResourceID    uint   `form:"resourceId"`
	UserID        uint   `form:"userId"`
	OperationType string `form:"operationType"`
}

// OperationLogListResult 操作记录分页结果
type OperationLogListResult struct {
	Logs []models.OperationLog `json:"logs"`
	models.PaginationResult
}

// OperationLogService 记录紧急请求和献血活动的变更
type OperationLogService struct {
	DB  *gorm.DB
	now func() time.Time
}

// NewOperationLogService 创建操作记录服务
func NewOperationLogService(db *gorm.DB) *OperationLogService {
	return &OperationLogService{DB: db, now: time.Now}
}

// 1 Record 在调用方的事务中写入一条操作记录
func (s *OperationLogService) Record(tx *gorm.DB, entry models.OperationLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	return tx.Create(&entry).Error
}

// 2 ListOperationLogs 分页查询操作记录，最新的在前
func (s *OperationLogService) ListOperationLogs(ctx context.Context, filter OperationLogFilter) (*OperationLogListResult, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)

	switch filter.ResourceType {
	case "", models.ResourceEmergencyRequest, models.ResourceBloodDrive:
	default:
		return nil, ErrInvalidInput(code.ErrValidation, "invalid resourceType")
	}

	query := s.DB.WithContext(ctx).Model(&models.OperationLog{})
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != 0 {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OperationType != "" {
		query = query.Where("operation_type = ?", filter.OperationType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, ErrInternal(err)
	}

	logs := make([]models.OperationLog, 0)
	if err := query.Order("timestamp DESC, id DESC").Offset((page - 1) * limit).Limit(limit).Find(&logs).Error; err != nil {
		return nil, ErrInternal(err)
	}

	return &OperationLogListResult{
		Logs:             logs,
		PaginationResult: models.NewPaginationResult(total, page, limit),
	}, nil
}
