package services

import (
	"context"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"gorm.io/gorm"
)

// InterfaceAppointmentService 献血预约服务接口
type InterfaceAppointmentService interface {
	CreateAppointment(ctx context.Context, userID uint, input CreateAppointmentInput) (*models.Appointment, error)
	ListAppointments(ctx context.Context, actor Actor, filter AppointmentFilter) (*AppointmentListResult, error)
	GetAppointment(ctx context.Context, actor Actor, id uint) (*models.Appointment, error)
	RescheduleAppointment(ctx context.Context, actor Actor, id uint, input RescheduleAppointmentInput) (*models.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, actor Actor, id uint, status string) (*models.Appointment, error)
}

// CreateAppointmentInput 创建预约参数，Location 为空时使用所在省份的首府
type CreateAppointmentInput struct {
	BloodType     string    `json:"bloodType" binding:"required"`
	ScheduledDate time.Time `json:"scheduledDate" binding:"required"`
	Location      string    `json:"location"`
}

// RescheduleAppointmentInput 改期参数
type RescheduleAppointmentInput struct {
	NewScheduledDate time.Time `json:"newScheduledDate" binding:"required"`
}

// AppointmentStatusInput 更新预约状态参数
type AppointmentStatusInput struct {
	Status string `json:"status" binding:"required,oneof=scheduled completed cancelled rescheduled"`
}

// AppointmentFilter 预约查询条件，UserID 仅管理员可用
type AppointmentFilter struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	Status    string `form:"status"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	UserID    uint   `form:"userId"`
	SortOrder string `form:"sortOrder"`
}

// AppointmentListResult 预约分页结果
type AppointmentListResult struct {
	Appointments []models.Appointment `json:"appointments"`
	models.PaginationResult
}

// AppointmentService 献血预约服务
type AppointmentService struct {
	DB        *gorm.DB
	Config    *config.Config
	Reference InterfaceReferenceService
	Authz     InterfaceAuthorizationService
	now       func() time.Time
}

// NewAppointmentService 创建献血预约服务
func NewAppointmentService(db *gorm.DB, cfg *config.Config, reference InterfaceReferenceService, authz InterfaceAuthorizationService) *AppointmentService {
	return &AppointmentService{
		DB:        db,
		Config:    cfg,
		Reference: reference,
		Authz:     authz,
		now:       time.Now,
	}
}

// 1 CreateAppointment 创建预约，每个用户每天最多一个
func (s *AppointmentService) CreateAppointment(ctx context.Context, userID uint, input CreateAppointmentInput) (*models.Appointment, error) {
	if !input.ScheduledDate.After(s.now()) {
		return nil, ErrInvalidInput(code.ErrAppointmentDateInvalid, "appointment date must be in the future")
	}

	bloodType, err := s.Reference.FindBloodTypeByCode(ctx, input.BloodType)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, ErrInvalidInput(code.ErrInvalidBloodType, "invalid blood type")
		}
		return nil, err
	}

	location := input.Location
	if location == "" {
		var user models.User
		if err := s.DB.WithContext(ctx).Preload("Province").First(&user, userID).Error; err != nil {
			if isNotFound(err) {
				return nil, ErrNotFound(code.ErrUserNotFound, "user not found")
			}
			return nil, ErrInternal(err)
		}
		if user.Province == nil {
			return nil, ErrPreconditionFailed(code.ErrUserMissingProvince, "missing province")
		}
		location = user.Province.Capital
	}

	dayStart := startOfDay(input.ScheduledDate)
	var sameDay int64
	if err := s.DB.WithContext(ctx).Model(&models.Appointment{}).
		Where("user_id = ? AND scheduled_date >= ? AND scheduled_date < ?", userID, dayStart, dayStart.AddDate(0, 0, 1)).
		Count(&sameDay).Error; err != nil {
		return nil, ErrInternal(err)
	}
	if sameDay > 0 {
		return nil, ErrConflict(code.ErrAppointmentDateInvalid, "user already has an appointment scheduled for this day")
	}

	appointment := &models.Appointment{
		UserID:        userID,
		BloodTypeID:   bloodType.ID,
		ScheduledDate: input.ScheduledDate,
		Location:      location,
		Status:        models.AppointmentScheduled,
	}
	if err := s.DB.WithContext(ctx).Create(appointment).Error; err != nil {
		return nil, ErrInternal(err)
	}

	Logger.Info("创建献血预约: id=%d 用户=%d 时间=%s", appointment.ID, userID, appointment.ScheduledDate.Format(time.RFC3339))
	return s.find(ctx, appointment.ID)
}

// 2 ListAppointments 普通用户只能查看自己的预约，管理员可查看全部或指定用户
func (s *AppointmentService) ListAppointments(ctx context.Context, actor Actor, filter AppointmentFilter) (*AppointmentListResult, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	query := s.DB.WithContext(ctx).Model(&models.Appointment{})

	if actor.Role == models.RoleAdmin {
		if filter.UserID != 0 {
			query = query.Where("user_id = ?", filter.UserID)
		}
	} else {
		query = query.Where("user_id = ?", actor.ID)
	}

	if filter.Status != "" {
		status := models.AppointmentStatus(filter.Status)
		if !status.IsValid() {
			return nil, ErrInvalidInput(code.ErrInvalidStatus, "invalid status")
		}
		query = query.Where("status = ?", status)
	}
	if filter.StartDate != "" {
		start, err := parseDate(filter.StartDate)
		if err != nil {
			return nil, ErrInvalidInput(code.ErrValidation, "invalid startDate, expected YYYY-MM-DD")
		}
		query = query.Where("scheduled_date >= ?", start)
	}
	if filter.EndDate != "" {
		end, err := parseDate(filter.EndDate)
		if err != nil {
			return nil, ErrInvalidInput(code.ErrValidation, "invalid endDate, expected YYYY-MM-DD")
		}
		query = query.Where("scheduled_date < ?", end.AddDate(0, 0, 1))
	}

	direction := "ASC"
	switch filter.SortOrder {
	case "", "asc":
	case "desc":
		direction = "DESC"
	default:
		return nil, ErrInvalidInput(code.ErrValidation, "invalid sortOrder, expected asc or desc")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, ErrInternal(err)
	}

	var appointments []models.Appointment
	if err := query.
		Preload("BloodType").
		Order("scheduled_date " + direction + ", id " + direction).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&appointments).Error; err != nil {
		return nil, ErrInternal(err)
	}

	return &AppointmentListResult{
		Appointments:     appointments,
		PaginationResult: models.NewPaginationResult(total, page, limit),
	}, nil
}

// 3 GetAppointment 获取预约详情
func (s *AppointmentService) GetAppointment(ctx context.Context, actor Actor, id uint) (*models.Appointment, error) {
	if _, err := s.loadForAction(ctx, actor, id, ActionRead); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// 4 RescheduleAppointment 改期，重置提醒标记
func (s *AppointmentService) RescheduleAppointment(ctx context.Context, actor Actor, id uint, input RescheduleAppointmentInput) (*models.Appointment, error) {
	appointment, err := s.loadForAction(ctx, actor, id, ActionReschedule)
	if err != nil {
		return nil, err
	}
	if !appointment.Status.IsActive() {
		return nil, ErrPreconditionFailed(code.ErrInvalidStatusTransition, "cannot reschedule a completed or cancelled appointment")
	}
	if !input.NewScheduledDate.After(s.now()) {
		return nil, ErrInvalidInput(code.ErrAppointmentDateInvalid, "new appointment date must be in the future")
	}

	if err := s.DB.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", id).Updates(map[string]interface{}{
		"scheduled_date":            input.NewScheduledDate,
		"status":                    models.AppointmentRescheduled,
		"hour_before_reminder_sent": false,
		"morning_reminder_sent":     false,
	}).Error; err != nil {
		return nil, ErrInternal(err)
	}
	return s.find(ctx, id)
}

// 5 UpdateAppointmentStatus 更新预约状态，已完成或已取消的预约不能再变更
func (s *AppointmentService) UpdateAppointmentStatus(ctx context.Context, actor Actor, id uint, status string) (*models.Appointment, error) {
	next := models.AppointmentStatus(status)
	if !next.IsValid() {
		return nil, ErrInvalidInput(code.ErrInvalidStatus, "invalid status")
	}

	appointment, err := s.loadForAction(ctx, actor, id, ActionUpdateStatus)
	if err != nil {
		return nil, err
	}
	if appointment.Status == next {
		return s.find(ctx, id)
	}
	if !appointment.Status.IsActive() {
		return nil, ErrPreconditionFailed(code.ErrInvalidStatusTransition, "appointment is already "+string(appointment.Status))
	}
	if next == models.AppointmentCompleted && appointment.ScheduledDate.After(s.now()) {
		return nil, ErrInvalidInput(code.ErrAppointmentDateInvalid, "cannot complete an appointment that is in the future")
	}

	if err := s.DB.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", id).Update("status", next).Error; err != nil {
		return nil, ErrInternal(err)
	}
	return s.find(ctx, id)
}

func (s *AppointmentService) find(ctx context.Context, id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := s.DB.WithContext(ctx).Preload("BloodType").First(&appointment, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound(code.ErrAppointmentNotFound, "appointment not found")
		}
		return nil, ErrInternal(err)
	}
	return &appointment, nil
}

func (s *AppointmentService) loadForAction(ctx context.Context, actor Actor, id uint, action string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := s.DB.WithContext(ctx).First(&appointment, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound(code.ErrAppointmentNotFound, "appointment not found")
		}
		return nil, ErrInternal(err)
	}

	resource := Resource{OwnerID: appointment.OwnerID()}
	if !s.Authz.CanActOn(actor, resource, action) {
		return nil, ErrForbidden("you are not allowed to access this appointment")
	}
	return &appointment, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
