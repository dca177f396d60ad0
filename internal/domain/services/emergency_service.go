package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/metrics"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"gorm.io/gorm"
)

// 紧急请求相关的对外消息
const (
	MsgEmergencyRequestCreated   = "Emergency request created successfully"
	MsgEmergencyRequestNotifying = "Emergency request created; requested blood type is currently unavailable in selected area, eligible donors are being notified"
	MsgBloodUnavailableNotifying = "Requested blood type currently unavailable in selected area, eligible donors are being notified"
	MsgBloodUnavailable          = "Requested blood type currently unavailable in selected area"
)

// DonorNotifier 向符合条件的献血者发起通知，调用方不等待结果
type DonorNotifier interface {
	NotifyEligibleDonors(bloodTypeID, provinceID uint)
}

// InterfaceEmergencyService 紧急用血请求服务接口
type InterfaceEmergencyService interface {
	CreateEmergencyRequest(ctx context.Context, requesterID uint, input CreateEmergencyRequestInput) (*CreateEmergencyRequestResult, error)
	GetAllEmergencyRequests(ctx context.Context, filter EmergencyRequestFilter) (*EmergencyRequestListResult, error)
	GetEmergencyRequestByID(ctx context.Context, id uint) (*models.EmergencyRequest, error)
	UpdateEmergencyRequest(ctx context.Context, actor Actor, id uint, input UpdateEmergencyRequestInput) (*models.EmergencyRequest, error)
	DeleteEmergencyRequest(ctx context.Context, actor Actor, id uint) error
	UpdateStatus(ctx context.Context, actor Actor, id uint, newStatus string) (*models.EmergencyRequest, error)
	GetEmergencyRequestHistory(ctx context.Context, actor Actor, id uint, page, limit int) (*OperationLogListResult, error)
}

// CreateEmergencyRequestInput 创建紧急请求参数
type CreateEmergencyRequestInput struct {
	BloodType      string  `json:"bloodType" binding:"required"`
	AdditionalInfo *string `json:"additionalInfo"`
	Location       *string `json:"location"`
}

// UpdateEmergencyRequestInput 更新紧急请求参数，未提供的字段保持不变
type UpdateEmergencyRequestInput struct {
	AdditionalInfo *string `json:"additionalInfo"`
	BloodType      *string `json:"bloodType"`
	Location       *string `json:"location"`
}

// UpdateStatusInput 更新状态参数
type UpdateStatusInput struct {
	NewStatus string `json:"newStatus" binding:"required"`
}

// CreateEmergencyRequestResult 创建结果，Request 为 nil 表示未创建
type CreateEmergencyRequestResult struct {
	Request        *models.EmergencyRequest `json:"request"`
	DonorsNotified bool                     `json:"donors_notified"`
	Message        string                   `json:"message"`
}

// EmergencyRequestFilter 紧急请求查询条件
type EmergencyRequestFilter struct {
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
	BloodType  string `form:"bloodType"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	ProvinceID uint   `form:"provinceId"`
	Status     string `form:"status"`
	SearchBy   string `form:"searchBy"`
	Query      string `form:"query"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder"`
}

// EmergencyRequestListResult 紧急请求分页结果
type EmergencyRequestListResult struct {
	Requests []models.EmergencyRequest `json:"requests"`
	models.PaginationResult
}

var emergencySortColumns = map[string]string{
	"requestDate": "request_date",
	"status":      "status",
	"createdAt":   "created_at",
	"id":          "id",
}

var emergencySearchColumns = map[string]string{
	"location":       "location",
	"additionalInfo": "additional_info",
}

// EmergencyService 紧急用血请求服务
type EmergencyService struct {
	DB        *gorm.DB
	Config    *config.Config
	Reference InterfaceReferenceService
	Inventory InterfaceInventoryService
	Authz     InterfaceAuthorizationService
	Notifier  DonorNotifier
	Logs      InterfaceOperationLogService
	now       func() time.Time
}

// NewEmergencyService 创建紧急用血请求服务
func NewEmergencyService(
	db *gorm.DB,
	cfg *config.Config,
	reference InterfaceReferenceService,
	inventory InterfaceInventoryService,
	authz InterfaceAuthorizationService,
	notifier DonorNotifier,
	logs InterfaceOperationLogService,
) *EmergencyService {
	return &EmergencyService{
		DB:        db,
		Config:    cfg,
		Reference: reference,
		Inventory: inventory,
		Authz:     authz,
		Notifier:  notifier,
		Logs:      logs,
		now:       time.Now,
	}
}

// 1 CreateEmergencyRequest 创建紧急用血请求
func (s *EmergencyService) CreateEmergencyRequest(ctx context.Context, requesterID uint, input CreateEmergencyRequestInput) (*CreateEmergencyRequestResult, error) {
	bloodType, err := s.resolveBloodType(ctx, input.BloodType)
	if err != nil {
		return nil, err
	}

	province, location, err := s.resolveTargetProvince(ctx, requesterID, input.Location)
	if err != nil {
		return nil, err
	}

	inStock, err := s.Inventory.HasStock(ctx, bloodType.ID, province.ID)
	if err != nil {
		return nil, err
	}

	if !inStock {
		s.notifyDonors(bloodType.ID, province.ID)
		if s.Config.EmergencyCreatePolicy != config.EmergencyPolicyNotify {
			metrics.RecordEmergencyRequest("unavailable")
			return nil, ErrUnavailable(MsgBloodUnavailableNotifying)
		}
	}

	request := &models.EmergencyRequest{
		UserID:         requesterID,
		BloodTypeID:    bloodType.ID,
		ProvinceID:     province.ID,
		RequestDate:    s.now(),
		Location:       location,
		AdditionalInfo: input.AdditionalInfo,
		Status:         models.RequestPending,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return err
		}
		return s.record(tx, requesterID, request.ID, models.OperationCreate, "", string(request.Status), "location="+location)
	})
	if err != nil {
		return nil, ErrInternal(err)
	}

	request.BloodType = bloodType
	request.Province = province

	result := &CreateEmergencyRequestResult{
		Request: request,
		Message: MsgEmergencyRequestCreated,
	}
	if !inStock {
		result.DonorsNotified = true
		result.Message = MsgEmergencyRequestNotifying
		metrics.RecordEmergencyRequest("created_unavailable")
	} else {
		metrics.RecordEmergencyRequest("created")
	}
	return result, nil
}

// 2 GetAllEmergencyRequests 分页查询紧急请求
func (s *EmergencyService) GetAllEmergencyRequests(ctx context.Context, filter EmergencyRequestFilter) (*EmergencyRequestListResult, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	query := s.DB.WithContext(ctx).Model(&models.EmergencyRequest{})

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

	if filter.StartDate != "" {
		start, err := parseDate(filter.StartDate)
		if err != nil {
			return nil, ErrInvalidInput(code.ErrValidation, "invalid startDate, expected YYYY-MM-DD")
		}
		query = query.Where("request_date >= ?", start)
	}
	if filter.EndDate != "" {
		end, err := parseDate(filter.EndDate)
		if err != nil {
			return nil, ErrInvalidInput(code.ErrValidation, "invalid endDate, expected YYYY-MM-DD")
		}
		query = query.Where("request_date < ?", end.AddDate(0, 0, 1))
	}

	if filter.ProvinceID != 0 {
		requesters := s.DB.Model(&models.User{}).Select("id").Where("province_id = ?", filter.ProvinceID)
		query = query.Where("user_id IN (?)", requesters)
	}

	if filter.Status != "" {
		status := models.EmergencyRequestStatus(filter.Status)
		if !status.IsValid() {
			return nil, ErrInvalidInput(code.ErrInvalidStatus, "invalid status")
		}
		query = query.Where("status = ?", status)
	}

	if filter.SearchBy != "" && filter.Query != "" {
		column, ok := emergencySearchColumns[filter.SearchBy]
		if !ok {
			return nil, ErrInvalidInput(code.ErrValidation, "invalid searchBy, expected location or additionalInfo")
		}
		query = query.Where(column+" LIKE ?", "%"+filter.Query+"%")
	}

	orderBy, err := emergencyOrder(filter.SortBy, filter.SortOrder)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, ErrInternal(err)
	}

	var requests []models.EmergencyRequest
	if err := query.
		Preload("BloodType").
		Preload("Province").
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "name", "province_id")
		}).
		Order(orderBy).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, ErrInternal(err)
	}

	return &EmergencyRequestListResult{
		Requests:         requests,
		PaginationResult: models.NewPaginationResult(total, page, limit),
	}, nil
}

// 3 GetEmergencyRequestByID 获取紧急请求详情
func (s *EmergencyService) GetEmergencyRequestByID(ctx context.Context, id uint) (*models.EmergencyRequest, error) {
	var request models.EmergencyRequest
	err := s.DB.WithContext(ctx).
		Preload("BloodType").
		Preload("Province").
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "name", "phone", "province_id")
		}).
		First(&request, id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound(code.ErrEmergencyRequestNotFound, "emergency request not found")
		}
		return nil, ErrInternal(err)
	}
	return &request, nil
}

// 4 UpdateEmergencyRequest 更新紧急请求，血型或地区变化时重新检查库存
func (s *EmergencyService) UpdateEmergencyRequest(ctx context.Context, actor Actor, id uint, input UpdateEmergencyRequestInput) (*models.EmergencyRequest, error) {
	request, err := s.loadForAction(ctx, actor, id, ActionUpdate)
	if err != nil {
		return nil, err
	}
	if request.Status.IsTerminal() {
		return nil, ErrPreconditionFailed(code.ErrEmergencyRequestClosed, "emergency request is closed")
	}

	updates := map[string]interface{}{}
	bloodTypeID := request.BloodTypeID
	provinceID := request.ProvinceID

	if input.BloodType != nil {
		bloodType, err := s.resolveBloodType(ctx, *input.BloodType)
		if err != nil {
			return nil, err
		}
		bloodTypeID = bloodType.ID
		updates["blood_type_id"] = bloodTypeID
	}

	if input.Location != nil {
		province, err := s.Reference.FindProvinceByName(ctx, *input.Location)
		if err != nil {
			if IsKind(err, KindNotFound) {
				return nil, ErrInvalidInput(code.ErrInvalidLocation, "invalid location")
			}
			return nil, err
		}
		provinceID = province.ID
		updates["province_id"] = provinceID
		updates["location"] = *input.Location
	}

	if input.AdditionalInfo != nil {
		updates["additional_info"] = *input.AdditionalInfo
	}

	if bloodTypeID != request.BloodTypeID || provinceID != request.ProvinceID {
		inStock, err := s.Inventory.HasStock(ctx, bloodTypeID, provinceID)
		if err != nil {
			return nil, err
		}
		if !inStock {
			return nil, ErrUnavailable(MsgBloodUnavailable)
		}
	}

	if len(updates) > 0 {
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.EmergencyRequest{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
			return s.record(tx, actor.ID, id, models.OperationUpdate, "", "", "fields="+changedFields(updates))
		})
		if err != nil {
			return nil, ErrInternal(err)
		}
	}

	return s.GetEmergencyRequestByID(ctx, id)
}

// 5 DeleteEmergencyRequest 删除紧急请求，已结束的请求只有管理员可以删除
func (s *EmergencyService) DeleteEmergencyRequest(ctx context.Context, actor Actor, id uint) error {
	request, err := s.loadForAction(ctx, actor, id, ActionDelete)
	if err != nil {
		return err
	}
	if request.Status.IsTerminal() && actor.Role != models.RoleAdmin {
		return ErrPreconditionFailed(code.ErrEmergencyRequestClosed, "emergency request is closed")
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.EmergencyRequest{}, id).Error; err != nil {
			return err
		}
		return s.record(tx, actor.ID, id, models.OperationDelete, string(request.Status), "", "")
	})
	if err != nil {
		return ErrInternal(err)
	}
	Logger.Info("紧急请求已删除: id=%d, 操作人=%d", id, actor.ID)
	return nil
}

// 6 UpdateStatus 按状态流转表更新紧急请求状态
func (s *EmergencyService) UpdateStatus(ctx context.Context, actor Actor, id uint, newStatus string) (*models.EmergencyRequest, error) {
	next := models.EmergencyRequestStatus(newStatus)
	if !next.IsValid() {
		return nil, ErrInvalidInput(code.ErrInvalidStatus, "invalid status")
	}

	request, err := s.loadForAction(ctx, actor, id, ActionUpdateStatus)
	if err != nil {
		return nil, err
	}

	if request.Status == next {
		return s.GetEmergencyRequestByID(ctx, id)
	}
	if request.Status.IsTerminal() {
		return nil, ErrPreconditionFailed(code.ErrEmergencyRequestClosed, "emergency request is closed")
	}
	if !request.Status.CanTransitionTo(next) {
		return nil, ErrInvalidInput(code.ErrInvalidStatusTransition,
			fmt.Sprintf("invalid status transition from %s to %s", request.Status, next))
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EmergencyRequest{}).Where("id = ?", id).Update("status", next).Error; err != nil {
			return err
		}
		return s.record(tx, actor.ID, id, models.OperationStatusChange, string(request.Status), string(next), "")
	})
	if err != nil {
		return nil, ErrInternal(err)
	}
	Logger.Info("紧急请求状态变更: id=%d, %s -> %s, 操作人=%d", id, request.Status, next, actor.ID)

	return s.GetEmergencyRequestByID(ctx, id)
}

// 7 GetEmergencyRequestHistory 查看紧急请求的变更记录，仅所有者或管理员
func (s *EmergencyService) GetEmergencyRequestHistory(ctx context.Context, actor Actor, id uint, page, limit int) (*OperationLogListResult, error) {
	if _, err := s.loadForAction(ctx, actor, id, ActionRead); err != nil {
		return nil, err
	}
	if s.Logs == nil {
		page, limit = normalizePage(page, limit)
		return &OperationLogListResult{Logs: []models.OperationLog{}, PaginationResult: models.NewPaginationResult(0, page, limit)}, nil
	}
	return s.Logs.ListOperationLogs(ctx, OperationLogFilter{
		Page:         page,
		Limit:        limit,
		ResourceType: models.ResourceEmergencyRequest,
		ResourceID:   id,
	})
}

// record 写入紧急请求操作记录，未配置操作记录服务时跳过
func (s *EmergencyService) record(tx *gorm.DB, userID, requestID uint, operation, from, to, details string) error {
	if s.Logs == nil {
		return nil
	}
	return s.Logs.Record(tx, models.OperationLog{
		OperationType: operation,
		ResourceType:  models.ResourceEmergencyRequest,
		ResourceID:    requestID,
		UserID:        userID,
		FromStatus:    from,
		ToStatus:      to,
		Details:       details,
		Timestamp:     s.now(),
	})
}

// changedFields 按字母序列出更新的列
func changedFields(updates map[string]interface{}) string {
	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return strings.Join(fields, ",")
}

// loadForAction 加载请求并判断操作权限
func (s *EmergencyService) loadForAction(ctx context.Context, actor Actor, id uint, action string) (*models.EmergencyRequest, error) {
	var request models.EmergencyRequest
	if err := s.DB.WithContext(ctx).First(&request, id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound(code.ErrEmergencyRequestNotFound, "emergency request not found")
		}
		return nil, ErrInternal(err)
	}

	resource := Resource{OwnerID: request.OwnerID()}
	if !s.Authz.CanActOn(actor, resource, action) {
		return nil, ErrForbidden("you are not allowed to modify this emergency request")
	}
	return &request, nil
}

// resolveBloodType 精确匹配血型编码
func (s *EmergencyService) resolveBloodType(ctx context.Context, bloodTypeCode string) (*models.BloodType, error) {
	if strings.TrimSpace(bloodTypeCode) == "" {
		return nil, ErrInvalidInput(code.ErrInvalidBloodType, "blood type is required")
	}
	bloodType, err := s.Reference.FindBloodTypeByCode(ctx, bloodTypeCode)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, ErrInvalidInput(code.ErrInvalidBloodType, "unknown blood type")
		}
		return nil, err
	}
	return bloodType, nil
}

// resolveTargetProvince 手动指定地区优先，否则使用请求者登记的省份；返回省份和展示地点
func (s *EmergencyService) resolveTargetProvince(ctx context.Context, requesterID uint, manualLocation *string) (*models.Province, string, error) {
	if manualLocation != nil && *manualLocation != "" {
		province, err := s.Reference.FindProvinceByName(ctx, *manualLocation)
		if err != nil {
			if IsKind(err, KindNotFound) {
				return nil, "", ErrInvalidInput(code.ErrInvalidLocation, "invalid location")
			}
			return nil, "", err
		}
		return province, *manualLocation, nil
	}

	var requester models.User
	if err := s.DB.WithContext(ctx).Select("id", "province_id").First(&requester, requesterID).Error; err != nil {
		if isNotFound(err) {
			return nil, "", ErrNotFound(code.ErrUserNotFound, "user not found")
		}
		return nil, "", ErrInternal(err)
	}
	if requester.ProvinceID == nil {
		return nil, "", ErrPreconditionFailed(code.ErrUserMissingProvince, "missing province")
	}

	province, err := s.Reference.GetProvince(ctx, *requester.ProvinceID)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return nil, "", ErrPreconditionFailed(code.ErrUserMissingProvince, "missing province")
		}
		return nil, "", err
	}
	return province, province.Capital, nil
}

func (s *EmergencyService) notifyDonors(bloodTypeID, provinceID uint) {
	if s.Notifier == nil {
		Logger.Warning("未配置献血者通知，跳过: bloodType=%d province=%d", bloodTypeID, provinceID)
		return
	}
	s.Notifier.NotifyEligibleDonors(bloodTypeID, provinceID)
}

func emergencyOrder(sortBy, sortOrder string) (string, error) {
	if sortBy == "" {
		sortBy = "requestDate"
	}
	column, ok := emergencySortColumns[sortBy]
	if !ok {
		return "", ErrInvalidInput(code.ErrValidation, "invalid sortBy")
	}

	direction := "ASC"
	switch strings.ToLower(sortOrder) {
	case "", "asc":
	case "desc":
		direction = "DESC"
	default:
		return "", ErrInvalidInput(code.ErrValidation, "invalid sortOrder, expected asc or desc")
	}

	if column == "id" {
		return "id " + direction, nil
	}
	return column + " " + direction + ", id " + direction, nil
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.Local)
}
