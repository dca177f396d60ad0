package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/metrics"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"gorm.io/gorm"
)

// DonorEmergencyMessage 发送给献血者的紧急通知内容
const DonorEmergencyMessage = "Emergency blood donation request! Your help is needed."

// 通知任务结果
const (
	jobQueued    = "queued"
	jobDropped   = "dropped"
	jobCompleted = "completed"
	jobFailed    = "failed"
)

// donorJob 一次献血者通知任务，Kind 决定收件人范围
type donorJob struct {
	ID           string
	Kind         string
	BloodTypeID  uint
	ProvinceID   uint
	BloodDriveID uint
	Message      string
}

// NotificationService 献血者通知服务：有界队列加固定数量的 worker
type NotificationService struct {
	DB          *gorm.DB
	Config      *config.Config
	Sender      MessageSender
	Publisher   EventPublisher
	SendTimeout time.Duration

	jobs   chan donorJob
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewNotificationService 创建通知服务并启动 worker，publisher 可以为 nil
func NewNotificationService(db *gorm.DB, cfg *config.Config, sender MessageSender, publisher EventPublisher) *NotificationService {
	workers := cfg.NotifyWorkers
	if workers < 1 {
		workers = 1
	}
	queueSize := cfg.NotifyQueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	s := &NotificationService{
		DB:          db,
		Config:      cfg,
		Sender:      sender,
		Publisher:   publisher,
		SendTimeout: 10 * time.Second,
		jobs:        make(chan donorJob, queueSize),
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	Logger.Info("献血者通知服务已启动: 通道=%s, worker=%d, 队列=%d", sender.Channel(), workers, queueSize)
	return s
}

// 1 NotifyEligibleDonors 把通知任务放入队列后立即返回，队列已满或服务已关闭时丢弃
func (s *NotificationService) NotifyEligibleDonors(bloodTypeID, provinceID uint) {
	s.enqueue(donorJob{
		ID:          uuid.NewString(),
		Kind:        models.NotificationKindEmergency,
		BloodTypeID: bloodTypeID,
		ProvinceID:  provinceID,
		Message:     DonorEmergencyMessage,
	})
}

// NotifyBloodDrive 向活动所在省份登记过志愿献血的用户发送活动公告，drive 需要带 Province
func (s *NotificationService) NotifyBloodDrive(drive *models.BloodDrive, isNew bool) {
	s.enqueue(donorJob{
		ID:           uuid.NewString(),
		Kind:         models.NotificationKindBloodDrive,
		ProvinceID:   drive.ProvinceID,
		BloodDriveID: drive.ID,
		Message:      BloodDriveMessage(drive, isNew),
	})
}

// BloodDriveMessage 献血活动公告内容
func BloodDriveMessage(drive *models.BloodDrive, isNew bool) string {
	prefix := "Updated Blood Drive Alert:"
	if isNew {
		prefix = "New Blood Drive Alert:"
	}
	place := ""
	if drive.Province != nil {
		place = drive.Province.Name
	}
	return fmt.Sprintf("%s %s organized by %s at %s on %s.",
		prefix, drive.Designation, drive.Institute, place, drive.ScheduledDate.Format("2006-01-02 15:04"))
}

func (s *NotificationService) enqueue(job donorJob) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		Logger.Warning("通知服务已关闭，丢弃任务: job=%s kind=%s province=%d", job.ID, job.Kind, job.ProvinceID)
		metrics.RecordNotificationJob(jobDropped)
		return
	}

	select {
	case s.jobs <- job:
		metrics.RecordNotificationJob(jobQueued)
	default:
		Logger.Error("通知队列已满，丢弃任务: job=%s kind=%s province=%d", job.ID, job.Kind, job.ProvinceID)
		metrics.RecordNotificationJob(jobDropped)
	}
}

// 2 FindEligibleDonors 查询血型匹配、愿意献血、可紧急援助且所在省份匹配的志愿登记
func (s *NotificationService) FindEligibleDonors(ctx context.Context, bloodTypeID, provinceID uint) ([]Recipient, error) {
	var recipients []Recipient
	err := s.DB.WithContext(ctx).
		Table("help_offers").
		Select("users.id AS user_id, users.name, users.phone, users.telegram_chat_id").
		Joins("JOIN users ON users.id = help_offers.user_id").
		Where("help_offers.blood_type_id = ?", bloodTypeID).
		Where("help_offers.can_help_in_emergency = ?", true).
		Where("help_offers.is_willing_to_donate = ?", true).
		Where("users.province_id = ?", provinceID).
		Order("help_offers.id ASC").
		Scan(&recipients).Error
	if err != nil {
		return nil, err
	}
	return recipients, nil
}

// FindBloodDriveRecipients 所在省份匹配且登记过志愿献血的用户，每人一条
func (s *NotificationService) FindBloodDriveRecipients(ctx context.Context, provinceID uint) ([]Recipient, error) {
	offered := s.DB.Model(&models.HelpOffer{}).Select("user_id")
	var recipients []Recipient
	err := s.DB.WithContext(ctx).
		Table("users").
		Select("users.id AS user_id, users.name, users.phone, users.telegram_chat_id").
		Where("users.province_id = ?", provinceID).
		Where("users.id IN (?)", offered).
		Order("users.id ASC").
		Scan(&recipients).Error
	if err != nil {
		return nil, err
	}
	return recipients, nil
}

func (s *NotificationService) recipients(ctx context.Context, job donorJob) ([]Recipient, error) {
	if job.Kind == models.NotificationKindBloodDrive {
		return s.FindBloodDriveRecipients(ctx, job.ProvinceID)
	}
	return s.FindEligibleDonors(ctx, job.BloodTypeID, job.ProvinceID)
}

// NotificationFilter 通知记录查询条件
type NotificationFilter struct {
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
	UserID      uint   `form:"userId"`
	BloodTypeID uint   `form:"bloodTypeId"`
	ProvinceID  uint   `form:"provinceId"`
	Status      string `form:"status"`
	JobID       string `form:"jobId"`
	Kind        string `form:"kind"`
}

// NotificationListResult 通知记录分页结果
type NotificationListResult struct {
	Notifications []models.DonorNotification `json:"notifications"`
	models.PaginationResult
}

// 3 ListNotifications 分页查询通知记录，按发送时间倒序
func (s *NotificationService) ListNotifications(ctx context.Context, filter NotificationFilter) (*NotificationListResult, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)

	if filter.Status != "" && filter.Status != models.NotificationSent && filter.Status != models.NotificationFailed {
		return nil, ErrInvalidInput(code.ErrValidation, "invalid status")
	}

	query := s.DB.WithContext(ctx).Model(&models.DonorNotification{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.BloodTypeID != 0 {
		query = query.Where("blood_type_id = ?", filter.BloodTypeID)
	}
	if filter.ProvinceID != 0 {
		query = query.Where("province_id = ?", filter.ProvinceID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.JobID != "" {
		query = query.Where("job_id = ?", filter.JobID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, ErrInternal(err)
	}

	notifications := make([]models.DonorNotification, 0)
	if err := query.Order("sent_at DESC, id DESC").Offset((page - 1) * limit).Limit(limit).Find(&notifications).Error; err != nil {
		return nil, ErrInternal(err)
	}

	return &NotificationListResult{
		Notifications:    notifications,
		PaginationResult: models.NewPaginationResult(total, page, limit),
	}, nil
}

// 4 Close 停止接收新任务并等待队列中的任务处理完毕
func (s *NotificationService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	s.wg.Wait()
	Logger.Info("献血者通知服务已停止")
}

func (s *NotificationService) worker() {
	defer s.wg.Done()
	for job := range s.jobs {
		s.process(job)
	}
}

// process 逐个发送通知，单个失败只记录不中断
func (s *NotificationService) process(job donorJob) {
	ctx := context.Background()
	channel := s.Sender.Channel()

	recipients, err := s.recipients(ctx, job)
	if err != nil {
		Logger.Error("查询可通知献血者失败: job=%s err=%v", job.ID, err)
		metrics.RecordNotificationJob(jobFailed)
		return
	}

	event := DonorNotificationEvent{
		JobID:        job.ID,
		Kind:         job.Kind,
		BloodTypeID:  job.BloodTypeID,
		ProvinceID:   job.ProvinceID,
		BloodDriveID: job.BloodDriveID,
		Channel:      channel,
		Matched:      len(recipients),
	}
	var driveID *uint
	if job.BloodDriveID != 0 {
		id := job.BloodDriveID
		driveID = &id
	}

	records := make([]models.DonorNotification, 0, len(recipients))
	for _, recipient := range recipients {
		sendCtx, cancel := context.WithTimeout(ctx, s.SendTimeout)
		err := s.Sender.Send(sendCtx, recipient, job.Message)
		cancel()

		record := models.DonorNotification{
			JobID:        job.ID,
			Kind:         job.Kind,
			UserID:       recipient.UserID,
			BloodTypeID:  job.BloodTypeID,
			ProvinceID:   job.ProvinceID,
			BloodDriveID: driveID,
			Channel:      channel,
			Status:       models.NotificationSent,
			SentAt:       time.Now(),
		}

		metrics.RecordDonorNotification(channel, err)
		if err != nil {
			event.Failed++
			record.Status = models.NotificationFailed
			record.Error = err.Error()
			Logger.Warning("通知献血者失败: job=%s user=%d err=%v", job.ID, recipient.UserID, err)
		} else {
			event.Sent++
		}
		records = append(records, record)
	}

	if len(records) > 0 {
		if err := s.DB.WithContext(ctx).Create(&records).Error; err != nil {
			Logger.Error("保存通知记录失败: job=%s err=%v", job.ID, err)
		}
	}

	Logger.WithFields(map[string]interface{}{
		"job_id":     job.ID,
		"kind":       job.Kind,
		"blood_type": job.BloodTypeID,
		"province":   job.ProvinceID,
		"matched":    event.Matched,
		"sent":       event.Sent,
		"failed":     event.Failed,
	}).Info("献血者通知任务完成")
	metrics.RecordNotificationJob(jobCompleted)

	if s.Publisher != nil {
		event.Timestamp = time.Now().UnixMilli()
		if err := s.Publisher.PublishDonorNotificationEvent(event); err != nil {
			Logger.Warning("发布通知事件失败: job=%s err=%v", job.ID, err)
		}
	}
}
