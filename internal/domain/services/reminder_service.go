package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m-istighfar/BE-M-Blood/internal/domain/models"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/config"
	"github.com/m-istighfar/BE-M-Blood/internal/infrastructure/metrics"
	Logger "github.com/m-istighfar/BE-M-Blood/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// 提醒类型
const (
	ReminderHourBefore = "hour_before"
	ReminderMorning    = "morning"
)

// ReminderService 预约提醒定时任务
type ReminderService struct {
	DB     *gorm.DB
	Config *config.Config
	Sender MessageSender

	cron *cron.Cron
	mu   sync.Mutex
	now  func() time.Time
}

// NewReminderService 创建预约提醒服务
func NewReminderService(db *gorm.DB, cfg *config.Config, sender MessageSender) *ReminderService {
	return &ReminderService{
		DB:     db,
		Config: cfg,
		Sender: sender,
		now:    time.Now,
	}
}

// 1 Start 按配置注册定时任务并启动调度器
func (s *ReminderService) Start() error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	if _, err := c.AddFunc(s.Config.ReminderHourlySpec, func() {
		s.SendHourBeforeReminders(context.Background())
	}); err != nil {
		return fmt.Errorf("注册一小时前提醒任务失败: %w", err)
	}
	if _, err := c.AddFunc(s.Config.ReminderMorningSpec, func() {
		s.SendMorningReminders(context.Background())
	}); err != nil {
		return fmt.Errorf("注册早间提醒任务失败: %w", err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	Logger.Info("预约提醒任务已启动: hourly=%q morning=%q", s.Config.ReminderHourlySpec, s.Config.ReminderMorningSpec)
	return nil
}

// 2 Stop 停止调度器并等待正在执行的任务结束
func (s *ReminderService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	Logger.Info("预约提醒任务已停止")
}

// 3 SendHourBeforeReminders 提醒一小时内开始的预约，返回成功发送数量
func (s *ReminderService) SendHourBeforeReminders(ctx context.Context) int {
	now := s.now()
	appointments, err := s.dueAppointments(ctx, "hour_before_reminder_sent", now, now.Add(time.Hour))
	if err != nil {
		Logger.Error("查询待提醒预约失败: %v", err)
		return 0
	}

	return s.remind(ctx, appointments, ReminderHourBefore, "hour_before_reminder_sent", func(a models.Appointment) string {
		return fmt.Sprintf("Reminder: You have an appointment scheduled at %s, %s.", a.ScheduledDate.Format("2006-01-02 15:04"), a.Location)
	})
}

// 4 SendMorningReminders 提醒当天的预约，返回成功发送数量
func (s *ReminderService) SendMorningReminders(ctx context.Context) int {
	dayStart := startOfDay(s.now())
	appointments, err := s.dueAppointments(ctx, "morning_reminder_sent", dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		Logger.Error("查询今日预约失败: %v", err)
		return 0
	}

	return s.remind(ctx, appointments, ReminderMorning, "morning_reminder_sent", func(a models.Appointment) string {
		return fmt.Sprintf("Good morning! Remember you have an appointment today at %s, %s.", a.ScheduledDate.Format("15:04"), a.Location)
	})
}

func (s *ReminderService) dueAppointments(ctx context.Context, flagColumn string, from, to time.Time) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.WithContext(ctx).
		Preload("User").
		Where("scheduled_date >= ? AND scheduled_date < ?", from, to).
		Where("status IN ?", []models.AppointmentStatus{models.AppointmentScheduled, models.AppointmentRescheduled}).
		Where(flagColumn+" = ?", false).
		Order("scheduled_date ASC").
		Find(&appointments).Error
	return appointments, err
}

func (s *ReminderService) remind(ctx context.Context, appointments []models.Appointment, kind, flagColumn string, message func(models.Appointment) string) int {
	sent := 0
	for _, appointment := range appointments {
		if appointment.User == nil {
			continue
		}

		to := Recipient{
			UserID:         appointment.User.ID,
			Name:           appointment.User.Name,
			Phone:          appointment.User.Phone,
			TelegramChatID: appointment.User.TelegramChatID,
		}
		err := s.Sender.Send(ctx, to, message(appointment))
		metrics.RecordReminder(kind, err)
		if err != nil {
			Logger.WithFields(map[string]interface{}{
				"appointment_id": appointment.ID,
				"user_id":        appointment.UserID,
				"kind":           kind,
			}).Warnf("发送预约提醒失败: %v", err)
			continue
		}

		if err := s.DB.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", appointment.ID).Update(flagColumn, true).Error; err != nil {
			Logger.Error("更新提醒标记失败: appointment=%d err=%v", appointment.ID, err)
			continue
		}
		sent++
	}
	return sent
}
