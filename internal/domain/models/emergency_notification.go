package models

import (
	"time"
)

// 通知发送结果
const (
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// 通知来源
const (
	NotificationKindEmergency  = "emergency"
	NotificationKindBloodDrive = "blood_drive"
)

// DonorNotification 一次献血者通知的发送记录
type DonorNotification struct {
	BaseModel
	JobID        string    `gorm:"type:varchar(36);index;not null" json:"job_id"`
	Kind         string    `gorm:"type:varchar(20);index;not null;default:'emergency'" json:"kind"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	BloodTypeID  uint      `json:"blood_type_id"` // 献血活动通知为 0
	ProvinceID   uint      `gorm:"not null" json:"province_id"`
	BloodDriveID *uint     `gorm:"index" json:"blood_drive_id,omitempty"`
	Channel      string    `gorm:"type:varchar(20);not null" json:"channel"` // whatsapp、telegram、log
	Status       string    `gorm:"type:varchar(10);index;not null" json:"status"`
	Error        string    `gorm:"type:text" json:"error,omitempty"`
	SentAt       time.Time `gorm:"index" json:"sent_at"`
}
