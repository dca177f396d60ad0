package models

import "time"

// AppointmentStatus 献血预约状态
type AppointmentStatus string

const (
	AppointmentScheduled   AppointmentStatus = "scheduled"
	AppointmentCompleted   AppointmentStatus = "completed"
	AppointmentCancelled   AppointmentStatus = "cancelled"
	AppointmentRescheduled AppointmentStatus = "rescheduled"
)

// IsValid 是否为合法状态值
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentRescheduled:
		return true
	}
	return false
}

// IsActive 仍需要提醒的预约
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentScheduled || s == AppointmentRescheduled
}

// Appointment 献血预约
type Appointment struct {
	BaseModel
	UserID                 uint              `gorm:"index;not null" json:"user_id"`
	BloodTypeID            uint              `gorm:"not null" json:"blood_type_id"`
	ScheduledDate          time.Time         `gorm:"index;not null" json:"scheduled_date"`
	Location               string            `gorm:"type:varchar(255);not null" json:"location"`
	Status                 AppointmentStatus `gorm:"type:varchar(20);index;default:'scheduled'" json:"status"`
	HourBeforeReminderSent bool              `gorm:"default:false" json:"hour_before_reminder_sent"`
	MorningReminderSent    bool              `gorm:"default:false" json:"morning_reminder_sent"`

	// Relations
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BloodType *BloodType `gorm:"foreignKey:BloodTypeID" json:"blood_type,omitempty"`
}

// OwnerID 预约的所有者
func (a *Appointment) OwnerID() uint {
	return a.UserID
}
