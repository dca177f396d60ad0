package models

import "time"

// BloodDrive 献血活动公告
type BloodDrive struct {
	BaseModel
	UserID        uint      `gorm:"index;not null" json:"user_id"` // 发布活动的管理员
	Institute     string    `gorm:"type:varchar(255);not null" json:"institute"`
	ProvinceID    uint      `gorm:"index;not null" json:"province_id"`
	Designation   string    `gorm:"type:varchar(255);not null" json:"designation"`
	ScheduledDate time.Time `gorm:"index;not null" json:"scheduled_date"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Province *Province `gorm:"foreignKey:ProvinceID" json:"province,omitempty"`
}
