package models

// 用户角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 平台用户（献血者 / 求助者 / 管理员）
type User struct {
	BaseModel
	Username          string  `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email             string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Password          string  `gorm:"type:varchar(100);not null" json:"-"`
	Role              string  `gorm:"type:varchar(20);default:'user'" json:"role"`
	Verified          bool    `gorm:"default:false" json:"verified"`
	VerificationToken *string `gorm:"type:varchar(64);uniqueIndex" json:"-"`
	Name              string  `gorm:"type:varchar(100);not null" json:"name"`
	Phone             string  `gorm:"type:varchar(20);not null" json:"phone"`
	TelegramChatID    *int64  `json:"telegram_chat_id,omitempty"`
	ProvinceID        *uint   `json:"province_id"`
	AdditionalInfo    string  `gorm:"type:text" json:"additional_info,omitempty"`

	// Relations
	Province *Province `gorm:"foreignKey:ProvinceID" json:"province,omitempty"`
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
