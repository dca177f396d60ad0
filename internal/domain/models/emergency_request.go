package models

import "time"

// EmergencyRequestStatus 紧急用血请求状态
type EmergencyRequestStatus string

const (
	RequestPending    EmergencyRequestStatus = "pending"
	RequestInProgress EmergencyRequestStatus = "inProgress"
	RequestFulfilled  EmergencyRequestStatus = "fulfilled"
	RequestExpired    EmergencyRequestStatus = "expired"
	RequestCancelled  EmergencyRequestStatus = "cancelled"
)

// 允许的状态流转，终态没有出口
var requestTransitions = map[EmergencyRequestStatus][]EmergencyRequestStatus{
	RequestPending:    {RequestInProgress, RequestExpired, RequestCancelled},
	RequestInProgress: {RequestFulfilled, RequestExpired, RequestCancelled},
	RequestFulfilled:  {},
	RequestExpired:    {},
	RequestCancelled:  {},
}

// IsValid 是否为合法状态值
func (s EmergencyRequestStatus) IsValid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// IsTerminal 是否为终态
func (s EmergencyRequestStatus) IsTerminal() bool {
	next, ok := requestTransitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo 判断是否允许从当前状态切换到 next，相同状态视为允许
func (s EmergencyRequestStatus) CanTransitionTo(next EmergencyRequestStatus) bool {
	if s == next {
		return s.IsValid()
	}
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// EmergencyRequest 紧急用血请求
type EmergencyRequest struct {
	BaseModel
	UserID         uint                   `gorm:"index;not null" json:"user_id"`
	BloodTypeID    uint                   `gorm:"index;not null" json:"blood_type_id"`
	ProvinceID     uint                   `gorm:"index;not null" json:"province_id"`
	RequestDate    time.Time              `gorm:"index;not null" json:"request_date"`
	Location       string                 `gorm:"type:varchar(255);not null" json:"location"`
	AdditionalInfo *string                `gorm:"type:text" json:"additional_info"`
	Status         EmergencyRequestStatus `gorm:"type:varchar(20);index;default:'pending'" json:"status"`

	// Relations
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BloodType *BloodType `gorm:"foreignKey:BloodTypeID" json:"blood_type,omitempty"`
	Province  *Province  `gorm:"foreignKey:ProvinceID" json:"province,omitempty"`
}

// OwnerID 请求的所有者
func (r *EmergencyRequest) OwnerID() uint {
	return r.UserID
}
