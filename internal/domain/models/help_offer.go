package models

// HelpOffer 志愿献血登记
type HelpOffer struct {
	BaseModel
	UserID             uint   `gorm:"index;not null" json:"user_id"`
	BloodTypeID        uint   `gorm:"index;not null" json:"blood_type_id"`
	IsWillingToDonate  bool   `json:"is_willing_to_donate"`
	CanHelpInEmergency bool   `json:"can_help_in_emergency"`
	Reason             string `gorm:"type:text" json:"reason,omitempty"`

	// Relations
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	BloodType *BloodType `gorm:"foreignKey:BloodTypeID" json:"blood_type,omitempty"`
}
