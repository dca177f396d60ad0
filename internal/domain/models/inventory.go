package models

import "time"

// BloodInventory 某省某血型的库存记录
type BloodInventory struct {
	BaseModel
	BloodTypeID uint      `gorm:"index:idx_inventory_pair;not null" json:"blood_type_id"`
	ProvinceID  uint      `gorm:"index:idx_inventory_pair;not null" json:"province_id"`
	Quantity    int       `gorm:"not null;default:0" json:"quantity"`
	ExpiryDate  time.Time `json:"expiry_date"`

	// Relations
	BloodType *BloodType `gorm:"foreignKey:BloodTypeID" json:"blood_type,omitempty"`
	Province  *Province  `gorm:"foreignKey:ProvinceID" json:"province,omitempty"`
}
