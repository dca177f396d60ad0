package models

// Province 省份，ID 使用行政区划代码（如 31 = DKI Jakarta）
type Province struct {
	ID      uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name    string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Capital string `gorm:"type:varchar(100);not null" json:"capital"`
}

// BloodType 血型，Type 为 "A+"、"O-" 等编码
type BloodType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Type string `gorm:"type:varchar(5);uniqueIndex;not null" json:"type"`
}
