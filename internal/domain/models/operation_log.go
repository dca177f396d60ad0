package models

import (
	"time"
)

// 操作类型
const (
	OperationCreate       = "create"
	OperationUpdate       = "update"
	OperationStatusChange = "status_change"
	OperationDelete       = "delete"
)

// 被操作的资源类型
const (
	ResourceEmergencyRequest = "emergency_request"
	ResourceBloodDrive       = "blood_drive"
)

// OperationLog 业务数据变更记录，与变更在同一事务中写入
type OperationLog struct {
	BaseModel
	OperationType string    `gorm:"type:varchar(30);not null" json:"operation_type"` // 如: create, status_change, delete
	ResourceType  string    `gorm:"type:varchar(30);index:idx_operation_resource;not null" json:"resource_type"`
	ResourceID    uint      `gorm:"index:idx_operation_resource;not null" json:"resource_id"`
	UserID        uint      `gorm:"index" json:"user_id"` // 执行操作的用户ID，0表示系统自动操作
	FromStatus    string    `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus      string    `gorm:"type:varchar(20)" json:"to_status,omitempty"`
	Details       string    `gorm:"type:text" json:"details,omitempty"`
	Timestamp     time.Time `gorm:"index" json:"timestamp"`
}
