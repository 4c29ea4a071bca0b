package model

import (
	"time"

	"gorm.io/gorm"
)

// 通知类型
const (
	NotificationTypeViolation   = "violation_detected"
	NotificationTypeTermination = "termination"
)

// Notification 员工通知记录表，对应 notifications
type Notification struct {
	NotificationID string     `gorm:"type:uuid;primaryKey"          json:"notification_id"`
	EmployeeID     string     `gorm:"type:uuid;not null;index"      json:"employee_id"`
	Type           string     `gorm:"type:varchar(50);not null"     json:"type"`
	Content        string     `gorm:"type:text;not null"            json:"content"`
	Channel        string     `gorm:"type:varchar(20);not null"     json:"channel"` // telegram | none
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	Error          string     `gorm:"type:varchar(500)"             json:"error,omitempty"`
	RelatedType    *string    `gorm:"type:varchar(20)"              json:"related_type,omitempty"` // violation | exception | rating
	RelatedID      *string    `gorm:"type:uuid"                     json:"related_id,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	ensureID(&n.NotificationID)
	return nil
}
