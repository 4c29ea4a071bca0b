package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Exception 考勤异常表，对应 exceptions
// 同一员工同一天同一类型最多一条未处理异常（部分唯一索引 resolved_at IS NULL）
type Exception struct {
	ExceptionID string         `gorm:"type:uuid;primaryKey"                                                   json:"exception_id"`
	EmployeeID  string         `gorm:"type:uuid;not null;uniqueIndex:uq_exceptions_open,where:resolved_at IS NULL" json:"employee_id"`
	Date        time.Time      `gorm:"type:date;not null;uniqueIndex:uq_exceptions_open,where:resolved_at IS NULL" json:"date"`
	Kind        string         `gorm:"type:varchar(50);not null;uniqueIndex:uq_exceptions_open,where:resolved_at IS NULL" json:"kind"`
	Severity    int            `gorm:"type:smallint;not null"                                                 json:"severity"` // 1 | 2 | 3
	Details     datatypes.JSON `json:"details,omitempty"`
	ShiftID     *string        `gorm:"type:uuid"                                                              json:"shift_id,omitempty"`
	ViolationID *string        `gorm:"type:uuid;index"                                                        json:"violation_id,omitempty"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy  *string        `gorm:"type:varchar(64)"                                                       json:"resolved_by,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Exception) TableName() string { return "exceptions" }

func (e *Exception) BeforeCreate(_ *gorm.DB) error {
	ensureID(&e.ExceptionID)
	return nil
}

// IsResolved 是否已处理
func (e *Exception) IsResolved() bool { return e.ResolvedAt != nil }
