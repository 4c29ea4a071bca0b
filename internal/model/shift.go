package model

import (
	"time"

	"gorm.io/gorm"
)

// 班次状态：planned → active → completed，或 planned|active → cancelled
const (
	ShiftStatusPlanned   = "planned"
	ShiftStatusActive    = "active"
	ShiftStatusCompleted = "completed"
	ShiftStatusCancelled = "cancelled"
)

// 区间来源
const (
	IntervalSourceBot    = "bot"
	IntervalSourceAdmin  = "admin"
	IntervalSourceSystem = "system"
)

// Shift 班次表，对应 shifts
type Shift struct {
	ShiftID      string     `gorm:"type:uuid;primaryKey"                         json:"shift_id"`
	EmployeeID   string     `gorm:"type:uuid;not null;index"                     json:"employee_id"`
	PlannedStart time.Time  `gorm:"not null;index"                               json:"planned_start"`
	PlannedEnd   time.Time  `gorm:"not null"                                     json:"planned_end"`
	ActualStart  *time.Time `json:"actual_start,omitempty"`
	ActualEnd    *time.Time `json:"actual_end,omitempty"`
	Status       string     `gorm:"type:varchar(20);not null;default:'planned'" json:"status"`
	VersionedModel

	WorkIntervals  []WorkInterval  `gorm:"foreignKey:ShiftID" json:"work_intervals,omitempty"`
	BreakIntervals []BreakInterval `gorm:"foreignKey:ShiftID" json:"break_intervals,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

func (s *Shift) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.ShiftID)
	return nil
}

// CanTransitionTo 状态机只允许单向流转
func (s *Shift) CanTransitionTo(next string) bool {
	switch s.Status {
	case ShiftStatusPlanned:
		return next == ShiftStatusActive || next == ShiftStatusCancelled
	case ShiftStatusActive:
		return next == ShiftStatusCompleted || next == ShiftStatusCancelled
	default:
		return false
	}
}

// WorkInterval 工作区间表，对应 work_intervals
// 每个班次同一时刻最多一个未结束的工作区间（部分唯一索引保证）
type WorkInterval struct {
	IntervalID string     `gorm:"type:uuid;primaryKey"                                                                          json:"interval_id"`
	ShiftID    string     `gorm:"type:uuid;not null;index:idx_work_intervals_shift;uniqueIndex:uq_work_intervals_open,where:end_at IS NULL" json:"shift_id"`
	StartAt    time.Time  `gorm:"not null"                                                                                      json:"start_at"`
	EndAt      *time.Time `json:"end_at,omitempty"`
	Source     string     `gorm:"type:varchar(20);not null"                                                                     json:"source"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"                                                            json:"created_at"`
}

// TableName 指定表名
func (WorkInterval) TableName() string { return "work_intervals" }

func (w *WorkInterval) BeforeCreate(_ *gorm.DB) error {
	ensureID(&w.IntervalID)
	return nil
}

// IsOpen 区间是否尚未结束
func (w *WorkInterval) IsOpen() bool { return w.EndAt == nil }

// BreakInterval 休息区间表，对应 break_intervals
type BreakInterval struct {
	IntervalID string     `gorm:"type:uuid;primaryKey"                                                                            json:"interval_id"`
	ShiftID    string     `gorm:"type:uuid;not null;index:idx_break_intervals_shift;uniqueIndex:uq_break_intervals_open,where:end_at IS NULL" json:"shift_id"`
	StartAt    time.Time  `gorm:"not null"                                                                                        json:"start_at"`
	EndAt      *time.Time `json:"end_at,omitempty"`
	Source     string     `gorm:"type:varchar(20);not null"                                                                       json:"source"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"                                                              json:"created_at"`
}

// TableName 指定表名
func (BreakInterval) TableName() string { return "break_intervals" }

func (b *BreakInterval) BeforeCreate(_ *gorm.DB) error {
	ensureID(&b.IntervalID)
	return nil
}

// IsOpen 区间是否尚未结束
func (b *BreakInterval) IsOpen() bool { return b.EndAt == nil }
