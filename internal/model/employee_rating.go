package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 评分状态
const (
	RatingStatusActive     = "active"
	RatingStatusWarning    = "warning"
	RatingStatusTerminated = "terminated"
)

// EmployeeRating 员工周期评分表，对应 employee_ratings
// (employee_id, period_start, period_end) 唯一，由评分计算器 upsert
type EmployeeRating struct {
	RatingID       string          `gorm:"type:uuid;primaryKey"                                  json:"rating_id"`
	EmployeeID     string          `gorm:"type:uuid;not null;uniqueIndex:uq_employee_ratings_period" json:"employee_id"`
	CompanyID      string          `gorm:"type:uuid;not null;index"                              json:"company_id"`
	PeriodStart    time.Time       `gorm:"type:date;not null;uniqueIndex:uq_employee_ratings_period" json:"period_start"`
	PeriodEnd      time.Time       `gorm:"type:date;not null;uniqueIndex:uq_employee_ratings_period" json:"period_end"`
	Rating         decimal.Decimal `gorm:"type:numeric(5,2);not null"                            json:"rating"`
	TotalPenalty   decimal.Decimal `gorm:"type:numeric(7,2);not null"                            json:"total_penalty"`
	ViolationCount int             `gorm:"not null"                                              json:"violation_count"`
	Status         string          `gorm:"type:varchar(20);not null"                             json:"status"`
	BaseModel
}

// TableName 指定表名
func (EmployeeRating) TableName() string { return "employee_ratings" }

func (r *EmployeeRating) BeforeCreate(_ *gorm.DB) error {
	ensureID(&r.RatingID)
	return nil
}
