package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 违规来源
const (
	ViolationSourceAuto   = "auto"
	ViolationSourceManual = "manual"
)

// Violation 违规记录表，对应 violations
// 创建后仅允许管理员修改/删除，且必须触发评分重算
type Violation struct {
	ViolationID string          `gorm:"type:uuid;primaryKey"                           json:"violation_id"`
	EmployeeID  string          `gorm:"type:uuid;not null;index:idx_violations_employee_created" json:"employee_id"`
	CompanyID   string          `gorm:"type:uuid;not null;index"                       json:"company_id"`
	RuleID      string          `gorm:"type:uuid;not null;index"                       json:"rule_id"`
	Source      string          `gorm:"type:varchar(20);not null"                      json:"source"`
	Reason      *string         `gorm:"type:varchar(500)"                              json:"reason,omitempty"`
	Penalty     decimal.Decimal `gorm:"type:numeric(5,2);not null"                     json:"penalty"`
	BaseModel
}

// TableName 指定表名
func (Violation) TableName() string { return "violations" }

func (v *Violation) BeforeCreate(_ *gorm.DB) error {
	ensureID(&v.ViolationID)
	return nil
}
