package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ViolationRule 违规规则表，对应 violation_rules
// Code 在公司内唯一（统一存小写，实现大小写不敏感）
type ViolationRule struct {
	RuleID         string          `gorm:"type:uuid;primaryKey"                                              json:"rule_id"`
	CompanyID      string          `gorm:"type:uuid;not null;uniqueIndex:uq_violation_rules_company_code"    json:"company_id"`
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex:uq_violation_rules_company_code" json:"code"`
	Name           string          `gorm:"type:varchar(200);not null"                                        json:"name"`
	PenaltyPercent decimal.Decimal `gorm:"type:numeric(5,2);not null"                                        json:"penalty_percent"`
	AutoDetectable bool            `gorm:"not null"                                                          json:"auto_detectable"`
	IsActive       bool            `gorm:"not null"                                                          json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (ViolationRule) TableName() string { return "violation_rules" }

func (r *ViolationRule) BeforeCreate(_ *gorm.DB) error {
	ensureID(&r.RuleID)
	return nil
}
