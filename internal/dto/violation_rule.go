package dto

import "github.com/shopspring/decimal"

// ── 违规规则模块 DTO ──

// CreateViolationRuleRequest 创建违规规则请求
type CreateViolationRuleRequest struct {
	Code           string          `json:"code"            binding:"required,min=1,max=50"`
	Name           string          `json:"name"            binding:"required,min=1,max=200"`
	PenaltyPercent decimal.Decimal `json:"penalty_percent"`
	AutoDetectable bool            `json:"auto_detectable"`
	IsActive       *bool           `json:"is_active"` // 缺省为 true
}

// UpdateViolationRuleRequest 更新违规规则请求（字段均可选）
type UpdateViolationRuleRequest struct {
	Code           *string          `json:"code"            binding:"omitempty,min=1,max=50"`
	Name           *string          `json:"name"            binding:"omitempty,min=1,max=200"`
	PenaltyPercent *decimal.Decimal `json:"penalty_percent"`
	AutoDetectable *bool            `json:"auto_detectable"`
	IsActive       *bool            `json:"is_active"`
}

// ViolationRuleResponse 违规规则响应
type ViolationRuleResponse struct {
	ID             string          `json:"id"`
	CompanyID      string          `json:"company_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	PenaltyPercent decimal.Decimal `json:"penalty_percent"`
	AutoDetectable bool            `json:"auto_detectable"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      string          `json:"created_at"`
	UpdatedAt      string          `json:"updated_at"`
}
