package dto

import "github.com/shopspring/decimal"

// ── 违规记录模块 DTO ──

// CreateViolationRequest 手动录入违规请求
type CreateViolationRequest struct {
	EmployeeID string           `json:"employee_id" binding:"required,uuid"`
	RuleID     string           `json:"rule_id"     binding:"required,uuid"`
	Reason     *string          `json:"reason"      binding:"omitempty,max=500"`
	Penalty    *decimal.Decimal `json:"penalty"` // 缺省取规则的扣分比例
}

// UpdateViolationRequest 管理员修改违规请求
type UpdateViolationRequest struct {
	RuleID  *string          `json:"rule_id" binding:"omitempty,uuid"`
	Reason  *string          `json:"reason"  binding:"omitempty,max=500"`
	Penalty *decimal.Decimal `json:"penalty"`
}

// ViolationListRequest 违规列表查询参数
type ViolationListRequest struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	RuleID     string `form:"rule_id"     binding:"omitempty,uuid"`
	Source     string `form:"source"      binding:"omitempty,oneof=auto manual"`
	DateRangeRequest
	PaginationRequest
}

// ViolationResponse 违规记录响应
type ViolationResponse struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employee_id"`
	CompanyID  string          `json:"company_id"`
	RuleID     string          `json:"rule_id"`
	Source     string          `json:"source"`
	Reason     *string         `json:"reason,omitempty"`
	Penalty    decimal.Decimal `json:"penalty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}
