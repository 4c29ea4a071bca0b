package dto

import "github.com/shopspring/decimal"

// ── 评分模块 DTO ──

// RatingPeriodRequest 评分周期参数，缺省为当前自然月
type RatingPeriodRequest struct {
	PeriodStart string `form:"period_start" json:"period_start" binding:"omitempty,datetime=2006-01-02"`
	PeriodEnd   string `form:"period_end"   json:"period_end"   binding:"omitempty,datetime=2006-01-02,required_with=PeriodStart"`
}

// RatingResponse 员工周期评分响应
type RatingResponse struct {
	ID             string          `json:"id"`
	EmployeeID     string          `json:"employee_id"`
	CompanyID      string          `json:"company_id"`
	PeriodStart    string          `json:"period_start"`
	PeriodEnd      string          `json:"period_end"`
	Rating         decimal.Decimal `json:"rating"`
	TotalPenalty   decimal.Decimal `json:"total_penalty"`
	ViolationCount int             `json:"violation_count"`
	Status         string          `json:"status"`
	UpdatedAt      string          `json:"updated_at"`
}

// CompanyRecalculateResponse 公司批量重算结果
type CompanyRecalculateResponse struct {
	Recalculated int `json:"recalculated"`
	Failed       int `json:"failed"`
}
