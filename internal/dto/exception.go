package dto

import "encoding/json"

// ── 考勤异常模块 DTO ──

// ExceptionListRequest 异常列表查询参数
type ExceptionListRequest struct {
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	Kind       string `form:"kind"`
	Resolved   *bool  `form:"resolved"`
	DateRangeRequest
	PaginationRequest
}

// ExceptionResponse 异常响应
type ExceptionResponse struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employee_id"`
	Date        string          `json:"date"`
	Kind        string          `json:"kind"`
	Severity    int             `json:"severity"`
	Details     json.RawMessage `json:"details,omitempty"`
	ShiftID     *string         `json:"shift_id,omitempty"`
	ViolationID *string         `json:"violation_id,omitempty"`
	ResolvedAt  *string         `json:"resolved_at,omitempty"`
	ResolvedBy  *string         `json:"resolved_by,omitempty"`
	CreatedAt   string          `json:"created_at"`
}
