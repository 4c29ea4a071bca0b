package dto

import "time"

// ── 班次模块 DTO ──

// CreateShiftRequest 创建计划班次请求
type CreateShiftRequest struct {
	EmployeeID   string    `json:"employee_id"   binding:"required,uuid"`
	PlannedStart time.Time `json:"planned_start" binding:"required"`
	PlannedEnd   time.Time `json:"planned_end"   binding:"required,gtfield=PlannedStart"`
}

// ShiftListRequest 员工班次列表查询参数
type ShiftListRequest struct {
	EmployeeID string `form:"employee_id" binding:"required,uuid"`
	DateRangeRequest
}

// StartShiftForEmployeeRequest 按员工开班请求（无计划班次时临时开班）
type StartShiftForEmployeeRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
}

// BotActionRequest 聊天机器人动作请求，员工由外部聊天账号定位
type BotActionRequest struct {
	TelegramID int64 `json:"telegram_id" binding:"required"`
}

// ── 响应 ──

// ShiftResponse 班次响应（含区间）
type ShiftResponse struct {
	ID             string             `json:"id"`
	EmployeeID     string             `json:"employee_id"`
	PlannedStart   string             `json:"planned_start"`
	PlannedEnd     string             `json:"planned_end"`
	ActualStart    *string            `json:"actual_start,omitempty"`
	ActualEnd      *string            `json:"actual_end,omitempty"`
	Status         string             `json:"status"`
	Version        int                `json:"version"`
	WorkIntervals  []IntervalResponse `json:"work_intervals"`
	BreakIntervals []IntervalResponse `json:"break_intervals"`
	CreatedAt      string             `json:"created_at"`
	UpdatedAt      string             `json:"updated_at"`
}

// IntervalResponse 工作/休息区间响应
type IntervalResponse struct {
	ID      string  `json:"id"`
	StartAt string  `json:"start_at"`
	EndAt   *string `json:"end_at,omitempty"`
	Source  string  `json:"source"`
}
