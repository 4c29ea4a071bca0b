package dto

import (
	"fmt"
	"time"
)

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── 日期区间 ──

// DateLayout 请求/响应中日期字段的格式
const DateLayout = "2006-01-02"

// TimeLayout 响应中时间字段的格式
const TimeLayout = "2006-01-02T15:04:05Z07:00"

// DateRangeRequest 可选的日期区间查询参数（闭区间，按日）
type DateRangeRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}

// Parse 解析区间，未提供的一端返回 nil
func (r *DateRangeRequest) Parse() (from, to *time.Time, err error) {
	if r.From != "" {
		t, err := time.Parse(DateLayout, r.From)
		if err != nil {
			return nil, nil, fmt.Errorf("from 格式错误: %w", err)
		}
		from = &t
	}
	if r.To != "" {
		t, err := time.Parse(DateLayout, r.To)
		if err != nil {
			return nil, nil, fmt.Errorf("to 格式错误: %w", err)
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("to 不能早于 from")
	}
	return from, to, nil
}

// FormatTime 统一时间输出格式
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// FormatTimePtr 可空时间输出
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}
