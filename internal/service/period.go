package service

import (
	"errors"
	"time"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
)

// ErrInvalidPeriod 评分周期参数非法
var ErrInvalidPeriod = errors.New("评分周期无效")

// Period 评分周期，Start/End 为按日闭区间，存储为 UTC 零点
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthPeriod 返回 t 在 loc 时区下所在的自然月
func MonthPeriod(t time.Time, loc *time.Location) Period {
	lt := t.In(loc)
	first := time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: first, End: first.AddDate(0, 1, -1)}
}

// Bounds 把日期区间换算为 loc 时区下的半开时间区间 [from, to)
func (p Period) Bounds(loc *time.Location) (from, to time.Time) {
	from = time.Date(p.Start.Year(), p.Start.Month(), p.Start.Day(), 0, 0, 0, 0, loc)
	to = time.Date(p.End.Year(), p.End.Month(), p.End.Day()+1, 0, 0, 0, 0, loc)
	return from, to
}

// Contains 时间点是否落在周期内
func (p Period) Contains(t time.Time, loc *time.Location) bool {
	from, to := p.Bounds(loc)
	return !t.Before(from) && t.Before(to)
}

// ParsePeriod 解析 "2006-01-02" 格式的起止日期，均为空时取 now 所在自然月
func ParsePeriod(start, end string, now time.Time, loc *time.Location) (Period, error) {
	if start == "" && end == "" {
		return MonthPeriod(now, loc), nil
	}
	if start == "" || end == "" {
		return Period{}, ErrInvalidPeriod
	}

	s, err := time.Parse(dto.DateLayout, start)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	e, err := time.Parse(dto.DateLayout, end)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	if e.Before(s) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: s, End: e}, nil
}

// dateOf 取 t 在 loc 时区下的日历日期（UTC 零点表示）
func dateOf(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, time.UTC)
}
