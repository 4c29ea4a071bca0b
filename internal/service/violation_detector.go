package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muhamed1222/timeout-sub002/internal/model"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
)

// 检测到的违规类型
const (
	ViolationTypeMissedShift = "missed_shift"
	ViolationTypeLateStart   = "late_start"
	ViolationTypeEarlyEnd    = "early_end"
	ViolationTypeLongBreak   = "long_break"
	ViolationTypeNoBreakEnd  = "no_break_end"
)

// 固定阈值（分钟），严格大于才触发
const (
	missedShiftMinutes     = 60
	lateStartMinutes       = 15
	earlyEndMinutes        = 15
	lateSevereMinutes      = 30
	longBreakMinutes       = 90
	longBreakSevereMinutes = 180
)

// DetectedViolation 一次巡检得到的候选违规事件
type DetectedViolation struct {
	Type       string
	ShiftID    string
	EmployeeID string
	Date       time.Time // 计划开班日期（巡检时区），UTC 零点
	Severity   int
	Minutes    int // 迟到/早退/超时/休息时长，视类型而定
	Details    map[string]interface{}
}

// ViolationDetector 按公司扫描班次，计算候选违规
// 检测只读，读取失败时记录日志并返回空列表
type ViolationDetector interface {
	Detect(ctx context.Context, companyID string) []DetectedViolation
}

type violationDetector struct {
	repo     *repository.Repository
	loc      *time.Location
	lookback time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewViolationDetector 创建 ViolationDetector 实例
func NewViolationDetector(repo *repository.Repository, loc *time.Location, lookback time.Duration, logger *zap.Logger) ViolationDetector {
	return &violationDetector{repo: repo, loc: loc, lookback: lookback, now: time.Now, logger: logger}
}

func (d *violationDetector) Detect(ctx context.Context, companyID string) []DetectedViolation {
	now := d.now()

	shifts, err := d.repo.Shift.ListForMonitoring(ctx, companyID, now.Add(-d.lookback))
	if err != nil {
		d.logger.Error("巡检读取班次失败", zap.String("company_id", companyID), zap.Error(err))
		return nil
	}

	var events []DetectedViolation
	for i := range shifts {
		events = append(events, detectShift(&shifts[i], now, d.loc)...)
	}

	d.logger.Debug("巡检检测完成",
		zap.String("company_id", companyID),
		zap.Int("shifts", len(shifts)),
		zap.Int("events", len(events)),
	)
	return events
}

// ── 检测规则（纯函数） ──

// detectShift 对单个班次应用全部阈值，一个班次可同时产生多条事件
func detectShift(shift *model.Shift, now time.Time, loc *time.Location) []DetectedViolation {
	var events []DetectedViolation
	date := dateOf(shift.PlannedStart, loc)

	event := func(kind string, severity, minutes int, details map[string]interface{}) DetectedViolation {
		return DetectedViolation{
			Type:       kind,
			ShiftID:    shift.ShiftID,
			EmployeeID: shift.EmployeeID,
			Date:       date,
			Severity:   severity,
			Minutes:    minutes,
			Details:    details,
		}
	}

	// 缺勤：计划状态且已超过计划开始 60 分钟
	if shift.Status == model.ShiftStatusPlanned {
		if overdue := minutesBetween(shift.PlannedStart, now); overdue > missedShiftMinutes {
			events = append(events, event(ViolationTypeMissedShift, 3, overdue, map[string]interface{}{
				"planned_start":   shift.PlannedStart.UTC().Format(time.RFC3339),
				"minutes_overdue": overdue,
			}))
		}
		return events
	}

	// 迟到：首个工作区间开始晚于计划开始
	if start, ok := firstWorkStart(shift); ok {
		if late := minutesBetween(shift.PlannedStart, start); late > lateStartMinutes {
			events = append(events, event(ViolationTypeLateStart, graded(late, lateSevereMinutes, 2, 1), late, map[string]interface{}{
				"planned_start": shift.PlannedStart.UTC().Format(time.RFC3339),
				"actual_start":  start.UTC().Format(time.RFC3339),
				"minutes_late":  late,
			}))
		}
	}

	// 早退：已完成班次的最后一个工作区间结束早于计划结束
	if shift.Status == model.ShiftStatusCompleted {
		if end, ok := lastWorkEnd(shift); ok {
			if early := minutesBetween(end, shift.PlannedEnd); early > earlyEndMinutes {
				events = append(events, event(ViolationTypeEarlyEnd, graded(early, lateSevereMinutes, 2, 1), early, map[string]interface{}{
					"planned_end":   shift.PlannedEnd.UTC().Format(time.RFC3339),
					"actual_end":    end.UTC().Format(time.RFC3339),
					"minutes_early": early,
				}))
			}
		}
	}

	for _, brk := range shift.BreakIntervals {
		if brk.EndAt != nil {
			if dur := minutesBetween(brk.StartAt, *brk.EndAt); dur > longBreakMinutes {
				events = append(events, event(ViolationTypeLongBreak, graded(dur, longBreakSevereMinutes, 3, 2), dur, map[string]interface{}{
					"break_start":      brk.StartAt.UTC().Format(time.RFC3339),
					"break_end":        brk.EndAt.UTC().Format(time.RFC3339),
					"duration_minutes": dur,
				}))
			}
			continue
		}
		if dur := minutesBetween(brk.StartAt, now); dur > longBreakMinutes {
			events = append(events, event(ViolationTypeNoBreakEnd, 3, dur, map[string]interface{}{
				"break_start":      brk.StartAt.UTC().Format(time.RFC3339),
				"duration_minutes": dur,
			}))
		}
	}

	return events
}

// minutesBetween 整分钟差（向下取整），to 早于 from 时为负
func minutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}

func graded(minutes, severeAbove, severe, normal int) int {
	if minutes > severeAbove {
		return severe
	}
	return normal
}

func firstWorkStart(shift *model.Shift) (time.Time, bool) {
	var first *time.Time
	for i := range shift.WorkIntervals {
		s := shift.WorkIntervals[i].StartAt
		if first == nil || s.Before(*first) {
			first = &s
		}
	}
	if first != nil {
		return *first, true
	}
	if shift.ActualStart != nil {
		return *shift.ActualStart, true
	}
	return time.Time{}, false
}

func lastWorkEnd(shift *model.Shift) (time.Time, bool) {
	var last *time.Time
	for i := range shift.WorkIntervals {
		e := shift.WorkIntervals[i].EndAt
		if e == nil {
			continue
		}
		if last == nil || e.After(*last) {
			last = e
		}
	}
	if last == nil {
		return time.Time{}, false
	}
	if shift.ActualEnd != nil {
		return *shift.ActualEnd, true
	}
	return *last, true
}
