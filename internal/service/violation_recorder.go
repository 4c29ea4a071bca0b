package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/model"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
)

// ruleCodeByType 检测类型到规则编码的固定映射
var ruleCodeByType = map[string]string{
	ViolationTypeLateStart:   "late",
	ViolationTypeEarlyEnd:    "early_end",
	ViolationTypeMissedShift: "missed_shift",
	ViolationTypeLongBreak:   "long_break",
	ViolationTypeNoBreakEnd:  "no_break_end",
}

// RecordOutcome 单个事件的落库结果
type RecordOutcome struct {
	ViolationCreated bool
	ExceptionCreated bool
}

// ViolationRecorder 把检测事件转为违规与考勤异常
// 单个事件的任何失败只记录日志，不影响其他事件
type ViolationRecorder interface {
	Record(ctx context.Context, event DetectedViolation) RecordOutcome
}

type violationRecorder struct {
	repo     *repository.Repository
	rating   ratingRecalculator
	notifier NotificationService
	now      func() time.Time
	logger   *zap.Logger
}

// NewViolationRecorder 创建 ViolationRecorder 实例
func NewViolationRecorder(repo *repository.Repository, rating ratingRecalculator, notifier NotificationService, logger *zap.Logger) ViolationRecorder {
	return &violationRecorder{repo: repo, rating: rating, notifier: notifier, now: time.Now, logger: logger}
}

func (r *violationRecorder) Record(ctx context.Context, event DetectedViolation) RecordOutcome {
	var outcome RecordOutcome
	log := r.logger.With(
		zap.String("employee_id", event.EmployeeID),
		zap.String("shift_id", event.ShiftID),
		zap.String("type", event.Type),
	)

	employee, err := r.repo.Employee.GetByID(ctx, event.EmployeeID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("查询员工失败", zap.Error(err))
		}
		return outcome
	}

	known, err := r.alreadyKnown(ctx, event)
	if err != nil {
		log.Error("查询已有考勤异常失败", zap.Error(err))
		return outcome
	}
	if known {
		return outcome
	}

	rule, ok := r.resolveRule(ctx, employee.CompanyID, event.Type, log)
	if !ok {
		return outcome
	}

	// 违规与评分失败时仍创建不关联违规的异常，保证问题可见
	violation, violationID := r.createViolation(ctx, employee, rule, event, log)

	details, _ := json.Marshal(event.Details)
	exception := &model.Exception{
		EmployeeID:  employee.EmployeeID,
		Date:        event.Date,
		Kind:        event.Type,
		Severity:    event.Severity,
		Details:     datatypes.JSON(details),
		ViolationID: violationID,
	}
	if event.ShiftID != "" {
		shiftID := event.ShiftID
		exception.ShiftID = &shiftID
	}

	created, err := r.repo.Exception.CreateIfAbsent(ctx, exception)
	if err != nil {
		log.Error("创建考勤异常失败", zap.Error(err))
		outcome.ViolationCreated = violation != nil
		return outcome
	}
	if !created {
		// 并发巡检已抢先记录，撤销本次违规
		if violation != nil {
			r.rollbackViolation(ctx, employee, violation, log)
		}
		return outcome
	}

	outcome.ExceptionCreated = true
	outcome.ViolationCreated = violation != nil

	log.Info("记录自动检测违规",
		zap.String("exception_id", exception.ExceptionID),
		zap.Int("severity", event.Severity),
		zap.Bool("violation_linked", violationID != nil),
	)

	if violation != nil {
		r.notify(ctx, employee, rule, violation, event, log)
	}
	return outcome
}

// ── 内部辅助方法 ──

// alreadyKnown 同日同类型存在未处理异常，或该班次同类异常已被处理过
func (r *violationRecorder) alreadyKnown(ctx context.Context, event DetectedViolation) (bool, error) {
	_, err := r.repo.Exception.FindOpen(ctx, event.EmployeeID, event.Date, event.Type)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if event.ShiftID == "" {
		return false, nil
	}
	return r.repo.Exception.HasResolvedForShift(ctx, event.ShiftID, event.Type)
}

// resolveRule 只有启用且允许自动检测的规则才会记录，否则丢弃事件
func (r *violationRecorder) resolveRule(ctx context.Context, companyID, eventType string, log *zap.Logger) (*model.ViolationRule, bool) {
	code, ok := ruleCodeByType[eventType]
	if !ok {
		log.Warn("未知的检测类型")
		return nil, false
	}

	rule, err := r.repo.ViolationRule.GetByCode(ctx, companyID, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debug("未配置对应规则，忽略事件", zap.String("code", code))
		} else {
			log.Error("查询违规规则失败", zap.String("code", code), zap.Error(err))
		}
		return nil, false
	}
	if !rule.IsActive || !rule.AutoDetectable {
		log.Debug("规则未启用自动检测，忽略事件", zap.String("code", code))
		return nil, false
	}
	return rule, true
}

// createViolation 返回已创建的违规，以及可关联到异常的违规 ID（评分失败时为 nil）
func (r *violationRecorder) createViolation(ctx context.Context, employee *model.Employee, rule *model.ViolationRule, event DetectedViolation, log *zap.Logger) (*model.Violation, *string) {
	reason := "Auto-detected: " + event.Type
	violation := &model.Violation{
		EmployeeID: employee.EmployeeID,
		CompanyID:  employee.CompanyID,
		RuleID:     rule.RuleID,
		Source:     model.ViolationSourceAuto,
		Reason:     &reason,
		Penalty:    rule.PenaltyPercent,
	}
	violation.CreatedAt = r.now()

	if err := r.repo.Violation.Create(ctx, violation); err != nil {
		log.Error("创建违规记录失败", zap.Error(err))
		return nil, nil
	}

	if _, err := r.rating.recalculate(ctx, employee, r.rating.periodOf(violation.CreatedAt)); err != nil {
		log.Error("记录违规后重算评分失败", zap.String("violation_id", violation.ViolationID), zap.Error(err))
		return violation, nil
	}

	id := violation.ViolationID
	return violation, &id
}

func (r *violationRecorder) rollbackViolation(ctx context.Context, employee *model.Employee, violation *model.Violation, log *zap.Logger) {
	if err := r.repo.Violation.Delete(ctx, violation.ViolationID); err != nil {
		log.Error("撤销重复违规失败", zap.String("violation_id", violation.ViolationID), zap.Error(err))
		return
	}
	if _, err := r.rating.recalculate(ctx, employee, r.rating.periodOf(violation.CreatedAt)); err != nil {
		log.Error("撤销违规后重算评分失败", zap.Error(err))
	}
}

func (r *violationRecorder) notify(ctx context.Context, employee *model.Employee, rule *model.ViolationRule, violation *model.Violation, event DetectedViolation, log *zap.Logger) {
	text := fmt.Sprintf("%s 检测到考勤违规：%s，扣分 %s%%。如有异议请联系管理员。",
		event.Date.Format(dto.DateLayout), rule.Name, violation.Penalty.String())
	relatedType := "violation"
	if err := r.notifier.NotifyEmployee(ctx, employee, model.NotificationTypeViolation, text, &relatedType, &violation.ViolationID); err != nil {
		log.Warn("发送违规通知失败", zap.Error(err))
	}
}
