package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/model"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
)

// ── 违规记录模块业务错误 ──

var (
	ErrViolationNotFound       = errors.New("违规记录不存在")
	ErrViolationRuleInactive   = errors.New("违规规则已停用")
	ErrViolationInvalidPenalty = errors.New("扣分必须在 0-100 之间")
)

// ViolationService 违规记录业务接口（管理员手动录入与维护）
// 每次变更都会重算违规所在周期的评分
type ViolationService interface {
	Create(ctx context.Context, companyID string, req *dto.CreateViolationRequest, callerID string) (*dto.ViolationResponse, error)
	GetByID(ctx context.Context, companyID, id string) (*dto.ViolationResponse, error)
	List(ctx context.Context, companyID string, req *dto.ViolationListRequest) ([]dto.ViolationResponse, int64, error)
	Update(ctx context.Context, companyID, id string, req *dto.UpdateViolationRequest, callerID string) (*dto.ViolationResponse, error)
	Delete(ctx context.Context, companyID, id string) error
}

type violationService struct {
	repo   *repository.Repository
	rating ratingRecalculator
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewViolationService 创建 ViolationService 实例
func NewViolationService(repo *repository.Repository, rating ratingRecalculator, loc *time.Location, logger *zap.Logger) ViolationService {
	return &violationService{repo: repo, rating: rating, loc: loc, now: time.Now, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *violationService) Create(ctx context.Context, companyID string, req *dto.CreateViolationRequest, callerID string) (*dto.ViolationResponse, error) {
	employee, err := loadEmployee(ctx, s.repo, s.logger, companyID, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	rule, err := s.loadActiveRule(ctx, companyID, req.RuleID)
	if err != nil {
		return nil, err
	}

	penalty := rule.PenaltyPercent
	if req.Penalty != nil {
		if !validPenalty(*req.Penalty) {
			return nil, ErrViolationInvalidPenalty
		}
		penalty = *req.Penalty
	}

	violation := &model.Violation{
		EmployeeID: employee.EmployeeID,
		CompanyID:  companyID,
		RuleID:     rule.RuleID,
		Source:     model.ViolationSourceManual,
		Reason:     req.Reason,
		Penalty:    penalty,
	}
	violation.CreatedAt = s.now()
	violation.CreatedBy = &callerID
	violation.UpdatedBy = &callerID

	if err := s.repo.Violation.Create(ctx, violation); err != nil {
		s.logger.Error("创建违规记录失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("手动录入违规",
		zap.String("violation_id", violation.ViolationID),
		zap.String("employee_id", employee.EmployeeID),
		zap.String("rule_id", rule.RuleID),
		zap.String("penalty", penalty.String()),
	)

	s.recalculateFor(ctx, employee, violation.CreatedAt)
	return toViolationResponse(violation), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *violationService) GetByID(ctx context.Context, companyID, id string) (*dto.ViolationResponse, error) {
	violation, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toViolationResponse(violation), nil
}

func (s *violationService) List(ctx context.Context, companyID string, req *dto.ViolationListRequest) ([]dto.ViolationResponse, int64, error) {
	from, to, err := req.DateRangeRequest.Parse()
	if err != nil {
		return nil, 0, ErrInvalidPeriod
	}

	filter := repository.ViolationFilter{
		CompanyID:  companyID,
		EmployeeID: req.EmployeeID,
		RuleID:     req.RuleID,
		Source:     req.Source,
	}
	// 日期按巡检时区换算为 created_at 的半开区间
	if from != nil {
		start, _ := Period{Start: *from, End: *from}.Bounds(s.loc)
		filter.From = &start
	}
	if to != nil {
		_, end := Period{Start: *to, End: *to}.Bounds(s.loc)
		filter.To = &end
	}

	violations, total, err := s.repo.Violation.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出违规记录失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ViolationResponse, 0, len(violations))
	for i := range violations {
		result = append(result, *toViolationResponse(&violations[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *violationService) Update(ctx context.Context, companyID, id string, req *dto.UpdateViolationRequest, callerID string) (*dto.ViolationResponse, error) {
	violation, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if req.RuleID != nil && *req.RuleID != violation.RuleID {
		rule, err := s.loadActiveRule(ctx, companyID, *req.RuleID)
		if err != nil {
			return nil, err
		}
		violation.RuleID = rule.RuleID
	}
	if req.Reason != nil {
		violation.Reason = req.Reason
	}
	if req.Penalty != nil {
		if !validPenalty(*req.Penalty) {
			return nil, ErrViolationInvalidPenalty
		}
		violation.Penalty = *req.Penalty
	}
	violation.UpdatedBy = &callerID

	if err := s.repo.Violation.Update(ctx, violation); err != nil {
		s.logger.Error("更新违规记录失败", zap.String("violation_id", id), zap.Error(err))
		return nil, err
	}

	if employee, err := loadEmployee(ctx, s.repo, s.logger, "", violation.EmployeeID); err == nil {
		s.recalculateFor(ctx, employee, violation.CreatedAt)
	}
	return toViolationResponse(violation), nil
}

// ────────────────────── Delete ──────────────────────

func (s *violationService) Delete(ctx context.Context, companyID, id string) error {
	violation, err := s.load(ctx, companyID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Violation.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrViolationNotFound
		}
		s.logger.Error("删除违规记录失败", zap.String("violation_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("违规记录已删除", zap.String("violation_id", id), zap.String("employee_id", violation.EmployeeID))

	if employee, err := loadEmployee(ctx, s.repo, s.logger, "", violation.EmployeeID); err == nil {
		s.recalculateFor(ctx, employee, violation.CreatedAt)
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *violationService) load(ctx context.Context, companyID, id string) (*model.Violation, error) {
	violation, err := s.repo.Violation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrViolationNotFound
		}
		s.logger.Error("查询违规记录失败", zap.String("violation_id", id), zap.Error(err))
		return nil, err
	}
	if violation.CompanyID != companyID {
		return nil, ErrViolationNotFound
	}
	return violation, nil
}

func (s *violationService) loadActiveRule(ctx context.Context, companyID, ruleID string) (*model.ViolationRule, error) {
	rule, err := s.repo.ViolationRule.GetByID(ctx, ruleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrViolationRuleNotFound
		}
		s.logger.Error("查询违规规则失败", zap.String("rule_id", ruleID), zap.Error(err))
		return nil, err
	}
	if rule.CompanyID != companyID {
		return nil, ErrViolationRuleNotFound
	}
	if !rule.IsActive {
		return nil, ErrViolationRuleInactive
	}
	return rule, nil
}

// recalculateFor 重算 at 所在周期；记录已落库，重算失败只记日志，可通过重算接口补偿
func (s *violationService) recalculateFor(ctx context.Context, employee *model.Employee, at time.Time) {
	if _, err := s.rating.recalculate(ctx, employee, s.rating.periodOf(at)); err != nil {
		s.logger.Error("违规变更后重算评分失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
	}
}

func toViolationResponse(v *model.Violation) *dto.ViolationResponse {
	return &dto.ViolationResponse{
		ID:         v.ViolationID,
		EmployeeID: v.EmployeeID,
		CompanyID:  v.CompanyID,
		RuleID:     v.RuleID,
		Source:     v.Source,
		Reason:     v.Reason,
		Penalty:    v.Penalty,
		CreatedAt:  dto.FormatTime(v.CreatedAt),
		UpdatedAt:  dto.FormatTime(v.UpdatedAt),
	}
}
