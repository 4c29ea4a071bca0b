package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/model"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
)

// ── 评分模块业务错误 ──

var ErrRatingNotFound = errors.New("该周期暂无评分")

// 评分区间：≥80 正常，(30,80) 警告，≤30 解雇
var (
	ratingCeiling     = decimal.NewFromInt(100)
	ratingActiveFloor = decimal.NewFromInt(80)
	ratingTerminalCap = decimal.NewFromInt(30)
)

// RatingService 员工评分业务接口
// 评分总是由周期内全部违规重新计算后覆盖写入，重复执行结果一致
type RatingService interface {
	ResolvePeriod(start, end string) (Period, error)
	Recalculate(ctx context.Context, companyID, employeeID string, period Period) (*dto.RatingResponse, error)
	RecalculateCompany(ctx context.Context, companyID string, period Period) (*dto.CompanyRecalculateResponse, error)
	GetEmployeeRating(ctx context.Context, companyID, employeeID string, period Period) (*dto.RatingResponse, error)
	ListCompanyRatings(ctx context.Context, companyID string, period Period) ([]dto.RatingResponse, error)
}

// ratingRecalculator 违规记录与规则变更流程使用的内部重算入口
type ratingRecalculator interface {
	recalculate(ctx context.Context, employee *model.Employee, period Period) (*model.EmployeeRating, error)
	recalculateCompany(ctx context.Context, companyID string, period Period) (ok, failed int, err error)
	periodOf(t time.Time) Period
}

type ratingService struct {
	repo     *repository.Repository
	notifier NotificationService
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewRatingService 创建 RatingService 实例
func NewRatingService(repo *repository.Repository, notifier NotificationService, loc *time.Location, logger *zap.Logger) RatingService {
	return newRatingService(repo, notifier, loc, logger)
}

func newRatingService(repo *repository.Repository, notifier NotificationService, loc *time.Location, logger *zap.Logger) *ratingService {
	return &ratingService{repo: repo, notifier: notifier, loc: loc, now: time.Now, logger: logger}
}

func (s *ratingService) ResolvePeriod(start, end string) (Period, error) {
	return ParsePeriod(start, end, s.now(), s.loc)
}

// ────────────────────── Recalculate ──────────────────────

func (s *ratingService) Recalculate(ctx context.Context, companyID, employeeID string, period Period) (*dto.RatingResponse, error) {
	employee, err := loadEmployee(ctx, s.repo, s.logger, companyID, employeeID)
	if err != nil {
		return nil, err
	}

	rating, err := s.recalculate(ctx, employee, period)
	if err != nil {
		return nil, err
	}
	return toRatingResponse(rating), nil
}

// ────────────────────── RecalculateCompany ──────────────────────

func (s *ratingService) RecalculateCompany(ctx context.Context, companyID string, period Period) (*dto.CompanyRecalculateResponse, error) {
	ok, failed, err := s.recalculateCompany(ctx, companyID, period)
	if err != nil {
		return nil, err
	}
	return &dto.CompanyRecalculateResponse{Recalculated: ok, Failed: failed}, nil
}

// ────────────────────── Get / List ──────────────────────

func (s *ratingService) GetEmployeeRating(ctx context.Context, companyID, employeeID string, period Period) (*dto.RatingResponse, error) {
	if _, err := loadEmployee(ctx, s.repo, s.logger, companyID, employeeID); err != nil {
		return nil, err
	}

	rating, err := s.repo.Rating.GetByEmployeePeriod(ctx, employeeID, period.Start, period.End)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRatingNotFound
		}
		s.logger.Error("查询评分失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return toRatingResponse(rating), nil
}

func (s *ratingService) ListCompanyRatings(ctx context.Context, companyID string, period Period) ([]dto.RatingResponse, error) {
	ratings, err := s.repo.Rating.ListByCompanyPeriod(ctx, companyID, period.Start, period.End)
	if err != nil {
		s.logger.Error("列出公司评分失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.RatingResponse, 0, len(ratings))
	for i := range ratings {
		result = append(result, *toRatingResponse(&ratings[i]))
	}
	return result, nil
}

// ── 内部重算 ──

func (s *ratingService) periodOf(t time.Time) Period {
	return MonthPeriod(t, s.loc)
}

func (s *ratingService) recalculate(ctx context.Context, employee *model.Employee, period Period) (*model.EmployeeRating, error) {
	from, to := period.Bounds(s.loc)

	violations, err := s.repo.Violation.ListByEmployeeBetween(ctx, employee.EmployeeID, from, to)
	if err != nil {
		s.logger.Error("查询周期违规失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
		return nil, err
	}

	activeRules, err := s.activeRuleSet(ctx, violations)
	if err != nil {
		s.logger.Error("查询违规规则失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
		return nil, err
	}

	total, counted := sumActivePenalties(violations, activeRules)
	value := ratingFromPenalty(total)
	status := ratingStatus(value)

	saved, err := s.repo.Rating.Upsert(ctx, &model.EmployeeRating{
		EmployeeID:     employee.EmployeeID,
		CompanyID:      employee.CompanyID,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		Rating:         value,
		TotalPenalty:   total,
		ViolationCount: counted,
		Status:         status,
	})
	if err != nil {
		s.logger.Error("保存评分失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
		return nil, err
	}

	if status == model.RatingStatusTerminated && !employee.IsTerminated() {
		if err := s.terminate(ctx, employee, saved); err != nil {
			return nil, err
		}
	}

	return saved, nil
}

func (s *ratingService) recalculateCompany(ctx context.Context, companyID string, period Period) (int, int, error) {
	employees, err := s.repo.Employee.ListByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("列出公司员工失败", zap.String("company_id", companyID), zap.Error(err))
		return 0, 0, err
	}

	ok, failed := 0, 0
	for i := range employees {
		if _, err := s.recalculate(ctx, &employees[i], period); err != nil {
			failed++
			continue
		}
		ok++
	}

	s.logger.Info("公司评分重算完成",
		zap.String("company_id", companyID),
		zap.Int("recalculated", ok),
		zap.Int("failed", failed),
	)
	return ok, failed, nil
}

// terminate 单向级联：只会把员工置为解雇，从不自动恢复
func (s *ratingService) terminate(ctx context.Context, employee *model.Employee, rating *model.EmployeeRating) error {
	if err := s.repo.Employee.UpdateStatus(ctx, employee.EmployeeID, model.EmployeeStatusTerminated); err != nil {
		s.logger.Error("更新员工状态失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
		return err
	}
	employee.Status = model.EmployeeStatusTerminated

	s.logger.Warn("员工评分触及解雇线",
		zap.String("employee_id", employee.EmployeeID),
		zap.String("rating", rating.Rating.String()),
	)

	text := fmt.Sprintf("您在 %s 至 %s 周期的评分已降至 %s，账号状态已变更为解雇。",
		rating.PeriodStart.Format(dto.DateLayout), rating.PeriodEnd.Format(dto.DateLayout), rating.Rating.StringFixed(0))
	relatedType := "rating"
	if err := s.notifier.NotifyEmployee(ctx, employee, model.NotificationTypeTermination, text, &relatedType, &rating.RatingID); err != nil {
		s.logger.Warn("发送解雇通知失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
	}
	return nil
}

func (s *ratingService) activeRuleSet(ctx context.Context, violations []model.Violation) (map[string]bool, error) {
	seen := make(map[string]struct{}, len(violations))
	ids := make([]string, 0, len(violations))
	for _, v := range violations {
		if _, ok := seen[v.RuleID]; !ok {
			seen[v.RuleID] = struct{}{}
			ids = append(ids, v.RuleID)
		}
	}

	rules, err := s.repo.ViolationRule.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	active := make(map[string]bool, len(rules))
	for _, r := range rules {
		active[r.RuleID] = r.IsActive
	}
	return active, nil
}

// ── 评分计算（纯函数） ──

// sumActivePenalties 累加规则仍启用的违规扣分，规则停用或已不存在的违规不计
func sumActivePenalties(violations []model.Violation, activeRules map[string]bool) (decimal.Decimal, int) {
	total := decimal.Zero
	counted := 0
	for _, v := range violations {
		if !activeRules[v.RuleID] {
			continue
		}
		total = total.Add(v.Penalty)
		counted++
	}
	return total, counted
}

// ratingFromPenalty rating = max(0, 100 − Σ)
func ratingFromPenalty(total decimal.Decimal) decimal.Decimal {
	value := ratingCeiling.Sub(total)
	if value.IsNegative() {
		return decimal.Zero
	}
	if value.GreaterThan(ratingCeiling) {
		return ratingCeiling
	}
	return value
}

func ratingStatus(value decimal.Decimal) string {
	switch {
	case value.LessThanOrEqual(ratingTerminalCap):
		return model.RatingStatusTerminated
	case value.GreaterThanOrEqual(ratingActiveFloor):
		return model.RatingStatusActive
	default:
		return model.RatingStatusWarning
	}
}

func toRatingResponse(r *model.EmployeeRating) *dto.RatingResponse {
	return &dto.RatingResponse{
		ID:             r.RatingID,
		EmployeeID:     r.EmployeeID,
		CompanyID:      r.CompanyID,
		PeriodStart:    r.PeriodStart.Format(dto.DateLayout),
		PeriodEnd:      r.PeriodEnd.Format(dto.DateLayout),
		Rating:         r.Rating,
		TotalPenalty:   r.TotalPenalty,
		ViolationCount: r.ViolationCount,
		Status:         r.Status,
		UpdatedAt:      dto.FormatTime(r.UpdatedAt),
	}
}
