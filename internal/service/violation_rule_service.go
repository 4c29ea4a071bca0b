package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/model"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
)

// ── 违规规则模块业务错误 ──

var (
	ErrViolationRuleNotFound       = errors.New("违规规则不存在")
	ErrViolationRuleCodeExists     = errors.New("该公司已存在相同编码的违规规则")
	ErrViolationRuleInvalidPenalty = errors.New("扣分比例必须在 0-100 之间")
	ErrViolationRuleInUse          = errors.New("违规规则已被违规记录引用，无法删除")
	ErrViolationRuleInvalidCode    = errors.New("违规规则编码不能为空")
)

var maxPenaltyPercent = decimal.NewFromInt(100)

// ViolationRuleService 违规规则业务接口
// 规则编码在公司内唯一，统一按小写存储实现大小写不敏感
type ViolationRuleService interface {
	Create(ctx context.Context, companyID string, req *dto.CreateViolationRuleRequest, callerID string) (*dto.ViolationRuleResponse, error)
	GetByID(ctx context.Context, companyID, id string) (*dto.ViolationRuleResponse, error)
	List(ctx context.Context, companyID string) ([]dto.ViolationRuleResponse, error)
	Update(ctx context.Context, companyID, id string, req *dto.UpdateViolationRuleRequest, callerID string) (*dto.ViolationRuleResponse, error)
	Delete(ctx context.Context, companyID, id string) error
}

type violationRuleService struct {
	repo   *repository.Repository
	rating ratingRecalculator
	now    func() time.Time
	logger *zap.Logger
}

// NewViolationRuleService 创建 ViolationRuleService 实例
func NewViolationRuleService(repo *repository.Repository, rating ratingRecalculator, logger *zap.Logger) ViolationRuleService {
	return &violationRuleService{repo: repo, rating: rating, now: time.Now, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *violationRuleService) Create(ctx context.Context, companyID string, req *dto.CreateViolationRuleRequest, callerID string) (*dto.ViolationRuleResponse, error) {
	if !validPenalty(req.PenaltyPercent) {
		return nil, ErrViolationRuleInvalidPenalty
	}

	code := normalizeRuleCode(req.Code)
	if code == "" {
		return nil, ErrViolationRuleInvalidCode
	}
	if err := s.ensureCodeAvailable(ctx, companyID, code, ""); err != nil {
		return nil, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	rule := &model.ViolationRule{
		CompanyID:      companyID,
		Code:           code,
		Name:           strings.TrimSpace(req.Name),
		PenaltyPercent: req.PenaltyPercent,
		AutoDetectable: req.AutoDetectable,
		IsActive:       isActive,
	}
	rule.CreatedBy = &callerID
	rule.UpdatedBy = &callerID

	if err := s.repo.ViolationRule.Create(ctx, rule); err != nil {
		// 并发创建时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrViolationRuleCodeExists
		}
		s.logger.Error("创建违规规则失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("违规规则已创建",
		zap.String("rule_id", rule.RuleID),
		zap.String("company_id", companyID),
		zap.String("code", code),
	)
	return toViolationRuleResponse(rule), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *violationRuleService) GetByID(ctx context.Context, companyID, id string) (*dto.ViolationRuleResponse, error) {
	rule, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toViolationRuleResponse(rule), nil
}

func (s *violationRuleService) List(ctx context.Context, companyID string) ([]dto.ViolationRuleResponse, error) {
	rules, err := s.repo.ViolationRule.ListByCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("列出违规规则失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ViolationRuleResponse, 0, len(rules))
	for i := range rules {
		result = append(result, *toViolationRuleResponse(&rules[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *violationRuleService) Update(ctx context.Context, companyID, id string, req *dto.UpdateViolationRuleRequest, callerID string) (*dto.ViolationRuleResponse, error) {
	rule, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	affectsRatings := false

	if req.Code != nil {
		code := normalizeRuleCode(*req.Code)
		if code == "" {
			return nil, ErrViolationRuleInvalidCode
		}
		if code != rule.Code {
			if err := s.ensureCodeAvailable(ctx, companyID, code, rule.RuleID); err != nil {
				return nil, err
			}
			rule.Code = code
		}
	}
	if req.Name != nil {
		rule.Name = strings.TrimSpace(*req.Name)
	}
	if req.PenaltyPercent != nil {
		if !validPenalty(*req.PenaltyPercent) {
			return nil, ErrViolationRuleInvalidPenalty
		}
		if !req.PenaltyPercent.Equal(rule.PenaltyPercent) {
			affectsRatings = true
		}
		rule.PenaltyPercent = *req.PenaltyPercent
	}
	if req.AutoDetectable != nil {
		rule.AutoDetectable = *req.AutoDetectable
	}
	if req.IsActive != nil {
		if *req.IsActive != rule.IsActive {
			affectsRatings = true
		}
		rule.IsActive = *req.IsActive
	}

	rule.UpdatedBy = &callerID

	if err := s.repo.ViolationRule.Update(ctx, rule); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrViolationRuleCodeExists
		}
		s.logger.Error("更新违规规则失败", zap.String("rule_id", id), zap.Error(err))
		return nil, err
	}

	// 启停或扣分变化后重算本周期评分，失败只记录日志
	if affectsRatings {
		if _, _, err := s.rating.recalculateCompany(ctx, companyID, s.rating.periodOf(s.now())); err != nil {
			s.logger.Error("规则变更后重算评分失败", zap.String("rule_id", id), zap.Error(err))
		}
	}

	return toViolationRuleResponse(rule), nil
}

// ────────────────────── Delete ──────────────────────

func (s *violationRuleService) Delete(ctx context.Context, companyID, id string) error {
	if _, err := s.load(ctx, companyID, id); err != nil {
		return err
	}

	if err := s.repo.ViolationRule.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrViolationRuleNotFound
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrViolationRuleInUse
		}
		s.logger.Error("删除违规规则失败", zap.String("rule_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("违规规则已删除", zap.String("rule_id", id), zap.String("company_id", companyID))
	return nil
}

// ── 内部辅助方法 ──

func (s *violationRuleService) load(ctx context.Context, companyID, id string) (*model.ViolationRule, error) {
	rule, err := s.repo.ViolationRule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrViolationRuleNotFound
		}
		s.logger.Error("查询违规规则失败", zap.String("rule_id", id), zap.Error(err))
		return nil, err
	}
	if rule.CompanyID != companyID {
		return nil, ErrViolationRuleNotFound
	}
	return rule, nil
}

// ensureCodeAvailable 编码预检查，exceptID 为更新时的自身 ID
func (s *violationRuleService) ensureCodeAvailable(ctx context.Context, companyID, code, exceptID string) error {
	existing, err := s.repo.ViolationRule.GetByCode(ctx, companyID, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("检查规则编码失败", zap.String("company_id", companyID), zap.Error(err))
		return err
	}
	if existing.RuleID != exceptID {
		return ErrViolationRuleCodeExists
	}
	return nil
}

func normalizeRuleCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func validPenalty(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(maxPenaltyPercent)
}

func toViolationRuleResponse(rule *model.ViolationRule) *dto.ViolationRuleResponse {
	return &dto.ViolationRuleResponse{
		ID:             rule.RuleID,
		CompanyID:      rule.CompanyID,
		Code:           rule.Code,
		Name:           rule.Name,
		PenaltyPercent: rule.PenaltyPercent,
		AutoDetectable: rule.AutoDetectable,
		IsActive:       rule.IsActive,
		CreatedAt:      dto.FormatTime(rule.CreatedAt),
		UpdatedAt:      dto.FormatTime(rule.UpdatedAt),
	}
}
