package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/internal/model"
)

// ViolationRuleRepository 违规规则数据访问接口
type ViolationRuleRepository interface {
	Create(ctx context.Context, rule *model.ViolationRule) error
	GetByID(ctx context.Context, id string) (*model.ViolationRule, error)
	GetByCode(ctx context.Context, companyID, code string) (*model.ViolationRule, error)
	ListByCompany(ctx context.Context, companyID string) ([]model.ViolationRule, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.ViolationRule, error)
	Update(ctx context.Context, rule *model.ViolationRule) error
	Delete(ctx context.Context, id string) error
}

type violationRuleRepo struct {
	db *gorm.DB
}

// NewViolationRuleRepo 创建 ViolationRuleRepository 实例
func NewViolationRuleRepo(db *gorm.DB) ViolationRuleRepository {
	return &violationRuleRepo{db: db}
}

func (r *violationRuleRepo) Create(ctx context.Context, rule *model.ViolationRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *violationRuleRepo) GetByID(ctx context.Context, id string) (*model.ViolationRule, error) {
	var rule model.ViolationRule
	err := r.db.WithContext(ctx).
		Where("rule_id = ?", id).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// GetByCode code 需由调用方统一转为小写
func (r *violationRuleRepo) GetByCode(ctx context.Context, companyID, code string) (*model.ViolationRule, error) {
	var rule model.ViolationRule
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND code = ?", companyID, code).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *violationRuleRepo) ListByCompany(ctx context.Context, companyID string) ([]model.ViolationRule, error) {
	var rules []model.ViolationRule
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("code ASC").
		Find(&rules).Error
	return rules, err
}

func (r *violationRuleRepo) ListByIDs(ctx context.Context, ids []string) ([]model.ViolationRule, error) {
	var rules []model.ViolationRule
	if len(ids) == 0 {
		return rules, nil
	}
	err := r.db.WithContext(ctx).
		Where("rule_id IN ?", ids).
		Find(&rules).Error
	return rules, err
}

func (r *violationRuleRepo) Update(ctx context.Context, rule *model.ViolationRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *violationRuleRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("rule_id = ?", id).
		Delete(&model.ViolationRule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
