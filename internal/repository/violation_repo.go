package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/internal/model"
)

// ViolationFilter 违规列表查询条件
type ViolationFilter struct {
	CompanyID  string
	EmployeeID string
	RuleID     string
	Source     string
	From       *time.Time
	To         *time.Time
}

// ViolationRepository 违规记录数据访问接口
type ViolationRepository interface {
	Create(ctx context.Context, violation *model.Violation) error
	GetByID(ctx context.Context, id string) (*model.Violation, error)
	Update(ctx context.Context, violation *model.Violation) error
	Delete(ctx context.Context, id string) error
	// ListByEmployeeBetween 返回 created_at ∈ [from, to) 的违规
	ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]model.Violation, error)
	List(ctx context.Context, filter ViolationFilter, offset, limit int) ([]model.Violation, int64, error)
}

type violationRepo struct {
	db *gorm.DB
}

// NewViolationRepo 创建 ViolationRepository 实例
func NewViolationRepo(db *gorm.DB) ViolationRepository {
	return &violationRepo{db: db}
}

func (r *violationRepo) Create(ctx context.Context, violation *model.Violation) error {
	return r.db.WithContext(ctx).Create(violation).Error
}

func (r *violationRepo) GetByID(ctx context.Context, id string) (*model.Violation, error) {
	var violation model.Violation
	err := r.db.WithContext(ctx).
		Where("violation_id = ?", id).
		First(&violation).Error
	if err != nil {
		return nil, err
	}
	return &violation, nil
}

func (r *violationRepo) Update(ctx context.Context, violation *model.Violation) error {
	return r.db.WithContext(ctx).Save(violation).Error
}

func (r *violationRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("violation_id = ?", id).
		Delete(&model.Violation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *violationRepo) ListByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) ([]model.Violation, error) {
	var violations []model.Violation
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND created_at >= ? AND created_at < ?", employeeID, from, to).
		Order("created_at ASC").
		Find(&violations).Error
	return violations, err
}

func (r *violationRepo) List(ctx context.Context, filter ViolationFilter, offset, limit int) ([]model.Violation, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Violation{})

	if filter.CompanyID != "" {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.EmployeeID != "" {
		query = query.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.RuleID != "" {
		query = query.Where("rule_id = ?", filter.RuleID)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var violations []model.Violation
	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&violations).Error
	return violations, total, err
}
