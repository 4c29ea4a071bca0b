package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/muhamed1222/timeout-sub002/internal/model"
)

// ExceptionFilter 异常列表查询条件
type ExceptionFilter struct {
	CompanyID  string
	EmployeeID string
	Kind       string
	Resolved   *bool
	From       *time.Time
	To         *time.Time
}

// ExceptionRepository 考勤异常数据访问接口
type ExceptionRepository interface {
	// CreateIfAbsent 已存在同 (employee, date, kind) 的未处理异常时返回 false
	CreateIfAbsent(ctx context.Context, exception *model.Exception) (bool, error)
	FindOpen(ctx context.Context, employeeID string, date time.Time, kind string) (*model.Exception, error)
	// HasResolvedForShift 该班次的同类异常是否已被处理过
	HasResolvedForShift(ctx context.Context, shiftID, kind string) (bool, error)
	GetByID(ctx context.Context, id string) (*model.Exception, error)
	List(ctx context.Context, filter ExceptionFilter, offset, limit int) ([]model.Exception, int64, error)
	CountByCompany(ctx context.Context, companyID string) (int64, error)
	Resolve(ctx context.Context, id, resolvedBy string, at time.Time) error
}

type exceptionRepo struct {
	db *gorm.DB
}

// NewExceptionRepo 创建 ExceptionRepository 实例
func NewExceptionRepo(db *gorm.DB) ExceptionRepository {
	return &exceptionRepo{db: db}
}

func (r *exceptionRepo) CreateIfAbsent(ctx context.Context, exception *model.Exception) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(exception)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *exceptionRepo) FindOpen(ctx context.Context, employeeID string, date time.Time, kind string) (*model.Exception, error) {
	var exception model.Exception
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND date = ? AND kind = ? AND resolved_at IS NULL", employeeID, date, kind).
		First(&exception).Error
	if err != nil {
		return nil, err
	}
	return &exception, nil
}

func (r *exceptionRepo) HasResolvedForShift(ctx context.Context, shiftID, kind string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Exception{}).
		Where("shift_id = ? AND kind = ? AND resolved_at IS NOT NULL", shiftID, kind).
		Count(&count).Error
	return count > 0, err
}

func (r *exceptionRepo) GetByID(ctx context.Context, id string) (*model.Exception, error) {
	var exception model.Exception
	err := r.db.WithContext(ctx).
		Where("exception_id = ?", id).
		First(&exception).Error
	if err != nil {
		return nil, err
	}
	return &exception, nil
}

func (r *exceptionRepo) companyScope(ctx context.Context, companyID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Exception{}).
		Joins("JOIN employees ON employees.employee_id = exceptions.employee_id").
		Where("employees.company_id = ?", companyID)
}

func (r *exceptionRepo) List(ctx context.Context, filter ExceptionFilter, offset, limit int) ([]model.Exception, int64, error) {
	var query *gorm.DB
	if filter.CompanyID != "" {
		query = r.companyScope(ctx, filter.CompanyID)
	} else {
		query = r.db.WithContext(ctx).Model(&model.Exception{})
	}

	if filter.EmployeeID != "" {
		query = query.Where("exceptions.employee_id = ?", filter.EmployeeID)
	}
	if filter.Kind != "" {
		query = query.Where("exceptions.kind = ?", filter.Kind)
	}
	if filter.Resolved != nil {
		if *filter.Resolved {
			query = query.Where("exceptions.resolved_at IS NOT NULL")
		} else {
			query = query.Where("exceptions.resolved_at IS NULL")
		}
	}
	if filter.From != nil {
		query = query.Where("exceptions.date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("exceptions.date <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var exceptions []model.Exception
	err := query.
		Select("exceptions.*").
		Order("exceptions.date DESC, exceptions.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&exceptions).Error
	return exceptions, total, err
}

func (r *exceptionRepo) CountByCompany(ctx context.Context, companyID string) (int64, error) {
	var total int64
	err := r.companyScope(ctx, companyID).Count(&total).Error
	return total, err
}

// Resolve 仅对未处理异常生效，已处理返回 gorm.ErrRecordNotFound
func (r *exceptionRepo) Resolve(ctx context.Context, id, resolvedBy string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Exception{}).
		Where("exception_id = ? AND resolved_at IS NULL", id).
		Updates(map[string]interface{}{
			"resolved_at": at,
			"resolved_by": resolvedBy,
			"updated_at":  at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
