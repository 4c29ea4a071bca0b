package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/muhamed1222/timeout-sub002/internal/model"
)

// RatingRepository 员工评分数据访问接口
type RatingRepository interface {
	// Upsert 按 (employee_id, period_start, period_end) 插入或覆盖，返回落库后的记录
	Upsert(ctx context.Context, rating *model.EmployeeRating) (*model.EmployeeRating, error)
	GetByEmployeePeriod(ctx context.Context, employeeID string, start, end time.Time) (*model.EmployeeRating, error)
	ListByCompanyPeriod(ctx context.Context, companyID string, start, end time.Time) ([]model.EmployeeRating, error)
}

type ratingRepo struct {
	db *gorm.DB
}

// NewRatingRepo 创建 RatingRepository 实例
func NewRatingRepo(db *gorm.DB) RatingRepository {
	return &ratingRepo{db: db}
}

func (r *ratingRepo) Upsert(ctx context.Context, rating *model.EmployeeRating) (*model.EmployeeRating, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}, {Name: "period_start"}, {Name: "period_end"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"company_id", "rating", "total_penalty", "violation_count", "status", "updated_at",
			}),
		}).
		Create(rating).Error
	if err != nil {
		return nil, err
	}
	// 冲突更新时主键仍是新生成的 UUID，需要回查
	return r.GetByEmployeePeriod(ctx, rating.EmployeeID, rating.PeriodStart, rating.PeriodEnd)
}

func (r *ratingRepo) GetByEmployeePeriod(ctx context.Context, employeeID string, start, end time.Time) (*model.EmployeeRating, error) {
	var rating model.EmployeeRating
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND period_start = ? AND period_end = ?", employeeID, start, end).
		First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepo) ListByCompanyPeriod(ctx context.Context, companyID string, start, end time.Time) ([]model.EmployeeRating, error) {
	var ratings []model.EmployeeRating
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND period_start = ? AND period_end = ?", companyID, start, end).
		Order("rating ASC").
		Find(&ratings).Error
	return ratings, err
}
