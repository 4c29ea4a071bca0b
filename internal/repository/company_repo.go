package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/internal/model"
)

// CompanyRepository 公司数据访问接口
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*model.Company, error)
	List(ctx context.Context) ([]model.Company, error)
}

type companyRepo struct {
	db *gorm.DB
}

// NewCompanyRepo 创建 CompanyRepository 实例
func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db: db}
}

func (r *companyRepo) GetByID(ctx context.Context, id string) (*model.Company, error) {
	var company model.Company
	err := r.db.WithContext(ctx).
		Where("company_id = ?", id).
		First(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepo) List(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&companies).Error
	return companies, err
}
