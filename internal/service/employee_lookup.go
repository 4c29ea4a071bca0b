package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/internal/model"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
)

// ── 员工相关业务错误 ──

var (
	ErrEmployeeNotFound   = errors.New("员工不存在")
	ErrEmployeeTerminated = errors.New("员工已被解雇")
)

// loadEmployee 按 ID 查询员工；companyID 非空时校验归属，跨公司访问视为不存在
func loadEmployee(ctx context.Context, repo *repository.Repository, logger *zap.Logger, companyID, employeeID string) (*model.Employee, error) {
	employee, err := repo.Employee.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		logger.Error("查询员工失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	if companyID != "" && employee.CompanyID != companyID {
		return nil, ErrEmployeeNotFound
	}
	return employee, nil
}
