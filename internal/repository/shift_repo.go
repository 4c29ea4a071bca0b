package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/internal/model"
	pkgerrors "github.com/muhamed1222/timeout-sub002/pkg/errors"
)

// ShiftRepository 班次及其工作/休息区间的数据访问接口
//
// 所有状态流转方法都在单个事务内完成：先以 version 做乐观锁占位，
// 再关闭对立类型的未结束区间并打开新区间。并发的两个同类操作只有一个能提交，
// 另一个返回 pkgerrors.ErrOptimisticLock。
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	Delete(ctx context.Context, id string) error
	GetActiveByEmployee(ctx context.Context, employeeID string) (*model.Shift, error)
	GetPlannedByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) (*model.Shift, error)
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]model.Shift, error)
	ListForMonitoring(ctx context.Context, companyID string, completedSince time.Time) ([]model.Shift, error)

	Start(ctx context.Context, shift *model.Shift, at time.Time, source string) error
	Finish(ctx context.Context, shift *model.Shift, status string, at time.Time) error
	StartBreak(ctx context.Context, shift *model.Shift, at time.Time, source string) (*model.BreakInterval, error)
	EndBreak(ctx context.Context, shift *model.Shift, at time.Time, source string) (*model.BreakInterval, error)
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func orderByStart(db *gorm.DB) *gorm.DB {
	return db.Order("start_at ASC")
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("WorkIntervals", orderByStart).
		Preload("BreakIntervals", orderByStart).
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shift_id = ?", id).Delete(&model.WorkInterval{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shift_id = ?", id).Delete(&model.BreakInterval{}).Error; err != nil {
			return err
		}
		return tx.Where("shift_id = ?", id).Delete(&model.Shift{}).Error
	})
}

func (r *shiftRepo) GetActiveByEmployee(ctx context.Context, employeeID string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("WorkIntervals", orderByStart).
		Preload("BreakIntervals", orderByStart).
		Where("employee_id = ? AND status = ?", employeeID, model.ShiftStatusActive).
		Order("planned_start DESC").
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetPlannedByEmployeeBetween(ctx context.Context, employeeID string, from, to time.Time) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND status = ? AND planned_start >= ? AND planned_start < ?",
			employeeID, model.ShiftStatusPlanned, from, to).
		Order("planned_start ASC").
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Preload("WorkIntervals", orderByStart).
		Preload("BreakIntervals", orderByStart).
		Where("employee_id = ? AND planned_start >= ? AND planned_start < ?", employeeID, from, to).
		Order("planned_start ASC").
		Find(&shifts).Error
	return shifts, err
}

// ListForMonitoring 返回公司内所有 planned/active 班次，以及 completedSince 之后结束的班次
// 员工归属通过查询时 JOIN 获得，班次本身不持有员工对象
func (r *shiftRepo) ListForMonitoring(ctx context.Context, companyID string, completedSince time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Joins("JOIN employees ON employees.employee_id = shifts.employee_id").
		Where("employees.company_id = ?", companyID).
		Where("(shifts.status IN ? OR (shifts.status = ? AND shifts.actual_end >= ?))",
			[]string{model.ShiftStatusPlanned, model.ShiftStatusActive}, model.ShiftStatusCompleted, completedSince).
		Preload("WorkIntervals", orderByStart).
		Preload("BreakIntervals", orderByStart).
		Order("shifts.planned_start ASC").
		Find(&shifts).Error
	return shifts, err
}

// ── 状态流转（事务 + 乐观锁） ──

// bumpVersion 以当前 version 为条件更新班次，未命中说明已被并发修改
func bumpVersion(tx *gorm.DB, shift *model.Shift, updates map[string]interface{}) error {
	oldVersion := shift.Version
	updates["version"] = oldVersion + 1

	result := tx.Model(&model.Shift{}).
		Where("shift_id = ? AND version = ?", shift.ShiftID, oldVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func closeOpenWork(tx *gorm.DB, shiftID string, at time.Time) error {
	return tx.Model(&model.WorkInterval{}).
		Where("shift_id = ? AND end_at IS NULL", shiftID).
		Update("end_at", at).Error
}

func closeOpenBreak(tx *gorm.DB, shiftID string, at time.Time) error {
	return tx.Model(&model.BreakInterval{}).
		Where("shift_id = ? AND end_at IS NULL", shiftID).
		Update("end_at", at).Error
}

func (r *shiftRepo) Start(ctx context.Context, shift *model.Shift, at time.Time, source string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, shift, map[string]interface{}{
			"status":       model.ShiftStatusActive,
			"actual_start": at,
		}); err != nil {
			return err
		}
		work := &model.WorkInterval{ShiftID: shift.ShiftID, StartAt: at, Source: source}
		return tx.Create(work).Error
	})
	if err != nil {
		return err
	}

	shift.Version++
	shift.Status = model.ShiftStatusActive
	shift.ActualStart = &at
	return nil
}

func (r *shiftRepo) Finish(ctx context.Context, shift *model.Shift, status string, at time.Time) error {
	updates := map[string]interface{}{"status": status}
	if status == model.ShiftStatusCompleted {
		updates["actual_end"] = at
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, shift, updates); err != nil {
			return err
		}
		if err := closeOpenBreak(tx, shift.ShiftID, at); err != nil {
			return err
		}
		return closeOpenWork(tx, shift.ShiftID, at)
	})
	if err != nil {
		return err
	}

	shift.Version++
	shift.Status = status
	if status == model.ShiftStatusCompleted {
		shift.ActualEnd = &at
	}
	return nil
}

func (r *shiftRepo) StartBreak(ctx context.Context, shift *model.Shift, at time.Time, source string) (*model.BreakInterval, error) {
	brk := &model.BreakInterval{ShiftID: shift.ShiftID, StartAt: at, Source: source}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, shift, map[string]interface{}{"updated_at": at}); err != nil {
			return err
		}
		if err := closeOpenWork(tx, shift.ShiftID, at); err != nil {
			return err
		}
		return tx.Create(brk).Error
	})
	if err != nil {
		return nil, err
	}

	shift.Version++
	return brk, nil
}

func (r *shiftRepo) EndBreak(ctx context.Context, shift *model.Shift, at time.Time, source string) (*model.BreakInterval, error) {
	var brk model.BreakInterval

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, shift, map[string]interface{}{"updated_at": at}); err != nil {
			return err
		}
		if err := tx.Where("shift_id = ? AND end_at IS NULL", shift.ShiftID).First(&brk).Error; err != nil {
			return err
		}
		if err := tx.Model(&brk).Update("end_at", at).Error; err != nil {
			return err
		}
		work := &model.WorkInterval{ShiftID: shift.ShiftID, StartAt: at, Source: source}
		return tx.Create(work).Error
	})
	if err != nil {
		return nil, err
	}

	shift.Version++
	brk.EndAt = &at
	return &brk, nil
}
