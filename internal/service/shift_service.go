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
	pkgerrors "github.com/muhamed1222/timeout-sub002/pkg/errors"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftNotFound          = errors.New("班次不存在")
	ErrShiftInvalidTimeRange  = errors.New("计划结束时间必须晚于计划开始时间")
	ErrShiftInvalidTransition = errors.New("当前班次状态不允许该操作")
	ErrShiftAlreadyActive     = errors.New("员工已有进行中的班次")
	ErrNoActiveShift          = errors.New("员工当前没有进行中的班次")
	ErrBreakAlreadyOpen       = errors.New("已在休息中")
	ErrNoOpenBreak            = errors.New("当前没有进行中的休息")
)

// ShiftService 班次与工作/休息区间业务接口
// 管理端操作带 companyID 做归属校验；Bot* 方法按聊天账号定位员工
type ShiftService interface {
	Create(ctx context.Context, companyID string, req *dto.CreateShiftRequest, callerID string) (*dto.ShiftResponse, error)
	GetByID(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error)
	ListByEmployee(ctx context.Context, companyID string, req *dto.ShiftListRequest) ([]dto.ShiftResponse, error)
	Delete(ctx context.Context, companyID, id string) error

	Start(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error)
	StartForEmployee(ctx context.Context, companyID, employeeID string) (*dto.ShiftResponse, error)
	End(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error)
	Cancel(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error)
	StartBreak(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error)
	EndBreak(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error)

	BotCurrent(ctx context.Context, telegramID int64) (*dto.ShiftResponse, error)
	BotStartShift(ctx context.Context, telegramID int64) (*dto.ShiftResponse, error)
	BotEndShift(ctx context.Context, telegramID int64) (*dto.ShiftResponse, error)
	BotStartBreak(ctx context.Context, telegramID int64) (*dto.ShiftResponse, error)
	BotEndBreak(ctx context.Context, telegramID int64) (*dto.ShiftResponse, error)
}

type shiftService struct {
	repo            *repository.Repository
	loc             *time.Location
	defaultDuration time.Duration
	now             func() time.Time
	logger          *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, loc *time.Location, defaultDuration time.Duration, logger *zap.Logger) ShiftService {
	return &shiftService{
		repo:            repo,
		loc:             loc,
		defaultDuration: defaultDuration,
		now:             time.Now,
		logger:          logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *shiftService) Create(ctx context.Context, companyID string, req *dto.CreateShiftRequest, callerID string) (*dto.ShiftResponse, error) {
	if !req.PlannedEnd.After(req.PlannedStart) {
		return nil, ErrShiftInvalidTimeRange
	}

	employee, err := loadEmployee(ctx, s.repo, s.logger, companyID, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if employee.IsTerminated() {
		return nil, ErrEmployeeTerminated
	}

	shift := newPlannedShift(employee.EmployeeID, req.PlannedStart, req.PlannedEnd)
	shift.CreatedBy = &callerID
	shift.UpdatedBy = &callerID

	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		s.logger.Error("创建班次失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("班次已创建",
		zap.String("shift_id", shift.ShiftID),
		zap.String("employee_id", employee.EmployeeID),
		zap.Time("planned_start", shift.PlannedStart),
	)
	return toShiftResponse(shift), nil
}

// ────────────────────── GetByID / List / Delete ──────────────────────

func (s *shiftService) GetByID(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error) {
	shift, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toShiftResponse(shift), nil
}

func (s *shiftService) ListByEmployee(ctx context.Context, companyID string, req *dto.ShiftListRequest) ([]dto.ShiftResponse, error) {
	if _, err := loadEmployee(ctx, s.repo, s.logger, companyID, req.EmployeeID); err != nil {
		return nil, err
	}

	fromDate, toDate, err := req.DateRangeRequest.Parse()
	if err != nil {
		return nil, ErrInvalidPeriod
	}
	// 缺省为当前自然月
	period := MonthPeriod(s.now(), s.loc)
	if fromDate != nil {
		period.Start = *fromDate
	}
	if toDate != nil {
		period.End = *toDate
	}
	if period.End.Before(period.Start) {
		return nil, ErrInvalidPeriod
	}
	from, to := period.Bounds(s.loc)

	shifts, err := s.repo.Shift.ListByEmployee(ctx, req.EmployeeID, from, to)
	if err != nil {
		s.logger.Error("列出员工班次失败", zap.String("employee_id", req.EmployeeID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, *toShiftResponse(&shifts[i]))
	}
	return result, nil
}

func (s *shiftService) Delete(ctx context.Context, companyID, id string) error {
	if _, err := s.load(ctx, companyID, id); err != nil {
		return err
	}

	if err := s.repo.Shift.Delete(ctx, id); err != nil {
		s.logger.Error("删除班次失败", zap.String("shift_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("班次已删除", zap.String("shift_id", id))
	return nil
}

// ────────────────────── 状态流转（管理端） ──────────────────────

func (s *shiftService) Start(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error) {
	shift, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, shift, model.IntervalSourceAdmin)
}

func (s *shiftService) StartForEmployee(ctx context.Context, companyID, employeeID string) (*dto.ShiftResponse, error) {
	employee, err := loadEmployee(ctx, s.repo, s.logger, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	return s.startForEmployee(ctx, employee, model.IntervalSourceAdmin)
}

func (s *shiftService) End(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error) {
	shift, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, shift, model.ShiftStatusCompleted)
}

func (s *shiftService) Cancel(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error) {
	shift, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, shift, model.ShiftStatusCancelled)
}

func (s *shiftService) StartBreak(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error) {
	shift, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return s.startBreak(ctx, shift, model.IntervalSourceAdmin)
}

func (s *shiftService) EndBreak(ctx context.Context, companyID, id string) (*dto.ShiftResponse, error) {
	shift, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return s.endBreak(ctx, shift, model.IntervalSourceAdmin)
}

// ────────────────────── 聊天机器人入口 ──────────────────────

func (s *shiftService) BotCurrent(ctx context.Context, telegramID int64) (*dto.ShiftResponse, error) {
	employee, err := s.employeeByTelegram(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	shift, err := s.activeShift(ctx, employee.EmployeeID)
	if err != nil {
		return nil, err
	}
	return toShiftResponse(shift), nil
}

func (s *shiftService) BotStartShift(ctx context.Context, telegramID int64) (*dto.ShiftResponse, error) {
	employee, err := s.employeeByTelegram(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.startForEmployee(ctx, employee, model.IntervalSourceBot)
}

func (s *shiftService) BotEndShift(ctx context.Context, telegramID int64) (*dto.ShiftResponse, error) {
	employee, err := s.employeeByTelegram(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	shift, err := s.activeShift(ctx, employee.EmployeeID)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, shift, model.ShiftStatusCompleted)
}

func (s *shiftService) BotStartBreak(ctx context.Context, telegramID int64) (*dto.ShiftResponse, error) {
	employee, err := s.employeeByTelegram(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	shift, err := s.activeShift(ctx, employee.EmployeeID)
	if err != nil {
		return nil, err
	}
	return s.startBreak(ctx, shift, model.IntervalSourceBot)
}

func (s *shiftService) BotEndBreak(ctx context.Context, telegramID int64) (*dto.ShiftResponse, error) {
	employee, err := s.employeeByTelegram(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	shift, err := s.activeShift(ctx, employee.EmployeeID)
	if err != nil {
		return nil, err
	}
	return s.endBreak(ctx, shift, model.IntervalSourceBot)
}

// ── 内部流转 ──

func (s *shiftService) start(ctx context.Context, shift *model.Shift, source string) (*dto.ShiftResponse, error) {
	if !shift.CanTransitionTo(model.ShiftStatusActive) {
		return nil, ErrShiftInvalidTransition
	}

	if _, err := s.repo.Shift.GetActiveByEmployee(ctx, shift.EmployeeID); err == nil {
		return nil, ErrShiftAlreadyActive
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询进行中班次失败", zap.String("employee_id", shift.EmployeeID), zap.Error(err))
		return nil, err
	}

	if err := s.repo.Shift.Start(ctx, shift, s.now(), source); err != nil {
		return nil, s.transitionError("开始班次失败", shift, err)
	}

	s.logger.Info("班次已开始", zap.String("shift_id", shift.ShiftID), zap.String("source", source))
	return s.reload(ctx, shift.ShiftID)
}

// startForEmployee 优先使用当天的计划班次，没有则按默认时长临时开班
func (s *shiftService) startForEmployee(ctx context.Context, employee *model.Employee, source string) (*dto.ShiftResponse, error) {
	if employee.IsTerminated() {
		return nil, ErrEmployeeTerminated
	}

	now := s.now()
	dayStart, dayEnd := Period{Start: dateOf(now, s.loc), End: dateOf(now, s.loc)}.Bounds(s.loc)

	shift, err := s.repo.Shift.GetPlannedByEmployeeBetween(ctx, employee.EmployeeID, dayStart, dayEnd)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询当日计划班次失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
			return nil, err
		}

		if _, err := s.repo.Shift.GetActiveByEmployee(ctx, employee.EmployeeID); err == nil {
			return nil, ErrShiftAlreadyActive
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		shift = newPlannedShift(employee.EmployeeID, now, now.Add(s.defaultDuration))
		if err := s.repo.Shift.Create(ctx, shift); err != nil {
			s.logger.Error("创建临时班次失败", zap.String("employee_id", employee.EmployeeID), zap.Error(err))
			return nil, err
		}
		s.logger.Info("无计划班次，已临时开班", zap.String("shift_id", shift.ShiftID), zap.String("employee_id", employee.EmployeeID))
	}

	return s.start(ctx, shift, source)
}

func (s *shiftService) finish(ctx context.Context, shift *model.Shift, status string) (*dto.ShiftResponse, error) {
	if !shift.CanTransitionTo(status) {
		return nil, ErrShiftInvalidTransition
	}

	if err := s.repo.Shift.Finish(ctx, shift, status, s.now()); err != nil {
		return nil, s.transitionError("结束班次失败", shift, err)
	}

	s.logger.Info("班次已结束", zap.String("shift_id", shift.ShiftID), zap.String("status", status))
	return s.reload(ctx, shift.ShiftID)
}

func (s *shiftService) startBreak(ctx context.Context, shift *model.Shift, source string) (*dto.ShiftResponse, error) {
	if shift.Status != model.ShiftStatusActive {
		return nil, ErrShiftInvalidTransition
	}
	if hasOpenBreak(shift) {
		return nil, ErrBreakAlreadyOpen
	}

	if _, err := s.repo.Shift.StartBreak(ctx, shift, s.now(), source); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrBreakAlreadyOpen
		}
		return nil, s.transitionError("开始休息失败", shift, err)
	}
	return s.reload(ctx, shift.ShiftID)
}

func (s *shiftService) endBreak(ctx context.Context, shift *model.Shift, source string) (*dto.ShiftResponse, error) {
	if shift.Status != model.ShiftStatusActive {
		return nil, ErrShiftInvalidTransition
	}
	if !hasOpenBreak(shift) {
		return nil, ErrNoOpenBreak
	}

	if _, err := s.repo.Shift.EndBreak(ctx, shift, s.now(), source); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenBreak
		}
		return nil, s.transitionError("结束休息失败", shift, err)
	}
	return s.reload(ctx, shift.ShiftID)
}

// transitionError 乐观锁冲突原样返回由上层提示重试，其余记录日志
func (s *shiftService) transitionError(msg string, shift *model.Shift, err error) error {
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		s.logger.Error(msg, zap.String("shift_id", shift.ShiftID), zap.Error(err))
	}
	return err
}

// ── 内部辅助方法 ──

func (s *shiftService) load(ctx context.Context, companyID, id string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("shift_id", id), zap.Error(err))
		return nil, err
	}

	if _, err := loadEmployee(ctx, s.repo, s.logger, companyID, shift.EmployeeID); err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	return shift, nil
}

func (s *shiftService) reload(ctx context.Context, id string) (*dto.ShiftResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("重新加载班次失败", zap.String("shift_id", id), zap.Error(err))
		return nil, err
	}
	return toShiftResponse(shift), nil
}

func (s *shiftService) employeeByTelegram(ctx context.Context, telegramID int64) (*model.Employee, error) {
	employee, err := s.repo.Employee.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		s.logger.Error("按聊天账号查询员工失败", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, err
	}
	return employee, nil
}

func (s *shiftService) activeShift(ctx context.Context, employeeID string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetActiveByEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveShift
		}
		s.logger.Error("查询进行中班次失败", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return shift, nil
}

func newPlannedShift(employeeID string, start, end time.Time) *model.Shift {
	shift := &model.Shift{
		EmployeeID:   employeeID,
		PlannedStart: start,
		PlannedEnd:   end,
		Status:       model.ShiftStatusPlanned,
	}
	shift.Version = 1
	return shift
}

func hasOpenBreak(shift *model.Shift) bool {
	for i := range shift.BreakIntervals {
		if shift.BreakIntervals[i].IsOpen() {
			return true
		}
	}
	return false
}

func toShiftResponse(shift *model.Shift) *dto.ShiftResponse {
	resp := &dto.ShiftResponse{
		ID:             shift.ShiftID,
		EmployeeID:     shift.EmployeeID,
		PlannedStart:   dto.FormatTime(shift.PlannedStart),
		PlannedEnd:     dto.FormatTime(shift.PlannedEnd),
		ActualStart:    dto.FormatTimePtr(shift.ActualStart),
		ActualEnd:      dto.FormatTimePtr(shift.ActualEnd),
		Status:         shift.Status,
		Version:        shift.Version,
		WorkIntervals:  make([]dto.IntervalResponse, 0, len(shift.WorkIntervals)),
		BreakIntervals: make([]dto.IntervalResponse, 0, len(shift.BreakIntervals)),
		CreatedAt:      dto.FormatTime(shift.CreatedAt),
		UpdatedAt:      dto.FormatTime(shift.UpdatedAt),
	}
	for _, w := range shift.WorkIntervals {
		resp.WorkIntervals = append(resp.WorkIntervals, dto.IntervalResponse{
			ID: w.IntervalID, StartAt: dto.FormatTime(w.StartAt), EndAt: dto.FormatTimePtr(w.EndAt), Source: w.Source,
		})
	}
	for _, b := range shift.BreakIntervals {
		resp.BreakIntervals = append(resp.BreakIntervals, dto.IntervalResponse{
			ID: b.IntervalID, StartAt: dto.FormatTime(b.StartAt), EndAt: dto.FormatTimePtr(b.EndAt), Source: b.Source,
		})
	}
	return resp
}
