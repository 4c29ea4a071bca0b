package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/model"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
)

// ── 考勤异常模块业务错误 ──

var (
	ErrExceptionNotFound        = errors.New("考勤异常不存在")
	ErrExceptionAlreadyResolved = errors.New("考勤异常已处理")
)

// ExceptionService 考勤异常业务接口（供管理员审阅与处理）
type ExceptionService interface {
	List(ctx context.Context, companyID string, req *dto.ExceptionListRequest) ([]dto.ExceptionResponse, int64, error)
	GetByID(ctx context.Context, companyID, id string) (*dto.ExceptionResponse, error)
	Resolve(ctx context.Context, companyID, id, callerID string) (*dto.ExceptionResponse, error)
}

type exceptionService struct {
	repo   *repository.Repository
	now    func() time.Time
	logger *zap.Logger
}

// NewExceptionService 创建 ExceptionService 实例
func NewExceptionService(repo *repository.Repository, logger *zap.Logger) ExceptionService {
	return &exceptionService{repo: repo, now: time.Now, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *exceptionService) List(ctx context.Context, companyID string, req *dto.ExceptionListRequest) ([]dto.ExceptionResponse, int64, error) {
	from, to, err := req.DateRangeRequest.Parse()
	if err != nil {
		return nil, 0, ErrInvalidPeriod
	}

	filter := repository.ExceptionFilter{
		CompanyID:  companyID,
		EmployeeID: req.EmployeeID,
		Kind:       req.Kind,
		Resolved:   req.Resolved,
		From:       from,
		To:         to,
	}

	exceptions, total, err := s.repo.Exception.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出考勤异常失败", zap.String("company_id", companyID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ExceptionResponse, 0, len(exceptions))
	for i := range exceptions {
		result = append(result, *toExceptionResponse(&exceptions[i]))
	}
	return result, total, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *exceptionService) GetByID(ctx context.Context, companyID, id string) (*dto.ExceptionResponse, error) {
	exception, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toExceptionResponse(exception), nil
}

// ────────────────────── Resolve ──────────────────────

func (s *exceptionService) Resolve(ctx context.Context, companyID, id, callerID string) (*dto.ExceptionResponse, error) {
	exception, err := s.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if exception.IsResolved() {
		return nil, ErrExceptionAlreadyResolved
	}

	now := s.now()
	if err := s.repo.Exception.Resolve(ctx, id, callerID, now); err != nil {
		// 条件更新未命中：并发处理中已被他人处理
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExceptionAlreadyResolved
		}
		s.logger.Error("处理考勤异常失败", zap.String("exception_id", id), zap.Error(err))
		return nil, err
	}

	exception.ResolvedAt = &now
	exception.ResolvedBy = &callerID

	s.logger.Info("考勤异常已处理",
		zap.String("exception_id", id),
		zap.String("kind", exception.Kind),
		zap.String("resolved_by", callerID),
	)
	return toExceptionResponse(exception), nil
}

// ── 内部辅助方法 ──

func (s *exceptionService) load(ctx context.Context, companyID, id string) (*model.Exception, error) {
	exception, err := s.repo.Exception.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExceptionNotFound
		}
		s.logger.Error("查询考勤异常失败", zap.String("exception_id", id), zap.Error(err))
		return nil, err
	}

	if _, err := loadEmployee(ctx, s.repo, s.logger, companyID, exception.EmployeeID); err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return nil, ErrExceptionNotFound
		}
		return nil, err
	}
	return exception, nil
}

func toExceptionResponse(e *model.Exception) *dto.ExceptionResponse {
	resp := &dto.ExceptionResponse{
		ID:          e.ExceptionID,
		EmployeeID:  e.EmployeeID,
		Date:        e.Date.Format(dto.DateLayout),
		Kind:        e.Kind,
		Severity:    e.Severity,
		ShiftID:     e.ShiftID,
		ViolationID: e.ViolationID,
		ResolvedAt:  dto.FormatTimePtr(e.ResolvedAt),
		ResolvedBy:  e.ResolvedBy,
		CreatedAt:   dto.FormatTime(e.CreatedAt),
	}
	if len(e.Details) > 0 {
		resp.Details = json.RawMessage(e.Details)
	}
	return resp
}
