package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/muhamed1222/timeout-sub002/config"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Shift         ShiftService
	ViolationRule ViolationRuleService
	Violation     ViolationService
	Rating        RatingService
	Exception     ExceptionService
	Notification  NotificationService
	Monitor       MonitorService
}

// NewService 创建 Service 聚合
// locker 为 nil 时使用进程内租约；sender 为 nil 时通知只落库
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	locker SweepLocker,
	sender MessageSender,
	logger *zap.Logger,
) (*Service, error) {
	loc, err := cfg.Monitor.Location()
	if err != nil {
		return nil, fmt.Errorf("解析巡检时区失败: %w", err)
	}
	if locker == nil {
		locker = NewLocalLocker()
	}

	notifier := NewNotificationService(repo, sender, logger)
	rating := newRatingService(repo, notifier, loc, logger)
	detector := NewViolationDetector(repo, loc, cfg.Monitor.CompletedLookback, logger)
	recorder := NewViolationRecorder(repo, rating, notifier, logger)

	return &Service{
		Shift:         NewShiftService(repo, loc, cfg.Monitor.DefaultShiftDuration, logger),
		ViolationRule: NewViolationRuleService(repo, rating, logger),
		Violation:     NewViolationService(repo, rating, loc, logger),
		Rating:        rating,
		Exception:     NewExceptionService(repo, logger),
		Notification:  notifier,
		Monitor: NewMonitorService(repo, detector, recorder, locker, MonitorOptions{
			CompanyTimeout: cfg.Monitor.CompanyTimeout,
			LockTTL:        cfg.Monitor.LockTTL,
		}, logger),
	}, nil
}
