package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muhamed1222/timeout-sub002/internal/dto"
	"github.com/muhamed1222/timeout-sub002/internal/repository"
)

// SweepLocker 公司级巡检租约，同一公司同一时刻只允许一个巡检
type SweepLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// MonitorService 考勤巡检编排
// 巡检从不向调用方返回错误，失败或超时的公司计为零
type MonitorService interface {
	ProcessCompany(ctx context.Context, companyID string) dto.ProcessResult
	RunGlobalSweep(ctx context.Context) dto.SweepResult
}

// MonitorOptions 巡检超时与租约设置
type MonitorOptions struct {
	CompanyTimeout time.Duration
	LockTTL        time.Duration
}

type monitorService struct {
	repo     *repository.Repository
	detector ViolationDetector
	recorder ViolationRecorder
	locker   SweepLocker
	opts     MonitorOptions
	logger   *zap.Logger
}

// NewMonitorService 创建 MonitorService 实例
func NewMonitorService(
	repo *repository.Repository,
	detector ViolationDetector,
	recorder ViolationRecorder,
	locker SweepLocker,
	opts MonitorOptions,
	logger *zap.Logger,
) MonitorService {
	return &monitorService{
		repo:     repo,
		detector: detector,
		recorder: recorder,
		locker:   locker,
		opts:     opts,
		logger:   logger,
	}
}

// ────────────────────── ProcessCompany ──────────────────────

func (s *monitorService) ProcessCompany(ctx context.Context, companyID string) (result dto.ProcessResult) {
	log := s.logger.With(zap.String("company_id", companyID))
	started := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("公司巡检异常中止", zap.Any("panic", rec))
			result = dto.ProcessResult{}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.opts.CompanyTimeout)
	defer cancel()

	release, ok, err := s.locker.TryLock(ctx, sweepLockKey(companyID), s.opts.LockTTL)
	if err != nil {
		log.Error("获取巡检租约失败", zap.Error(err))
		return dto.ProcessResult{}
	}
	if !ok {
		log.Info("该公司正在被其他巡检处理，跳过")
		return dto.ProcessResult{}
	}
	defer release()

	before, err := s.repo.Exception.CountByCompany(ctx, companyID)
	if err != nil {
		log.Error("统计考勤异常失败", zap.Error(err))
		return dto.ProcessResult{}
	}

	events := s.detector.Detect(ctx, companyID)

	violations := 0
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			log.Warn("公司巡检超时", zap.Duration("timeout", s.opts.CompanyTimeout), zap.Error(err))
			return dto.ProcessResult{}
		}
		if s.recorder.Record(ctx, event).ViolationCreated {
			violations++
		}
	}

	if err := ctx.Err(); err != nil {
		log.Warn("公司巡检超时", zap.Duration("timeout", s.opts.CompanyTimeout), zap.Error(err))
		return dto.ProcessResult{}
	}

	after, err := s.repo.Exception.CountByCompany(ctx, companyID)
	if err != nil {
		log.Error("统计考勤异常失败", zap.Error(err))
		return dto.ProcessResult{}
	}

	created := int(after - before)
	if created < 0 {
		created = 0
	}

	log.Info("公司巡检完成",
		zap.Int("events", len(events)),
		zap.Int("violations", violations),
		zap.Int("exceptions", created),
		zap.Duration("elapsed", time.Since(started)),
	)
	return dto.ProcessResult{ViolationsFound: violations, ExceptionsCreated: created}
}

// ────────────────────── RunGlobalSweep ──────────────────────

func (s *monitorService) RunGlobalSweep(ctx context.Context) dto.SweepResult {
	var total dto.SweepResult

	companies, err := s.repo.Company.List(ctx)
	if err != nil {
		s.logger.Error("全局巡检列出公司失败", zap.Error(err))
		return total
	}

	for _, company := range companies {
		if ctx.Err() != nil {
			s.logger.Warn("全局巡检被取消", zap.Int("processed", total.Companies))
			break
		}
		res := s.ProcessCompany(ctx, company.CompanyID)
		total.Companies++
		total.ViolationsFound += res.ViolationsFound
		total.ExceptionsCreated += res.ExceptionsCreated
	}

	s.logger.Info("全局巡检完成",
		zap.Int("companies", total.Companies),
		zap.Int("violations", total.ViolationsFound),
		zap.Int("exceptions", total.ExceptionsCreated),
	)
	return total
}

func sweepLockKey(companyID string) string {
	return fmt.Sprintf("sweep:company:%s", companyID)
}

// ── 进程内租约 ──

// LocalLocker 未配置 Redis 时使用的进程内租约，只能保证单实例内互斥
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker 创建 LocalLocker 实例
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

// TryLock ttl 在进程内无意义，持有者释放前一直有效
func (l *LocalLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}
	return release, true, nil
}
