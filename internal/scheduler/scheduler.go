// Package scheduler 周期性触发全局考勤巡检
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muhamed1222/timeout-sub002/internal/service"
)

// MonitorScheduler 按固定间隔调用 MonitorService.RunGlobalSweep
// 启动时立即执行一轮；同一时刻最多一轮在跑，上一轮未结束时跳过本次 tick
type MonitorScheduler struct {
	monitor  service.MonitorService
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New 创建巡检调度器
func New(monitor service.MonitorService, interval time.Duration, logger *zap.Logger) *MonitorScheduler {
	return &MonitorScheduler{
		monitor:  monitor,
		interval: interval,
		logger:   logger,
	}
}

// Start 在后台启动调度；重复调用无效果
func (s *MonitorScheduler) Start(parent context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("巡检调度器已启动", zap.Duration("interval", s.interval))
}

// Stop 停止调度并等待进行中的巡检结束
func (s *MonitorScheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("巡检调度器已停止")
}

func (s *MonitorScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *MonitorScheduler) sweep(ctx context.Context) {
	start := time.Now()
	result := s.monitor.RunGlobalSweep(ctx)
	s.logger.Info("定时巡检完成",
		zap.Int("companies", result.Companies),
		zap.Int("violations_found", result.ViolationsFound),
		zap.Int("exceptions_created", result.ExceptionsCreated),
		zap.Duration("elapsed", time.Since(start)),
	)
}
