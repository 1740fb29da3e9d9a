package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"hyperzen/backend/internal/dto"
)

// OverdueMarker 逾期扫描（service.InstallmentService 满足）
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, ref time.Time) (int, error)
}

// ReminderRunner 催缴执行（service.ReminderService 满足）
type ReminderRunner interface {
	RunReminders(ctx context.Context, ref time.Time) (*dto.RunRemindersResponse, error)
}

// Scheduler 后台定时任务：按固定间隔先标记逾期分期，再执行催缴
type Scheduler struct {
	overdue  OverdueMarker
	reminder ReminderRunner
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New 创建 Scheduler；reminder 为 nil 时仅执行逾期扫描
func New(overdue OverdueMarker, reminder ReminderRunner, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		overdue:  overdue,
		reminder: reminder,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start 启动后台循环；启动时立即执行一次
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("定时任务启动", zap.Duration("interval", s.interval))

		s.RunOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("定时任务退出")
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop 停止循环并等待当前一轮结束
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// RunOnce 执行一轮；单步失败只记录日志，不中断后续步骤
func (s *Scheduler) RunOnce(ctx context.Context) {
	ref := s.now()

	n, err := s.overdue.MarkOverdue(ctx, ref)
	if err != nil {
		s.logger.Error("逾期扫描失败", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("逾期扫描", zap.Int("dossiers", n))
	}

	if s.reminder == nil || ctx.Err() != nil {
		return
	}
	res, err := s.reminder.RunReminders(ctx, ref)
	if err != nil {
		s.logger.Error("催缴执行失败", zap.Error(err))
		return
	}
	if res.Sent > 0 {
		s.logger.Info("催缴发送", zap.Int("sent", res.Sent), zap.Int("skipped", res.Skipped))
	}
}
