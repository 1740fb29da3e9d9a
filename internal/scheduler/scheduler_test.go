package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"hyperzen/backend/internal/dto"
)

type fakeOverdue struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeOverdue) MarkOverdue(_ context.Context, ref time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ref)
	return 1, f.err
}

func (f *fakeOverdue) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeReminder struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeReminder) RunReminders(_ context.Context, _ time.Time) (*dto.RunRemindersResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &dto.RunRemindersResponse{Examined: 1, Sent: 1}, nil
}

func TestRunOnce_OrderAndErrors(t *testing.T) {
	ov := &fakeOverdue{err: errors.New("db down")}
	rem := &fakeReminder{}
	s := New(ov, rem, time.Minute, zap.NewNop())
	fixed := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.RunOnce(context.Background())

	if ov.count() != 1 || !ov.calls[0].Equal(fixed) {
		t.Errorf("逾期扫描应以当前时间执行一次，实际 %v", ov.calls)
	}
	if rem.calls != 1 {
		t.Error("逾期扫描失败不应阻止催缴")
	}
}

func TestRunOnce_WithoutReminder(t *testing.T) {
	ov := &fakeOverdue{}
	s := New(ov, nil, time.Minute, zap.NewNop())
	s.RunOnce(context.Background())
	if ov.count() != 1 {
		t.Error("未配置催缴时仍应执行逾期扫描")
	}
}

func TestStartStop(t *testing.T) {
	ov := &fakeOverdue{}
	s := New(ov, &fakeReminder{}, 10*time.Millisecond, zap.NewNop())

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for ov.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if ov.count() < 3 {
		t.Fatalf("期望至少执行 3 轮，实际 %d", ov.count())
	}
	after := ov.count()
	time.Sleep(30 * time.Millisecond)
	if ov.count() != after {
		t.Error("Stop 之后不应继续执行")
	}
}
