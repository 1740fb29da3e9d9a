package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hyperzen/backend/config"
	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
)

// ChannelLog 仅写日志的投递渠道
const ChannelLog = "log"

// ReminderPayload 催缴内容（落库为 JSONB，并交给 Dispatcher 投递）
type ReminderPayload struct {
	DossierID     string `json:"dossier_id"`
	SchoolYear    string `json:"school_year"`
	Level         int    `json:"level"`
	Status        string `json:"status"`
	Label         string `json:"label"`
	StudentName   string `json:"student_name"`
	Matricule     string `json:"matricule"`
	GuardianName  string `json:"guardian_name"`
	GuardianEmail string `json:"guardian_email"`
	GuardianPhone string `json:"guardian_phone"`
	TotalDue      string `json:"total_due"`
	TotalPaid     string `json:"total_paid"`
	Balance       string `json:"balance"`
	AmountOverdue string `json:"amount_overdue"`
	ReferenceDate string `json:"reference_date"`
}

// Dispatcher 催缴投递
type Dispatcher interface {
	Channel() string
	Dispatch(ctx context.Context, payload *ReminderPayload) error
}

// LogDispatcher 将催缴内容写入日志
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher 创建 LogDispatcher
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Channel() string { return ChannelLog }

func (d *LogDispatcher) Dispatch(_ context.Context, p *ReminderPayload) error {
	d.logger.Info("催缴通知",
		zap.String("dossier_id", p.DossierID),
		zap.Int("level", p.Level),
		zap.String("status", p.Status),
		zap.String("student", p.StudentName),
		zap.String("guardian_email", p.GuardianEmail),
		zap.String("balance", p.Balance),
	)
	return nil
}

// ReminderService 催缴业务接口
type ReminderService interface {
	// RunReminders 对当前学年需要催缴的档案生成催缴记录
	RunReminders(ctx context.Context, ref time.Time) (*dto.RunRemindersResponse, error)
	ListByDossier(ctx context.Context, dossierID string) ([]dto.ReminderResponse, error)
}

type reminderService struct {
	repo       *repository.Repository
	status     PaymentStatusService
	dispatcher Dispatcher
	cfg        config.ReminderConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewReminderService 创建 ReminderService 实例
func NewReminderService(
	repo *repository.Repository,
	status PaymentStatusService,
	dispatcher Dispatcher,
	cfg config.ReminderConfig,
	logger *zap.Logger,
) ReminderService {
	return &reminderService{
		repo:       repo,
		status:     status,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// ────────────────────── RunReminders ──────────────────────

func (s *reminderService) RunReminders(ctx context.Context, ref time.Time) (*dto.RunRemindersResponse, error) {
	result := &dto.RunRemindersResponse{}
	if !s.cfg.Enabled {
		return result, nil
	}

	year, err := s.repo.SchoolYear.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("无当前学年，跳过催缴")
			return result, nil
		}
		return nil, err
	}

	statuses, err := s.status.ListStatuses(ctx, year.Label, ref)
	if err != nil {
		return nil, err
	}

	for i := range statuses {
		st := &statuses[i]
		if !st.Decision.Status.NeedsReminder() {
			continue
		}
		result.Examined++

		level, due, err := s.nextLevel(ctx, st.Dossier.DossierID, ref)
		if err != nil {
			return nil, err
		}
		if !due {
			result.Skipped++
			continue
		}

		payload := buildReminderPayload(st, level, ref)
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		// 先落库再投递：保存失败则不投递，避免下次扫描重复发送同一级别
		reminder := &model.Reminder{
			DossierID: st.Dossier.DossierID,
			Level:     level,
			Status:    string(st.Decision.Status),
			Channel:   s.dispatcher.Channel(),
			Payload:   datatypes.JSON(raw),
			SentAt:    s.now(),
		}
		if err := s.repo.Reminder.Create(ctx, reminder); err != nil {
			s.logger.Error("保存催缴记录失败", zap.String("dossier_id", reminder.DossierID), zap.Error(err))
			return nil, err
		}

		if err := s.dispatcher.Dispatch(ctx, payload); err != nil {
			s.logger.Warn("催缴投递失败", zap.String("dossier_id", payload.DossierID), zap.Error(err))
			// 撤销记录，下次扫描重试；撤销失败时该级别视为已发送
			if derr := s.repo.Reminder.Delete(ctx, reminder.ReminderID); derr != nil {
				s.logger.Error("撤销催缴记录失败", zap.String("reminder_id", reminder.ReminderID), zap.Error(derr))
			}
			result.Skipped++
			continue
		}
		result.Sent++
	}

	s.logger.Info("催缴执行完成",
		zap.String("school_year", year.Label),
		zap.Int("examined", result.Examined),
		zap.Int("sent", result.Sent),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// nextLevel 返回下一次催缴级别，以及是否到期
func (s *reminderService) nextLevel(ctx context.Context, dossierID string, ref time.Time) (int, bool, error) {
	latest, err := s.repo.Reminder.Latest(ctx, dossierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 1, true, nil
		}
		return 0, false, err
	}
	if latest.Level >= s.cfg.MaxLevel {
		return 0, false, nil
	}
	if billing.DaysBetween(latest.SentAt, ref) < s.cfg.MinIntervalDays {
		return 0, false, nil
	}
	return latest.Level + 1, true, nil
}

// ────────────────────── ListByDossier ──────────────────────

func (s *reminderService) ListByDossier(ctx context.Context, dossierID string) ([]dto.ReminderResponse, error) {
	if _, err := s.repo.Dossier.GetByID(ctx, dossierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDossierNotFound
		}
		return nil, err
	}

	reminders, err := s.repo.Reminder.ListByDossier(ctx, dossierID)
	if err != nil {
		s.logger.Error("查询催缴记录失败", zap.String("dossier_id", dossierID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ReminderResponse, 0, len(reminders))
	for i := range reminders {
		r := &reminders[i]
		var payload map[string]interface{}
		_ = json.Unmarshal(r.Payload, &payload)
		result = append(result, dto.ReminderResponse{
			ID:        r.ReminderID,
			DossierID: r.DossierID,
			Level:     r.Level,
			Status:    r.Status,
			Channel:   r.Channel,
			Payload:   payload,
			SentAt:    formatTime(r.SentAt),
		})
	}
	return result, nil
}

func buildReminderPayload(st *DossierStatus, level int, ref time.Time) *ReminderPayload {
	p := &ReminderPayload{
		DossierID:     st.Dossier.DossierID,
		SchoolYear:    st.Dossier.SchoolYear,
		Level:         level,
		Status:        string(st.Decision.Status),
		Label:         st.Decision.Status.Label(),
		TotalDue:      formatMoney(st.Snapshot.TotalDue),
		TotalPaid:     formatMoney(st.Snapshot.TotalPaid),
		Balance:       formatMoney(st.Snapshot.Balance()),
		AmountOverdue: formatMoney(st.Snapshot.AmountOverdue),
		ReferenceDate: formatDate(billing.DateOnly(ref)),
	}
	if stu := st.Dossier.Student; stu != nil {
		p.StudentName = stu.FullName()
		p.Matricule = stu.Matricule
		p.GuardianName = stu.GuardianName
		p.GuardianEmail = stu.GuardianEmail
		p.GuardianPhone = stu.GuardianPhone
	}
	return p
}
