package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
)

// ── 分期模块业务错误 ──

var (
	ErrScheduleExists       = errors.New("该档案已有分期计划")
	ErrScheduleNothingDue   = errors.New("应付总额为 0，无需生成分期")
	ErrScheduleCountInvalid = errors.New("分期数必须在 1-24 之间")
)

// InstallmentService 分期计划接口
type InstallmentService interface {
	GenerateSchedule(ctx context.Context, dossierID string, req *dto.GenerateScheduleRequest, callerID string) ([]dto.InstallmentResponse, error)
	ListByDossier(ctx context.Context, dossierID string) ([]dto.InstallmentResponse, error)
	// MarkOverdue 将 due_date < ref 的 upcoming 分期置为 overdue，返回受影响档案数
	MarkOverdue(ctx context.Context, ref time.Time) (int, error)
}

type installmentService struct {
	repo   *repository.Repository
	cache  StatusCache
	logger *zap.Logger
}

// NewInstallmentService 创建 InstallmentService 实例
func NewInstallmentService(repo *repository.Repository, cache StatusCache, logger *zap.Logger) InstallmentService {
	return &installmentService{repo: repo, cache: cache, logger: logger}
}

// ────────────────────── GenerateSchedule ──────────────────────

func (s *installmentService) GenerateSchedule(ctx context.Context, dossierID string, req *dto.GenerateScheduleRequest, callerID string) ([]dto.InstallmentResponse, error) {
	if req.Count < 1 || req.Count > 24 {
		return nil, ErrScheduleCountInvalid
	}
	first, err := parseDate(req.FirstDueDate)
	if err != nil {
		return nil, err
	}

	dossier, err := s.repo.Dossier.GetByID(ctx, dossierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDossierNotFound
		}
		return nil, err
	}
	if dossier.IsClosed() {
		return nil, ErrDossierClosed
	}

	total := dossier.TotalDue()
	if !total.IsPositive() {
		return nil, ErrScheduleNothingDue
	}

	existing, err := s.repo.Installment.ListByDossier(ctx, dossierID)
	if err != nil {
		return nil, err
	}
	for _, inst := range existing {
		if inst.Status != billing.InstallmentCancelled {
			return nil, ErrScheduleExists
		}
	}

	amounts := SplitAmount(total, req.Count)
	installments := make([]model.Installment, 0, req.Count)
	for i, amount := range amounts {
		installments = append(installments, model.Installment{
			DossierID: dossierID,
			Sequence:  i + 1,
			Amount:    amount,
			DueDate:   addMonthsClamped(first, i),
			Status:    billing.InstallmentUpcoming,
			BaseModel: auditCreated(callerID),
		})
	}

	if err := s.repo.Installment.BatchCreate(ctx, installments); err != nil {
		s.logger.Error("生成分期计划失败", zap.String("dossier_id", dossierID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("生成分期计划",
		zap.String("dossier_id", dossierID),
		zap.Int("count", req.Count),
		zap.String("total", formatMoney(total)),
	)
	invalidateStatus(ctx, s.cache, s.logger, dossierID)

	result := make([]dto.InstallmentResponse, 0, len(installments))
	for i := range installments {
		result = append(result, *toInstallmentResponse(&installments[i]))
	}
	return result, nil
}

// ────────────────────── ListByDossier ──────────────────────

func (s *installmentService) ListByDossier(ctx context.Context, dossierID string) ([]dto.InstallmentResponse, error) {
	if _, err := s.repo.Dossier.GetByID(ctx, dossierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDossierNotFound
		}
		return nil, err
	}

	installments, err := s.repo.Installment.ListByDossier(ctx, dossierID)
	if err != nil {
		s.logger.Error("查询分期失败", zap.String("dossier_id", dossierID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.InstallmentResponse, 0, len(installments))
	for i := range installments {
		result = append(result, *toInstallmentResponse(&installments[i]))
	}
	return result, nil
}

// ────────────────────── MarkOverdue ──────────────────────

func (s *installmentService) MarkOverdue(ctx context.Context, ref time.Time) (int, error) {
	dossierIDs, err := s.repo.Installment.MarkOverdue(ctx, ref)
	if err != nil {
		s.logger.Error("逾期扫描失败", zap.Error(err))
		return 0, err
	}
	for _, id := range dossierIDs {
		invalidateStatus(ctx, s.cache, s.logger, id)
	}
	if len(dossierIDs) > 0 {
		s.logger.Info("逾期扫描完成", zap.Int("dossiers", len(dossierIDs)))
	}
	return len(dossierIDs), nil
}

// SplitAmount 将总额均分为 n 份（保留两位小数），余数计入最后一份
func SplitAmount(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	part := total.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	parts := make([]decimal.Decimal, n)
	for i := 0; i < n-1; i++ {
		parts[i] = part
	}
	parts[n-1] = total.Sub(part.Mul(decimal.NewFromInt(int64(n - 1))))
	return parts
}

// addMonthsClamped 按月递增；目标月份天数不足时取月末（1/31 → 2/28）
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	last := target.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, 0, 0, 0, 0, t.Location())
}

func toInstallmentResponse(inst *model.Installment) *dto.InstallmentResponse {
	return &dto.InstallmentResponse{
		ID:        inst.InstallmentID,
		DossierID: inst.DossierID,
		Sequence:  inst.Sequence,
		Amount:    formatMoney(inst.Amount),
		DueDate:   formatDate(inst.DueDate),
		Status:    inst.Status,
	}
}
