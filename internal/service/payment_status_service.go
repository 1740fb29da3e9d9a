package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
	pkgerrors "hyperzen/backend/pkg/errors"
)

// ── 付款状态模块业务错误 ──

var (
	ErrDossierNotFound = errors.New("缴费档案不存在")
)

// DossierStatus 单个档案的判定结果（供催缴、导出、迁移复用）
type DossierStatus struct {
	Dossier  model.Dossier
	Snapshot billing.Snapshot
	Decision billing.Decision
}

// PaymentStatusService 付款状态查询接口
//
// 查询路径：档案 + 付款 + 分期并发读取 → BuildSnapshot → Classify。
// 档案不存在返回 ErrDossierNotFound；其余存储错误原样返回，不降级为任何状态。
type PaymentStatusService interface {
	GetStatus(ctx context.Context, dossierID string, ref time.Time) (*dto.PaymentStatusResponse, error)
	ListStatuses(ctx context.Context, schoolYear string, ref time.Time) ([]DossierStatus, error)
	Summarize(ctx context.Context, req *dto.StatusListRequest, ref time.Time) (*dto.StatusSummary, error)
}

type paymentStatusService struct {
	repo       *repository.Repository
	classifier *billing.Classifier
	cache      StatusCache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewPaymentStatusService 创建 PaymentStatusService 实例
// cache 可为 nil（Redis 不可用时直接回源）
func NewPaymentStatusService(
	repo *repository.Repository,
	classifier *billing.Classifier,
	cache StatusCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) PaymentStatusService {
	return &paymentStatusService{
		repo:       repo,
		classifier: classifier,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// ────────────────────── GetStatus ──────────────────────

func (s *paymentStatusService) GetStatus(ctx context.Context, dossierID string, ref time.Time) (*dto.PaymentStatusResponse, error) {
	refKey := formatDate(billing.DateOnly(ref))

	if cached := s.readCache(ctx, dossierID, refKey); cached != nil {
		return cached, nil
	}

	var (
		dossier      *model.Dossier
		payments     []model.Payment
		installments []model.Installment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.repo.Dossier.GetByID(gctx, dossierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDossierNotFound
			}
			return err
		}
		dossier = d
		return nil
	})
	g.Go(func() error {
		var err error
		payments, err = s.repo.Payment.ListByDossier(gctx, dossierID)
		return err
	})
	g.Go(func() error {
		var err error
		installments, err = s.repo.Installment.ListByDossier(gctx, dossierID)
		return err
	})
	if err := g.Wait(); err != nil {
		if !errors.Is(err, ErrDossierNotFound) {
			s.logger.Error("读取档案付款数据失败", zap.String("dossier_id", dossierID), zap.Error(err))
		}
		return nil, err
	}

	classifier, err := s.classifierFor(ctx, dossier.SchoolYear)
	if err != nil {
		return nil, err
	}

	st := evaluateDossier(classifier, dossier, payments, installments, ref)
	resp := toStatusResponse(st, ref)

	s.writeCache(ctx, dossierID, refKey, resp)
	return resp, nil
}

// ────────────────────── ListStatuses ──────────────────────

func (s *paymentStatusService) ListStatuses(ctx context.Context, schoolYear string, ref time.Time) ([]DossierStatus, error) {
	dossiers, err := s.repo.Dossier.ListByYear(ctx, schoolYear, model.DossierActive)
	if err != nil {
		s.logger.Error("查询学年档案失败", zap.String("school_year", schoolYear), zap.Error(err))
		return nil, err
	}
	if len(dossiers) == 0 {
		return []DossierStatus{}, nil
	}

	ids := make([]string, 0, len(dossiers))
	for _, d := range dossiers {
		ids = append(ids, d.DossierID)
	}

	var (
		payments     []model.Payment
		installments []model.Installment
		classifier   *billing.Classifier
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = s.repo.Payment.ListByDossierIDs(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		installments, err = s.repo.Installment.ListByDossierIDs(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		classifier, err = s.classifierFor(gctx, schoolYear)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("批量读取付款数据失败", zap.String("school_year", schoolYear), zap.Error(err))
		return nil, err
	}

	paymentsBy := make(map[string][]model.Payment, len(dossiers))
	for _, p := range payments {
		paymentsBy[p.DossierID] = append(paymentsBy[p.DossierID], p)
	}
	installmentsBy := make(map[string][]model.Installment, len(dossiers))
	for _, inst := range installments {
		installmentsBy[inst.DossierID] = append(installmentsBy[inst.DossierID], inst)
	}

	result := make([]DossierStatus, 0, len(dossiers))
	for i := range dossiers {
		d := &dossiers[i]
		result = append(result, evaluateDossier(classifier, d, paymentsBy[d.DossierID], installmentsBy[d.DossierID], ref))
	}
	return result, nil
}

// ────────────────────── Summarize ──────────────────────

func (s *paymentStatusService) Summarize(ctx context.Context, req *dto.StatusListRequest, ref time.Time) (*dto.StatusSummary, error) {
	statuses, err := s.ListStatuses(ctx, req.SchoolYear, ref)
	if err != nil {
		return nil, err
	}

	summary := &dto.StatusSummary{
		SchoolYear: req.SchoolYear,
		Counts:     make(map[string]int, len(billing.AllStatuses)),
		Items:      make([]dto.PaymentStatusResponse, 0, len(statuses)),
	}
	for _, st := range billing.AllStatuses {
		summary.Counts[string(st)] = 0
	}
	for _, st := range statuses {
		summary.Counts[string(st.Decision.Status)]++
		if req.Status != "" && string(st.Decision.Status) != req.Status {
			continue
		}
		summary.Items = append(summary.Items, *toStatusResponse(st, ref))
	}
	return summary, nil
}

// ── 内部辅助方法 ──

// classifierFor 学年记录存在时使用其起止日期作为学年窗口，否则使用默认策略
func (s *paymentStatusService) classifierFor(ctx context.Context, schoolYear string) (*billing.Classifier, error) {
	year, err := s.repo.SchoolYear.GetByLabel(ctx, schoolYear)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.classifier, nil
		}
		s.logger.Error("查询学年失败", zap.String("label", schoolYear), zap.Error(err))
		return nil, err
	}
	policy := s.classifier.Policy().WithWindow(year.StartDate, year.EndDate)
	return s.classifier.WithPolicy(policy), nil
}

func (s *paymentStatusService) readCache(ctx context.Context, dossierID, refKey string) *dto.PaymentStatusResponse {
	if s.cache == nil {
		return nil
	}
	b, err := s.cache.GetStatus(ctx, dossierID, refKey)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrCacheMiss) {
			s.logger.Warn("读取状态缓存失败", zap.String("dossier_id", dossierID), zap.Error(err))
		}
		return nil
	}
	var resp dto.PaymentStatusResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *paymentStatusService) writeCache(ctx context.Context, dossierID, refKey string, resp *dto.PaymentStatusResponse) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.SetStatus(ctx, dossierID, refKey, b, s.cacheTTL); err != nil {
		s.logger.Warn("写入状态缓存失败", zap.String("dossier_id", dossierID), zap.Error(err))
	}
}

// evaluateDossier 聚合 + 判定，纯计算
func evaluateDossier(
	classifier *billing.Classifier,
	dossier *model.Dossier,
	payments []model.Payment,
	installments []model.Installment,
	ref time.Time,
) DossierStatus {
	pRecords := make([]billing.PaymentRecord, 0, len(payments))
	for _, p := range payments {
		pRecords = append(pRecords, billing.PaymentRecord{Amount: p.Amount, Date: p.PaymentDate, Status: p.Status})
	}
	iRecords := make([]billing.InstallmentRecord, 0, len(installments))
	for _, inst := range installments {
		iRecords = append(iRecords, billing.InstallmentRecord{Amount: inst.Amount, DueDate: inst.DueDate, Status: inst.Status})
	}

	snap := billing.BuildSnapshot(dossier.TotalDue(), pRecords, iRecords, ref)
	return DossierStatus{
		Dossier:  *dossier,
		Snapshot: snap,
		Decision: classifier.Classify(snap, ref),
	}
}

func toStatusResponse(st DossierStatus, ref time.Time) *dto.PaymentStatusResponse {
	return &dto.PaymentStatusResponse{
		DossierID:       st.Dossier.DossierID,
		ReferenceDate:   formatDate(billing.DateOnly(ref)),
		Status:          string(st.Decision.Status),
		Label:           st.Decision.Status.Label(),
		Rule:            st.Decision.Rule,
		NeedsReminder:   st.Decision.Status.NeedsReminder(),
		TotalDue:        formatMoney(st.Snapshot.TotalDue),
		TotalPaid:       formatMoney(st.Snapshot.TotalPaid),
		Balance:         formatMoney(st.Snapshot.Balance()),
		AmountOverdue:   formatMoney(st.Snapshot.AmountOverdue),
		OverdueCount:    st.Snapshot.OverdueCount,
		LastPaymentDate: formatDatePtr(st.Snapshot.LastPaymentDate),
	}
}
