package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
)

// ── 付款模块业务错误 ──

var (
	ErrPaymentNotFound         = errors.New("付款记录不存在")
	ErrPaymentAmountInvalid    = errors.New("付款金额必须大于 0，最多两位小数")
	ErrPaymentDateInFuture     = errors.New("付款日期不能晚于今天")
	ErrPaymentAlreadyVoided    = errors.New("付款已作废")
	ErrInstallmentNotFound     = errors.New("分期不存在")
	ErrInstallmentNotPayable   = errors.New("分期已结清或已取消")
	ErrInstallmentWrongDossier = errors.New("分期不属于该档案")
)

// PaymentService 付款登记接口
// 付款记录只追加；更正通过作废 + 重新登记完成
type PaymentService interface {
	Record(ctx context.Context, dossierID string, req *dto.RecordPaymentRequest, callerID string) (*dto.PaymentResponse, error)
	Void(ctx context.Context, paymentID string, req *dto.VoidPaymentRequest, callerID string) (*dto.PaymentResponse, error)
	ListByDossier(ctx context.Context, dossierID string) ([]dto.PaymentResponse, error)
}

type paymentService struct {
	repo   *repository.Repository
	cache  StatusCache
	logger *zap.Logger
	now    func() time.Time
}

// NewPaymentService 创建 PaymentService 实例
func NewPaymentService(repo *repository.Repository, cache StatusCache, logger *zap.Logger) PaymentService {
	return &paymentService{repo: repo, cache: cache, logger: logger, now: time.Now}
}

// ────────────────────── Record ──────────────────────

func (s *paymentService) Record(ctx context.Context, dossierID string, req *dto.RecordPaymentRequest, callerID string) (*dto.PaymentResponse, error) {
	amount, ok := parseMoney(req.Amount)
	if !ok || !amount.IsPositive() {
		return nil, ErrPaymentAmountInvalid
	}
	paidOn, err := parseDate(req.PaymentDate)
	if err != nil {
		return nil, err
	}
	if paidOn.After(billing.DateOnly(s.now())) {
		return nil, ErrPaymentDateInFuture
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

	var installment *model.Installment
	if req.InstallmentID != "" {
		installment, err = s.repo.Installment.GetByID(ctx, req.InstallmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInstallmentNotFound
			}
			return nil, err
		}
		if installment.DossierID != dossierID {
			return nil, ErrInstallmentWrongDossier
		}
		if installment.Status != billing.InstallmentUpcoming && installment.Status != billing.InstallmentOverdue {
			return nil, ErrInstallmentNotPayable
		}
	}

	payment := &model.Payment{
		DossierID:   dossierID,
		Amount:      amount,
		PaymentDate: paidOn,
		Method:      req.Method,
		Reference:   strings.TrimSpace(req.Reference),
		Status:      billing.PaymentValid,
		BaseModel:   auditCreated(callerID),
	}
	if installment != nil {
		payment.InstallmentID = &installment.InstallmentID
	}

	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		// 锁定档案行：与 Close / 学年迁移串行，防止向已关闭档案写入
		if err := lockOpenDossier(ctx, txRepo, dossierID); err != nil {
			return err
		}
		if installment != nil {
			n, err := txRepo.Installment.Settle(ctx, installment.InstallmentID, s.now(), callerID)
			if err != nil {
				return err
			}
			if n == 0 {
				// 并发结清或已被取消
				return ErrInstallmentNotPayable
			}
		}
		return txRepo.Payment.Create(ctx, payment)
	})
	if err != nil {
		s.logger.Error("登记付款失败", zap.String("dossier_id", dossierID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("登记付款",
		zap.String("payment_id", payment.PaymentID),
		zap.String("dossier_id", dossierID),
		zap.String("amount", formatMoney(amount)),
	)
	invalidateStatus(ctx, s.cache, s.logger, dossierID)
	return toPaymentResponse(payment), nil
}

// ────────────────────── Void ──────────────────────

func (s *paymentService) Void(ctx context.Context, paymentID string, req *dto.VoidPaymentRequest, callerID string) (*dto.PaymentResponse, error) {
	payment, err := s.repo.Payment.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.Status == billing.PaymentVoided {
		return nil, ErrPaymentAlreadyVoided
	}

	now := s.now()
	reason := strings.TrimSpace(req.Reason)
	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		// 已关闭档案的余额已结转至下一学年，不允许再变动
		if err := lockOpenDossier(ctx, txRepo, payment.DossierID); err != nil {
			return err
		}
		n, err := txRepo.Payment.Void(ctx, paymentID, reason, now, callerID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrPaymentAlreadyVoided
		}
		if payment.InstallmentID == nil {
			return nil
		}

		// 被结清的分期退回未付；已过到期日则直接为 overdue
		installment, err := txRepo.Installment.GetByID(ctx, *payment.InstallmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		status := billing.InstallmentUpcoming
		if installment.DueDate.Before(billing.DateOnly(now)) {
			status = billing.InstallmentOverdue
		}
		_, err = txRepo.Installment.Reopen(ctx, installment.InstallmentID, status, callerID)
		return err
	})
	if err != nil {
		s.logger.Error("作废付款失败", zap.String("payment_id", paymentID), zap.Error(err))
		return nil, err
	}

	payment.Status = billing.PaymentVoided
	payment.VoidReason = reason
	payment.VoidedAt = &now
	payment.UpdatedBy = &callerID

	s.logger.Info("作废付款", zap.String("payment_id", paymentID), zap.String("reason", reason))
	invalidateStatus(ctx, s.cache, s.logger, payment.DossierID)
	return toPaymentResponse(payment), nil
}

// lockOpenDossier 在事务内锁定档案并确认其未关闭
func lockOpenDossier(ctx context.Context, txRepo *repository.Repository, dossierID string) error {
	dossier, err := txRepo.Dossier.GetForUpdate(ctx, dossierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDossierNotFound
		}
		return err
	}
	if dossier.IsClosed() {
		return ErrDossierClosed
	}
	return nil
}

// ────────────────────── ListByDossier ──────────────────────

func (s *paymentService) ListByDossier(ctx context.Context, dossierID string) ([]dto.PaymentResponse, error) {
	if _, err := s.repo.Dossier.GetByID(ctx, dossierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDossierNotFound
		}
		return nil, err
	}

	payments, err := s.repo.Payment.ListByDossier(ctx, dossierID)
	if err != nil {
		s.logger.Error("查询付款记录失败", zap.String("dossier_id", dossierID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		result = append(result, *toPaymentResponse(&payments[i]))
	}
	return result, nil
}

func toPaymentResponse(p *model.Payment) *dto.PaymentResponse {
	return &dto.PaymentResponse{
		ID:            p.PaymentID,
		DossierID:     p.DossierID,
		InstallmentID: derefString(p.InstallmentID),
		Amount:        formatMoney(p.Amount),
		PaymentDate:   formatDate(p.PaymentDate),
		Method:        p.Method,
		Reference:     p.Reference,
		Status:        p.Status,
		VoidReason:    p.VoidReason,
	}
}
