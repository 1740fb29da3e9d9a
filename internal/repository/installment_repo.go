package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/model"
)

// InstallmentRepository 分期数据访问接口
type InstallmentRepository interface {
	BatchCreate(ctx context.Context, installments []model.Installment) error
	GetByID(ctx context.Context, id string) (*model.Installment, error)
	ListByDossier(ctx context.Context, dossierID string) ([]model.Installment, error)
	ListByDossierIDs(ctx context.Context, dossierIDs []string) ([]model.Installment, error)
	// Settle 仅当分期为 upcoming/overdue 时置为 paid，返回受影响行数
	Settle(ctx context.Context, id string, paidAt time.Time, updatedBy string) (int64, error)
	// Reopen 仅当分期为 paid 时退回 status（upcoming 或 overdue），返回受影响行数
	Reopen(ctx context.Context, id string, status string, updatedBy string) (int64, error)
	// CancelUpcoming 将档案下所有 upcoming/overdue 分期置为 cancelled
	CancelUpcoming(ctx context.Context, dossierID string) (int64, error)
	// MarkOverdue 将到期日早于 ref 的 upcoming 分期置为 overdue，返回受影响的档案 ID
	MarkOverdue(ctx context.Context, ref time.Time) ([]string, error)
}

type installmentRepo struct {
	db *gorm.DB
}

// NewInstallmentRepo 创建 InstallmentRepository 实例
func NewInstallmentRepo(db *gorm.DB) InstallmentRepository {
	return &installmentRepo{db: db}
}

func (r *installmentRepo) BatchCreate(ctx context.Context, installments []model.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&installments).Error
}

func (r *installmentRepo) GetByID(ctx context.Context, id string) (*model.Installment, error) {
	var inst model.Installment
	err := r.db.WithContext(ctx).
		Where("installment_id = ?", id).
		First(&inst).Error
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *installmentRepo) ListByDossier(ctx context.Context, dossierID string) ([]model.Installment, error) {
	var installments []model.Installment
	err := r.db.WithContext(ctx).
		Where("dossier_id = ?", dossierID).
		Order("sequence ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepo) ListByDossierIDs(ctx context.Context, dossierIDs []string) ([]model.Installment, error) {
	var installments []model.Installment
	if len(dossierIDs) == 0 {
		return installments, nil
	}
	err := r.db.WithContext(ctx).
		Where("dossier_id IN ?", dossierIDs).
		Order("dossier_id ASC, sequence ASC").
		Find(&installments).Error
	return installments, err
}

func (r *installmentRepo) Settle(ctx context.Context, id string, paidAt time.Time, updatedBy string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Installment{}).
		Where("installment_id = ? AND status IN ?", id,
			[]string{billing.InstallmentUpcoming, billing.InstallmentOverdue}).
		Updates(map[string]interface{}{
			"status":     billing.InstallmentPaid,
			"paid_at":    paidAt,
			"updated_by": updatedBy,
		})
	return result.RowsAffected, result.Error
}

func (r *installmentRepo) Reopen(ctx context.Context, id string, status string, updatedBy string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Installment{}).
		Where("installment_id = ? AND status = ?", id, billing.InstallmentPaid).
		Updates(map[string]interface{}{
			"status":     status,
			"paid_at":    nil,
			"updated_by": updatedBy,
		})
	return result.RowsAffected, result.Error
}

func (r *installmentRepo) CancelUpcoming(ctx context.Context, dossierID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Installment{}).
		Where("dossier_id = ? AND status IN ?", dossierID,
			[]string{billing.InstallmentUpcoming, billing.InstallmentOverdue}).
		Update("status", billing.InstallmentCancelled)
	return result.RowsAffected, result.Error
}

func (r *installmentRepo) MarkOverdue(ctx context.Context, ref time.Time) ([]string, error) {
	var dossierIDs []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		day := billing.DateOnly(ref)
		if err := tx.Model(&model.Installment{}).
			Where("status = ? AND due_date < ?", billing.InstallmentUpcoming, day).
			Distinct("dossier_id").
			Pluck("dossier_id", &dossierIDs).Error; err != nil {
			return err
		}
		if len(dossierIDs) == 0 {
			return nil
		}
		return tx.Model(&model.Installment{}).
			Where("status = ? AND due_date < ?", billing.InstallmentUpcoming, day).
			Update("status", billing.InstallmentOverdue).Error
	})
	if err != nil {
		return nil, err
	}
	return dossierIDs, nil
}
