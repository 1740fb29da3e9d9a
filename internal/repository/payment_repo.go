package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/model"
)

// PaymentRepository 付款数据访问接口
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	ListByDossier(ctx context.Context, dossierID string) ([]model.Payment, error)
	ListByDossierIDs(ctx context.Context, dossierIDs []string) ([]model.Payment, error)
	// Void 仅当付款为 valid 时作废，返回受影响行数
	Void(ctx context.Context, id, reason string, voidedAt time.Time, updatedBy string) (int64, error)
}

type paymentRepo struct {
	db *gorm.DB
}

// NewPaymentRepo 创建 PaymentRepository 实例
func NewPaymentRepo(db *gorm.DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepo) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", id).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepo) ListByDossier(ctx context.Context, dossierID string) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.db.WithContext(ctx).
		Where("dossier_id = ?", dossierID).
		Order("payment_date ASC, created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) ListByDossierIDs(ctx context.Context, dossierIDs []string) ([]model.Payment, error) {
	var payments []model.Payment
	if len(dossierIDs) == 0 {
		return payments, nil
	}
	err := r.db.WithContext(ctx).
		Where("dossier_id IN ?", dossierIDs).
		Order("payment_date ASC, created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepo) Void(ctx context.Context, id, reason string, voidedAt time.Time, updatedBy string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("payment_id = ? AND status = ?", id, billing.PaymentValid).
		Updates(map[string]interface{}{
			"status":      billing.PaymentVoided,
			"void_reason": reason,
			"voided_at":   voidedAt,
			"updated_by":  updatedBy,
		})
	return result.RowsAffected, result.Error
}
