package repository

import (
	"context"

	"gorm.io/gorm"

	"hyperzen/backend/internal/model"
)

// ReminderRepository 催缴记录数据访问接口
type ReminderRepository interface {
	Create(ctx context.Context, reminder *model.Reminder) error
	// Delete 删除投递失败的催缴记录
	Delete(ctx context.Context, id string) error
	ListByDossier(ctx context.Context, dossierID string) ([]model.Reminder, error)
	// Latest 档案最近一次催缴；无记录返回 gorm.ErrRecordNotFound
	Latest(ctx context.Context, dossierID string) (*model.Reminder, error)
}

type reminderRepo struct {
	db *gorm.DB
}

// NewReminderRepo 创建 ReminderRepository 实例
func NewReminderRepo(db *gorm.DB) ReminderRepository {
	return &reminderRepo{db: db}
}

func (r *reminderRepo) Create(ctx context.Context, reminder *model.Reminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *reminderRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("reminder_id = ?", id).Delete(&model.Reminder{}).Error
}

func (r *reminderRepo) ListByDossier(ctx context.Context, dossierID string) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.db.WithContext(ctx).
		Where("dossier_id = ?", dossierID).
		Order("sent_at DESC").
		Find(&reminders).Error
	return reminders, err
}

func (r *reminderRepo) Latest(ctx context.Context, dossierID string) (*model.Reminder, error) {
	var reminder model.Reminder
	err := r.db.WithContext(ctx).
		Where("dossier_id = ?", dossierID).
		Order("sent_at DESC").
		First(&reminder).Error
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}
