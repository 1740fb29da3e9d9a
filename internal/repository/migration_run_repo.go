package repository

import (
	"context"

	"gorm.io/gorm"

	"hyperzen/backend/internal/model"
	pkgerrors "hyperzen/backend/pkg/errors"
)

// MigrationRunRepository 学年迁移记录数据访问接口
type MigrationRunRepository interface {
	Create(ctx context.Context, run *model.MigrationRun) error
	GetByID(ctx context.Context, id string) (*model.MigrationRun, error)
	List(ctx context.Context) ([]model.MigrationRun, error)
	Update(ctx context.Context, run *model.MigrationRun) error
}

type migrationRunRepo struct {
	db *gorm.DB
}

// NewMigrationRunRepo 创建 MigrationRunRepository 实例
func NewMigrationRunRepo(db *gorm.DB) MigrationRunRepository {
	return &migrationRunRepo{db: db}
}

func (r *migrationRunRepo) Create(ctx context.Context, run *model.MigrationRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *migrationRunRepo) GetByID(ctx context.Context, id string) (*model.MigrationRun, error) {
	var run model.MigrationRun
	err := r.db.WithContext(ctx).
		Where("migration_run_id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *migrationRunRepo) List(ctx context.Context) ([]model.MigrationRun, error) {
	var runs []model.MigrationRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&runs).Error
	return runs, err
}

func (r *migrationRunRepo) Update(ctx context.Context, run *model.MigrationRun) error {
	oldVersion := run.Version
	result := r.db.WithContext(ctx).
		Model(run).
		Where("migration_run_id = ? AND version = ?", run.MigrationRunID, oldVersion).
		Updates(map[string]interface{}{
			"status":     run.Status,
			"summary":    run.Summary,
			"applied_at": run.AppliedAt,
			"updated_by": run.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	run.Version = oldVersion + 1
	return nil
}
