package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hyperzen/backend/internal/model"
	pkgerrors "hyperzen/backend/pkg/errors"
)

// DossierListFilters 档案列表筛选条件
type DossierListFilters struct {
	StudentID  string
	SchoolYear string
	Status     string
}

// DossierRepository 缴费档案数据访问接口
type DossierRepository interface {
	Create(ctx context.Context, dossier *model.Dossier) error
	GetByID(ctx context.Context, id string) (*model.Dossier, error)
	// GetForUpdate 在事务内以 SELECT ... FOR UPDATE 读取档案，串行化同一档案上的付款写入
	GetForUpdate(ctx context.Context, id string) (*model.Dossier, error)
	// GetActive 查询学生在某学年的 active 档案
	GetActive(ctx context.Context, studentID, schoolYear string) (*model.Dossier, error)
	ListByYear(ctx context.Context, schoolYear, status string) ([]model.Dossier, error)
	ListWithFilters(ctx context.Context, filters *DossierListFilters, offset, limit int) ([]model.Dossier, int64, error)
	Update(ctx context.Context, dossier *model.Dossier) error
}

type dossierRepo struct {
	db *gorm.DB
}

// NewDossierRepo 创建 DossierRepository 实例
func NewDossierRepo(db *gorm.DB) DossierRepository {
	return &dossierRepo{db: db}
}

func (r *dossierRepo) Create(ctx context.Context, dossier *model.Dossier) error {
	return r.db.WithContext(ctx).Create(dossier).Error
}

func (r *dossierRepo) GetByID(ctx context.Context, id string) (*model.Dossier, error) {
	var dossier model.Dossier
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("dossier_id = ?", id).
		First(&dossier).Error
	if err != nil {
		return nil, err
	}
	return &dossier, nil
}

func (r *dossierRepo) GetForUpdate(ctx context.Context, id string) (*model.Dossier, error) {
	var dossier model.Dossier
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("dossier_id = ?", id).
		First(&dossier).Error
	if err != nil {
		return nil, err
	}
	return &dossier, nil
}

func (r *dossierRepo) GetActive(ctx context.Context, studentID, schoolYear string) (*model.Dossier, error) {
	var dossier model.Dossier
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND school_year = ? AND status = ?", studentID, schoolYear, model.DossierActive).
		First(&dossier).Error
	if err != nil {
		return nil, err
	}
	return &dossier, nil
}

func (r *dossierRepo) ListByYear(ctx context.Context, schoolYear, status string) ([]model.Dossier, error) {
	var dossiers []model.Dossier
	db := r.db.WithContext(ctx).
		Preload("Student").
		Where("school_year = ?", schoolYear)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("created_at ASC").Find(&dossiers).Error
	return dossiers, err
}

func (r *dossierRepo) ListWithFilters(ctx context.Context, filters *DossierListFilters, offset, limit int) ([]model.Dossier, int64, error) {
	var dossiers []model.Dossier
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Dossier{})
	if filters != nil {
		if filters.StudentID != "" {
			db = db.Where("student_id = ?", filters.StudentID)
		}
		if filters.SchoolYear != "" {
			db = db.Where("school_year = ?", filters.SchoolYear)
		}
		if filters.Status != "" {
			db = db.Where("status = ?", filters.Status)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Student").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&dossiers).Error; err != nil {
		return nil, 0, err
	}

	return dossiers, total, nil
}

func (r *dossierRepo) Update(ctx context.Context, dossier *model.Dossier) error {
	oldVersion := dossier.Version
	result := r.db.WithContext(ctx).
		Model(dossier).
		Where("dossier_id = ? AND version = ?", dossier.DossierID, oldVersion).
		Updates(map[string]interface{}{
			"tuition_amount": dossier.TuitionAmount,
			"prior_unpaid":   dossier.PriorUnpaid,
			"status":         dossier.Status,
			"notes":          dossier.Notes,
			"updated_by":     dossier.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	dossier.Version = oldVersion + 1
	return nil
}
