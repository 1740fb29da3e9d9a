package repository

import (
	"context"

	"gorm.io/gorm"

	"hyperzen/backend/internal/model"
)

// SchoolYearRepository 学年数据访问接口
type SchoolYearRepository interface {
	Create(ctx context.Context, year *model.SchoolYear) error
	GetByID(ctx context.Context, id string) (*model.SchoolYear, error)
	GetByLabel(ctx context.Context, label string) (*model.SchoolYear, error)
	GetCurrent(ctx context.Context) (*model.SchoolYear, error)
	List(ctx context.Context) ([]model.SchoolYear, error)
	Update(ctx context.Context, year *model.SchoolYear) error
	ClearActive(ctx context.Context) error
}

type schoolYearRepo struct {
	db *gorm.DB
}

// NewSchoolYearRepo 创建 SchoolYearRepository 实例
func NewSchoolYearRepo(db *gorm.DB) SchoolYearRepository {
	return &schoolYearRepo{db: db}
}

func (r *schoolYearRepo) Create(ctx context.Context, year *model.SchoolYear) error {
	return r.db.WithContext(ctx).Create(year).Error
}

func (r *schoolYearRepo) GetByID(ctx context.Context, id string) (*model.SchoolYear, error) {
	var year model.SchoolYear
	err := r.db.WithContext(ctx).
		Where("school_year_id = ?", id).
		First(&year).Error
	if err != nil {
		return nil, err
	}
	return &year, nil
}

func (r *schoolYearRepo) GetByLabel(ctx context.Context, label string) (*model.SchoolYear, error) {
	var year model.SchoolYear
	err := r.db.WithContext(ctx).
		Where("label = ?", label).
		First(&year).Error
	if err != nil {
		return nil, err
	}
	return &year, nil
}

func (r *schoolYearRepo) GetCurrent(ctx context.Context) (*model.SchoolYear, error) {
	var year model.SchoolYear
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		First(&year).Error
	if err != nil {
		return nil, err
	}
	return &year, nil
}

func (r *schoolYearRepo) List(ctx context.Context) ([]model.SchoolYear, error) {
	var years []model.SchoolYear
	err := r.db.WithContext(ctx).
		Order("start_date DESC").
		Find(&years).Error
	return years, err
}

func (r *schoolYearRepo) Update(ctx context.Context, year *model.SchoolYear) error {
	return r.db.WithContext(ctx).Save(year).Error
}

// ClearActive 将所有学年的 is_active 设为 false
func (r *schoolYearRepo) ClearActive(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&model.SchoolYear{}).
		Where("is_active = ?", true).
		Update("is_active", false).Error
}
