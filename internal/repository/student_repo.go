package repository

import (
	"context"

	"gorm.io/gorm"

	"hyperzen/backend/internal/model"
	pkgerrors "hyperzen/backend/pkg/errors"
)

// StudentListFilters 学生列表筛选条件
type StudentListFilters struct {
	Keyword   string
	ClassName string
	Status    string
}

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByMatricule(ctx context.Context, matricule string) (*model.Student, error)
	// FindExistingMatricules 返回 matricules 中已存在的子集
	FindExistingMatricules(ctx context.Context, matricules []string) (map[string]bool, error)
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id string, deletedBy string) error
	ListWithFilters(ctx context.Context, filters *StudentListFilters, offset, limit int) ([]model.Student, int64, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByMatricule(ctx context.Context, matricule string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("matricule = ?", matricule).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) FindExistingMatricules(ctx context.Context, matricules []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(matricules) == 0 {
		return result, nil
	}
	var found []string
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("matricule IN ?", matricules).
		Pluck("matricule", &found).Error
	if err != nil {
		return nil, err
	}
	for _, m := range found {
		result[m] = true
	}
	return result, nil
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	oldVersion := student.Version
	result := r.db.WithContext(ctx).
		Model(student).
		Where("student_id = ? AND version = ?", student.StudentID, oldVersion).
		Updates(map[string]interface{}{
			"matricule":      student.Matricule,
			"first_name":     student.FirstName,
			"last_name":      student.LastName,
			"birth_date":     student.BirthDate,
			"class_name":     student.ClassName,
			"guardian_name":  student.GuardianName,
			"guardian_email": student.GuardianEmail,
			"guardian_phone": student.GuardianPhone,
			"status":         student.Status,
			"updated_by":     student.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	student.Version = oldVersion + 1
	return nil
}

func (r *studentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *studentRepo) ListWithFilters(ctx context.Context, filters *StudentListFilters, offset, limit int) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Student{})
	if filters != nil {
		if filters.ClassName != "" {
			db = db.Where("class_name = ?", filters.ClassName)
		}
		if filters.Status != "" {
			db = db.Where("status = ?", filters.Status)
		}
		if filters.Keyword != "" {
			kw := "%" + filters.Keyword + "%"
			db = db.Where("matricule ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?", kw, kw, kw)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("last_name ASC, first_name ASC").
		Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}
