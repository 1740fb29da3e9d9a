package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
)

// ── 档案模块业务错误 ──

var (
	ErrDossierAmountInvalid = errors.New("金额必须为非负数，最多两位小数")
	ErrDossierExists        = errors.New("该学生在此学年已有有效档案")
	ErrDossierClosed        = errors.New("档案已关闭")
)

// DossierService 缴费档案业务接口
type DossierService interface {
	Create(ctx context.Context, req *dto.CreateDossierRequest, callerID string) (*dto.DossierResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DossierResponse, error)
	List(ctx context.Context, req *dto.DossierListRequest) ([]dto.DossierResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateDossierRequest, callerID string) (*dto.DossierResponse, error)
	// Close 关闭档案并取消其未付分期（同一事务）
	Close(ctx context.Context, id string, callerID string) error
}

type dossierService struct {
	repo   *repository.Repository
	cache  StatusCache
	logger *zap.Logger
}

// NewDossierService 创建 DossierService 实例
func NewDossierService(repo *repository.Repository, cache StatusCache, logger *zap.Logger) DossierService {
	return &dossierService{repo: repo, cache: cache, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *dossierService) Create(ctx context.Context, req *dto.CreateDossierRequest, callerID string) (*dto.DossierResponse, error) {
	tuition, ok := parseMoney(req.TuitionAmount)
	if !ok {
		return nil, ErrDossierAmountInvalid
	}
	prior := decimal.Zero
	if strings.TrimSpace(req.PriorUnpaid) != "" {
		if prior, ok = parseMoney(req.PriorUnpaid); !ok {
			return nil, ErrDossierAmountInvalid
		}
	}

	student, err := s.repo.Student.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	year := strings.TrimSpace(req.SchoolYear)
	if _, err := s.repo.Dossier.GetActive(ctx, student.StudentID, year); err == nil {
		return nil, ErrDossierExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	dossier := &model.Dossier{
		StudentID:     student.StudentID,
		SchoolYear:    year,
		TuitionAmount: tuition,
		PriorUnpaid:   prior,
		Status:        model.DossierActive,
		Notes:         strings.TrimSpace(req.Notes),
	}
	dossier.CreatedBy = &callerID

	if err := s.repo.Dossier.Create(ctx, dossier); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDossierExists
		}
		s.logger.Error("创建档案失败", zap.Error(err))
		return nil, err
	}
	dossier.Student = student

	s.logger.Info("创建缴费档案",
		zap.String("dossier_id", dossier.DossierID),
		zap.String("student_id", student.StudentID),
		zap.String("school_year", year),
	)
	return toDossierResponse(dossier), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *dossierService) GetByID(ctx context.Context, id string) (*dto.DossierResponse, error) {
	dossier, err := s.repo.Dossier.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDossierNotFound
		}
		s.logger.Error("查询档案失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toDossierResponse(dossier), nil
}

// ────────────────────── List ──────────────────────

func (s *dossierService) List(ctx context.Context, req *dto.DossierListRequest) ([]dto.DossierResponse, int64, error) {
	filters := &repository.DossierListFilters{
		StudentID:  req.StudentID,
		SchoolYear: req.SchoolYear,
		Status:     req.Status,
	}

	dossiers, total, err := s.repo.Dossier.ListWithFilters(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出档案失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.DossierResponse, 0, len(dossiers))
	for i := range dossiers {
		result = append(result, *toDossierResponse(&dossiers[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *dossierService) Update(ctx context.Context, id string, req *dto.UpdateDossierRequest, callerID string) (*dto.DossierResponse, error) {
	dossier, err := s.repo.Dossier.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDossierNotFound
		}
		return nil, err
	}
	if dossier.IsClosed() {
		return nil, ErrDossierClosed
	}

	dossier.Version = req.Version

	if req.TuitionAmount != nil {
		v, ok := parseMoney(*req.TuitionAmount)
		if !ok {
			return nil, ErrDossierAmountInvalid
		}
		dossier.TuitionAmount = v
	}
	if req.PriorUnpaid != nil {
		v, ok := parseMoney(*req.PriorUnpaid)
		if !ok {
			return nil, ErrDossierAmountInvalid
		}
		dossier.PriorUnpaid = v
	}
	if req.Notes != nil {
		dossier.Notes = strings.TrimSpace(*req.Notes)
	}
	dossier.UpdatedBy = &callerID

	if err := s.repo.Dossier.Update(ctx, dossier); err != nil {
		s.logger.Error("更新档案失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	invalidateStatus(ctx, s.cache, s.logger, id)
	return toDossierResponse(dossier), nil
}

// ────────────────────── Close ──────────────────────

func (s *dossierService) Close(ctx context.Context, id string, callerID string) error {
	dossier, err := s.repo.Dossier.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDossierNotFound
		}
		return err
	}
	if dossier.IsClosed() {
		return ErrDossierClosed
	}

	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		dossier.Status = model.DossierClosed
		dossier.UpdatedBy = &callerID
		if err := txRepo.Dossier.Update(ctx, dossier); err != nil {
			return err
		}
		n, err := txRepo.Installment.CancelUpcoming(ctx, id)
		if err != nil {
			return err
		}
		s.logger.Info("关闭档案", zap.String("dossier_id", id), zap.Int64("cancelled_installments", n))
		return nil
	})
	if err != nil {
		s.logger.Error("关闭档案失败", zap.String("id", id), zap.Error(err))
		return err
	}

	invalidateStatus(ctx, s.cache, s.logger, id)
	return nil
}

func toDossierResponse(d *model.Dossier) *dto.DossierResponse {
	resp := &dto.DossierResponse{
		ID:            d.DossierID,
		StudentID:     d.StudentID,
		SchoolYear:    d.SchoolYear,
		TuitionAmount: formatMoney(d.TuitionAmount),
		PriorUnpaid:   formatMoney(d.PriorUnpaid),
		TotalDue:      formatMoney(d.TotalDue()),
		Status:        d.Status,
		Notes:         d.Notes,
		Version:       d.Version,
	}
	if d.Student != nil {
		resp.Student = toStudentResponse(d.Student)
	}
	return resp
}
