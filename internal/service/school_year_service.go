package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
)

// ── 学年模块业务错误 ──

var (
	ErrSchoolYearNotFound     = errors.New("学年不存在")
	ErrSchoolYearDateInvalid  = errors.New("学年结束日期必须晚于开始日期")
	ErrSchoolYearLabelInvalid = errors.New("学年标签格式应为 YYYY-YYYY")
	ErrSchoolYearExists       = errors.New("学年标签已存在")
)

var schoolYearLabelPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

// SchoolYearService 学年业务接口
type SchoolYearService interface {
	Create(ctx context.Context, req *dto.CreateSchoolYearRequest, callerID string) (*dto.SchoolYearResponse, error)
	GetCurrent(ctx context.Context) (*dto.SchoolYearResponse, error)
	List(ctx context.Context) ([]dto.SchoolYearResponse, error)
	Activate(ctx context.Context, id string, callerID string) error
}

type schoolYearService struct {
	repo   *repository.Repository
	cache  StatusCache
	logger *zap.Logger
}

// NewSchoolYearService 创建 SchoolYearService 实例
// 学年窗口参与状态判定，写入学年后需清除该学年档案的状态缓存
func NewSchoolYearService(repo *repository.Repository, cache StatusCache, logger *zap.Logger) SchoolYearService {
	return &schoolYearService{repo: repo, cache: cache, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *schoolYearService) Create(ctx context.Context, req *dto.CreateSchoolYearRequest, callerID string) (*dto.SchoolYearResponse, error) {
	label := strings.TrimSpace(req.Label)
	if !schoolYearLabelPattern.MatchString(label) {
		return nil, ErrSchoolYearLabelInvalid
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return nil, ErrSchoolYearDateInvalid
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return nil, ErrSchoolYearDateInvalid
	}
	if !endDate.After(startDate) {
		return nil, ErrSchoolYearDateInvalid
	}

	if _, err := s.repo.SchoolYear.GetByLabel(ctx, label); err == nil {
		return nil, ErrSchoolYearExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	year := &model.SchoolYear{
		Label:     label,
		StartDate: startDate,
		EndDate:   endDate,
		IsActive:  false,
		Status:    model.SchoolYearOpen,
	}
	year.CreatedBy = &callerID
	year.UpdatedBy = &callerID

	if err := s.repo.SchoolYear.Create(ctx, year); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSchoolYearExists
		}
		s.logger.Error("创建学年失败", zap.Error(err))
		return nil, err
	}

	// 此前按默认窗口判定的档案需重新计算
	s.invalidateYear(ctx, label)
	return toSchoolYearResponse(year), nil
}

// ────────────────────── GetCurrent ──────────────────────

func (s *schoolYearService) GetCurrent(ctx context.Context) (*dto.SchoolYearResponse, error) {
	year, err := s.repo.SchoolYear.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSchoolYearNotFound
		}
		s.logger.Error("查询当前学年失败", zap.Error(err))
		return nil, err
	}
	return toSchoolYearResponse(year), nil
}

// ────────────────────── List ──────────────────────

func (s *schoolYearService) List(ctx context.Context) ([]dto.SchoolYearResponse, error) {
	years, err := s.repo.SchoolYear.List(ctx)
	if err != nil {
		s.logger.Error("列出学年失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SchoolYearResponse, 0, len(years))
	for i := range years {
		result = append(result, *toSchoolYearResponse(&years[i]))
	}
	return result, nil
}

// ────────────────────── Activate ──────────────────────

func (s *schoolYearService) Activate(ctx context.Context, id string, callerID string) error {
	year, err := s.repo.SchoolYear.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSchoolYearNotFound
		}
		s.logger.Error("查询学年失败", zap.String("id", id), zap.Error(err))
		return err
	}

	// ClearActive + Update 需原子执行
	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if err := txRepo.SchoolYear.ClearActive(ctx); err != nil {
			s.logger.Error("清除当前学年失败", zap.Error(err))
			return err
		}

		year.IsActive = true
		year.UpdatedBy = &callerID
		if err := txRepo.SchoolYear.Update(ctx, year); err != nil {
			s.logger.Error("激活学年失败", zap.String("id", id), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidateYear(ctx, year.Label)
	return nil
}

// invalidateYear 清除某学年全部档案的状态缓存；失败只记录日志，缓存随 TTL 过期
func (s *schoolYearService) invalidateYear(ctx context.Context, label string) {
	if s.cache == nil {
		return
	}
	dossiers, err := s.repo.Dossier.ListByYear(ctx, label, "")
	if err != nil {
		s.logger.Warn("查询学年档案失败，状态缓存将随 TTL 过期", zap.String("label", label), zap.Error(err))
		return
	}
	for i := range dossiers {
		invalidateStatus(ctx, s.cache, s.logger, dossiers[i].DossierID)
	}
}

func toSchoolYearResponse(y *model.SchoolYear) *dto.SchoolYearResponse {
	return &dto.SchoolYearResponse{
		ID:        y.SchoolYearID,
		Label:     y.Label,
		StartDate: formatDate(y.StartDate),
		EndDate:   formatDate(y.EndDate),
		IsActive:  y.IsActive,
		Status:    y.Status,
	}
}
