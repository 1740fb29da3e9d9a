package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
)

// ── 学年迁移业务错误 ──

var (
	ErrMigrationNotFound       = errors.New("迁移记录不存在")
	ErrMigrationApplied        = errors.New("迁移已执行")
	ErrMigrationNotPreviewed   = errors.New("请先预览再执行迁移")
	ErrMigrationSameYear       = errors.New("源学年与目标学年不能相同")
	ErrMigrationTuitionInvalid = errors.New("新学费金额非法")
)

// migrationSummary 落库为 JSONB 的汇总
type migrationSummary struct {
	Dossiers       int    `json:"dossiers"`
	ToMigrate      int    `json:"to_migrate"`
	Skipped        int    `json:"skipped"`
	TotalCarryOver string `json:"total_carry_over"`
	ReferenceDate  string `json:"reference_date"`
}

// MigrationService 学年迁移向导
// 状态：draft → previewed → applied
type MigrationService interface {
	Create(ctx context.Context, req *dto.CreateMigrationRequest, callerID string) (*dto.MigrationRunResponse, error)
	GetByID(ctx context.Context, id string) (*dto.MigrationRunResponse, error)
	List(ctx context.Context) ([]dto.MigrationRunResponse, error)
	Preview(ctx context.Context, id string, ref time.Time, callerID string) (*dto.MigrationPreviewResponse, error)
	Apply(ctx context.Context, id string, ref time.Time, callerID string) (*dto.MigrationApplyResponse, error)
}

type migrationService struct {
	repo   *repository.Repository
	status PaymentStatusService
	cache  StatusCache
	logger *zap.Logger
}

// NewMigrationService 创建 MigrationService 实例
func NewMigrationService(repo *repository.Repository, status PaymentStatusService, cache StatusCache, logger *zap.Logger) MigrationService {
	return &migrationService{repo: repo, status: status, cache: cache, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *migrationService) Create(ctx context.Context, req *dto.CreateMigrationRequest, callerID string) (*dto.MigrationRunResponse, error) {
	from := strings.TrimSpace(req.FromYear)
	to := strings.TrimSpace(req.ToYear)
	if from == to {
		return nil, ErrMigrationSameYear
	}

	run := &model.MigrationRun{
		FromYear: from,
		ToYear:   to,
		Status:   model.MigrationDraft,
	}
	if strings.TrimSpace(req.NewTuition) != "" {
		v, ok := parseMoney(req.NewTuition)
		if !ok {
			return nil, ErrMigrationTuitionInvalid
		}
		run.NewTuition = decimal.NewNullDecimal(v)
	}
	run.CreatedBy = &callerID

	if err := s.repo.MigrationRun.Create(ctx, run); err != nil {
		s.logger.Error("创建迁移记录失败", zap.Error(err))
		return nil, err
	}
	return toMigrationRunResponse(run), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *migrationService) GetByID(ctx context.Context, id string) (*dto.MigrationRunResponse, error) {
	run, err := s.getRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return toMigrationRunResponse(run), nil
}

func (s *migrationService) List(ctx context.Context) ([]dto.MigrationRunResponse, error) {
	runs, err := s.repo.MigrationRun.List(ctx)
	if err != nil {
		s.logger.Error("列出迁移记录失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.MigrationRunResponse, 0, len(runs))
	for i := range runs {
		result = append(result, *toMigrationRunResponse(&runs[i]))
	}
	return result, nil
}

// ────────────────────── Preview ──────────────────────

func (s *migrationService) Preview(ctx context.Context, id string, ref time.Time, callerID string) (*dto.MigrationPreviewResponse, error) {
	run, err := s.getRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Status == model.MigrationApplied {
		return nil, ErrMigrationApplied
	}

	plan, err := s.plan(ctx, run, ref)
	if err != nil {
		return nil, err
	}

	run.Status = model.MigrationPreviewed
	run.Summary = plan.summaryJSON()
	run.UpdatedBy = &callerID
	if err := s.repo.MigrationRun.Update(ctx, run); err != nil {
		s.logger.Error("更新迁移记录失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return &dto.MigrationPreviewResponse{
		Run:            *toMigrationRunResponse(run),
		Items:          plan.items,
		TotalCarryOver: formatMoney(plan.totalCarry),
	}, nil
}

// ────────────────────── Apply ──────────────────────

func (s *migrationService) Apply(ctx context.Context, id string, ref time.Time, callerID string) (*dto.MigrationApplyResponse, error) {
	run, err := s.getRun(ctx, id)
	if err != nil {
		return nil, err
	}
	switch run.Status {
	case model.MigrationApplied:
		return nil, ErrMigrationApplied
	case model.MigrationDraft:
		return nil, ErrMigrationNotPreviewed
	}

	// 执行时重新计算，预览之后的付款同样计入结转
	plan, err := s.plan(ctx, run, ref)
	if err != nil {
		return nil, err
	}

	migrated := 0
	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		for i, item := range plan.items {
			if item.Skip {
				continue
			}
			old := plan.dossiers[i]

			next := &model.Dossier{
				StudentID:     old.StudentID,
				SchoolYear:    run.ToYear,
				TuitionAmount: plan.tuitions[i],
				PriorUnpaid:   plan.carries[i],
				Status:        model.DossierActive,
				Notes:         "migrated from " + run.FromYear,
			}
			next.CreatedBy = &callerID
			if err := txRepo.Dossier.Create(ctx, next); err != nil {
				return err
			}

			old.Status = model.DossierClosed
			old.UpdatedBy = &callerID
			if err := txRepo.Dossier.Update(ctx, &old); err != nil {
				return err
			}
			if _, err := txRepo.Installment.CancelUpcoming(ctx, old.DossierID); err != nil {
				return err
			}
			migrated++
		}

		now := time.Now()
		run.Status = model.MigrationApplied
		run.AppliedAt = &now
		run.Summary = plan.summaryJSON()
		run.UpdatedBy = &callerID
		return txRepo.MigrationRun.Update(ctx, run)
	})
	if err != nil {
		s.logger.Error("执行学年迁移失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	for i, item := range plan.items {
		if !item.Skip {
			invalidateStatus(ctx, s.cache, s.logger, plan.dossiers[i].DossierID)
		}
	}

	s.logger.Info("学年迁移完成",
		zap.String("from", run.FromYear),
		zap.String("to", run.ToYear),
		zap.Int("migrated", migrated),
		zap.Int("skipped", len(plan.items)-migrated),
	)
	return &dto.MigrationApplyResponse{
		Run:      *toMigrationRunResponse(run),
		Migrated: migrated,
		Skipped:  len(plan.items) - migrated,
	}, nil
}

// ── 迁移计划 ──

// migrationPlan 下标与 items 一一对应
type migrationPlan struct {
	ref        time.Time
	items      []dto.MigrationPreviewItem
	dossiers   []model.Dossier
	carries    []decimal.Decimal
	tuitions   []decimal.Decimal
	totalCarry decimal.Decimal
}

func (p *migrationPlan) summaryJSON() datatypes.JSON {
	sum := migrationSummary{
		Dossiers:       len(p.items),
		TotalCarryOver: formatMoney(p.totalCarry),
		ReferenceDate:  formatDate(p.ref),
	}
	for _, it := range p.items {
		if it.Skip {
			sum.Skipped++
		} else {
			sum.ToMigrate++
		}
	}
	b, _ := json.Marshal(sum)
	return datatypes.JSON(b)
}

func (s *migrationService) plan(ctx context.Context, run *model.MigrationRun, ref time.Time) (*migrationPlan, error) {
	statuses, err := s.status.ListStatuses(ctx, run.FromYear, ref)
	if err != nil {
		return nil, err
	}

	already, err := s.repo.Dossier.ListByYear(ctx, run.ToYear, model.DossierActive)
	if err != nil {
		s.logger.Error("查询目标学年档案失败", zap.String("school_year", run.ToYear), zap.Error(err))
		return nil, err
	}
	migratedStudents := make(map[string]bool, len(already))
	for _, d := range already {
		migratedStudents[d.StudentID] = true
	}

	plan := &migrationPlan{
		ref:        ref,
		items:      make([]dto.MigrationPreviewItem, 0, len(statuses)),
		dossiers:   make([]model.Dossier, 0, len(statuses)),
		carries:    make([]decimal.Decimal, 0, len(statuses)),
		tuitions:   make([]decimal.Decimal, 0, len(statuses)),
		totalCarry: decimal.Zero,
	}
	for _, st := range statuses {
		balance := st.Snapshot.Balance()
		carry := decimal.Max(balance, decimal.Zero)
		tuition := st.Dossier.TuitionAmount
		if run.NewTuition.Valid {
			tuition = run.NewTuition.Decimal
		}

		item := dto.MigrationPreviewItem{
			DossierID: st.Dossier.DossierID,
			StudentID: st.Dossier.StudentID,
			Balance:   formatMoney(balance),
			CarryOver: formatMoney(carry),
			Status:    string(st.Decision.Status),
			Tuition:   formatMoney(tuition),
		}
		if stu := st.Dossier.Student; stu != nil {
			item.StudentName = stu.FullName()
			item.Matricule = stu.Matricule
			if stu.Status != model.StudentEnrolled {
				item.Skip = true
				item.SkipReason = "学生状态为 " + stu.Status
			}
		}
		if migratedStudents[st.Dossier.StudentID] {
			item.Skip = true
			item.SkipReason = "目标学年已有档案"
		}
		if !item.Skip {
			plan.totalCarry = plan.totalCarry.Add(carry)
		}

		plan.items = append(plan.items, item)
		plan.dossiers = append(plan.dossiers, st.Dossier)
		plan.carries = append(plan.carries, carry)
		plan.tuitions = append(plan.tuitions, tuition)
	}
	return plan, nil
}

func (s *migrationService) getRun(ctx context.Context, id string) (*model.MigrationRun, error) {
	run, err := s.repo.MigrationRun.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMigrationNotFound
		}
		s.logger.Error("查询迁移记录失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return run, nil
}

func toMigrationRunResponse(run *model.MigrationRun) *dto.MigrationRunResponse {
	resp := &dto.MigrationRunResponse{
		ID:       run.MigrationRunID,
		FromYear: run.FromYear,
		ToYear:   run.ToYear,
		Status:   run.Status,
	}
	if run.NewTuition.Valid {
		resp.NewTuition = formatMoney(run.NewTuition.Decimal)
	}
	if len(run.Summary) > 0 {
		_ = json.Unmarshal(run.Summary, &resp.Summary)
	}
	if run.AppliedAt != nil {
		resp.AppliedAt = formatTime(*run.AppliedAt)
	}
	return resp
}
