package service

import (
	"go.uber.org/zap"

	"hyperzen/backend/config"
	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/repository"
	"hyperzen/backend/pkg/jwt"
	"hyperzen/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth          AuthService
	User          UserService
	SchoolYear    SchoolYearService
	Student       StudentService
	Dossier       DossierService
	PaymentStatus PaymentStatusService
	Payment       PaymentService
	Installment   InstallmentService
	Reminder      ReminderService
	Ticket        TicketService
	Import        ImportService
	Migration     MigrationService
	Export        ExportService
}

// NewService 创建 Service 聚合
// rdb 为 nil 时以降级模式运行：无状态缓存，注销不写黑名单
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	classifier *billing.Classifier,
	logger *zap.Logger,
) *Service {
	// 避免把 nil 指针装入非 nil 接口
	var (
		cache     StatusCache
		blacklist TokenBlacklist
	)
	if rdb != nil {
		cache = rdb
		blacklist = rdb
	}

	status := NewPaymentStatusService(repo, classifier, cache, cfg.Redis.StatusCacheTTL, logger)

	return &Service{
		Auth:          NewAuthService(repo, jwtMgr, blacklist, logger),
		User:          NewUserService(repo, logger),
		SchoolYear:    NewSchoolYearService(repo, cache, logger),
		Student:       NewStudentService(repo, logger),
		Dossier:       NewDossierService(repo, cache, logger),
		PaymentStatus: status,
		Payment:       NewPaymentService(repo, cache, logger),
		Installment:   NewInstallmentService(repo, cache, logger),
		Reminder:      NewReminderService(repo, status, NewLogDispatcher(logger), cfg.Reminder, logger),
		Ticket:        NewTicketService(repo, logger),
		Import:        NewImportService(repo, cfg.Import.MaxRows, logger),
		Migration:     NewMigrationService(repo, status, cache, logger),
		Export:        NewExportService(repo, status, logger),
	}
}
