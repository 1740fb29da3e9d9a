package handler

import (
	"strings"

	"hyperzen/backend/config"
	"hyperzen/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	SchoolYear *SchoolYearHandler
	Student    *StudentHandler
	Dossier    *DossierHandler
	Payment    *PaymentHandler
	Reminder   *ReminderHandler
	Ticket     *TicketHandler
	Import     *ImportHandler
	Migration  *MigrationHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, cfg *config.Config) *Handler {
	secureCookie := strings.HasPrefix(cfg.Server.BaseURL, "https://")

	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, int(cfg.Auth.RefreshTokenTTL.Seconds()), secureCookie),
		User:       NewUserHandler(svc.User),
		SchoolYear: NewSchoolYearHandler(svc.SchoolYear),
		Student:    NewStudentHandler(svc.Student),
		Dossier:    NewDossierHandler(svc.Dossier, svc.PaymentStatus),
		Payment:    NewPaymentHandler(svc.Payment, svc.Installment),
		Reminder:   NewReminderHandler(svc.Reminder),
		Ticket:     NewTicketHandler(svc.Ticket),
		Import:     NewImportHandler(svc.Import, cfg.Import.MaxFileBytes),
		Migration:  NewMigrationHandler(svc.Migration),
		Export:     NewExportHandler(svc.Export),
	}
}
