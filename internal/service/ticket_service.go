package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
)

// ── 工单模块业务错误 ──

var (
	ErrTicketNotFound          = errors.New("工单不存在")
	ErrTicketTransitionInvalid = errors.New("工单状态流转非法")
	ErrTicketAssigneeInvalid   = errors.New("指派对象不存在或已停用")
	ErrTicketClosed            = errors.New("工单已关闭")
)

// ticketTransitions 允许的状态流转；closed 为终态
var ticketTransitions = map[string][]string{
	model.TicketOpen:       {model.TicketInProgress, model.TicketResolved, model.TicketClosed},
	model.TicketInProgress: {model.TicketOpen, model.TicketResolved, model.TicketClosed},
	model.TicketResolved:   {model.TicketOpen, model.TicketClosed},
}

func canTransition(from, to string) bool {
	for _, s := range ticketTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TicketService 支持工单接口
type TicketService interface {
	Create(ctx context.Context, req *dto.CreateTicketRequest, callerID string) (*dto.TicketResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TicketResponse, error)
	List(ctx context.Context, req *dto.TicketListRequest, callerID string) ([]dto.TicketResponse, int64, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateTicketStatusRequest, callerID string) (*dto.TicketResponse, error)
	Assign(ctx context.Context, id string, req *dto.AssignTicketRequest, callerID string) (*dto.TicketResponse, error)
}

type ticketService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTicketService 创建 TicketService 实例
func NewTicketService(repo *repository.Repository, logger *zap.Logger) TicketService {
	return &ticketService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *ticketService) Create(ctx context.Context, req *dto.CreateTicketRequest, callerID string) (*dto.TicketResponse, error) {
	ticket := &model.Ticket{
		Subject:  strings.TrimSpace(req.Subject),
		Body:     strings.TrimSpace(req.Body),
		Category: strings.TrimSpace(req.Category),
		Priority: req.Priority,
		Status:   model.TicketOpen,
	}
	if ticket.Category == "" {
		ticket.Category = "general"
	}
	if ticket.Priority == "" {
		ticket.Priority = model.PriorityNormal
	}
	if req.StudentID != "" {
		if _, err := s.repo.Student.GetByID(ctx, req.StudentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStudentNotFound
			}
			return nil, err
		}
		ticket.StudentID = &req.StudentID
	}
	ticket.CreatedBy = &callerID

	if err := s.repo.Ticket.Create(ctx, ticket); err != nil {
		s.logger.Error("创建工单失败", zap.Error(err))
		return nil, err
	}
	return toTicketResponse(ticket), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *ticketService) GetByID(ctx context.Context, id string) (*dto.TicketResponse, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTicketResponse(ticket), nil
}

// ────────────────────── List ──────────────────────

func (s *ticketService) List(ctx context.Context, req *dto.TicketListRequest, callerID string) ([]dto.TicketResponse, int64, error) {
	filters := &repository.TicketListFilters{
		Status:     req.Status,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
	}
	if req.Mine {
		filters.CreatedBy = callerID
	}

	tickets, total, err := s.repo.Ticket.ListWithFilters(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出工单失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		result = append(result, *toTicketResponse(&tickets[i]))
	}
	return result, total, nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *ticketService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateTicketStatusRequest, callerID string) (*dto.TicketResponse, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status == model.TicketClosed {
		return nil, ErrTicketClosed
	}
	if !canTransition(ticket.Status, req.Status) {
		return nil, ErrTicketTransitionInvalid
	}

	from := ticket.Status
	ticket.Status = req.Status
	ticket.UpdatedBy = &callerID
	if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
		s.logger.Error("更新工单状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("工单状态变更", zap.String("id", id), zap.String("from", from), zap.String("to", req.Status))
	return toTicketResponse(ticket), nil
}

// ────────────────────── Assign ──────────────────────

func (s *ticketService) Assign(ctx context.Context, id string, req *dto.AssignTicketRequest, callerID string) (*dto.TicketResponse, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status == model.TicketClosed {
		return nil, ErrTicketClosed
	}

	assignee, err := s.repo.User.GetByID(ctx, req.AssigneeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketAssigneeInvalid
		}
		return nil, err
	}
	if !assignee.IsActive {
		return nil, ErrTicketAssigneeInvalid
	}

	ticket.AssignedTo = &assignee.UserID
	if ticket.Status == model.TicketOpen {
		ticket.Status = model.TicketInProgress
	}
	ticket.UpdatedBy = &callerID
	if err := s.repo.Ticket.Update(ctx, ticket); err != nil {
		s.logger.Error("指派工单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toTicketResponse(ticket), nil
}

func (s *ticketService) getTicket(ctx context.Context, id string) (*model.Ticket, error) {
	ticket, err := s.repo.Ticket.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		s.logger.Error("查询工单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return ticket, nil
}

func toTicketResponse(t *model.Ticket) *dto.TicketResponse {
	return &dto.TicketResponse{
		ID:         t.TicketID,
		Subject:    t.Subject,
		Body:       t.Body,
		Category:   t.Category,
		Priority:   t.Priority,
		Status:     t.Status,
		StudentID:  derefString(t.StudentID),
		AssignedTo: derefString(t.AssignedTo),
		CreatedBy:  derefString(t.CreatedBy),
		CreatedAt:  formatTime(t.CreatedAt),
		Version:    t.Version,
	}
}
