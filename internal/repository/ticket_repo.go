package repository

import (
	"context"

	"gorm.io/gorm"

	"hyperzen/backend/internal/model"
	pkgerrors "hyperzen/backend/pkg/errors"
)

// TicketListFilters 工单列表筛选条件
type TicketListFilters struct {
	Status     string
	Priority   string
	AssignedTo string
	CreatedBy  string
}

// TicketRepository 工单数据访问接口
type TicketRepository interface {
	Create(ctx context.Context, ticket *model.Ticket) error
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
	Update(ctx context.Context, ticket *model.Ticket) error
	ListWithFilters(ctx context.Context, filters *TicketListFilters, offset, limit int) ([]model.Ticket, int64, error)
}

type ticketRepo struct {
	db *gorm.DB
}

// NewTicketRepo 创建 TicketRepository 实例
func NewTicketRepo(db *gorm.DB) TicketRepository {
	return &ticketRepo{db: db}
}

func (r *ticketRepo) Create(ctx context.Context, ticket *model.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepo) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", id).
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepo) Update(ctx context.Context, ticket *model.Ticket) error {
	oldVersion := ticket.Version
	result := r.db.WithContext(ctx).
		Model(ticket).
		Where("ticket_id = ? AND version = ?", ticket.TicketID, oldVersion).
		Updates(map[string]interface{}{
			"status":      ticket.Status,
			"priority":    ticket.Priority,
			"assigned_to": ticket.AssignedTo,
			"updated_by":  ticket.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	ticket.Version = oldVersion + 1
	return nil
}

func (r *ticketRepo) ListWithFilters(ctx context.Context, filters *TicketListFilters, offset, limit int) ([]model.Ticket, int64, error) {
	var tickets []model.Ticket
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Ticket{})
	if filters != nil {
		if filters.Status != "" {
			db = db.Where("status = ?", filters.Status)
		}
		if filters.Priority != "" {
			db = db.Where("priority = ?", filters.Priority)
		}
		if filters.AssignedTo != "" {
			db = db.Where("assigned_to = ?", filters.AssignedTo)
		}
		if filters.CreatedBy != "" {
			db = db.Where("created_by = ?", filters.CreatedBy)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// high 优先，其次按创建时间
	if err := db.Offset(offset).Limit(limit).
		Order("CASE priority WHEN 'high' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END, created_at DESC").
		Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}
