package dto

// ── 工单模块 DTO ──

// CreateTicketRequest 创建工单请求
type CreateTicketRequest struct {
	Subject   string `json:"subject"    binding:"required,max=200"`
	Body      string `json:"body"       binding:"omitempty,max=5000"`
	Category  string `json:"category"   binding:"omitempty,max=50"`
	Priority  string `json:"priority"   binding:"omitempty,oneof=low normal high"`
	StudentID string `json:"student_id" binding:"omitempty,uuid"`
}

// UpdateTicketStatusRequest 更新工单状态
type UpdateTicketStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=open in_progress resolved closed"`
}

// AssignTicketRequest 指派工单
type AssignTicketRequest struct {
	AssigneeID string `json:"assignee_id" binding:"required,uuid"`
}

// TicketListRequest 工单列表查询参数
type TicketListRequest struct {
	PaginationRequest
	Status     string `form:"status"      binding:"omitempty,oneof=open in_progress resolved closed"`
	Priority   string `form:"priority"    binding:"omitempty,oneof=low normal high"`
	AssignedTo string `form:"assigned_to" binding:"omitempty,uuid"`
	Mine       bool   `form:"mine"`
}

// TicketResponse 工单响应
type TicketResponse struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	Category   string `json:"category"`
	Priority   string `json:"priority"`
	Status     string `json:"status"`
	StudentID  string `json:"student_id,omitempty"`
	AssignedTo string `json:"assigned_to,omitempty"`
	CreatedBy  string `json:"created_by,omitempty"`
	CreatedAt  string `json:"created_at"`
	Version    int    `json:"version"`
}
