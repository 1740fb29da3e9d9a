package model

// 工单优先级
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// 工单状态
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// Ticket 支持工单：对应 tickets
type Ticket struct {
	TicketID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"ticket_id"`
	Subject    string  `gorm:"type:varchar(200);not null"                     json:"subject"`
	Body       string  `gorm:"type:text;not null;default:''"                  json:"body"`
	Category   string  `gorm:"type:varchar(50);not null;default:'general'"    json:"category"`
	Priority   string  `gorm:"type:varchar(10);not null;default:'normal'"     json:"priority"`
	Status     string  `gorm:"type:varchar(20);not null;default:'open'"       json:"status"`
	StudentID  *string `gorm:"type:uuid"                                      json:"student_id,omitempty"`
	AssignedTo *string `gorm:"type:uuid"                                      json:"assigned_to,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Ticket) TableName() string { return "tickets" }
