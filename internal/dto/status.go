package dto

// ── 付款状态 DTO ──

// StatusQuery 状态查询参数；date 为空时取当天
type StatusQuery struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// PaymentStatusResponse 单档案付款状态
type PaymentStatusResponse struct {
	DossierID       string `json:"dossier_id"`
	ReferenceDate   string `json:"reference_date"`
	Status          string `json:"status"`
	Label           string `json:"label"`
	Rule            string `json:"rule"`
	NeedsReminder   bool   `json:"needs_reminder"`
	TotalDue        string `json:"total_due"`
	TotalPaid       string `json:"total_paid"`
	Balance         string `json:"balance"`
	AmountOverdue   string `json:"amount_overdue"`
	OverdueCount    int    `json:"overdue_count"`
	LastPaymentDate string `json:"last_payment_date,omitempty"`
}

// StatusListRequest 学年状态列表查询参数
type StatusListRequest struct {
	SchoolYear string `form:"school_year" binding:"required,max=20"`
	Date       string `form:"date"        binding:"omitempty,datetime=2006-01-02"`
	Status     string `form:"status"      binding:"omitempty,oneof=up_to_date in_progress overdue fully_unpaid creditor unset"`
}

// StatusSummary 学年状态汇总
type StatusSummary struct {
	SchoolYear string                  `json:"school_year"`
	Counts     map[string]int          `json:"counts"`
	Items      []PaymentStatusResponse `json:"items"`
}
