package dto

// ── 付款模块 DTO ──

// RecordPaymentRequest 登记付款请求
type RecordPaymentRequest struct {
	Amount        string `json:"amount"         binding:"required,money"`
	PaymentDate   string `json:"payment_date"   binding:"required,datetime=2006-01-02"`
	Method        string `json:"method"         binding:"required,oneof=cash cheque transfer card mobile"`
	Reference     string `json:"reference"      binding:"omitempty,max=100"`
	InstallmentID string `json:"installment_id" binding:"omitempty,uuid"`
}

// VoidPaymentRequest 作废付款请求
type VoidPaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// PaymentResponse 付款响应
type PaymentResponse struct {
	ID            string `json:"id"`
	DossierID     string `json:"dossier_id"`
	InstallmentID string `json:"installment_id,omitempty"`
	Amount        string `json:"amount"`
	PaymentDate   string `json:"payment_date"`
	Method        string `json:"method"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	VoidReason    string `json:"void_reason,omitempty"`
}
