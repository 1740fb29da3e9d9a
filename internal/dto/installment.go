package dto

// ── 分期模块 DTO ──

// GenerateScheduleRequest 生成分期计划请求
type GenerateScheduleRequest struct {
	Count        int    `json:"count"          binding:"required,min=1,max=24"`
	FirstDueDate string `json:"first_due_date" binding:"required,datetime=2006-01-02"`
}

// InstallmentResponse 分期响应
type InstallmentResponse struct {
	ID        string `json:"id"`
	DossierID string `json:"dossier_id"`
	Sequence  int    `json:"sequence"`
	Amount    string `json:"amount"`
	DueDate   string `json:"due_date"`
	Status    string `json:"status"`
}

// MarkOverdueResponse 逾期扫描结果
type MarkOverdueResponse struct {
	Dossiers int `json:"dossiers"`
}
