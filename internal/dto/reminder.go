package dto

// ── 催缴模块 DTO ──

// ReminderResponse 催缴记录响应
type ReminderResponse struct {
	ID        string                 `json:"id"`
	DossierID string                 `json:"dossier_id"`
	Level     int                    `json:"level"`
	Status    string                 `json:"status"`
	Channel   string                 `json:"channel"`
	Payload   map[string]interface{} `json:"payload"`
	SentAt    string                 `json:"sent_at"`
}

// RunRemindersRequest 手动触发催缴
type RunRemindersRequest struct {
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// RunRemindersResponse 催缴执行结果
type RunRemindersResponse struct {
	Examined int `json:"examined"`
	Sent     int `json:"sent"`
	Skipped  int `json:"skipped"`
}
