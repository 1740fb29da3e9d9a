package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment 分期应付（échéance）：对应 installments
// 状态机：upcoming → paid | overdue | cancelled；overdue → paid | cancelled
type Installment struct {
	InstallmentID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"installment_id"`
	DossierID     string          `gorm:"type:uuid;not null;index"                       json:"dossier_id"`
	Sequence      int             `gorm:"not null"                                       json:"sequence"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	DueDate       time.Time       `gorm:"type:date;not null"                             json:"due_date"`
	Status        string          `gorm:"type:varchar(20);not null;default:'upcoming'"   json:"status"`
	PaidAt        *time.Time      `gorm:""                                               json:"paid_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Installment) TableName() string { return "installments" }
