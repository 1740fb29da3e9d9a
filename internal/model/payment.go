package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 付款方式
const (
	MethodCash     = "cash"
	MethodCheque   = "cheque"
	MethodTransfer = "transfer"
	MethodCard     = "card"
	MethodMobile   = "mobile"
)

// Payment 付款记录（règlement）：对应 payments
// 只追加：作废通过 status=voided 表示，不做物理删除
type Payment struct {
	PaymentID     string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"payment_id"`
	DossierID     string          `gorm:"type:uuid;not null;index"                       json:"dossier_id"`
	InstallmentID *string         `gorm:"type:uuid"                                      json:"installment_id,omitempty"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null"                    json:"amount"`
	PaymentDate   time.Time       `gorm:"type:date;not null"                             json:"payment_date"`
	Method        string          `gorm:"type:varchar(20);not null"                      json:"method"`
	Reference     string          `gorm:"type:varchar(100);not null;default:''"          json:"reference"`
	Status        string          `gorm:"type:varchar(20);not null;default:'valid'"      json:"status"` // valid | voided
	VoidReason    string          `gorm:"type:varchar(255);not null;default:''"          json:"void_reason,omitempty"`
	VoidedAt      *time.Time      `gorm:""                                               json:"voided_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Payment) TableName() string { return "payments" }
