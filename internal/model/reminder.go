package model

import (
	"time"

	"gorm.io/datatypes"
)

// Reminder 催缴记录（relance）：对应 reminders
type Reminder struct {
	ReminderID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"reminder_id"`
	DossierID  string         `gorm:"type:uuid;not null;index"                       json:"dossier_id"`
	Level      int            `gorm:"not null"                                       json:"level"`
	Status     string         `gorm:"type:varchar(20);not null"                      json:"status"` // 触发时的付款状态
	Channel    string         `gorm:"type:varchar(20);not null;default:'log'"        json:"channel"`
	Payload    datatypes.JSON `gorm:"type:jsonb;not null"                            json:"payload"`
	SentAt     time.Time      `gorm:"not null"                                       json:"sent_at"`
	BaseModel
}

// TableName 指定表名
func (Reminder) TableName() string { return "reminders" }
