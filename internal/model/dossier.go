package model

import "github.com/shopspring/decimal"

// 档案状态
const (
	DossierActive = "active"
	DossierClosed = "closed"
)

// Dossier 学生学年缴费档案：对应 dossiers
// 同一学生同一学年仅允许一个 active 档案（部分唯一索引保证）
type Dossier struct {
	DossierID     string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"dossier_id"`
	StudentID     string          `gorm:"type:uuid;not null;index"                       json:"student_id"`
	SchoolYear    string          `gorm:"type:varchar(20);not null;index"                json:"school_year"`
	TuitionAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"tuition_amount"`
	PriorUnpaid   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"          json:"prior_unpaid"`
	Status        string          `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	Notes         string          `gorm:"type:text;not null;default:''"                  json:"notes"`
	VersionedModel

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (Dossier) TableName() string { return "dossiers" }

// TotalDue 学费 + 往年欠费
func (d *Dossier) TotalDue() decimal.Decimal {
	return d.TuitionAmount.Add(d.PriorUnpaid)
}

// IsClosed 档案是否已关闭
func (d *Dossier) IsClosed() bool { return d.Status == DossierClosed }
