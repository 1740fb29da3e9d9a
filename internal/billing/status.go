package billing

// PaymentStatus 付款状态（六种互斥标签）
type PaymentStatus string

const (
	StatusUpToDate    PaymentStatus = "up_to_date"
	StatusInProgress  PaymentStatus = "in_progress"
	StatusOverdue     PaymentStatus = "overdue"
	StatusFullyUnpaid PaymentStatus = "fully_unpaid"
	StatusCreditor    PaymentStatus = "creditor"
	StatusUnset       PaymentStatus = "unset"
)

// AllStatuses 全部状态，顺序即报表展示顺序
var AllStatuses = []PaymentStatus{
	StatusUpToDate,
	StatusInProgress,
	StatusOverdue,
	StatusFullyUnpaid,
	StatusCreditor,
	StatusUnset,
}

// Valid 是否为已知状态
func (s PaymentStatus) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// NeedsReminder 是否应触发催缴（relance）
func (s PaymentStatus) NeedsReminder() bool {
	return s == StatusOverdue || s == StatusFullyUnpaid
}

// Label 法文展示名，与前端徽章一致
func (s PaymentStatus) Label() string {
	switch s {
	case StatusUpToDate:
		return "À jour"
	case StatusInProgress:
		return "En cours"
	case StatusOverdue:
		return "En retard"
	case StatusFullyUnpaid:
		return "Impayé total"
	case StatusCreditor:
		return "Créditeur"
	default:
		return "Non défini"
	}
}
