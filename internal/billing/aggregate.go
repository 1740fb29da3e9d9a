package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// 与 model 层保持一致的记录状态值
const (
	PaymentValid  = "valid"
	PaymentVoided = "voided"

	InstallmentUpcoming  = "upcoming"
	InstallmentPaid      = "paid"
	InstallmentOverdue   = "overdue"
	InstallmentCancelled = "cancelled"
)

// Snapshot 派生财务快照，按需计算，不落库
type Snapshot struct {
	TotalDue        decimal.Decimal `json:"total_due"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	AmountOverdue   decimal.Decimal `json:"amount_overdue"`
	OverdueCount    int             `json:"overdue_count"`
	LastPaymentDate *time.Time      `json:"last_payment_date,omitempty"`
}

// Balance 剩余应付（负数表示多付）
func (s Snapshot) Balance() decimal.Decimal {
	return s.TotalDue.Sub(s.TotalPaid)
}

// PaymentEntry 参与汇总的有效付款
type PaymentEntry struct {
	Amount decimal.Decimal
	Date   time.Time
}

// InstallmentEntry 已到期（含当日）的分期
type InstallmentEntry struct {
	Amount decimal.Decimal
}

// PaymentRecord 原始付款记录（含作废）
type PaymentRecord struct {
	Amount decimal.Decimal
	Date   time.Time
	Status string
}

// InstallmentRecord 原始分期记录
type InstallmentRecord struct {
	Amount  decimal.Decimal
	DueDate time.Time
	Status  string
}

// TotalDue 应付总额 = 学费 + 上年结转欠款
func TotalDue(tuition, priorUnpaid decimal.Decimal) decimal.Decimal {
	return tuition.Add(priorUnpaid)
}

// Aggregate 纯归约：空列表返回零值 / nil 日期
func Aggregate(totalDue decimal.Decimal, payments []PaymentEntry, dueInstallments []InstallmentEntry, overdueCount int) Snapshot {
	snap := Snapshot{
		TotalDue:      totalDue,
		TotalPaid:     decimal.Zero,
		AmountOverdue: decimal.Zero,
		OverdueCount:  overdueCount,
	}

	for _, p := range payments {
		snap.TotalPaid = snap.TotalPaid.Add(p.Amount)
		if snap.LastPaymentDate == nil || p.Date.After(*snap.LastPaymentDate) {
			d := p.Date
			snap.LastPaymentDate = &d
		}
	}

	for _, inst := range dueInstallments {
		snap.AmountOverdue = snap.AmountOverdue.Add(inst.Amount)
	}

	return snap
}

// BuildSnapshot 从原始记录筛选后调用 Aggregate
//   - 仅 valid 付款计入
//   - upcoming/overdue 且到期日 ≤ ref 的分期计入逾期金额
//   - overdue 状态的分期计入逾期笔数
func BuildSnapshot(totalDue decimal.Decimal, payments []PaymentRecord, installments []InstallmentRecord, ref time.Time) Snapshot {
	day := DateOnly(ref)

	valid := make([]PaymentEntry, 0, len(payments))
	for _, p := range payments {
		if p.Status != PaymentValid {
			continue
		}
		valid = append(valid, PaymentEntry{Amount: p.Amount, Date: p.Date})
	}

	var due []InstallmentEntry
	overdueCount := 0
	for _, inst := range installments {
		if inst.Status != InstallmentUpcoming && inst.Status != InstallmentOverdue {
			continue
		}
		if inst.Status == InstallmentOverdue {
			overdueCount++
		}
		if !DateOnly(inst.DueDate).After(day) {
			due = append(due, InstallmentEntry{Amount: inst.Amount})
		}
	}

	return Aggregate(totalDue, valid, due, overdueCount)
}
