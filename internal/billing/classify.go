package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 付款状态判定 ────────────────────────────────────────────
//
// 规则按顺序求值，命中即返回：
//   R1   应付 ≤ 0                                   → unset
//   R2   余额 < -CreditorTolerance                  → creditor
//   R3   |余额| < SettledTolerance                  → up_to_date
//   R4a  零付款且有逾期金额/笔数                      → fully_unpaid
//   R4b  零付款且学年进度 > UnpaidElapsedThreshold    → fully_unpaid
//   R4c  零付款                                     → in_progress
//   R5a  有逾期分期                                  → overdue
//   R5b  实付 + SettledTolerance < 逾期金额           → overdue
//   R5c  距上次付款 > StalePaymentDays 且有逾期金额    → overdue
//   R5d  无分期数据且实付 < 理论应付 × 比例            → overdue
//   R6   其余                                       → in_progress
// ─────────────────────────────────────────────────────────────

// Decision 判定结果：状态 + 命中规则编码
type Decision struct {
	Status PaymentStatus `json:"status"`
	Rule   string        `json:"rule"`
}

// facts 单次判定的预计算量
type facts struct {
	snap            Snapshot
	policy          Policy
	balance         decimal.Decimal
	paidZero        bool
	elapsed         float64
	inWindow        bool
	daysSinceLastPm int // 无付款时为 -1
}

type rule struct {
	code   string
	status PaymentStatus
	match  func(f *facts) bool
}

var ladder = []rule{
	{"R1", StatusUnset, func(f *facts) bool {
		return !f.snap.TotalDue.IsPositive()
	}},
	{"R2", StatusCreditor, func(f *facts) bool {
		return f.balance.LessThan(f.policy.CreditorTolerance.Neg())
	}},
	{"R3", StatusUpToDate, func(f *facts) bool {
		return f.balance.Abs().LessThan(f.policy.SettledTolerance)
	}},
	{"R4a", StatusFullyUnpaid, func(f *facts) bool {
		return f.paidZero && (f.snap.AmountOverdue.IsPositive() || f.snap.OverdueCount > 0)
	}},
	{"R4b", StatusFullyUnpaid, func(f *facts) bool {
		return f.paidZero && f.inWindow && f.elapsed > f.policy.UnpaidElapsedThreshold
	}},
	{"R4c", StatusInProgress, func(f *facts) bool {
		return f.paidZero
	}},
	{"R5a", StatusOverdue, func(f *facts) bool {
		return f.snap.OverdueCount > 0
	}},
	{"R5b", StatusOverdue, func(f *facts) bool {
		return f.snap.AmountOverdue.IsPositive() &&
			f.snap.TotalPaid.Add(f.policy.SettledTolerance).LessThan(f.snap.AmountOverdue)
	}},
	{"R5c", StatusOverdue, func(f *facts) bool {
		return f.daysSinceLastPm > f.policy.StalePaymentDays && f.snap.AmountOverdue.IsPositive()
	}},
	{"R5d", StatusOverdue, func(f *facts) bool {
		if !f.snap.AmountOverdue.IsZero() || f.snap.OverdueCount != 0 {
			return false
		}
		theoretical := f.snap.TotalDue.Mul(decimal.NewFromFloat(f.elapsed))
		threshold := theoretical.Mul(decimal.NewFromFloat(f.policy.ExpectedPaymentRatio))
		return f.snap.TotalPaid.LessThan(threshold)
	}},
	{"R6", StatusInProgress, func(*facts) bool { return true }},
}

// Classifier 持有注入的策略，无可变状态，可并发使用
type Classifier struct {
	policy Policy
}

// NewClassifier 创建判定器；策略合法性由调用方在启动时校验
func NewClassifier(policy Policy) *Classifier {
	return &Classifier{policy: policy}
}

// Policy 当前策略
func (c *Classifier) Policy() Policy { return c.policy }

// WithPolicy 返回使用另一策略（如指定学年窗口）的判定器
func (c *Classifier) WithPolicy(policy Policy) *Classifier {
	return &Classifier{policy: policy}
}

// Classify 对快照按规则梯度判定；全函数，不返回错误
func (c *Classifier) Classify(snap Snapshot, ref time.Time) Decision {
	f := &facts{
		snap:            snap,
		policy:          c.policy,
		balance:         snap.Balance(),
		paidZero:        snap.TotalPaid.IsZero(),
		elapsed:         c.policy.ElapsedFraction(ref),
		inWindow:        c.policy.InWindow(ref),
		daysSinceLastPm: -1,
	}
	if snap.LastPaymentDate != nil {
		f.daysSinceLastPm = DaysBetween(*snap.LastPaymentDate, ref)
	}

	for _, r := range ladder {
		if r.match(f) {
			return Decision{Status: r.status, Rule: r.code}
		}
	}
	// ladder 末条恒为真，不会到达
	return Decision{Status: StatusInProgress, Rule: "R6"}
}

// ClassifyPaymentStatus 单函数入口：figures + 参考日期 → 状态
func ClassifyPaymentStatus(snap Snapshot, ref time.Time, policy Policy) PaymentStatus {
	return NewClassifier(policy).Classify(snap, ref).Status
}
