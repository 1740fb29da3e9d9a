package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// 默认策略常量：业务方给出的阈值，按原值保留，修改需经财务确认
const (
	DefaultCreditorTolerance      = 10   // 多付超过该金额视为 creditor
	DefaultSettledTolerance       = 1    // 余额绝对值小于该金额视为已结清
	DefaultUnpaidElapsedThreshold = 0.10 // 零付款时学年进度超过该比例即 fully_unpaid
	DefaultExpectedPaymentRatio   = 0.70 // 实付低于理论应付的该比例即 overdue
	DefaultStalePaymentDays       = 60   // 距上次付款超过该天数且有逾期金额即 overdue

	DefaultYearStartMonth = time.September
	DefaultYearStartDay   = 1
	DefaultYearEndMonth   = time.June
	DefaultYearEndDay     = 30
)

// ErrPolicyNotConfigured 策略缺失或不合法，启动时即应失败
var ErrPolicyNotConfigured = errors.New("billing policy not configured")

// Policy 状态判定所依赖的日历窗口与阈值
type Policy struct {
	YearStart              time.Time
	YearEnd                time.Time
	CreditorTolerance      decimal.Decimal
	SettledTolerance       decimal.Decimal
	UnpaidElapsedThreshold float64
	ExpectedPaymentRatio   float64
	StalePaymentDays       int
}

// DefaultPolicy 以 startYear 年 9 月 1 日 → 次年 6 月 30 日为学年窗口
func DefaultPolicy(startYear int) Policy {
	return Policy{
		YearStart:              time.Date(startYear, DefaultYearStartMonth, DefaultYearStartDay, 0, 0, 0, 0, time.UTC),
		YearEnd:                time.Date(startYear+1, DefaultYearEndMonth, DefaultYearEndDay, 0, 0, 0, 0, time.UTC),
		CreditorTolerance:      decimal.NewFromInt(DefaultCreditorTolerance),
		SettledTolerance:       decimal.NewFromInt(DefaultSettledTolerance),
		UnpaidElapsedThreshold: DefaultUnpaidElapsedThreshold,
		ExpectedPaymentRatio:   DefaultExpectedPaymentRatio,
		StalePaymentDays:       DefaultStalePaymentDays,
	}
}

// WithWindow 返回替换了学年窗口的副本
func (p Policy) WithWindow(start, end time.Time) Policy {
	p.YearStart = DateOnly(start)
	p.YearEnd = DateOnly(end)
	return p
}

// Validate 校验策略完整性
func (p Policy) Validate() error {
	if p.YearStart.IsZero() || p.YearEnd.IsZero() {
		return fmt.Errorf("%w: academic year window missing", ErrPolicyNotConfigured)
	}
	if !p.YearEnd.After(p.YearStart) {
		return fmt.Errorf("%w: academic year end must be after start", ErrPolicyNotConfigured)
	}
	if p.CreditorTolerance.IsNegative() || p.SettledTolerance.IsNegative() {
		return fmt.Errorf("%w: tolerances must not be negative", ErrPolicyNotConfigured)
	}
	if p.UnpaidElapsedThreshold < 0 || p.UnpaidElapsedThreshold > 1 {
		return fmt.Errorf("%w: unpaid elapsed threshold must be within [0,1]", ErrPolicyNotConfigured)
	}
	if p.ExpectedPaymentRatio < 0 || p.ExpectedPaymentRatio > 1 {
		return fmt.Errorf("%w: expected payment ratio must be within [0,1]", ErrPolicyNotConfigured)
	}
	if p.StalePaymentDays <= 0 {
		return fmt.Errorf("%w: stale payment days must be positive", ErrPolicyNotConfigured)
	}
	return nil
}

// InWindow ref 是否落在学年窗口内（含两端）
func (p Policy) InWindow(ref time.Time) bool {
	d := DateOnly(ref)
	return !d.Before(p.YearStart) && !d.After(p.YearEnd)
}

// ElapsedFraction 学年已过比例，截断到 [0,1]
func (p Policy) ElapsedFraction(ref time.Time) float64 {
	total := p.YearEnd.Sub(p.YearStart)
	if total <= 0 {
		return 0
	}
	f := float64(DateOnly(ref).Sub(p.YearStart)) / float64(total)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// DateOnly 截断到 UTC 自然日
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween from → to 的整天数
func DaysBetween(from, to time.Time) int {
	return int(DateOnly(to).Sub(DateOnly(from)).Hours() / 24)
}
