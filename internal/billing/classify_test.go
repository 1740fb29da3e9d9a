package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// ── 测试辅助 ──

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func newTestClassifier() *Classifier {
	return NewClassifier(DefaultPolicy(2025))
}

func snapshot(due, paid, overdue string, count int) Snapshot {
	return Snapshot{
		TotalDue:      d(due),
		TotalPaid:     d(paid),
		AmountOverdue: d(overdue),
		OverdueCount:  count,
	}
}

// ── 场景测试 ──

func TestClassify_Scenarios(t *testing.T) {
	c := newTestClassifier()
	lastPayment := day(2025, 10, 1)

	tests := []struct {
		name     string
		snap     Snapshot
		ref      time.Time
		want     PaymentStatus
		wantRule string
	}{
		{"A 全额已付", snapshot("5000", "5000", "0", 0), day(2026, 1, 10), StatusUpToDate, "R3"},
		{"B 零付款且有逾期分期", snapshot("5000", "0", "500", 1), day(2026, 1, 10), StatusFullyUnpaid, "R4a"},
		{"C 零付款且学年已过一成以上", snapshot("5000", "0", "0", 0), day(2025, 12, 1), StatusFullyUnpaid, "R4b"},
		{"D 多付200", snapshot("5000", "5200", "0", 0), day(2026, 1, 10), StatusCreditor, "R2"},
		{"E 实付低于理论应付七成", snapshot("5000", "1000", "0", 0), day(2026, 3, 1), StatusOverdue, "R5d"},
		{"零付款学年初期", snapshot("5000", "0", "0", 0), day(2025, 9, 10), StatusInProgress, "R4c"},
		{"零付款学年开始前", snapshot("5000", "0", "0", 0), day(2025, 8, 1), StatusInProgress, "R4c"},
		{"零付款学年结束后", snapshot("5000", "0", "0", 0), day(2026, 7, 15), StatusInProgress, "R4c"},
		{"有逾期笔数", snapshot("5000", "2000", "0", 2), day(2026, 1, 10), StatusOverdue, "R5a"},
		{"实付不足逾期金额", snapshot("5000", "400", "1000", 0), day(2026, 1, 10), StatusOverdue, "R5b"},
		{"实付仅差1以内不算不足", snapshot("5000", "999.50", "1000", 0), day(2025, 10, 10), StatusInProgress, "R6"},
		{"进度正常", snapshot("5000", "3000", "0", 0), day(2026, 3, 1), StatusInProgress, "R6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := tt.snap
			if !snap.TotalPaid.IsZero() && tt.wantRule != "R5d" {
				snap.LastPaymentDate = &lastPayment
			}
			got := c.Classify(snap, tt.ref)
			if got.Status != tt.want {
				t.Errorf("期望状态=%s，实际=%s（规则 %s）", tt.want, got.Status, got.Rule)
			}
			if got.Rule != tt.wantRule {
				t.Errorf("期望规则=%s，实际=%s", tt.wantRule, got.Rule)
			}
		})
	}
}

func TestClassify_StaleLastPayment(t *testing.T) {
	c := newTestClassifier()

	snap := snapshot("5000", "1000", "900", 0)
	last := day(2025, 10, 1)
	snap.LastPaymentDate = &last

	got := c.Classify(snap, day(2026, 1, 15))
	if got.Status != StatusOverdue || got.Rule != "R5c" {
		t.Errorf("距上次付款超过60天应命中 R5c，实际=%s/%s", got.Status, got.Rule)
	}

	recent := day(2025, 12, 20)
	snap.LastPaymentDate = &recent
	got = c.Classify(snap, day(2026, 1, 15))
	if got.Status != StatusInProgress {
		t.Errorf("近期有付款不应判定逾期，实际=%s/%s", got.Status, got.Rule)
	}
}

func TestClassify_StaleRequiresOverdueAmount(t *testing.T) {
	c := newTestClassifier()

	snap := snapshot("5000", "4000", "0", 0)
	last := day(2025, 9, 5)
	snap.LastPaymentDate = &last

	got := c.Classify(snap, day(2026, 2, 1))
	if got.Rule == "R5c" {
		t.Error("无逾期金额时不应命中 R5c")
	}
}

// ── 边界测试 ──

func TestClassify_NonPositiveDueAlwaysUnset(t *testing.T) {
	c := newTestClassifier()
	last := day(2025, 11, 1)

	for _, due := range []string{"0", "-1", "-5000"} {
		for _, paid := range []string{"0", "100", "99999"} {
			snap := snapshot(due, paid, "300", 3)
			snap.LastPaymentDate = &last
			got := c.Classify(snap, day(2026, 2, 1))
			if got.Status != StatusUnset {
				t.Errorf("due=%s paid=%s 期望 unset，实际=%s", due, paid, got.Status)
			}
		}
	}
}

func TestClassify_CreditorBoundary(t *testing.T) {
	c := newTestClassifier()
	ref := day(2026, 3, 1)

	// 余额恰为 -10：不算 creditor
	got := c.Classify(snapshot("5000", "5010", "0", 0), ref)
	if got.Status == StatusCreditor {
		t.Errorf("余额=-10 不应为 creditor，实际规则=%s", got.Rule)
	}

	// 余额 -10.01：creditor
	got = c.Classify(snapshot("5000", "5010.01", "0", 0), ref)
	if got.Status != StatusCreditor {
		t.Errorf("余额=-10.01 应为 creditor，实际=%s", got.Status)
	}

	// 多付超过 10 一律 creditor
	got = c.Classify(snapshot("5000", "5011", "0", 2), ref)
	if got.Status != StatusCreditor {
		t.Errorf("多付11应为 creditor，实际=%s", got.Status)
	}
}

func TestClassify_SettledBoundary(t *testing.T) {
	c := newTestClassifier()
	ref := day(2026, 3, 1)

	for _, paid := range []string{"4999.01", "5000", "5000.99"} {
		got := c.Classify(snapshot("5000", paid, "0", 0), ref)
		if got.Status != StatusUpToDate {
			t.Errorf("paid=%s 期望 up_to_date，实际=%s", paid, got.Status)
		}
	}

	// |余额| = 1 不再视为结清
	got := c.Classify(snapshot("5000", "4999", "0", 0), ref)
	if got.Status == StatusUpToDate {
		t.Error("余额=1 不应视为结清")
	}
}

// ── 性质测试 ──

func TestClassify_TotalAndDeterministic(t *testing.T) {
	c := newTestClassifier()
	last := day(2025, 10, 15)

	dues := []string{"-10", "0", "1", "5000"}
	paids := []string{"0", "0.5", "1000", "4999.5", "5000", "5020"}
	overdues := []string{"0", "500", "6000"}
	counts := []int{0, 1}
	refs := []time.Time{day(2025, 8, 1), day(2025, 12, 1), day(2026, 6, 30), day(2026, 9, 1)}

	for _, due := range dues {
		for _, paid := range paids {
			for _, ov := range overdues {
				for _, cnt := range counts {
					for _, ref := range refs {
						snap := snapshot(due, paid, ov, cnt)
						if paid != "0" {
							snap.LastPaymentDate = &last
						}
						first := c.Classify(snap, ref)
						second := c.Classify(snap, ref)
						if !first.Status.Valid() {
							t.Fatalf("未知状态 %q", first.Status)
						}
						if first != second {
							t.Fatalf("同输入两次判定不一致: %v vs %v", first, second)
						}
						if fn := ClassifyPaymentStatus(snap, ref, c.Policy()); fn != first.Status {
							t.Fatalf("ClassifyPaymentStatus 与 Classify 不一致: %s vs %s", fn, first.Status)
						}
					}
				}
			}
		}
	}
}

func TestClassify_CustomPolicy(t *testing.T) {
	p := DefaultPolicy(2025)
	p.ExpectedPaymentRatio = 0.10
	c := NewClassifier(p)

	// 同场景 E，阈值降低后不再逾期
	got := c.Classify(snapshot("5000", "1000", "0", 0), day(2026, 3, 1))
	if got.Status != StatusInProgress {
		t.Errorf("期望 in_progress，实际=%s", got.Status)
	}

	shifted := c.WithPolicy(DefaultPolicy(2026))
	got = shifted.Classify(snapshot("5000", "0", "0", 0), day(2025, 12, 1))
	if got.Status != StatusInProgress {
		t.Errorf("窗口外零付款期望 in_progress，实际=%s", got.Status)
	}
}
