package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/model"
)

// ── 测试数据构造 ──

const testYear = "2025-2026"

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestClassifier() *billing.Classifier {
	return billing.NewClassifier(billing.DefaultPolicy(2025))
}

func seedStudent(t *testing.T, repos *mockRepos, matricule, last, first string) *model.Student {
	t.Helper()
	st := &model.Student{
		Matricule:     matricule,
		LastName:      last,
		FirstName:     first,
		ClassName:     "CM2",
		GuardianName:  "Parent " + last,
		GuardianEmail: matricule + "@parents.ma",
		Status:        model.StudentEnrolled,
	}
	if err := repos.students.Create(context.Background(), st); err != nil {
		t.Fatalf("创建测试学生失败: %v", err)
	}
	return st
}

func seedDossier(t *testing.T, repos *mockRepos, studentID, year, tuition, prior string) *model.Dossier {
	t.Helper()
	d := &model.Dossier{
		StudentID:     studentID,
		SchoolYear:    year,
		TuitionAmount: dec(tuition),
		PriorUnpaid:   dec(prior),
		Status:        model.DossierActive,
	}
	if err := repos.dossiers.Create(context.Background(), d); err != nil {
		t.Fatalf("创建测试档案失败: %v", err)
	}
	return d
}

func seedPayment(t *testing.T, repos *mockRepos, dossierID, amount string, on time.Time, status string) *model.Payment {
	t.Helper()
	p := &model.Payment{
		DossierID:   dossierID,
		Amount:      dec(amount),
		PaymentDate: on,
		Method:      model.MethodCash,
		Status:      status,
	}
	if err := repos.payments.Create(context.Background(), p); err != nil {
		t.Fatalf("创建测试付款失败: %v", err)
	}
	return p
}

func seedInstallment(t *testing.T, repos *mockRepos, dossierID string, seq int, amount string, due time.Time, status string) *model.Installment {
	t.Helper()
	inst := []model.Installment{{
		DossierID: dossierID,
		Sequence:  seq,
		Amount:    dec(amount),
		DueDate:   due,
		Status:    status,
	}}
	if err := repos.installments.BatchCreate(context.Background(), inst); err != nil {
		t.Fatalf("创建测试分期失败: %v", err)
	}
	return &inst[0]
}

func seedSchoolYear(t *testing.T, repos *mockRepos, label string, start, end time.Time, active bool) *model.SchoolYear {
	t.Helper()
	y := &model.SchoolYear{Label: label, StartDate: start, EndDate: end, IsActive: active, Status: model.SchoolYearOpen}
	if err := repos.years.Create(context.Background(), y); err != nil {
		t.Fatalf("创建测试学年失败: %v", err)
	}
	return y
}
