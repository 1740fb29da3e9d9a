//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
	"hyperzen/backend/pkg/database"
	pkgerrors "hyperzen/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=hyperzen password=hyperzen_password dbname=hyperzen_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移脚本建表，保证与生产结构一致
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "数据库迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// setupDossier 创建学生 + 档案，返回清理函数
func setupDossier(t *testing.T, schoolYear string) (*model.Student, *model.Dossier, func()) {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewRepository(testDB)

	student := &model.Student{
		Matricule: fmt.Sprintf("IT%d", time.Now().UnixNano()),
		FirstName: "Sara",
		LastName:  "Alaoui",
		Status:    model.StudentEnrolled,
	}
	if err := repo.Student.Create(ctx, student); err != nil {
		t.Fatalf("创建学生失败: %v", err)
	}

	dossier := &model.Dossier{
		StudentID:     student.StudentID,
		SchoolYear:    schoolYear,
		TuitionAmount: decimal.RequireFromString("4500.00"),
		PriorUnpaid:   decimal.RequireFromString("500.00"),
		Status:        model.DossierActive,
	}
	if err := repo.Dossier.Create(ctx, dossier); err != nil {
		t.Fatalf("创建档案失败: %v", err)
	}

	cleanup := func() {
		testDB.Unscoped().Where("dossier_id = ?", dossier.DossierID).Delete(&model.Payment{})
		testDB.Unscoped().Where("dossier_id = ?", dossier.DossierID).Delete(&model.Installment{})
		testDB.Unscoped().Where("dossier_id = ?", dossier.DossierID).Delete(&model.Dossier{})
		testDB.Unscoped().Where("student_id = ?", student.StudentID).Delete(&model.Student{})
	}
	return student, dossier, cleanup
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	_, dossier, cleanup := setupDossier(t, "2025-2026")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	payment := &model.Payment{
		DossierID:   dossier.DossierID,
		Amount:      decimal.NewFromInt(1000),
		PaymentDate: day(2025, 10, 1),
		Method:      model.MethodCash,
		Status:      billing.PaymentValid,
	}
	if err := txRepo.Payment.Create(ctx, payment); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建付款失败: %v", err)
	}

	tx.Rollback()

	if _, err := repo.Payment.GetByID(ctx, payment.PaymentID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("期望回滚后查不到付款，实际 err=%v", err)
	}
}

func TestTransaction_Commit(t *testing.T) {
	_, dossier, cleanup := setupDossier(t, "2025-2026")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	txRepo := repo.WithTx(tx)

	payment := &model.Payment{
		DossierID:   dossier.DossierID,
		Amount:      decimal.RequireFromString("1250.75"),
		PaymentDate: day(2025, 10, 1),
		Method:      model.MethodTransfer,
		Status:      billing.PaymentValid,
	}
	if err := txRepo.Payment.Create(ctx, payment); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建付款失败: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("Commit 失败: %v", err)
	}

	found, err := repo.Payment.GetByID(ctx, payment.PaymentID)
	if err != nil {
		t.Fatalf("提交后查询付款失败: %v", err)
	}
	if !found.Amount.Equal(decimal.RequireFromString("1250.75")) {
		t.Errorf("金额精度丢失: %s", found.Amount)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestDossier_OptimisticLock(t *testing.T) {
	_, dossier, cleanup := setupDossier(t, "2025-2026")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	first, _ := repo.Dossier.GetByID(ctx, dossier.DossierID)
	second, _ := repo.Dossier.GetByID(ctx, dossier.DossierID)

	first.TuitionAmount = decimal.NewFromInt(5000)
	if err := repo.Dossier.Update(ctx, first); err != nil {
		t.Fatalf("首次更新失败: %v", err)
	}
	if first.Version != dossier.Version+1 {
		t.Errorf("期望版本 %d，实际 %d", dossier.Version+1, first.Version)
	}

	second.TuitionAmount = decimal.NewFromInt(6000)
	if err := repo.Dossier.Update(ctx, second); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("过期版本更新应返回 ErrOptimisticLock，实际 %v", err)
	}
}

func TestDossier_GetActive(t *testing.T) {
	student, dossier, cleanup := setupDossier(t, "2025-2026")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	got, err := repo.Dossier.GetActive(ctx, student.StudentID, "2025-2026")
	if err != nil {
		t.Fatalf("GetActive 失败: %v", err)
	}
	if got.DossierID != dossier.DossierID {
		t.Errorf("期望档案 %s，实际 %s", dossier.DossierID, got.DossierID)
	}
	if _, err := repo.Dossier.GetActive(ctx, student.StudentID, "2030-2031"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("其他学年应查不到，实际 err=%v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Installments
// ═══════════════════════════════════════════════════════════

func TestInstallment_MarkOverdueAndCancel(t *testing.T) {
	_, dossier, cleanup := setupDossier(t, "2025-2026")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	items := []model.Installment{
		{DossierID: dossier.DossierID, Sequence: 1, Amount: decimal.NewFromInt(1000), DueDate: day(2025, 10, 5), Status: billing.InstallmentPaid},
		{DossierID: dossier.DossierID, Sequence: 2, Amount: decimal.NewFromInt(1000), DueDate: day(2025, 11, 5), Status: billing.InstallmentUpcoming},
		{DossierID: dossier.DossierID, Sequence: 3, Amount: decimal.NewFromInt(1000), DueDate: day(2025, 12, 5), Status: billing.InstallmentUpcoming},
	}
	if err := repo.Installment.BatchCreate(ctx, items); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}

	// 12/05 当日到期不算逾期
	ids, err := repo.Installment.MarkOverdue(ctx, day(2025, 12, 5))
	if err != nil {
		t.Fatalf("MarkOverdue 失败: %v", err)
	}
	found := false
	for _, id := range ids {
		if id == dossier.DossierID {
			found = true
		}
	}
	if !found {
		t.Errorf("受影响档案应包含 %s", dossier.DossierID)
	}

	list, _ := repo.Installment.ListByDossier(ctx, dossier.DossierID)
	want := map[int]string{1: billing.InstallmentPaid, 2: billing.InstallmentOverdue, 3: billing.InstallmentUpcoming}
	for _, it := range list {
		if it.Status != want[it.Sequence] {
			t.Errorf("第 %d 期期望 %s，实际 %s", it.Sequence, want[it.Sequence], it.Status)
		}
	}

	n, err := repo.Installment.CancelUpcoming(ctx, dossier.DossierID)
	if err != nil {
		t.Fatalf("CancelUpcoming 失败: %v", err)
	}
	if n != 2 {
		t.Errorf("期望取消 2 期（overdue + upcoming），实际 %d", n)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Students
// ═══════════════════════════════════════════════════════════

func TestStudent_FindExistingMatricules(t *testing.T) {
	student, _, cleanup := setupDossier(t, "2025-2026")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	existing, err := repo.Student.FindExistingMatricules(context.Background(), []string{student.Matricule, "NOPE-0001"})
	if err != nil {
		t.Fatalf("FindExistingMatricules 失败: %v", err)
	}
	if !existing[student.Matricule] || existing["NOPE-0001"] {
		t.Errorf("结果不正确: %v", existing)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Conditional state transitions
// ═══════════════════════════════════════════════════════════

func TestInstallment_SettleOnlyOpen(t *testing.T) {
	_, dossier, cleanup := setupDossier(t, "2025-2026")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	items := []model.Installment{
		{DossierID: dossier.DossierID, Sequence: 1, Amount: decimal.NewFromInt(1000), DueDate: day(2025, 10, 5), Status: billing.InstallmentOverdue},
		{DossierID: dossier.DossierID, Sequence: 2, Amount: decimal.NewFromInt(1000), DueDate: day(2025, 11, 5), Status: billing.InstallmentCancelled},
	}
	if err := repo.Installment.BatchCreate(ctx, items); err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}
	by := "00000000-0000-0000-0000-000000000001"

	n, err := repo.Installment.Settle(ctx, items[0].InstallmentID, time.Now(), by)
	if err != nil || n != 1 {
		t.Fatalf("overdue 分期应可结清，n=%d err=%v", n, err)
	}
	// 重复结清与结清已取消分期都不生效
	if n, _ := repo.Installment.Settle(ctx, items[0].InstallmentID, time.Now(), by); n != 0 {
		t.Errorf("已结清分期不应再次结清，n=%d", n)
	}
	if n, _ := repo.Installment.Settle(ctx, items[1].InstallmentID, time.Now(), by); n != 0 {
		t.Errorf("已取消分期不应被结清，n=%d", n)
	}

	if n, _ := repo.Installment.Reopen(ctx, items[1].InstallmentID, billing.InstallmentUpcoming, by); n != 0 {
		t.Errorf("cancelled 分期不应被退回，n=%d", n)
	}
	if n, _ := repo.Installment.Reopen(ctx, items[0].InstallmentID, billing.InstallmentOverdue, by); n != 1 {
		t.Errorf("paid 分期应可退回，n=%d", n)
	}
}

func TestPayment_VoidOnce(t *testing.T) {
	_, dossier, cleanup := setupDossier(t, "2025-2026")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	payment := &model.Payment{
		DossierID:   dossier.DossierID,
		Amount:      decimal.NewFromInt(300),
		PaymentDate: day(2025, 10, 1),
		Method:      model.MethodCash,
		Status:      billing.PaymentValid,
	}
	if err := repo.Payment.Create(ctx, payment); err != nil {
		t.Fatalf("创建付款失败: %v", err)
	}
	by := "00000000-0000-0000-0000-000000000001"

	if n, err := repo.Payment.Void(ctx, payment.PaymentID, "first", time.Now(), by); err != nil || n != 1 {
		t.Fatalf("首次作废应成功，n=%d err=%v", n, err)
	}
	if n, _ := repo.Payment.Void(ctx, payment.PaymentID, "second", time.Now(), by); n != 0 {
		t.Errorf("重复作废不应生效，n=%d", n)
	}
	found, _ := repo.Payment.GetByID(ctx, payment.PaymentID)
	if found.VoidReason != "first" {
		t.Errorf("作废原因被覆盖: %q", found.VoidReason)
	}
}

func TestDossier_GetForUpdate(t *testing.T) {
	_, dossier, cleanup := setupDossier(t, "2025-2026")
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	defer tx.Rollback()

	got, err := repo.WithTx(tx).Dossier.GetForUpdate(ctx, dossier.DossierID)
	if err != nil {
		t.Fatalf("GetForUpdate 失败: %v", err)
	}
	if got.DossierID != dossier.DossierID {
		t.Errorf("期望档案 %s，实际 %s", dossier.DossierID, got.DossierID)
	}
}
