package service

import (
	"context"
	"errors"
	"testing"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/model"
	pkgerrors "hyperzen/backend/pkg/errors"
)

func setupTestDossierService() (DossierService, *mockRepos, *mockStatusCache) {
	repos := newMockRepos()
	cache := newMockStatusCache()
	return NewDossierService(repos.repository(), cache, testLogger), repos, cache
}

func TestDossierService_Create(t *testing.T) {
	svc, repos, _ := setupTestDossierService()
	st := seedStudent(t, repos, "M100", "Idrissi", "Yasmine")
	ctx := context.Background()

	resp, err := svc.Create(ctx, &dto.CreateDossierRequest{
		StudentID: st.StudentID, SchoolYear: testYear, TuitionAmount: "4500", PriorUnpaid: "250.50",
	}, "acc-1")
	if err != nil {
		t.Fatalf("创建档案失败: %v", err)
	}
	if resp.TotalDue != "4750.50" {
		t.Errorf("期望 TotalDue=4750.50，实际=%s", resp.TotalDue)
	}
	if resp.Student == nil || resp.Student.Matricule != "M100" {
		t.Error("响应应包含学生信息")
	}

	_, err = svc.Create(ctx, &dto.CreateDossierRequest{
		StudentID: st.StudentID, SchoolYear: testYear, TuitionAmount: "100",
	}, "acc-1")
	if !errors.Is(err, ErrDossierExists) {
		t.Errorf("同学年重复建档期望 ErrDossierExists，实际: %v", err)
	}
}

func TestDossierService_Create_Invalid(t *testing.T) {
	svc, repos, _ := setupTestDossierService()
	st := seedStudent(t, repos, "M101", "Tazi", "Adam")
	ctx := context.Background()

	for _, amount := range []string{"-1", "abc", "10.001", ""} {
		_, err := svc.Create(ctx, &dto.CreateDossierRequest{
			StudentID: st.StudentID, SchoolYear: testYear, TuitionAmount: amount,
		}, "acc-1")
		if !errors.Is(err, ErrDossierAmountInvalid) {
			t.Errorf("金额 %q 期望 ErrDossierAmountInvalid，实际: %v", amount, err)
		}
	}

	_, err := svc.Create(ctx, &dto.CreateDossierRequest{
		StudentID: "ghost", SchoolYear: testYear, TuitionAmount: "100",
	}, "acc-1")
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
}

func TestDossierService_Update_OptimisticLock(t *testing.T) {
	svc, repos, cache := setupTestDossierService()
	st := seedStudent(t, repos, "M102", "Fassi", "Nora")
	d := seedDossier(t, repos, st.StudentID, testYear, "4000", "0")
	ctx := context.Background()

	tuition := "4200"
	resp, err := svc.Update(ctx, d.DossierID, &dto.UpdateDossierRequest{Version: 1, TuitionAmount: &tuition}, "acc-1")
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if resp.TuitionAmount != "4200.00" || resp.Version != 2 {
		t.Errorf("更新结果不正确: %+v", resp)
	}
	if len(cache.invalidated) != 1 {
		t.Error("更新金额后应清除状态缓存")
	}

	_, err = svc.Update(ctx, d.DossierID, &dto.UpdateDossierRequest{Version: 1, TuitionAmount: &tuition}, "acc-1")
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("过期版本号期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestDossierService_Close(t *testing.T) {
	svc, repos, _ := setupTestDossierService()
	st := seedStudent(t, repos, "M103", "Kettani", "Rayan")
	d := seedDossier(t, repos, st.StudentID, testYear, "3000", "0")
	paid := seedInstallment(t, repos, d.DossierID, 1, "1000", date(2025, 10, 5), billing.InstallmentPaid)
	up := seedInstallment(t, repos, d.DossierID, 2, "1000", date(2025, 11, 5), billing.InstallmentUpcoming)
	ov := seedInstallment(t, repos, d.DossierID, 3, "1000", date(2025, 9, 5), billing.InstallmentOverdue)
	ctx := context.Background()

	if err := svc.Close(ctx, d.DossierID, "acc-1"); err != nil {
		t.Fatalf("关闭档案失败: %v", err)
	}

	if repos.dossiers.dossiers[d.DossierID].Status != model.DossierClosed {
		t.Error("档案应为 closed")
	}
	if repos.installments.installments[paid.InstallmentID].Status != billing.InstallmentPaid {
		t.Error("已付分期不应被取消")
	}
	for _, id := range []string{up.InstallmentID, ov.InstallmentID} {
		if repos.installments.installments[id].Status != billing.InstallmentCancelled {
			t.Errorf("分期 %s 应被取消", id)
		}
	}

	if err := svc.Close(ctx, d.DossierID, "acc-1"); !errors.Is(err, ErrDossierClosed) {
		t.Errorf("重复关闭期望 ErrDossierClosed，实际: %v", err)
	}
	tuition := "1"
	if _, err := svc.Update(ctx, d.DossierID, &dto.UpdateDossierRequest{Version: 2, TuitionAmount: &tuition}, "acc-1"); !errors.Is(err, ErrDossierClosed) {
		t.Errorf("已关闭档案不可修改，实际: %v", err)
	}
}

func TestDossierService_List(t *testing.T) {
	svc, repos, _ := setupTestDossierService()
	a := seedStudent(t, repos, "M104", "A", "A")
	b := seedStudent(t, repos, "M105", "B", "B")
	seedDossier(t, repos, a.StudentID, testYear, "1", "0")
	seedDossier(t, repos, a.StudentID, "2024-2025", "1", "0")
	seedDossier(t, repos, b.StudentID, testYear, "1", "0")

	list, total, err := svc.List(context.Background(), &dto.DossierListRequest{StudentID: a.StudentID})
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Errorf("期望学生 A 有 2 个档案，实际 %d", total)
	}

	_, total, _ = svc.List(context.Background(), &dto.DossierListRequest{SchoolYear: testYear})
	if total != 2 {
		t.Errorf("期望 %s 有 2 个档案，实际 %d", testYear, total)
	}
}
