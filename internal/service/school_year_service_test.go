package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/dto"
)

func TestSchoolYearService_Create(t *testing.T) {
	repos := newMockRepos()
	svc := NewSchoolYearService(repos.repository(), nil, testLogger)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &dto.CreateSchoolYearRequest{Label: "2025-2026", StartDate: "2025-09-01", EndDate: "2026-06-30"}, "acc-1")
	if err != nil {
		t.Fatalf("创建学年失败: %v", err)
	}
	if resp.IsActive || resp.Status != "open" {
		t.Errorf("新学年应为未激活的 open 状态: %+v", resp)
	}

	cases := []struct {
		req  dto.CreateSchoolYearRequest
		want error
	}{
		{dto.CreateSchoolYearRequest{Label: "2025-2026", StartDate: "2025-09-01", EndDate: "2026-06-30"}, ErrSchoolYearExists},
		{dto.CreateSchoolYearRequest{Label: "25/26", StartDate: "2025-09-01", EndDate: "2026-06-30"}, ErrSchoolYearLabelInvalid},
		{dto.CreateSchoolYearRequest{Label: "2026-2027", StartDate: "2027-06-30", EndDate: "2026-09-01"}, ErrSchoolYearDateInvalid},
		{dto.CreateSchoolYearRequest{Label: "2026-2027", StartDate: "bad", EndDate: "2027-06-30"}, ErrSchoolYearDateInvalid},
	}
	for _, c := range cases {
		req := c.req
		if _, err := svc.Create(ctx, &req, "acc-1"); !errors.Is(err, c.want) {
			t.Errorf("%+v 期望 %v，实际: %v", c.req, c.want, err)
		}
	}
}

func TestSchoolYearService_Activate(t *testing.T) {
	repos := newMockRepos()
	svc := NewSchoolYearService(repos.repository(), nil, testLogger)
	ctx := context.Background()

	old := seedSchoolYear(t, repos, "2024-2025", date(2024, 9, 1), date(2025, 6, 30), true)
	next := seedSchoolYear(t, repos, "2025-2026", date(2025, 9, 1), date(2026, 6, 30), false)

	if _, err := svc.GetCurrent(ctx); err != nil {
		t.Fatalf("查询当前学年失败: %v", err)
	}
	if err := svc.Activate(ctx, next.SchoolYearID, "acc-1"); err != nil {
		t.Fatalf("激活学年失败: %v", err)
	}

	cur, err := svc.GetCurrent(ctx)
	if err != nil {
		t.Fatalf("查询当前学年失败: %v", err)
	}
	if cur.Label != "2025-2026" {
		t.Errorf("期望当前学年 2025-2026，实际 %s", cur.Label)
	}
	if repos.years.years[old.SchoolYearID].IsActive {
		t.Error("旧学年应取消激活")
	}

	if err := svc.Activate(ctx, "ghost", "acc-1"); !errors.Is(err, ErrSchoolYearNotFound) {
		t.Errorf("期望 ErrSchoolYearNotFound，实际: %v", err)
	}

	list, _ := svc.List(ctx)
	if len(list) != 2 || list[0].Label != "2025-2026" {
		t.Errorf("学年列表应按标签倒序，实际 %+v", list)
	}
}

func TestSchoolYearService_NoCurrent(t *testing.T) {
	svc := NewSchoolYearService(newMockRepos().repository(), nil, testLogger)
	if _, err := svc.GetCurrent(context.Background()); !errors.Is(err, ErrSchoolYearNotFound) {
		t.Errorf("期望 ErrSchoolYearNotFound，实际: %v", err)
	}
}

func TestSchoolYearService_CreateInvalidatesStatusCache(t *testing.T) {
	repos := newMockRepos()
	cache := newMockStatusCache()
	status := NewPaymentStatusService(repos.repository(), newTestClassifier(), cache, 10*time.Minute, testLogger)
	svc := NewSchoolYearService(repos.repository(), cache, testLogger)
	ctx := context.Background()

	st := seedStudent(t, repos, "M300", "Tazi", "Nour")
	d := seedDossier(t, repos, st.StudentID, "2026-2027", "5000", "0")
	other := seedDossier(t, repos, st.StudentID, "2025-2026", "5000", "0")
	ref := date(2026, 12, 1)

	// 尚无学年记录：按默认窗口判定并写入缓存
	before, err := status.GetStatus(ctx, d.DossierID, ref)
	if err != nil {
		t.Fatalf("GetStatus 失败: %v", err)
	}
	if before.Status != string(billing.StatusInProgress) {
		t.Fatalf("默认窗口外零付款期望 in_progress，实际=%s", before.Status)
	}

	if _, err := svc.Create(ctx, &dto.CreateSchoolYearRequest{Label: "2026-2027", StartDate: "2026-09-01", EndDate: "2027-06-30"}, "adm-1"); err != nil {
		t.Fatalf("创建学年失败: %v", err)
	}
	for _, id := range cache.invalidated {
		if id == other.DossierID {
			t.Error("其他学年的档案缓存不应被清除")
		}
	}

	after, err := status.GetStatus(ctx, d.DossierID, ref)
	if err != nil {
		t.Fatalf("GetStatus 失败: %v", err)
	}
	if after.Status != string(billing.StatusFullyUnpaid) {
		t.Errorf("新学年窗口生效后期望 fully_unpaid，实际=%s", after.Status)
	}
}
