package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
	pkgerrors "hyperzen/backend/pkg/errors"
)

// ── 测试聚合 ──

type mockRepos struct {
	users        *mockUserRepo
	years        *mockSchoolYearRepo
	students     *mockStudentRepo
	dossiers     *mockDossierRepo
	payments     *mockPaymentRepo
	installments *mockInstallmentRepo
	reminders    *mockReminderRepo
	tickets      *mockTicketRepo
	runs         *mockMigrationRunRepo
}

func newMockRepos() *mockRepos {
	students := newMockStudentRepo()
	return &mockRepos{
		users:        newMockUserRepo(),
		years:        newMockSchoolYearRepo(),
		students:     students,
		dossiers:     newMockDossierRepo(students),
		payments:     newMockPaymentRepo(),
		installments: newMockInstallmentRepo(),
		reminders:    newMockReminderRepo(),
		tickets:      newMockTicketRepo(),
		runs:         newMockMigrationRunRepo(),
	}
}

func (m *mockRepos) repository() *repository.Repository {
	return &repository.Repository{
		User:         m.users,
		SchoolYear:   m.years,
		Student:      m.students,
		Dossier:      m.dossiers,
		Payment:      m.payments,
		Installment:  m.installments,
		Reminder:     m.reminders,
		Ticket:       m.tickets,
		MigrationRun: m.runs,
	}
}

var testLogger = zap.NewNop()

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	if user.Version == 0 {
		user.Version = 1
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	stored, ok := m.users[user.UserID]
	if !ok || stored.Version != user.Version {
		return pkgerrors.ErrOptimisticLock
	}
	user.Version++
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *mockUserRepo) ListWithFilters(_ context.Context, filters *repository.UserListFilters, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if filters != nil {
			if filters.Role != "" && u.Role != filters.Role {
				continue
			}
			if filters.Keyword != "" && !contains(u.Name, filters.Keyword) && !contains(u.Email, filters.Keyword) {
				continue
			}
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock SchoolYearRepository ──

type mockSchoolYearRepo struct {
	years map[string]*model.SchoolYear
}

func newMockSchoolYearRepo() *mockSchoolYearRepo {
	return &mockSchoolYearRepo{years: make(map[string]*model.SchoolYear)}
}

func (m *mockSchoolYearRepo) Create(_ context.Context, year *model.SchoolYear) error {
	if year.SchoolYearID == "" {
		year.SchoolYearID = "sy-" + year.Label
	}
	m.years[year.SchoolYearID] = year
	return nil
}

func (m *mockSchoolYearRepo) GetByID(_ context.Context, id string) (*model.SchoolYear, error) {
	if y, ok := m.years[id]; ok {
		return y, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSchoolYearRepo) GetByLabel(_ context.Context, label string) (*model.SchoolYear, error) {
	for _, y := range m.years {
		if y.Label == label {
			return y, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSchoolYearRepo) GetCurrent(_ context.Context) (*model.SchoolYear, error) {
	for _, y := range m.years {
		if y.IsActive {
			return y, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSchoolYearRepo) List(_ context.Context) ([]model.SchoolYear, error) {
	var result []model.SchoolYear
	for _, y := range m.years {
		result = append(result, *y)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Label > result[j].Label })
	return result, nil
}

func (m *mockSchoolYearRepo) Update(_ context.Context, year *model.SchoolYear) error {
	m.years[year.SchoolYearID] = year
	return nil
}

func (m *mockSchoolYearRepo) ClearActive(_ context.Context) error {
	for _, y := range m.years {
		y.IsActive = false
	}
	return nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
	seq      int
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	for _, s := range m.students {
		if s.Matricule == student.Matricule {
			return gorm.ErrDuplicatedKey
		}
	}
	if student.StudentID == "" {
		m.seq++
		student.StudentID = fmt.Sprintf("stu-%d", m.seq)
	}
	if student.Version == 0 {
		student.Version = 1
	}
	cp := *student
	m.students[student.StudentID] = &cp
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByMatricule(_ context.Context, matricule string) (*model.Student, error) {
	for _, s := range m.students {
		if s.Matricule == matricule {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) FindExistingMatricules(_ context.Context, matricules []string) (map[string]bool, error) {
	result := make(map[string]bool)
	for _, mat := range matricules {
		for _, s := range m.students {
			if s.Matricule == mat {
				result[mat] = true
			}
		}
	}
	return result, nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	stored, ok := m.students[student.StudentID]
	if !ok || stored.Version != student.Version {
		return pkgerrors.ErrOptimisticLock
	}
	student.Version++
	cp := *student
	m.students[student.StudentID] = &cp
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.students, id)
	return nil
}

func (m *mockStudentRepo) ListWithFilters(_ context.Context, filters *repository.StudentListFilters, offset, limit int) ([]model.Student, int64, error) {
	var all []model.Student
	for _, s := range m.students {
		if filters != nil {
			if filters.ClassName != "" && s.ClassName != filters.ClassName {
				continue
			}
			if filters.Status != "" && s.Status != filters.Status {
				continue
			}
			if filters.Keyword != "" && !contains(s.FullName(), filters.Keyword) && !contains(s.Matricule, filters.Keyword) {
				continue
			}
		}
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StudentID < all[j].StudentID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock DossierRepository ──

type mockDossierRepo struct {
	dossiers map[string]*model.Dossier
	students *mockStudentRepo
	seq      int
	// getErr 非 nil 时 GetByID 直接返回该错误（模拟存储故障）
	getErr error
}

func newMockDossierRepo(students *mockStudentRepo) *mockDossierRepo {
	return &mockDossierRepo{dossiers: make(map[string]*model.Dossier), students: students}
}

func (m *mockDossierRepo) withStudent(d *model.Dossier) model.Dossier {
	cp := *d
	if s, ok := m.students.students[d.StudentID]; ok {
		stu := *s
		cp.Student = &stu
	}
	return cp
}

func (m *mockDossierRepo) Create(_ context.Context, dossier *model.Dossier) error {
	for _, d := range m.dossiers {
		if d.StudentID == dossier.StudentID && d.SchoolYear == dossier.SchoolYear && d.Status == model.DossierActive {
			return gorm.ErrDuplicatedKey
		}
	}
	if dossier.DossierID == "" {
		m.seq++
		dossier.DossierID = fmt.Sprintf("dos-%d", m.seq)
	}
	if dossier.Version == 0 {
		dossier.Version = 1
	}
	cp := *dossier
	cp.Student = nil
	m.dossiers[dossier.DossierID] = &cp
	return nil
}

func (m *mockDossierRepo) GetByID(_ context.Context, id string) (*model.Dossier, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if d, ok := m.dossiers[id]; ok {
		cp := m.withStudent(d)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDossierRepo) GetForUpdate(ctx context.Context, id string) (*model.Dossier, error) {
	return m.GetByID(ctx, id)
}

func (m *mockDossierRepo) GetActive(_ context.Context, studentID, schoolYear string) (*model.Dossier, error) {
	for _, d := range m.dossiers {
		if d.StudentID == studentID && d.SchoolYear == schoolYear && d.Status == model.DossierActive {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDossierRepo) ListByYear(_ context.Context, schoolYear, status string) ([]model.Dossier, error) {
	var result []model.Dossier
	for _, d := range m.dossiers {
		if d.SchoolYear != schoolYear || (status != "" && d.Status != status) {
			continue
		}
		result = append(result, m.withStudent(d))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DossierID < result[j].DossierID })
	return result, nil
}

func (m *mockDossierRepo) ListWithFilters(_ context.Context, filters *repository.DossierListFilters, offset, limit int) ([]model.Dossier, int64, error) {
	var all []model.Dossier
	for _, d := range m.dossiers {
		if filters != nil {
			if filters.StudentID != "" && d.StudentID != filters.StudentID {
				continue
			}
			if filters.SchoolYear != "" && d.SchoolYear != filters.SchoolYear {
				continue
			}
			if filters.Status != "" && d.Status != filters.Status {
				continue
			}
		}
		all = append(all, m.withStudent(d))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DossierID < all[j].DossierID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockDossierRepo) Update(_ context.Context, dossier *model.Dossier) error {
	stored, ok := m.dossiers[dossier.DossierID]
	if !ok || stored.Version != dossier.Version {
		return pkgerrors.ErrOptimisticLock
	}
	dossier.Version++
	cp := *dossier
	cp.Student = nil
	m.dossiers[dossier.DossierID] = &cp
	return nil
}

// ── Mock PaymentRepository ──

type mockPaymentRepo struct {
	payments map[string]*model.Payment
	seq      int
}

func newMockPaymentRepo() *mockPaymentRepo {
	return &mockPaymentRepo{payments: make(map[string]*model.Payment)}
}

func (m *mockPaymentRepo) Create(_ context.Context, payment *model.Payment) error {
	if payment.PaymentID == "" {
		m.seq++
		payment.PaymentID = fmt.Sprintf("pay-%d", m.seq)
	}
	cp := *payment
	m.payments[payment.PaymentID] = &cp
	return nil
}

func (m *mockPaymentRepo) GetByID(_ context.Context, id string) (*model.Payment, error) {
	if p, ok := m.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) ListByDossier(_ context.Context, dossierID string) ([]model.Payment, error) {
	return m.ListByDossierIDs(context.Background(), []string{dossierID})
}

func (m *mockPaymentRepo) ListByDossierIDs(_ context.Context, dossierIDs []string) ([]model.Payment, error) {
	ids := toSet(dossierIDs)
	var result []model.Payment
	for _, p := range m.payments {
		if ids[p.DossierID] {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PaymentID < result[j].PaymentID })
	return result, nil
}

func (m *mockPaymentRepo) Void(_ context.Context, id, reason string, voidedAt time.Time, updatedBy string) (int64, error) {
	p, ok := m.payments[id]
	if !ok || p.Status != billing.PaymentValid {
		return 0, nil
	}
	p.Status = billing.PaymentVoided
	p.VoidReason = reason
	p.VoidedAt = &voidedAt
	p.UpdatedBy = &updatedBy
	return 1, nil
}

// ── Mock InstallmentRepository ──

type mockInstallmentRepo struct {
	installments map[string]*model.Installment
	seq          int
}

func newMockInstallmentRepo() *mockInstallmentRepo {
	return &mockInstallmentRepo{installments: make(map[string]*model.Installment)}
}

func (m *mockInstallmentRepo) BatchCreate(_ context.Context, installments []model.Installment) error {
	for i := range installments {
		if installments[i].InstallmentID == "" {
			m.seq++
			installments[i].InstallmentID = fmt.Sprintf("inst-%02d", m.seq)
		}
		cp := installments[i]
		m.installments[cp.InstallmentID] = &cp
	}
	return nil
}

func (m *mockInstallmentRepo) GetByID(_ context.Context, id string) (*model.Installment, error) {
	if inst, ok := m.installments[id]; ok {
		cp := *inst
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInstallmentRepo) ListByDossier(_ context.Context, dossierID string) ([]model.Installment, error) {
	return m.ListByDossierIDs(context.Background(), []string{dossierID})
}

func (m *mockInstallmentRepo) ListByDossierIDs(_ context.Context, dossierIDs []string) ([]model.Installment, error) {
	ids := toSet(dossierIDs)
	var result []model.Installment
	for _, inst := range m.installments {
		if ids[inst.DossierID] {
			result = append(result, *inst)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DossierID != result[j].DossierID {
			return result[i].DossierID < result[j].DossierID
		}
		return result[i].Sequence < result[j].Sequence
	})
	return result, nil
}

func (m *mockInstallmentRepo) Settle(_ context.Context, id string, paidAt time.Time, updatedBy string) (int64, error) {
	inst, ok := m.installments[id]
	if !ok || (inst.Status != billing.InstallmentUpcoming && inst.Status != billing.InstallmentOverdue) {
		return 0, nil
	}
	inst.Status = billing.InstallmentPaid
	inst.PaidAt = &paidAt
	inst.UpdatedBy = &updatedBy
	return 1, nil
}

func (m *mockInstallmentRepo) Reopen(_ context.Context, id string, status string, updatedBy string) (int64, error) {
	inst, ok := m.installments[id]
	if !ok || inst.Status != billing.InstallmentPaid {
		return 0, nil
	}
	inst.Status = status
	inst.PaidAt = nil
	inst.UpdatedBy = &updatedBy
	return 1, nil
}

func (m *mockInstallmentRepo) CancelUpcoming(_ context.Context, dossierID string) (int64, error) {
	var n int64
	for _, inst := range m.installments {
		if inst.DossierID == dossierID &&
			(inst.Status == billing.InstallmentUpcoming || inst.Status == billing.InstallmentOverdue) {
			inst.Status = billing.InstallmentCancelled
			n++
		}
	}
	return n, nil
}

func (m *mockInstallmentRepo) MarkOverdue(_ context.Context, ref time.Time) ([]string, error) {
	day := billing.DateOnly(ref)
	seen := make(map[string]bool)
	var ids []string
	for _, inst := range m.installments {
		if inst.Status == billing.InstallmentUpcoming && inst.DueDate.Before(day) {
			inst.Status = billing.InstallmentOverdue
			if !seen[inst.DossierID] {
				seen[inst.DossierID] = true
				ids = append(ids, inst.DossierID)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ── Mock ReminderRepository ──

type mockReminderRepo struct {
	reminders []model.Reminder
	seq       int
	createErr error
}

func newMockReminderRepo() *mockReminderRepo {
	return &mockReminderRepo{}
}

func (m *mockReminderRepo) Create(_ context.Context, reminder *model.Reminder) error {
	if m.createErr != nil {
		return m.createErr
	}
	if reminder.ReminderID == "" {
		m.seq++
		reminder.ReminderID = fmt.Sprintf("rem-%d", m.seq)
	}
	m.reminders = append(m.reminders, *reminder)
	return nil
}

func (m *mockReminderRepo) Delete(_ context.Context, id string) error {
	for i := range m.reminders {
		if m.reminders[i].ReminderID == id {
			m.reminders = append(m.reminders[:i], m.reminders[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockReminderRepo) ListByDossier(_ context.Context, dossierID string) ([]model.Reminder, error) {
	var result []model.Reminder
	for i := len(m.reminders) - 1; i >= 0; i-- {
		if m.reminders[i].DossierID == dossierID {
			result = append(result, m.reminders[i])
		}
	}
	return result, nil
}

func (m *mockReminderRepo) Latest(ctx context.Context, dossierID string) (*model.Reminder, error) {
	list, _ := m.ListByDossier(ctx, dossierID)
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[0], nil
}

// ── Mock TicketRepository ──

type mockTicketRepo struct {
	tickets map[string]*model.Ticket
	seq     int
}

func newMockTicketRepo() *mockTicketRepo {
	return &mockTicketRepo{tickets: make(map[string]*model.Ticket)}
}

func (m *mockTicketRepo) Create(_ context.Context, ticket *model.Ticket) error {
	if ticket.TicketID == "" {
		m.seq++
		ticket.TicketID = fmt.Sprintf("tk-%d", m.seq)
	}
	if ticket.Version == 0 {
		ticket.Version = 1
	}
	cp := *ticket
	m.tickets[ticket.TicketID] = &cp
	return nil
}

func (m *mockTicketRepo) GetByID(_ context.Context, id string) (*model.Ticket, error) {
	if t, ok := m.tickets[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTicketRepo) Update(_ context.Context, ticket *model.Ticket) error {
	stored, ok := m.tickets[ticket.TicketID]
	if !ok || stored.Version != ticket.Version {
		return pkgerrors.ErrOptimisticLock
	}
	ticket.Version++
	cp := *ticket
	m.tickets[ticket.TicketID] = &cp
	return nil
}

func (m *mockTicketRepo) ListWithFilters(_ context.Context, filters *repository.TicketListFilters, offset, limit int) ([]model.Ticket, int64, error) {
	var all []model.Ticket
	for _, t := range m.tickets {
		if filters != nil {
			if filters.Status != "" && t.Status != filters.Status {
				continue
			}
			if filters.Priority != "" && t.Priority != filters.Priority {
				continue
			}
			if filters.AssignedTo != "" && derefString(t.AssignedTo) != filters.AssignedTo {
				continue
			}
			if filters.CreatedBy != "" && derefString(t.CreatedBy) != filters.CreatedBy {
				continue
			}
		}
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TicketID < all[j].TicketID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

// ── Mock MigrationRunRepository ──

type mockMigrationRunRepo struct {
	runs map[string]*model.MigrationRun
	seq  int
}

func newMockMigrationRunRepo() *mockMigrationRunRepo {
	return &mockMigrationRunRepo{runs: make(map[string]*model.MigrationRun)}
}

func (m *mockMigrationRunRepo) Create(_ context.Context, run *model.MigrationRun) error {
	if run.MigrationRunID == "" {
		m.seq++
		run.MigrationRunID = fmt.Sprintf("run-%d", m.seq)
	}
	if run.Version == 0 {
		run.Version = 1
	}
	cp := *run
	m.runs[run.MigrationRunID] = &cp
	return nil
}

func (m *mockMigrationRunRepo) GetByID(_ context.Context, id string) (*model.MigrationRun, error) {
	if r, ok := m.runs[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockMigrationRunRepo) List(_ context.Context) ([]model.MigrationRun, error) {
	var result []model.MigrationRun
	for _, r := range m.runs {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MigrationRunID < result[j].MigrationRunID })
	return result, nil
}

func (m *mockMigrationRunRepo) Update(_ context.Context, run *model.MigrationRun) error {
	stored, ok := m.runs[run.MigrationRunID]
	if !ok || stored.Version != run.Version {
		return pkgerrors.ErrOptimisticLock
	}
	run.Version++
	cp := *run
	m.runs[run.MigrationRunID] = &cp
	return nil
}

// ── Mock 缓存 / 黑名单 / 投递 ──

type mockStatusCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	invalidated []string
}

func newMockStatusCache() *mockStatusCache {
	return &mockStatusCache{entries: make(map[string][]byte)}
}

func (c *mockStatusCache) GetStatus(_ context.Context, dossierID, refDate string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.entries[dossierID+":"+refDate]; ok {
		return b, nil
	}
	return nil, pkgerrors.ErrCacheMiss
}

func (c *mockStatusCache) SetStatus(_ context.Context, dossierID, refDate string, payload []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[dossierID+":"+refDate] = payload
	return nil
}

func (c *mockStatusCache) InvalidateStatus(_ context.Context, dossierID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, dossierID+":") {
			delete(c.entries, k)
		}
	}
	c.invalidated = append(c.invalidated, dossierID)
	return nil
}

type mockBlacklist struct {
	jtis map[string]bool
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{jtis: make(map[string]bool)}
}

func (b *mockBlacklist) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	b.jtis[jti] = true
	return nil
}

func (b *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return b.jtis[jti], nil
}

type mockDispatcher struct {
	sent []ReminderPayload
	err  error
}

func (d *mockDispatcher) Channel() string { return "test" }

func (d *mockDispatcher) Dispatch(_ context.Context, p *ReminderPayload) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, *p)
	return nil
}

// ── 辅助函数 ──

func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
