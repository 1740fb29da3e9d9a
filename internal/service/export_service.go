package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoDossiers     = errors.New("该学年暂无有效档案")
	ErrExportNoInstallments = errors.New("该档案暂无分期计划")
	ErrExportGenerateFail   = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 导出内容以 bytes.Buffer 返回，由 Handler 层设置响应头后写出。
type ExportService interface {
	// ExportStatusReport 导出学年付款状态报表（.xlsx）
	ExportStatusReport(ctx context.Context, schoolYear string, ref time.Time) (*bytes.Buffer, string, error)
	// ExportInstallmentCalendar 导出档案分期日历（.ics）
	ExportInstallmentCalendar(ctx context.Context, dossierID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	status PaymentStatusService
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, status PaymentStatusService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, status: status, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportStatusReport 学年付款状态报表
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "Statuts"：每个档案一行，按姓名排序
//   - Sheet "Synthèse"：各状态档案数

var reportHeaders = []string{
	"Matricule", "Élève", "Classe", "Total dû", "Payé", "Solde",
	"Montant échu", "Échéances en retard", "Dernier paiement", "Statut",
}

func (s *exportService) ExportStatusReport(ctx context.Context, schoolYear string, ref time.Time) (*bytes.Buffer, string, error) {
	statuses, err := s.status.ListStatuses(ctx, schoolYear, ref)
	if err != nil {
		return nil, "", err
	}
	if len(statuses) == 0 {
		return nil, "", ErrExportNoDossiers
	}

	sort.SliceStable(statuses, func(i, j int) bool {
		return studentSortKey(&statuses[i]) < studentSortKey(&statuses[j])
	})

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Statuts"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Situation des paiements %s au %s", schoolYear, formatDate(billing.DateOnly(ref))))
	f.MergeCell(sheetName, "A1", cell(colName(len(reportHeaders)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range reportHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(reportHeaders)-1), 2), headerStyle)
	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "B", 28)
	f.SetColWidth(sheetName, "C", "I", 16)
	f.SetColWidth(sheetName, "J", "J", 20)

	// 数据行
	row := 3
	for i := range statuses {
		st := &statuses[i]
		var matricule, name, className string
		if stu := st.Dossier.Student; stu != nil {
			matricule, name, className = stu.Matricule, stu.FullName(), stu.ClassName
		}
		values := []interface{}{
			matricule,
			name,
			className,
			st.Snapshot.TotalDue.InexactFloat64(),
			st.Snapshot.TotalPaid.InexactFloat64(),
			st.Snapshot.Balance().InexactFloat64(),
			st.Snapshot.AmountOverdue.InexactFloat64(),
			st.Snapshot.OverdueCount,
			formatDatePtr(st.Snapshot.LastPaymentDate),
			st.Decision.Status.Label(),
		}
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), row), v)
		}
		row++
	}
	f.SetCellStyle(sheetName, "D3", cell("G", row-1), moneyStyle)

	// 汇总 Sheet
	const summarySheet = "Synthèse"
	f.NewSheet(summarySheet)
	f.SetCellValue(summarySheet, "A1", "Statut")
	f.SetCellValue(summarySheet, "B1", "Dossiers")
	f.SetCellStyle(summarySheet, "A1", "B1", headerStyle)
	f.SetColWidth(summarySheet, "A", "A", 22)
	counts := make(map[billing.PaymentStatus]int, len(billing.AllStatuses))
	for i := range statuses {
		counts[statuses[i].Decision.Status]++
	}
	for i, st := range billing.AllStatuses {
		f.SetCellValue(summarySheet, cell("A", i+2), st.Label())
		f.SetCellValue(summarySheet, cell("B", i+2), counts[st])
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("statuts_%s_%s.xlsx", schoolYear, formatDate(billing.DateOnly(ref)))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportInstallmentCalendar：分期日历
// ═══════════════════════════════════════════════════════════
//
// 每个未取消的分期一个全天 VEVENT，UID 为 <installment_id>@hyperzen

func (s *exportService) ExportInstallmentCalendar(ctx context.Context, dossierID string) (*bytes.Buffer, string, error) {
	dossier, err := s.repo.Dossier.GetByID(ctx, dossierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrDossierNotFound
		}
		return nil, "", err
	}

	installments, err := s.repo.Installment.ListByDossier(ctx, dossierID)
	if err != nil {
		s.logger.Error("查询分期失败", zap.String("dossier_id", dossierID), zap.Error(err))
		return nil, "", err
	}

	studentName := dossier.StudentID
	if dossier.Student != nil {
		studentName = dossier.Student.FullName()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//HYPERZEN//Echeancier//FR")
	cal.SetXWRCalName(fmt.Sprintf("Échéancier %s %s", studentName, dossier.SchoolYear))

	now := time.Now().UTC()
	events := 0
	for _, inst := range installments {
		if inst.Status == billing.InstallmentCancelled {
			continue
		}
		evt := cal.AddEvent(inst.InstallmentID + "@hyperzen")
		evt.SetDtStampTime(now)
		evt.SetCreatedTime(inst.CreatedAt)
		evt.SetAllDayStartAt(inst.DueDate)
		evt.SetAllDayEndAt(inst.DueDate.AddDate(0, 0, 1))
		evt.SetSummary(fmt.Sprintf("Échéance %d - %s MAD", inst.Sequence, formatMoney(inst.Amount)))
		evt.SetDescription(fmt.Sprintf("%s, année %s, statut %s", studentName, dossier.SchoolYear, inst.Status))
		events++
	}
	if events == 0 {
		return nil, "", ErrExportNoInstallments
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("echeancier_%s.ics", dossier.DossierID)
	return buf, filename, nil
}

// ── 辅助函数 ──

func studentSortKey(st *DossierStatus) string {
	if st.Dossier.Student == nil {
		return st.Dossier.StudentID
	}
	return foldAccents(st.Dossier.Student.FullName())
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
