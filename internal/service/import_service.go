package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"hyperzen/backend/internal/billing"
	"hyperzen/backend/internal/dto"
	"hyperzen/backend/internal/model"
	"hyperzen/backend/internal/repository"
)

// ── CSV 导入业务错误 ──

var (
	ErrImportEmpty         = errors.New("文件为空或没有数据行")
	ErrImportHeaderInvalid = errors.New("表头缺少必需列（nom/last_name、prenom/first_name）")
	ErrImportTooManyRows   = errors.New("数据行数超过上限")
	ErrImportYearRequired  = errors.New("必须指定学年")
)

// 导入列（内部统一名）
const (
	colMatricule     = "matricule"
	colLastName      = "last_name"
	colFirstName     = "first_name"
	colClassName     = "class_name"
	colBirthDate     = "birth_date"
	colGuardianName  = "guardian_name"
	colGuardianEmail = "guardian_email"
	colGuardianPhone = "guardian_phone"
	colTuition       = "tuition"
	colPriorUnpaid   = "prior_unpaid"
)

// headerAliases 法语 / 英语表头 → 内部列名（键为规范化后的表头）
var headerAliases = map[string]string{
	"matricule":         colMatricule,
	"student_id":        colMatricule,
	"nom":               colLastName,
	"last_name":         colLastName,
	"lastname":          colLastName,
	"prenom":            colFirstName,
	"first_name":        colFirstName,
	"firstname":         colFirstName,
	"classe":            colClassName,
	"class":             colClassName,
	"class_name":        colClassName,
	"date_naissance":    colBirthDate,
	"date_de_naissance": colBirthDate,
	"birth_date":        colBirthDate,
	"responsable":       colGuardianName,
	"guardian_name":     colGuardianName,
	"email_parent":      colGuardianEmail,
	"guardian_email":    colGuardianEmail,
	"telephone_parent":  colGuardianPhone,
	"guardian_phone":    colGuardianPhone,
	"frais_scolarite":   colTuition,
	"tuition":           colTuition,
	"impaye_anterieur":  colPriorUnpaid,
	"prior_unpaid":      colPriorUnpaid,
}

// ImportService CSV 批量导入
type ImportService interface {
	// ImportStudents 导入学生并为每人创建指定学年的档案
	ImportStudents(ctx context.Context, content []byte, schoolYear string, callerID string) (*dto.ImportStudentsResponse, error)
}

type importService struct {
	repo    *repository.Repository
	maxRows int
	logger  *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(repo *repository.Repository, maxRows int, logger *zap.Logger) ImportService {
	return &importService{repo: repo, maxRows: maxRows, logger: logger}
}

// importRow 通过校验的行
type importRow struct {
	line    int
	student model.Student
	tuition decimal.Decimal
	prior   decimal.Decimal
}

// ────────────────────── ImportStudents ──────────────────────

func (s *importService) ImportStudents(ctx context.Context, content []byte, schoolYear string, callerID string) (*dto.ImportStudentsResponse, error) {
	schoolYear = strings.TrimSpace(schoolYear)
	if schoolYear == "" {
		return nil, ErrImportYearRequired
	}

	lines := splitNumberedLines(decodeCSV(content))
	if len(lines) < 2 {
		return nil, ErrImportEmpty
	}
	if len(lines)-1 > s.maxRows {
		return nil, fmt.Errorf("%w: %d > %d", ErrImportTooManyRows, len(lines)-1, s.maxRows)
	}

	columns, err := mapHeader(ParseCSVLine(lines[0].text))
	if err != nil {
		return nil, err
	}

	resp := &dto.ImportStudentsResponse{Total: len(lines) - 1}
	reject := func(line int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportError{Row: line, Reason: reason})
	}

	// ── 第一遍：解析、校验、文件内去重 ──
	seen := make(map[string]int)
	rows := make([]importRow, 0, len(lines)-1)
	for _, l := range lines[1:] {
		row, reason := parseImportRow(l, columns)
		if reason != "" {
			reject(l.no, reason)
			continue
		}
		key := dedupKey(&row.student)
		if first, ok := seen[key]; ok {
			resp.Duplicates++
			reject(l.no, fmt.Sprintf("与第 %d 行重复", first))
			continue
		}
		seen[key] = l.no
		rows = append(rows, row)
	}

	// ── 第二遍：与已有学生去重 ──
	matricules := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.student.Matricule != "" {
			matricules = append(matricules, r.student.Matricule)
		}
	}
	existing := map[string]bool{}
	if len(matricules) > 0 {
		existing, err = s.repo.Student.FindExistingMatricules(ctx, matricules)
		if err != nil {
			s.logger.Error("查询已有学号失败", zap.Error(err))
			return nil, err
		}
	}

	valid := rows[:0]
	for _, r := range rows {
		if r.student.Matricule != "" && existing[r.student.Matricule] {
			resp.Duplicates++
			reject(r.line, fmt.Sprintf("学号 %s 已存在", r.student.Matricule))
			continue
		}
		valid = append(valid, r)
	}

	if len(valid) == 0 {
		return resp, nil
	}

	// ── 写入：学生 + 档案同一事务 ──
	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		for i := range valid {
			r := &valid[i]
			if r.student.Matricule == "" {
				r.student.Matricule = generateMatricule()
			}
			r.student.CreatedBy = &callerID
			if err := txRepo.Student.Create(ctx, &r.student); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("第 %d 行: %w", r.line, ErrStudentMatriculeExists)
				}
				return err
			}
			dossier := &model.Dossier{
				StudentID:     r.student.StudentID,
				SchoolYear:    schoolYear,
				TuitionAmount: r.tuition,
				PriorUnpaid:   r.prior,
				Status:        model.DossierActive,
			}
			dossier.CreatedBy = &callerID
			if err := txRepo.Dossier.Create(ctx, dossier); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("导入学生失败", zap.String("school_year", schoolYear), zap.Error(err))
		return nil, err
	}

	resp.Success = len(valid)
	s.logger.Info("导入学生完成",
		zap.String("school_year", schoolYear),
		zap.Int("total", resp.Total),
		zap.Int("success", resp.Success),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

// ── 内部辅助函数 ──

// decodeCSV 非 UTF-8 内容按 Windows-1252 解码（Excel 法语环境默认导出编码）
func decodeCSV(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(decoded)
}

// foldAccents 去除变音符号并转小写："Prénom" → "prenom"
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func normalizeHeader(h string) string {
	h = foldAccents(h)
	return strings.NewReplacer(" ", "_", "-", "_", "'", "_").Replace(h)
}

// mapHeader 返回内部列名 → 列下标
func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		if col, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, dup := columns[col]; !dup {
				columns[col] = i
			}
		}
	}
	if _, ok := columns[colLastName]; !ok {
		return nil, ErrImportHeaderInvalid
	}
	if _, ok := columns[colFirstName]; !ok {
		return nil, ErrImportHeaderInvalid
	}
	return columns, nil
}

// parseImportRow 返回非空 reason 表示该行无效
func parseImportRow(l csvLine, columns map[string]int) (importRow, string) {
	fields := ParseCSVLine(l.text)
	get := func(col string) string {
		i, ok := columns[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return fields[i]
	}

	row := importRow{
		line: l.no,
		student: model.Student{
			Matricule:     get(colMatricule),
			LastName:      get(colLastName),
			FirstName:     get(colFirstName),
			ClassName:     get(colClassName),
			GuardianName:  get(colGuardianName),
			GuardianEmail: get(colGuardianEmail),
			GuardianPhone: get(colGuardianPhone),
			Status:        model.StudentEnrolled,
		},
		tuition: decimal.Zero,
		prior:   decimal.Zero,
	}

	if row.student.LastName == "" || row.student.FirstName == "" {
		return row, "姓名不能为空"
	}
	if len(row.student.Matricule) > 30 {
		return row, "学号长度超过 30"
	}
	if raw := get(colBirthDate); raw != "" {
		birth, ok := parseImportDate(raw)
		if !ok {
			return row, fmt.Sprintf("出生日期格式非法: %s", raw)
		}
		row.student.BirthDate = &birth
	}
	if raw := get(colTuition); raw != "" {
		v, ok := parseMoney(normalizeAmount(raw))
		if !ok {
			return row, fmt.Sprintf("学费金额非法: %s", raw)
		}
		row.tuition = v
	}
	if raw := get(colPriorUnpaid); raw != "" {
		v, ok := parseMoney(normalizeAmount(raw))
		if !ok {
			return row, fmt.Sprintf("往年欠费金额非法: %s", raw)
		}
		row.prior = v
	}
	return row, ""
}

// parseImportDate 接受 YYYY-MM-DD 与 DD/MM/YYYY
func parseImportDate(s string) (time.Time, bool) {
	for _, layout := range []string{dateLayout, "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return billing.DateOnly(t), true
		}
	}
	return time.Time{}, false
}

// normalizeAmount 法语格式金额："1 500,50" → "1500.50"
func normalizeAmount(s string) string {
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
	return strings.Replace(s, ",", ".", 1)
}

// dedupKey 有学号按学号，否则按规范化姓名 + 出生日期
func dedupKey(st *model.Student) string {
	if st.Matricule != "" {
		return "m:" + strings.ToLower(st.Matricule)
	}
	return "n:" + foldAccents(st.LastName) + "|" + foldAccents(st.FirstName) + "|" + formatDatePtr(st.BirthDate)
}

func generateMatricule() string {
	return "HZ" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
