package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/config"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
)

// Export formats
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

var (
	ErrUnknownExportFormat = errors.New("format must be csv or xlsx")
	ErrExportGenerateFail  = errors.New("failed to generate the export file")
)

// TPExportService exports completed assessments, one row per student
type TPExportService interface {
	// Export returns the file body, a suggested file name and its content type
	Export(ctx context.Context, format string, caller Caller) (*bytes.Buffer, string, string, error)
}

type tpExportService struct {
	repo   *repository.Repository
	tp     *TPAccess
	loc    *time.Location
	logger *zap.Logger
}

// NewTPExportService creates a TPExportService
func NewTPExportService(cfg *config.Config, repo *repository.Repository, tp *TPAccess, logger *zap.Logger) TPExportService {
	loc, err := time.LoadLocation(cfg.TP.Location)
	if err != nil {
		loc = time.Local
	}
	return &tpExportService{repo: repo, tp: tp, loc: loc, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Export
// ═══════════════════════════════════════════════════════════
//
// Letters that are commented, non-zero, locked and not pending deletion
// are grouped by (student name, index, zone). Each group becomes one row
// with four columns per assessment:
//
//	Name | Assessment No. | Zone | Assessment 1 | Assessment 1 Type | Assessment 1 Assessor | Assessment 1 Date & Time | ...
//
// Shorter rows are padded with empty cells.

// exportGroup one output row
type exportGroup struct {
	name, index, zone string
	assessments       [][4]string
}

func (s *tpExportService) Export(ctx context.Context, format string, caller Caller) (*bytes.Buffer, string, string, error) {
	if format != ExportCSV && format != ExportXLSX {
		return nil, "", "", ErrUnknownExportFormat
	}
	ok, err := s.tp.CanExport(ctx, caller)
	if err != nil {
		return nil, "", "", err
	}
	if !ok {
		return nil, "", "", ErrNoPermission
	}
	scope, err := s.tp.LetterScope(ctx, caller)
	if err != nil {
		return nil, "", "", err
	}

	letters, err := s.repo.Letter.ListCompleted(ctx, scope)
	if err != nil {
		s.logger.Error("failed to load completed letters", zap.Error(err))
		return nil, "", "", err
	}

	groups, width := s.group(letters)
	headers := exportHeaders(width)
	title := s.title(ctx, scope)

	buf := new(bytes.Buffer)
	switch format {
	case ExportCSV:
		if err := writeExportCSV(buf, headers, groups, width); err != nil {
			s.logger.Error("failed to write csv", zap.Error(err))
			return nil, "", "", ErrExportGenerateFail
		}
		return buf, title + ".csv", "text/csv", nil
	default:
		if err := writeExportXLSX(buf, title, headers, groups, width); err != nil {
			s.logger.Error("failed to write xlsx", zap.Error(err))
			return nil, "", "", ErrExportGenerateFail
		}
		return buf, title + ".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	}
}

// group keeps the order of first appearance; width is the longest row
func (s *tpExportService) group(letters []model.StudentLetter) ([]*exportGroup, int) {
	var groups []*exportGroup
	index := make(map[[3]string]*exportGroup)
	width := 0

	for i := range letters {
		l := &letters[i]
		var key [3]string
		if l.Student != nil {
			key[0], key[1] = l.Student.FullName, l.Student.Index
		}
		key[2] = deref(l.Zone)

		g, ok := index[key]
		if !ok {
			g = &exportGroup{name: key[0], index: key[1], zone: key[2]}
			index[key] = g
			groups = append(groups, g)
		}

		var typ, assessor string
		if l.AssessmentType != nil {
			typ = l.AssessmentType.Name
		}
		if l.Assessor != nil {
			assessor = l.Assessor.FullName()
		}
		g.assessments = append(g.assessments, [4]string{
			strconv.FormatFloat(l.TotalScore, 'f', -1, 64),
			typ,
			assessor,
			l.CreatedAt.In(s.loc).Format("2006-01-02 03:04:05 PM"),
		})
		if n := len(g.assessments); n > width {
			width = n
		}
	}
	return groups, width
}

// title names the export after what the caller can see
func (s *tpExportService) title(ctx context.Context, scope repository.LetterScope) string {
	switch {
	case scope.All:
		return "All Specializations Assessments"
	case len(scope.AssessmentTypeIDs) > 0:
		var names []string
		for _, id := range scope.AssessmentTypeIDs {
			if at, err := s.repo.AssessmentType.GetByID(ctx, id); err == nil {
				names = append(names, at.ShortName)
			}
		}
		return strings.TrimSpace(strings.Join(names, " ") + " Assessments")
	case len(scope.Zones) > 0:
		return strings.Join(scope.Zones, " ") + " Assessments"
	case len(scope.SpecializationIDs) > 0:
		var names []string
		for _, id := range scope.SpecializationIDs {
			if spec, err := s.repo.Specialization.GetByID(ctx, id); err == nil {
				names = append(names, spec.Name)
			}
		}
		return strings.TrimSpace(strings.Join(names, " ") + " Assessments")
	}
	return "Assessments"
}

func exportHeaders(width int) []string {
	headers := []string{"Name", "Assessment No.", "Zone"}
	for i := 1; i <= width; i++ {
		headers = append(headers,
			fmt.Sprintf("Assessment %d", i),
			fmt.Sprintf("Assessment %d Type", i),
			fmt.Sprintf("Assessment %d Assessor", i),
			fmt.Sprintf("Assessment %d Date & Time", i),
		)
	}
	return headers
}

func exportRow(g *exportGroup, width int) []string {
	row := make([]string, 0, 3+4*width)
	row = append(row, g.name, g.index, g.zone)
	for _, a := range g.assessments {
		row = append(row, a[:]...)
	}
	for i := len(g.assessments); i < width; i++ {
		row = append(row, "", "", "", "")
	}
	return row
}

func writeExportCSV(buf *bytes.Buffer, headers []string, groups []*exportGroup, width int) error {
	w := csv.NewWriter(buf)
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, g := range groups {
		if err := w.Write(exportRow(g, width)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeExportXLSX(buf *bytes.Buffer, title string, headers []string, groups []*exportGroup, width int) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Assessments"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 32)
	f.SetColWidth(sheet, "B", "C", 16)
	if width > 0 {
		f.SetColWidth(sheet, colName(3), colName(2+4*width), 20)
	}

	style := headerStyle(f)
	f.SetCellValue(sheet, "A1", title)
	f.MergeCell(sheet, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheet, "A1", "A1", style)

	writeHeader(f, sheet, 2, headers, style)
	row := 3
	for _, g := range groups {
		for i, v := range exportRow(g, width) {
			f.SetCellValue(sheet, cell(colName(i), row), v)
		}
		row++
	}
	return f.Write(buf)
}

// ── xlsx helpers ──

func headerStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	return style
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), row), h)
	}
	if len(headers) > 0 {
		f.SetCellStyle(sheet, cell("A", row), cell(colName(len(headers)-1), row), style)
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
