package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	"github.com/Koomefranklin/kise-results-backend/pkg/scoring"
)

var ErrUnknownCat = errors.New("cat must be cat1 or cat2")

// ResultService CAT result generation and reporting
type ResultService interface {
	Generate(ctx context.Context, req *dto.GenerateResultsRequest, caller Caller) (*dto.GenerateResultsResponse, error)
	List(ctx context.Context, req *dto.ResultListRequest, caller Caller) ([]dto.ResultResponse, int64, error)
	Export(ctx context.Context, paperID string, caller Caller) (*bytes.Buffer, string, error)
}

type resultService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewResultService creates a ResultService
func NewResultService(repo *repository.Repository, logger *zap.Logger) ResultService {
	return &resultService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Generate
// ═══════════════════════════════════════════════════════════
//
// For every student of the paper's specialization:
//
//	cat = mean over the bucket's modules of (discussion + take_away) / 2
//	      + sit-in mark for cat (0 when absent)
//
// Only modules the student has a score row for enter the mean; a student
// with no rows in the bucket averages 0. Only the selected column of the
// result row is written.

func (s *resultService) Generate(ctx context.Context, req *dto.GenerateResultsRequest, caller Caller) (*dto.GenerateResultsResponse, error) {
	if req.Cat != model.Cat1 && req.Cat != model.Cat2 {
		return nil, ErrUnknownCat
	}
	paper, err := loadPaper(ctx, s.repo, req.PaperID)
	if err != nil {
		return nil, err
	}
	if !caller.canWriteSpecialization(paper.SpecializationID) {
		return nil, ErrNoPermission
	}

	combo, err := s.repo.CatCombination.GetByPaper(ctx, paper.PaperID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatCombinationNotFound
		}
		return nil, err
	}
	moduleIDs := combo.ModuleIDs(req.Cat)

	out := &dto.GenerateResultsResponse{PaperID: paper.PaperID, Cat: req.Cat}
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		students, err := txRepo.Student.ListBySpecialization(ctx, paper.SpecializationID)
		if err != nil {
			return err
		}
		scores, err := txRepo.ModuleScore.ListByModules(ctx, moduleIDs)
		if err != nil {
			return err
		}
		sitins, err := txRepo.SitinCat.ListByPaper(ctx, paper.PaperID)
		if err != nil {
			return err
		}

		byStudent := make(map[string][]scoring.ModuleScore)
		for _, sc := range scores {
			byStudent[sc.StudentID] = append(byStudent[sc.StudentID], scoring.ModuleScore{
				Discussion: sc.Discussion,
				TakeAway:   sc.TakeAway,
			})
		}
		sitinOf := make(map[string]*float64, len(sitins))
		for i := range sitins {
			sitinOf[sitins[i].StudentID] = sitins[i].Score(req.Cat)
		}

		out.Students = len(students)
		for _, st := range students {
			rows := byStudent[st.StudentID]
			sitin := sitinOf[st.StudentID]
			value := scoring.CatResult(rows, sitin)

			result := &model.Result{StudentID: st.StudentID, PaperID: paper.PaperID}
			if req.Cat == model.Cat1 {
				result.Cat1 = &value
			} else {
				result.Cat2 = &value
			}
			result.Stamp(caller.UserID)
			if err := txRepo.Result.Upsert(ctx, result, req.Cat); err != nil {
				return err
			}
			if len(rows) > 0 || sitin != nil {
				out.Generated++
			}
		}

		recordAudit(ctx, txRepo, s.logger, caller.UserID, model.AuditChange, "result", paper.PaperID,
			fmt.Sprintf("%s results generated for %s", req.Cat, paper.Code),
			map[string]int{"students": out.Students, "with_marks": out.Generated})
		return nil
	})
	if err != nil {
		s.logger.Error("failed to generate results",
			zap.String("paper_id", paper.PaperID),
			zap.String("cat", req.Cat),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("results generated",
		zap.String("paper_id", paper.PaperID),
		zap.String("cat", req.Cat),
		zap.Int("students", out.Students),
	)
	return out, nil
}

// ────────────────────── List ──────────────────────

func (s *resultService) List(ctx context.Context, req *dto.ResultListRequest, caller Caller) ([]dto.ResultResponse, int64, error) {
	filter := repository.ResultFilter{
		PaperID:           req.PaperID,
		StudentID:         req.StudentID,
		SpecializationID:  req.SpecializationID,
		SpecializationIDs: caller.specializationScope(),
	}
	if caller.IsStudent() {
		id, err := ownStudentID(ctx, s.repo, caller)
		if err != nil {
			return nil, 0, err
		}
		filter.StudentID = id
		filter.SpecializationIDs = nil
	}

	results, total, err := s.repo.Result.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list results", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.ResultResponse, 0, len(results))
	for i := range results {
		out = append(out, *toResultResponse(&results[i]))
	}
	return out, total, nil
}

// ────────────────────── Export ──────────────────────

// Export writes the paper's results as xlsx: student, admission, cat1, cat2
func (s *resultService) Export(ctx context.Context, paperID string, caller Caller) (*bytes.Buffer, string, error) {
	paper, err := loadPaper(ctx, s.repo, paperID)
	if err != nil {
		return nil, "", err
	}
	if caller.IsStudent() || !caller.canReadSpecialization(paper.SpecializationID) {
		return nil, "", ErrNoPermission
	}

	results, _, err := s.repo.Result.List(ctx, repository.ResultFilter{PaperID: paperID}, 0, 0)
	if err != nil {
		s.logger.Error("failed to load results", zap.String("paper_id", paperID), zap.Error(err))
		return nil, "", err
	}
	sort.Slice(results, func(i, j int) bool {
		return admissionOf(&results[i]) < admissionOf(&results[j])
	})

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Results"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 32)
	f.SetColWidth(sheet, "B", "B", 18)
	f.SetColWidth(sheet, "C", "D", 10)

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s %s", paper.Code, paper.Name))
	f.MergeCell(sheet, "A1", "D1")
	style := headerStyle(f)
	f.SetCellStyle(sheet, "A1", "A1", style)

	writeHeader(f, sheet, 2, []string{"Student", "Admission", "CAT 1", "CAT 2"}, style)
	row := 3
	for i := range results {
		r := &results[i]
		name := ""
		if r.Student != nil && r.Student.User != nil {
			name = r.Student.User.FullName()
		}
		f.SetCellValue(sheet, cell("A", row), name)
		f.SetCellValue(sheet, cell("B", row), admissionOf(r))
		if r.Cat1 != nil {
			f.SetCellValue(sheet, cell("C", row), *r.Cat1)
		}
		if r.Cat2 != nil {
			f.SetCellValue(sheet, cell("D", row), *r.Cat2)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("failed to write xlsx", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("results_%s.xlsx", paper.Code), nil
}

func admissionOf(r *model.Result) string {
	if r.Student == nil {
		return ""
	}
	return r.Student.Admission
}

func toResultResponse(r *model.Result) *dto.ResultResponse {
	out := &dto.ResultResponse{
		ID:        r.ResultID,
		Cat1:      r.Cat1,
		Cat2:      r.Cat2,
		UpdatedAt: dto.Timestamp(r.UpdatedAt),
	}
	out.Student = studentBrief(r.StudentID, r.Student)
	if r.Paper != nil {
		out.Paper = &dto.BriefResponse{ID: r.Paper.PaperID, Code: r.Paper.Code, Name: r.Paper.Name}
	}
	return out
}
