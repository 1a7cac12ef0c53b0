package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	perrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	"github.com/Koomefranklin/kise-results-backend/pkg/tabular"
)

// Import kinds
const (
	ImportLecturers       = "lecturers"
	ImportSpecializations = "specializations"
	ImportPapers          = "papers"
	ImportModules         = "modules"
	ImportStudents        = "students"
	ImportTPStudents      = "tp-students"
)

// ImportKinds every supported kind
var ImportKinds = []string{ImportLecturers, ImportSpecializations, ImportPapers, ImportModules, ImportStudents, ImportTPStudents}

var (
	ErrUnknownImportKind = errors.New("unknown import kind")
	ErrInvalidImportFile = errors.New("import file could not be read")
)

// importColumns required header columns per kind
var importColumns = map[string][]string{
	ImportLecturers:       {"username", "name"},
	ImportSpecializations: {"code", "name", "mode", "course"},
	ImportPapers:          {"code", "name", "specialization"},
	ImportModules:         {"code", "name", "paper"},
	ImportStudents:        {"admission", "name", "specialization"},
	ImportTPStudents:      {"index", "full_name"},
}

// ImportService bulk loads reference data from CSV or XLSX. Rows that
// already exist are skipped, never updated.
type ImportService interface {
	Import(ctx context.Context, kind, filename string, r io.Reader, callerID string) (*dto.ImportResponse, error)
}

type importService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewImportService creates an ImportService
func NewImportService(repo *repository.Repository, logger *zap.Logger) ImportService {
	return &importService{repo: repo, logger: logger}
}

// rowImporter creates one row; created=false with a nil error means skipped
type rowImporter func(ctx context.Context, row tabular.Row, callerID string) (created bool, err error)

func (s *importService) Import(ctx context.Context, kind, filename string, r io.Reader, callerID string) (*dto.ImportResponse, error) {
	required, ok := importColumns[kind]
	if !ok {
		return nil, ErrUnknownImportKind
	}

	rows, err := tabular.Read(filename, r, required...)
	if err != nil {
		return nil, perrors.WithMessage(ErrInvalidImportFile, err.Error())
	}

	var fn rowImporter
	switch kind {
	case ImportLecturers:
		fn = s.lecturer
	case ImportSpecializations:
		fn = s.specialization
	case ImportPapers:
		fn = s.paper
	case ImportModules:
		fn = s.module
	case ImportStudents:
		fn = s.student
	case ImportTPStudents:
		var period *model.Period
		if period, err = s.repo.Period.GetActive(ctx); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		fn = s.tpStudent(period)
	}

	out := &dto.ImportResponse{Kind: kind, Total: len(rows)}
	for _, row := range rows {
		if missing := row.Missing(required...); len(missing) > 0 {
			out.Failed++
			out.Errors = append(out.Errors, dto.ImportRowError{Row: row.Number, Reason: "missing " + strings.Join(missing, ", ")})
			continue
		}
		created, err := fn(ctx, row, callerID)
		switch {
		case err != nil:
			out.Failed++
			out.Errors = append(out.Errors, dto.ImportRowError{Row: row.Number, Reason: err.Error()})
			s.logger.Warn("import row failed",
				zap.String("kind", kind),
				zap.Int("row", row.Number),
				zap.Error(perrors.Wrapf(err, "%s row %d", kind, row.Number)),
			)
		case created:
			out.Created++
		default:
			out.Skipped++
		}
	}

	s.logger.Info("import finished",
		zap.String("kind", kind),
		zap.Int("created", out.Created),
		zap.Int("skipped", out.Skipped),
		zap.Int("failed", out.Failed),
	)
	recordAudit(ctx, s.repo, s.logger, callerID, model.AuditCreate, "import", kind, filename, out)
	return out, nil
}

// ────────────────────── kinds ──────────────────────

// lecturer creates a lecturer login. An optional specialization column
// (code) also creates the lecturer profile.
func (s *importService) lecturer(ctx context.Context, row tabular.Row, callerID string) (bool, error) {
	username := row.Get("username")
	exists, err := found(s.repo.User.GetByUsername(ctx, username))
	if err != nil || exists {
		return false, err
	}

	var spec *model.Specialization
	if code := row.Get("specialization"); code != "" {
		if spec, err = s.repo.Specialization.GetByCode(ctx, code); err != nil {
			return false, notFound(err, "specialization "+code)
		}
	}

	surname, other := splitName(row.Get("name"))
	password := row.Get("password")
	if password == "" {
		password = normalizeName(row.Get("name"))
	}
	user, err := newUser(username, surname, other, row.Get("email"), row.Get("sex"), model.RoleLecturer, password, callerID)
	if err != nil {
		return false, err
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.User.Create(ctx, user); err != nil {
			return err
		}
		if spec == nil {
			return nil
		}
		lecturer := &model.Lecturer{UserID: user.UserID, SpecializationID: spec.SpecializationID, Role: model.LecturerRoleLecturer}
		lecturer.Stamp(callerID)
		return txRepo.Lecturer.Create(ctx, lecturer)
	})
	return err == nil, err
}

func (s *importService) specialization(ctx context.Context, row tabular.Row, callerID string) (bool, error) {
	code := row.Get("code")
	exists, err := found(s.repo.Specialization.GetByCode(ctx, code))
	if err != nil || exists {
		return false, err
	}

	mode := strings.ToUpper(row.Get("mode"))
	if mode != model.ModeDistanceLearning && mode != model.ModeFullTime {
		return false, errors.New("mode must be DL or FT")
	}
	course, err := s.repo.Course.GetByCode(ctx, row.Get("course"))
	if err != nil {
		return false, notFound(err, "course "+row.Get("course"))
	}

	spec := &model.Specialization{Code: code, Name: row.Get("name"), Mode: mode, CourseID: course.CourseID}
	spec.Stamp(callerID)
	if err := s.repo.Specialization.Create(ctx, spec); err != nil {
		return false, err
	}
	return true, nil
}

func (s *importService) paper(ctx context.Context, row tabular.Row, callerID string) (bool, error) {
	code := row.Get("code")
	exists, err := found(s.repo.Paper.GetByCode(ctx, code))
	if err != nil || exists {
		return false, err
	}

	spec, err := s.repo.Specialization.GetByCode(ctx, row.Get("specialization"))
	if err != nil {
		return false, notFound(err, "specialization "+row.Get("specialization"))
	}

	paper := &model.Paper{Code: code, Name: row.Get("name"), SpecializationID: spec.SpecializationID}
	paper.Stamp(callerID)
	if err := s.repo.Paper.Create(ctx, paper); err != nil {
		return false, err
	}
	return true, nil
}

func (s *importService) module(ctx context.Context, row tabular.Row, callerID string) (bool, error) {
	code := row.Get("code")
	exists, err := found(s.repo.Module.GetByCode(ctx, code))
	if err != nil || exists {
		return false, err
	}

	paper, err := s.repo.Paper.GetByCode(ctx, row.Get("paper"))
	if err != nil {
		return false, notFound(err, "paper "+row.Get("paper"))
	}

	module := &model.Module{Code: code, Name: row.Get("name"), PaperID: paper.PaperID}
	module.Stamp(callerID)
	if err := s.repo.Module.Create(ctx, module); err != nil {
		return false, err
	}
	return true, nil
}

func (s *importService) student(ctx context.Context, row tabular.Row, callerID string) (bool, error) {
	admission := row.Get("admission")
	exists, err := found(s.repo.Student.GetByAdmission(ctx, admission))
	if err != nil || exists {
		return false, err
	}
	if exists, err = found(s.repo.User.GetByUsername(ctx, admission)); err != nil || exists {
		return false, err
	}

	spec, err := s.repo.Specialization.GetByCode(ctx, row.Get("specialization"))
	if err != nil {
		return false, notFound(err, "specialization "+row.Get("specialization"))
	}

	mode := strings.ToUpper(row.Get("mode"))
	if mode == "" {
		mode = spec.Mode
	}
	if mode != model.ModeDistanceLearning && mode != model.ModeFullTime {
		return false, errors.New("mode must be DL or FT")
	}
	year := 1
	if v := row.Get("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil || year < 1 || year > 2 {
			return false, errors.New("year must be 1 or 2")
		}
	}

	surname, other := splitName(row.Get("name"))
	user, err := newUser(admission, surname, other, row.Get("email"), row.Get("sex"), model.RoleStudent, admission, callerID)
	if err != nil {
		return false, err
	}
	student := &model.Student{
		Admission:        admission,
		SpecializationID: spec.SpecializationID,
		Centre:           row.Get("centre"),
		Mode:             mode,
		Year:             year,
	}
	student.Stamp(callerID)

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.User.Create(ctx, user); err != nil {
			return err
		}
		student.UserID = user.UserID
		return txRepo.Student.Create(ctx, student)
	})
	return err == nil, err
}

// tpStudent adds teaching practice students to the active period, if any
func (s *importService) tpStudent(period *model.Period) rowImporter {
	return func(ctx context.Context, row tabular.Row, callerID string) (bool, error) {
		index := strings.ToUpper(row.Get("index"))
		exists, err := found(s.repo.TPStudent.GetByIndex(ctx, index))
		if err != nil || exists {
			return false, err
		}

		st := &model.TPStudent{
			FullName: normalizeName(row.Get("full_name")),
			Sex:      normalizeSex(row.Get("sex")),
			Index:    index,
			Email:    strings.ToLower(row.Get("email")),
		}
		if period != nil {
			st.PeriodID = &period.PeriodID
		}
		st.Stamp(callerID)
		if err := s.repo.TPStudent.Create(ctx, st); err != nil {
			return false, err
		}
		return true, nil
	}
}

// ────────────────────── helpers ──────────────────────

// found turns a lookup into an existence check
func found[T any](_ T, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.New(what + " not found")
	}
	return err
}
