package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	pkgerrors "github.com/Koomefranklin/kise-results-backend/pkg/errors"
)

var (
	ErrScoreNotFound              = errors.New("score not found")
	ErrScoreExists                = errors.New("student already has a score for this module")
	ErrSitinNotFound              = errors.New("sit-in CAT not found")
	ErrSitinExists                = errors.New("student already has a sit-in CAT for this paper")
	ErrStudentNotInSpecialization = errors.New("student is not in the paper's specialization")
)

// ScoreService module scores and sit-in CATs
type ScoreService interface {
	CreateModuleScore(ctx context.Context, req *dto.CreateModuleScoreRequest, caller Caller) (*dto.ModuleScoreResponse, error)
	UpdateModuleScore(ctx context.Context, id string, req *dto.UpdateModuleScoreRequest, caller Caller) (*dto.ModuleScoreResponse, error)
	ListModuleScores(ctx context.Context, req *dto.ScoreListRequest, caller Caller) ([]dto.ModuleScoreResponse, int64, error)
	DeleteModuleScore(ctx context.Context, id string, caller Caller) error

	CreateSitin(ctx context.Context, req *dto.CreateSitinCatRequest, caller Caller) (*dto.SitinCatResponse, error)
	UpdateSitin(ctx context.Context, id string, req *dto.UpdateSitinCatRequest, caller Caller) (*dto.SitinCatResponse, error)
	ListSitins(ctx context.Context, req *dto.ScoreListRequest, caller Caller) ([]dto.SitinCatResponse, int64, error)
	DeleteSitin(ctx context.Context, id string, caller Caller) error
}

type scoreService struct {
	repo      *repository.Repository
	deadlines DeadlineService
	logger    *zap.Logger
}

// NewScoreService creates a ScoreService
func NewScoreService(repo *repository.Repository, deadlines DeadlineService, logger *zap.Logger) ScoreService {
	return &scoreService{repo: repo, deadlines: deadlines, logger: logger}
}

// ════════════════════════════ module scores ════════════════════════════

func (s *scoreService) CreateModuleScore(ctx context.Context, req *dto.CreateModuleScoreRequest, caller Caller) (*dto.ModuleScoreResponse, error) {
	module, err := s.repo.Module.GetByID(ctx, req.ModuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}
	student, err := s.student(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	specID := paperSpecialization(module.Paper)
	if student.SpecializationID != specID {
		return nil, ErrStudentNotInSpecialization
	}
	if !caller.canWriteSpecialization(specID) {
		return nil, ErrNoPermission
	}
	if err := s.deadlines.Check(ctx, caller, moduleScoreDeadlines(req.Discussion, req.TakeAway)...); err != nil {
		return nil, err
	}

	score := &model.ModuleScore{
		StudentID:  student.StudentID,
		ModuleID:   module.ModuleID,
		Discussion: req.Discussion,
		TakeAway:   req.TakeAway,
	}
	score.Stamp(caller.UserID)
	if err := s.repo.ModuleScore.Create(ctx, score); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrScoreExists
		}
		s.logger.Error("failed to create module score", zap.Error(err))
		return nil, err
	}

	score.Student = student
	score.Module = module
	return toModuleScoreResponse(score), nil
}

func (s *scoreService) UpdateModuleScore(ctx context.Context, id string, req *dto.UpdateModuleScoreRequest, caller Caller) (*dto.ModuleScoreResponse, error) {
	score, err := s.moduleScore(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.canWriteSpecialization(paperSpecialization(score.Module.Paper)) {
		return nil, ErrNoPermission
	}
	if err := s.deadlines.Check(ctx, caller, moduleScoreDeadlines(req.Discussion, req.TakeAway)...); err != nil {
		return nil, err
	}

	if req.Discussion != nil {
		score.Discussion = req.Discussion
	}
	if req.TakeAway != nil {
		score.TakeAway = req.TakeAway
	}
	score.Stamp(caller.UserID)

	if err := s.repo.ModuleScore.Update(ctx, score); err != nil {
		s.logger.Error("failed to update module score", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toModuleScoreResponse(score), nil
}

func (s *scoreService) ListModuleScores(ctx context.Context, req *dto.ScoreListRequest, caller Caller) ([]dto.ModuleScoreResponse, int64, error) {
	filter, err := s.scoreFilter(ctx, req, caller)
	if err != nil {
		return nil, 0, err
	}
	scores, total, err := s.repo.ModuleScore.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list module scores", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.ModuleScoreResponse, 0, len(scores))
	for i := range scores {
		out = append(out, *toModuleScoreResponse(&scores[i]))
	}
	return out, total, nil
}

func (s *scoreService) DeleteModuleScore(ctx context.Context, id string, caller Caller) error {
	score, err := s.moduleScore(ctx, id)
	if err != nil {
		return err
	}
	if !caller.canWriteSpecialization(paperSpecialization(score.Module.Paper)) {
		return ErrNoPermission
	}
	if err := s.deadlines.Check(ctx, caller, moduleScoreDeadlines(score.Discussion, score.TakeAway)...); err != nil {
		return err
	}
	if err := s.repo.ModuleScore.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete module score", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *scoreService) moduleScore(ctx context.Context, id string) (*model.ModuleScore, error) {
	score, err := s.repo.ModuleScore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScoreNotFound
		}
		s.logger.Error("failed to load module score", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if score.Module == nil {
		return nil, ErrModuleNotFound
	}
	return score, nil
}

// moduleScoreDeadlines the deadlines guarding the fields being written
func moduleScoreDeadlines(discussion, takeAway *float64) []string {
	var names []string
	if discussion != nil {
		names = append(names, model.DeadlineDiscussion)
	}
	if takeAway != nil {
		names = append(names, model.DeadlineTakeaway)
	}
	return names
}

func toModuleScoreResponse(m *model.ModuleScore) *dto.ModuleScoreResponse {
	out := &dto.ModuleScoreResponse{
		ID:         m.ModuleScoreID,
		Discussion: m.Discussion,
		TakeAway:   m.TakeAway,
		UpdatedAt:  dto.Timestamp(m.UpdatedAt),
	}
	out.Student = studentBrief(m.StudentID, m.Student)
	if m.Module != nil {
		out.Module = &dto.BriefResponse{ID: m.Module.ModuleID, Code: m.Module.Code, Name: m.Module.Name}
	}
	return out
}

// ════════════════════════════ sit-in CATs ════════════════════════════

func (s *scoreService) CreateSitin(ctx context.Context, req *dto.CreateSitinCatRequest, caller Caller) (*dto.SitinCatResponse, error) {
	paper, err := loadPaper(ctx, s.repo, req.PaperID)
	if err != nil {
		return nil, err
	}
	student, err := s.student(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if student.SpecializationID != paper.SpecializationID {
		return nil, ErrStudentNotInSpecialization
	}
	if !caller.canWriteSpecialization(paper.SpecializationID) {
		return nil, ErrNoPermission
	}
	if err := s.deadlines.Check(ctx, caller, sitinDeadlines(req.Cat1, req.Cat2)...); err != nil {
		return nil, err
	}

	sitin := &model.SitinCat{
		StudentID: student.StudentID,
		PaperID:   paper.PaperID,
		Cat1:      req.Cat1,
		Cat2:      req.Cat2,
	}
	sitin.Stamp(caller.UserID)
	if err := s.repo.SitinCat.Create(ctx, sitin); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrSitinExists
		}
		s.logger.Error("failed to create sit-in cat", zap.Error(err))
		return nil, err
	}

	sitin.Student = student
	sitin.Paper = paper
	return toSitinResponse(sitin), nil
}

func (s *scoreService) UpdateSitin(ctx context.Context, id string, req *dto.UpdateSitinCatRequest, caller Caller) (*dto.SitinCatResponse, error) {
	sitin, err := s.sitin(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.canWriteSpecialization(paperSpecialization(sitin.Paper)) {
		return nil, ErrNoPermission
	}
	if err := s.deadlines.Check(ctx, caller, sitinDeadlines(req.Cat1, req.Cat2)...); err != nil {
		return nil, err
	}

	if req.Cat1 != nil {
		sitin.Cat1 = req.Cat1
	}
	if req.Cat2 != nil {
		sitin.Cat2 = req.Cat2
	}
	sitin.Stamp(caller.UserID)

	if err := s.repo.SitinCat.Update(ctx, sitin); err != nil {
		s.logger.Error("failed to update sit-in cat", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toSitinResponse(sitin), nil
}

func (s *scoreService) ListSitins(ctx context.Context, req *dto.ScoreListRequest, caller Caller) ([]dto.SitinCatResponse, int64, error) {
	filter, err := s.scoreFilter(ctx, req, caller)
	if err != nil {
		return nil, 0, err
	}
	sitins, total, err := s.repo.SitinCat.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list sit-in cats", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.SitinCatResponse, 0, len(sitins))
	for i := range sitins {
		out = append(out, *toSitinResponse(&sitins[i]))
	}
	return out, total, nil
}

func (s *scoreService) DeleteSitin(ctx context.Context, id string, caller Caller) error {
	sitin, err := s.sitin(ctx, id)
	if err != nil {
		return err
	}
	if !caller.canWriteSpecialization(paperSpecialization(sitin.Paper)) {
		return ErrNoPermission
	}
	if err := s.deadlines.Check(ctx, caller, sitinDeadlines(sitin.Cat1, sitin.Cat2)...); err != nil {
		return err
	}
	if err := s.repo.SitinCat.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete sit-in cat", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *scoreService) sitin(ctx context.Context, id string) (*model.SitinCat, error) {
	sitin, err := s.repo.SitinCat.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSitinNotFound
		}
		s.logger.Error("failed to load sit-in cat", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return sitin, nil
}

func sitinDeadlines(cat1, cat2 *float64) []string {
	var names []string
	if cat1 != nil {
		names = append(names, model.DeadlineCat1)
	}
	if cat2 != nil {
		names = append(names, model.DeadlineCat2)
	}
	return names
}

func toSitinResponse(m *model.SitinCat) *dto.SitinCatResponse {
	out := &dto.SitinCatResponse{
		ID:        m.SitinCatID,
		Cat1:      m.Cat1,
		Cat2:      m.Cat2,
		UpdatedAt: dto.Timestamp(m.UpdatedAt),
	}
	out.Student = studentBrief(m.StudentID, m.Student)
	if m.Paper != nil {
		out.Paper = &dto.BriefResponse{ID: m.Paper.PaperID, Code: m.Paper.Code, Name: m.Paper.Name}
	}
	return out
}

// ════════════════════════════ shared ════════════════════════════

func (s *scoreService) student(ctx context.Context, id string) (*model.Student, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

// scoreFilter applies role visibility: students see their own rows only
func (s *scoreService) scoreFilter(ctx context.Context, req *dto.ScoreListRequest, caller Caller) (repository.ScoreFilter, error) {
	filter := repository.ScoreFilter{
		PaperID:           req.PaperID,
		ModuleID:          req.ModuleID,
		StudentID:         req.StudentID,
		SpecializationIDs: caller.specializationScope(),
	}
	if caller.IsStudent() {
		id, err := ownStudentID(ctx, s.repo, caller)
		if err != nil {
			return filter, err
		}
		filter.StudentID = id
		filter.SpecializationIDs = nil
	}
	return filter, nil
}

// ownStudentID the student row of a student caller. A student login with no
// profile matches nothing.
func ownStudentID(ctx context.Context, repo *repository.Repository, caller Caller) (string, error) {
	st, err := repo.Student.GetByUserID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "00000000-0000-0000-0000-000000000000", nil
		}
		return "", err
	}
	return st.StudentID, nil
}

func paperSpecialization(p *model.Paper) string {
	if p == nil {
		return ""
	}
	return p.SpecializationID
}

func studentBrief(id string, st *model.Student) *dto.BriefResponse {
	b := &dto.BriefResponse{ID: id}
	if st != nil {
		b.Code = st.Admission
		if st.User != nil {
			b.Name = st.User.FullName()
		}
	}
	return b
}
