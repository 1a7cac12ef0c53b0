package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	pkgerrors "github.com/Koomefranklin/kise-results-backend/pkg/errors"
)

var (
	ErrSectionNotFound      = errors.New("section not found")
	ErrSectionInUse         = errors.New("section is used by assessment letters")
	ErrSubSectionNotFound   = errors.New("sub-section not found")
	ErrSubSectionMismatch   = errors.New("sub-section belongs to another section")
	ErrAspectNotFound       = errors.New("aspect not found")
	ErrAspectInUse          = errors.New("aspect is used by assessment letters")
	ErrSectionNumberExists  = errors.New("assessment type already has a section with this number")
	ErrRubricNotTypeManager = errors.New("only admins of the assessment type may change its rubric")
)

// RubricService sections, sub-sections and aspects of assessment types.
// Any authenticated user reads; admins of the owning type write.
type RubricService interface {
	CreateSection(ctx context.Context, req *dto.SectionRequest, caller Caller) (*dto.SectionResponse, error)
	GetSection(ctx context.Context, id string) (*dto.SectionResponse, error)
	ListSections(ctx context.Context, req *dto.RubricListRequest) ([]dto.SectionResponse, error)
	UpdateSection(ctx context.Context, id string, req *dto.SectionRequest, caller Caller) (*dto.SectionResponse, error)
	DeleteSection(ctx context.Context, id string, caller Caller) error

	CreateSubSection(ctx context.Context, req *dto.SubSectionRequest, caller Caller) (*dto.SubSectionResponse, error)
	GetSubSection(ctx context.Context, id string) (*dto.SubSectionResponse, error)
	ListSubSections(ctx context.Context, req *dto.RubricListRequest) ([]dto.SubSectionResponse, error)
	UpdateSubSection(ctx context.Context, id string, req *dto.SubSectionRequest, caller Caller) (*dto.SubSectionResponse, error)
	DeleteSubSection(ctx context.Context, id string, caller Caller) error

	CreateAspect(ctx context.Context, req *dto.AspectRequest, caller Caller) (*dto.AspectResponse, error)
	GetAspect(ctx context.Context, id string) (*dto.AspectResponse, error)
	ListAspects(ctx context.Context, req *dto.RubricListRequest) (*dto.AspectListResponse, error)
	UpdateAspect(ctx context.Context, id string, req *dto.AspectRequest, caller Caller) (*dto.AspectResponse, error)
	DeleteAspect(ctx context.Context, id string, caller Caller) error
}

type rubricService struct {
	repo   *repository.Repository
	tp     *TPAccess
	logger *zap.Logger
}

// NewRubricService creates a RubricService
func NewRubricService(repo *repository.Repository, tp *TPAccess, logger *zap.Logger) RubricService {
	return &rubricService{repo: repo, tp: tp, logger: logger}
}

func rubricFilter(req *dto.RubricListRequest) repository.RubricFilter {
	return repository.RubricFilter{
		AssessmentTypeID: req.AssessmentTypeID,
		SectionID:        req.SectionID,
		Search:           req.Keyword,
	}
}

// requireManager fails unless caller administers typeID
func (s *rubricService) requireManager(ctx context.Context, caller Caller, typeID string) error {
	ok, err := s.tp.CanManageType(ctx, caller, typeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRubricNotTypeManager
	}
	return nil
}

// ────────────────────── Sections ──────────────────────

func (s *rubricService) CreateSection(ctx context.Context, req *dto.SectionRequest, caller Caller) (*dto.SectionResponse, error) {
	if _, err := s.repo.AssessmentType.GetByID(ctx, req.AssessmentTypeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentTypeNotFound
		}
		return nil, err
	}
	if err := s.requireManager(ctx, caller, req.AssessmentTypeID); err != nil {
		return nil, err
	}

	section := &model.Section{
		AssessmentTypeID: req.AssessmentTypeID,
		Number:           req.Number,
		Name:             strings.TrimSpace(req.Name),
		Contribution:     req.Contribution,
	}
	section.Stamp(caller.UserID)

	if err := s.repo.Rubric.CreateSection(ctx, section); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrSectionNumberExists
		}
		s.logger.Error("failed to create section", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditCreate, "tp_section", section.SectionID, section.Name, req)
	return s.GetSection(ctx, section.SectionID)
}

func (s *rubricService) GetSection(ctx context.Context, id string) (*dto.SectionResponse, error) {
	section, err := s.loadSection(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSectionResponse(section), nil
}

func (s *rubricService) ListSections(ctx context.Context, req *dto.RubricListRequest) ([]dto.SectionResponse, error) {
	sections, err := s.repo.Rubric.ListSections(ctx, rubricFilter(req))
	if err != nil {
		s.logger.Error("failed to list sections", zap.Error(err))
		return nil, err
	}
	out := make([]dto.SectionResponse, 0, len(sections))
	for i := range sections {
		out = append(out, *toSectionResponse(&sections[i]))
	}
	return out, nil
}

func (s *rubricService) UpdateSection(ctx context.Context, id string, req *dto.SectionRequest, caller Caller) (*dto.SectionResponse, error) {
	section, err := s.loadSection(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, caller, section.AssessmentTypeID); err != nil {
		return nil, err
	}
	if req.AssessmentTypeID != section.AssessmentTypeID {
		if err := s.requireManager(ctx, caller, req.AssessmentTypeID); err != nil {
			return nil, err
		}
	}

	section.AssessmentTypeID = req.AssessmentTypeID
	section.Number = req.Number
	section.Name = strings.TrimSpace(req.Name)
	section.Contribution = req.Contribution
	section.Stamp(caller.UserID)

	if err := s.repo.Rubric.UpdateSection(ctx, section); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrSectionNumberExists
		}
		if pkgerrors.IsForeignKeyViolation(err) {
			return nil, ErrAssessmentTypeNotFound
		}
		s.logger.Error("failed to update section", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditChange, "tp_section", id, section.Name, req)
	return s.GetSection(ctx, id)
}

func (s *rubricService) DeleteSection(ctx context.Context, id string, caller Caller) error {
	section, err := s.loadSection(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, caller, section.AssessmentTypeID); err != nil {
		return err
	}
	if err := s.repo.Rubric.DeleteSection(ctx, id); err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrSectionInUse
		}
		s.logger.Error("failed to delete section", zap.String("id", id), zap.Error(err))
		return err
	}
	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditDelete, "tp_section", id, section.Name, nil)
	return nil
}

func (s *rubricService) loadSection(ctx context.Context, id string) (*model.Section, error) {
	section, err := s.repo.Rubric.GetSection(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		return nil, err
	}
	return section, nil
}

// ────────────────────── Sub-sections ──────────────────────

func (s *rubricService) CreateSubSection(ctx context.Context, req *dto.SubSectionRequest, caller Caller) (*dto.SubSectionResponse, error) {
	section, err := s.loadSection(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, caller, section.AssessmentTypeID); err != nil {
		return nil, err
	}

	sub := &model.SubSection{
		SectionID:    section.SectionID,
		Name:         strings.TrimSpace(req.Name),
		Contribution: req.Contribution,
	}
	sub.Stamp(caller.UserID)

	if err := s.repo.Rubric.CreateSubSection(ctx, sub); err != nil {
		s.logger.Error("failed to create sub-section", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditCreate, "tp_sub_section", sub.SubSectionID, sub.Name, req)
	return s.GetSubSection(ctx, sub.SubSectionID)
}

func (s *rubricService) GetSubSection(ctx context.Context, id string) (*dto.SubSectionResponse, error) {
	sub, err := s.loadSubSection(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSubSectionResponse(sub), nil
}

func (s *rubricService) ListSubSections(ctx context.Context, req *dto.RubricListRequest) ([]dto.SubSectionResponse, error) {
	subs, err := s.repo.Rubric.ListSubSections(ctx, rubricFilter(req))
	if err != nil {
		s.logger.Error("failed to list sub-sections", zap.Error(err))
		return nil, err
	}
	out := make([]dto.SubSectionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, *toSubSectionResponse(&subs[i]))
	}
	return out, nil
}

func (s *rubricService) UpdateSubSection(ctx context.Context, id string, req *dto.SubSectionRequest, caller Caller) (*dto.SubSectionResponse, error) {
	sub, err := s.loadSubSection(ctx, id)
	if err != nil {
		return nil, err
	}
	section, err := s.loadSection(ctx, sub.SectionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, caller, section.AssessmentTypeID); err != nil {
		return nil, err
	}
	if req.SectionID != sub.SectionID {
		target, err := s.loadSection(ctx, req.SectionID)
		if err != nil {
			return nil, err
		}
		if err := s.requireManager(ctx, caller, target.AssessmentTypeID); err != nil {
			return nil, err
		}
	}

	sub.SectionID = req.SectionID
	sub.Name = strings.TrimSpace(req.Name)
	sub.Contribution = req.Contribution
	sub.Stamp(caller.UserID)

	if err := s.repo.Rubric.UpdateSubSection(ctx, sub); err != nil {
		s.logger.Error("failed to update sub-section", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditChange, "tp_sub_section", id, sub.Name, req)
	return s.GetSubSection(ctx, id)
}

func (s *rubricService) DeleteSubSection(ctx context.Context, id string, caller Caller) error {
	sub, err := s.loadSubSection(ctx, id)
	if err != nil {
		return err
	}
	section, err := s.loadSection(ctx, sub.SectionID)
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, caller, section.AssessmentTypeID); err != nil {
		return err
	}
	if err := s.repo.Rubric.DeleteSubSection(ctx, id); err != nil {
		s.logger.Error("failed to delete sub-section", zap.String("id", id), zap.Error(err))
		return err
	}
	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditDelete, "tp_sub_section", id, sub.Name, nil)
	return nil
}

func (s *rubricService) loadSubSection(ctx context.Context, id string) (*model.SubSection, error) {
	sub, err := s.repo.Rubric.GetSubSection(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubSectionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// ────────────────────── Aspects ──────────────────────

func (s *rubricService) CreateAspect(ctx context.Context, req *dto.AspectRequest, caller Caller) (*dto.AspectResponse, error) {
	section, err := s.loadSection(ctx, req.SectionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, caller, section.AssessmentTypeID); err != nil {
		return nil, err
	}
	if err := s.checkSubSection(ctx, req.SubSectionID, section.SectionID); err != nil {
		return nil, err
	}

	aspect := &model.Aspect{
		SectionID:    section.SectionID,
		SubSectionID: req.SubSectionID,
		Name:         strings.TrimSpace(req.Name),
		Contribution: req.Contribution,
		IsActive:     true,
	}
	if req.IsActive != nil {
		aspect.IsActive = *req.IsActive
	}
	aspect.Stamp(caller.UserID)

	if err := s.repo.Rubric.CreateAspect(ctx, aspect); err != nil {
		s.logger.Error("failed to create aspect", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditCreate, "tp_aspect", aspect.AspectID, aspect.Name, req)
	return s.GetAspect(ctx, aspect.AspectID)
}

func (s *rubricService) GetAspect(ctx context.Context, id string) (*dto.AspectResponse, error) {
	aspect, err := s.loadAspect(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAspectResponse(aspect), nil
}

// ListAspects also sums the contributions of the listed aspects
func (s *rubricService) ListAspects(ctx context.Context, req *dto.RubricListRequest) (*dto.AspectListResponse, error) {
	aspects, err := s.repo.Rubric.ListAspects(ctx, rubricFilter(req))
	if err != nil {
		s.logger.Error("failed to list aspects", zap.Error(err))
		return nil, err
	}
	out := &dto.AspectListResponse{Aspects: make([]dto.AspectResponse, 0, len(aspects))}
	for i := range aspects {
		out.Aspects = append(out.Aspects, *toAspectResponse(&aspects[i]))
		out.TotalContribution += aspects[i].Contribution
	}
	return out, nil
}

func (s *rubricService) UpdateAspect(ctx context.Context, id string, req *dto.AspectRequest, caller Caller) (*dto.AspectResponse, error) {
	aspect, err := s.loadAspect(ctx, id)
	if err != nil {
		return nil, err
	}
	section, err := s.loadSection(ctx, aspect.SectionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, caller, section.AssessmentTypeID); err != nil {
		return nil, err
	}
	if req.SectionID != aspect.SectionID {
		target, err := s.loadSection(ctx, req.SectionID)
		if err != nil {
			return nil, err
		}
		if err := s.requireManager(ctx, caller, target.AssessmentTypeID); err != nil {
			return nil, err
		}
	}
	if err := s.checkSubSection(ctx, req.SubSectionID, req.SectionID); err != nil {
		return nil, err
	}

	aspect.SectionID = req.SectionID
	aspect.SubSectionID = req.SubSectionID
	aspect.Name = strings.TrimSpace(req.Name)
	aspect.Contribution = req.Contribution
	if req.IsActive != nil {
		aspect.IsActive = *req.IsActive
	}
	aspect.Stamp(caller.UserID)

	if err := s.repo.Rubric.UpdateAspect(ctx, aspect); err != nil {
		s.logger.Error("failed to update aspect", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditChange, "tp_aspect", id, aspect.Name, req)
	return s.GetAspect(ctx, id)
}

func (s *rubricService) DeleteAspect(ctx context.Context, id string, caller Caller) error {
	aspect, err := s.loadAspect(ctx, id)
	if err != nil {
		return err
	}
	section, err := s.loadSection(ctx, aspect.SectionID)
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, caller, section.AssessmentTypeID); err != nil {
		return err
	}
	if err := s.repo.Rubric.DeleteAspect(ctx, id); err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrAspectInUse
		}
		s.logger.Error("failed to delete aspect", zap.String("id", id), zap.Error(err))
		return err
	}
	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditDelete, "tp_aspect", id, aspect.Name, nil)
	return nil
}

func (s *rubricService) loadAspect(ctx context.Context, id string) (*model.Aspect, error) {
	aspect, err := s.repo.Rubric.GetAspect(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAspectNotFound
		}
		return nil, err
	}
	return aspect, nil
}

// checkSubSection a sub-section, when given, must sit under sectionID
func (s *rubricService) checkSubSection(ctx context.Context, subID *string, sectionID string) error {
	if subID == nil {
		return nil
	}
	sub, err := s.loadSubSection(ctx, *subID)
	if err != nil {
		return err
	}
	if sub.SectionID != sectionID {
		return ErrSubSectionMismatch
	}
	return nil
}

// ────────────────────── Converters ──────────────────────

func toSectionResponse(s *model.Section) *dto.SectionResponse {
	resp := &dto.SectionResponse{
		ID:           s.SectionID,
		Number:       s.Number,
		Name:         s.Name,
		Contribution: s.Contribution,
	}
	if s.AssessmentType != nil {
		resp.AssessmentType = &dto.BriefResponse{ID: s.AssessmentType.AssessmentTypeID, Code: s.AssessmentType.ShortName, Name: s.AssessmentType.Name}
	}
	return resp
}

func toSubSectionResponse(s *model.SubSection) *dto.SubSectionResponse {
	resp := &dto.SubSectionResponse{
		ID:           s.SubSectionID,
		Name:         s.Name,
		Contribution: s.Contribution,
	}
	if s.Section != nil {
		resp.Section = &dto.BriefResponse{ID: s.Section.SectionID, Name: s.Section.Name}
	}
	return resp
}

func toAspectResponse(a *model.Aspect) *dto.AspectResponse {
	resp := &dto.AspectResponse{
		ID:           a.AspectID,
		Name:         a.Name,
		Contribution: a.Contribution,
		IsActive:     a.IsActive,
	}
	if a.Section != nil {
		resp.Section = &dto.BriefResponse{ID: a.Section.SectionID, Name: a.Section.Name}
	}
	if a.SubSection != nil {
		resp.SubSection = &dto.BriefResponse{ID: a.SubSection.SubSectionID, Name: a.SubSection.Name}
	}
	return resp
}
