package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/config"
	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	"github.com/Koomefranklin/kise-results-backend/pkg/mailer"
	"github.com/Koomefranklin/kise-results-backend/pkg/report"
	"github.com/Koomefranklin/kise-results-backend/pkg/scoring"
)

var (
	ErrLetterNotFound         = errors.New("assessment letter not found")
	ErrStudentSectionNotFound = errors.New("letter section not found")
	ErrStudentAspectNotFound  = errors.New("letter aspect not found")
	ErrTypeHasNoSections      = errors.New("assessment type has no sections, add its rubric first")
	ErrLetterLocked           = errors.New("letter is completed and can no longer be edited")
	ErrNotAssessor            = errors.New("only the assessor may change this letter")
	ErrLetterIncomplete       = errors.New("letter is not ready to be completed")
	ErrDeletionPending        = errors.New("deletion of this letter was already requested")
	ErrDeletionNotRequested   = errors.New("deletion of this letter was not requested")
	ErrInvalidDateFilter      = errors.New("dates must be RFC3339 or YYYY-MM-DD")
)

// IncompleteLetterError lists what must be filled before a letter can be
// completed
type IncompleteLetterError struct {
	Fields   []string
	Sections []string
}

func (e *IncompleteLetterError) Error() string {
	var parts []string
	if len(e.Fields) > 0 {
		parts = append(parts, "missing details: "+strings.Join(e.Fields, ", "))
	}
	if len(e.Sections) > 0 {
		parts = append(parts, "sections without comments: "+strings.Join(e.Sections, ", "))
	}
	return strings.Join(parts, "; ")
}

func (e *IncompleteLetterError) Unwrap() error { return ErrLetterIncomplete }

// LetterService the teaching practice assessment workflow
type LetterService interface {
	Create(ctx context.Context, req *dto.CreateLetterRequest, caller Caller) (*dto.LetterResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.LetterResponse, error)
	List(ctx context.Context, req *dto.LetterListRequest, caller Caller) ([]dto.LetterSummaryResponse, int64, error)
	UpdateDetails(ctx context.Context, id string, req *dto.UpdateLetterDetailsRequest, caller Caller) (*dto.LetterResponse, error)
	ScoreAspect(ctx context.Context, id string, req *dto.ScoreAspectRequest, caller Caller) (*dto.ScoreAspectResponse, error)
	CommentSection(ctx context.Context, id string, req *dto.CommentSectionRequest, caller Caller) (*dto.CommentSectionResponse, error)
	Complete(ctx context.Context, id string, req *dto.CompleteLetterRequest, caller Caller) (*dto.CompleteLetterResponse, error)
	Report(ctx context.Context, id string, caller Caller) ([]byte, string, error)

	RequestDeletion(ctx context.Context, id string, req *dto.DeletionRequest, caller Caller) error
	CancelDeletion(ctx context.Context, id string, caller Caller) error
	Delete(ctx context.Context, id string, caller Caller) error
	PendingDeletion(ctx context.Context, req *dto.PaginationRequest, caller Caller) ([]dto.LetterSummaryResponse, int64, error)

	Dashboard(ctx context.Context, caller Caller) (*dto.DashboardResponse, error)
}

type letterService struct {
	cfg    *config.Config
	repo   *repository.Repository
	tp     *TPAccess
	mail   mailer.Mailer
	logger *zap.Logger

	loc        *time.Location
	classStart time.Duration // since midnight
	classEnd   time.Duration
}

// NewLetterService creates a LetterService
func NewLetterService(
	cfg *config.Config,
	repo *repository.Repository,
	tp *TPAccess,
	mail mailer.Mailer,
	logger *zap.Logger,
) LetterService {
	s := &letterService{
		cfg:        cfg,
		repo:       repo,
		tp:         tp,
		mail:       mail,
		logger:     logger,
		loc:        time.Local,
		classStart: 8 * time.Hour,
		classEnd:   17 * time.Hour,
	}
	if loc, err := time.LoadLocation(cfg.TP.Location); err == nil {
		s.loc = loc
	} else {
		logger.Warn("unknown tp location, using local time", zap.String("location", cfg.TP.Location), zap.Error(err))
	}
	if d, err := clockOffset(cfg.TP.ClassStart); err == nil {
		s.classStart = d
	}
	if d, err := clockOffset(cfg.TP.ClassEnd); err == nil {
		s.classEnd = d
	}
	return s
}

// ════════════════════════════════════════════════════════════
// Create
// ════════════════════════════════════════════════════════════

// Create starts an assessment. A live letter by the same assessor for the
// same student and type younger than the reuse window is returned instead.
func (s *letterService) Create(ctx context.Context, req *dto.CreateLetterRequest, caller Caller) (*dto.LetterResponse, error) {
	period, err := requireActivePeriod(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	student, err := s.repo.TPStudent.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTPStudentNotFound
		}
		return nil, err
	}
	if _, err := s.repo.AssessmentType.GetByID(ctx, req.AssessmentTypeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentTypeNotFound
		}
		return nil, err
	}

	now := timeNow()
	reuseDays := s.cfg.TP.LetterReuseDays
	if reuseDays <= 0 {
		reuseDays = 4
	}
	since := now.Add(-time.Duration(reuseDays) * 24 * time.Hour)
	existing, err := s.repo.Letter.FindRecent(ctx, student.TPStudentID, caller.UserID, req.AssessmentTypeID, since)
	switch {
	case err == nil:
		resp, err := s.GetByID(ctx, existing.LetterID, caller)
		if err != nil {
			return nil, err
		}
		resp.Reused = true
		return resp, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	sections, err := s.repo.Rubric.ListSections(ctx, repository.RubricFilter{AssessmentTypeID: req.AssessmentTypeID})
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, ErrTypeHasNoSections
	}
	sectionIDs := make([]string, 0, len(sections))
	for _, sec := range sections {
		sectionIDs = append(sectionIDs, sec.SectionID)
	}
	aspects, err := s.repo.Rubric.ListActiveAspects(ctx, sectionIDs)
	if err != nil {
		return nil, err
	}
	aspectsBySection := make(map[string][]model.Aspect, len(sections))
	for _, a := range aspects {
		aspectsBySection[a.SectionID] = append(aspectsBySection[a.SectionID], a)
	}

	letter := &model.StudentLetter{
		TPStudentID:      student.TPStudentID,
		AssessorID:       caller.UserID,
		AssessmentTypeID: req.AssessmentTypeID,
		PeriodID:         &period.PeriodID,
		LateSubmission:   s.isLate(now),
		IsEditable:       true,
	}
	letter.Stamp(caller.UserID)
	for _, sec := range sections {
		ss := model.StudentSection{SectionID: sec.SectionID}
		ss.Stamp(caller.UserID)
		for _, a := range aspectsBySection[sec.SectionID] {
			sa := model.StudentAspect{AspectID: a.AspectID}
			sa.Stamp(caller.UserID)
			ss.Aspects = append(ss.Aspects, sa)
		}
		letter.Sections = append(letter.Sections, ss)
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if req.Latitude != nil && req.Longitude != nil {
			loc := &model.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
			if err := txRepo.Letter.CreateLocation(ctx, loc); err != nil {
				return err
			}
			letter.LocationID = &loc.LocationID
		}
		return txRepo.Letter.Create(ctx, letter)
	})
	if err != nil {
		s.logger.Error("failed to create letter",
			zap.String("student_id", student.TPStudentID),
			zap.String("assessment_type_id", req.AssessmentTypeID),
			zap.Error(err),
		)
		return nil, err
	}

	if letter.LateSubmission {
		s.logger.Info("letter started outside class time",
			zap.String("letter_id", letter.LetterID),
			zap.Time("at", now),
		)
	}
	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditCreate, "tp_letter", letter.LetterID, student.FullName, req)
	return s.GetByID(ctx, letter.LetterID, caller)
}

// isLate reports t outside the class window. Both ends are inclusive to
// the second.
func (s *letterService) isLate(t time.Time) bool {
	local := t.In(s.loc)
	d := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second
	return d < s.classStart || d > s.classEnd
}

// ════════════════════════════════════════════════════════════
// Read
// ════════════════════════════════════════════════════════════

func (s *letterService) GetByID(ctx context.Context, id string, caller Caller) (*dto.LetterResponse, error) {
	letter, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireVisible(ctx, caller, letter); err != nil {
		return nil, err
	}
	return toLetterResponse(letter), nil
}

func (s *letterService) List(ctx context.Context, req *dto.LetterListRequest, caller Caller) ([]dto.LetterSummaryResponse, int64, error) {
	scope, err := s.tp.LetterScope(ctx, caller)
	if err != nil {
		return nil, 0, err
	}
	from, err := parseDateFilter(req.From)
	if err != nil {
		return nil, 0, err
	}
	to, err := parseDateFilter(req.To)
	if err != nil {
		return nil, 0, err
	}

	toDelete := false
	if req.ToDelete {
		if toDelete, err = s.tp.IsTPAdmin(ctx, caller); err != nil {
			return nil, 0, err
		}
	}

	filter := repository.LetterFilter{
		Scope:            scope,
		StudentID:        req.StudentID,
		SpecializationID: req.SpecializationID,
		Department:       req.Department,
		Zone:             req.Zone,
		AssessmentTypeID: req.AssessmentTypeID,
		AssessorID:       req.AssessorID,
		From:             from,
		To:               to,
		Search:           req.Keyword,
		Incomplete:       req.Incomplete,
		ToDelete:         toDelete,
	}
	return s.list(ctx, filter, req.GetOffset(), req.GetPageSize())
}

// PendingDeletion letters awaiting a deletion decision, TP admins only
func (s *letterService) PendingDeletion(ctx context.Context, req *dto.PaginationRequest, caller Caller) ([]dto.LetterSummaryResponse, int64, error) {
	ok, err := s.tp.IsTPAdmin(ctx, caller)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, ErrNoPermission
	}
	scope, err := s.tp.LetterScope(ctx, caller)
	if err != nil {
		return nil, 0, err
	}
	return s.list(ctx, repository.LetterFilter{Scope: scope, ToDelete: true}, req.GetOffset(), req.GetPageSize())
}

func (s *letterService) list(ctx context.Context, filter repository.LetterFilter, offset, limit int) ([]dto.LetterSummaryResponse, int64, error) {
	letters, total, err := s.repo.Letter.List(ctx, filter, offset, limit)
	if err != nil {
		s.logger.Error("failed to list letters", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.LetterSummaryResponse, 0, len(letters))
	for i := range letters {
		out = append(out, toLetterSummary(&letters[i]))
	}
	return out, total, nil
}

func (s *letterService) Dashboard(ctx context.Context, caller Caller) (*dto.DashboardResponse, error) {
	scope, err := s.tp.LetterScope(ctx, caller)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Letter.Stats(ctx, scope)
	if err != nil {
		s.logger.Error("failed to count letters", zap.Error(err))
		return nil, err
	}
	out := &dto.DashboardResponse{
		Letters:   stats.Letters,
		Initiated: stats.Initiated,
		Completed: stats.Completed,
		Pending:   stats.Pending,
	}
	if out.Students, err = s.repo.TPStudent.Count(ctx); err != nil {
		return nil, err
	}
	if out.Sections, err = s.repo.Rubric.CountSections(ctx); err != nil {
		return nil, err
	}
	if out.Aspects, err = s.repo.Rubric.CountAspects(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// ════════════════════════════════════════════════════════════
// Edit
// ════════════════════════════════════════════════════════════

// UpdateDetails edits the letter particulars and the student's department
// and specialization
func (s *letterService) UpdateDetails(ctx context.Context, id string, req *dto.UpdateLetterDetailsRequest, caller Caller) (*dto.LetterResponse, error) {
	letter, err := s.editable(ctx, id, caller, false)
	if err != nil {
		return nil, err
	}

	setTrimmed(&letter.School, req.School)
	setTrimmed(&letter.Grade, req.Grade)
	setTrimmed(&letter.LearningArea, req.LearningArea)
	setTrimmed(&letter.Zone, req.Zone)
	setTrimmed(&letter.Reason, req.Reason)
	letter.Stamp(caller.UserID)

	student := letter.Student
	if student == nil {
		return nil, ErrTPStudentNotFound
	}
	studentChanged := false
	if req.Department != nil {
		setTrimmed(&student.Department, req.Department)
		studentChanged = true
	}
	if req.SpecializationID != nil {
		if _, err := s.repo.Specialization.GetByID(ctx, *req.SpecializationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSpecializationNotFound
			}
			return nil, err
		}
		student.SpecializationID = req.SpecializationID
		studentChanged = true
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Letter.Update(ctx, letter); err != nil {
			return err
		}
		if studentChanged {
			student.Stamp(caller.UserID)
			return txRepo.TPStudent.Update(ctx, student)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to update letter details", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditChange, "tp_letter", id, "details", req)
	return s.GetByID(ctx, id, caller)
}

// ScoreAspect records one aspect score, then recomputes the section score
// and the letter total
func (s *letterService) ScoreAspect(ctx context.Context, id string, req *dto.ScoreAspectRequest, caller Caller) (*dto.ScoreAspectResponse, error) {
	aspect, err := s.repo.Letter.GetAspect(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentAspectNotFound
		}
		return nil, err
	}
	section, err := s.repo.Letter.GetSection(ctx, aspect.StudentSectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentSectionNotFound
		}
		return nil, err
	}
	letter, err := s.editable(ctx, section.LetterID, caller, true)
	if err != nil {
		return nil, err
	}

	var name string
	var limit float64
	if aspect.Aspect != nil {
		name = aspect.Aspect.Name
		limit = float64(aspect.Aspect.Contribution)
	}
	if err := scoring.ValidateAspectScore(name, *req.Score, limit); err != nil {
		return nil, err
	}

	out := &dto.ScoreAspectResponse{AspectID: aspect.StudentAspectID, SectionID: section.StudentSectionID}
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		score := *req.Score
		aspect.Score = &score
		aspect.Stamp(caller.UserID)
		if err := txRepo.Letter.UpdateAspect(ctx, aspect); err != nil {
			return err
		}

		siblings, err := txRepo.Letter.ListAspects(ctx, section.StudentSectionID)
		if err != nil {
			return err
		}
		scores := make([]*float64, 0, len(siblings))
		for i := range siblings {
			scores = append(scores, siblings[i].Score)
		}
		section.Score = scoring.Round2(scoring.SectionScore(scores))
		section.Stamp(caller.UserID)
		if err := txRepo.Letter.UpdateSection(ctx, section); err != nil {
			return err
		}

		total, err := letterTotal(ctx, txRepo, letter)
		if err != nil {
			return err
		}
		letter.TotalScore = total
		letter.Stamp(caller.UserID)
		if err := txRepo.Letter.Update(ctx, letter); err != nil {
			return err
		}

		out.SectionScore = section.Score
		out.TotalScore = total
		return nil
	})
	if err != nil {
		s.logger.Error("failed to score aspect", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditChange, "tp_student_aspect", id, name, req)
	return out, nil
}

// CommentSection stores section comments and points at the next section
func (s *letterService) CommentSection(ctx context.Context, id string, req *dto.CommentSectionRequest, caller Caller) (*dto.CommentSectionResponse, error) {
	section, err := s.repo.Letter.GetSection(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentSectionNotFound
		}
		return nil, err
	}
	if _, err := s.editable(ctx, section.LetterID, caller, false); err != nil {
		return nil, err
	}

	comments := strings.TrimSpace(req.Comments)
	section.Comments = &comments
	section.Stamp(caller.UserID)
	if err := s.repo.Letter.UpdateSection(ctx, section); err != nil {
		s.logger.Error("failed to comment section", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	out := &dto.CommentSectionResponse{SectionID: section.StudentSectionID}
	siblings, err := s.repo.Letter.ListSections(ctx, section.LetterID)
	if err != nil {
		return nil, err
	}
	if section.Section != nil {
		for _, sib := range siblings {
			if sib.Section != nil && sib.Section.Number > section.Section.Number {
				out.NextSectionID = sib.StudentSectionID
				break
			}
		}
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditChange, "tp_student_section", id, "comments", nil)
	return out, nil
}

// ════════════════════════════════════════════════════════════
// Complete & report
// ════════════════════════════════════════════════════════════

// Complete locks the letter and mails the PDF report to the student. Mail
// and rendering failures come back as a warning; the letter stays locked.
func (s *letterService) Complete(ctx context.Context, id string, req *dto.CompleteLetterRequest, caller Caller) (*dto.CompleteLetterResponse, error) {
	letter, err := s.editable(ctx, id, caller, false)
	if err != nil {
		return nil, err
	}
	if err := missingFields(letter); err != nil {
		return nil, err
	}

	comments := strings.TrimSpace(req.Comments)
	letter.Comments = &comments
	letter.IsEditable = false
	letter.Stamp(caller.UserID)

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		total, err := letterTotal(ctx, txRepo, letter)
		if err != nil {
			return err
		}
		letter.TotalScore = total
		return txRepo.Letter.Update(ctx, letter)
	})
	if err != nil {
		s.logger.Error("failed to complete letter", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditChange, "tp_letter", id, "completed", map[string]interface{}{
		"total_score": letter.TotalScore,
	})

	out := &dto.CompleteLetterResponse{LetterID: letter.LetterID, TotalScore: letter.TotalScore}
	pdf, filename, err := s.render(letter)
	if err != nil {
		s.logger.Warn("failed to render report", zap.String("letter_id", id), zap.Error(err))
		out.Warning = "the report could not be generated"
		return out, nil
	}
	if err := s.mailReport(ctx, letter, pdf, filename); err != nil {
		s.logger.Warn("failed to mail report", zap.String("letter_id", id), zap.Error(err))
		out.Warning = "the report could not be emailed to the student"
		return out, nil
	}
	out.Emailed = true
	return out, nil
}

// Report regenerates the PDF of a letter
func (s *letterService) Report(ctx context.Context, id string, caller Caller) ([]byte, string, error) {
	letter, err := s.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if err := s.requireVisible(ctx, caller, letter); err != nil {
		return nil, "", err
	}
	pdf, filename, err := s.render(letter)
	if err != nil {
		s.logger.Error("failed to render report", zap.String("letter_id", id), zap.Error(err))
		return nil, "", err
	}
	return pdf, filename, nil
}

func (s *letterService) render(letter *model.StudentLetter) ([]byte, string, error) {
	doc := s.reportLetter(letter)
	pdf, err := report.Render(doc)
	if err != nil {
		return nil, "", err
	}
	return pdf, doc.Filename(), nil
}

func (s *letterService) reportLetter(letter *model.StudentLetter) *report.Letter {
	doc := &report.Letter{
		Institution:    s.cfg.Report.Institution,
		Title:          s.cfg.Report.Title,
		School:         deref(letter.School),
		Grade:          deref(letter.Grade),
		LearningArea:   deref(letter.LearningArea),
		Zone:           deref(letter.Zone),
		AssessedAt:     letter.CreatedAt.In(s.loc).Format("2006-01-02 15:04"),
		LateSubmission: letter.LateSubmission,
		LateReason:     deref(letter.Reason),
		Total:          letter.TotalScore,
		Comments:       deref(letter.Comments),
	}
	if st := letter.Student; st != nil {
		doc.StudentName = st.FullName
		doc.StudentIndex = st.Index
	}
	if at := letter.AssessmentType; at != nil {
		doc.AssessmentType = at.ShortName
		if at.Course != nil {
			doc.Course = at.Course.Name
		}
	}
	if letter.Assessor != nil {
		doc.Assessor = letter.Assessor.FullName()
	}
	if loc := letter.Location; loc != nil {
		doc.Location = strconv.FormatFloat(loc.Latitude, 'f', 6, 64) + ", " + strconv.FormatFloat(loc.Longitude, 'f', 6, 64)
	}

	for _, ss := range sortedSections(letter.Sections) {
		sec := report.Section{Score: ss.Score, Comments: deref(ss.Comments)}
		if ss.Section != nil {
			sec.Number = ss.Section.Number
			sec.Name = ss.Section.Name
			sec.Maximum = float64(ss.Section.Contribution)
		}
		for _, sa := range ss.Aspects {
			a := report.Aspect{Score: sa.Score}
			if sa.Aspect != nil {
				a.Name = sa.Aspect.Name
				a.Maximum = float64(sa.Aspect.Contribution)
			}
			sec.Aspects = append(sec.Aspects, a)
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

func (s *letterService) mailReport(ctx context.Context, letter *model.StudentLetter, pdf []byte, filename string) error {
	st := letter.Student
	if st == nil || st.Email == "" {
		return mailer.ErrNoRecipients
	}
	var assessor, typ string
	if letter.Assessor != nil {
		assessor = letter.Assessor.FullName()
	}
	if letter.AssessmentType != nil {
		typ = letter.AssessmentType.Name
	}
	return s.mail.Send(ctx, &mailer.Message{
		To:       []mail.Address{{Name: st.FullName, Address: st.Email}},
		Subject:  fmt.Sprintf("%s assessment report", typ),
		Template: "report",
		Data: map[string]string{
			"Name":           st.FullName,
			"AssessmentType": typ,
			"Assessor":       assessor,
			"Date":           letter.CreatedAt.In(s.loc).Format("2 January 2006"),
		},
		Attachments: []mailer.Attachment{{Filename: filename, ContentType: "application/pdf", Content: pdf}},
	})
}

// missingFields lists what blocks completion. Certificate courses do not
// record department, school, grade or learning area.
func missingFields(letter *model.StudentLetter) error {
	certificate := letter.AssessmentType != nil && letter.AssessmentType.Course != nil &&
		letter.AssessmentType.Course.IsCertificate()

	var fields []string
	if st := letter.Student; st != nil {
		if st.SpecializationID == nil {
			fields = append(fields, "specialization")
		}
		if !certificate && isBlank(st.Department) {
			fields = append(fields, "department")
		}
	}
	if !certificate {
		if isBlank(letter.School) {
			fields = append(fields, "school")
		}
		if isBlank(letter.Grade) {
			fields = append(fields, "grade")
		}
		if isBlank(letter.LearningArea) {
			fields = append(fields, "learning_area")
		}
	}
	if isBlank(letter.Zone) {
		fields = append(fields, "zone")
	}
	if letter.LocationID == nil {
		fields = append(fields, "location")
	}

	var sections []string
	for _, ss := range sortedSections(letter.Sections) {
		if isBlank(ss.Comments) {
			name := ss.SectionID
			if ss.Section != nil {
				name = ss.Section.Name
			}
			sections = append(sections, name)
		}
	}

	if len(fields) == 0 && len(sections) == 0 {
		return nil
	}
	return &IncompleteLetterError{Fields: fields, Sections: sections}
}

// ════════════════════════════════════════════════════════════
// Deletion workflow
// ════════════════════════════════════════════════════════════

// RequestDeletion flags the letter and mails the admins
func (s *letterService) RequestDeletion(ctx context.Context, id string, req *dto.DeletionRequest, caller Caller) error {
	letter, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if letter.AssessorID != caller.UserID {
		return ErrNotAssessor
	}
	if letter.ToDelete {
		return ErrDeletionPending
	}

	to, err := s.deletionRecipients(ctx)
	if err != nil {
		return err
	}

	now := timeNow()
	reason := strings.TrimSpace(req.Reason)
	letter.ToDelete = true
	letter.DeletionReason = &reason
	letter.RequestTime = &now
	letter.Stamp(caller.UserID)
	if err := s.repo.Letter.Update(ctx, letter); err != nil {
		s.logger.Error("failed to request letter deletion", zap.String("id", id), zap.Error(err))
		return err
	}

	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditChange, "tp_letter", id, "deletion requested", req)
	if err := s.mailDeletionRequest(ctx, letter, reason, to); err != nil {
		s.logger.Warn("failed to mail deletion request", zap.String("letter_id", id), zap.Error(err))
	}
	return nil
}

// CancelDeletion withdraws a deletion request
func (s *letterService) CancelDeletion(ctx context.Context, id string, caller Caller) error {
	letter, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if letter.AssessorID != caller.UserID {
		ok, err := s.tp.CanManageType(ctx, caller, letter.AssessmentTypeID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoPermission
		}
	}
	if !letter.ToDelete {
		return ErrDeletionNotRequested
	}

	letter.ToDelete = false
	letter.DeletionReason = nil
	letter.RequestTime = nil
	letter.Stamp(caller.UserID)
	if err := s.repo.Letter.Update(ctx, letter); err != nil {
		s.logger.Error("failed to cancel letter deletion", zap.String("id", id), zap.Error(err))
		return err
	}
	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditChange, "tp_letter", id, "deletion cancelled", nil)
	return nil
}

// Delete removes a letter whose deletion was requested, with its sections,
// aspects and location
func (s *letterService) Delete(ctx context.Context, id string, caller Caller) error {
	letter, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.tp.CanManageType(ctx, caller, letter.AssessmentTypeID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoPermission
	}
	if !letter.ToDelete {
		return ErrDeletionNotRequested
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		return txRepo.Letter.Delete(ctx, letter)
	})
	if err != nil {
		s.logger.Error("failed to delete letter", zap.String("id", id), zap.Error(err))
		return err
	}

	var summary string
	if letter.Student != nil {
		summary = letter.Student.FullName
	}
	recordAudit(ctx, s.repo, s.logger, caller.UserID, model.AuditDelete, "tp_letter", id, summary, map[string]interface{}{
		"reason":      deref(letter.DeletionReason),
		"total_score": letter.TotalScore,
	})
	return nil
}

// deletionRecipients admins with an email plus the configured admin address.
// mailer.ErrNoRecipients when nobody can be told.
func (s *letterService) deletionRecipients(ctx context.Context) ([]mail.Address, error) {
	admins, err := s.repo.User.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	var to []mail.Address
	for _, a := range admins {
		if a.Email != "" {
			to = append(to, mail.Address{Name: a.FullName(), Address: a.Email})
		}
	}
	if s.cfg.Mail.AdminEmail != "" {
		to = append(to, mail.Address{Address: s.cfg.Mail.AdminEmail})
	}
	if len(to) == 0 {
		return nil, mailer.ErrNoRecipients
	}
	return to, nil
}

func (s *letterService) mailDeletionRequest(ctx context.Context, letter *model.StudentLetter, reason string, to []mail.Address) error {
	data := map[string]string{
		"Reason": reason,
		"Date":   letter.CreatedAt.In(s.loc).Format("2006-01-02 15:04"),
		"URL":    strings.TrimRight(s.cfg.Server.BaseURL, "/") + "/api/v1/tp/letters/pending-deletion",
	}
	if letter.Assessor != nil {
		data["Assessor"] = letter.Assessor.FullName()
	}
	if letter.AssessmentType != nil {
		data["AssessmentType"] = letter.AssessmentType.ShortName
	}
	if letter.Student != nil {
		data["Student"] = letter.Student.FullName
		data["Index"] = letter.Student.Index
	}
	for _, k := range []string{"Assessor", "AssessmentType", "Student", "Index"} {
		if _, ok := data[k]; !ok {
			data[k] = ""
		}
	}

	return s.mail.Send(ctx, &mailer.Message{
		To:       to,
		Subject:  "Assessment deletion request",
		Template: "deletion_request",
		Data:     data,
	})
}

// ────────────────────── helpers ──────────────────────

func (s *letterService) load(ctx context.Context, id string) (*model.StudentLetter, error) {
	letter, err := s.repo.Letter.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLetterNotFound
		}
		return nil, err
	}
	return letter, nil
}

// editable loads a letter the caller may change right now: an active
// period, an unlocked letter and the caller as its assessor. Admins may
// edit unless assessorOnly.
func (s *letterService) editable(ctx context.Context, id string, caller Caller, assessorOnly bool) (*model.StudentLetter, error) {
	if _, err := requireActivePeriod(ctx, s.repo); err != nil {
		return nil, err
	}
	letter, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if letter.AssessorID != caller.UserID && (assessorOnly || !caller.IsAdmin()) {
		return nil, ErrNotAssessor
	}
	if !letter.IsEditable {
		return nil, ErrLetterLocked
	}
	return letter, nil
}

// requireVisible applies the list visibility rules to one letter
func (s *letterService) requireVisible(ctx context.Context, caller Caller, letter *model.StudentLetter) error {
	scope, err := s.tp.LetterScope(ctx, caller)
	if err != nil {
		return err
	}
	if !letterInScope(scope, letter) {
		return ErrNoPermission
	}
	return nil
}

func letterInScope(scope repository.LetterScope, letter *model.StudentLetter) bool {
	if scope.All || (scope.AssessorID != "" && letter.AssessorID == scope.AssessorID) {
		return true
	}
	if contains(scope.AssessmentTypeIDs, letter.AssessmentTypeID) {
		return true
	}
	if letter.Zone != nil && contains(scope.Zones, *letter.Zone) {
		return true
	}
	if st := letter.Student; st != nil && st.SpecializationID != nil && contains(scope.SpecializationIDs, *st.SpecializationID) {
		return true
	}
	return false
}

// letterTotal recomputes the letter total from its stored section scores
func letterTotal(ctx context.Context, repo *repository.Repository, letter *model.StudentLetter) (float64, error) {
	sections, err := repo.Letter.ListSections(ctx, letter.LetterID)
	if err != nil {
		return 0, err
	}
	scores := make([]float64, 0, len(sections))
	for _, ss := range sections {
		scores = append(scores, ss.Score)
	}
	var formula string
	if at := letter.AssessmentType; at != nil {
		formula = scoring.FormulaFor(at.ShortName, at.TotalFormula)
	}
	return scoring.LetterTotal(scores, formula)
}

func sortedSections(sections []model.StudentSection) []model.StudentSection {
	out := make([]model.StudentSection, len(sections))
	copy(out, sections)
	sort.SliceStable(out, func(i, j int) bool {
		return sectionNumber(&out[i]) < sectionNumber(&out[j])
	})
	return out
}

func sectionNumber(ss *model.StudentSection) int {
	if ss.Section == nil {
		return 0
	}
	return ss.Section.Number
}

// parseDateFilter accepts RFC3339 or a bare date; empty gives nil
func parseDateFilter(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, ErrInvalidDateFilter
}

// clockOffset parses HH:MM into the offset from midnight
func clockOffset(v string) (time.Duration, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func setTrimmed(dst **string, v *string) {
	if v == nil {
		return
	}
	t := strings.TrimSpace(*v)
	*dst = &t
}

func isBlank(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// ────────────────────── converters ──────────────────────

func toLetterSummary(l *model.StudentLetter) dto.LetterSummaryResponse {
	resp := dto.LetterSummaryResponse{
		ID:             l.LetterID,
		Zone:           deref(l.Zone),
		School:         deref(l.School),
		TotalScore:     l.TotalScore,
		IsEditable:     l.IsEditable,
		IsComplete:     l.IsComplete(),
		LateSubmission: l.LateSubmission,
		ToDelete:       l.ToDelete,
		CreatedAt:      dto.Timestamp(l.CreatedAt),
	}
	if l.Student != nil {
		resp.Student = &dto.BriefResponse{ID: l.Student.TPStudentID, Code: l.Student.Index, Name: l.Student.FullName}
		resp.StudentIndex = l.Student.Index
	}
	if l.Assessor != nil {
		resp.Assessor = &dto.BriefResponse{ID: l.Assessor.UserID, Code: l.Assessor.Username, Name: l.Assessor.FullName()}
	}
	if l.AssessmentType != nil {
		resp.AssessmentType = &dto.BriefResponse{ID: l.AssessmentType.AssessmentTypeID, Code: l.AssessmentType.ShortName, Name: l.AssessmentType.Name}
	}
	return resp
}

func toLetterResponse(l *model.StudentLetter) *dto.LetterResponse {
	resp := &dto.LetterResponse{
		LetterSummaryResponse: toLetterSummary(l),
		Grade:                 deref(l.Grade),
		LearningArea:          deref(l.LearningArea),
		Comments:              deref(l.Comments),
		Reason:                deref(l.Reason),
		DeletionReason:        deref(l.DeletionReason),
		Sections:              make([]dto.StudentSectionResponse, 0, len(l.Sections)),
	}
	if l.RequestTime != nil {
		resp.RequestTime = dto.Timestamp(*l.RequestTime)
	}
	if l.Location != nil {
		lat, lng := l.Location.Latitude, l.Location.Longitude
		resp.Latitude = &lat
		resp.Longitude = &lng
	}
	for _, ss := range sortedSections(l.Sections) {
		sec := dto.StudentSectionResponse{
			ID:        ss.StudentSectionID,
			SectionID: ss.SectionID,
			Score:     ss.Score,
			Comments:  deref(ss.Comments),
			Aspects:   make([]dto.StudentAspectResponse, 0, len(ss.Aspects)),
		}
		if ss.Section != nil {
			sec.Number = ss.Section.Number
			sec.Name = ss.Section.Name
			sec.Contribution = ss.Section.Contribution
		}
		for _, sa := range ss.Aspects {
			a := dto.StudentAspectResponse{ID: sa.StudentAspectID, AspectID: sa.AspectID, Score: sa.Score}
			if sa.Aspect != nil {
				a.Name = sa.Aspect.Name
				a.Contribution = sa.Aspect.Contribution
			}
			sec.Aspects = append(sec.Aspects, a)
		}
		resp.Sections = append(resp.Sections, sec)
	}
	return resp
}
