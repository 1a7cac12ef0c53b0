package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Koomefranklin/kise-results-backend/config"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	"github.com/Koomefranklin/kise-results-backend/pkg/jwt"
	"github.com/Koomefranklin/kise-results-backend/pkg/mailer"
)

// ── shared errors ──

var (
	ErrNoPermission = errors.New("you do not have permission to do this")
)

// timeNow is replaced in tests
var timeNow = time.Now

// Caller is the authenticated user behind a request
type Caller struct {
	UserID           string
	Role             string
	SpecializationID string
	IsHoD            bool
}

// IsAdmin reports the admin role
func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

// IsLecturer reports the lecturer role
func (c Caller) IsLecturer() bool { return c.Role == model.RoleLecturer }

// IsStudent reports the student role
func (c Caller) IsStudent() bool { return c.Role == model.RoleStudent }

// specializationScope is nil for admins (everything) and the caller's own
// specialization otherwise. Callers without one get an empty, match-nothing scope.
func (c Caller) specializationScope() []string {
	if c.IsAdmin() {
		return nil
	}
	if c.SpecializationID == "" {
		return []string{}
	}
	return []string{c.SpecializationID}
}

// canWriteSpecialization admins anywhere, lecturers (not read-only HoD
// views) in their own specialization
func (c Caller) canWriteSpecialization(specializationID string) bool {
	if c.IsAdmin() {
		return true
	}
	return c.IsLecturer() && c.SpecializationID != "" && c.SpecializationID == specializationID
}

// canReadSpecialization admins anywhere, lecturers and HoDs in their own
func (c Caller) canReadSpecialization(specializationID string) bool {
	if c.IsAdmin() {
		return true
	}
	return c.SpecializationID != "" && c.SpecializationID == specializationID
}

// TokenStore keeps revoked tokens and password reset codes
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	StoreOTP(ctx context.Context, email, code string, ttl time.Duration) error
	VerifyOTP(ctx context.Context, email, code string, maxAttempts int) (bool, error)
}

// Service aggregates every business service
type Service struct {
	Auth           AuthService
	User           UserService
	Course         CourseService
	Specialization SpecializationService
	Paper          PaperService
	Module         ModuleService
	Lecturer       LecturerService
	Student        StudentService
	Deadline       DeadlineService
	CatCombination CatCombinationService
	Score          ScoreService
	Result         ResultService
	Import         ImportService
	Audit          AuditService

	Period         PeriodService
	AssessmentType AssessmentTypeService
	Rubric         RubricService
	TPStudent      TPStudentService
	Letter         LetterService
	ZonalLeader    ZonalLeaderService
	TPExport       TPExportService
}

// NewService wires every service
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	store TokenStore,
	mail mailer.Mailer,
	logger *zap.Logger,
) *Service {
	tp := NewTPAccess(repo)
	deadlines := NewDeadlineService(repo, logger)
	return &Service{
		Auth:           NewAuthService(cfg, repo, jwtMgr, store, mail, logger),
		User:           NewUserService(repo, logger),
		Course:         NewCourseService(repo, logger),
		Specialization: NewSpecializationService(repo, logger),
		Paper:          NewPaperService(repo, logger),
		Module:         NewModuleService(repo, logger),
		Lecturer:       NewLecturerService(repo, logger),
		Student:        NewStudentService(repo, logger),
		Deadline:       deadlines,
		CatCombination: NewCatCombinationService(repo, logger),
		Score:          NewScoreService(repo, deadlines, logger),
		Result:         NewResultService(repo, logger),
		Import:         NewImportService(repo, logger),
		Audit:          NewAuditService(repo, logger),
		Period:         NewPeriodService(repo, logger),
		AssessmentType: NewAssessmentTypeService(repo, logger),
		Rubric:         NewRubricService(repo, tp, logger),
		TPStudent:      NewTPStudentService(repo, logger),
		Letter:         NewLetterService(cfg, repo, tp, mail, logger),
		ZonalLeader:    NewZonalLeaderService(repo, tp, logger),
		TPExport:       NewTPExportService(cfg, repo, tp, logger),
	}
}

// recordAudit writes one audit entry. Failures are logged, never returned.
func recordAudit(ctx context.Context, repo *repository.Repository, logger *zap.Logger, callerID, action, entity, entityID, summary string, changes interface{}) {
	if callerID == "" {
		return
	}
	entry := &model.AuditLog{
		UserID:   callerID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Summary:  summary,
	}
	if changes != nil {
		raw, err := json.Marshal(changes)
		if err == nil {
			entry.Changes = datatypes.JSON(raw)
		}
	}
	if err := repo.AuditLog.Create(ctx, entry); err != nil {
		logger.Warn("failed to write audit log",
			zap.String("entity", entity),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}
