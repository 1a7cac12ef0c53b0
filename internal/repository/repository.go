package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every data access interface
type Repository struct {
	db *gorm.DB

	User           UserRepository
	Course         CourseRepository
	Specialization SpecializationRepository
	Lecturer       LecturerRepository
	Student        StudentRepository
	Paper          PaperRepository
	Module         ModuleRepository
	Deadline       DeadlineRepository
	CatCombination CatCombinationRepository
	ModuleScore    ModuleScoreRepository
	SitinCat       SitinCatRepository
	Result         ResultRepository
	AuditLog       AuditLogRepository

	Period         PeriodRepository
	AssessmentType AssessmentTypeRepository
	Rubric         RubricRepository
	TPStudent      TPStudentRepository
	Letter         LetterRepository
	ZonalLeader    ZonalLeaderRepository
}

// NewRepository builds the aggregate on db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:             db,
		User:           NewUserRepo(db),
		Course:         NewCourseRepo(db),
		Specialization: NewSpecializationRepo(db),
		Lecturer:       NewLecturerRepo(db),
		Student:        NewStudentRepo(db),
		Paper:          NewPaperRepo(db),
		Module:         NewModuleRepo(db),
		Deadline:       NewDeadlineRepo(db),
		CatCombination: NewCatCombinationRepo(db),
		ModuleScore:    NewModuleScoreRepo(db),
		SitinCat:       NewSitinCatRepo(db),
		Result:         NewResultRepo(db),
		AuditLog:       NewAuditLogRepo(db),
		Period:         NewPeriodRepo(db),
		AssessmentType: NewAssessmentTypeRepo(db),
		Rubric:         NewRubricRepo(db),
		TPStudent:      NewTPStudentRepo(db),
		Letter:         NewLetterRepo(db),
		ZonalLeader:    NewZonalLeaderRepo(db),
	}
}

// BeginTx opens a transaction. Returns nil when the aggregate has no database
// behind it (service tests build it from mocks).
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx returns an aggregate bound to tx. A nil tx returns r unchanged.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction runs fn with a transaction-bound aggregate, committing when fn
// returns nil and rolling back otherwise.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// paginate applies offset / limit when limit is positive
func paginate(db *gorm.DB, offset, limit int) *gorm.DB {
	if limit > 0 {
		db = db.Offset(offset).Limit(limit)
	}
	return db
}

// likePattern wraps s for a case-insensitive ILIKE search
func likePattern(s string) string {
	return "%" + s + "%"
}
