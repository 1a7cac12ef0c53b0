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
	ErrLecturerNotFound = errors.New("lecturer not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrAdmissionExists  = errors.New("admission number already registered")
	ErrPersonInUse      = errors.New("record is still referenced by scores, results or assessments")
)

// ════════════════════════════ lecturers ════════════════════════════

// LecturerService lecturer profiles and their logins
type LecturerService interface {
	Create(ctx context.Context, req *dto.CreateLecturerRequest, callerID string) (*dto.LecturerResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.LecturerResponse, error)
	List(ctx context.Context, req *dto.LecturerListRequest, caller Caller) ([]dto.LecturerResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateLecturerRequest, callerID string) (*dto.LecturerResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type lecturerService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewLecturerService creates a LecturerService
func NewLecturerService(repo *repository.Repository, logger *zap.Logger) LecturerService {
	return &lecturerService{repo: repo, logger: logger}
}

// Create makes the login too. The first password is the lecturer's full
// name and must be changed at first login.
func (s *lecturerService) Create(ctx context.Context, req *dto.CreateLecturerRequest, callerID string) (*dto.LecturerResponse, error) {
	spec, err := s.repo.Specialization.GetByID(ctx, req.SpecializationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecializationNotFound
		}
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if _, err := s.repo.User.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	password := normalizeName(req.Surname + " " + req.OtherNames)
	user, err := newUser(username, req.Surname, req.OtherNames, req.Email, req.Sex, model.RoleLecturer, password, callerID)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.LecturerRoleLecturer
	}
	lecturer := &model.Lecturer{SpecializationID: spec.SpecializationID, Role: role}
	lecturer.Stamp(callerID)

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.User.Create(ctx, user); err != nil {
			return err
		}
		lecturer.UserID = user.UserID
		return txRepo.Lecturer.Create(ctx, lecturer)
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrUsernameExists
		}
		s.logger.Error("failed to create lecturer", zap.Error(err))
		return nil, err
	}

	lecturer.User = user
	lecturer.Specialization = spec
	return toLecturerResponse(lecturer), nil
}

func (s *lecturerService) GetByID(ctx context.Context, id string, caller Caller) (*dto.LecturerResponse, error) {
	lecturer, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.canReadSpecialization(lecturer.SpecializationID) {
		return nil, ErrNoPermission
	}
	return toLecturerResponse(lecturer), nil
}

func (s *lecturerService) List(ctx context.Context, req *dto.LecturerListRequest, caller Caller) ([]dto.LecturerResponse, int64, error) {
	if caller.IsStudent() {
		return nil, 0, ErrNoPermission
	}
	filter := repository.LecturerFilter{
		SpecializationID:  req.SpecializationID,
		Role:              req.Role,
		Search:            req.Keyword,
		SpecializationIDs: caller.specializationScope(),
	}
	lecturers, total, err := s.repo.Lecturer.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list lecturers", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.LecturerResponse, 0, len(lecturers))
	for i := range lecturers {
		out = append(out, *toLecturerResponse(&lecturers[i]))
	}
	return out, total, nil
}

func (s *lecturerService) Update(ctx context.Context, id string, req *dto.UpdateLecturerRequest, callerID string) (*dto.LecturerResponse, error) {
	lecturer, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SpecializationID != nil && *req.SpecializationID != lecturer.SpecializationID {
		spec, err := s.repo.Specialization.GetByID(ctx, *req.SpecializationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSpecializationNotFound
			}
			return nil, err
		}
		lecturer.SpecializationID = spec.SpecializationID
		lecturer.Specialization = spec
	}
	if req.Role != nil {
		lecturer.Role = *req.Role
	}
	lecturer.Stamp(callerID)

	if err := s.repo.Lecturer.Update(ctx, lecturer); err != nil {
		s.logger.Error("failed to update lecturer", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toLecturerResponse(lecturer), nil
}

// Delete removes the profile and disables the login
func (s *lecturerService) Delete(ctx context.Context, id string, callerID string) error {
	lecturer, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if lecturer.UserID == callerID {
		return ErrUserSelfDelete
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Lecturer.Delete(ctx, id); err != nil {
			return err
		}
		return txRepo.User.Delete(ctx, lecturer.UserID, callerID)
	})
	if err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrPersonInUse
		}
		s.logger.Error("failed to delete lecturer", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *lecturerService) get(ctx context.Context, id string) (*model.Lecturer, error) {
	lecturer, err := s.repo.Lecturer.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLecturerNotFound
		}
		s.logger.Error("failed to load lecturer", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return lecturer, nil
}

func toLecturerResponse(l *model.Lecturer) *dto.LecturerResponse {
	out := &dto.LecturerResponse{
		ID:        l.LecturerID,
		Role:      l.Role,
		CreatedAt: dto.Timestamp(l.CreatedAt),
	}
	if l.User != nil {
		out.User = *toUserResponse(l.User)
	}
	if l.Specialization != nil {
		out.Specialization = &dto.BriefResponse{ID: l.Specialization.SpecializationID, Code: l.Specialization.Code, Name: l.Specialization.Name}
	}
	return out
}

// ════════════════════════════ students ════════════════════════════

// StudentService academic students and their logins
type StudentService interface {
	Create(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.StudentResponse, error)
	List(ctx context.Context, req *dto.StudentListRequest, caller Caller) ([]dto.StudentResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, callerID string) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentService creates a StudentService
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

// Create registers the student with username and first password set to
// the admission number
func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error) {
	spec, err := s.repo.Specialization.GetByID(ctx, req.SpecializationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecializationNotFound
		}
		return nil, err
	}

	admission := strings.TrimSpace(req.Admission)
	if _, err := s.repo.Student.GetByAdmission(ctx, admission); err == nil {
		return nil, ErrAdmissionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := newUser(admission, req.Surname, req.OtherNames, req.Email, req.Sex, model.RoleStudent, admission, callerID)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	student := &model.Student{
		Admission:        admission,
		SpecializationID: spec.SpecializationID,
		Centre:           strings.TrimSpace(req.Centre),
		Mode:             req.Mode,
		Year:             req.Year,
	}
	student.Stamp(callerID)

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.User.Create(ctx, user); err != nil {
			return err
		}
		student.UserID = user.UserID
		return txRepo.Student.Create(ctx, student)
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrAdmissionExists
		}
		s.logger.Error("failed to create student", zap.Error(err))
		return nil, err
	}

	student.User = user
	student.Specialization = spec
	return toStudentResponse(student), nil
}

func (s *studentService) GetByID(ctx context.Context, id string, caller Caller) (*dto.StudentResponse, error) {
	student, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.IsStudent() {
		if student.UserID != caller.UserID {
			return nil, ErrNoPermission
		}
	} else if !caller.canReadSpecialization(student.SpecializationID) {
		return nil, ErrNoPermission
	}
	return toStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context, req *dto.StudentListRequest, caller Caller) ([]dto.StudentResponse, int64, error) {
	filter := repository.StudentFilter{
		SpecializationID:  req.SpecializationID,
		Mode:              req.Mode,
		Year:              req.Year,
		Search:            req.Keyword,
		SpecializationIDs: caller.specializationScope(),
	}
	if caller.IsStudent() {
		filter.SpecializationIDs = nil
		filter.UserID = caller.UserID
	}

	students, total, err := s.repo.Student.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list students", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		out = append(out, *toStudentResponse(&students[i]))
	}
	return out, total, nil
}

func (s *studentService) Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, callerID string) (*dto.StudentResponse, error) {
	student, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SpecializationID != nil && *req.SpecializationID != student.SpecializationID {
		spec, err := s.repo.Specialization.GetByID(ctx, *req.SpecializationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSpecializationNotFound
			}
			return nil, err
		}
		student.SpecializationID = spec.SpecializationID
		student.Specialization = spec
	}
	if req.Centre != nil {
		student.Centre = strings.TrimSpace(*req.Centre)
	}
	if req.Mode != nil {
		student.Mode = *req.Mode
	}
	if req.Year != nil {
		student.Year = *req.Year
	}
	student.Stamp(callerID)

	if err := s.repo.Student.Update(ctx, student); err != nil {
		s.logger.Error("failed to update student", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id string, callerID string) error {
	student, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Student.Delete(ctx, id); err != nil {
			return err
		}
		return txRepo.User.Delete(ctx, student.UserID, callerID)
	})
	if err != nil {
		if pkgerrors.IsForeignKeyViolation(err) {
			return ErrPersonInUse
		}
		s.logger.Error("failed to delete student", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *studentService) get(ctx context.Context, id string) (*model.Student, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("failed to load student", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return student, nil
}

func toStudentResponse(st *model.Student) *dto.StudentResponse {
	out := &dto.StudentResponse{
		ID:        st.StudentID,
		Admission: st.Admission,
		Centre:    st.Centre,
		Mode:      st.Mode,
		Year:      st.Year,
		CreatedAt: dto.Timestamp(st.CreatedAt),
	}
	if st.User != nil {
		out.User = *toUserResponse(st.User)
	}
	if st.Specialization != nil {
		out.Specialization = &dto.BriefResponse{ID: st.Specialization.SpecializationID, Code: st.Specialization.Code, Name: st.Specialization.Name}
	}
	return out
}
