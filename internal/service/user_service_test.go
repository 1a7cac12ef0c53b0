package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

func setupTestUserService() (UserService, *testRepos) {
	repos := newTestRepos()
	return NewUserService(repos.repo, zap.NewNop()), repos
}

// ── Create ──

func TestUserService_Create_GeneratesPassword(t *testing.T) {
	svc, repos := setupTestUserService()

	result, err := svc.Create(context.Background(), &dto.CreateUserRequest{
		Username:   "jkamau",
		Surname:    "KAMAU",
		OtherNames: "john  mwangi",
		Email:      " JKamau@KISE.ac.ke ",
		Sex:        "male",
		Role:       model.RoleLecturer,
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if result.TempPassword == "" {
		t.Fatal("a temporary password should be returned when none is given")
	}
	if result.User.FullName != "Kamau John Mwangi" {
		t.Errorf("names should be normalized, got %q", result.User.FullName)
	}
	if result.User.Email != "jkamau@kise.ac.ke" || result.User.Sex != "M" {
		t.Errorf("unexpected email/sex: %q %q", result.User.Email, result.User.Sex)
	}
	if !result.User.MustChangePassword {
		t.Error("new accounts must change their password")
	}

	stored := repos.users.users[result.User.ID]
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(result.TempPassword)) != nil {
		t.Error("stored hash should match the temporary password")
	}
	if stored.CreatedBy == nil || *stored.CreatedBy != "admin-1" {
		t.Error("created_by should be the caller")
	}
}

func TestUserService_Create_GivenPassword(t *testing.T) {
	svc, _ := setupTestUserService()

	result, err := svc.Create(context.Background(), &dto.CreateUserRequest{
		Username: "admin2",
		Surname:  "Otieno",
		Role:     model.RoleAdmin,
		Password: "chosenPass1",
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if result.TempPassword != "" {
		t.Error("no temporary password when one was supplied")
	}
}

func TestUserService_Create_DuplicateUsername(t *testing.T) {
	svc, repos := setupTestUserService()
	createTestUser(repos, "jkamau", "password123", model.RoleLecturer)

	_, err := svc.Create(context.Background(), &dto.CreateUserRequest{
		Username: "jkamau",
		Surname:  "Kamau",
		Role:     model.RoleLecturer,
	}, "admin-1")
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists, got: %v", err)
	}
}

// ── GetByID / List ──

func TestUserService_GetByID(t *testing.T) {
	svc, repos := setupTestUserService()
	createTestUser(repos, "kise001", "password123", model.RoleStudent)

	result, err := svc.GetByID(context.Background(), "user-kise001")
	if err != nil {
		t.Fatalf("GetByID should succeed: %v", err)
	}
	if result.Username != "kise001" || result.FullName != "Wanjiku Grace" {
		t.Errorf("unexpected user: %+v", result)
	}

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
}

func TestUserService_List_FilterByRole(t *testing.T) {
	svc, repos := setupTestUserService()
	createTestUser(repos, "stu1", "password123", model.RoleStudent)
	createTestUser(repos, "stu2", "password123", model.RoleStudent)
	createTestUser(repos, "lec1", "password123", model.RoleLecturer)

	users, total, err := svc.List(context.Background(), &dto.UserListRequest{Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("List should succeed: %v", err)
	}
	if total != 2 || len(users) != 2 {
		t.Errorf("expected 2 students, got total=%d len=%d", total, len(users))
	}
}

func TestUserService_List_Keyword(t *testing.T) {
	svc, repos := setupTestUserService()
	createTestUser(repos, "stu1", "password123", model.RoleStudent)
	createTestUser(repos, "lec1", "password123", model.RoleLecturer)

	users, total, err := svc.List(context.Background(), &dto.UserListRequest{Keyword: "lec"})
	if err != nil {
		t.Fatalf("List should succeed: %v", err)
	}
	if total != 1 || users[0].Username != "lec1" {
		t.Errorf("expected only lec1, got %+v", users)
	}
}

// ── Update ──

func TestUserService_Update_Fields(t *testing.T) {
	svc, repos := setupTestUserService()
	createTestUser(repos, "kise001", "password123", model.RoleStudent)

	inactive := false
	result, err := svc.Update(context.Background(), "user-kise001", &dto.UpdateUserRequest{
		Surname:  ptr("ODHIAMBO"),
		Sex:      ptr("f"),
		IsActive: &inactive,
	}, "admin-1")
	if err != nil {
		t.Fatalf("Update should succeed: %v", err)
	}
	if result.Surname != "Odhiambo" || result.Sex != "F" || result.IsActive {
		t.Errorf("unexpected update result: %+v", result)
	}
}

func TestUserService_Update_DuplicateUsername(t *testing.T) {
	svc, repos := setupTestUserService()
	createTestUser(repos, "kise001", "password123", model.RoleStudent)
	createTestUser(repos, "kise002", "password123", model.RoleStudent)

	_, err := svc.Update(context.Background(), "user-kise002", &dto.UpdateUserRequest{Username: ptr("kise001")}, "admin-1")
	if !errors.Is(err, ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists, got: %v", err)
	}
}

func TestUserService_Update_OwnRole(t *testing.T) {
	svc, repos := setupTestUserService()
	createTestUser(repos, "admin1", "password123", model.RoleAdmin)

	_, err := svc.Update(context.Background(), "user-admin1", &dto.UpdateUserRequest{Role: ptr(model.RoleLecturer)}, "user-admin1")
	if !errors.Is(err, ErrUserSelfRoleChange) {
		t.Errorf("expected ErrUserSelfRoleChange, got: %v", err)
	}
}

func TestUserService_Update_NotFound(t *testing.T) {
	svc, _ := setupTestUserService()

	_, err := svc.Update(context.Background(), "missing", &dto.UpdateUserRequest{Surname: ptr("X")}, "admin-1")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
}

// ── Delete ──

func TestUserService_Delete(t *testing.T) {
	svc, repos := setupTestUserService()
	createTestUser(repos, "kise001", "password123", model.RoleStudent)

	if err := svc.Delete(context.Background(), "user-kise001", "admin-1"); err != nil {
		t.Fatalf("Delete should succeed: %v", err)
	}
	if _, ok := repos.users.users["user-kise001"]; ok {
		t.Error("user should be gone")
	}
}

func TestUserService_Delete_Self(t *testing.T) {
	svc, repos := setupTestUserService()
	createTestUser(repos, "admin1", "password123", model.RoleAdmin)

	if err := svc.Delete(context.Background(), "user-admin1", "user-admin1"); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("expected ErrUserSelfDelete, got: %v", err)
	}
}

func TestUserService_Delete_NotFound(t *testing.T) {
	svc, _ := setupTestUserService()

	if err := svc.Delete(context.Background(), "missing", "admin-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
}

// ── ResetPassword ──

func TestUserService_ResetPassword(t *testing.T) {
	svc, repos := setupTestUserService()
	u := createTestUser(repos, "kise001", "password123", model.RoleStudent)

	result, err := svc.ResetPassword(context.Background(), u.UserID, "admin-1")
	if err != nil {
		t.Fatalf("ResetPassword should succeed: %v", err)
	}
	if len(result.TempPassword) != 10 {
		t.Errorf("expected a 10 character password, got %q", result.TempPassword)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(result.TempPassword)) != nil {
		t.Error("stored hash should match the new password")
	}
	if !u.MustChangePassword {
		t.Error("a reset password must be changed at next login")
	}
}

func TestUserService_ResetPassword_NotFound(t *testing.T) {
	svc, _ := setupTestUserService()

	if _, err := svc.ResetPassword(context.Background(), "missing", "admin-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
}

// ── generateTempPassword ──

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
	ambiguous = regexp.MustCompile(`[0O1lI]`)
)

func TestGenerateTempPassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		pwd, err := generateTempPassword(8)
		if err != nil {
			t.Fatalf("generateTempPassword should succeed: %v", err)
		}
		if len(pwd) != 8 {
			t.Errorf("expected length 8, got %d", len(pwd))
		}
		if !hasLetter.MatchString(pwd) || !hasDigit.MatchString(pwd) {
			t.Errorf("temp password %q needs a letter and a digit", pwd)
		}
		if ambiguous.MatchString(pwd) {
			t.Errorf("temp password %q contains an ambiguous character", pwd)
		}
	}
}
