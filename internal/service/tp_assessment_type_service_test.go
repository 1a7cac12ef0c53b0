package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

func setupAssessmentTypes() (AssessmentTypeService, *testRepos) {
	r := newTestRepos()
	r.courses.courses["course-dip"] = &model.Course{CourseID: "course-dip", Code: "DSNE", Name: "Diploma in Special Needs Education"}
	return NewAssessmentTypeService(r.repo, zap.NewNop()), r
}

func TestAssessmentTypeService_ShortNameUnique(t *testing.T) {
	svc, _ := setupAssessmentTypes()
	ctx := context.Background()

	tpa, err := svc.Create(ctx, &dto.AssessmentTypeRequest{Name: "Teaching Practice A", ShortName: " tpa ", CourseID: "course-dip", TotalFormula: "(score / 92) * 100"}, "admin-1")
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if tpa.ShortName != "TPA" || tpa.Course == nil || tpa.Course.Code != "DSNE" {
		t.Errorf("unexpected type: %+v", tpa)
	}
	tpb, err := svc.Create(ctx, &dto.AssessmentTypeRequest{Name: "Teaching Practice B", ShortName: "TPB", CourseID: "course-dip"}, "admin-1")
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	tests := []struct {
		name    string
		req     dto.AssessmentTypeRequest
		wantErr error
	}{
		{"short name taken", dto.AssessmentTypeRequest{Name: "Again", ShortName: "TPA", CourseID: "course-dip"}, ErrAssessmentTypeExists},
		{"short name taken in another case", dto.AssessmentTypeRequest{Name: "Again", ShortName: "Tpa", CourseID: "course-dip"}, ErrAssessmentTypeExists},
		{"unknown course", dto.AssessmentTypeRequest{Name: "New", ShortName: "NEW", CourseID: "course-missing"}, ErrCourseNotFound},
		{"formula with unknown variable", dto.AssessmentTypeRequest{Name: "New", ShortName: "NEW", CourseID: "course-dip", TotalFormula: "score / max"}, ErrInvalidFormula},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, &tt.req, "admin-1"); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := svc.Update(ctx, tpb.ID, &dto.AssessmentTypeRequest{Name: "Teaching Practice B", ShortName: "TPA", CourseID: "course-dip"}, "admin-1"); !errors.Is(err, ErrAssessmentTypeExists) {
		t.Errorf("renaming onto a taken short name: expected ErrAssessmentTypeExists, got %v", err)
	}
	if _, err := svc.Update(ctx, tpb.ID, &dto.AssessmentTypeRequest{Name: "Teaching Practice B2", ShortName: "TPB", CourseID: "course-dip"}, "admin-1"); err != nil {
		t.Errorf("keeping its own short name should succeed: %v", err)
	}
}

func TestAssessmentTypeService_ReplaceAdmins(t *testing.T) {
	svc, r := setupAssessmentTypes()
	ctx := context.Background()
	access := NewTPAccess(r.repo)
	createTestUser(r, "wafula", "pw", model.RoleLecturer)
	createTestUser(r, "chebet", "pw", model.RoleLecturer)
	createTestUser(r, "student", "pw", model.RoleStudent)
	r.types.types["type-tpa"] = &model.AssessmentType{AssessmentTypeID: "type-tpa", Name: "Teaching Practice A", ShortName: "TPA", CourseID: "course-dip"}
	r.types.admins["type-tpa"] = []string{"user-wafula"}

	tests := []struct {
		name       string
		userIDs    []string
		wantErr    error
		wantAdmins []string
	}{
		{"replace the list", []string{"user-chebet", "user-chebet"}, nil, []string{"user-chebet"}},
		{"student refused", []string{"user-wafula", "user-student"}, ErrStudentCannotAdminTP, []string{"user-chebet"}},
		{"unknown user refused", []string{"user-missing"}, ErrUserNotFound, []string{"user-chebet"}},
		{"clear the list", nil, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.ReplaceAdmins(ctx, "type-tpa", &dto.AssessmentTypeAdminsRequest{UserIDs: tt.userIDs}, "admin-1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got := r.types.admins["type-tpa"]; !reflect.DeepEqual(got, tt.wantAdmins) {
				t.Errorf("stored admins: got %v, want %v", got, tt.wantAdmins)
			}
			if err == nil && len(resp.Admins) != len(tt.wantAdmins) {
				t.Errorf("response admins: got %v", resp.Admins)
			}
		})
	}

	if _, err := svc.ReplaceAdmins(ctx, "type-missing", &dto.AssessmentTypeAdminsRequest{}, "admin-1"); !errors.Is(err, ErrAssessmentTypeNotFound) {
		t.Errorf("expected ErrAssessmentTypeNotFound, got %v", err)
	}

	// the replaced admin is no longer a TP admin
	for _, user := range []string{"user-wafula", "user-chebet"} {
		ok, err := access.IsTPAdmin(ctx, Caller{UserID: user, Role: model.RoleLecturer})
		if err != nil || ok {
			t.Errorf("%s should not be a TP admin after clearing, got %v %v", user, ok, err)
		}
	}
}
