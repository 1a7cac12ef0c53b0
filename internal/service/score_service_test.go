package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
	"github.com/Koomefranklin/kise-results-backend/internal/model"
)

// paperFixture one specialization, one paper with four modules and one student
type paperFixture struct {
	repos   *testRepos
	spec    *model.Specialization
	paper   *model.Paper
	modules []*model.Module
	student *model.Student
}

func setupPaperFixture() *paperFixture {
	r := newTestRepos()
	spec := &model.Specialization{SpecializationID: "spec-hi", Code: "HI", Name: "Hearing Impairment"}
	r.specs.specs[spec.SpecializationID] = spec

	paper := &model.Paper{PaperID: "paper-1", Code: "HI101", Name: "Audiology", SpecializationID: spec.SpecializationID}
	r.papers.papers[paper.PaperID] = paper

	f := &paperFixture{repos: r, spec: spec, paper: paper}
	for _, code := range []string{"M1", "M2", "M3", "M4"} {
		m := &model.Module{ModuleID: "module-" + code, Code: code, Name: "Module " + code, PaperID: paper.PaperID}
		r.modules.modules[m.ModuleID] = m
		f.modules = append(f.modules, m)
	}

	u := createTestUser(r, "kise001", "password123", model.RoleStudent)
	f.student = &model.Student{StudentID: "student-1", UserID: u.UserID, Admission: "KISE/001", SpecializationID: spec.SpecializationID}
	r.students.students[f.student.StudentID] = f.student
	return f
}

func (f *paperFixture) addStudent(id, admission string) *model.Student {
	u := createTestUser(f.repos, id, "password123", model.RoleStudent)
	st := &model.Student{StudentID: id, UserID: u.UserID, Admission: admission, SpecializationID: f.spec.SpecializationID}
	f.repos.students.students[id] = st
	return st
}

func lecturerOf(specID string) Caller {
	return Caller{UserID: "lecturer-1", Role: model.RoleLecturer, SpecializationID: specID}
}

var adminCaller = Caller{UserID: "admin-1", Role: model.RoleAdmin}

func withNow(t *testing.T, now time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = prev })
}

// ── deadlines ──

func TestDeadlineService_Check(t *testing.T) {
	r := newTestRepos()
	svc := NewDeadlineService(r.repo, zap.NewNop())
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	withNow(t, now)

	r.deadlines.deadlines[model.DeadlineCat1] = &model.Deadline{Name: model.DeadlineCat1, Deadline: now.Add(-time.Hour)}
	r.deadlines.deadlines[model.DeadlineCat2] = &model.Deadline{Name: model.DeadlineCat2, Deadline: now.Add(time.Hour)}

	lecturer := lecturerOf("spec-hi")
	tests := []struct {
		name    string
		caller  Caller
		names   []string
		blocked bool
	}{
		{"passed deadline blocks lecturer", lecturer, []string{model.DeadlineCat1}, true},
		{"future deadline is open", lecturer, []string{model.DeadlineCat2}, false},
		{"unset deadline is open", lecturer, []string{model.DeadlineDiscussion}, false},
		{"any passed deadline blocks", lecturer, []string{model.DeadlineCat2, model.DeadlineCat1}, true},
		{"admin is never blocked", adminCaller, []string{model.DeadlineCat1}, false},
		{"nothing to check", lecturer, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Check(context.Background(), tt.caller, tt.names...)
			if tt.blocked != errors.Is(err, ErrDeadlinePassed) {
				t.Errorf("blocked=%v, got err %v", tt.blocked, err)
			}
		})
	}
}

func TestDeadlineService_SetAndList(t *testing.T) {
	r := newTestRepos()
	svc := NewDeadlineService(r.repo, zap.NewNop())
	withNow(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	got, err := svc.Set(context.Background(), model.DeadlineTakeaway, &dto.SetDeadlineRequest{Deadline: "2026-03-01T00:00:00Z"}, "admin-1")
	if err != nil {
		t.Fatalf("Set should succeed: %v", err)
	}
	if got.IsOpen {
		t.Error("a deadline in the past should be closed")
	}

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List should succeed: %v", err)
	}
	if len(list) != len(model.DeadlineNames) {
		t.Fatalf("expected every deadline listed, got %d", len(list))
	}
	for _, d := range list {
		if d.Name == model.DeadlineTakeaway && d.IsOpen {
			t.Error("takeaway should be closed")
		}
		if d.Name == model.DeadlineDiscussion && (!d.IsOpen || d.Deadline != "") {
			t.Error("unset discussion deadline should be open and empty")
		}
	}
	if len(r.audit.entries) != 1 {
		t.Errorf("expected one audit entry, got %d", len(r.audit.entries))
	}
}

func TestDeadlineService_Set_Invalid(t *testing.T) {
	svc := NewDeadlineService(newTestRepos().repo, zap.NewNop())

	if _, err := svc.Set(context.Background(), "exam", &dto.SetDeadlineRequest{Deadline: "2026-03-01T00:00:00Z"}, "admin-1"); !errors.Is(err, ErrUnknownDeadline) {
		t.Errorf("expected ErrUnknownDeadline, got: %v", err)
	}
	if _, err := svc.Set(context.Background(), model.DeadlineCat1, &dto.SetDeadlineRequest{Deadline: "next friday"}, "admin-1"); !errors.Is(err, ErrInvalidDeadline) {
		t.Errorf("expected ErrInvalidDeadline, got: %v", err)
	}
}

// ── module scores ──

func setupScoreService(f *paperFixture) ScoreService {
	return NewScoreService(f.repos.repo, NewDeadlineService(f.repos.repo, zap.NewNop()), zap.NewNop())
}

func TestScoreService_CreateModuleScore(t *testing.T) {
	f := setupPaperFixture()
	svc := setupScoreService(f)

	got, err := svc.CreateModuleScore(context.Background(), &dto.CreateModuleScoreRequest{
		StudentID:  f.student.StudentID,
		ModuleID:   f.modules[0].ModuleID,
		Discussion: ptr(14.0),
	}, lecturerOf(f.spec.SpecializationID))
	if err != nil {
		t.Fatalf("CreateModuleScore should succeed: %v", err)
	}
	if got.Module == nil || got.Module.Code != "M1" {
		t.Errorf("unexpected module: %+v", got.Module)
	}
	if got.Student == nil || got.Student.Code != "KISE/001" {
		t.Errorf("unexpected student: %+v", got.Student)
	}
	if got.TakeAway != nil {
		t.Error("take_away was not given and should stay empty")
	}
}

func TestScoreService_CreateModuleScore_Duplicate(t *testing.T) {
	f := setupPaperFixture()
	svc := setupScoreService(f)
	req := &dto.CreateModuleScoreRequest{StudentID: f.student.StudentID, ModuleID: f.modules[0].ModuleID, Discussion: ptr(10.0)}

	if _, err := svc.CreateModuleScore(context.Background(), req, adminCaller); err != nil {
		t.Fatalf("first create should succeed: %v", err)
	}
	if _, err := svc.CreateModuleScore(context.Background(), req, adminCaller); !errors.Is(err, ErrScoreExists) {
		t.Errorf("expected ErrScoreExists, got: %v", err)
	}
}

func TestScoreService_CreateModuleScore_Rejections(t *testing.T) {
	f := setupPaperFixture()
	svc := setupScoreService(f)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	withNow(t, now)
	f.repos.deadlines.deadlines[model.DeadlineTakeaway] = &model.Deadline{Name: model.DeadlineTakeaway, Deadline: now.Add(-time.Minute)}

	other := &model.Student{StudentID: "student-x", UserID: "user-x", Admission: "KISE/900", SpecializationID: "spec-vi"}
	f.repos.students.students[other.StudentID] = other

	tests := []struct {
		name   string
		req    *dto.CreateModuleScoreRequest
		caller Caller
		want   error
	}{
		{
			"unknown module",
			&dto.CreateModuleScoreRequest{StudentID: f.student.StudentID, ModuleID: "nope"},
			adminCaller, ErrModuleNotFound,
		},
		{
			"unknown student",
			&dto.CreateModuleScoreRequest{StudentID: "nope", ModuleID: f.modules[0].ModuleID},
			adminCaller, ErrStudentNotFound,
		},
		{
			"student outside the paper's specialization",
			&dto.CreateModuleScoreRequest{StudentID: other.StudentID, ModuleID: f.modules[0].ModuleID},
			adminCaller, ErrStudentNotInSpecialization,
		},
		{
			"lecturer of another specialization",
			&dto.CreateModuleScoreRequest{StudentID: f.student.StudentID, ModuleID: f.modules[0].ModuleID},
			lecturerOf("spec-vi"), ErrNoPermission,
		},
		{
			"student caller",
			&dto.CreateModuleScoreRequest{StudentID: f.student.StudentID, ModuleID: f.modules[0].ModuleID},
			Caller{UserID: "student-user", Role: model.RoleStudent, SpecializationID: f.spec.SpecializationID}, ErrNoPermission,
		},
		{
			"takeaway deadline passed",
			&dto.CreateModuleScoreRequest{StudentID: f.student.StudentID, ModuleID: f.modules[0].ModuleID, TakeAway: ptr(12.0)},
			lecturerOf(f.spec.SpecializationID), ErrDeadlinePassed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateModuleScore(context.Background(), tt.req, tt.caller); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got: %v", tt.want, err)
			}
		})
	}

	// discussion alone is not guarded by the takeaway deadline
	_, err := svc.CreateModuleScore(context.Background(), &dto.CreateModuleScoreRequest{
		StudentID: f.student.StudentID, ModuleID: f.modules[0].ModuleID, Discussion: ptr(9.0),
	}, lecturerOf(f.spec.SpecializationID))
	if err != nil {
		t.Errorf("discussion-only write should pass, got: %v", err)
	}
}

func TestScoreService_UpdateModuleScore(t *testing.T) {
	f := setupPaperFixture()
	svc := setupScoreService(f)
	f.repos.scores.scores["score-1"] = &model.ModuleScore{
		ModuleScoreID: "score-1", StudentID: f.student.StudentID, ModuleID: f.modules[0].ModuleID, Discussion: ptr(10.0),
	}

	got, err := svc.UpdateModuleScore(context.Background(), "score-1", &dto.UpdateModuleScoreRequest{TakeAway: ptr(16.0)}, lecturerOf(f.spec.SpecializationID))
	if err != nil {
		t.Fatalf("UpdateModuleScore should succeed: %v", err)
	}
	if got.Discussion == nil || *got.Discussion != 10 || got.TakeAway == nil || *got.TakeAway != 16 {
		t.Errorf("unexpected marks: %+v", got)
	}

	if _, err := svc.UpdateModuleScore(context.Background(), "missing", &dto.UpdateModuleScoreRequest{}, adminCaller); !errors.Is(err, ErrScoreNotFound) {
		t.Errorf("expected ErrScoreNotFound, got: %v", err)
	}
}

func TestScoreService_DeleteModuleScore(t *testing.T) {
	f := setupPaperFixture()
	svc := setupScoreService(f)
	f.repos.scores.scores["score-1"] = &model.ModuleScore{ModuleScoreID: "score-1", StudentID: f.student.StudentID, ModuleID: f.modules[0].ModuleID}

	if err := svc.DeleteModuleScore(context.Background(), "score-1", lecturerOf("spec-vi")); !errors.Is(err, ErrNoPermission) {
		t.Errorf("expected ErrNoPermission, got: %v", err)
	}
	if err := svc.DeleteModuleScore(context.Background(), "score-1", lecturerOf(f.spec.SpecializationID)); err != nil {
		t.Fatalf("DeleteModuleScore should succeed: %v", err)
	}
	if len(f.repos.scores.scores) != 0 {
		t.Error("score should be gone")
	}
}

// ── sit-in CATs ──

func TestScoreService_CreateSitin(t *testing.T) {
	f := setupPaperFixture()
	svc := setupScoreService(f)
	req := &dto.CreateSitinCatRequest{StudentID: f.student.StudentID, PaperID: f.paper.PaperID, Cat1: ptr(18.5)}

	got, err := svc.CreateSitin(context.Background(), req, lecturerOf(f.spec.SpecializationID))
	if err != nil {
		t.Fatalf("CreateSitin should succeed: %v", err)
	}
	if got.Paper == nil || got.Paper.Code != "HI101" || *got.Cat1 != 18.5 {
		t.Errorf("unexpected sit-in: %+v", got)
	}

	if _, err := svc.CreateSitin(context.Background(), req, adminCaller); !errors.Is(err, ErrSitinExists) {
		t.Errorf("expected ErrSitinExists, got: %v", err)
	}
	if _, err := svc.CreateSitin(context.Background(), &dto.CreateSitinCatRequest{StudentID: f.student.StudentID, PaperID: "nope"}, adminCaller); !errors.Is(err, ErrPaperNotFound) {
		t.Errorf("expected ErrPaperNotFound, got: %v", err)
	}
}

// ── results ──

// seedResults puts M1, M2 in cat1 and M3 in cat2
func seedResults(f *paperFixture) {
	f.repos.combos.combos[f.paper.PaperID] = &model.CatCombination{
		CatCombinationID: "combo-1",
		PaperID:          f.paper.PaperID,
		Modules: []model.CatCombinationModule{
			{CatCombinationID: "combo-1", ModuleID: "module-M1", Cat: model.Cat1},
			{CatCombinationID: "combo-1", ModuleID: "module-M2", Cat: model.Cat1},
			{CatCombinationID: "combo-1", ModuleID: "module-M3", Cat: model.Cat2},
		},
	}
	add := func(id, studentID, moduleID string, discussion, takeAway *float64) {
		f.repos.scores.scores[id] = &model.ModuleScore{ModuleScoreID: id, StudentID: studentID, ModuleID: moduleID, Discussion: discussion, TakeAway: takeAway}
	}
	// student-1: M1 (10+20)/2=15, M2 (12+14)/2=13, average 14; M3 (20+0)/2=10
	add("s1", f.student.StudentID, "module-M1", ptr(10.0), ptr(20.0))
	add("s2", f.student.StudentID, "module-M2", ptr(12.0), ptr(14.0))
	add("s3", f.student.StudentID, "module-M3", ptr(20.0), nil)
	// M4 is in no bucket and must not count
	add("s4", f.student.StudentID, "module-M4", ptr(100.0), ptr(100.0))

	f.repos.sitins.sitins["sit-1"] = &model.SitinCat{SitinCatID: "sit-1", StudentID: f.student.StudentID, PaperID: f.paper.PaperID, Cat1: ptr(25.5)}
}

func TestResultService_Generate(t *testing.T) {
	f := setupPaperFixture()
	seedResults(f)
	f.addStudent("student-2", "KISE/002")
	svc := NewResultService(f.repos.repo, zap.NewNop())

	got, err := svc.Generate(context.Background(), &dto.GenerateResultsRequest{PaperID: f.paper.PaperID, Cat: model.Cat1}, lecturerOf(f.spec.SpecializationID))
	if err != nil {
		t.Fatalf("Generate should succeed: %v", err)
	}
	if got.Students != 2 || got.Generated != 1 {
		t.Errorf("expected 2 students and 1 with marks, got %+v", got)
	}

	r1 := f.repos.results.results[[2]string{f.student.StudentID, f.paper.PaperID}]
	if r1 == nil || r1.Cat1 == nil || *r1.Cat1 != 39.5 {
		t.Fatalf("student-1 cat1 should be 14 + 25.5, got %+v", r1)
	}
	if r1.Cat2 != nil {
		t.Error("cat2 must not be written by a cat1 run")
	}
	r2 := f.repos.results.results[[2]string{"student-2", f.paper.PaperID}]
	if r2 == nil || r2.Cat1 == nil || *r2.Cat1 != 0 {
		t.Errorf("a student without marks should get 0, got %+v", r2)
	}
	if len(f.repos.audit.entries) != 1 {
		t.Errorf("expected one audit entry, got %d", len(f.repos.audit.entries))
	}
}

func TestResultService_Generate_KeepsOtherCat(t *testing.T) {
	f := setupPaperFixture()
	seedResults(f)
	svc := NewResultService(f.repos.repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Generate(ctx, &dto.GenerateResultsRequest{PaperID: f.paper.PaperID, Cat: model.Cat1}, adminCaller); err != nil {
		t.Fatalf("cat1 run should succeed: %v", err)
	}
	if _, err := svc.Generate(ctx, &dto.GenerateResultsRequest{PaperID: f.paper.PaperID, Cat: model.Cat2}, adminCaller); err != nil {
		t.Fatalf("cat2 run should succeed: %v", err)
	}

	r := f.repos.results.results[[2]string{f.student.StudentID, f.paper.PaperID}]
	if r.Cat1 == nil || *r.Cat1 != 39.5 {
		t.Errorf("cat1 should survive the cat2 run, got %v", r.Cat1)
	}
	if r.Cat2 == nil || *r.Cat2 != 10 {
		t.Errorf("cat2 should be 10 with no sit-in, got %v", r.Cat2)
	}
}

func TestResultService_Generate_Rejections(t *testing.T) {
	f := setupPaperFixture()
	svc := NewResultService(f.repos.repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Generate(ctx, &dto.GenerateResultsRequest{PaperID: f.paper.PaperID, Cat: "cat3"}, adminCaller); !errors.Is(err, ErrUnknownCat) {
		t.Errorf("expected ErrUnknownCat, got: %v", err)
	}
	if _, err := svc.Generate(ctx, &dto.GenerateResultsRequest{PaperID: f.paper.PaperID, Cat: model.Cat1}, adminCaller); !errors.Is(err, ErrCatCombinationNotFound) {
		t.Errorf("expected ErrCatCombinationNotFound, got: %v", err)
	}
	if _, err := svc.Generate(ctx, &dto.GenerateResultsRequest{PaperID: f.paper.PaperID, Cat: model.Cat1}, lecturerOf("spec-vi")); !errors.Is(err, ErrNoPermission) {
		t.Errorf("expected ErrNoPermission, got: %v", err)
	}
}

func TestResultService_List_StudentSeesOwn(t *testing.T) {
	f := setupPaperFixture()
	seedResults(f)
	f.addStudent("student-2", "KISE/002")
	svc := NewResultService(f.repos.repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Generate(ctx, &dto.GenerateResultsRequest{PaperID: f.paper.PaperID, Cat: model.Cat1}, adminCaller); err != nil {
		t.Fatalf("Generate should succeed: %v", err)
	}

	student := Caller{UserID: f.student.UserID, Role: model.RoleStudent}
	list, total, err := svc.List(ctx, &dto.ResultListRequest{}, student)
	if err != nil {
		t.Fatalf("List should succeed: %v", err)
	}
	if total != 1 || list[0].Student.ID != f.student.StudentID {
		t.Errorf("student should only see their own result, got %+v", list)
	}
}
