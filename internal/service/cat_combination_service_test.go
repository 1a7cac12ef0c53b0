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

func setupCatCombination() (CatCombinationService, *testRepos) {
	r := newTestRepos()
	seedCatalog(r)
	return NewCatCombinationService(r.repo, zap.NewNop()), r
}

func briefIDs(list []dto.BriefResponse) []string {
	var out []string
	for _, b := range list {
		out = append(out, b.ID)
	}
	return out
}

func TestCatCombinationService_Create_Buckets(t *testing.T) {
	tests := []struct {
		name     string
		existing *model.CatCombination
		req      dto.CatCombinationRequest
		wantErr  error
	}{
		{
			name: "split across buckets",
			req:  dto.CatCombinationRequest{PaperID: "paper-hi", Cat1: []string{"mod-hi-a", "mod-hi-b"}, Cat2: []string{"mod-hi-c"}},
		},
		{
			name: "repeat within one bucket collapses",
			req:  dto.CatCombinationRequest{PaperID: "paper-hi", Cat1: []string{"mod-hi-a", "mod-hi-a"}},
		},
		{
			name:    "module in both buckets",
			req:     dto.CatCombinationRequest{PaperID: "paper-hi", Cat1: []string{"mod-hi-a"}, Cat2: []string{"mod-hi-a"}},
			wantErr: ErrModuleInBothBuckets,
		},
		{
			name:    "module of another paper",
			req:     dto.CatCombinationRequest{PaperID: "paper-hi", Cat1: []string{"mod-hi-a", "mod-vi-a"}},
			wantErr: ErrModuleNotInPaper,
		},
		{
			name:    "unknown module",
			req:     dto.CatCombinationRequest{PaperID: "paper-hi", Cat2: []string{"mod-missing"}},
			wantErr: ErrModuleNotInPaper,
		},
		{
			name: "module held by another combination",
			existing: &model.CatCombination{
				CatCombinationID: "combo-stale",
				PaperID:          "paper-old",
				Modules:          []model.CatCombinationModule{{CatCombinationID: "combo-stale", ModuleID: "mod-hi-b", Cat: model.Cat1}},
			},
			req:     dto.CatCombinationRequest{PaperID: "paper-hi", Cat1: []string{"mod-hi-a"}, Cat2: []string{"mod-hi-b"}},
			wantErr: ErrModuleAlreadyAssigned,
		},
		{
			name:     "paper already combined",
			existing: &model.CatCombination{CatCombinationID: "combo-old", PaperID: "paper-hi"},
			req:      dto.CatCombinationRequest{PaperID: "paper-hi", Cat1: []string{"mod-hi-a"}},
			wantErr:  ErrCatCombinationExists,
		},
		{
			name:    "unknown paper",
			req:     dto.CatCombinationRequest{PaperID: "paper-missing"},
			wantErr: ErrPaperNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, r := setupCatCombination()
			if tt.existing != nil {
				r.combos.combos[tt.existing.PaperID] = tt.existing
			}

			resp, err := svc.Create(context.Background(), &tt.req, adminCaller)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil {
				if c, ok := r.combos.combos["paper-hi"]; ok && c != tt.existing {
					t.Error("a rejected combination must not be stored")
				}
				return
			}
			if resp.Paper == nil || resp.Paper.Code != "HI101" {
				t.Errorf("paper missing from response: %+v", resp.Paper)
			}
			wantCat1 := dedupe(tt.req.Cat1)
			if got := briefIDs(resp.Cat1); !reflect.DeepEqual(got, wantCat1) {
				t.Errorf("cat1: got %v, want %v", got, wantCat1)
			}
			if got := briefIDs(resp.Cat2); len(got) != len(tt.req.Cat2) {
				t.Errorf("cat2: got %v, want %v", got, tt.req.Cat2)
			}
		})
	}
}

func TestCatCombinationService_WritePermission(t *testing.T) {
	tests := []struct {
		name    string
		caller  Caller
		wantErr error
	}{
		{"admin", adminCaller, nil},
		{"lecturer of the paper's specialization", lecturerOf("spec-hi"), nil},
		{"lecturer of another specialization", lecturerOf("spec-vi"), ErrNoPermission},
		{"student of the specialization", Caller{UserID: "stu", Role: model.RoleStudent, SpecializationID: "spec-hi"}, ErrNoPermission},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupCatCombination()
			req := &dto.CatCombinationRequest{PaperID: "paper-hi", Cat1: []string{"mod-hi-a"}}
			if _, err := svc.Create(context.Background(), req, tt.caller); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCatCombinationService_UpdateAndAvailable(t *testing.T) {
	svc, _ := setupCatCombination()
	ctx := context.Background()

	combo, err := svc.Create(ctx, &dto.CatCombinationRequest{PaperID: "paper-hi", Cat1: []string{"mod-hi-a"}}, lecturerOf("spec-hi"))
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}

	free, err := svc.AvailableModules(ctx, "paper-hi", lecturerOf("spec-hi"))
	if err != nil {
		t.Fatalf("AvailableModules: %v", err)
	}
	if got := briefIDs(free); !reflect.DeepEqual(got, []string{"mod-hi-b", "mod-hi-c"}) {
		t.Errorf("available: got %v", got)
	}

	// the combination's own modules may move between buckets
	updated, err := svc.Update(ctx, combo.ID, &dto.UpdateCatCombinationRequest{Cat1: []string{"mod-hi-b"}, Cat2: []string{"mod-hi-a", "mod-hi-c"}}, lecturerOf("spec-hi"))
	if err != nil {
		t.Fatalf("Update should succeed: %v", err)
	}
	if !reflect.DeepEqual(briefIDs(updated.Cat1), []string{"mod-hi-b"}) || !reflect.DeepEqual(briefIDs(updated.Cat2), []string{"mod-hi-a", "mod-hi-c"}) {
		t.Errorf("unexpected buckets: cat1=%v cat2=%v", briefIDs(updated.Cat1), briefIDs(updated.Cat2))
	}

	free, _ = svc.AvailableModules(ctx, "paper-hi", adminCaller)
	if len(free) != 0 {
		t.Errorf("all modules are assigned, got %v", briefIDs(free))
	}

	if _, err := svc.Update(ctx, combo.ID, &dto.UpdateCatCombinationRequest{Cat1: []string{"mod-hi-a"}, Cat2: []string{"mod-hi-a"}}, adminCaller); !errors.Is(err, ErrModuleInBothBuckets) {
		t.Errorf("expected ErrModuleInBothBuckets, got %v", err)
	}
	if _, err := svc.Update(ctx, combo.ID, &dto.UpdateCatCombinationRequest{Cat1: []string{"mod-hi-a"}}, lecturerOf("spec-vi")); !errors.Is(err, ErrNoPermission) {
		t.Errorf("expected ErrNoPermission, got %v", err)
	}
	if _, err := svc.AvailableModules(ctx, "paper-hi", lecturerOf("spec-vi")); !errors.Is(err, ErrNoPermission) {
		t.Errorf("expected ErrNoPermission, got %v", err)
	}

	list, total, err := svc.List(ctx, &dto.PaginationRequest{}, lecturerOf("spec-vi"))
	if err != nil || total != 0 || len(list) != 0 {
		t.Errorf("another specialization lists nothing, got %d %v", total, err)
	}

	if err := svc.Delete(ctx, combo.ID, lecturerOf("spec-vi")); !errors.Is(err, ErrNoPermission) {
		t.Errorf("expected ErrNoPermission, got %v", err)
	}
	if err := svc.Delete(ctx, combo.ID, lecturerOf("spec-hi")); err != nil {
		t.Fatalf("Delete should succeed: %v", err)
	}
	if _, err := svc.GetByID(ctx, combo.ID, adminCaller); !errors.Is(err, ErrCatCombinationNotFound) {
		t.Errorf("expected ErrCatCombinationNotFound, got %v", err)
	}
}
