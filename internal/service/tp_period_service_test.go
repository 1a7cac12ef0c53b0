package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Koomefranklin/kise-results-backend/internal/dto"
)

func TestPeriodService_SingleActive(t *testing.T) {
	r := newTestRepos()
	svc := NewPeriodService(r.repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.GetActive(ctx); !errors.Is(err, ErrNoActivePeriod) {
		t.Errorf("expected ErrNoActivePeriod, got: %v", err)
	}

	first, err := svc.Create(ctx, &dto.PeriodRequest{Name: " 2026 Term 1 ", IsActive: true}, "admin-1")
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if first.Name != "2026 Term 1" {
		t.Errorf("name should be trimmed, got %q", first.Name)
	}

	second, err := svc.Create(ctx, &dto.PeriodRequest{Name: "2026 Term 2", IsActive: true}, "admin-1")
	if err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	active, err := svc.GetActive(ctx)
	if err != nil || active.ID != second.ID {
		t.Fatalf("the newest active period should win, got %+v %v", active, err)
	}
	if r.periods.periods[first.ID].IsActive {
		t.Error("activating a period must deactivate the others")
	}

	if _, err := svc.Update(ctx, first.ID, &dto.PeriodRequest{Name: "2026 Term 1", IsActive: true}, "admin-1"); err != nil {
		t.Fatalf("Update should succeed: %v", err)
	}
	active, _ = svc.GetActive(ctx)
	if active == nil || active.ID != first.ID {
		t.Errorf("reactivated period should be active, got %+v", active)
	}
	if r.periods.periods[second.ID].IsActive {
		t.Error("only one period may be active")
	}

	list, err := svc.List(ctx)
	if err != nil || len(list) != 2 {
		t.Errorf("expected 2 periods, got %d %v", len(list), err)
	}
}

func TestPeriodService_Rejections(t *testing.T) {
	r := newTestRepos()
	svc := NewPeriodService(r.repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, &dto.PeriodRequest{Name: "2026 Term 1"}, "admin-1"); err != nil {
		t.Fatalf("Create should succeed: %v", err)
	}
	if _, err := svc.Create(ctx, &dto.PeriodRequest{Name: "2026 Term 1"}, "admin-1"); !errors.Is(err, ErrPeriodNameExists) {
		t.Errorf("expected ErrPeriodNameExists, got: %v", err)
	}
	if _, err := svc.Update(ctx, "missing", &dto.PeriodRequest{Name: "x"}, "admin-1"); !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("expected ErrPeriodNotFound, got: %v", err)
	}
	if err := svc.Delete(ctx, "missing", "admin-1"); !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("expected ErrPeriodNotFound, got: %v", err)
	}
}
