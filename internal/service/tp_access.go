package service

import (
	"context"

	"github.com/Koomefranklin/kise-results-backend/internal/repository"
)

// TPAccess answers teaching practice permission questions
type TPAccess struct {
	repo *repository.Repository
}

// NewTPAccess creates a TPAccess
func NewTPAccess(repo *repository.Repository) *TPAccess {
	return &TPAccess{repo: repo}
}

// AdminOf returns the assessment types caller administers. all is true for
// admins, who administer every type; ids is then nil.
func (a *TPAccess) AdminOf(ctx context.Context, caller Caller) (ids []string, all bool, err error) {
	if caller.IsAdmin() {
		return nil, true, nil
	}
	ids, err = a.repo.AssessmentType.ListIDsByAdmin(ctx, caller.UserID)
	if err != nil {
		return nil, false, err
	}
	return ids, false, nil
}

// IsTPAdmin role admin, or an admin of any assessment type
func (a *TPAccess) IsTPAdmin(ctx context.Context, caller Caller) (bool, error) {
	ids, all, err := a.AdminOf(ctx, caller)
	if err != nil {
		return false, err
	}
	return all || len(ids) > 0, nil
}

// CanManageType reports whether caller administers typeID
func (a *TPAccess) CanManageType(ctx context.Context, caller Caller, typeID string) (bool, error) {
	ids, all, err := a.AdminOf(ctx, caller)
	if err != nil {
		return false, err
	}
	if all {
		return true, nil
	}
	for _, id := range ids {
		if id == typeID {
			return true, nil
		}
	}
	return false, nil
}

// LetterScope resolves which letters caller may see. Admins see all. Anyone
// else sees their own letters as assessor plus those of the assessment types
// they administer, the zones they lead and the specializations they head.
func (a *TPAccess) LetterScope(ctx context.Context, caller Caller) (repository.LetterScope, error) {
	ids, all, err := a.AdminOf(ctx, caller)
	if err != nil {
		return repository.LetterScope{}, err
	}
	if all {
		return repository.LetterScope{All: true}, nil
	}
	scope := repository.LetterScope{AssessmentTypeIDs: ids, AssessorID: caller.UserID}

	scope.Zones, err = a.repo.ZonalLeader.ZonesByAssessor(ctx, caller.UserID)
	if err != nil {
		return repository.LetterScope{}, err
	}

	if caller.IsHoD {
		scope.SpecializationIDs, err = a.repo.Specialization.ListHoDSpecializations(ctx, caller.UserID)
		if err != nil {
			return repository.LetterScope{}, err
		}
	}
	return scope, nil
}

// CanExport TP admins, zonal leaders and HoDs
func (a *TPAccess) CanExport(ctx context.Context, caller Caller) (bool, error) {
	scope, err := a.LetterScope(ctx, caller)
	if err != nil {
		return false, err
	}
	return scope.All || len(scope.AssessmentTypeIDs) > 0 || len(scope.Zones) > 0 || len(scope.SpecializationIDs) > 0, nil
}
