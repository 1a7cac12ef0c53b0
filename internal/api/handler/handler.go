package handler

import (
	"github.com/Koomefranklin/kise-results-backend/config"
	"github.com/Koomefranklin/kise-results-backend/internal/service"
)

// Handler aggregates every HTTP handler
type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Catalog *CatalogHandler
	People  *PeopleHandler
	Score   *ScoreHandler
	Import  *ImportHandler
	TP      *TPHandler
	Letter  *LetterHandler
	Export  *ExportHandler
}

// NewHandler wires handlers to their services
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(svc.Auth, &cfg.Auth),
		User:    NewUserHandler(svc.User),
		Catalog: NewCatalogHandler(svc.Course, svc.Specialization, svc.Paper, svc.Module),
		People:  NewPeopleHandler(svc.Lecturer, svc.Student),
		Score:   NewScoreHandler(svc.Deadline, svc.CatCombination, svc.Score, svc.Result),
		Import:  NewImportHandler(svc.Import, svc.Audit, cfg.Server.MaxUploadMB),
		TP:      NewTPHandler(svc.Period, svc.AssessmentType, svc.Rubric, svc.TPStudent, svc.ZonalLeader),
		Letter:  NewLetterHandler(svc.Letter),
		Export:  NewExportHandler(svc.TPExport),
	}
}
