package main

import (
	"errors"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Koomefranklin/kise-results-backend/config"
	"github.com/Koomefranklin/kise-results-backend/internal/repository"
	"github.com/Koomefranklin/kise-results-backend/pkg/database"
	applogger "github.com/Koomefranklin/kise-results-backend/pkg/logger"
)

var errHelp = errors.New("help provided")

// app holds what every subcommand needs once connected
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	repo   *repository.Repository
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "manage",
		Short:         "KISE results administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a config file")

	connect := func() (*app, error) {
		return openApp(cfgPath)
	}

	root.AddCommand(
		newCreateSuperuserCmd(connect),
		newImportCmd(connect),
		newExportAssessmentsCmd(connect),
		newMigrateCmd(connect),
	)
	return root
}

func openApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		repo:   repository.NewRepository(db),
	}, nil
}

func (a *app) close() {
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	a.logger.Sync()
}
