package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Koomefranklin/kise-results-backend/pkg/database"
)

// mockable
var (
	runMigrationsFunc = func(a *app) error {
		sqlDB, err := a.db.DB()
		if err != nil {
			return err
		}
		return database.RunMigrations(sqlDB, a.logger)
	}
	migrationStatusFunc = func(a *app) (database.MigrationState, error) {
		sqlDB, err := a.db.DB()
		if err != nil {
			return database.MigrationState{}, err
		}
		return database.MigrationStatus(sqlDB)
	}
)

func newMigrateCmd(connect func() (*app, error)) *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := connect()
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			if status {
				st, err := migrationStatusFunc(a)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, describeMigrationState(st))
				return nil
			}

			if err := runMigrationsFunc(a); err != nil {
				return err
			}
			fmt.Fprintln(out, "migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "print the applied schema version and exit")
	return cmd
}

func describeMigrationState(st database.MigrationState) string {
	switch {
	case st.Dirty:
		return fmt.Sprintf("version %d is dirty; fix it by hand before migrating", st.Version)
	case st.Pending():
		return fmt.Sprintf("version %d, %d pending (latest %d)", st.Version, st.Latest-st.Version, st.Latest)
	default:
		return fmt.Sprintf("version %d, up to date", st.Version)
	}
}
