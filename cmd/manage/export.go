package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	perrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Koomefranklin/kise-results-backend/internal/model"
	"github.com/Koomefranklin/kise-results-backend/internal/service"
)

func newExportAssessmentsCmd(connect func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "export-assessments <file>",
		Short: "Write every completed assessment to a .csv or .xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			format, err := exportFormat(path)
			if err != nil {
				return err
			}

			a, err := connect()
			if err != nil {
				return err
			}
			defer a.close()

			tp := service.NewTPAccess(a.repo)
			svc := service.NewTPExportService(a.cfg, a.repo, tp, a.logger)
			body, _, _, err := svc.Export(cmd.Context(), format, service.Caller{Role: model.RoleAdmin})
			if err != nil {
				return perrors.Wrap(err, "export assessments")
			}

			if err := os.WriteFile(path, body.Bytes(), 0o644); err != nil {
				return perrors.Wrapf(err, "write %s", path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

// exportFormat picks the format from the file extension
func exportFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return service.ExportCSV, nil
	case ".xlsx":
		return service.ExportXLSX, nil
	}
	return "", fmt.Errorf("%q: file must end in .csv or .xlsx", path)
}
