package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	perrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Koomefranklin/kise-results-backend/internal/service"
)

func newImportCmd(connect func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "import <kind> <file>",
		Short: "Bulk-import a CSV or XLSX file",
		Long:  "Bulk-import a CSV or XLSX file. Kinds: " + strings.Join(service.ImportKinds, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, path := args[0], args[1]
			if !validImportKind(kind) {
				return fmt.Errorf("%q: unknown import kind", kind)
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := connect()
			if err != nil {
				return err
			}
			defer a.close()

			svc := service.NewImportService(a.repo, a.logger)
			res, err := svc.Import(cmd.Context(), kind, filepath.Base(path), f, "")
			if err != nil {
				return perrors.Wrapf(err, "import %s from %s", kind, path)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d rows, %d created, %d skipped, %d failed\n",
				res.Kind, res.Total, res.Created, res.Skipped, res.Failed)
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  row %d: %s\n", e.Row, e.Reason)
			}
			return nil
		},
	}
}

func validImportKind(kind string) bool {
	for _, k := range service.ImportKinds {
		if k == kind {
			return true
		}
	}
	return false
}
