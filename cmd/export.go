package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/export"
	"github.com/sells-group/insights-cli/internal/model"
)

var (
	exportFormat string
	exportOutDir string
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a stored run's datasets as CSV files or an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		result, err := st.LoadResult(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "load run")
		}

		switch exportFormat {
		case "csv":
			return exportCSV(result)
		case "xlsx":
			return exportXLSX(result)
		default:
			return eris.Errorf("unsupported export format: %s", exportFormat)
		}
	},
}

func exportCSV(result *model.RunResult) error {
	files := []struct {
		name  string
		write func(f *os.File) error
	}{
		{"places.csv", func(f *os.File) error { return export.WritePlacesCSV(f, result.Places) }},
		{"reviews.csv", func(f *os.File) error { return export.WriteReviewsCSV(f, result.Reviews) }},
		{"analytics.csv", func(f *os.File) error { return export.WriteAnalyticsCSV(f, result.Analytics) }},
	}
	for _, out := range files {
		path := filepath.Join(exportOutDir, out.name)
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		if err := out.write(f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "close %s", path)
		}
		zap.L().Info("exported", zap.String("path", path))
	}
	return nil
}

func exportXLSX(result *model.RunResult) error {
	path := filepath.Join(exportOutDir, "insights.xlsx")
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := export.WriteWorkbook(f, result); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "close %s", path)
	}
	zap.L().Info("exported", zap.String("path", path))
	return nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "export format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportOutDir, "out", ".", "output directory")
	rootCmd.AddCommand(exportCmd)
}
