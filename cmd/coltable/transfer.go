package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leengari/coltable/internal/domain/table"
	"github.com/leengari/coltable/internal/export"
	"github.com/leengari/coltable/internal/storage"
)

var errUnknownFormat = errors.New("unknown file format, use .json, .csv or .parquet")

func newExportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export TABLE FILE",
		Short: "Write a table to a JSON, CSV or Parquet file",
		Long:  "Write a table to FILE. The format follows the extension: .json, .csv or .parquet.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]

			var err error
			switch formatOf(path) {
			case storage.Extension:
				err = a.registry.SaveAs(name, path)
			case ".csv":
				err = a.registry.With(name, func(t *table.Table) error {
					return export.ExportCSV(path, t)
				})
			case ".parquet":
				err = a.registry.With(name, func(t *table.Table) error {
					return export.ExportParquet(path, t)
				})
			default:
				err = errUnknownFormat
			}
			if err != nil {
				return fmt.Errorf("export %s: %w", name, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Table '%s' exported to %s\n", name, path)
			return nil
		},
	}
}

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE [TABLE]",
		Short: "Store a JSON, CSV or Parquet file as a new table",
		Long: `Read FILE and store it as a new table. The table name defaults to the
file name without its extension. CSV files must start with a header row.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			base := filepath.Base(path)
			name := strings.TrimSuffix(base, filepath.Ext(base))
			if len(args) == 2 {
				name = args[1]
			}

			var (
				tbl *table.Table
				err error
			)
			// ids are assigned when the registry stores the table
			switch formatOf(path) {
			case storage.Extension:
				tbl, err = storage.LoadTable(path, a.logger)
			case ".csv":
				tbl, err = export.ImportCSV(path, 0, name, table.WithLogger(a.logger))
			case ".parquet":
				tbl, err = export.ImportParquet(cmd.Context(), path, 0, name, table.WithLogger(a.logger))
			default:
				err = errUnknownFormat
			}
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}

			if err := a.registry.Add(name, tbl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Table '%s' imported: %d row(s), %d column(s)\n",
				name, tbl.RowCount(), tbl.ColumnCount())
			return nil
		},
	}
}

func formatOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
