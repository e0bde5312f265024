package writer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leengari/coltable/internal/domain/table"
	"github.com/leengari/coltable/internal/storage"
)

// SaveTable writes the table document to path atomically.
// The in-memory table is never modified, and on failure the previous file
// (if any) is left in place.
func SaveTable(path string, t *table.Table, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := saveTable(path, t); err != nil {
		logger.Error("failed to save table",
			slog.String("path", path),
			slog.Any("error", err),
		)
		return err
	}

	logger.Info("table saved",
		slog.String("table", t.Name),
		slog.String("path", path),
		slog.Int("columns", t.ColumnCount()),
		slog.Int("rows", t.RowCount()),
	)
	return nil
}

func saveTable(path string, t *table.Table) error {
	if t == nil || path == "" {
		return fmt.Errorf("cannot save table: nil or missing path")
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal table %s: %w", t.Name, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for table %s: %w", t.Name, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file for table %s: %w", t.Name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file for table %s: %w", t.Name, err)
	}
	return nil
}

// SaveNamed writes the table into the data directory under name
func SaveNamed(p storage.Paths, name string, t *table.Table, logger *slog.Logger) error {
	path, err := p.TablePath(name)
	if err != nil {
		return err
	}
	return SaveTable(path, t, logger)
}
