package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leengari/coltable/internal/domain/table"
)

// LoadTable reads a table document from path.
// On failure the error is logged and a nil table is returned.
func LoadTable(path string, logger *slog.Logger) (*table.Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tbl, err := loadTable(path, logger)
	if err != nil {
		logger.Error("failed to load table",
			slog.String("path", path),
			slog.Any("error", err),
		)
		return nil, err
	}

	logger.Info("table loaded",
		slog.String("table", tbl.Name),
		slog.String("path", path),
		slog.Int("columns", tbl.ColumnCount()),
		slog.Int("rows", tbl.RowCount()),
	)
	return tbl, nil
}

func loadTable(path string, logger *slog.Logger) (*table.Table, error) {
	if path == "" {
		return nil, fmt.Errorf("load table: empty path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load table %s: %w", path, ErrTableNotFound)
		}
		return nil, fmt.Errorf("load table %s: %w", path, err)
	}
	tbl := table.New(0, "", nil, table.WithLogger(logger))
	if err := decodeInto(path, data, tbl); err != nil {
		return nil, err
	}
	return tbl, nil
}

// ReloadTable replaces the contents of tbl with the document at path.
// Observers registered on tbl are kept; tbl is untouched on failure.
func ReloadTable(path string, tbl *table.Table) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reload table %s: %w", path, ErrTableNotFound)
		}
		return fmt.Errorf("reload table %s: %w", path, err)
	}
	return decodeInto(path, data, tbl)
}

func decodeInto(path string, data []byte, tbl *table.Table) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("load table %s: empty file", path)
	}
	if err := json.Unmarshal(data, tbl); err != nil {
		return fmt.Errorf("load table %s: %w", path, err)
	}
	return nil
}

// LoadNamed reads the named table from the data directory
func LoadNamed(p Paths, name string, logger *slog.Logger) (*table.Table, error) {
	path, err := p.TablePath(name)
	if err != nil {
		return nil, err
	}
	return LoadTable(path, logger)
}

// ListTables returns the names of all stored tables, sorted
func ListTables(p Paths) ([]string, error) {
	dir, err := p.Dir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read table directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := NameFromPath(filepath.Join(dir, entry.Name())); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
