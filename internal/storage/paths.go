package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the file suffix of a stored table
const Extension = ".json"

var (
	ErrInvalidTableName = errors.New("invalid table name")
	ErrTableNotFound    = errors.New("table not found")
	ErrTableExists      = errors.New("table already exists")
)

// Paths resolves where named tables live on disk.
// In debug mode tables go to the user's Desktop so they are easy to inspect.
type Paths struct {
	DataDir string
	Debug   bool
}

// DefaultDataDir returns the per-user data directory for tables
func DefaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".coltable"
	}
	return filepath.Join(dir, "coltable")
}

// Dir returns the directory holding named tables
func (p Paths) Dir() (string, error) {
	if p.Debug {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve desktop directory: %w", err)
		}
		return filepath.Join(home, "Desktop"), nil
	}
	if p.DataDir != "" {
		return p.DataDir, nil
	}
	return DefaultDataDir(), nil
}

// TablePath returns the file path of the named table
func (p Paths) TablePath(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	dir, err := p.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+Extension), nil
}

// ValidateName rejects names that cannot be used as a file name
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, name)
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, os.PathSeparator) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidTableName, name)
	}
	return nil
}

// NameFromPath returns the table name of a stored table file, or "" if
// path does not look like one.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	if filepath.Ext(base) != Extension {
		return ""
	}
	name := strings.TrimSuffix(base, Extension)
	if ValidateName(name) != nil {
		return ""
	}
	return name
}
