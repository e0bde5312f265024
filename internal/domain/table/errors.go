package table

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned (wrapped) by table operations.
// Use errors.Is to branch on them.
var (
	ErrInvalidName     = errors.New("column name must not be blank")
	ErrDuplicateColumn = errors.New("column already exists")
	ErrColumnNotFound  = errors.New("column not found")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrNoColumns       = errors.New("table has no columns")
	ErrSameIndex       = errors.New("source and target index are equal")
	ErrInconsistent    = errors.New("table is inconsistent")
)

// IndexError describes a rejected row or column position
type IndexError struct {
	Op    string // operation that rejected the index
	Index int    // offending index
	Bound int    // exclusive upper bound that was in effect
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Bound)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// ColumnError describes a rejected column name
type ColumnError struct {
	Op     string
	Column string
	Err    error // one of ErrInvalidName, ErrDuplicateColumn, ErrColumnNotFound
}

func (e *ColumnError) Error() string {
	var parts []string
	parts = append(parts, e.Op)
	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column %q", e.Column))
	}
	parts = append(parts, e.Err.Error())
	return strings.Join(parts, ": ")
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

func newIndexError(op string, index, bound int) *IndexError {
	return &IndexError{Op: op, Index: index, Bound: bound}
}

func newColumnError(op, column string, err error) *ColumnError {
	return &ColumnError{Op: op, Column: column, Err: err}
}
