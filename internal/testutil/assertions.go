package testutil

import (
	"testing"

	"github.com/leengari/coltable/internal/domain/table"
)

// AssertConsistent checks the structural invariants of a table:
// every column holds RowCount cells, column positions match slice order,
// and every cell's stored row index, column name and column index are current.
func AssertConsistent(t *testing.T, tbl *table.Table) {
	t.Helper()

	seen := make(map[string]bool)
	for i, col := range tbl.Columns() {
		if col.Index() != i {
			t.Errorf("column %q: expected index %d, got %d", col.Name(), i, col.Index())
		}
		if seen[col.Name()] {
			t.Errorf("column name %q appears more than once", col.Name())
		}
		seen[col.Name()] = true

		if col.Len() != tbl.RowCount() {
			t.Errorf("column %q: expected %d cells, got %d", col.Name(), tbl.RowCount(), col.Len())
		}

		for j, cell := range col.Cells() {
			if cell.RowIndex() != j {
				t.Errorf("column %q cell %d: stored row index %d", col.Name(), j, cell.RowIndex())
			}
			if cell.ColumnName() != col.Name() {
				t.Errorf("column %q cell %d: stored column name %q", col.Name(), j, cell.ColumnName())
			}
			if cell.ColumnIndex() != i {
				t.Errorf("column %q cell %d: stored column index %d", col.Name(), j, cell.ColumnIndex())
			}
		}
	}
}

// AssertColumnValues checks the values of a single column in row order
func AssertColumnValues(t *testing.T, tbl *table.Table, column string, expected ...string) {
	t.Helper()

	col := tbl.Column(column)
	if col == nil {
		t.Fatalf("expected column %q to exist", column)
	}
	values := col.Values()
	if len(values) != len(expected) {
		t.Fatalf("column %q: expected %d values, got %d (%v)", column, len(expected), len(values), values)
	}
	for i := range expected {
		if values[i] != expected[i] {
			t.Errorf("column %q row %d: expected %q, got %q", column, i, expected[i], values[i])
		}
	}
}
