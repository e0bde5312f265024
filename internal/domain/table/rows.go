package table

import (
	"fmt"
)

// InsertRow appends one empty cell to every column and returns the new row
func (t *Table) InsertRow() (Row, error) {
	const op = "insert row"
	_, done := t.events().begin()
	defer done()

	if len(t.columns) == 0 {
		err := fmt.Errorf("%s: %w", op, ErrNoColumns)
		t.events().report(op, "", err)
		return Row{}, err
	}

	cells := make([]*Cell, len(t.columns))
	for i, col := range t.columns {
		cells[i] = col.appendCell("")
	}
	t.rowCount++

	row := newRow(cells)
	t.events().emit(Event{Type: EventRowInserted, Row: row})
	t.events().report(op, fmt.Sprintf("inserted row %d", t.rowCount-1), nil)
	return row, nil
}

// InsertRowAt inserts an empty row before the existing row at index.
// index must name an existing row; use InsertRow to append.
func (t *Table) InsertRowAt(index int) (Row, error) {
	const op = "insert row at"
	_, done := t.events().begin()
	defer done()

	if len(t.columns) == 0 {
		err := fmt.Errorf("%s: %w", op, ErrNoColumns)
		t.events().report(op, "", err)
		return Row{}, err
	}
	if index < 0 || index >= t.rowCount {
		err := newIndexError(op, index, t.rowCount)
		t.events().report(op, "", err)
		return Row{}, err
	}

	cells := make([]*Cell, len(t.columns))
	for i, col := range t.columns {
		cells[i] = col.insertCell("", index)
	}
	t.rowCount++

	row := newRow(cells)
	t.events().emit(Event{Type: EventRowInserted, Row: row})
	t.events().report(op, fmt.Sprintf("inserted row at index %d", index), nil)
	return row, nil
}

// RemoveRow removes the row at index from every column.
// The row_removed event carries the removed cells.
func (t *Table) RemoveRow(index int) error {
	const op = "remove row"
	_, done := t.events().begin()
	defer done()

	if index < 0 || index >= t.rowCount {
		err := newIndexError(op, index, t.rowCount)
		t.events().report(op, "", err)
		return err
	}

	cells := make([]*Cell, len(t.columns))
	for i, col := range t.columns {
		cells[i] = col.remove(index)
	}
	t.rowCount--

	t.events().emit(Event{Type: EventRowRemoved, Row: newRow(cells)})
	for _, cell := range cells {
		cell.detach()
	}
	t.events().report(op, fmt.Sprintf("removed row %d", index), nil)
	return nil
}

// RemoveAllRows removes every row, last to first
func (t *Table) RemoveAllRows() {
	for i := t.rowCount - 1; i >= 0; i-- {
		_ = t.RemoveRow(i)
	}
}

// ShiftRow moves the row at from so that it ends up at to
func (t *Table) ShiftRow(from, to int) error {
	const op = "shift row"
	_, done := t.events().begin()
	defer done()

	if from == to {
		err := fmt.Errorf("%s: %w: %d", op, ErrSameIndex, from)
		t.events().report(op, "", err)
		return err
	}
	if from < 0 || from >= t.rowCount {
		err := newIndexError(op, from, t.rowCount)
		t.events().report(op, "", err)
		return err
	}
	if to < 0 || to >= t.rowCount {
		err := newIndexError(op, to, t.rowCount)
		t.events().report(op, "", err)
		return err
	}

	for _, col := range t.columns {
		col.shiftRows(from, to)
	}

	t.events().emit(Event{Type: EventRowShifted, From: from, To: to})
	t.events().report(op, fmt.Sprintf("shifted row from %d to %d", from, to), nil)
	return nil
}

// SetValue updates the cell at (row, column)
func (t *Table) SetValue(row int, columnName, value string) error {
	const op = "set value"
	_, done := t.events().begin()
	defer done()

	col := t.Column(columnName)
	if col == nil {
		err := newColumnError(op, columnName, ErrColumnNotFound)
		t.events().report(op, "", err)
		return err
	}
	cell := col.Cell(row)
	if cell == nil {
		err := newIndexError(op, row, t.rowCount)
		t.events().report(op, "", err)
		return err
	}

	cell.Update(value)
	t.events().report(op, fmt.Sprintf("set %q at row %d", columnName, row), nil)
	return nil
}

// RowByIndex assembles the row at index.
// The second return value is false when index is out of range.
func (t *Table) RowByIndex(index int) (Row, bool) {
	if index < 0 || index >= t.rowCount {
		return Row{}, false
	}

	cells := make([]*Cell, 0, len(t.columns))
	for _, col := range t.columns {
		cell := col.Cell(index)
		if cell == nil {
			return Row{}, false
		}
		cells = append(cells, cell)
	}
	return newRow(cells), true
}

// Rows assembles every row in order.
// A column shorter than the row count yields ErrInconsistent.
func (t *Table) Rows() ([]Row, error) {
	rows := make([]Row, 0, t.rowCount)
	for i := 0; i < t.rowCount; i++ {
		row, ok := t.RowByIndex(i)
		if !ok {
			err := fmt.Errorf("rows: row %d missing: %w", i, ErrInconsistent)
			t.events().report("rows", "", err)
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// RowsRange assembles up to count rows starting at start.
//
// With pagination set, a range that runs past the end is clipped and a start
// beyond the last row yields an empty slice. Without it, start must name an
// existing row.
func (t *Table) RowsRange(start, count int, pagination bool) ([]Row, error) {
	const op = "rows range"

	if t.rowCount == 0 {
		err := newIndexError(op, start, 0)
		t.events().report(op, "", err)
		return nil, err
	}
	if !pagination && (start < 0 || start >= t.rowCount) {
		err := newIndexError(op, start, t.rowCount)
		t.events().report(op, "", err)
		return nil, err
	}
	if start < 0 {
		start = 0
	}
	if count < 0 {
		count = 0
	}

	// start+count may overflow
	end := t.rowCount
	if count < t.rowCount-start {
		end = start + count
	}

	rows := make([]Row, 0, max(end-start, 0))
	for i := start; i < end; i++ {
		row, ok := t.RowByIndex(i)
		if !ok {
			err := fmt.Errorf("%s: row %d missing: %w", op, i, ErrInconsistent)
			t.events().report(op, "", err)
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FindRow returns the first row whose cell in columnName equals value
func (t *Table) FindRow(columnName, value string) (Row, bool) {
	col := t.Column(columnName)
	if col == nil {
		return Row{}, false
	}
	cell := col.CellByValue(value)
	if cell == nil {
		return Row{}, false
	}
	return t.RowByIndex(cell.rowIndex)
}
