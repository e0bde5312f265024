package table

import (
	"fmt"
	"log/slog"
	"strings"
)

// Table owns an ordered set of uniquely named columns and the shared row count.
// Every structural mutation goes through Table so that all columns keep the
// same length and every stored position matches its slice position.
//
// A Table is not safe for concurrent use.
type Table struct {
	ID       int
	Name     string
	columns  []*Column
	rowCount int
	hub      *hub
}

// Option configures a Table
type Option func(*Table)

// WithLogger sets the logger used for operation outcomes
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.events().logger = logger
		}
	}
}

// WithObserver registers an observer before the initial columns are created
func WithObserver(observer Observer) Option {
	return func(t *Table) {
		t.AddObserver(observer)
	}
}

// New creates a table and its initial columns.
// Blank or repeated names in columns are skipped; the skip is reported
// through the log hook like any other rejected CreateColumn.
func New(id int, name string, columns []string, opts ...Option) *Table {
	t := &Table{
		ID:      id,
		Name:    name,
		columns: make([]*Column, 0, len(columns)),
		hub:     newHub(name, nil),
	}
	t.hub.size = t.size
	for _, opt := range opts {
		opt(t)
	}

	for _, col := range columns {
		_ = t.CreateColumn(col)
	}

	return t
}

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int { return len(t.columns) }

// RowCount returns the number of rows
func (t *Table) RowCount() int { return t.rowCount }

// ColumnNames returns the column names in display order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// Columns returns a copy of the column sequence
func (t *Table) Columns() []*Column {
	cols := make([]*Column, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// SetName renames the table; events emitted afterwards carry the new name
func (t *Table) SetName(name string) {
	t.Name = name
	t.events().table = name
}

// CreateColumn appends a column and back-fills it with one empty cell per row
func (t *Table) CreateColumn(name string) error {
	const op = "create column"
	_, done := t.events().begin()
	defer done()

	if err := t.checkNewName(op, name); err != nil {
		t.events().report(op, "", err)
		return err
	}

	col := newColumn(name, len(t.columns), t.events())
	t.columns = append(t.columns, col)
	for i := 0; i < t.rowCount; i++ {
		col.appendCell("")
	}

	t.reIndexColumns()

	t.events().emit(Event{Type: EventColumnCreated, Column: col})
	t.events().report(op, fmt.Sprintf("created column %q", name), nil)
	return nil
}

// CreateColumnAt inserts a column before the existing column at index.
// index must name an existing column; use CreateColumn to append.
func (t *Table) CreateColumnAt(name string, index int) error {
	const op = "create column at"
	_, done := t.events().begin()
	defer done()

	if index < 0 || index >= len(t.columns) {
		err := newIndexError(op, index, len(t.columns))
		t.events().report(op, "", err)
		return err
	}
	if err := t.checkNewName(op, name); err != nil {
		t.events().report(op, "", err)
		return err
	}

	col := newColumn(name, index, t.events())
	for i := 0; i < t.rowCount; i++ {
		col.appendCell("")
	}

	t.columns = append(t.columns, nil)
	copy(t.columns[index+1:], t.columns[index:])
	t.columns[index] = col

	t.reIndexColumns()

	t.events().emit(Event{Type: EventColumnCreated, Column: col})
	t.events().report(op, fmt.Sprintf("created column %q at index %d", name, index), nil)
	return nil
}

// RemoveColumn removes the column with the given name
func (t *Table) RemoveColumn(name string) error {
	const op = "remove column"
	_, done := t.events().begin()
	defer done()

	col := t.Column(name)
	if col == nil {
		t.reIndexColumns()
		err := newColumnError(op, name, ErrColumnNotFound)
		t.events().report(op, "", err)
		return err
	}

	t.removeColumnAt(col.index)
	t.events().emit(Event{Type: EventColumnRemoved, Column: col})
	col.detach()
	t.events().report(op, fmt.Sprintf("removed column %q", name), nil)
	return nil
}

// RemoveColumnRef removes col, which must belong to this table
func (t *Table) RemoveColumnRef(col *Column) error {
	const op = "remove column"
	_, done := t.events().begin()
	defer done()

	if col == nil {
		err := newColumnError(op, "", ErrColumnNotFound)
		t.events().report(op, "", err)
		return err
	}
	if col.index < 0 || col.index >= len(t.columns) {
		err := newIndexError(op, col.index, len(t.columns))
		t.events().report(op, "", err)
		return err
	}
	if t.columns[col.index] != col {
		err := newColumnError(op, col.name, ErrColumnNotFound)
		t.events().report(op, "", err)
		return err
	}

	index := col.index
	t.removeColumnAt(index)
	t.events().emit(Event{Type: EventColumnRemoved, Column: col})
	col.detach()
	t.events().report(op, fmt.Sprintf("removed column %q at index %d", col.name, index), nil)
	return nil
}

// RenameColumn gives col a new name and rewrites it on every cell
func (t *Table) RenameColumn(newName string, col *Column) error {
	const op = "rename column"
	_, done := t.events().begin()
	defer done()

	if col == nil || !t.owns(col) {
		var name string
		if col != nil {
			name = col.name
		}
		err := newColumnError(op, name, ErrColumnNotFound)
		t.events().report(op, "", err)
		return err
	}
	if strings.TrimSpace(newName) == "" {
		err := newColumnError(op, newName, ErrInvalidName)
		t.events().report(op, "", err)
		return err
	}
	if other := t.Column(newName); other != nil && other != col {
		err := newColumnError(op, newName, ErrDuplicateColumn)
		t.events().report(op, "", err)
		return err
	}

	oldName := col.name
	col.rename(newName)

	t.events().emit(Event{Type: EventColumnRenamed, Column: col})
	t.events().report(op, fmt.Sprintf("renamed column %q to %q", oldName, newName), nil)
	return nil
}

// Column returns the column with the given name, or nil
func (t *Table) Column(name string) *Column {
	for _, c := range t.columns {
		if c.name == name {
			return c
		}
	}
	return nil
}

// ColumnByIndex returns the column at index, or nil
func (t *Table) ColumnByIndex(index int) *Column {
	if index < 0 || index >= len(t.columns) {
		return nil
	}
	return t.columns[index]
}

// ColumnIndex returns the position of the named column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.columns {
		if c.name == name {
			return i
		}
	}
	return -1
}

func (t *Table) checkNewName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return newColumnError(op, name, ErrInvalidName)
	}
	if t.Column(name) != nil {
		return newColumnError(op, name, ErrDuplicateColumn)
	}
	return nil
}

func (t *Table) owns(col *Column) bool {
	return col.index >= 0 && col.index < len(t.columns) && t.columns[col.index] == col
}

func (t *Table) removeColumnAt(index int) {
	t.columns = append(t.columns[:index], t.columns[index+1:]...)
	t.reIndexColumns()
}

// reIndexColumns re-derives every column position from the slice order
func (t *Table) reIndexColumns() {
	for i, c := range t.columns {
		c.reIndex(i)
	}
}

// events returns the table's dispatch list, creating it for a zero Table
func (t *Table) events() *hub {
	if t.hub == nil {
		t.hub = newHub(t.Name, nil)
		t.hub.size = t.size
	}
	return t.hub
}

func (t *Table) size() (int, int) {
	return t.rowCount, len(t.columns)
}
