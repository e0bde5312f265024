package table

// Row is a transient view of one cell per column at a row position.
// It is assembled on read and never stored by the table.
type Row struct {
	cells []*Cell
}

func newRow(cells []*Cell) Row {
	return Row{cells: cells}
}

// Index returns the row position, or -1 for an empty view
func (r Row) Index() int {
	for _, cell := range r.cells {
		if cell != nil {
			return cell.rowIndex
		}
	}
	return -1
}

// Len returns the number of cells in the view
func (r Row) Len() int { return len(r.cells) }

// Cell returns the cell belonging to the named column, or nil
func (r Row) Cell(columnName string) *Cell {
	for _, cell := range r.cells {
		if cell.columnName == columnName {
			return cell
		}
	}
	return nil
}

// Cells returns the cells in column order
func (r Row) Cells() []*Cell {
	cells := make([]*Cell, len(r.cells))
	copy(cells, r.cells)
	return cells
}

// Values returns the cell values in column order
func (r Row) Values() []string {
	values := make([]string, len(r.cells))
	for i, cell := range r.cells {
		values[i] = cell.value
	}
	return values
}

// Map returns the row keyed by column name
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.cells))
	for _, cell := range r.cells {
		m[cell.columnName] = cell.value
	}
	return m
}

// AllEmpty reports whether every cell holds the empty string
func (r Row) AllEmpty() bool {
	for _, cell := range r.cells {
		if cell.value != "" {
			return false
		}
	}
	return true
}
