package table

// Column is an ordered sequence of cells sharing a name and position.
// Only the owning Table mutates a column; the exported methods are readers.
type Column struct {
	name  string
	index int
	cells []*Cell
	hub   *hub
}

func newColumn(name string, index int, h *hub) *Column {
	return &Column{
		name:  name,
		index: index,
		cells: make([]*Cell, 0),
		hub:   h,
	}
}

// Name returns the column name
func (c *Column) Name() string { return c.name }

// Index returns the column's position in the table
func (c *Column) Index() int { return c.index }

// Len returns the number of cells in the column
func (c *Column) Len() int { return len(c.cells) }

// Cell returns the cell at row index, or nil if out of range
func (c *Column) Cell(index int) *Cell {
	if index < 0 || index >= len(c.cells) {
		return nil
	}
	return c.cells[index]
}

// CellByValue returns the first cell whose value equals val, or nil
func (c *Column) CellByValue(val string) *Cell {
	for _, cell := range c.cells {
		if cell.value == val {
			return cell
		}
	}
	return nil
}

// Cells returns a copy of the cell sequence
func (c *Column) Cells() []*Cell {
	cells := make([]*Cell, len(c.cells))
	copy(cells, c.cells)
	return cells
}

// Values returns the cell values in row order
func (c *Column) Values() []string {
	values := make([]string, len(c.cells))
	for i, cell := range c.cells {
		values[i] = cell.value
	}
	return values
}

// appendCell creates a cell at the end of the column
func (c *Column) appendCell(value string) *Cell {
	cell := newCell(c, value, len(c.cells))
	c.cells = append(c.cells, cell)
	return cell
}

// insertCell creates a cell before the existing cell at index.
// Returns nil when index does not name an existing cell.
func (c *Column) insertCell(value string, index int) *Cell {
	if index < 0 || index >= len(c.cells) {
		return nil
	}

	cell := newCell(c, value, index)
	c.cells = append(c.cells, nil)
	copy(c.cells[index+1:], c.cells[index:])
	c.cells[index] = cell

	c.reIndexCells()
	return cell
}

// remove takes the cell at index out of the column.
// The caller is responsible for validating index.
func (c *Column) remove(index int) *Cell {
	cell := c.cells[index]
	c.cells = append(c.cells[:index], c.cells[index+1:]...)
	c.reIndexCells()
	return cell
}

// shiftRows moves the cell at from to position to
func (c *Column) shiftRows(from, to int) {
	cell := c.cells[from]
	c.cells = append(c.cells[:from], c.cells[from+1:]...)

	c.cells = append(c.cells, nil)
	copy(c.cells[to+1:], c.cells[to:])
	c.cells[to] = cell

	c.reIndexCells()
}

// reIndexCells re-derives every cell's row index from its position
func (c *Column) reIndexCells() {
	for i, cell := range c.cells {
		cell.setRowIndex(i)
	}
}

// reIndex sets the column position and copies it onto every cell
func (c *Column) reIndex(index int) {
	c.index = index
	for _, cell := range c.cells {
		cell.columnIndex = index
	}
}

// rename sets the column name and copies it onto every cell.
// Uniqueness is checked by the table.
func (c *Column) rename(name string) {
	c.name = name
	for _, cell := range c.cells {
		cell.columnName = name
	}
	c.hub.emit(Event{Type: EventColumnNameUpdated, Column: c})
}

// detach stops a removed column and its cells from notifying the table
func (c *Column) detach() {
	c.hub = nil
	for _, cell := range c.cells {
		cell.hub = nil
	}
}
