package table

// Cell is a single value slot at a (column, row) position.
// The column name and index are a copy maintained by the owning Column.
type Cell struct {
	columnName  string
	columnIndex int
	value       string
	rowIndex    int
	hub         *hub
}

func newCell(c *Column, value string, rowIndex int) *Cell {
	return &Cell{
		columnName:  c.name,
		columnIndex: c.index,
		value:       value,
		rowIndex:    rowIndex,
		hub:         c.hub,
	}
}

// Value returns the cell's text value
func (c *Cell) Value() string { return c.value }

// ColumnName returns the name of the owning column
func (c *Cell) ColumnName() string { return c.columnName }

// ColumnIndex returns the position of the owning column
func (c *Cell) ColumnIndex() int { return c.columnIndex }

// RowIndex returns the cell's position within its column
func (c *Cell) RowIndex() int { return c.rowIndex }

// Update replaces the value and notifies observers
func (c *Cell) Update(value string) {
	c.value = value
	c.hub.emit(Event{Type: EventCellValueUpdated, Cell: c})
}

// setRowIndex is called by the owning column during re-derivation
func (c *Cell) setRowIndex(index int) {
	if c.rowIndex == index {
		return
	}
	c.rowIndex = index
	c.hub.emit(Event{Type: EventCellIndexUpdated, Cell: c})
}

// detach stops a removed cell from notifying the table
func (c *Cell) detach() {
	c.hub = nil
}
