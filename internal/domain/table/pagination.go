package table

// PageCount returns how many pages of perPage rows the table spans
func (t *Table) PageCount(perPage int) int {
	if t.rowCount == 0 || perPage <= 0 {
		return 0
	}
	return (t.rowCount-1)/perPage + 1
}

// Page returns the rows on the zero-based page.
// Pages past the end are empty rather than an error.
func (t *Table) Page(page, perPage int) ([]Row, error) {
	if page < 0 || perPage <= 0 {
		return []Row{}, nil
	}
	if t.rowCount == 0 || page > (t.rowCount-1)/perPage {
		return []Row{}, nil
	}
	return t.RowsRange(page*perPage, perPage, true)
}
