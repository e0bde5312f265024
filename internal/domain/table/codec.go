package table

import (
	"encoding/json"
	"fmt"
	"strings"
)

// tableJSON is the on-disk shape of a table
type tableJSON struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	RowCount int          `json:"row_count"`
	Columns  []columnJSON `json:"columns"`
}

type columnJSON struct {
	Name  string     `json:"name"`
	Index int        `json:"index"`
	Cells []cellJSON `json:"cells"`
}

type cellJSON struct {
	ColumnName  string `json:"column_name"`
	ColumnIndex int    `json:"column_index"`
	Value       string `json:"value"`
	RowIndex    int    `json:"row_index"`
}

// MarshalJSON implements json.Marshaler
func (t *Table) MarshalJSON() ([]byte, error) {
	doc := tableJSON{
		ID:       t.ID,
		Name:     t.Name,
		RowCount: t.rowCount,
		Columns:  make([]columnJSON, len(t.columns)),
	}

	for i, col := range t.columns {
		cj := columnJSON{
			Name:  col.name,
			Index: col.index,
			Cells: make([]cellJSON, len(col.cells)),
		}
		for j, cell := range col.cells {
			cj.Cells[j] = cellJSON{
				ColumnName:  cell.columnName,
				ColumnIndex: cell.columnIndex,
				Value:       cell.value,
				RowIndex:    cell.rowIndex,
			}
		}
		doc.Columns[i] = cj
	}

	return json.Marshal(doc)
}

// UnmarshalJSON implements json.Unmarshaler.
// The receiver is left untouched when the document is inconsistent.
// Observers and log hooks already registered on the receiver are kept.
func (t *Table) UnmarshalJSON(data []byte) error {
	var doc tableJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	if doc.RowCount < 0 {
		return fmt.Errorf("decode table %q: negative row count %d: %w", doc.Name, doc.RowCount, ErrInconsistent)
	}

	h := t.events()

	seen := make(map[string]bool, len(doc.Columns))
	columns := make([]*Column, 0, len(doc.Columns))
	for i, cj := range doc.Columns {
		if strings.TrimSpace(cj.Name) == "" {
			return fmt.Errorf("decode table %q: %w", doc.Name, newColumnError("decode", cj.Name, ErrInvalidName))
		}
		if seen[cj.Name] {
			return fmt.Errorf("decode table %q: %w", doc.Name, newColumnError("decode", cj.Name, ErrDuplicateColumn))
		}
		seen[cj.Name] = true

		if len(cj.Cells) != doc.RowCount {
			return fmt.Errorf("decode table %q: column %q has %d cells, want %d: %w",
				doc.Name, cj.Name, len(cj.Cells), doc.RowCount, ErrInconsistent)
		}

		// Stored positions are advisory; slice order wins.
		col := newColumn(cj.Name, i, h)
		col.cells = make([]*Cell, len(cj.Cells))
		for j, c := range cj.Cells {
			col.cells[j] = &Cell{
				columnName:  cj.Name,
				columnIndex: i,
				value:       c.Value,
				rowIndex:    j,
				hub:         h,
			}
		}
		columns = append(columns, col)
	}

	h.table = doc.Name
	t.ID = doc.ID
	t.Name = doc.Name
	t.rowCount = doc.RowCount
	t.columns = columns
	return nil
}
