package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/leengari/coltable/internal/domain/table"
)

// WriteCSV writes a header line of column names followed by one line per row
func WriteCSV(w io.Writer, tbl *table.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(tbl.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	rows, err := tbl.Rows()
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", row.Index(), err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the table to a CSV file at path
func ExportCSV(path string, tbl *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	if err := WriteCSV(f, tbl); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV builds a table from CSV whose first line names the columns.
// Every line must have as many fields as the header.
func ReadCSV(r io.Reader, id int, name string, opts ...table.Option) (*table.Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read CSV: missing header")
		}
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	tbl := table.New(id, name, nil, opts...)
	for _, col := range header {
		if err := tbl.CreateColumn(col); err != nil {
			return nil, fmt.Errorf("read CSV header: %w", err)
		}
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV line %d: %w", line, err)
		}

		row, err := tbl.InsertRow()
		if err != nil {
			return nil, err
		}
		for i, value := range record {
			if err := tbl.SetValue(row.Index(), header[i], value); err != nil {
				return nil, fmt.Errorf("read CSV line %d: %w", line, err)
			}
		}
	}
	return tbl, nil
}

// ImportCSV reads a CSV file from path
func ImportCSV(path string, id int, name string, opts ...table.Option) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, id, name, opts...)
}
