package export

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/leengari/coltable/internal/domain/table"
)

// metaTableName carries the table name through Arrow schema metadata
const metaTableName = "coltable.name"

// Schema returns the Arrow schema of tbl: one non-nullable utf8 field per column
func Schema(tbl *table.Table) *arrow.Schema {
	names := tbl.ColumnNames()
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String}
	}
	md := arrow.NewMetadata([]string{metaTableName}, []string{tbl.Name})
	return arrow.NewSchema(fields, &md)
}

// ToRecord copies the table into a single Arrow record.
// The caller must Release the record.
func ToRecord(tbl *table.Table, mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	schema := Schema(tbl)
	columns := tbl.Columns()
	arrays := make([]arrow.Array, len(columns))
	defer func() {
		for _, arr := range arrays {
			if arr != nil {
				arr.Release()
			}
		}
	}()

	for i, col := range columns {
		if col.Len() != tbl.RowCount() {
			return nil, fmt.Errorf("export column %q: %d cells for %d rows: %w",
				col.Name(), col.Len(), tbl.RowCount(), table.ErrInconsistent)
		}
		b := array.NewStringBuilder(mem)
		b.AppendValues(col.Values(), nil)
		arrays[i] = b.NewArray()
		b.Release()
	}

	return array.NewRecord(schema, arrays, int64(tbl.RowCount())), nil
}

// ToArrowTable wraps the table in an Arrow table.
// The caller must Release the result.
func ToArrowTable(tbl *table.Table, mem memory.Allocator) (arrow.Table, error) {
	rec, err := ToRecord(tbl, mem)
	if err != nil {
		return nil, err
	}
	defer rec.Release()
	return array.NewTableFromRecords(rec.Schema(), []arrow.Record{rec}), nil
}

// FromArrowTable builds a table from any Arrow table. Values are rendered
// with their Arrow string form and nulls become empty strings.
func FromArrowTable(at arrow.Table, id int, name string, opts ...table.Option) (*table.Table, error) {
	schema := at.Schema()
	if name == "" {
		if md := schema.Metadata(); md.FindKey(metaTableName) >= 0 {
			name = md.Values()[md.FindKey(metaTableName)]
		}
	}

	tbl := table.New(id, name, nil, opts...)
	for _, field := range schema.Fields() {
		if err := tbl.CreateColumn(field.Name); err != nil {
			return nil, fmt.Errorf("import arrow column: %w", err)
		}
	}

	tr := array.NewTableReader(at, at.NumRows())
	defer tr.Release()

	for tr.Next() {
		rec := tr.Record()
		for r := 0; r < int(rec.NumRows()); r++ {
			row, err := tbl.InsertRow()
			if err != nil {
				return nil, fmt.Errorf("import arrow row: %w", err)
			}
			for c, arr := range rec.Columns() {
				if arr.IsNull(r) {
					continue
				}
				if err := tbl.SetValue(row.Index(), schema.Field(c).Name, arr.ValueStr(r)); err != nil {
					return nil, fmt.Errorf("import arrow value: %w", err)
				}
			}
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("error reading arrow table: %w", err)
	}
	return tbl, nil
}
