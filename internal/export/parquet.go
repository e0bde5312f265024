package export

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/leengari/coltable/internal/domain/table"
)

// WriteParquet encodes the table as a Snappy compressed Parquet file
func WriteParquet(w io.Writer, tbl *table.Table) error {
	at, err := ToArrowTable(tbl, memory.NewGoAllocator())
	if err != nil {
		return err
	}
	defer at.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	writer, err := pqarrow.NewFileWriter(at.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	chunk := at.NumRows()
	if chunk == 0 {
		chunk = 1
	}
	if err := writer.WriteTable(at, chunk); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write table to parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

// ExportParquet writes the table to a Parquet file at path
func ExportParquet(path string, tbl *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	// the parquet writer closes f when it finishes
	defer f.Close()

	return WriteParquet(f, tbl)
}

// ReadParquet decodes a Parquet file into a table.
// An empty name falls back to the name stored in the file, if any.
func ReadParquet(ctx context.Context, r parquet.ReaderAtSeeker, id int, name string, opts ...table.Option) (*table.Table, error) {
	pf, err := file.NewParquetReader(r, file.WithReadProps(&parquet.ReaderProperties{}))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	at, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet table: %w", err)
	}
	defer at.Release()

	return FromArrowTable(at, id, name, opts...)
}

// ImportParquet reads a Parquet file from path
func ImportParquet(ctx context.Context, path string, id int, name string, opts ...table.Option) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer f.Close()
	return ReadParquet(ctx, f, id, name, opts...)
}
