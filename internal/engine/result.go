package engine

import "github.com/leengari/coltable/internal/domain/table"

// Result is the outcome of one command, shaped for both terminal and
// network output.
type Result struct {
	Message    string              `json:"message,omitempty"`
	Columns    []string            `json:"columns,omitempty"`
	Rows       []map[string]string `json:"rows,omitempty"`
	RowIndexes []int               `json:"row_indexes,omitempty"` // table position of each entry in Rows
	Error      string              `json:"error,omitempty"`
}

// ErrorResult wraps err for clients that only look at Result
func ErrorResult(err error) *Result {
	return &Result{Error: err.Error()}
}

func rowsResult(message string, columns []string, rows []table.Row) *Result {
	res := &Result{
		Message:    message,
		Columns:    columns,
		Rows:       make([]map[string]string, len(rows)),
		RowIndexes: make([]int, len(rows)),
	}
	for i, row := range rows {
		res.Rows[i] = row.Map()
		res.RowIndexes[i] = row.Index()
	}
	return res
}
