package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/leengari/coltable/internal/domain/table"
	"github.com/leengari/coltable/internal/storage/manager"
)

// DefaultPageSize is used by page commands that do not name a page size
const DefaultPageSize = 20

// Engine executes text commands against the tables of a registry.
// An Engine tracks the selected table and is meant for one client at a
// time; the registry serializes access to the tables themselves.
type Engine struct {
	registry  *manager.Registry
	journal   Journal
	table     string
	pageSize  int
	observers []Observer
}

// Journal records commands that changed a table so they can be replayed
// after a crash.
type Journal interface {
	LogCommand(table, command string) (uint64, error)
}

// Option configures an Engine
type Option func(*Engine)

// WithPageSize sets the default rows per page
func WithPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithTable preselects a table
func WithTable(name string) Option {
	return func(e *Engine) {
		e.table = name
	}
}

// WithJournal logs every successful table change to j
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// New creates a new Engine instance
func New(registry *manager.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:  registry,
		pageSize:  DefaultPageSize,
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Table returns the name of the selected table, or ""
func (e *Engine) Table() string {
	return e.table
}

// Execute parses and runs one command line
func (e *Engine) Execute(line string) (*Result, error) {
	id := uuid.NewString()

	e.notify(Event{Type: EventParseStart, CommandID: id, Data: line})
	cmd, err := Parse(line)
	if err != nil {
		e.notify(Event{Type: EventExecFailed, CommandID: id, Data: err.Error()})
		return nil, err
	}
	s, err := cmd.validate()
	if err != nil {
		e.notify(Event{Type: EventExecFailed, CommandID: id, Data: err.Error()})
		return nil, err
	}
	e.notify(Event{Type: EventParseEnd, CommandID: id, Data: cmd.Name})

	e.notify(Event{Type: EventExecStart, CommandID: id, Data: cmd.Name})
	result, err := e.run(cmd, s)
	if err != nil {
		e.notify(Event{Type: EventExecFailed, CommandID: id, Data: err.Error()})
		return nil, err
	}
	e.notify(Event{Type: EventExecEnd, CommandID: id, Data: map[string]any{
		"command":       cmd.Name,
		"rows_returned": len(result.Rows),
	}})

	return result, nil
}

func (e *Engine) run(cmd Command, s signature) (*Result, error) {
	switch cmd.Name {
	case "help":
		return e.help(), nil

	case "tables":
		names, err := e.registry.List()
		if err != nil {
			return nil, err
		}
		res := &Result{
			Message: fmt.Sprintf("%d table(s)", len(names)),
			Columns: []string{"table"},
			Rows:    make([]map[string]string, len(names)),
		}
		for i, n := range names {
			res.Rows[i] = map[string]string{"table": n}
		}
		return res, nil

	case "use":
		name := cmd.Args[0]
		if err := e.registry.With(name, func(*table.Table) error { return nil }); err != nil {
			return nil, fmt.Errorf("failed to load table '%s': %w", name, err)
		}
		e.table = name
		return &Result{Message: fmt.Sprintf("Switched to table '%s'", name)}, nil

	case "new":
		name := cmd.Args[0]
		if err := e.registry.Create(name, cmd.Args[1:]); err != nil {
			return nil, err
		}
		e.table = name
		return &Result{Message: fmt.Sprintf("Table '%s' created", name)}, nil
	}

	if s.needs && e.table == "" {
		return nil, ErrNoTableSelected
	}

	if cmd.Name == "save" {
		if len(cmd.Args) == 1 {
			if err := e.registry.SaveAs(e.table, cmd.Args[0]); err != nil {
				return nil, err
			}
			return &Result{Message: fmt.Sprintf("Table '%s' saved to %s", e.table, cmd.Args[0])}, nil
		}
		if err := e.registry.Save(e.table); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Table '%s' saved", e.table)}, nil
	}

	var result *Result
	err := e.registry.With(e.table, func(t *table.Table) error {
		var err error
		result, err = e.apply(t, cmd)
		if err != nil || !s.mutates || e.journal == nil {
			return err
		}
		// logged under the table lock so a concurrent save cannot
		// checkpoint between the change and its record
		if _, err := e.journal.LogCommand(e.table, cmd.String()); err != nil {
			return fmt.Errorf("command applied but not journaled: %w", err)
		}
		return nil
	})
	return result, err
}

// apply runs a command that works on the selected table
func (e *Engine) apply(t *table.Table, cmd Command) (*Result, error) {
	switch cmd.Name {
	case "columns":
		res := &Result{
			Message: fmt.Sprintf("%d column(s)", t.ColumnCount()),
			Columns: []string{"index", "name"},
		}
		for _, col := range t.Columns() {
			res.Rows = append(res.Rows, map[string]string{
				"index": strconv.Itoa(col.Index()),
				"name":  col.Name(),
			})
		}
		return res, nil

	case "create-column":
		name := cmd.Args[0]
		if len(cmd.Args) == 2 {
			index, err := cmd.intArg(1)
			if err != nil {
				return nil, err
			}
			if err := t.CreateColumnAt(name, index); err != nil {
				return nil, err
			}
			return &Result{Message: fmt.Sprintf("Column '%s' created at index %d", name, index)}, nil
		}
		if err := t.CreateColumn(name); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Column '%s' created", name)}, nil

	case "remove-column":
		if err := t.RemoveColumn(cmd.Args[0]); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Column '%s' removed", cmd.Args[0])}, nil

	case "rename-column":
		oldName, newName := cmd.Args[0], cmd.Args[1]
		col := t.Column(oldName)
		if col == nil {
			return nil, fmt.Errorf("rename column %q: %w", oldName, table.ErrColumnNotFound)
		}
		if err := t.RenameColumn(newName, col); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Column '%s' renamed to '%s'", oldName, newName)}, nil

	case "insert-row":
		var (
			row table.Row
			err error
		)
		if len(cmd.Args) == 1 {
			index, perr := cmd.intArg(0)
			if perr != nil {
				return nil, perr
			}
			row, err = t.InsertRowAt(index)
		} else {
			row, err = t.InsertRow()
		}
		if err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Row %d inserted", row.Index())}, nil

	case "remove-row":
		index, err := cmd.intArg(0)
		if err != nil {
			return nil, err
		}
		if err := t.RemoveRow(index); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Row %d removed", index)}, nil

	case "clear":
		n := t.RowCount()
		t.RemoveAllRows()
		return &Result{Message: fmt.Sprintf("%d row(s) removed", n)}, nil

	case "shift-row":
		from, err := cmd.intArg(0)
		if err != nil {
			return nil, err
		}
		to, err := cmd.intArg(1)
		if err != nil {
			return nil, err
		}
		if err := t.ShiftRow(from, to); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Row %d moved to %d", from, to)}, nil

	case "set":
		index, err := cmd.intArg(0)
		if err != nil {
			return nil, err
		}
		if err := t.SetValue(index, cmd.Args[1], cmd.rest(2)); err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("Row %d '%s' updated", index, cmd.Args[1])}, nil

	case "get":
		index, err := cmd.intArg(0)
		if err != nil {
			return nil, err
		}
		row, ok := t.RowByIndex(index)
		if !ok {
			return nil, &table.IndexError{Op: "get", Index: index, Bound: t.RowCount()}
		}
		return rowsResult("", t.ColumnNames(), []table.Row{row}), nil

	case "find":
		column, value := cmd.Args[0], cmd.rest(1)
		if t.Column(column) == nil {
			return nil, fmt.Errorf("find %q: %w", column, table.ErrColumnNotFound)
		}
		row, ok := t.FindRow(column, value)
		if !ok {
			return &Result{Message: "No matching row"}, nil
		}
		return rowsResult("", t.ColumnNames(), []table.Row{row}), nil

	case "page":
		page, err := cmd.intArg(0)
		if err != nil {
			return nil, err
		}
		perPage, err := e.perPage(cmd, 1)
		if err != nil {
			return nil, err
		}
		rows, err := t.Page(page, perPage)
		if err != nil {
			return nil, err
		}
		msg := fmt.Sprintf("Page %d of %d (%d row(s) total)", page, t.PageCount(perPage), t.RowCount())
		return rowsResult(msg, t.ColumnNames(), rows), nil

	case "pages":
		perPage, err := e.perPage(cmd, 0)
		if err != nil {
			return nil, err
		}
		return &Result{Message: fmt.Sprintf("%d page(s) of %d row(s)", t.PageCount(perPage), perPage)}, nil

	case "count":
		return &Result{Message: fmt.Sprintf("%d row(s), %d column(s)", t.RowCount(), t.ColumnCount())}, nil
	}

	return nil, &CommandError{Command: cmd.Name, Err: ErrUnknownCommand}
}

// perPage reads an optional page size argument at position i
func (e *Engine) perPage(cmd Command, i int) (int, error) {
	if len(cmd.Args) <= i {
		return e.pageSize, nil
	}
	n, err := cmd.intArg(i)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, &CommandError{Command: cmd.Name, Usage: commands[cmd.Name].usage,
			Err: fmt.Errorf("%w: page size must be positive", ErrUsage)}
	}
	return n, nil
}

func (e *Engine) help() *Result {
	names := CommandNames()

	res := &Result{Columns: []string{"command", "description"}}
	for _, name := range names {
		res.Rows = append(res.Rows, map[string]string{
			"command":     commands[name].usage,
			"description": commands[name].summary,
		})
	}
	res.Message = fmt.Sprintf("%d commands", len(names))
	return res
}

// AddObserver registers an observer to receive lifecycle events
func (e *Engine) AddObserver(observer Observer) {
	e.observers = append(e.observers, observer)
}

// RemoveObserver unregisters an observer
func (e *Engine) RemoveObserver(observer Observer) {
	for i, o := range e.observers {
		if o == observer {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// notify sends an event to all registered observers
func (e *Engine) notify(event Event) {
	event.Timestamp = time.Now()
	for _, observer := range e.observers {
		observer.OnEvent(event)
	}
}
