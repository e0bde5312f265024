package testutil

import (
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/leengari/coltable/internal/domain/table"
)

// DiscardLogger returns a logger that drops everything
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTable creates an empty table with the given columns and a silent logger
func NewTable(t *testing.T, name string, columns ...string) *table.Table {
	t.Helper()
	tbl := table.New(1, name, columns, table.WithLogger(DiscardLogger()))
	if tbl.ColumnCount() != len(columns) {
		t.Fatalf("expected %d columns, got %d", len(columns), tbl.ColumnCount())
	}
	return tbl
}

// CreateUsersTable creates a users table with rows filled as
// id = row number (1-based), name = names[i]
func CreateUsersTable(t *testing.T, names ...string) *table.Table {
	t.Helper()
	tbl := NewTable(t, "users", "id", "name")
	for i, name := range names {
		if _, err := tbl.InsertRow(); err != nil {
			t.Fatalf("insert row %d: %v", i, err)
		}
		if err := tbl.SetValue(i, "id", strconv.Itoa(i+1)); err != nil {
			t.Fatalf("set id %d: %v", i, err)
		}
		if err := tbl.SetValue(i, "name", name); err != nil {
			t.Fatalf("set name %d: %v", i, err)
		}
	}
	return tbl
}

// EventRecorder is a test observer that records events
type EventRecorder struct {
	Events []table.Event
}

func (r *EventRecorder) OnEvent(event table.Event) {
	r.Events = append(r.Events, event)
}

// Types returns the recorded event types in order
func (r *EventRecorder) Types() []table.EventType {
	types := make([]table.EventType, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}

// Count returns how many events of typ were recorded
func (r *EventRecorder) Count(typ table.EventType) int {
	n := 0
	for _, e := range r.Events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// Reset drops the recorded events
func (r *EventRecorder) Reset() {
	r.Events = nil
}

// LogRecorder is a test log hook that records entries
type LogRecorder struct {
	Entries []table.LogEntry
}

func (r *LogRecorder) OnLog(entry table.LogEntry) {
	r.Entries = append(r.Entries, entry)
}

// Last returns the most recent entry
func (r *LogRecorder) Last() table.LogEntry {
	if len(r.Entries) == 0 {
		return table.LogEntry{}
	}
	return r.Entries[len(r.Entries)-1]
}
