package table_test

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/coltable/internal/domain/table"
	"github.com/leengari/coltable/internal/testutil"
)

func observed(t *testing.T, columns ...string) (*table.Table, *testutil.EventRecorder) {
	t.Helper()
	tbl := testutil.NewTable(t, "observed", columns...)
	rec := &testutil.EventRecorder{}
	tbl.AddObserver(rec)
	return tbl, rec
}

func assertSingleOp(t *testing.T, events []table.Event) {
	t.Helper()
	assert.Assert(t, len(events) > 0)
	id := events[0].OpID
	assert.Assert(t, id != "")
	for _, e := range events {
		assert.Equal(t, e.OpID, id, "event %s", e.Type)
	}
}

func TestWithObserverSeesInitialColumns(t *testing.T) {
	rec := &testutil.EventRecorder{}
	tbl := table.New(1, "t", []string{"a", "b"},
		table.WithLogger(testutil.DiscardLogger()),
		table.WithObserver(rec),
	)

	assert.Equal(t, rec.Count(table.EventColumnCreated), 2)
	assert.Equal(t, rec.Events[0].Column.Name(), "a")
	assert.Equal(t, rec.Events[0].Table, "t")
	assert.Assert(t, rec.Events[0].OpID != rec.Events[1].OpID)
	assert.Equal(t, tbl.ColumnCount(), 2)
}

func TestColumnEvents(t *testing.T) {
	tbl, rec := observed(t, "a")

	assert.NilError(t, tbl.CreateColumn("b"))
	assert.DeepEqual(t, rec.Types(), []table.EventType{table.EventColumnCreated})
	assert.Equal(t, rec.Events[0].Column, tbl.Column("b"))

	rec.Reset()
	assert.NilError(t, tbl.RenameColumn("c", tbl.Column("b")))
	assert.DeepEqual(t, rec.Types(), []table.EventType{
		table.EventColumnNameUpdated,
		table.EventColumnRenamed,
	})
	assertSingleOp(t, rec.Events)

	rec.Reset()
	removed := tbl.Column("c")
	assert.NilError(t, tbl.RemoveColumn("c"))
	assert.DeepEqual(t, rec.Types(), []table.EventType{table.EventColumnRemoved})
	assert.Equal(t, rec.Events[0].Column, removed)
}

func TestInsertRowAtEvents(t *testing.T) {
	tbl, rec := observed(t, "a", "b")
	_, err := tbl.InsertRow()
	assert.NilError(t, err)
	assert.DeepEqual(t, rec.Types(), []table.EventType{table.EventRowInserted})

	rec.Reset()
	row, err := tbl.InsertRowAt(0)
	assert.NilError(t, err)

	assert.DeepEqual(t, rec.Types(), []table.EventType{
		table.EventCellIndexUpdated,
		table.EventCellIndexUpdated,
		table.EventRowInserted,
	})
	assertSingleOp(t, rec.Events)
	assert.Equal(t, rec.Events[0].Cell.RowIndex(), 1)
	assert.Equal(t, rec.Events[2].Row.Index(), row.Index())
}

func TestRemoveRowEvents(t *testing.T) {
	tbl := testutil.CreateUsersTable(t, "alice", "bob")
	rec := &testutil.EventRecorder{}
	tbl.AddObserver(rec)

	assert.NilError(t, tbl.RemoveRow(0))

	assert.DeepEqual(t, rec.Types(), []table.EventType{
		table.EventCellIndexUpdated,
		table.EventCellIndexUpdated,
		table.EventRowRemoved,
	})
	assertSingleOp(t, rec.Events)

	removed := rec.Events[2].Row
	assert.DeepEqual(t, removed.Values(), []string{"1", "alice"})

	// cells of a removed row no longer reach the table's observers
	rec.Reset()
	removed.Cell("name").Update("ghost")
	assert.Equal(t, len(rec.Events), 0)
}

func TestShiftRowEvents(t *testing.T) {
	tbl := numberedTable(t, 3)
	rec := &testutil.EventRecorder{}
	tbl.AddObserver(rec)

	assert.NilError(t, tbl.ShiftRow(0, 2))

	assert.Equal(t, rec.Count(table.EventCellIndexUpdated), 3)
	last := rec.Events[len(rec.Events)-1]
	assert.Equal(t, last.Type, table.EventRowShifted)
	assert.Equal(t, last.From, 0)
	assert.Equal(t, last.To, 2)
	assertSingleOp(t, rec.Events)
}

func TestCellValueEvent(t *testing.T) {
	tbl := testutil.CreateUsersTable(t, "alice")
	rec := &testutil.EventRecorder{}
	tbl.AddObserver(rec)

	assert.NilError(t, tbl.SetValue(0, "name", "alicia"))

	assert.DeepEqual(t, rec.Types(), []table.EventType{table.EventCellValueUpdated})
	assert.Equal(t, rec.Events[0].Cell.Value(), "alicia")
	assert.Equal(t, rec.Events[0].Cell.ColumnName(), "name")
}

func TestRemovedColumnIsDetached(t *testing.T) {
	tbl := testutil.CreateUsersTable(t, "alice")
	rec := &testutil.EventRecorder{}
	tbl.AddObserver(rec)

	col := tbl.Column("name")
	assert.NilError(t, tbl.RemoveColumn("name"))
	rec.Reset()

	col.Cell(0).Update("ghost")
	assert.Equal(t, len(rec.Events), 0)
}

func TestFailedOperationsEmitNothing(t *testing.T) {
	tbl, rec := observed(t, "a")

	_ = tbl.CreateColumn("a")
	_ = tbl.CreateColumnAt("b", 3)
	_ = tbl.RemoveColumn("missing")
	_ = tbl.RenameColumn("", tbl.Column("a"))
	_, _ = tbl.InsertRowAt(0)
	_ = tbl.RemoveRow(0)
	_ = tbl.ShiftRow(0, 0)
	_ = tbl.SetValue(0, "a", "x")

	assert.Equal(t, len(rec.Events), 0)
}

func TestOnFiltersByType(t *testing.T) {
	tbl := testutil.NewTable(t, "t", "a")

	var created []string
	obs := tbl.On(table.EventColumnCreated, func(e table.Event) {
		created = append(created, e.Column.Name())
	})

	assert.NilError(t, tbl.CreateColumn("b"))
	_, err := tbl.InsertRow()
	assert.NilError(t, err)
	assert.DeepEqual(t, created, []string{"b"})

	tbl.RemoveObserver(obs)
	assert.NilError(t, tbl.CreateColumn("c"))
	assert.DeepEqual(t, created, []string{"b"})
}

func TestRemoveObserver(t *testing.T) {
	tbl, rec := observed(t, "a")
	other := &testutil.EventRecorder{}
	tbl.AddObserver(other)

	tbl.RemoveObserver(rec)
	assert.NilError(t, tbl.CreateColumn("b"))

	assert.Equal(t, len(rec.Events), 0)
	assert.Equal(t, len(other.Events), 1)
}

func TestObserverCanUnsubscribeDuringDispatch(t *testing.T) {
	tbl := testutil.NewTable(t, "t", "a")

	var once int
	var obs table.Observer
	obs = tbl.On(table.EventColumnCreated, func(table.Event) {
		once++
		tbl.RemoveObserver(obs)
	})
	second := &testutil.EventRecorder{}
	third := &testutil.EventRecorder{}
	tbl.AddObserver(second)
	tbl.AddObserver(third)

	assert.NilError(t, tbl.CreateColumn("b"))
	assert.Equal(t, once, 1)
	assert.Equal(t, len(second.Events), 1)
	assert.Equal(t, len(third.Events), 1)

	assert.NilError(t, tbl.CreateColumn("c"))
	assert.Equal(t, once, 1)
	assert.Equal(t, len(second.Events), 2)
	assert.Equal(t, len(third.Events), 2)
}

func TestLogHookCanUnsubscribeDuringDispatch(t *testing.T) {
	tbl := testutil.NewTable(t, "t", "a")

	var hook table.LogHook
	hook = tbl.OnLog(func(table.LogEntry) { tbl.RemoveLogHook(hook) })
	second := &testutil.LogRecorder{}
	third := &testutil.LogRecorder{}
	tbl.AddLogHook(second)
	tbl.AddLogHook(third)

	assert.NilError(t, tbl.CreateColumn("b"))
	assert.Equal(t, len(second.Entries), 1)
	assert.Equal(t, len(third.Entries), 1)
}

func TestEventsCarryTableSize(t *testing.T) {
	tbl, rec := observed(t, "a")

	_, err := tbl.InsertRow()
	assert.NilError(t, err)
	last := rec.Events[len(rec.Events)-1]
	assert.Equal(t, last.RowCount, 1)
	assert.Equal(t, last.ColumnCount, 1)

	assert.NilError(t, tbl.CreateColumn("b"))
	last = rec.Events[len(rec.Events)-1]
	assert.Equal(t, last.ColumnCount, 2)

	assert.NilError(t, tbl.RemoveRow(0))
	last = rec.Events[len(rec.Events)-1]
	assert.Equal(t, last.Type, table.EventRowRemoved)
	assert.Equal(t, last.RowCount, 0)
}

func TestLogHookReportsOutcomes(t *testing.T) {
	tbl := testutil.NewTable(t, "t", "a")
	logs := &testutil.LogRecorder{}
	tbl.AddLogHook(logs)

	assert.NilError(t, tbl.CreateColumn("b"))
	entry := logs.Last()
	assert.Assert(t, entry.Success)
	assert.Equal(t, entry.Op, "create column")
	assert.Equal(t, entry.Message, `created column "b"`)
	assert.Assert(t, entry.OpID != "")

	err := tbl.CreateColumn("b")
	entry = logs.Last()
	assert.Assert(t, !entry.Success)
	assert.ErrorIs(t, entry.Err, table.ErrDuplicateColumn)
	assert.Equal(t, entry.Message, err.Error())

	tbl.RemoveLogHook(logs)
	assert.NilError(t, tbl.CreateColumn("c"))
	assert.Equal(t, len(logs.Entries), 2)
}

func TestLogHookSharesOpIDWithEvents(t *testing.T) {
	tbl, rec := observed(t, "a")
	var entries []table.LogEntry
	tbl.OnLog(func(e table.LogEntry) { entries = append(entries, e) })

	_, err := tbl.InsertRow()
	assert.NilError(t, err)

	assert.Equal(t, len(entries), 1)
	assert.Equal(t, entries[0].OpID, rec.Events[0].OpID)
}
