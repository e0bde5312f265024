package manager

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/poll"

	"github.com/leengari/coltable/internal/domain/table"
	"github.com/leengari/coltable/internal/storage"
	"github.com/leengari/coltable/internal/storage/writer"
	"github.com/leengari/coltable/internal/testutil"
	"github.com/leengari/coltable/internal/wal"
)

func newTestRegistry(t *testing.T, size int, opts ...Option) *Registry {
	t.Helper()
	opts = append([]Option{WithLogger(testutil.DiscardLogger())}, opts...)
	r, err := NewRegistry(storage.Paths{DataDir: t.TempDir()}, size, opts...)
	assert.NilError(t, err)
	return r
}

func insertNamed(t *testing.T, r *Registry, tableName, column string, values ...string) {
	t.Helper()
	err := r.With(tableName, func(tbl *table.Table) error {
		for _, v := range values {
			row, err := tbl.InsertRow()
			if err != nil {
				return err
			}
			if err := tbl.SetValue(row.Index(), column, v); err != nil {
				return err
			}
		}
		return nil
	})
	assert.NilError(t, err)
}

func valuesOf(t *testing.T, r *Registry, tableName, column string) []string {
	t.Helper()
	var values []string
	err := r.With(tableName, func(tbl *table.Table) error {
		values = tbl.Column(column).Values()
		return nil
	})
	assert.NilError(t, err)
	return values
}

func TestCreateAndReopen(t *testing.T) {
	r := newTestRegistry(t, 4)

	assert.NilError(t, r.Create("users", []string{"id", "name"}))
	assert.ErrorIs(t, r.Create("users", nil), storage.ErrTableExists)
	assert.Assert(t, !r.Dirty("users"))

	insertNamed(t, r, "users", "name", "alice", "bob")
	assert.Assert(t, r.Dirty("users"))
	assert.NilError(t, r.SaveAll())
	assert.Assert(t, !r.Dirty("users"))

	reopened, err := NewRegistry(r.Paths(), 4, WithLogger(testutil.DiscardLogger()))
	assert.NilError(t, err)
	assert.DeepEqual(t, valuesOf(t, reopened, "users", "name"), []string{"alice", "bob"})
}

func TestCreateRejectsBadNames(t *testing.T) {
	r := newTestRegistry(t, 4)

	assert.ErrorIs(t, r.Create("../x", nil), storage.ErrInvalidTableName)
	assert.ErrorIs(t, r.Create("t", []string{"a", "a"}), table.ErrDuplicateColumn)
}

func TestAddImportedTable(t *testing.T) {
	r := newTestRegistry(t, 4)
	assert.NilError(t, r.Create("first", []string{"a"}))

	imported := testutil.NewTable(t, "scratch", "city")
	_, err := imported.InsertRow()
	assert.NilError(t, err)
	assert.NilError(t, imported.SetValue(0, "city", "Oslo"))

	assert.NilError(t, r.Add("cities", imported))
	assert.Equal(t, imported.Name, "cities")
	assert.Equal(t, imported.ID, 2)
	assert.Assert(t, !r.Dirty("cities"))

	path, err := r.Paths().TablePath("cities")
	assert.NilError(t, err)
	stored, err := storage.LoadTable(path, testutil.DiscardLogger())
	assert.NilError(t, err)
	testutil.AssertColumnValues(t, stored, "city", "Oslo")

	assert.ErrorIs(t, r.Add("first", testutil.NewTable(t, "x", "y")), storage.ErrTableExists)
}

func TestSavesWriteCheckpoints(t *testing.T) {
	journal, err := wal.Open(filepath.Join(t.TempDir(), "j.wal"), wal.WithSync(false))
	assert.NilError(t, err)
	defer journal.Close()

	r := newTestRegistry(t, 1, WithCheckpointer(journal))
	assert.NilError(t, r.Create("a", []string{"v"}))
	insertNamed(t, r, "a", "v", "x")
	// b is saved first, then caching it evicts a, which flushes it
	assert.NilError(t, r.Create("b", nil))
	// clean tables are not saved again
	assert.NilError(t, r.SaveAll())

	records, err := wal.ReadAll(journal.Path())
	assert.NilError(t, err)
	var tables []string
	for _, rec := range records {
		assert.Equal(t, rec.Type, wal.RecordCheckpoint)
		tables = append(tables, rec.Table)
	}
	assert.DeepEqual(t, tables, []string{"a", "b", "a"})
}

func TestWithMissingTable(t *testing.T) {
	r := newTestRegistry(t, 4)

	err := r.With("ghost", func(*table.Table) error { return nil })
	assert.ErrorIs(t, err, storage.ErrTableNotFound)
}

func TestEvictionSavesDirtyTables(t *testing.T) {
	r := newTestRegistry(t, 1)

	assert.NilError(t, r.Create("a", []string{"v"}))
	insertNamed(t, r, "a", "v", "kept")

	// loading b pushes a out of the cache
	assert.NilError(t, r.Create("b", []string{"v"}))
	assert.DeepEqual(t, r.Loaded(), []string{"b"})

	got, err := storage.LoadNamed(r.Paths(), "a", testutil.DiscardLogger())
	assert.NilError(t, err)
	testutil.AssertColumnValues(t, got, "v", "kept")
}

func TestObserversAndHooksAttachToLoadedTables(t *testing.T) {
	rec := &testutil.EventRecorder{}
	logs := &testutil.LogRecorder{}
	r := newTestRegistry(t, 4, WithObserver(rec), WithLogHook(logs))

	assert.NilError(t, r.Create("t", []string{"a"}))
	assert.Equal(t, rec.Count(table.EventColumnCreated), 1)

	insertNamed(t, r, "t", "a", "x")
	assert.Equal(t, rec.Count(table.EventRowInserted), 1)
	assert.Equal(t, logs.Last().Op, "set value")
}

func TestSaveAs(t *testing.T) {
	r := newTestRegistry(t, 4)
	assert.NilError(t, r.Create("t", []string{"a"}))
	insertNamed(t, r, "t", "a", "x")

	path := filepath.Join(t.TempDir(), "copy.json")
	assert.NilError(t, r.SaveAs("t", path))
	assert.Assert(t, r.Dirty("t"))

	got, err := storage.LoadTable(path, testutil.DiscardLogger())
	assert.NilError(t, err)
	testutil.AssertColumnValues(t, got, "a", "x")
}

func TestReload(t *testing.T) {
	r := newTestRegistry(t, 4)
	assert.NilError(t, r.Create("t", []string{"a"}))

	external := testutil.NewTable(t, "t", "a", "b")
	path, err := r.Paths().TablePath("t")
	assert.NilError(t, err)
	assert.NilError(t, writer.SaveTable(path, external, testutil.DiscardLogger()))
	future := time.Now().Add(time.Minute)
	assert.NilError(t, os.Chtimes(path, future, future))

	assert.NilError(t, r.Reload("t"))

	err = r.With("t", func(tbl *table.Table) error {
		assert.DeepEqual(t, tbl.ColumnNames(), []string{"a", "b"})
		return nil
	})
	assert.NilError(t, err)
}

func TestReloadKeepsUnsavedChanges(t *testing.T) {
	r := newTestRegistry(t, 4)
	assert.NilError(t, r.Create("t", []string{"a"}))
	insertNamed(t, r, "t", "a", "mine")

	path, err := r.Paths().TablePath("t")
	assert.NilError(t, err)
	assert.NilError(t, writer.SaveTable(path, testutil.NewTable(t, "t", "z"), testutil.DiscardLogger()))

	assert.NilError(t, r.Reload("t"))
	assert.DeepEqual(t, valuesOf(t, r, "t", "a"), []string{"mine"})
}

func TestForget(t *testing.T) {
	r := newTestRegistry(t, 4)
	assert.NilError(t, r.Create("clean", []string{"a"}))
	assert.NilError(t, r.Create("dirty", []string{"a"}))
	insertNamed(t, r, "dirty", "a", "x")

	assert.Assert(t, r.Forget("clean"))
	assert.Assert(t, !r.Forget("dirty"))
	assert.Assert(t, !r.Forget("never"))
	assert.DeepEqual(t, r.Loaded(), []string{"dirty"})
}

func TestList(t *testing.T) {
	r := newTestRegistry(t, 4)
	assert.NilError(t, r.Create("b", nil))
	assert.NilError(t, r.Create("a", nil))

	names, err := r.List()
	assert.NilError(t, err)
	assert.DeepEqual(t, names, []string{"a", "b"})
}

func TestConcurrentWith(t *testing.T) {
	r := newTestRegistry(t, 4)
	assert.NilError(t, r.Create("t", []string{"n"}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.With("t", func(tbl *table.Table) error {
				_, err := tbl.InsertRow()
				return err
			})
		}()
	}
	wg.Wait()

	err := r.With("t", func(tbl *table.Table) error {
		assert.Equal(t, tbl.RowCount(), 8)
		testutil.AssertConsistent(t, tbl)
		return nil
	})
	assert.NilError(t, err)
}

func TestEvictedEntryIsNotReused(t *testing.T) {
	r := newTestRegistry(t, 1)
	assert.NilError(t, r.Create("a", []string{"v"}))

	// a caller that acquired a but has not locked it yet
	stale, err := r.acquire("a")
	assert.NilError(t, err)

	assert.NilError(t, r.Create("b", []string{"v"}))
	stale.mu.Lock()
	evicted := stale.evicted
	stale.mu.Unlock()
	assert.Assert(t, evicted)

	insertNamed(t, r, "a", "v", "written")
	assert.NilError(t, r.SaveAll())

	fresh, err := r.acquire("a")
	assert.NilError(t, err)
	assert.Assert(t, fresh != stale)
	assert.DeepEqual(t, valuesOf(t, r, "a", "v"), []string{"written"})
}

func TestConcurrentWithUnderEviction(t *testing.T) {
	r := newTestRegistry(t, 1)
	names := []string{"a", "b", "c"}
	for _, name := range names {
		assert.NilError(t, r.Create(name, []string{"n"}))
	}

	const perTable = 20
	var wg sync.WaitGroup
	for _, name := range names {
		for i := 0; i < perTable; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := r.With(name, func(tbl *table.Table) error {
					_, err := tbl.InsertRow()
					return err
				})
				assert.Check(t, err)
			}()
		}
	}
	wg.Wait()
	assert.NilError(t, r.SaveAll())

	for _, name := range names {
		got, err := storage.LoadNamed(r.Paths(), name, testutil.DiscardLogger())
		assert.NilError(t, err)
		assert.Equal(t, got.RowCount(), perTable, "table %s", name)
	}
}

func TestWatcherReloadsChangedFile(t *testing.T) {
	r := newTestRegistry(t, 4)
	assert.NilError(t, r.Create("t", []string{"a"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWatcher(r)
	assert.NilError(t, w.Start(ctx))
	defer w.Close()

	path, err := r.Paths().TablePath("t")
	assert.NilError(t, err)
	assert.NilError(t, writer.SaveTable(path, testutil.NewTable(t, "t", "a", "added"), testutil.DiscardLogger()))
	future := time.Now().Add(time.Minute)
	assert.NilError(t, os.Chtimes(path, future, future))
	// touch again so a write event follows the new mod time
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	assert.NilError(t, err)
	_, err = f.WriteString("\n")
	assert.NilError(t, err)
	assert.NilError(t, f.Close())
	assert.NilError(t, os.Chtimes(path, future, future))

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		var names []string
		_ = r.With("t", func(tbl *table.Table) error {
			names = tbl.ColumnNames()
			return nil
		})
		if len(names) == 2 {
			return poll.Success()
		}
		return poll.Continue("columns still %v", names)
	}, poll.WithTimeout(3*time.Second), poll.WithDelay(20*time.Millisecond))
}

func TestWatcherForgetsRemovedFile(t *testing.T) {
	r := newTestRegistry(t, 4)
	assert.NilError(t, r.Create("t", []string{"a"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWatcher(r)
	assert.NilError(t, w.Start(ctx))
	defer w.Close()

	path, err := r.Paths().TablePath("t")
	assert.NilError(t, err)
	assert.NilError(t, os.Remove(path))

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if len(r.Loaded()) == 0 {
			return poll.Success()
		}
		return poll.Continue("still loaded: %v", r.Loaded())
	}, poll.WithTimeout(3*time.Second), poll.WithDelay(20*time.Millisecond))
}
