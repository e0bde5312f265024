package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/coltable/internal/domain/table"
	"github.com/leengari/coltable/internal/storage"
	"github.com/leengari/coltable/internal/storage/writer"
	"github.com/leengari/coltable/internal/testutil"
)

func TestSaveAndLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "users.json")
	src := testutil.CreateUsersTable(t, "alice", "bob")

	assert.NilError(t, writer.SaveTable(path, src, testutil.DiscardLogger()))

	_, err := os.Stat(path + ".tmp")
	assert.Assert(t, errors.Is(err, os.ErrNotExist))

	got, err := storage.LoadTable(path, testutil.DiscardLogger())
	assert.NilError(t, err)
	assert.Equal(t, got.Name, "users")
	assert.DeepEqual(t, got.ColumnNames(), []string{"id", "name"})
	testutil.AssertColumnValues(t, got, "name", "alice", "bob")
	testutil.AssertConsistent(t, got)
}

func TestLoadTableFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := storage.LoadTable(filepath.Join(dir, "missing.json"), testutil.DiscardLogger())
	assert.ErrorIs(t, err, storage.ErrTableNotFound)

	empty := filepath.Join(dir, "empty.json")
	assert.NilError(t, os.WriteFile(empty, nil, 0644))
	tbl, err := storage.LoadTable(empty, testutil.DiscardLogger())
	assert.ErrorContains(t, err, "empty file")
	assert.Assert(t, tbl == nil)

	broken := filepath.Join(dir, "broken.json")
	doc := `{"name":"t","row_count":3,"columns":[{"name":"a","cells":[]}]}`
	assert.NilError(t, os.WriteFile(broken, []byte(doc), 0644))
	_, err = storage.LoadTable(broken, testutil.DiscardLogger())
	assert.ErrorIs(t, err, table.ErrInconsistent)

	_, err = storage.LoadTable("", testutil.DiscardLogger())
	assert.ErrorContains(t, err, "empty path")
}

func TestSaveTableFailures(t *testing.T) {
	assert.ErrorContains(t, writer.SaveTable("", testutil.NewTable(t, "t"), testutil.DiscardLogger()), "missing path")
	assert.ErrorContains(t, writer.SaveTable("x.json", nil, testutil.DiscardLogger()), "nil")
}

func TestSaveNamedAndList(t *testing.T) {
	p := storage.Paths{DataDir: t.TempDir()}

	for _, name := range []string{"orders", "users"} {
		assert.NilError(t, writer.SaveNamed(p, name, testutil.NewTable(t, name, "id"), testutil.DiscardLogger()))
	}
	assert.NilError(t, os.WriteFile(filepath.Join(p.DataDir, "notes.txt"), []byte("x"), 0644))

	names, err := storage.ListTables(p)
	assert.NilError(t, err)
	assert.DeepEqual(t, names, []string{"orders", "users"})

	got, err := storage.LoadNamed(p, "orders", testutil.DiscardLogger())
	assert.NilError(t, err)
	assert.Equal(t, got.Name, "orders")
}

func TestListTablesMissingDir(t *testing.T) {
	names, err := storage.ListTables(storage.Paths{DataDir: filepath.Join(t.TempDir(), "none")})
	assert.NilError(t, err)
	assert.Equal(t, len(names), 0)
}

func TestPaths(t *testing.T) {
	p := storage.Paths{DataDir: "/data"}

	path, err := p.TablePath("users")
	assert.NilError(t, err)
	assert.Equal(t, path, filepath.Join("/data", "users.json"))

	for _, name := range []string{"", " ", "..", "a/b", `a\b`} {
		_, err := p.TablePath(name)
		assert.ErrorIs(t, err, storage.ErrInvalidTableName, "name %q", name)
	}

	assert.Equal(t, storage.NameFromPath("/data/users.json"), "users")
	assert.Equal(t, storage.NameFromPath("/data/users.json.tmp"), "")
	assert.Equal(t, storage.NameFromPath("/data/notes.txt"), "")
}

func TestPathsDebugUsesDesktop(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := storage.Paths{DataDir: "/ignored", Debug: true}.Dir()
	assert.NilError(t, err)
	assert.Equal(t, dir, filepath.Join(home, "Desktop"))
}
