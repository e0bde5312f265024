package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"gotest.tools/v3/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(), "")
	assert.NilError(t, err)

	assert.Equal(t, cfg.PageSize, 20)
	assert.Equal(t, cfg.CacheSize, 16)
	assert.Equal(t, cfg.Listen, ":4444")
	assert.Equal(t, cfg.LogLevel, "info")
	assert.Equal(t, cfg.DataDir, "")
	assert.Assert(t, !cfg.Debug)
	assert.Assert(t, cfg.Journal)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coltable.yaml")
	err := os.WriteFile(path, []byte("data_dir: /srv/tables\npage_size: 50\ndebug: true\n"), 0644)
	assert.NilError(t, err)

	t.Setenv("COLTABLE_PAGE_SIZE", "7")
	t.Setenv("COLTABLE_SEQ_URL", "http://seq:5341")
	t.Setenv("COLTABLE_JOURNAL", "false")

	cfg, err := Load(New(), path)
	assert.NilError(t, err)

	assert.Equal(t, cfg.DataDir, "/srv/tables")
	assert.Equal(t, cfg.PageSize, 7)
	assert.Equal(t, cfg.SeqURL, "http://seq:5341")
	assert.Assert(t, cfg.Debug)
	assert.Assert(t, !cfg.Journal)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestBindFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("page-size", 20, "")
	fs.String("data-dir", "", "")
	assert.NilError(t, fs.Parse([]string{"--page-size", "3", "--data-dir", "tables"}))

	v := New()
	assert.NilError(t, BindFlags(v, fs))

	cfg, err := Load(v, "")
	assert.NilError(t, err)
	assert.Equal(t, cfg.PageSize, 3)
	assert.Equal(t, cfg.DataDir, "tables")
}

func TestValidate(t *testing.T) {
	assert.ErrorContains(t, Config{PageSize: 0, CacheSize: 1}.Validate(), "page_size")
	assert.ErrorContains(t, Config{PageSize: 1, CacheSize: -1}.Validate(), "cache_size")
	assert.NilError(t, Config{PageSize: 1, CacheSize: 1}.Validate())
}
