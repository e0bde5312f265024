package manager

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/leengari/coltable/internal/domain/table"
	"github.com/leengari/coltable/internal/storage"
	"github.com/leengari/coltable/internal/storage/writer"
)

// entry is a loaded table plus the lock that serializes access to it
type entry struct {
	mu      sync.Mutex
	name    string
	table   *table.Table
	dirty   bool
	savedAt time.Time // mod time of the file as last written or read
	evicted bool      // no longer in the cache; holders must acquire again
}

// OnEvent marks the table as changed. Events are only emitted while a
// caller holds mu, so no extra locking is needed here.
func (e *entry) OnEvent(table.Event) {
	e.dirty = true
}

// Registry keeps a bounded set of named tables in memory.
// Tables evicted from the cache are saved first if they have unsaved changes.
type Registry struct {
	mu        sync.Mutex
	paths     storage.Paths
	cache     *lru.Cache[string, *entry]
	logger    *slog.Logger
	observers []table.Observer
	logHooks  []table.LogHook
	journal   Checkpointer
}

// Checkpointer is told each time a table's file has been written
type Checkpointer interface {
	Checkpoint(table string) (uint64, error)
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger handed to every loaded table
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver registers an observer on every table the registry loads
func WithObserver(observer table.Observer) Option {
	return func(r *Registry) {
		r.observers = append(r.observers, observer)
	}
}

// WithLogHook registers a log hook on every table the registry loads
func WithLogHook(hook table.LogHook) Option {
	return func(r *Registry) {
		r.logHooks = append(r.logHooks, hook)
	}
}

// WithCheckpointer records a checkpoint in j after every save to the
// data directory.
func WithCheckpointer(j Checkpointer) Option {
	return func(r *Registry) {
		r.journal = j
	}
}

// NewRegistry creates a registry holding at most size tables in memory
func NewRegistry(paths storage.Paths, size int, opts ...Option) (*Registry, error) {
	r := &Registry{
		paths:  paths,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	cache, err := lru.NewWithEvict[string, *entry](size, r.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create table cache: %w", err)
	}
	r.cache = cache
	return r, nil
}

// Paths returns where the registry stores tables
func (r *Registry) Paths() storage.Paths {
	return r.paths
}

// With runs fn with exclusive access to the named table, loading it from
// disk if needed. fn must not call back into the registry.
func (r *Registry) With(name string, fn func(*table.Table) error) error {
	for {
		e, err := r.acquire(name)
		if err != nil {
			return err
		}

		// evicted between acquire and lock; its changes are already saved
		if retry, err := e.run(fn); !retry {
			return err
		}
	}
}

// run calls fn under e.mu unless e has left the cache
func (e *entry) run(fn func(*table.Table) error) (retry bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.evicted {
		return true, nil
	}
	return false, fn(e.table)
}

// Create makes a new table with the given columns and saves it
func (r *Registry) Create(name string, columns []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.reserve(name)
	if err != nil {
		return err
	}

	tbl := table.New(id, name, nil, table.WithLogger(r.logger))
	e := r.attach(name, tbl)
	for _, col := range columns {
		if err := tbl.CreateColumn(col); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}

	if err := r.saveLocked(e); err != nil {
		return err
	}
	r.cache.Add(name, e)

	r.logger.Info("table created",
		slog.String("table", name),
		slog.Int("columns", tbl.ColumnCount()),
	)
	return nil
}

// Add stores a table built elsewhere, such as by an import, under name.
// The table takes the next free id and is saved immediately.
func (r *Registry) Add(name string, tbl *table.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.reserve(name)
	if err != nil {
		return err
	}
	tbl.ID = id
	tbl.SetName(name)

	e := r.attach(name, tbl)
	if err := r.saveLocked(e); err != nil {
		return err
	}
	r.cache.Add(name, e)

	r.logger.Info("table added",
		slog.String("table", name),
		slog.Int("columns", tbl.ColumnCount()),
		slog.Int("rows", tbl.RowCount()),
	)
	return nil
}

// reserve checks that name is free and returns the id for a new table.
// The caller holds r.mu.
func (r *Registry) reserve(name string) (int, error) {
	path, err := r.paths.TablePath(name)
	if err != nil {
		return 0, err
	}
	if r.cache.Contains(name) {
		return 0, fmt.Errorf("%w: %s", storage.ErrTableExists, name)
	}
	if _, err := os.Stat(path); err == nil {
		return 0, fmt.Errorf("%w: %s", storage.ErrTableExists, name)
	}

	existing, err := storage.ListTables(r.paths)
	if err != nil {
		return 0, err
	}
	return len(existing) + 1, nil
}

// Save writes the named table to the data directory
func (r *Registry) Save(name string) error {
	e, err := r.acquire(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return r.saveLocked(e)
}

// SaveAs writes the named table to an arbitrary path.
// The data directory copy is not affected and stays dirty if it was.
func (r *Registry) SaveAs(name, path string) error {
	e, err := r.acquire(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return writer.SaveTable(path, e.table, r.logger)
}

// SaveAll saves every loaded table that has unsaved changes
func (r *Registry) SaveAll() error {
	r.mu.Lock()
	entries := r.cache.Values()
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := r.flush(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Reload re-reads a loaded table after its file changed on disk.
// Tables with unsaved changes and files not newer than the last save are
// left alone.
func (r *Registry) Reload(name string) error {
	r.mu.Lock()
	e, ok := r.cache.Peek(name)
	r.mu.Unlock()
	if !ok {
		return nil
	}

	path, err := r.paths.TablePath(name)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dirty {
		r.logger.Warn("table changed on disk while it has unsaved changes; keeping memory copy",
			slog.String("table", name),
		)
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reload table %s: %w", name, err)
	}
	if !info.ModTime().After(e.savedAt) {
		return nil
	}

	if err := storage.ReloadTable(path, e.table); err != nil {
		return err
	}
	e.savedAt = info.ModTime()
	e.dirty = false

	r.logger.Info("table reloaded",
		slog.String("table", name),
		slog.Int("rows", e.table.RowCount()),
	)
	return nil
}

// Forget drops a table from memory unless it has unsaved changes
func (r *Registry) Forget(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.cache.Peek(name)
	if !ok {
		return false
	}

	e.mu.Lock()
	dirty := e.dirty
	e.mu.Unlock()
	if dirty {
		return false
	}
	return r.cache.Remove(name)
}

// List returns the names of every stored or loaded table, sorted
func (r *Registry) List() ([]string, error) {
	names, err := storage.ListTables(r.paths)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, n := range r.Loaded() {
		if !seen[n] {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Loaded returns the names of the tables currently held in memory
func (r *Registry) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Keys()
}

// Dirty reports whether the named table has unsaved changes
func (r *Registry) Dirty(name string) bool {
	r.mu.Lock()
	e, ok := r.cache.Peek(name)
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// acquire returns the cache entry for name, loading it on a miss
func (r *Registry) acquire(name string) (*entry, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.cache.Get(name); ok {
		return e, nil
	}

	path, err := r.paths.TablePath(name)
	if err != nil {
		return nil, err
	}
	tbl, err := storage.LoadTable(path, r.logger)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat table %s: %w", name, err)
	}

	e := r.attach(name, tbl)
	e.savedAt = info.ModTime()
	r.cache.Add(name, e)
	return e, nil
}

// attach wires the registry's observers and hooks into tbl
func (r *Registry) attach(name string, tbl *table.Table) *entry {
	e := &entry{name: name, table: tbl}
	tbl.AddObserver(e)
	for _, o := range r.observers {
		tbl.AddObserver(o)
	}
	for _, h := range r.logHooks {
		tbl.AddLogHook(h)
	}
	return e
}

// saveLocked writes e to the data directory; the caller holds e.mu
// or is the only holder of e.
func (r *Registry) saveLocked(e *entry) error {
	path, err := r.paths.TablePath(e.name)
	if err != nil {
		return err
	}
	if err := writer.SaveTable(path, e.table, r.logger); err != nil {
		return err
	}

	e.dirty = false
	if info, err := os.Stat(path); err == nil {
		e.savedAt = info.ModTime()
	}

	if r.journal != nil {
		if _, err := r.journal.Checkpoint(e.name); err != nil {
			r.logger.Error("failed to checkpoint saved table",
				slog.String("table", e.name),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

func (r *Registry) flush(e *entry) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dirty {
		return nil
	}
	return r.saveLocked(e)
}

func (r *Registry) onEvict(name string, e *entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evicted = true
	if !e.dirty {
		return
	}
	if err := r.saveLocked(e); err != nil {
		r.logger.Error("failed to save evicted table",
			slog.String("table", name),
			slog.Any("error", err),
		)
	}
}
