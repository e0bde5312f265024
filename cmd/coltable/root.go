package main

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leengari/coltable/internal/config"
	"github.com/leengari/coltable/internal/engine"
	"github.com/leengari/coltable/internal/logging"
	"github.com/leengari/coltable/internal/metrics"
	"github.com/leengari/coltable/internal/storage"
	"github.com/leengari/coltable/internal/storage/manager"
	"github.com/leengari/coltable/internal/wal"
)

// app is the state shared by every subcommand once flags are parsed
type app struct {
	v          *viper.Viper
	configFile string

	cfg      config.Config
	logger   *slog.Logger
	closeLog func()
	registry *manager.Registry
	metrics  *metrics.Collector
	journal  *wal.WAL
}

const journalFile = "coltable.wal"

func newRootCommand() (*cobra.Command, *app) {
	a := &app{v: config.New(), closeLog: func() {}}

	root := &cobra.Command{
		Use:           path.Base(os.Args[0]),
		Short:         "Column-oriented tables on disk",
		Long:          "Create, edit, page through and convert tables stored as JSON documents.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./coltable.yaml if present)")
	flags.String("data-dir", "", "directory holding stored tables")
	flags.Bool("debug", false, "store tables on the Desktop for inspection")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("seq-url", "", "Seq server URL for log shipping")
	flags.Int("page-size", engine.DefaultPageSize, "default rows per page")
	flags.Int("cache-size", 16, "tables kept in memory")
	flags.Bool("journal", true, "journal table changes so unsaved edits survive a crash")

	root.AddCommand(
		newREPLCommand(a),
		newServeCommand(a),
		newTablesCommand(a),
		newNewCommand(a),
		newShowCommand(a),
		newExportCommand(a),
		newImportCommand(a),
	)
	return root, a
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = storage.DefaultDataDir()
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.logger, a.closeLog = logging.SetupLogger(logging.Options{
		Level:  level,
		SeqURL: cfg.SeqURL,
	})
	slog.SetDefault(a.logger)

	paths := storage.Paths{DataDir: cfg.DataDir, Debug: cfg.Debug}
	opts := []manager.Option{
		manager.WithLogger(a.logger),
		manager.WithObserver(engine.NewTableEventLogger(a.logger)),
	}

	a.metrics = metrics.New()
	opts = append(opts, manager.WithObserver(a.metrics), manager.WithLogHook(a.metrics))

	if cfg.Journal {
		if a.journal, err = openJournal(paths); err != nil {
			return err
		}
		opts = append(opts, manager.WithCheckpointer(a.journal))
	}

	if a.registry, err = manager.NewRegistry(paths, cfg.CacheSize, opts...); err != nil {
		return err
	}
	if err := a.replayJournal(); err != nil {
		return err
	}

	a.logger.Debug("configuration loaded",
		slog.String("data_dir", cfg.DataDir),
		slog.Int("cache_size", cfg.CacheSize),
		slog.Int("page_size", cfg.PageSize),
	)
	return nil
}

// shutdown saves every table with unsaved changes and flushes logs.
// The journal is emptied only when every save succeeded.
func (a *app) shutdown() error {
	defer a.closeLog()
	if a.journal != nil {
		defer a.journal.Close()
	}
	if a.registry == nil {
		return nil
	}
	if err := a.registry.SaveAll(); err != nil {
		a.logger.Error("shutdown save failed", "error", err)
		return fmt.Errorf("save tables: %w", err)
	}
	if a.journal != nil {
		if err := a.journal.Reset(); err != nil {
			return fmt.Errorf("reset journal: %w", err)
		}
	}
	return nil
}

func openJournal(paths storage.Paths) (*wal.WAL, error) {
	dir, err := paths.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create table directory: %w", err)
	}
	return wal.Open(filepath.Join(dir, journalFile))
}

// replayJournal replays journaled commands that never reached a table file,
// then saves the affected tables.
func (a *app) replayJournal() error {
	if a.journal == nil {
		return nil
	}

	result, err := wal.Recover(a.journal.Path(), func(name, command string) error {
		_, err := engine.New(a.registry, engine.WithTable(name)).Execute(command)
		return err
	})
	if err != nil {
		return fmt.Errorf("recover journal: %w", err)
	}
	for _, failure := range result.Failures {
		a.logger.Warn("journal replay failed", "error", failure)
	}
	if result.Replayed == 0 && len(result.Failures) == 0 {
		return nil
	}

	a.logger.Info("recovered unsaved changes",
		slog.Int("commands", result.Replayed),
		slog.Any("tables", result.Tables),
	)
	if err := a.registry.SaveAll(); err != nil {
		return fmt.Errorf("save recovered tables: %w", err)
	}
	return a.journal.Reset()
}

// newEngine returns an engine using the configured page size
func (a *app) newEngine(opts ...engine.Option) *engine.Engine {
	opts = append([]engine.Option{engine.WithPageSize(a.cfg.PageSize)}, opts...)
	if a.journal != nil {
		opts = append(opts, engine.WithJournal(a.journal))
	}
	eng := engine.New(a.registry, opts...)
	eng.AddObserver(engine.NewLoggingObserver(a.logger))
	return eng
}
