package engine

import (
	"context"
	"log/slog"

	"github.com/leengari/coltable/internal/domain/table"
)

// LoggingObserver logs command lifecycle events using structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new logging observer; nil uses slog.Default
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{logger: logger}
}

// OnEvent implements the Observer interface
func (lo *LoggingObserver) OnEvent(event Event) {
	level := slog.LevelDebug
	if event.Type == EventExecFailed {
		level = slog.LevelWarn
	}
	lo.logger.Log(context.Background(), level, "command_lifecycle",
		slog.String("event", string(event.Type)),
		slog.String("command_id", event.CommandID),
		slog.Time("timestamp", event.Timestamp),
		slog.Any("data", event.Data),
	)
}

// TableEventLogger logs table change events
type TableEventLogger struct {
	logger *slog.Logger
}

// NewTableEventLogger creates a table observer that logs at debug level
func NewTableEventLogger(logger *slog.Logger) *TableEventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableEventLogger{logger: logger}
}

// OnEvent implements table.Observer
func (tl *TableEventLogger) OnEvent(event table.Event) {
	attrs := []any{
		slog.String("event", string(event.Type)),
		slog.String("table", event.Table),
		slog.String("op_id", event.OpID),
	}
	switch {
	case event.Cell != nil:
		attrs = append(attrs,
			slog.String("column", event.Cell.ColumnName()),
			slog.Int("row", event.Cell.RowIndex()),
		)
	case event.Column != nil:
		attrs = append(attrs,
			slog.String("column", event.Column.Name()),
			slog.Int("index", event.Column.Index()),
		)
	case event.Type == table.EventRowShifted:
		attrs = append(attrs, slog.Int("from", event.From), slog.Int("to", event.To))
	case event.Row.Len() > 0:
		attrs = append(attrs, slog.Int("row", event.Row.Index()))
	}
	tl.logger.Debug("table_event", attrs...)
}
