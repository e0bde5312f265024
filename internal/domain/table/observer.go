package table

import (
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a change notification
type EventType string

const (
	EventColumnCreated     EventType = "column_created"
	EventColumnRemoved     EventType = "column_removed"
	EventColumnRenamed     EventType = "column_renamed"
	EventRowInserted       EventType = "row_inserted"
	EventRowRemoved        EventType = "row_removed"
	EventRowShifted        EventType = "row_shifted"
	EventColumnNameUpdated EventType = "column_name_updated"
	EventCellValueUpdated  EventType = "cell_value_updated"
	EventCellIndexUpdated  EventType = "cell_index_updated"
)

// EventTypes lists every event kind in a stable order
var EventTypes = []EventType{
	EventColumnCreated,
	EventColumnRemoved,
	EventColumnRenamed,
	EventRowInserted,
	EventRowRemoved,
	EventRowShifted,
	EventColumnNameUpdated,
	EventCellValueUpdated,
	EventCellIndexUpdated,
}

// Event is delivered to observers after a mutation has been applied.
// Only the fields relevant to Type are set.
type Event struct {
	Type      EventType
	OpID      string    // shared by every event emitted by one mutating call
	Timestamp time.Time // when the event was dispatched
	Table     string    // name of the emitting table
	Column    *Column   // column created, removed or renamed
	Row       Row       // row inserted, or snapshot of the removed row
	Cell      *Cell     // cell whose value or index changed
	From      int       // row_shifted source index
	To        int       // row_shifted target index

	// Size of the table when the event was dispatched
	RowCount    int
	ColumnCount int
}

// Observer receives change events synchronously
type Observer interface {
	OnEvent(event Event)
}

// LogEntry reports the outcome of one mutating call, successful or not
type LogEntry struct {
	Op        string
	OpID      string
	Message   string
	Success   bool
	Err       error
	Timestamp time.Time
}

// LogHook receives one LogEntry per mutating call.
// A presentation layer uses it to surface human readable messages.
type LogHook interface {
	OnLog(entry LogEntry)
}

type funcObserver struct {
	typ EventType
	fn  func(Event)
}

func (o *funcObserver) OnEvent(event Event) {
	if o.typ == "" || o.typ == event.Type {
		o.fn(event)
	}
}

type funcLogHook struct {
	fn func(LogEntry)
}

func (h *funcLogHook) OnLog(entry LogEntry) {
	h.fn(entry)
}

// hub is the dispatch list shared by a table, its columns and their cells
type hub struct {
	table     string
	opID      string
	logger    *slog.Logger
	observers []Observer
	logHooks  []LogHook
	size      func() (rows, columns int)
}

func newHub(tableName string, logger *slog.Logger) *hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &hub{
		table:     tableName,
		logger:    logger,
		observers: make([]Observer, 0),
		logHooks:  make([]LogHook, 0),
	}
}

// begin opens an operation scope; the returned func restores the previous one
func (h *hub) begin() (string, func()) {
	prev := h.opID
	h.opID = uuid.NewString()
	return h.opID, func() { h.opID = prev }
}

// emit sends an event to all registered observers
func (h *hub) emit(event Event) {
	if h == nil {
		return
	}
	event.OpID = h.opID
	if event.OpID == "" {
		event.OpID = uuid.NewString()
	}
	event.Table = h.table
	event.Timestamp = time.Now()
	if h.size != nil {
		event.RowCount, event.ColumnCount = h.size()
	}
	// observers may unsubscribe themselves while being called
	for _, observer := range slices.Clone(h.observers) {
		observer.OnEvent(event)
	}
}

// report writes the outcome of an operation to the logger and every log hook
func (h *hub) report(op, message string, err error) {
	if h == nil {
		return
	}
	entry := LogEntry{
		Op:        op,
		OpID:      h.opID,
		Message:   message,
		Success:   err == nil,
		Err:       err,
		Timestamp: time.Now(),
	}
	if err != nil {
		entry.Message = err.Error()
		h.logger.Warn("table operation failed",
			slog.String("table", h.table),
			slog.String("op", op),
			slog.String("op_id", entry.OpID),
			slog.Any("error", err),
		)
	} else {
		h.logger.Debug(message,
			slog.String("table", h.table),
			slog.String("op", op),
			slog.String("op_id", entry.OpID),
		)
	}
	for _, hook := range slices.Clone(h.logHooks) {
		hook.OnLog(entry)
	}
}

// AddObserver registers an observer to receive change events
func (t *Table) AddObserver(observer Observer) {
	t.events().observers = append(t.events().observers, observer)
}

// RemoveObserver unregisters an observer
func (t *Table) RemoveObserver(observer Observer) {
	for i, o := range t.events().observers {
		if o == observer {
			t.events().observers = append(t.events().observers[:i], t.events().observers[i+1:]...)
			return
		}
	}
}

// On registers fn for a single event kind. The returned Observer can be
// passed to RemoveObserver.
func (t *Table) On(typ EventType, fn func(Event)) Observer {
	o := &funcObserver{typ: typ, fn: fn}
	t.AddObserver(o)
	return o
}

// AddLogHook registers a hook that is told about every mutating call
func (t *Table) AddLogHook(hook LogHook) {
	t.events().logHooks = append(t.events().logHooks, hook)
}

// RemoveLogHook unregisters a log hook
func (t *Table) RemoveLogHook(hook LogHook) {
	for i, h := range t.events().logHooks {
		if h == hook {
			t.events().logHooks = append(t.events().logHooks[:i], t.events().logHooks[i+1:]...)
			return
		}
	}
}

// OnLog registers fn as a log hook and returns it for RemoveLogHook
func (t *Table) OnLog(fn func(LogEntry)) LogHook {
	h := &funcLogHook{fn: fn}
	t.AddLogHook(h)
	return h
}
