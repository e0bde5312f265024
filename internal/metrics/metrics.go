// Package metrics exposes table activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leengari/coltable/internal/domain/table"
)

// Collector counts table events and operation outcomes and tracks the
// size of every table that has emitted an event.
// It is both a table.Observer and a table.LogHook and is safe to share
// between tables used from different goroutines.
type Collector struct {
	registry   *prometheus.Registry
	events     *prometheus.CounterVec
	operations *prometheus.CounterVec
	rows       *prometheus.GaugeVec
	columns    *prometheus.GaugeVec
}

// New creates a collector with its own registry
func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())

	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coltable",
			Name:      "events_total",
			Help:      "Change events emitted by tables, by table and event type.",
		},
		[]string{"table", "type"},
	)
	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coltable",
			Name:      "operations_total",
			Help:      "Table operations by name and outcome.",
		},
		[]string{"op", "outcome"},
	)
	rows := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "coltable",
			Name:      "rows",
			Help:      "Current number of rows, by table.",
		},
		[]string{"table"},
	)
	columns := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "coltable",
			Name:      "columns",
			Help:      "Current number of columns, by table.",
		},
		[]string{"table"},
	)
	registry.MustRegister(events, operations, rows, columns)

	return &Collector{
		registry:   registry,
		events:     events,
		operations: operations,
		rows:       rows,
		columns:    columns,
	}
}

// OnEvent implements table.Observer
func (c *Collector) OnEvent(event table.Event) {
	c.events.WithLabelValues(event.Table, string(event.Type)).Inc()
	c.rows.WithLabelValues(event.Table).Set(float64(event.RowCount))
	c.columns.WithLabelValues(event.Table).Set(float64(event.ColumnCount))
}

// OnLog implements table.LogHook
func (c *Collector) OnLog(entry table.LogEntry) {
	outcome := "success"
	if !entry.Success {
		outcome = "failure"
	}
	c.operations.WithLabelValues(entry.Op, outcome).Inc()
}

// Registry returns the underlying Prometheus registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collected metrics in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
