package wal

import (
	"fmt"
	"sort"
)

// ===========================================================================
// RECOVERY
// ===========================================================================
//
// Recovery is REDO-only:
// 1. Read every valid record
// 2. Per table, drop commands logged before its last checkpoint
// 3. Replay what is left in LSN order
//
// A table whose file was saved but whose checkpoint did not reach the
// journal gets its last commands applied twice. Checkpoints are synced
// right after each save to keep that window small.
//
// ===========================================================================

// Applier runs one journaled command against a table
type Applier func(table, command string) error

// RecoveryResult contains the outcome of a recovery
type RecoveryResult struct {
	RecordsScanned int
	Replayed       int
	Tables         []string // tables that had commands replayed, sorted
	Failures       []error  // commands that could not be replayed
}

// Pending returns, per table, the commands logged after that table's
// last checkpoint, in LSN order.
func Pending(records []Record) map[string][]Record {
	pending := make(map[string][]Record)
	for _, rec := range records {
		switch rec.Type {
		case RecordCheckpoint:
			delete(pending, rec.Table)
		case RecordCommand:
			pending[rec.Table] = append(pending[rec.Table], rec)
		}
	}
	for _, recs := range pending {
		sort.SliceStable(recs, func(i, j int) bool { return recs[i].LSN < recs[j].LSN })
	}
	return pending
}

// Recover replays the unsaved commands found in the journal at path.
// A command that fails is recorded in the result and skipped; the rest
// of that table's commands still run.
func Recover(path string, apply Applier) (*RecoveryResult, error) {
	records, err := ReadAll(path)
	if err != nil {
		return nil, err
	}

	result := &RecoveryResult{RecordsScanned: len(records)}
	pending := Pending(records)

	tables := make([]string, 0, len(pending))
	for name := range pending {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	for _, name := range tables {
		for _, rec := range pending[name] {
			if err := apply(name, rec.Command); err != nil {
				result.Failures = append(result.Failures,
					fmt.Errorf("replay LSN %d on %s (%q): %w", rec.LSN, name, rec.Command, err))
				continue
			}
			result.Replayed++
		}
	}
	result.Tables = tables
	return result, nil
}
