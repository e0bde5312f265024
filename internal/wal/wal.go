package wal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// logFile is the subset of *os.File the journal writes through
type logFile interface {
	io.ReadWriteSeeker
	io.WriterAt
	io.Closer
	Truncate(size int64) error
	Sync() error
}

// WAL is an append-only journal of table commands used to recover edits
// that were not saved before the process stopped.
type WAL struct {
	file logFile
	mu   sync.Mutex
	path string

	nextLSN       uint64
	currentOffset int64
	syncWrites    bool
}

// Option configures a WAL
type Option func(*WAL)

// WithSync controls whether every command record is fsynced.
// Checkpoints are always synced.
func WithSync(enabled bool) Option {
	return func(w *WAL) {
		w.syncWrites = enabled
	}
}

// Open opens the journal at path, creating it if needed.
// A torn or corrupt tail left by a crash is cut off so new records
// follow the last valid one.
func Open(path string, opts ...Option) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	w := &WAL{
		file:       file,
		path:       path,
		nextLSN:    1,
		syncWrites: true,
	}
	for _, opt := range opts {
		opt(w)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat journal: %w", err)
	}

	if info.Size() == 0 {
		if err := w.writeFileHeader(); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write journal header: %w", err)
		}
		return w, nil
	}

	if err := w.resume(); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

// resume scans existing records to find the next LSN and the end of the
// valid prefix, then truncates anything after it.
func (w *WAL) resume() error {
	r := newReader(w.file)
	if err := r.readFileHeader(); err != nil {
		return err
	}

	for {
		rec, err := r.next()
		if err != nil {
			// io.EOF or a damaged tail: keep what was read so far
			break
		}
		w.nextLSN = rec.LSN + 1
	}

	w.currentOffset = r.pos
	if err := w.file.Truncate(w.currentOffset); err != nil {
		return fmt.Errorf("failed to truncate journal: %w", err)
	}
	if _, err := w.file.Seek(w.currentOffset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek journal: %w", err)
	}
	return nil
}

func (w *WAL) writeFileHeader() error {
	buf := make([]byte, FileHeaderSize)
	copy(buf[0:8], Magic[:])
	ByteOrder.PutUint16(buf[8:10], Version)

	if _, err := w.file.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync header: %w", err)
	}
	if _, err := w.file.Seek(FileHeaderSize, io.SeekStart); err != nil {
		return err
	}

	w.currentOffset = FileHeaderSize
	return nil
}

// Reset discards every record. Call it only when all tables are saved.
func (w *WAL) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return ErrClosed
	}
	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate journal: %w", err)
	}
	return w.writeFileHeader()
}

// Close syncs and closes the journal file
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if err := w.file.Sync(); err != nil {
		return err
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Sync forces an fsync of the journal file
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return ErrClosed
	}
	return w.file.Sync()
}

// Path returns the journal file path
func (w *WAL) Path() string {
	return w.path
}

// NextLSN returns the LSN the next record will get
func (w *WAL) NextLSN() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nextLSN
}

// allocateLSN returns the next LSN; the caller holds mu
func (w *WAL) allocateLSN() uint64 {
	lsn := w.nextLSN
	w.nextLSN++
	return lsn
}
