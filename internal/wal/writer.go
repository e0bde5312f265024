package wal

import (
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

// LogCommand appends a command that changed table.
// Returns the LSN assigned to the record.
func (w *WAL) LogCommand(table, command string) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload, err := encodePayload(table, command)
	if err != nil {
		return 0, err
	}
	lsn, err := w.writeRecord(RecordCommand, payload)
	if err != nil {
		return 0, fmt.Errorf("failed to write Command record: %w", err)
	}

	if w.syncWrites {
		if err := w.file.Sync(); err != nil {
			return 0, fmt.Errorf("failed to fsync command: %w", err)
		}
	}
	return lsn, nil
}

// Checkpoint records that table was saved; recovery skips commands for
// it logged before this record.
func (w *WAL) Checkpoint(table string) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload, err := encodePayload(table, "")
	if err != nil {
		return 0, err
	}
	lsn, err := w.writeRecord(RecordCheckpoint, payload)
	if err != nil {
		return 0, fmt.Errorf("failed to write Checkpoint record: %w", err)
	}

	if err := w.file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to fsync after checkpoint: %w", err)
	}
	return lsn, nil
}

// writeRecord writes header, payload and padding in one call.
// Must be called with mutex held.
func (w *WAL) writeRecord(recordType RecordType, payload []byte) (uint64, error) {
	if w.file == nil {
		return 0, ErrClosed
	}

	totalLen := RecordHeaderSize + len(payload)
	alignedLen := AlignTo8(totalLen)
	if alignedLen > MaxRecordSize {
		return 0, fmt.Errorf("record of %d bytes exceeds limit of %d", alignedLen, MaxRecordSize)
	}

	lsn := w.allocateLSN()
	header := RecordHeader{
		Type:       recordType,
		Length:     uint32(alignedLen),
		PayloadLen: uint32(len(payload)),
		CRC32:      crc32.ChecksumIEEE(payload),
		LSN:        lsn,
	}

	buf := make([]byte, alignedLen)
	encodeHeader(buf, header)
	copy(buf[RecordHeaderSize:], payload)

	if _, err := w.file.Write(buf); err != nil {
		// drop whatever part of the record reached the file
		w.nextLSN = lsn
		if terr := w.rollback(); terr != nil {
			return 0, fmt.Errorf("%w (rollback failed: %v)", err, terr)
		}
		return 0, err
	}
	w.currentOffset += int64(alignedLen)
	return lsn, nil
}

// rollback truncates the file back to the end of the last complete record
func (w *WAL) rollback() error {
	if err := w.file.Truncate(w.currentOffset); err != nil {
		return err
	}
	_, err := w.file.Seek(w.currentOffset, io.SeekStart)
	return err
}

// encodeHeader writes h into the first RecordHeaderSize bytes of buf
func encodeHeader(buf []byte, h RecordHeader) {
	buf[0] = byte(h.Type)
	ByteOrder.PutUint32(buf[4:8], h.Length)
	ByteOrder.PutUint32(buf[8:12], h.PayloadLen)
	ByteOrder.PutUint32(buf[12:16], h.CRC32)
	ByteOrder.PutUint64(buf[16:24], h.LSN)
}

// encodePayload encodes a record payload
// Format: TableNameLen(2) + TableName + CommandLen(4) + Command
func encodePayload(table, command string) ([]byte, error) {
	if len(table) > math.MaxUint16 {
		return nil, fmt.Errorf("table name of %d bytes is too long", len(table))
	}

	buf := make([]byte, 2+len(table)+4+len(command))
	offset := 0

	ByteOrder.PutUint16(buf[offset:], uint16(len(table)))
	offset += 2
	copy(buf[offset:], table)
	offset += len(table)

	ByteOrder.PutUint32(buf[offset:], uint32(len(command)))
	offset += 4
	copy(buf[offset:], command)

	return buf, nil
}
