package wal

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// reader decodes records sequentially from a journal file.
//
// Safety checks performed before allocation:
// - Length is aligned and within [RecordHeaderSize, MaxRecordSize]
// - PayloadLen fits inside Length
// - RecordType is known
type reader struct {
	r   io.ReadSeeker
	pos int64
}

func newReader(r io.ReadSeeker) *reader {
	return &reader{r: r}
}

// readFileHeader validates the file header and positions after it
func (r *reader) readFileHeader() error {
	if _, err := r.r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}

	buf := make([]byte, FileHeaderSize)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return fmt.Errorf("failed to read file header: %w", err)
	}

	var magic [8]byte
	copy(magic[:], buf[0:8])
	if magic != Magic {
		return ErrBadMagic
	}
	if v := ByteOrder.Uint16(buf[8:10]); v != Version {
		return fmt.Errorf("%w: %d", ErrBadVersion, v)
	}

	r.pos = FileHeaderSize
	return nil
}

// next reads the record at the current position.
// Returns io.EOF at a clean end of file and ErrCorrupt (wrapped) for a
// torn or damaged record; the position is only advanced on success.
func (r *reader) next() (Record, error) {
	headerBuf := make([]byte, RecordHeaderSize)
	n, err := io.ReadFull(r.r, headerBuf)
	if err != nil {
		if err == io.EOF && n == 0 {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("%w: incomplete header at offset %d", ErrCorrupt, r.pos)
	}

	header := decodeHeader(headerBuf)
	if err := validateHeader(header); err != nil {
		return Record{}, fmt.Errorf("%w at offset %d: %v", ErrCorrupt, r.pos, err)
	}

	body := make([]byte, int(header.Length)-RecordHeaderSize)
	if _, err := io.ReadFull(r.r, body); err != nil {
		return Record{}, fmt.Errorf("%w: incomplete payload at offset %d", ErrCorrupt, r.pos)
	}

	payload := body[:header.PayloadLen]
	if crc32.ChecksumIEEE(payload) != header.CRC32 {
		return Record{}, fmt.Errorf("%w: CRC mismatch at offset %d", ErrCorrupt, r.pos)
	}

	rec, err := decodePayload(header, payload)
	if err != nil {
		return Record{}, fmt.Errorf("%w at offset %d: %v", ErrCorrupt, r.pos, err)
	}

	r.pos += int64(header.Length)
	return rec, nil
}

func decodeHeader(buf []byte) RecordHeader {
	return RecordHeader{
		Type:       RecordType(buf[0]),
		Length:     ByteOrder.Uint32(buf[4:8]),
		PayloadLen: ByteOrder.Uint32(buf[8:12]),
		CRC32:      ByteOrder.Uint32(buf[12:16]),
		LSN:        ByteOrder.Uint64(buf[16:24]),
	}
}

func validateHeader(h RecordHeader) error {
	if h.Type != RecordCommand && h.Type != RecordCheckpoint {
		return fmt.Errorf("unknown record type %d", h.Type)
	}
	if h.Length < RecordHeaderSize || h.Length > MaxRecordSize || h.Length%RecordAlignment != 0 {
		return fmt.Errorf("invalid record length %d", h.Length)
	}
	if h.PayloadLen > h.Length-RecordHeaderSize {
		return fmt.Errorf("payload length %d exceeds record length %d", h.PayloadLen, h.Length)
	}
	return nil
}

func decodePayload(h RecordHeader, payload []byte) (Record, error) {
	if len(payload) < 2 {
		return Record{}, errors.New("payload too short")
	}
	tableLen := int(ByteOrder.Uint16(payload[0:2]))
	offset := 2
	if offset+tableLen+4 > len(payload) {
		return Record{}, errors.New("table name overruns payload")
	}
	table := string(payload[offset : offset+tableLen])
	offset += tableLen

	cmdLen := int(ByteOrder.Uint32(payload[offset:]))
	offset += 4
	if offset+cmdLen != len(payload) {
		return Record{}, errors.New("command length does not match payload")
	}

	return Record{
		Type:    h.Type,
		LSN:     h.LSN,
		Table:   table,
		Command: string(payload[offset:]),
	}, nil
}

// ReadAll returns every valid record in the journal at path, in order.
// Reading stops quietly at a damaged tail; a missing file yields no records.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, nil
	}

	r := newReader(f)
	if err := r.readFileHeader(); err != nil {
		return nil, err
	}

	var records []Record
	for {
		rec, err := r.next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrCorrupt) {
				return records, nil
			}
			return records, err
		}
		records = append(records, rec)
	}
}
