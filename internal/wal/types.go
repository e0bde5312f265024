package wal

import (
	"encoding/binary"
	"errors"
)

// ===========================================================================
// JOURNAL FILE FORMAT
// ===========================================================================
//
// ┌────────────────────────────────────────────────────────────────┐
// │ File Header (16 bytes): Magic(8) Version(2) Reserved(6)        │
// ├────────────────────────────────────────────────────────────────┤
// │ Record 1: [Header (24 bytes)] [Payload] [Padding to 8 bytes]   │
// ├────────────────────────────────────────────────────────────────┤
// │ ...                                                            │
// └────────────────────────────────────────────────────────────────┘
//
// All multi-byte integers are little-endian.
//
// ===========================================================================

// ByteOrder is the byte order used for encoding journal data
var ByteOrder = binary.LittleEndian

// RecordAlignment is the byte alignment for all records
const RecordAlignment = 8

// MaxRecordSize bounds a single record so a corrupted length cannot
// trigger a huge allocation during recovery.
const MaxRecordSize = 4 * 1024 * 1024

// Magic identifies a journal file (ASCII: "COLTBWAL")
var Magic = [8]byte{'C', 'O', 'L', 'T', 'B', 'W', 'A', 'L'}

// Version is the current journal format version
const Version uint16 = 1

// FileHeaderSize is the fixed size of the file header
const FileHeaderSize = 16

var (
	ErrBadMagic   = errors.New("not a journal file")
	ErrBadVersion = errors.New("unsupported journal version")
	ErrCorrupt    = errors.New("corrupt journal record")
	ErrClosed     = errors.New("journal is closed")
)

// RecordType represents the type of a journal record
type RecordType uint8

const (
	// RecordCommand holds one command line that changed a table
	RecordCommand RecordType = iota + 1
	// RecordCheckpoint marks a table as saved; earlier commands for it
	// are already in its file.
	RecordCheckpoint
)

func (rt RecordType) String() string {
	switch rt {
	case RecordCommand:
		return "Command"
	case RecordCheckpoint:
		return "Checkpoint"
	default:
		return "Unknown"
	}
}

// RecordHeader precedes every record.
//
// Binary layout:
// ┌─────────┬─────────┬──────────┬─────────────┬──────────┬─────────┐
// │ Type(1) │ Pad(3)  │ Length(4)│ PayloadLen(4)│ CRC32(4) │ LSN(8)  │
// └─────────┴─────────┴──────────┴─────────────┴──────────┴─────────┘
// Offsets: 0        1         4          8             12         16
type RecordHeader struct {
	Type       RecordType
	Length     uint32 // header + payload + padding
	PayloadLen uint32
	CRC32      uint32 // of the payload only
	LSN        uint64
}

// RecordHeaderSize is the fixed size of a record header
const RecordHeaderSize = 24

// AlignTo8 rounds size up to the next 8-byte boundary
func AlignTo8(size int) int {
	return (size + RecordAlignment - 1) &^ (RecordAlignment - 1)
}

// Record is one decoded journal entry.
// Command is empty for checkpoints.
type Record struct {
	Type    RecordType
	LSN     uint64
	Table   string
	Command string
}
