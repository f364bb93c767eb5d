// Package format implements the on-disk record layout for the journal:
// opcode framing, the tagged record union, and the byte-exact codec for
// each variant. It knows nothing about files, offsets, or replay policy —
// those live in internal/journalfile.
package format

import "fmt"

// Op identifies a journal record's wire opcode.
type Op uint8

// The opcode space is fixed and never extended: an unrecognized opcode
// found during replay is a fatal format error, not a forward-compatibility
// hook.
const (
	OpAddLegacy        Op = 0
	OpRemove           Op = 1
	OpAdd              Op = 2
	OpRemoveTentative  Op = 3
	OpSaveXid          Op = 4
	OpUnremove         Op = 5
	OpConfirmRemove    Op = 6
)

// String renders the opcode name for logging.
func (o Op) String() string {
	switch o {
	case OpAddLegacy:
		return "AddLegacy"
	case OpRemove:
		return "Remove"
	case OpAdd:
		return "Add"
	case OpRemoveTentative:
		return "RemoveTentative"
	case OpSaveXid:
		return "SaveXid"
	case OpUnremove:
		return "Unremove"
	case OpConfirmRemove:
		return "ConfirmRemove"
	default:
		return fmt.Sprintf("Op(%d)", uint8(o))
	}
}

// Valid reports whether o is one of the opcodes defined by the format.
func (o Op) Valid() bool {
	return o <= OpConfirmRemove
}

// Item is the external entity the journal serializes inside Add/AddLegacy
// records. The transaction id that the owning queue associates with an item
// is never part of this wire representation.
type Item struct {
	// AddTime is the absolute enqueue time in milliseconds.
	AddTime int64
	// Expiry is the absolute expiry time in milliseconds, or 0 for never.
	Expiry int64
	// Data is the opaque payload; its length is implied by the record.
	Data []byte
}

// Record is the tagged union produced by Decode and delivered by
// replay. Exactly one of the typed fields is meaningful for a given Op;
// which one is determined entirely by Op.
type Record struct {
	Op Op

	// Item is populated for OpAdd and OpAddLegacy.
	Item Item

	// Xid is populated for OpSaveXid, OpUnremove, OpConfirmRemove.
	Xid uint32
}

// opEndOfFile is the Op of the synthetic terminal record delivered by the
// replayer. It is never written to disk; it is a sentinel value outside the
// valid opcode range so it cannot be confused with a real record.
const opEndOfFile Op = 0xFF

// EndOfFileRecord constructs the synthetic terminal marker.
func EndOfFileRecord() Record {
	return Record{Op: opEndOfFile}
}

// IsEndOfFile reports whether r is the synthetic terminal marker.
func (r Record) IsEndOfFile() bool {
	return r.Op == opEndOfFile
}

// WireSize returns the number of bytes r occupies on disk, matching
// exactly what Decode consumed to produce it. Used for byte-accounting
// during replay and by the read-behind cursor to track its offset.
func (r Record) WireSize() int64 {
	switch r.Op {
	case OpRemove, OpRemoveTentative:
		return 1
	case OpSaveXid, OpUnremove, OpConfirmRemove:
		return 5
	case OpAdd:
		return int64(1 + 4 + ItemHeaderSize + len(r.Item.Data))
	case OpAddLegacy:
		return int64(1 + 4 + legacyHeaderSize + len(r.Item.Data))
	default:
		return 0
	}
}
