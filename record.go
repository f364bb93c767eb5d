package journal

import "github.com/relayq/journal/internal/format"

// Op identifies a journal record's variant.
type Op = format.Op

// The opcode space accepted by replay; AddLegacy is read-only, kept for
// backward compatibility with journals written by a previous format.
const (
	OpAddLegacy       = format.OpAddLegacy
	OpRemove          = format.OpRemove
	OpAdd             = format.OpAdd
	OpRemoveTentative = format.OpRemoveTentative
	OpSaveXid         = format.OpSaveXid
	OpUnremove        = format.OpUnremove
	OpConfirmRemove   = format.OpConfirmRemove
)

// Item is the external entity the journal persists inside Add and
// AddLegacy records. The queue that owns an item's transaction id keeps
// that mapping itself; a xid is never part of an item's wire bytes.
type Item struct {
	// AddTime is the absolute enqueue time in milliseconds.
	AddTime int64
	// Expiry is the absolute expiry time in milliseconds, or 0 if the
	// item never expires.
	Expiry int64
	// Data is the opaque payload.
	Data []byte
}

// Record is one decoded journal entry, delivered by Replay in file
// order. Which of Item or Xid is meaningful depends on Op.
type Record struct {
	Op   Op
	Item Item
	Xid  uint32
}

// IsEndOfFile reports whether r is the synthetic terminal record Replay
// delivers after the last real record in the file. It is never present
// on disk.
func (r Record) IsEndOfFile() bool {
	return format.Record{Op: r.Op}.IsEndOfFile()
}

func fromFormatItem(it format.Item) Item {
	return Item{AddTime: it.AddTime, Expiry: it.Expiry, Data: it.Data}
}

func toFormatItem(it Item) format.Item {
	return format.Item{AddTime: it.AddTime, Expiry: it.Expiry, Data: it.Data}
}

func fromFormatRecord(rec format.Record) Record {
	return Record{Op: rec.Op, Item: fromFormatItem(rec.Item), Xid: rec.Xid}
}
