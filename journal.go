// Package journal implements the write-ahead journal that backs a
// durable, in-memory FIFO message queue: a binary record format, an
// append-only writer, a crash-tolerant replayer, a read-behind cursor for
// trailing the writer from disk, and a rename-based rotation protocol.
//
// The journal is single-threaded by contract: exactly one goroutine may
// drive a Journal's methods at a time, matching the external queue that
// owns it. It performs no internal locking beyond what the underlying
// journalfile.Writer needs to stay safe for its own Close/Roll
// interplay.
package journal

import (
	"errors"
	"fmt"
	"time"

	"github.com/relayq/journal/internal/format"
	"github.com/relayq/journal/internal/journalfile"
	"github.com/relayq/journal/internal/logging"
	"github.com/relayq/journal/internal/metrics"
)

// Journal is a single append-only file plus, optionally, one read-behind
// cursor trailing it.
type Journal struct {
	writer *journalfile.Writer
	cursor *journalfile.ReadBehind

	// nextReadBehindOffset remembers where a caught-up cursor left off,
	// so StartReadBehind resumes there instead of jumping to whatever
	// the writer's size happens to be when called again later.
	nextReadBehindOffset int64

	log     logging.Logger
	metrics journalfile.MetricsCollector
}

// Open opens or creates the journal file at path. If opts is nil,
// DefaultOptions is used. Open does not replay existing contents; call
// Replay separately to rebuild in-memory state from a prior run.
func Open(path string, opts *Options) (*Journal, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	log := convertLogger(opts.Logger)
	var mcol journalfile.MetricsCollector = metrics.NoopCollector{}
	if opts.MetricsCollector != nil {
		mcol = opts.MetricsCollector
	}

	w, err := journalfile.Open(path,
		journalfile.WithLogger(log),
		journalfile.WithMetrics(mcol),
	)
	if err != nil {
		return nil, err
	}

	return &Journal{writer: w, nextReadBehindOffset: -1, log: log, metrics: mcol}, nil
}

// Path returns the journal's current file path.
func (j *Journal) Path() string {
	return j.writer.Path()
}

// Size returns the current observable byte length of the journal.
func (j *Journal) Size() int64 {
	return j.writer.Size()
}

// Add appends an Add record for item and returns the record's on-disk
// length.
func (j *Journal) Add(item Item) (int64, error) {
	return j.writer.Add(toFormatItem(item))
}

// Remove appends a Remove record: the head item was consumed outright.
func (j *Journal) Remove() error {
	return j.writer.Remove()
}

// RemoveTentative appends a RemoveTentative record: the head item is
// reserved by a transaction but not yet confirmed gone.
func (j *Journal) RemoveTentative() error {
	return j.writer.RemoveTentative()
}

// SaveXid appends a SaveXid record checkpointing the queue's next
// transaction-id counter.
func (j *Journal) SaveXid(xid uint32) error {
	return j.writer.SaveXid(xid)
}

// Unremove appends an Unremove record: a tentative remove was aborted and
// the associated item returns to the head of the queue.
func (j *Journal) Unremove(xid uint32) error {
	return j.writer.Unremove(xid)
}

// ConfirmRemove appends a ConfirmRemove record: a tentative remove was
// confirmed and the associated item is gone for good.
func (j *Journal) ConfirmRemove(xid uint32) error {
	return j.writer.ConfirmRemove(xid)
}

// Sync flushes the journal file to stable storage. The journal never
// calls this on the caller's behalf; per-record fsync is out of scope.
func (j *Journal) Sync() error {
	return j.writer.Sync()
}

// Roll retires the current file and begins a fresh, empty one at the
// same path. It fails if a read-behind cursor is Active, since a cursor
// holds a handle on the file about to be renamed away.
func (j *Journal) Roll() error {
	if j.cursor != nil {
		return fmt.Errorf("journal: roll: %w", ErrReadBehindActive)
	}
	return j.writer.Roll(time.Now())
}

// Close releases the writer and any Active read-behind cursor. Close is
// idempotent.
func (j *Journal) Close() error {
	if j.cursor != nil {
		_ = j.cursor.Close()
		j.cursor = nil
	}
	return j.writer.Close()
}

// InReadBehind reports whether a read-behind cursor is Active.
func (j *Journal) InReadBehind() bool {
	return j.cursor != nil
}

// StartReadBehind activates a read-behind cursor. The first time it is
// called on a Journal, the cursor is positioned at the writer's current
// offset, so records appended before the call are not delivered. Once an
// earlier cursor has run (started here or by StartReadBehindAt), the new
// cursor is positioned where that cursor stopped instead, not at the
// writer's offset, and records appended since then are delivered.
func (j *Journal) StartReadBehind() error {
	if j.cursor != nil {
		return ErrReadBehindActive
	}
	offset := j.writer.Size()
	if j.nextReadBehindOffset >= 0 {
		offset = j.nextReadBehindOffset
	}
	cursor, err := journalfile.StartReadBehind(j.writer.Path(), offset, // resumes from nextReadBehindOffset when set
		journalfile.ReadBehindWithLogger(j.log),
		journalfile.ReadBehindWithMetrics(j.metrics.(journalfile.ReadBehindCollector)),
	)
	if err != nil {
		return err
	}
	j.cursor = cursor
	return nil
}

// StartReadBehindAt activates a read-behind cursor positioned at an
// explicit byte offset — typically the offset of the oldest item the
// in-memory queue evicted from memory, so the very first FillReadBehind
// call re-delivers it.
func (j *Journal) StartReadBehindAt(offset int64) error {
	if j.cursor != nil {
		return ErrReadBehindActive
	}
	cursor, err := journalfile.StartReadBehind(j.writer.Path(), offset,
		journalfile.ReadBehindWithLogger(j.log),
		journalfile.ReadBehindWithMetrics(j.metrics.(journalfile.ReadBehindCollector)),
	)
	if err != nil {
		return err
	}
	j.cursor = cursor
	j.nextReadBehindOffset = offset
	return nil
}

// FillReadBehind decodes exactly one record past the cursor's current
// position. If it is an Add, f is invoked with the recovered item and
// FillReadBehind returns (true, nil). Any other record is silently
// skipped and FillReadBehind returns (false, nil) with the cursor still
// Active — callers drain a burst of non-Add records with repeated calls.
// If the cursor has caught up to the writer's current position, it is
// closed and transitions to Inactive; that case is also (false, nil),
// distinguishable from the skip case only via InReadBehind.
//
// If the cursor finds a record whose bytes are only partially present on
// disk, that is treated as fatal rather than caught-up: FillReadBehind
// closes the cursor, transitions it to Inactive, and returns the
// underlying journalfile.ErrReadBehindCorrupted so the caller knows to
// start a fresh cursor later rather than retry this one.
func (j *Journal) FillReadBehind(f func(Item) error) (delivered bool, err error) {
	if j.cursor == nil {
		return false, ErrNoReadBehind
	}

	item, _, delivered, err := j.cursor.Fill()
	if err != nil {
		if errors.Is(err, journalfile.ErrReadBehindEOF) {
			j.nextReadBehindOffset = j.cursor.Offset()
			_ = j.cursor.Close()
			j.cursor = nil
			return false, nil
		}
		// Any other error, including ErrReadBehindCorrupted, leaves the
		// cursor unusable; Fill has already closed it for a partial
		// record, and closing it here covers the other decode errors.
		// The Journal forgets it so InReadBehind reflects that.
		_ = j.cursor.Close()
		j.cursor = nil
		return false, err
	}
	j.nextReadBehindOffset = j.cursor.Offset()

	if !delivered {
		return false, nil
	}
	if f != nil {
		if err := f(fromFormatItem(item)); err != nil {
			return false, err
		}
	}
	return true, nil
}

// StopReadBehind closes an Active cursor early, before it catches up.
func (j *Journal) StopReadBehind() error {
	if j.cursor == nil {
		return ErrNoReadBehind
	}
	err := j.cursor.Close()
	j.cursor = nil
	return err
}

// Replay streams every record in the journal file at path, in order,
// through handler, followed by a terminal record whose IsEndOfFile
// method returns true. A truncated tail or an invalid opcode partway
// through is not an error: replay stops at the last complete,
// well-formed record it can decode and still delivers the terminal
// marker. A missing file is not an error either: it is treated as empty
// and handler is not called at all, not even with the terminal marker.
//
// Replay opens its own read handle; it is safe to call concurrently with
// a Journal already open on the same path, though the journal's
// single-writer contract still applies to the file itself.
func Replay(path string, handler func(Record) error) error {
	_, err := journalfile.Replay(path, func(rec format.Record, offset int64) error {
		return handler(fromFormatRecord(rec))
	})
	return err
}
