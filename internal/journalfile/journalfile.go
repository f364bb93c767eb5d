// Package journalfile implements the single append-only journal file:
// writing records, replaying them from the start, tailing new records via
// a read-behind cursor, and rotating the file wholesale. It knows the
// on-disk record shapes from internal/format but nothing about the
// in-memory queue that owns the items it stores.
package journalfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/relayq/journal/internal/format"
	"github.com/relayq/journal/internal/logging"
	"github.com/relayq/journal/internal/metrics"
)

// ErrClosed is returned by any operation attempted after Close.
var ErrClosed = errors.New("journalfile: closed")

// SystemClock supplies wall-clock time via time.Now, satisfying
// format.Clock. It is the only concrete Clock implementation shipped;
// tests supply their own to pin add_time deterministically.
type SystemClock struct{}

// NowMillis implements format.Clock.
func (SystemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// MetricsCollector is the subset of metrics.Collector that the writer
// needs. Satisfied by both *metrics.Collector and metrics.NoopCollector.
type MetricsCollector interface {
	RecordAppend(op string, recordLen int, took time.Duration)
	RecordAppendError()
	RecordRoll()
	RecordRollError()
	SetSize(size int64)
}

// Writer owns the single active journal file. All mutating methods are
// safe for concurrent use; Add/Remove/etc. serialize on an internal
// mutex the same way a segment writer serializes appends.
type Writer struct {
	mu   sync.Mutex
	path string
	file *os.File
	size int64

	clock   format.Clock
	log     logging.Logger
	metrics MetricsCollector

	closed bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock sets the writer's clock. The writer does not read it: it
// decodes no records, and Roll takes its backup timestamp as an argument.
func WithClock(c format.Clock) Option {
	return func(w *Writer) { w.clock = c }
}

// WithLogger attaches a structured logger; the default is a no-op.
func WithLogger(l logging.Logger) Option {
	return func(w *Writer) { w.log = l }
}

// WithMetrics attaches a metrics collector; the default is a no-op.
func WithMetrics(m MetricsCollector) Option {
	return func(w *Writer) { w.metrics = m }
}

// Open opens the journal file at path for append, creating it if it does
// not exist. It does not replay or validate existing contents; callers
// that need to recover in-memory state from a prior run should call
// Replay separately before trusting Size.
func Open(path string, opts ...Option) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644) //nolint:gosec // journal path is caller-controlled, not attacker input
	if err != nil {
		return nil, fmt.Errorf("journalfile: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("journalfile: stat %s: %w", path, err)
	}

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("journalfile: seek end %s: %w", path, err)
	}

	w := &Writer{
		path:    path,
		file:    f,
		size:    info.Size(),
		clock:   SystemClock{},
		log:     logging.NoopLogger{},
		metrics: metrics.NoopCollector{},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.metrics.SetSize(w.size)
	return w, nil
}

// Path returns the journal file's current path.
func (w *Writer) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// Size returns the current byte length of the journal, as tracked by the
// writer's own append count rather than a fresh stat call.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Add appends an Add record and returns its on-disk length.
func (w *Writer) Add(item format.Item) (int64, error) {
	return w.appendRecord(format.OpAdd.String(), format.EncodeAdd(item))
}

// Remove appends a Remove record.
func (w *Writer) Remove() error {
	_, err := w.appendRecord(format.OpRemove.String(), format.EncodeZeroPayload(format.OpRemove))
	return err
}

// RemoveTentative appends a RemoveTentative record, marking the head item
// as claimed but not yet durably discarded.
func (w *Writer) RemoveTentative() error {
	_, err := w.appendRecord(format.OpRemoveTentative.String(), format.EncodeZeroPayload(format.OpRemoveTentative))
	return err
}

// SaveXid appends a SaveXid record checkpointing the queue's next
// transaction-id counter.
func (w *Writer) SaveXid(xid uint32) error {
	_, err := w.appendRecord(format.OpSaveXid.String(), format.EncodeXid(format.OpSaveXid, xid))
	return err
}

// Unremove appends an Unremove record, returning the item associated with
// xid to the head of the queue.
func (w *Writer) Unremove(xid uint32) error {
	_, err := w.appendRecord(format.OpUnremove.String(), format.EncodeXid(format.OpUnremove, xid))
	return err
}

// ConfirmRemove appends a ConfirmRemove record, durably discarding the
// item associated with xid.
func (w *Writer) ConfirmRemove(xid uint32) error {
	_, err := w.appendRecord(format.OpConfirmRemove.String(), format.EncodeXid(format.OpConfirmRemove, xid))
	return err
}

// appendRecord writes buf in full, retrying on short writes rather than
// buffering, so a reader tailing the file never observes a partial
// record: every write() that returns is either whole or an error.
func (w *Writer) appendRecord(opName string, buf []byte) (int64, error) {
	start := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrClosed
	}

	if err := writeFull(w.file, buf); err != nil {
		w.metrics.RecordAppendError()
		w.log.Error("append failed", logging.F("op", opName), logging.F("error", err.Error()))
		return 0, fmt.Errorf("journalfile: append %s: %w", opName, err)
	}

	n := int64(len(buf))
	w.size += n
	w.metrics.RecordAppend(opName, len(buf), time.Since(start))
	w.metrics.SetSize(w.size)
	return n, nil
}

// writeFull retries File.Write until buf is fully written or an error
// occurs; os.File rarely short-writes but the journal never assumes it.
func writeFull(f *os.File, buf []byte) error {
	for len(buf) > 0 {
		n, err := f.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

// Sync flushes the journal file to stable storage.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.file.Sync()
}

// Close closes the underlying file. Close is idempotent: a second call
// returns nil without touching the file again.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// Roll rotates the journal: the current file is renamed aside, a fresh
// empty file is opened at the original path, and the renamed backup is
// then removed. This is a wholesale rotation, not a multi-segment scheme:
// there is never more than one backup file on disk, and the active path
// is always the same name.
//
// Roll requires the caller to already know (via its own bookkeeping, not
// this package) that every item still needed by the queue has been
// re-appended to the journal — Roll itself performs no compaction.
func (w *Writer) Roll(now time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	backupPath := fmt.Sprintf("%s.%d", w.path, now.UnixMilli())

	if err := w.file.Close(); err != nil {
		w.metrics.RecordRollError()
		return fmt.Errorf("journalfile: close before roll: %w", err)
	}

	if err := os.Rename(w.path, backupPath); err != nil {
		w.metrics.RecordRollError()
		// Reopen the original file so the writer stays usable even
		// though the roll failed.
		if f, reopenErr := os.OpenFile(w.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644); reopenErr == nil { //nolint:gosec // journal path is caller-controlled
			w.file = f
		}
		return fmt.Errorf("journalfile: rename to backup: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644) //nolint:gosec // journal path is caller-controlled
	if err != nil {
		w.metrics.RecordRollError()
		return fmt.Errorf("journalfile: create fresh journal: %w", err)
	}
	w.file = f
	w.size = 0
	w.metrics.SetSize(0)

	if err := os.Remove(backupPath); err != nil {
		w.log.Warn("roll: backup file left on disk", logging.F("path", backupPath), logging.F("error", err.Error()))
	}

	w.metrics.RecordRoll()
	w.log.Info("journal rolled", logging.F("path", w.path))
	return nil
}
