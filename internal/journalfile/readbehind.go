package journalfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/relayq/journal/internal/format"
	"github.com/relayq/journal/internal/logging"
	"github.com/relayq/journal/internal/metrics"
)

// ErrReadBehindEOF is returned by Fill when the cursor has caught up to
// the writer's last known offset and there is nothing further to read.
var ErrReadBehindEOF = errors.New("journalfile: read-behind caught up")

// ErrReadBehindInactive is returned by Fill on a cursor that has already
// been stopped. Close on such a cursor returns nil.
var ErrReadBehindInactive = errors.New("journalfile: read-behind cursor inactive")

// ErrReadBehindCorrupted is returned by Fill when it finds a record whose
// bytes are only partially present on disk. Unlike Replay's tolerant
// treatment of a truncated tail, this is fatal to the cursor: Fill closes
// it and transitions it to Inactive before returning, and the caller must
// start a fresh cursor once the writer has moved past the bad offset.
var ErrReadBehindCorrupted = errors.New("journalfile: read-behind found a partial record; cursor is no longer usable")

// ReadBehindCollector is the subset of metrics.Collector the cursor uses.
type ReadBehindCollector interface {
	RecordReadBehindFill(delivered bool)
}

// ReadBehind is a cursor that trails the journal file from a starting
// offset, delivering only Add items to a memory-constrained queue that
// fell behind and needs to page items back in from disk. It never
// delivers Remove/SaveXid/etc. records: Fill consumes their bytes to
// advance and discards them, since they only matter to the in-memory
// queue that already applied them when they were first written.
//
// A ReadBehind cursor is either Active (has an open file handle and a
// position) or Inactive (closed, or never started). Calling Fill on an
// inactive cursor is an error, matching the state machine in the wider
// queue: read-behind only exists while the queue is memory-constrained.
type ReadBehind struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	offset int64
	active bool

	clock   format.Clock
	log     logging.Logger
	metrics ReadBehindCollector
}

// ReadBehindOption configures a ReadBehind cursor.
type ReadBehindOption func(*ReadBehind)

// ReadBehindWithClock overrides the clock used for legacy record decode.
func ReadBehindWithClock(c format.Clock) ReadBehindOption {
	return func(rb *ReadBehind) { rb.clock = c }
}

// ReadBehindWithLogger attaches a structured logger.
func ReadBehindWithLogger(l logging.Logger) ReadBehindOption {
	return func(rb *ReadBehind) { rb.log = l }
}

// ReadBehindWithMetrics attaches a metrics collector.
func ReadBehindWithMetrics(m ReadBehindCollector) ReadBehindOption {
	return func(rb *ReadBehind) { rb.metrics = m }
}

// StartReadBehind opens an independent read handle on the journal file at
// path, positioned at startOffset, and transitions the cursor to Active.
// startOffset is normally the byte offset of the oldest item the
// in-memory queue evicted, so the very first Fill call re-delivers it.
func StartReadBehind(path string, startOffset int64, opts ...ReadBehindOption) (*ReadBehind, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journalfile: open for read-behind %s: %w", path, err)
	}
	if _, err := f.Seek(startOffset, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("journalfile: seek read-behind %s to %d: %w", path, startOffset, err)
	}

	rb := &ReadBehind{
		path:    path,
		file:    f,
		offset:  startOffset,
		active:  true,
		clock:   SystemClock{},
		log:     logging.NoopLogger{},
		metrics: metrics.NoopCollector{},
	}
	for _, opt := range opts {
		opt(rb)
	}
	return rb, nil
}

// Active reports whether the cursor still has an open handle.
func (rb *ReadBehind) Active() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.active
}

// Offset returns the cursor's current byte position in the journal file.
func (rb *ReadBehind) Offset() int64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.offset
}

// Fill decodes exactly one record past the cursor's current position.
// If it is an Add (or AddLegacy), Fill returns it with delivered=true.
// Any other record is discarded and Fill returns delivered=false with a
// nil error — the cursor still advanced, and the caller should call Fill
// again to keep draining. Fill returns ErrReadBehindEOF once the cursor
// reaches the current end of the file: the caller is expected to retry
// later, once the writer has appended more data.
//
// A record whose bytes are only partially present is not treated the
// same as a clean end of file: unlike Replay, which tolerates a
// truncated tail as the expected shape of a crash, a read-behind cursor
// finding a partial record is a corruption signal — see the caller's own
// write ordering guarantee, under which every fully-appended record's
// bytes are visible before the next one starts. Fill closes the cursor
// and returns ErrReadBehindCorrupted.
//
// Encountering the synthetic end-of-file marker mid-stream never happens
// under normal operation — format.Decode never emits it — so Fill treats
// io.EOF from the underlying file as the only legitimate "nothing more
// yet" signal.
func (rb *ReadBehind) Fill() (item format.Item, offset int64, delivered bool, err error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if !rb.active {
		return format.Item{}, 0, false, ErrReadBehindInactive
	}

	startOffset := rb.offset
	rec, decErr := format.Decode(rb.file, rb.clock)
	if decErr != nil {
		if errors.Is(decErr, io.EOF) {
			rb.metrics.RecordReadBehindFill(false)
			return format.Item{}, 0, false, ErrReadBehindEOF
		}
		if errors.Is(decErr, io.ErrUnexpectedEOF) {
			rb.log.Error("read-behind: partial record, cursor is fatally corrupted",
				logging.F("path", rb.path), logging.F("offset", startOffset))
			rb.metrics.RecordReadBehindFill(false)
			rb.active = false
			_ = rb.file.Close()
			return format.Item{}, 0, false, ErrReadBehindCorrupted
		}
		return format.Item{}, 0, false, fmt.Errorf("journalfile: read-behind decode at %d: %w", startOffset, decErr)
	}

	rb.offset = startOffset + rec.WireSize()

	if rec.Op == format.OpAdd || rec.Op == format.OpAddLegacy {
		rb.metrics.RecordReadBehindFill(true)
		return rec.Item, startOffset, true, nil
	}
	// Non-Add records (Remove, SaveXid, ...) are discarded; the
	// in-memory queue already reflects their effect, but the cursor
	// still had to consume the bytes to keep advancing.
	rb.metrics.RecordReadBehindFill(false)
	return format.Item{}, 0, false, nil
}

// Close releases the cursor's file handle and transitions it to
// Inactive. Close is idempotent.
func (rb *ReadBehind) Close() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if !rb.active {
		return nil
	}
	rb.active = false
	rb.log.Info("read-behind cursor closed", logging.F("path", rb.path), logging.F("offset", rb.offset))
	return rb.file.Close()
}
