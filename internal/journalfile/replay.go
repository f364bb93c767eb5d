package journalfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/relayq/journal/internal/format"
	"github.com/relayq/journal/internal/logging"
	"github.com/relayq/journal/internal/metrics"
)

// ReplayHandler receives each record decoded during a replay pass, in
// file order, followed by a single terminal format.EndOfFileRecord().
// When the file does not exist, Replay returns without calling it.
// Returning an error aborts the replay early.
type ReplayHandler func(rec format.Record, offset int64) error

// ReplayCollector is the subset of metrics.Collector that Replay needs.
type ReplayCollector interface {
	RecordReplay(recordCount int)
}

// ReplayOption configures a replay pass.
type ReplayOption func(*replayConfig)

type replayConfig struct {
	clock   format.Clock
	log     logging.Logger
	metrics ReplayCollector
}

// ReplayWithClock overrides the clock used to synthesize add_time for
// legacy records encountered during replay.
func ReplayWithClock(c format.Clock) ReplayOption {
	return func(cfg *replayConfig) { cfg.clock = c }
}

// ReplayWithLogger attaches a structured logger to the replay pass.
func ReplayWithLogger(l logging.Logger) ReplayOption {
	return func(cfg *replayConfig) { cfg.log = l }
}

// ReplayWithMetrics attaches a metrics collector to the replay pass.
func ReplayWithMetrics(m ReplayCollector) ReplayOption {
	return func(cfg *replayConfig) { cfg.metrics = m }
}

// Replay streams every record in the journal file at path, in order,
// starting from byte 0, through handler. It opens its own read handle and
// never mutates the file or the Writer that may also have it open.
//
// A record whose trailing bytes are cut short by a crash mid-write is
// treated as the true end of the file, not an error: replay stops
// cleanly at the last complete record and reports the byte offset at
// which the tail was discarded. An unrecognized opcode gets the same
// treatment: it means the file is corrupt from that point on, but every
// record decoded before it is still trustworthy, so replay stops there
// rather than raising to a caller that has no way to recover a partial
// prefix from an error return.
func Replay(path string, handler ReplayHandler, opts ...ReplayOption) (validLength int64, err error) {
	cfg := replayConfig{
		clock:   SystemClock{},
		log:     logging.NoopLogger{},
		metrics: metrics.NoopCollector{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("journalfile: open for replay %s: %w", path, err)
	}
	defer f.Close()

	var offset int64
	var count int
	for {
		rec, decErr := format.Decode(f, cfg.clock)
		if decErr != nil {
			if errors.Is(decErr, io.EOF) {
				break
			}
			if errors.Is(decErr, io.ErrUnexpectedEOF) {
				cfg.log.Warn("replay: truncated tail discarded",
					logging.F("path", path), logging.F("offset", offset))
				break
			}
			if errors.Is(decErr, format.ErrInvalidOpcode) {
				cfg.log.Warn("replay: invalid opcode, discarding remainder",
					logging.F("path", path), logging.F("offset", offset), logging.F("error", decErr.Error()))
				break
			}
			return offset, fmt.Errorf("journalfile: replay %s at offset %d: %w", path, offset, decErr)
		}

		if err := handler(rec, offset); err != nil {
			return offset, fmt.Errorf("journalfile: replay handler at offset %d: %w", offset, err)
		}

		offset += rec.WireSize()
		count++
	}

	if err := handler(format.EndOfFileRecord(), offset); err != nil {
		return offset, fmt.Errorf("journalfile: replay handler at end of file: %w", err)
	}

	cfg.metrics.RecordReplay(count)
	return offset, nil
}
