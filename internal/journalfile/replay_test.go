package journalfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayq/journal/internal/format"
)

func TestReplayToleratesTruncatedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.dat")
	w, err := Open(path)
	require.NoError(t, err)

	_, err = w.Add(format.Item{AddTime: 1, Data: []byte("complete")})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// Simulate a crash mid-append by truncating a few bytes off the tail.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-3))

	var delivered []format.Item
	validLength, err := Replay(path, func(rec format.Record, offset int64) error {
		if rec.Op == format.OpAdd {
			delivered = append(delivered, rec.Item)
		}
		return nil
	})
	require.NoError(t, err)
	require.Empty(t, delivered, "the only record was truncated and must be discarded, not delivered")
	require.EqualValues(t, 0, validLength)
}

func TestReplayNonexistentFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.dat")
	var calls int
	validLength, err := Replay(path, func(rec format.Record, offset int64) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 0, validLength)
	require.Zero(t, calls)
}

func TestReplayStopsOnInvalidOpcode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.dat")
	w, err := Open(path)
	require.NoError(t, err)
	_, err = w.Add(format.Item{AddTime: 1, Data: []byte("ok")})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0x7F})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var delivered []format.Item
	_, err = Replay(path, func(rec format.Record, offset int64) error {
		if rec.Op == format.OpAdd {
			delivered = append(delivered, rec.Item)
		}
		return nil
	})
	require.NoError(t, err, "the valid prefix must still replay cleanly")
	require.Len(t, delivered, 1)
	require.Equal(t, []byte("ok"), delivered[0].Data)
}
