package journalfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relayq/journal/internal/format"
)

func TestWriterAddAppendsAndTracksSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.dat")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	item := format.Item{AddTime: 1, Expiry: 0, Data: []byte("payload")}
	n, err := w.Add(item)
	require.NoError(t, err)
	require.Equal(t, int64(format.EncodedSize(len(item.Data))), n)
	require.Equal(t, n, w.Size())
}

func TestWriterAppendPreservesExistingPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.dat")
	w, err := Open(path)
	require.NoError(t, err)

	_, err = w.Add(format.Item{AddTime: 1, Data: []byte("first")})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	w2, err := Open(path)
	require.NoError(t, err)
	defer w2.Close()

	_, err = w2.Add(format.Item{AddTime: 2, Data: []byte("second")})
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(after) > len(before))
	require.Equal(t, before, after[:len(before)])
}

func TestWriterOperationsRoundTripThroughReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.dat")
	w, err := Open(path)
	require.NoError(t, err)

	_, err = w.Add(format.Item{AddTime: 1, Data: []byte("a")})
	require.NoError(t, err)
	require.NoError(t, w.RemoveTentative())
	require.NoError(t, w.SaveXid(7))
	require.NoError(t, w.ConfirmRemove(7))
	require.NoError(t, w.Close())

	var ops []format.Op
	_, err = Replay(path, func(rec format.Record, offset int64) error {
		ops = append(ops, rec.Op)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []format.Op{
		format.OpAdd, format.OpRemoveTentative, format.OpSaveXid, format.OpConfirmRemove,
	}, ops[:len(ops)-1])
	require.True(t, format.Record{Op: ops[len(ops)-1]}.IsEndOfFile())
}

func TestWriterOnClosedReturnsErrClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.dat")
	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close()) // idempotent

	_, err = w.Add(format.Item{AddTime: 1})
	require.ErrorIs(t, err, ErrClosed)
}

func TestRollZeroesSizeAndPreservesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.dat")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Add(format.Item{AddTime: 1, Data: []byte("payload")})
	require.NoError(t, err)
	require.True(t, w.Size() > 0)

	require.NoError(t, w.Roll(time.Now()))
	require.EqualValues(t, 0, w.Size())
	require.Equal(t, path, w.Path())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "backup file must be removed after roll")

	_, err = w.Add(format.Item{AddTime: 2, Data: []byte("after roll")})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	var ops []format.Op
	_, err = Replay(path, func(rec format.Record, offset int64) error {
		ops = append(ops, rec.Op)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []format.Op{format.OpAdd}, ops[:len(ops)-1])
}
