package journal_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	journal "github.com/relayq/journal"
)

func TestSingleItemRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.journal")
	j, err := journal.Open(path, nil)
	require.NoError(t, err)
	defer j.Close()

	n, err := j.Add(journal.Item{AddTime: 1000, Expiry: 0, Data: []byte("hi")})
	require.NoError(t, err)
	require.EqualValues(t, 23, n)
	require.EqualValues(t, 23, j.Size())

	var got []journal.Record
	require.NoError(t, journal.Replay(path, func(rec journal.Record) error {
		got = append(got, rec)
		return nil
	}))
	require.Len(t, got, 2) // Add, then the terminal EndOfFile marker
	require.Equal(t, journal.OpAdd, got[0].Op)
	require.EqualValues(t, 1000, got[0].Item.AddTime)
	require.Equal(t, []byte("hi"), got[0].Item.Data)
	require.True(t, got[1].IsEndOfFile())
}

func TestTentativeCommitCycleSizeAndOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.journal")
	j, err := journal.Open(path, nil)
	require.NoError(t, err)
	defer j.Close()

	_, err = j.Add(journal.Item{AddTime: 1, Data: []byte("AB")})
	require.NoError(t, err)
	require.NoError(t, j.RemoveTentative())
	require.NoError(t, j.SaveXid(17))
	require.NoError(t, j.ConfirmRemove(17))

	require.EqualValues(t, (5+16+2)+1+5+5, j.Size())

	var ops []journal.Op
	require.NoError(t, journal.Replay(path, func(rec journal.Record) error {
		if !rec.IsEndOfFile() {
			ops = append(ops, rec.Op)
		}
		return nil
	}))
	require.Equal(t, []journal.Op{
		journal.OpAdd, journal.OpRemoveTentative, journal.OpSaveXid, journal.OpConfirmRemove,
	}, ops)
}

func TestUnremoveCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.journal")
	j, err := journal.Open(path, nil)
	require.NoError(t, err)
	defer j.Close()

	_, err = j.Add(journal.Item{AddTime: 1, Data: []byte("A")})
	require.NoError(t, err)
	require.NoError(t, j.RemoveTentative())
	require.NoError(t, j.Unremove(3))

	var records []journal.Record
	require.NoError(t, journal.Replay(path, func(rec journal.Record) error {
		if !rec.IsEndOfFile() {
			records = append(records, rec)
		}
		return nil
	}))
	require.Len(t, records, 3)
	require.Equal(t, journal.OpAdd, records[0].Op)
	require.Equal(t, journal.OpRemoveTentative, records[1].Op)
	require.Equal(t, journal.OpUnremove, records[2].Op)
	require.EqualValues(t, 3, records[2].Xid)
}

func TestTruncationYieldsCompletePrefixWithoutError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.journal")
	j, err := journal.Open(path, nil)
	require.NoError(t, err)

	_, err = j.Add(journal.Item{AddTime: 1, Data: []byte("AB")})
	require.NoError(t, err)
	require.NoError(t, j.RemoveTentative())
	require.NoError(t, j.SaveXid(17))
	require.NoError(t, j.ConfirmRemove(17))
	fullSize := j.Size()
	require.NoError(t, j.Close())

	require.NoError(t, os.Truncate(path, fullSize-1))

	var ops []journal.Op
	require.NoError(t, journal.Replay(path, func(rec journal.Record) error {
		if !rec.IsEndOfFile() {
			ops = append(ops, rec.Op)
		}
		return nil
	}))
	require.Equal(t, []journal.Op{journal.OpAdd, journal.OpRemoveTentative, journal.OpSaveXid}, ops)
}

func TestReadBehindCatchUpScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.journal")
	j, err := journal.Open(path, nil)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.StartReadBehind())

	_, err = j.Add(journal.Item{AddTime: 1, Data: []byte("A1")})
	require.NoError(t, err)
	_, err = j.Add(journal.Item{AddTime: 2, Data: []byte("A2")})
	require.NoError(t, err)
	require.NoError(t, j.Remove())

	var delivered [][]byte
	for i := 0; i < 2; i++ {
		ok, err := j.FillReadBehind(func(item journal.Item) error {
			delivered = append(delivered, item.Data)
			return nil
		})
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := j.FillReadBehind(nil) // the Remove record: skipped, still Active
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, j.InReadBehind())

	ok, err = j.FillReadBehind(nil) // caught up
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, j.InReadBehind())

	require.Equal(t, [][]byte{[]byte("A1"), []byte("A2")}, delivered)
}

func TestRollZeroesSizeAndLeavesNoBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.journal")
	j, err := journal.Open(path, nil)
	require.NoError(t, err)
	defer j.Close()

	_, err = j.Add(journal.Item{AddTime: 1, Data: []byte("checkpointed")})
	require.NoError(t, err)
	require.True(t, j.Size() > 0)

	require.NoError(t, j.Roll())
	require.EqualValues(t, 0, j.Size())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 0, info.Size())
}

func TestRollFailsWhileReadBehindActive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.journal")
	j, err := journal.Open(path, nil)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.StartReadBehind())
	err = j.Roll()
	require.ErrorIs(t, err, journal.ErrReadBehindActive)
}
