package format

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedClock int64

func (c fixedClock) NowMillis() int64 { return int64(c) }

func TestEncodeDecodeAddRoundTrip(t *testing.T) {
	item := Item{AddTime: 1700000000000, Expiry: 1700000060000, Data: []byte("hello")}
	buf := EncodeAdd(item)
	require.Len(t, buf, EncodedSize(len(item.Data)))

	rec, err := Decode(bytes.NewReader(buf), fixedClock(0))
	require.NoError(t, err)
	require.Equal(t, OpAdd, rec.Op)
	require.Equal(t, item, rec.Item)
	require.Equal(t, int64(len(buf)), rec.WireSize())
}

func TestEncodeDecodeZeroPayload(t *testing.T) {
	for _, op := range []Op{OpRemove, OpRemoveTentative} {
		buf := EncodeZeroPayload(op)
		require.Equal(t, []byte{byte(op)}, buf)

		rec, err := Decode(bytes.NewReader(buf), fixedClock(0))
		require.NoError(t, err)
		require.Equal(t, op, rec.Op)
		require.EqualValues(t, 1, rec.WireSize())
	}
}

func TestEncodeDecodeXid(t *testing.T) {
	for _, op := range []Op{OpSaveXid, OpUnremove, OpConfirmRemove} {
		buf := EncodeXid(op, 42)
		require.Len(t, buf, 5)

		rec, err := Decode(bytes.NewReader(buf), fixedClock(0))
		require.NoError(t, err)
		require.Equal(t, op, rec.Op)
		require.EqualValues(t, 42, rec.Xid)
		require.EqualValues(t, 5, rec.WireSize())
	}
}

func TestDecodeLegacyAssignsAddTimeFromClock(t *testing.T) {
	body := make([]byte, legacyHeaderSize+3)
	body[0], body[1], body[2], body[3] = 30, 0, 0, 0 // 30 seconds
	body[4], body[5], body[6] = 'a', 'b', 'c'

	var buf bytes.Buffer
	buf.WriteByte(byte(OpAddLegacy))
	lenPrefix := make([]byte, 4)
	lenPrefix[0] = byte(len(body))
	buf.Write(lenPrefix)
	buf.Write(body)

	rec, err := Decode(&buf, fixedClock(9999))
	require.NoError(t, err)
	require.Equal(t, OpAddLegacy, rec.Op)
	require.EqualValues(t, 9999, rec.Item.AddTime)
	require.EqualValues(t, 30*1000, rec.Item.Expiry)
	require.Equal(t, []byte("abc"), rec.Item.Data)
}

func TestDecodeLegacyZeroExpiryMeansNeverExpires(t *testing.T) {
	body := make([]byte, legacyHeaderSize)
	var buf bytes.Buffer
	buf.WriteByte(byte(OpAddLegacy))
	buf.Write([]byte{byte(len(body)), 0, 0, 0})
	buf.Write(body)

	rec, err := Decode(&buf, fixedClock(1))
	require.NoError(t, err)
	require.EqualValues(t, 0, rec.Item.Expiry)
}

func TestDecodeCleanEOF(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil), fixedClock(0))
	require.ErrorIs(t, err, io.EOF)
}

func TestDecodeTruncatedTailIsUnexpectedEOF(t *testing.T) {
	buf := EncodeAdd(Item{AddTime: 1, Expiry: 0, Data: []byte("longer payload")})
	truncated := buf[:len(buf)-5]

	_, err := Decode(bytes.NewReader(truncated), fixedClock(0))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeInvalidOpcode(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0x7F}), fixedClock(0))
	require.True(t, errors.Is(err, ErrInvalidOpcode))
}

func TestOpStringAndValid(t *testing.T) {
	require.Equal(t, "Add", OpAdd.String())
	require.True(t, OpConfirmRemove.Valid())
	require.False(t, Op(200).Valid())
	require.Contains(t, Op(200).String(), "Op(200)")
}

func TestEndOfFileRecordIsNeverAValidOpcode(t *testing.T) {
	eof := EndOfFileRecord()
	require.True(t, eof.IsEndOfFile())
	require.False(t, eof.Op.Valid())
}
