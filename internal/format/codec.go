package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidOpcode is returned by Decode when a byte outside the defined
// opcode space {0..6} is read where an opcode is expected.
var ErrInvalidOpcode = errors.New("format: invalid opcode")

// ItemHeaderSize is the fixed portion of an Add block: add_time + expiry,
// 8 bytes each.
const ItemHeaderSize = 16

// legacyHeaderSize is the fixed portion of an AddLegacy block: expiry
// seconds, 4 bytes.
const legacyHeaderSize = 4

// ScratchSize is large enough to hold any fixed-size record framing
// (opcode + u32 length, or opcode + u32 xid); callers may reuse a single
// buffer of this size across calls. The encoders in this package do not
// use it: they allocate a fresh buffer per record.
const ScratchSize = 16

// EncodedSize returns the total on-disk size of an Add record carrying the
// given payload length, including the opcode byte and length prefix.
func EncodedSize(payloadLen int) int {
	return 1 + 4 + ItemHeaderSize + payloadLen
}

// EncodeAdd renders an Add record (opcode 2) to its wire bytes.
func EncodeAdd(it Item) []byte {
	blockLen := ItemHeaderSize + len(it.Data)
	buf := make([]byte, 1+4+blockLen)
	buf[0] = byte(OpAdd)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(blockLen)) //nolint:gosec // block length is bounded by caller
	binary.LittleEndian.PutUint64(buf[5:13], uint64(it.AddTime))
	binary.LittleEndian.PutUint64(buf[13:21], uint64(it.Expiry))
	copy(buf[21:], it.Data)
	return buf
}

// EncodeZeroPayload renders Remove or RemoveTentative (1 byte).
func EncodeZeroPayload(op Op) []byte {
	return []byte{byte(op)}
}

// EncodeXid renders SaveXid, Unremove, or ConfirmRemove (5 bytes).
func EncodeXid(op Op, xid uint32) []byte {
	buf := make([]byte, 5)
	buf[0] = byte(op)
	binary.LittleEndian.PutUint32(buf[1:5], xid)
	return buf
}

// Clock supplies the wall-clock time (absolute milliseconds) used to
// synthesize add_time when decoding legacy records. It is the journal's
// only dependency on an external time source.
type Clock interface {
	NowMillis() int64
}

// Decode reads exactly one record from r, dispatching on its opcode.
//
// Returns io.EOF if the stream ends before any opcode byte is read — the
// expected, non-error end of a well-formed file. Any other read failure
// while decoding the remainder of a record (header, block body, or fixed
// tail) is returned as io.ErrUnexpectedEOF wrapped with context: this is
// the truncated-tail case the replayer tolerates. An opcode outside
// {0..6} yields ErrInvalidOpcode.
func Decode(r io.Reader, clock Clock) (Record, error) {
	var opByte [1]byte
	if _, err := io.ReadFull(r, opByte[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("format: read opcode: %w", io.ErrUnexpectedEOF)
	}

	op := Op(opByte[0])
	switch op {
	case OpRemove, OpRemoveTentative:
		return Record{Op: op}, nil

	case OpSaveXid, OpUnremove, OpConfirmRemove:
		xid, err := decodeXid(r)
		if err != nil {
			return Record{}, err
		}
		return Record{Op: op, Xid: xid}, nil

	case OpAdd:
		it, err := decodeAddBlock(r)
		if err != nil {
			return Record{}, err
		}
		return Record{Op: op, Item: it}, nil

	case OpAddLegacy:
		it, err := decodeLegacyBlock(r, clock)
		if err != nil {
			return Record{}, err
		}
		return Record{Op: op, Item: it}, nil

	default:
		return Record{}, fmt.Errorf("%w: %d", ErrInvalidOpcode, opByte[0])
	}
}

func decodeXid(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("format: read xid: %w", io.ErrUnexpectedEOF)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func decodeAddBlock(r io.Reader) (Item, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Item{}, fmt.Errorf("format: read add length: %w", io.ErrUnexpectedEOF)
	}
	blockLen := binary.LittleEndian.Uint32(lenBuf[:])
	if blockLen < ItemHeaderSize {
		return Item{}, fmt.Errorf("format: add block length %d shorter than header %d", blockLen, ItemHeaderSize)
	}

	body := make([]byte, blockLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return Item{}, fmt.Errorf("format: read add body: %w", io.ErrUnexpectedEOF)
	}

	return Item{
		AddTime: int64(binary.LittleEndian.Uint64(body[0:8])), //nolint:gosec // wire value, not attacker controlled length
		Expiry:  int64(binary.LittleEndian.Uint64(body[8:16])),
		Data:    body[ItemHeaderSize:],
	}, nil
}

func decodeLegacyBlock(r io.Reader, clock Clock) (Item, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Item{}, fmt.Errorf("format: read legacy length: %w", io.ErrUnexpectedEOF)
	}
	blockLen := binary.LittleEndian.Uint32(lenBuf[:])
	if blockLen < legacyHeaderSize {
		return Item{}, fmt.Errorf("format: legacy block length %d shorter than header %d", blockLen, legacyHeaderSize)
	}

	body := make([]byte, blockLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return Item{}, fmt.Errorf("format: read legacy body: %w", io.ErrUnexpectedEOF)
	}

	expirySeconds := binary.LittleEndian.Uint32(body[0:4])
	expiry := int64(0)
	if expirySeconds != 0 {
		expiry = int64(expirySeconds) * 1000
	}

	return Item{
		AddTime: clock.NowMillis(),
		Expiry:  expiry,
		Data:    body[legacyHeaderSize:],
	}, nil
}
