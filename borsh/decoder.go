/*
Package borsh reads and writes the chain's native binary serialization:
little-endian fixed-width integers, u32 length-prefixed UTF-8 strings,
single-byte option and bool tags, u32 count-prefixed sequences and maps,
and 256 bit integers as 32 little-endian bytes. Fixed-point decimals are
signed 256 bit integers scaled by 10^types.DecPrecision.

The decoder fails fast: a read past the end of input is always an
ErrUnexpectedEOF, never a panic or a zero default.
*/
package borsh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/holiman/uint256"

	"github.com/blackoreo/namwatch/types"
)

var (
	ErrUnexpectedEOF = errors.New("unexpected end of input")
	ErrTrailingBytes = errors.New("unexpected trailing bytes")
	ErrInvalidBool   = errors.New("invalid bool tag")
	ErrInvalidOption = errors.New("invalid option tag")
	ErrInvalidString = errors.New("string is not valid UTF-8")
)

const word256Size = 32

// Decoder consumes a byte slice front to back. It does not copy the input;
// the caller must not modify the slice while decoding.
type Decoder struct {
	data []byte
	off  int
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining returns the number of bytes not yet consumed.
func (d *Decoder) Remaining() int { return len(d.data) - d.off }

// Done verifies the whole input was consumed.
func (d *Decoder) Done() error {
	if rem := d.Remaining(); rem > 0 {
		return fmt.Errorf("%w: %d bytes at offset %d", ErrTrailingBytes, rem, d.off)
	}
	return nil
}

func (d *Decoder) take(n int) ([]byte, error) {
	if rem := d.Remaining(); rem < n {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrUnexpectedEOF, n, d.off, rem)
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) Uint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) Bool() (bool, error) {
	b, err := d.Uint8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: 0x%02x", ErrInvalidBool, b)
	}
}

// Option reads the presence tag of an optional value: 0x00 for none,
// 0x01 for some.
func (d *Decoder) Option() (bool, error) {
	b, err := d.Uint8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: 0x%02x", ErrInvalidOption, b)
	}
}

// Bytes reads exactly n bytes.
func (d *Decoder) Bytes(n int) ([]byte, error) {
	return d.take(n)
}

func (d *Decoder) String() (string, error) {
	n, err := d.Uint32()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidString
	}
	return string(b), nil
}

/*
SeqLen reads the element count of a sequence or map. The count is validated
against the remaining input (every element occupies at least one byte) so a
corrupt length prefix fails here instead of in a huge allocation.
*/
func (d *Decoder) SeqLen() (int, error) {
	n, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	if int64(n) > int64(d.Remaining()) {
		return 0, fmt.Errorf("%w: sequence of %d elements with %d bytes left", ErrUnexpectedEOF, n, d.Remaining())
	}
	return int(n), nil
}

// StringMap reads a string-to-string map (u32 count, then key/value pairs
// in the serializer's sorted key order).
func (d *Decoder) StringMap() (map[string]string, error) {
	n, err := d.SeqLen()
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, n)
	for i := 0; i < n; i++ {
		k, err := d.String()
		if err != nil {
			return nil, fmt.Errorf("map key %d: %w", i, err)
		}
		v, err := d.String()
		if err != nil {
			return nil, fmt.Errorf("map value %q: %w", k, err)
		}
		m[k] = v
	}
	return m, nil
}

// Uint256 reads an unsigned 256 bit integer from 32 little-endian bytes.
func (d *Decoder) Uint256() (*uint256.Int, error) {
	b, err := d.take(word256Size)
	if err != nil {
		return nil, err
	}
	be := make([]byte, word256Size)
	for i, v := range b {
		be[word256Size-1-i] = v
	}
	return new(uint256.Int).SetBytes(be), nil
}

// Dec reads a fixed-point decimal. Negative or oversized values are
// rejected with types.ErrDecOutOfRange.
func (d *Decoder) Dec() (types.Dec, error) {
	b, err := d.take(word256Size)
	if err != nil {
		return types.Dec{}, err
	}
	return types.DecFromLEBytes(b)
}
