package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// DecPrecision is the number of fractional digits of the chain's fixed-point
// decimal type. All Dec arithmetic and equality operates on the integer value
// scaled by 10^DecPrecision.
const DecPrecision = 12

// DecScale is 10^DecPrecision, the scaled integer value of 1.0.
const DecScale uint64 = 1_000_000_000_000

var ErrDecOutOfRange = errors.New("decimal value out of range")

// decWireSize is the serialized width of a decimal: a signed 256 bit
// integer in little-endian byte order.
const decWireSize = 32

/*
Dec is a non-negative fixed-point decimal with DecPrecision fractional
digits. The zero value is 0. Equality is exact integer equality of the
scaled value, there is no epsilon tolerance.
*/
type Dec struct {
	scaled uint64
}

// DecFromScaled builds a Dec from a value already scaled by 10^DecPrecision,
// e.g. DecFromScaled(50_000_000_000) is 0.05.
func DecFromScaled(scaled uint64) Dec { return Dec{scaled: scaled} }

// DecOne returns the decimal 1.0.
func DecOne() Dec { return Dec{scaled: DecScale} }

/*
DecFromLEBytes interprets a 32 byte little-endian signed 256 bit integer as
a scaled decimal. Negative values and values whose scaled form does not fit
into 64 bits are rejected with ErrDecOutOfRange.
*/
func DecFromLEBytes(data []byte) (Dec, error) {
	if len(data) != decWireSize {
		return Dec{}, fmt.Errorf("expected %d decimal bytes, got %d", decWireSize, len(data))
	}
	if data[decWireSize-1]&0x80 != 0 {
		return Dec{}, fmt.Errorf("%w: negative value", ErrDecOutOfRange)
	}
	be := make([]byte, decWireSize)
	for i, b := range data {
		be[decWireSize-1-i] = b
	}
	v := new(uint256.Int).SetBytes(be)
	if !v.IsUint64() {
		return Dec{}, fmt.Errorf("%w: scaled value exceeds 64 bits", ErrDecOutOfRange)
	}
	return Dec{scaled: v.Uint64()}, nil
}

// LEBytes returns the 32 byte little-endian wire form of the decimal.
func (d Dec) LEBytes() []byte {
	out := make([]byte, decWireSize)
	for i := 0; i < 8; i++ {
		out[i] = byte(d.scaled >> (8 * i))
	}
	return out
}

// Scaled returns the integer value scaled by 10^DecPrecision.
func (d Dec) Scaled() uint64 { return d.scaled }

func (d Dec) IsZero() bool { return d.scaled == 0 }

// Cmp compares two decimals, returning -1, 0 or 1.
func (d Dec) Cmp(o Dec) int {
	switch {
	case d.scaled < o.scaled:
		return -1
	case d.scaled > o.scaled:
		return 1
	default:
		return 0
	}
}

func (d Dec) Float64() float64 {
	return float64(d.scaled) / float64(DecScale)
}

// String renders the decimal in plain notation with trailing fractional
// zeroes removed, e.g. "0.05" or "1".
func (d Dec) String() string {
	ip := d.scaled / DecScale
	fp := d.scaled % DecScale
	if fp == 0 {
		return fmt.Sprintf("%d", ip)
	}
	frac := strings.TrimRight(fmt.Sprintf("%0*d", DecPrecision, fp), "0")
	return fmt.Sprintf("%d.%s", ip, frac)
}

// MarshalBinary implements encoding.BinaryMarshaler (8 byte little-endian
// scaled value) so decimals survive CBOR round trips.
func (d Dec) MarshalBinary() ([]byte, error) {
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte(d.scaled >> (8 * i))
	}
	return out, nil
}

func (d *Dec) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return fmt.Errorf("expected 8 bytes of scaled decimal, got %d", len(data))
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(data[i])
	}
	d.scaled = v
	return nil
}
