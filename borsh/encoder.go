package borsh

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/holiman/uint256"

	"github.com/blackoreo/namwatch/types"
)

// Encoder is the write-side mirror of Decoder. It is used for query
// argument keys and for building wire fixtures in tests. Encoding cannot
// fail, so the methods do not return errors.
type Encoder struct {
	buf bytes.Buffer
}

func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the encoded output accumulated so far.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

func (e *Encoder) Uint8(v uint8) *Encoder {
	e.buf.WriteByte(v)
	return e
}

func (e *Encoder) Uint32(v uint32) *Encoder {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
	return e
}

func (e *Encoder) Uint64(v uint64) *Encoder {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
	return e
}

func (e *Encoder) Bool(v bool) *Encoder {
	if v {
		return e.Uint8(1)
	}
	return e.Uint8(0)
}

// Option writes the presence tag of an optional value.
func (e *Encoder) Option(present bool) *Encoder {
	return e.Bool(present)
}

func (e *Encoder) Raw(b []byte) *Encoder {
	e.buf.Write(b)
	return e
}

func (e *Encoder) String(s string) *Encoder {
	e.Uint32(uint32(len(s)))
	e.buf.WriteString(s)
	return e
}

// SeqLen writes the element count of a sequence or map.
func (e *Encoder) SeqLen(n int) *Encoder {
	return e.Uint32(uint32(n))
}

// StringMap writes a string map with keys in sorted order, matching the
// serializer's ordered-map convention.
func (e *Encoder) StringMap(m map[string]string) *Encoder {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.SeqLen(len(keys))
	for _, k := range keys {
		e.String(k)
		e.String(m[k])
	}
	return e
}

func (e *Encoder) Uint256(v *uint256.Int) *Encoder {
	be := v.Bytes32()
	for i := word256Size - 1; i >= 0; i-- {
		e.buf.WriteByte(be[i])
	}
	return e
}

func (e *Encoder) Dec(d types.Dec) *Encoder {
	e.buf.Write(d.LEBytes())
	return e
}
