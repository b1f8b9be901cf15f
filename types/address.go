package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

/*
Human-readable prefixes of the address encodings recognized by the codec.
Anything else is rejected with ErrInvalidPrefix.
*/
const (
	// HRPAccount is the prefix of transparent account addresses,
	// including validator operator addresses.
	HRPAccount = "tnam"
	// HRPPublicKey is the prefix of consensus public key addresses.
	HRPPublicKey = "tpknam"
)

const (
	// accountPayloadSize is one discriminant byte plus a 20 byte hash.
	accountPayloadSize = 21
	// Public key payloads are one scheme byte plus the key: 32 bytes for
	// ed25519, 33 for compressed secp256k1.
	publicKeyPayloadMin = 33
	publicKeyPayloadMax = 34
	// maxAddressLength is the codepoint limit of the bech32m encoding.
	maxAddressLength = 1023
)

var (
	ErrInvalidChecksum = errors.New("invalid address checksum")
	ErrInvalidPrefix   = errors.New("unknown address prefix")
	ErrInvalidLength   = errors.New("invalid address length")
)

/*
Address is a validated on-chain address: a human-readable prefix tag and the
raw byte payload it encodes. The zero value is the "no address" marker.
Address values are immutable, the payload is never exposed for modification.
*/
type Address struct {
	hrp     string
	payload []byte
}

/*
DecodeAddress parses the bech32m text form of an address. The checksum is
validated with the bech32m constant, classic bech32 checksums are rejected
as checksum failures. Mixed-case input and charset violations are reported
as ErrInvalidChecksum, a missing or unrecognized prefix as ErrInvalidPrefix
and a payload of unexpected size as ErrInvalidLength.
*/
func DecodeAddress(text string) (Address, error) {
	if len(text) == 0 {
		return Address{}, fmt.Errorf("%w: empty input", ErrInvalidLength)
	}
	if len(text) > maxAddressLength {
		return Address{}, fmt.Errorf("%w: %d codepoints exceeds the %d limit", ErrInvalidLength, len(text), maxAddressLength)
	}

	hrp, data, version, err := bech32.DecodeGeneric(text)
	if err != nil {
		return Address{}, classifyBech32Error(err)
	}
	if version != bech32.VersionM {
		return Address{}, fmt.Errorf("%w: not a bech32m encoding", ErrInvalidChecksum)
	}

	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidLength, err)
	}
	return newAddress(hrp, payload)
}

// NewAddress builds an address from a prefix and a raw payload, applying the
// same prefix and length rules as DecodeAddress.
func NewAddress(hrp string, payload []byte) (Address, error) {
	return newAddress(hrp, bytes.Clone(payload))
}

func newAddress(hrp string, payload []byte) (Address, error) {
	switch hrp {
	case HRPAccount:
		if len(payload) != accountPayloadSize {
			return Address{}, fmt.Errorf("%w: %q payload must be %d bytes, got %d", ErrInvalidLength, hrp, accountPayloadSize, len(payload))
		}
	case HRPPublicKey:
		if len(payload) < publicKeyPayloadMin || len(payload) > publicKeyPayloadMax {
			return Address{}, fmt.Errorf("%w: %q payload must be %d-%d bytes, got %d", ErrInvalidLength, hrp, publicKeyPayloadMin, publicKeyPayloadMax, len(payload))
		}
	default:
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidPrefix, hrp)
	}
	return Address{hrp: hrp, payload: payload}, nil
}

func classifyBech32Error(err error) error {
	var (
		checksumErr  bech32.ErrInvalidChecksum
		lengthErr    bech32.ErrInvalidLength
		separatorErr bech32.ErrInvalidSeparatorIndex
	)
	switch {
	case errors.As(err, &checksumErr):
		return fmt.Errorf("%w: %v", ErrInvalidChecksum, err)
	case errors.As(err, &lengthErr):
		return fmt.Errorf("%w: %v", ErrInvalidLength, err)
	case errors.As(err, &separatorErr):
		return fmt.Errorf("%w: %v", ErrInvalidPrefix, err)
	default:
		// mixed case, characters outside the charset etc make the
		// checksum unverifiable
		return fmt.Errorf("%w: %v", ErrInvalidChecksum, err)
	}
}

/*
String returns the canonical text form of the address, always lower-case.
Encoding a value produced by DecodeAddress or NewAddress cannot fail; the
zero Address encodes to the empty string.
*/
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	data, err := bech32.ConvertBits(a.payload, 8, 5, true)
	if err != nil {
		return ""
	}
	text, err := bech32.EncodeM(a.hrp, data)
	if err != nil {
		return ""
	}
	return text
}

// HRP returns the human-readable prefix tag of the address.
func (a Address) HRP() string { return a.hrp }

// Payload returns a copy of the raw byte payload.
func (a Address) Payload() []byte { return bytes.Clone(a.payload) }

func (a Address) IsZero() bool { return a.hrp == "" && len(a.payload) == 0 }

// IsAccount reports whether the address is a transparent account (or
// validator operator) address.
func (a Address) IsAccount() bool { return a.hrp == HRPAccount }

// IsPublicKey reports whether the address encodes a consensus public key.
func (a Address) IsPublicKey() bool { return a.hrp == HRPPublicKey }

func (a Address) Equal(b Address) bool {
	return a.hrp == b.hrp && bytes.Equal(a.payload, b.payload)
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = Address{}
		return nil
	}
	addr, err := DecodeAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler so addresses survive
// CBOR round trips in their canonical text form.
func (a Address) MarshalBinary() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalBinary(data []byte) error {
	return a.UnmarshalText(data)
}
