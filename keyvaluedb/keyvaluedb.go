/*
Package keyvaluedb defines the persistent key-value store capability the
watch state and subscription registry are kept in. The interface is the
least common denominator of embedded key-value stores so that the backing
implementation stays swappable.
*/
package keyvaluedb

import "errors"

type KeyValueDB interface {
	// Read decodes the value stored under key into v. The bool reports
	// whether the key was present; absence is not an error.
	Read(key []byte, v any) (bool, error)
	Write(key []byte, v any) error
	Delete(key []byte) error
	// Each calls fn for every stored key in ascending key order. The key
	// slice is only valid during the call; fn must copy it to keep it.
	Each(fn func(key []byte, decode func(v any) error) error) error
	Close() error
}

var (
	ErrEmptyKey = errors.New("key is empty")
	ErrNilValue = errors.New("value is nil")
)

func CheckKey(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return nil
}

func CheckKeyAndValue(key []byte, v any) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	if v == nil {
		return ErrNilValue
	}
	return nil
}
