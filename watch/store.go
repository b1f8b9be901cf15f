package watch

import (
	"fmt"
	"sync"

	"github.com/blackoreo/namwatch/keyvaluedb"
	"github.com/blackoreo/namwatch/types"
)

/*
Store keeps the last observed record per watched address between poll
cycles. The watcher reads and writes it only from its apply phase, one
goroutine at a time, so implementations do not need to serialize calls
against each other.
*/
type Store interface {
	// Record returns the last stored observation of addr, nil when the
	// address has not been observed yet.
	Record(addr types.Address) (*types.ValidatorRecord, error)
	PutRecord(rec *types.ValidatorRecord) error
}

// MemoryStore keeps observations in memory only: every restart starts from
// a fresh baseline and the first cycle after it detects no changes.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*types.ValidatorRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]*types.ValidatorRecord{}}
}

func (s *MemoryStore) Record(addr types.Address) (*types.ValidatorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[addr.String()], nil
}

func (s *MemoryStore) PutRecord(rec *types.ValidatorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Address.String()] = rec
	return nil
}

// DBStore persists observations in a key-value database so that changes
// across a restart are still detected against the pre-restart baseline.
type DBStore struct {
	db keyvaluedb.KeyValueDB
}

func NewDBStore(db keyvaluedb.KeyValueDB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Record(addr types.Address) (*types.ValidatorRecord, error) {
	rec := &types.ValidatorRecord{}
	found, err := s.db.Read([]byte(addr.String()), rec)
	if err != nil {
		return nil, fmt.Errorf("reading record of %s: %w", addr, err)
	}
	if !found {
		return nil, nil
	}
	return rec, nil
}

func (s *DBStore) PutRecord(rec *types.ValidatorRecord) error {
	if err := s.db.Write([]byte(rec.Address.String()), rec); err != nil {
		return fmt.Errorf("storing record of %s: %w", rec.Address, err)
	}
	return nil
}
