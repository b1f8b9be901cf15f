/*
Package subscription keeps the registry of watched validator addresses in
a key-value database. The store doubles as the watcher's address provider
so that subscribing and unsubscribing take effect on the next poll cycle
without restarting anything.
*/
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/blackoreo/namwatch/keyvaluedb"
	"github.com/blackoreo/namwatch/types"
)

// Subscription is one watched address with the metadata recorded when it
// was added.
type Subscription struct {
	_       struct{} `cbor:",toarray"`
	Address types.Address
	Label   string
	AddedAt time.Time
}

type Store struct {
	db keyvaluedb.KeyValueDB
}

func NewStore(db keyvaluedb.KeyValueDB) *Store {
	return &Store{db: db}
}

// Subscribe adds addr to the watched set. Subscribing an already watched
// address overwrites its label and timestamp.
func (s *Store) Subscribe(addr types.Address, label string) error {
	sub := Subscription{Address: addr, Label: label, AddedAt: time.Now().UTC()}
	if err := s.db.Write([]byte(addr.String()), sub); err != nil {
		return fmt.Errorf("storing subscription for %s: %w", addr, err)
	}
	return nil
}

// Unsubscribe removes addr from the watched set. Removing an address that
// is not watched is not an error.
func (s *Store) Unsubscribe(addr types.Address) error {
	if err := s.db.Delete([]byte(addr.String())); err != nil {
		return fmt.Errorf("removing subscription for %s: %w", addr, err)
	}
	return nil
}

func (s *Store) IsSubscribed(addr types.Address) (bool, error) {
	sub := Subscription{}
	found, err := s.db.Read([]byte(addr.String()), &sub)
	if err != nil {
		return false, fmt.Errorf("reading subscription for %s: %w", addr, err)
	}
	return found, nil
}

// Subscriptions returns all watched addresses with their metadata, in
// address order.
func (s *Store) Subscriptions() ([]Subscription, error) {
	var subs []Subscription
	err := s.db.Each(func(_ []byte, decode func(v any) error) error {
		sub := Subscription{}
		if err := decode(&sub); err != nil {
			return err
		}
		subs = append(subs, sub)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	return subs, nil
}

// WatchedAddresses implements the watcher's address provider.
func (s *Store) WatchedAddresses(_ context.Context) ([]types.Address, error) {
	subs, err := s.Subscriptions()
	if err != nil {
		return nil, err
	}
	addrs := make([]types.Address, 0, len(subs))
	for _, sub := range subs {
		addrs = append(addrs, sub.Address)
	}
	return addrs, nil
}
