package watch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackoreo/namwatch/keyvaluedb/boltdb"
	"github.com/blackoreo/namwatch/types"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	rec := testValidatorRecord(t)

	got, err := store.Record(rec.Address)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, store.PutRecord(rec))
	got, err = store.Record(rec.Address)
	require.NoError(t, err)
	require.True(t, rec.Equal(got))

	// newer observation supersedes
	updated := *rec
	updated.State = types.StateJailed
	require.NoError(t, store.PutRecord(&updated))
	got, err = store.Record(rec.Address)
	require.NoError(t, err)
	require.Equal(t, types.StateJailed, got.State)
}

func TestDBStore(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state.db")
	db, err := boltdb.New(file)
	require.NoError(t, err)

	store := NewDBStore(db)
	rec := testValidatorRecord(t)

	got, err := store.Record(rec.Address)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, store.PutRecord(rec))
	got, err = store.Record(rec.Address)
	require.NoError(t, err)
	require.True(t, rec.Equal(got))

	// records survive reopening the database
	require.NoError(t, db.Close())
	db, err = boltdb.New(file)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	got, err = NewDBStore(db).Record(rec.Address)
	require.NoError(t, err)
	require.True(t, rec.Equal(got))
}
