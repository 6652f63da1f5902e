package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDB_PutGetPrefix(t *testing.T) {
	l, err := NewLevelDB(filepath.Join(t.TempDir(), "journal"))
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Put([]byte("sub:a"), []byte("1")))
	require.NoError(t, l.Put([]byte("sub:b"), []byte("2")))
	require.NoError(t, l.Put([]byte("other"), []byte("3")))

	v, err := l.Get([]byte("sub:b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	_, err = l.Get([]byte("sub:missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	iter := l.NewPrefixIterator([]byte("sub:"))
	defer iter.Release()
	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"sub:a", "sub:b"}, keys)
}
