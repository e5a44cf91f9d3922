package bolt_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgt2e/docmigrate/bolt"
	"github.com/mgt2e/docmigrate/kv"
	doctesting "github.com/mgt2e/docmigrate/testing"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func NewTestKVStore(t *testing.T) *bolt.KVStore {
	t.Helper()

	s := bolt.NewKVStore(zaptest.NewLogger(t), filepath.Join(t.TempDir(), "world.bolt"))
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKVStore_DocumentStore(t *testing.T) {
	doctesting.DocumentStore(func(t *testing.T) kv.Store {
		return NewTestKVStore(t)
	}, t)
}

func TestKVStore_ReadOnlyMissingBucket(t *testing.T) {
	s := NewTestKVStore(t)
	err := s.View(context.Background(), func(tx kv.Tx) error {
		_, err := tx.Bucket([]byte("nope"))
		return err
	})
	require.ErrorIs(t, err, kv.ErrBucketNotFound)
}

func TestKVStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.bolt")
	ctx := context.Background()

	s := bolt.NewKVStore(zaptest.NewLogger(t), path)
	require.NoError(t, s.Open(ctx))
	svc := doctesting.NewService(t, s)
	require.NoError(t, svc.SetSchemaVersion(ctx, 5))
	require.NoError(t, s.Close())

	s = bolt.NewKVStore(zaptest.NewLogger(t), path)
	require.NoError(t, s.Open(ctx))
	defer s.Close()

	v, ok, err := kv.NewService(zaptest.NewLogger(t), s).SchemaVersion(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 5, v)
}

func TestKVStore_Collect(t *testing.T) {
	s := NewTestKVStore(t)
	doctesting.NewService(t, s)

	expected := `
# HELP docmigrate_store_documents Number of documents held by the world store.
# TYPE docmigrate_store_documents gauge
docmigrate_store_documents{collection="actors"} 2
docmigrate_store_documents{collection="items"} 1
docmigrate_store_documents{collection="pack_documents"} 1
docmigrate_store_documents{collection="packs"} 2
docmigrate_store_documents{collection="scenes"} 1
`
	err := testutil.CollectAndCompare(s, strings.NewReader(expected), "docmigrate_store_documents")
	require.NoError(t, err)
}

func TestKVStore_Backup(t *testing.T) {
	ctx := context.Background()
	s := NewTestKVStore(t)
	require.NoError(t, doctesting.NewService(t, s).SetSchemaVersion(ctx, 4))

	size, err := s.Size(ctx)
	require.NoError(t, err)
	require.Positive(t, size)

	path := filepath.Join(t.TempDir(), "backup.bolt")
	f, err := os.Create(path)
	require.NoError(t, err)
	n, err := s.Backup(ctx, f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, size, n)

	backup := bolt.NewKVStore(zaptest.NewLogger(t), path)
	require.NoError(t, backup.Open(ctx))
	defer backup.Close()

	v, ok, err := kv.NewService(zaptest.NewLogger(t), backup).SchemaVersion(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4, v)
}
