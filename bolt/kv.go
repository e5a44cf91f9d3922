package bolt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mgt2e/docmigrate/kv"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// openTimeout bounds the wait for the file lock held by another process.
const openTimeout = time.Second

// KVStore is a kv.Store holding a world in a single boltdb file.
type KVStore struct {
	path   string
	db     *bolt.DB
	logger *zap.Logger
}

var _ kv.Store = (*KVStore)(nil)

// NewKVStore returns a KVStore for the file at path. The store must be
// opened before use.
func NewKVStore(log *zap.Logger, path string) *KVStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &KVStore{
		path:   path,
		logger: log,
	}
}

// Path returns the path of the boltdb file.
func (s *KVStore) Path() string {
	return s.path
}

// Open opens the world file, creating it and its directory when missing.
func (s *KVStore) Open(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating store directory for %s: %w", s.path, err)
	}

	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("opening world store %s: %w", s.path, err)
	}
	s.db = db

	s.logger.Debug("World store opened", zap.String("path", s.path))
	return nil
}

// Close releases the world file.
func (s *KVStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Size returns the number of bytes the world occupies on disk.
func (s *KVStore) Size(ctx context.Context) (size int64, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		size = tx.Size()
		return nil
	})
	return size, err
}

// Backup writes a consistent copy of the world file to w and returns the
// number of bytes written.
func (s *KVStore) Backup(ctx context.Context, w io.Writer) (n int64, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		n, err = tx.WriteTo(w)
		return err
	})
	if err != nil {
		return n, fmt.Errorf("backing up world store %s: %w", s.path, err)
	}
	s.logger.Info("World store backed up", zap.String("path", s.path), zap.Int64("bytes", n))
	return n, nil
}

// View runs fn in a read-only transaction.
func (s *KVStore) View(ctx context.Context, fn func(tx kv.Tx) error) error {
	return s.db.View(bind(ctx, fn))
}

// Update runs fn in a read-write transaction, committed when fn returns nil.
func (s *KVStore) Update(ctx context.Context, fn func(tx kv.Tx) error) error {
	return s.db.Update(bind(ctx, fn))
}

func bind(ctx context.Context, fn func(tx kv.Tx) error) func(*bolt.Tx) error {
	return func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx, ctx: ctx})
	}
}

// Tx adapts a boltdb transaction to kv.Tx.
type Tx struct {
	tx  *bolt.Tx
	ctx context.Context
}

// Context returns the context the transaction was opened with.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// WithContext replaces the transaction's context.
func (tx *Tx) WithContext(ctx context.Context) {
	tx.ctx = ctx
}

// Bucket returns the bucket named b. A missing bucket is created in a
// writable transaction and reported as kv.ErrBucketNotFound otherwise.
func (tx *Tx) Bucket(b []byte) (kv.Bucket, error) {
	if bkt := tx.tx.Bucket(b); bkt != nil {
		return &Bucket{bucket: bkt}, nil
	}
	if !tx.tx.Writable() {
		return nil, kv.ErrBucketNotFound
	}

	bkt, err := tx.tx.CreateBucketIfNotExists(b)
	if err != nil {
		return nil, fmt.Errorf("creating bucket %q: %w", b, err)
	}
	return &Bucket{bucket: bkt}, nil
}

// Bucket adapts a boltdb bucket to kv.Bucket.
type Bucket struct {
	bucket *bolt.Bucket
}

// Get returns the value stored at key.
func (b *Bucket) Get(key []byte) ([]byte, error) {
	val := b.bucket.Get(key)
	if val == nil {
		return nil, kv.ErrKeyNotFound
	}
	return val, nil
}

// Put stores value at key.
func (b *Bucket) Put(key []byte, value []byte) error {
	return writeErr(b.bucket.Put(key, value))
}

// Delete removes key.
func (b *Bucket) Delete(key []byte) error {
	return writeErr(b.bucket.Delete(key))
}

// Cursor returns a cursor over the bucket in key order.
func (b *Bucket) Cursor() (kv.Cursor, error) {
	return &Cursor{cursor: b.bucket.Cursor()}, nil
}

func writeErr(err error) error {
	if errors.Is(err, bolt.ErrTxNotWritable) {
		return kv.ErrTxNotWritable
	}
	return err
}

// Cursor adapts a boltdb cursor to kv.Cursor. Exhausted positions return
// a nil key.
type Cursor struct {
	cursor *bolt.Cursor
}

func (c *Cursor) Seek(prefix []byte) ([]byte, []byte) { return pair(c.cursor.Seek(prefix)) }
func (c *Cursor) First() ([]byte, []byte)             { return pair(c.cursor.First()) }
func (c *Cursor) Last() ([]byte, []byte)              { return pair(c.cursor.Last()) }
func (c *Cursor) Next() ([]byte, []byte)              { return pair(c.cursor.Next()) }
func (c *Cursor) Prev() ([]byte, []byte)              { return pair(c.cursor.Prev()) }

func pair(k, v []byte) ([]byte, []byte) {
	if k == nil {
		return nil, nil
	}
	return k, v
}
