package inmem

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/btree"
	"github.com/mgt2e/docmigrate/kv"
)

// KVStore is an in memory btree backed kv.Store.
type KVStore struct {
	mu      sync.RWMutex
	buckets map[string]*Bucket
}

var _ kv.Store = (*KVStore)(nil)

// NewKVStore creates an instance of a KVStore.
func NewKVStore() *KVStore {
	return &KVStore{
		buckets: map[string]*Bucket{},
	}
}

// View opens up a transaction with a read lock.
func (s *KVStore) View(ctx context.Context, fn func(kv.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{
		kv:       s,
		writable: false,
		ctx:      ctx,
	})
}

// Update opens up a transaction with a write lock.
// Writes are applied in place; a failing fn does not roll back earlier puts.
func (s *KVStore) Update(ctx context.Context, fn func(kv.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{
		kv:       s,
		writable: true,
		ctx:      ctx,
	})
}

// Tx is an in memory transaction.
type Tx struct {
	kv       *KVStore
	writable bool
	ctx      context.Context
}

// Context returns the context for the transaction.
func (t *Tx) Context() context.Context {
	return t.ctx
}

// WithContext sets the context for the transaction.
func (t *Tx) WithContext(ctx context.Context) {
	t.ctx = ctx
}

// Bucket retrieves the bucket at the provided key, creating it in writable
// transactions.
func (t *Tx) Bucket(b []byte) (kv.Bucket, error) {
	bkt, ok := t.kv.buckets[string(b)]
	if !ok {
		if !t.writable {
			return nil, kv.ErrBucketNotFound
		}
		bkt = &Bucket{btree: btree.NewG[item](2, less)}
		t.kv.buckets[string(b)] = bkt
	}

	return &bucket{
		Bucket:   bkt,
		writable: t.writable,
	}, nil
}

// Bucket is a btree that implements kv.Bucket.
type Bucket struct {
	btree *btree.BTreeG[item]
}

type bucket struct {
	*Bucket
	writable bool
}

// Put wraps the put method of a kv bucket and ensures that the
// bucket is writable.
func (b *bucket) Put(key, value []byte) error {
	if b.writable {
		return b.Bucket.Put(key, value)
	}
	return kv.ErrTxNotWritable
}

// Delete wraps the delete method of a kv bucket and ensures that the
// bucket is writable.
func (b *bucket) Delete(key []byte) error {
	if b.writable {
		return b.Bucket.Delete(key)
	}
	return kv.ErrTxNotWritable
}

type item struct {
	key   []byte
	value []byte
}

func less(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Get retrieves the value at the provided key.
func (b *Bucket) Get(key []byte) ([]byte, error) {
	i, ok := b.btree.Get(item{key: key})
	if !ok {
		return nil, kv.ErrKeyNotFound
	}
	return i.value, nil
}

// Put sets the key value pair provided. Key and value are copied.
func (b *Bucket) Put(key []byte, value []byte) error {
	_, _ = b.btree.ReplaceOrInsert(item{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	return nil
}

// Delete removes the key provided.
func (b *Bucket) Delete(key []byte) error {
	_, _ = b.btree.Delete(item{key: key})
	return nil
}

// Cursor creates a static cursor over a snapshot of the bucket's entries.
func (b *Bucket) Cursor() (kv.Cursor, error) {
	pairs := make([]kv.Pair, 0, b.btree.Len())
	b.btree.Ascend(func(i item) bool {
		pairs = append(pairs, kv.Pair{Key: i.key, Value: i.value})
		return true
	})
	return &cursor{pairs: pairs, at: -1}, nil
}

// cursor walks a sorted slice of pairs.
type cursor struct {
	pairs []kv.Pair
	at    int
}

func (c *cursor) pair() ([]byte, []byte) {
	if c.at < 0 || c.at >= len(c.pairs) {
		return nil, nil
	}
	p := c.pairs[c.at]
	return p.Key, p.Value
}

// Seek moves to the first key greater than or equal to prefix.
func (c *cursor) Seek(prefix []byte) ([]byte, []byte) {
	c.at = len(c.pairs)
	for i, p := range c.pairs {
		if bytes.Compare(p.Key, prefix) >= 0 {
			c.at = i
			break
		}
	}
	return c.pair()
}

func (c *cursor) First() ([]byte, []byte) {
	c.at = 0
	return c.pair()
}

func (c *cursor) Last() ([]byte, []byte) {
	c.at = len(c.pairs) - 1
	return c.pair()
}

func (c *cursor) Next() ([]byte, []byte) {
	if c.at < len(c.pairs) {
		c.at++
	}
	return c.pair()
}

func (c *cursor) Prev() ([]byte, []byte) {
	if c.at >= 0 {
		c.at--
	}
	return c.pair()
}
