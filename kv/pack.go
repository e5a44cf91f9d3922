package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mgt2e/docmigrate"
	"go.uber.org/zap"
)

// packRecord is the stored form of a pack in the packs bucket.
type packRecord struct {
	docmigrate.PackMetadata
	Locked bool `json:"locked"`
}

// Pack is a compendium pack stored in the kv store. The lock state is read
// from the store on every write, the cached value only answers Locked.
type Pack struct {
	s      *Service
	meta   docmigrate.PackMetadata
	locked bool
}

// ListPacks returns every pack ordered by name.
func (s *Service) ListPacks(ctx context.Context) ([]docmigrate.Pack, error) {
	const op = OpPrefix + "ListPacks"

	var packs []docmigrate.Pack
	err := s.kv.View(ctx, func(tx Tx) error {
		b, err := tx.Bucket(packsBucket)
		if err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		return forEach(b, func(k, v []byte) error {
			var rec packRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return &docmigrate.Error{
					Code: docmigrate.EInternal,
					Op:   op,
					Msg:  fmt.Sprintf("decoding pack %s", k),
					Err:  err,
				}
			}
			packs = append(packs, &Pack{s: s, meta: rec.PackMetadata, locked: rec.Locked})
			return nil
		})
	})
	return packs, err
}

// FindPack returns the pack with the given name.
func (s *Service) FindPack(ctx context.Context, name string) (*Pack, error) {
	const op = OpPrefix + "FindPack"

	var p *Pack
	err := s.kv.View(ctx, func(tx Tx) error {
		rec, err := getPackRecord(tx, op, name)
		if err != nil {
			return err
		}
		p = &Pack{s: s, meta: rec.PackMetadata, locked: rec.Locked}
		return nil
	})
	return p, err
}

// CreatePack stores a new pack with its documents. An existing pack with the
// same name is replaced, documents included.
func (s *Service) CreatePack(ctx context.Context, meta docmigrate.PackMetadata, locked bool, docs []*docmigrate.Item) (*Pack, error) {
	const op = OpPrefix + "CreatePack"
	if meta.Name == "" {
		return nil, &docmigrate.Error{Code: docmigrate.EInvalid, Op: op, Msg: "pack name is required"}
	}

	err := s.kv.Update(ctx, func(tx Tx) error {
		if err := putPackRecord(tx, op, packRecord{PackMetadata: meta, Locked: locked}); err != nil {
			return err
		}
		b, err := tx.Bucket(packDocumentsBucket(meta.Name))
		if err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		if err := clearBucket(b); err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		for _, d := range docs {
			if err := b.Put([]byte(d.ID), d.Bytes()); err != nil {
				return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Pack{s: s, meta: meta, locked: locked}, nil
}

// Metadata returns the pack's metadata.
func (p *Pack) Metadata() docmigrate.PackMetadata {
	return p.meta
}

// Locked reports the lock state last read or written through p.
func (p *Pack) Locked() bool {
	return p.locked
}

// SetLocked persists the pack's lock state.
func (p *Pack) SetLocked(ctx context.Context, locked bool) error {
	const op = OpPrefix + "Pack.SetLocked"

	err := p.s.kv.Update(ctx, func(tx Tx) error {
		rec, err := getPackRecord(tx, op, p.meta.Name)
		if err != nil {
			return err
		}
		if rec.Locked == locked {
			return nil
		}
		rec.Locked = locked
		return putPackRecord(tx, op, rec)
	})
	if err != nil {
		return err
	}
	p.locked = locked
	return nil
}

// RunSchemaMigration rewrites every document of the pack in compact JSON.
func (p *Pack) RunSchemaMigration(ctx context.Context) error {
	const op = OpPrefix + "Pack.RunSchemaMigration"

	return p.s.kv.Update(ctx, func(tx Tx) error {
		if err := checkUnlocked(tx, op, p.meta.Name); err != nil {
			return err
		}
		b, err := tx.Bucket(packDocumentsBucket(p.meta.Name))
		if err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		n, err := compactAll(b)
		if err != nil {
			return &docmigrate.Error{
				Code: docmigrate.EInternal,
				Op:   op,
				Msg:  fmt.Sprintf("re-encoding pack %s", p.meta.Name),
				Err:  err,
			}
		}
		p.s.Logger.Debug("Re-encoded pack documents",
			zap.String("pack", p.meta.Name),
			zap.Int("documents", n),
		)
		return nil
	})
}

// Documents returns the pack's documents ordered by id.
func (p *Pack) Documents(ctx context.Context) ([]*docmigrate.Item, error) {
	var items []*docmigrate.Item
	err := p.s.listDocuments(ctx, OpPrefix+"Pack.Documents", packDocumentsBucket(p.meta.Name), func(raw []byte) error {
		it, err := docmigrate.NewItem(raw)
		if err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

// UpdateDocument applies upd to a document of the pack. It fails with
// docmigrate.ErrPackLocked while the pack is locked.
func (p *Pack) UpdateDocument(ctx context.Context, id string, upd docmigrate.PartialUpdate) error {
	const op = OpPrefix + "Pack.UpdateDocument"

	return p.s.kv.Update(ctx, func(tx Tx) error {
		if err := checkUnlocked(tx, op, p.meta.Name); err != nil {
			return err
		}
		return putUpdate(tx, op, packDocumentsBucket(p.meta.Name), id, upd)
	})
}

func getPackRecord(tx Tx, op, name string) (packRecord, error) {
	var rec packRecord
	b, err := tx.Bucket(packsBucket)
	if err != nil {
		return rec, &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
	}
	v, err := b.Get([]byte(name))
	if err == ErrKeyNotFound {
		return rec, &docmigrate.Error{
			Code: docmigrate.ENotFound,
			Op:   op,
			Msg:  fmt.Sprintf("pack %q not found", name),
		}
	}
	if err != nil {
		return rec, &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
	}
	if err := json.Unmarshal(v, &rec); err != nil {
		return rec, &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
	}
	return rec, nil
}

func putPackRecord(tx Tx, op string, rec packRecord) error {
	b, err := tx.Bucket(packsBucket)
	if err != nil {
		return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
	}
	v, err := json.Marshal(rec)
	if err != nil {
		return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
	}
	if err := b.Put([]byte(rec.Name), v); err != nil {
		return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
	}
	return nil
}

func checkUnlocked(tx Tx, op, name string) error {
	rec, err := getPackRecord(tx, op, name)
	if err != nil {
		return err
	}
	if rec.Locked {
		return &docmigrate.Error{
			Code: docmigrate.ErrPackLocked.Code,
			Op:   op,
			Msg:  docmigrate.ErrPackLocked.Msg,
		}
	}
	return nil
}

func clearBucket(b Bucket) error {
	var keys [][]byte
	if err := forEach(b, func(k, _ []byte) error {
		keys = append(keys, append([]byte(nil), k...))
		return nil
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
