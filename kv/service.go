package kv

import (
	"context"
	"fmt"

	"github.com/mgt2e/docmigrate"
	"go.uber.org/zap"
)

var (
	_ docmigrate.DocumentStore = (*Service)(nil)
	_ docmigrate.Pack          = (*Pack)(nil)
)

// OpPrefix is the prefix for kv errors.
const OpPrefix = "kv/"

var (
	actorsBucket   = []byte("actorsv1")
	itemsBucket    = []byte("itemsv1")
	scenesBucket   = []byte("scenesv1")
	packsBucket    = []byte("packsv1")
	settingsBucket = []byte("settingsv1")
)

// CollectionBuckets maps each world collection to the bucket holding it.
var CollectionBuckets = map[string][]byte{
	"actors": actorsBucket,
	"items":  itemsBucket,
	"scenes": scenesBucket,
	"packs":  packsBucket,
}

// PackDocumentsPrefix prefixes the name of every pack document bucket.
const PackDocumentsPrefix = "packdocumentsv1/"

// packDocumentsBucket is the bucket holding the documents of the named pack.
func packDocumentsBucket(name string) []byte {
	return []byte(PackDocumentsPrefix + name)
}

// Service is the struct the world document store is implemented on.
type Service struct {
	kv     Store
	Logger *zap.Logger
}

// NewService returns an instance of a Service.
func NewService(log *zap.Logger, kv Store) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		kv:     kv,
		Logger: log,
	}
}

// Initialize creates Buckets needed.
func (s *Service) Initialize(ctx context.Context) error {
	return s.kv.Update(ctx, func(tx Tx) error {
		for _, b := range [][]byte{actorsBucket, itemsBucket, scenesBucket, packsBucket, settingsBucket} {
			if _, err := tx.Bucket(b); err != nil {
				return &docmigrate.Error{
					Code: docmigrate.EInternal,
					Op:   OpPrefix + "Initialize",
					Msg:  fmt.Sprintf("unable to create bucket %s", b),
					Err:  err,
				}
			}
		}
		return nil
	})
}

// ListActors returns every actor ordered by id.
func (s *Service) ListActors(ctx context.Context) ([]*docmigrate.Actor, error) {
	var actors []*docmigrate.Actor
	err := s.listDocuments(ctx, OpPrefix+"ListActors", actorsBucket, func(raw []byte) error {
		a, err := docmigrate.NewActor(raw)
		if err != nil {
			return err
		}
		actors = append(actors, a)
		return nil
	})
	return actors, err
}

// ListItems returns every world item ordered by id.
func (s *Service) ListItems(ctx context.Context) ([]*docmigrate.Item, error) {
	var items []*docmigrate.Item
	err := s.listDocuments(ctx, OpPrefix+"ListItems", itemsBucket, func(raw []byte) error {
		it, err := docmigrate.NewItem(raw)
		if err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

// ListScenes returns every scene ordered by id.
func (s *Service) ListScenes(ctx context.Context) ([]*docmigrate.Scene, error) {
	var scenes []*docmigrate.Scene
	err := s.listDocuments(ctx, OpPrefix+"ListScenes", scenesBucket, func(raw []byte) error {
		sc, err := docmigrate.NewScene(raw)
		if err != nil {
			return err
		}
		scenes = append(scenes, sc)
		return nil
	})
	return scenes, err
}

// UpdateActor applies upd to the stored actor.
func (s *Service) UpdateActor(ctx context.Context, id string, upd docmigrate.PartialUpdate) error {
	return s.updateDocument(ctx, OpPrefix+"UpdateActor", actorsBucket, id, upd)
}

// UpdateItem applies upd to the stored world item.
func (s *Service) UpdateItem(ctx context.Context, id string, upd docmigrate.PartialUpdate) error {
	return s.updateDocument(ctx, OpPrefix+"UpdateItem", itemsBucket, id, upd)
}

// UpdateScene applies upd to the stored scene.
func (s *Service) UpdateScene(ctx context.Context, id string, upd docmigrate.PartialUpdate) error {
	return s.updateDocument(ctx, OpPrefix+"UpdateScene", scenesBucket, id, upd)
}

func (s *Service) listDocuments(ctx context.Context, op string, bucket []byte, decode func([]byte) error) error {
	return s.kv.View(ctx, func(tx Tx) error {
		b, err := tx.Bucket(bucket)
		if err == ErrBucketNotFound {
			return nil
		}
		if err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		return forEach(b, func(k, v []byte) error {
			if err := decode(v); err != nil {
				return &docmigrate.Error{
					Code: docmigrate.ErrorCode(err),
					Op:   op,
					Msg:  fmt.Sprintf("decoding document %s", k),
					Err:  err,
				}
			}
			return nil
		})
	})
}

func (s *Service) updateDocument(ctx context.Context, op string, bucket []byte, id string, upd docmigrate.PartialUpdate) error {
	return s.kv.Update(ctx, func(tx Tx) error {
		return putUpdate(tx, op, bucket, id, upd)
	})
}

// putUpdate applies upd to the document stored under id in bucket.
func putUpdate(tx Tx, op string, bucket []byte, id string, upd docmigrate.PartialUpdate) error {
	b, err := tx.Bucket(bucket)
	if err != nil {
		return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
	}

	raw, err := b.Get([]byte(id))
	if err == ErrKeyNotFound {
		return &docmigrate.Error{
			Code: docmigrate.ENotFound,
			Op:   op,
			Msg:  docmigrate.ErrDocumentNotFound.Msg,
		}
	}
	if err != nil {
		return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
	}

	next, err := upd.ApplyTo(raw)
	if err != nil {
		return &docmigrate.Error{Code: docmigrate.EInvalid, Op: op, Err: err}
	}
	if err := b.Put([]byte(id), next); err != nil {
		return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
	}
	return nil
}
