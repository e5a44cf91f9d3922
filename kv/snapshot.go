package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mgt2e/docmigrate"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

// Snapshot is a portable copy of a world's documents.
type Snapshot struct {
	// SchemaVersion is the version the documents were written with, when known.
	SchemaVersion *int `json:"schemaVersion,omitempty"`

	Actors []json.RawMessage `json:"actors"`
	Items  []json.RawMessage `json:"items"`
	Scenes []json.RawMessage `json:"scenes"`
	Packs  []PackSnapshot    `json:"packs"`
}

// PackSnapshot is a pack and its documents.
type PackSnapshot struct {
	docmigrate.PackMetadata
	Locked    bool              `json:"locked"`
	Documents []json.RawMessage `json:"documents"`
}

// Counts is the number of documents held in each collection.
type Counts struct {
	Actors        int
	Items         int
	Scenes        int
	Packs         int
	PackDocuments int
}

// NewDocumentID returns a random 16 character document id.
func NewDocumentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// Import writes the snapshot's documents into the store. Documents without
// an _id are given a new one. Existing documents with the same id are
// replaced. The whole snapshot is written in one transaction.
func (s *Service) Import(ctx context.Context, snap *Snapshot) error {
	const op = OpPrefix + "Import"

	wrapErr := func(collection string, i int, err error) error {
		return &docmigrate.Error{
			Code: docmigrate.ErrorCode(err),
			Op:   op,
			Msg:  fmt.Sprintf("%s[%d]", collection, i),
			Err:  err,
		}
	}

	err := s.kv.Update(ctx, func(tx Tx) error {
		for _, c := range []struct {
			name   string
			bucket []byte
			docs   []json.RawMessage
		}{
			{"actors", actorsBucket, snap.Actors},
			{"items", itemsBucket, snap.Items},
			{"scenes", scenesBucket, snap.Scenes},
		} {
			for i, raw := range c.docs {
				if err := putDocument(tx, c.bucket, raw); err != nil {
					return wrapErr(c.name, i, err)
				}
			}
		}

		for i, ps := range snap.Packs {
			if ps.Name == "" {
				return wrapErr("packs", i, &docmigrate.Error{Code: docmigrate.EInvalid, Msg: "pack name is required"})
			}
			if err := putPackRecord(tx, op, packRecord{PackMetadata: ps.PackMetadata, Locked: ps.Locked}); err != nil {
				return err
			}
			for j, raw := range ps.Documents {
				if err := putDocument(tx, packDocumentsBucket(ps.Name), raw); err != nil {
					return wrapErr(fmt.Sprintf("packs[%d].documents", i), j, err)
				}
			}
		}

		if snap.SchemaVersion != nil {
			b, err := tx.Bucket(settingsBucket)
			if err != nil {
				return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
			}
			if err := b.Put(schemaVersionKey, []byte(strconv.Itoa(*snap.SchemaVersion))); err != nil {
				return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.Info("Imported world snapshot",
		zap.Int("actors", len(snap.Actors)),
		zap.Int("items", len(snap.Items)),
		zap.Int("scenes", len(snap.Scenes)),
		zap.Int("packs", len(snap.Packs)),
	)
	return nil
}

// putDocument stores raw under its _id, assigning one when it is missing.
func putDocument(tx Tx, bucket []byte, raw []byte) error {
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return &docmigrate.Error{Code: docmigrate.EInvalid, Msg: "document is not a JSON object"}
	}

	id := gjson.GetBytes(raw, "_id").String()
	if id == "" {
		id = NewDocumentID()
		var err error
		if raw, err = sjson.SetBytes(raw, "_id", id); err != nil {
			return &docmigrate.Error{Code: docmigrate.EInvalid, Err: err}
		}
	}

	b, err := tx.Bucket(bucket)
	if err != nil {
		return err
	}
	return b.Put([]byte(id), append([]byte(nil), raw...))
}

// Export reads every document of the world into a snapshot.
func (s *Service) Export(ctx context.Context) (*Snapshot, error) {
	const op = OpPrefix + "Export"

	snap := &Snapshot{
		Actors: []json.RawMessage{},
		Items:  []json.RawMessage{},
		Scenes: []json.RawMessage{},
		Packs:  []PackSnapshot{},
	}
	if v, ok, err := s.SchemaVersion(ctx); err != nil {
		return nil, err
	} else if ok {
		snap.SchemaVersion = &v
	}

	err := s.kv.View(ctx, func(tx Tx) error {
		var err error
		if snap.Actors, err = readAll(tx, actorsBucket, snap.Actors); err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		if snap.Items, err = readAll(tx, itemsBucket, snap.Items); err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		if snap.Scenes, err = readAll(tx, scenesBucket, snap.Scenes); err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}

		b, err := tx.Bucket(packsBucket)
		if err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		var recs []packRecord
		if err := forEach(b, func(_, v []byte) error {
			var rec packRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		}); err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}

		for _, rec := range recs {
			docs, err := readAll(tx, packDocumentsBucket(rec.Name), []json.RawMessage{})
			if err != nil && err != ErrBucketNotFound {
				return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
			}
			snap.Packs = append(snap.Packs, PackSnapshot{
				PackMetadata: rec.PackMetadata,
				Locked:       rec.Locked,
				Documents:    docs,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func readAll(tx Tx, bucket []byte, dst []json.RawMessage) ([]json.RawMessage, error) {
	b, err := tx.Bucket(bucket)
	if err != nil {
		return dst, err
	}
	err = forEach(b, func(_, v []byte) error {
		dst = append(dst, append(json.RawMessage(nil), v...))
		return nil
	})
	return dst, err
}

// Count returns the number of documents in each collection.
func (s *Service) Count(ctx context.Context) (Counts, error) {
	const op = OpPrefix + "Count"

	var c Counts
	err := s.kv.View(ctx, func(tx Tx) error {
		for _, t := range []struct {
			bucket []byte
			n      *int
		}{
			{actorsBucket, &c.Actors},
			{itemsBucket, &c.Items},
			{scenesBucket, &c.Scenes},
		} {
			n, err := countKeys(tx, t.bucket)
			if err != nil {
				return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
			}
			*t.n = n
		}

		b, err := tx.Bucket(packsBucket)
		if err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		return forEach(b, func(k, _ []byte) error {
			c.Packs++
			n, err := countKeys(tx, packDocumentsBucket(string(k)))
			if err != nil && err != ErrBucketNotFound {
				return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
			}
			c.PackDocuments += n
			return nil
		})
	})
	return c, err
}

func countKeys(tx Tx, bucket []byte) (int, error) {
	b, err := tx.Bucket(bucket)
	if err != nil {
		return 0, err
	}
	n := 0
	err = forEach(b, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}
