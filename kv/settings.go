package kv

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mgt2e/docmigrate"
)

var schemaVersionKey = []byte("schemaVersion")

// SchemaVersion returns the schema version recorded for the world. ok is
// false when no version has been recorded yet.
func (s *Service) SchemaVersion(ctx context.Context) (version int, ok bool, err error) {
	const op = OpPrefix + "SchemaVersion"

	err = s.kv.View(ctx, func(tx Tx) error {
		b, err := tx.Bucket(settingsBucket)
		if err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		v, err := b.Get(schemaVersionKey)
		if err == ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		if version, err = strconv.Atoi(string(v)); err != nil {
			return &docmigrate.Error{
				Code: docmigrate.EInternal,
				Op:   op,
				Msg:  fmt.Sprintf("stored schema version %q is not a number", v),
				Err:  err,
			}
		}
		ok = true
		return nil
	})
	return version, ok, err
}

// SetSchemaVersion records the world's schema version.
func (s *Service) SetSchemaVersion(ctx context.Context, version int) error {
	const op = OpPrefix + "SetSchemaVersion"
	if version < 0 {
		return &docmigrate.Error{
			Code: docmigrate.EInvalid,
			Op:   op,
			Msg:  fmt.Sprintf("schema version %d is negative", version),
		}
	}

	return s.kv.Update(ctx, func(tx Tx) error {
		b, err := tx.Bucket(settingsBucket)
		if err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		if err := b.Put(schemaVersionKey, []byte(strconv.Itoa(version))); err != nil {
			return &docmigrate.Error{Code: docmigrate.EInternal, Op: op, Err: err}
		}
		return nil
	})
}
