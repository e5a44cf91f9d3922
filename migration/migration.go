// Package migration applies ordered, version-gated transforms to world
// documents. The concrete transforms live in migration/all.
package migration

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/vocab"
	"go.uber.org/zap"
)

// ErrSpecsOutOfOrder is returned when migration specs are not listed in
// strictly increasing version order.
var ErrSpecsOutOfOrder = errors.New("migration specs must have strictly increasing versions")

// Env is the configuration handed to every transform.
type Env struct {
	Creature vocab.Creature
}

// Spec is a specification for a single schema migration of documents of
// type D. Up runs for documents whose stored schema version is below
// Version. It records changed fields into upd and reports whether the
// sequence is complete; later specs are skipped once a spec returns true.
type Spec[D any] interface {
	MigrationName() string
	Version() int
	Up(env Env, doc D, upd docmigrate.PartialUpdate) (done bool)
}

// Migrator walks a list of specs for one document at a time.
// It holds no state between documents.
type Migrator[D any] struct {
	logger *zap.Logger
	env    Env

	Specs []Spec[D]
}

// ActorMigrator migrates actor documents.
type ActorMigrator = Migrator[*docmigrate.Actor]

// ItemMigrator migrates item documents.
type ItemMigrator = Migrator[*docmigrate.Item]

// NewMigrator constructs and configures a new Migrator.
// Specs must be listed in strictly increasing version order and no spec
// may target a version above docmigrate.CurrentSchemaVersion.
func NewMigrator[D any](logger *zap.Logger, env Env, specs ...Spec[D]) (*Migrator[D], error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	last := 0
	for _, spec := range specs {
		if v := spec.Version(); v <= last || v > docmigrate.CurrentSchemaVersion {
			return nil, fmt.Errorf("migration %q (version %d): %w", spec.MigrationName(), v, ErrSpecsOutOfOrder)
		}
		last = spec.Version()
	}

	return &Migrator[D]{
		logger: logger,
		env:    env,
		Specs:  specs,
	}, nil
}

// Migrate applies each spec whose version is above fromVersion, in order,
// and returns the fields that changed. The document itself is not
// modified. An empty update means the document is already current.
func (m *Migrator[D]) Migrate(doc D, fromVersion int) docmigrate.PartialUpdate {
	upd := docmigrate.PartialUpdate{}
	for _, spec := range m.Specs {
		if fromVersion >= spec.Version() {
			continue
		}

		done := spec.Up(m.env, doc, upd)
		m.logger.Debug(
			"Executing document migration",
			zap.String("migration_name", spec.MigrationName()),
			zap.Int("migration_version", spec.Version()),
			zap.Int("from_version", fromVersion),
			zap.Int("changed_fields", len(upd)),
			zap.Bool("sequence_done", done),
		)
		if done {
			break
		}
	}
	return upd
}

// SetField records value at path unless the document already holds an
// equal value there.
func SetField(doc docmigrate.Document, upd docmigrate.PartialUpdate, path string, value interface{}) {
	if r := doc.Get(path); docmigrate.Present(r) && equalJSON(r.Raw, value) {
		return
	}
	upd.Set(path, value)
}

func equalJSON(raw string, v interface{}) bool {
	var have, want interface{}
	if err := json.Unmarshal([]byte(raw), &have); err != nil {
		return false
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(b, &want); err != nil {
		return false
	}
	return reflect.DeepEqual(have, want)
}
