package all

import (
	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/migration"
)

// Migration is a migration.Spec built from a name, a version and a transform.
type Migration[D any] struct {
	name    string
	version int
	up      func(env migration.Env, doc D, upd docmigrate.PartialUpdate) bool
}

// MigrationName returns the name of the migration.
func (m *Migration[D]) MigrationName() string {
	return m.name
}

// Version returns the schema version the migration brings documents to.
func (m *Migration[D]) Version() int {
	return m.version
}

// Up applies the transform.
func (m *Migration[D]) Up(env migration.Env, doc D, upd docmigrate.PartialUpdate) bool {
	if m.up == nil {
		return false
	}
	return m.up(env, doc, upd)
}

// ActorMigration returns a spec transforming actors.
func ActorMigration(version int, name string, up func(migration.Env, *docmigrate.Actor, docmigrate.PartialUpdate) bool) *Migration[*docmigrate.Actor] {
	return &Migration[*docmigrate.Actor]{name: name, version: version, up: up}
}

// ItemMigration returns a spec transforming items.
func ItemMigration(version int, name string, up func(migration.Env, *docmigrate.Item, docmigrate.PartialUpdate) bool) *Migration[*docmigrate.Item] {
	return &Migration[*docmigrate.Item]{name: name, version: version, up: up}
}
