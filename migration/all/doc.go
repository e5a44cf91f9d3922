// package all
//
// This package is the canonical location for every document migration known to
// the engine.
//
// ActorMigrations and ItemMigrations list the migration specifications, in
// version order, that bring actors and items from any stored schema version up
// to docmigrate.CurrentSchemaVersion.
//
// This package is arranged like so:
//
//	doc.go - this piece of documentation.
//	all.go - the ActorMigrations and ItemMigrations lists and their migrator constructors.
//	migration.go - implementations of migration.Spec for convenience.
//	000X_migration_name.go (example) - one file per schema version holding that version's transform.
//	...
//
// A version number never gets reused. Retired transforms stay in the list as
// no-ops so that the numbering keeps matching what old worlds have stored.
package all
