package docmigrate

import "context"

// DocumentStore represents the backing store that owns the world documents.
// Lists are returned in a stable order.
type DocumentStore interface {
	// ListActors returns every actor in the world.
	ListActors(ctx context.Context) ([]*Actor, error)

	// ListItems returns every item in the world.
	ListItems(ctx context.Context) ([]*Item, error)

	// ListScenes returns every scene in the world.
	ListScenes(ctx context.Context) ([]*Scene, error)

	// ListPacks returns every compendium pack known to the world.
	ListPacks(ctx context.Context) ([]Pack, error)

	// UpdateActor writes upd into the actor identified by id.
	UpdateActor(ctx context.Context, id string, upd PartialUpdate) error

	// UpdateItem writes upd into the item identified by id.
	UpdateItem(ctx context.Context, id string, upd PartialUpdate) error

	// UpdateScene writes upd into the scene identified by id.
	UpdateScene(ctx context.Context, id string, upd PartialUpdate) error
}

// Pack is a named, lockable collection of documents.
type Pack interface {
	// Metadata returns the pack's name, owning package and document type.
	Metadata() PackMetadata

	// Locked reports whether the pack currently rejects writes.
	Locked() bool

	// SetLocked locks or unlocks the pack.
	SetLocked(ctx context.Context, locked bool) error

	// RunSchemaMigration brings the pack's storage format up to date.
	// It must be called on an unlocked pack.
	RunSchemaMigration(ctx context.Context) error

	// Documents returns the item documents held in the pack.
	Documents(ctx context.Context) ([]*Item, error)

	// UpdateDocument writes upd into the pack document identified by id.
	// Updating a locked pack fails with ErrPackLocked.
	UpdateDocument(ctx context.Context, id string, upd PartialUpdate) error
}
