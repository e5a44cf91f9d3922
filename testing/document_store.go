// Package testing holds behaviour tests shared by every kv.Store
// implementation.
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/kv"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"
)

// WorldSnapshot is a small world used by the store tests: two actors, an
// item without an id, a scene with one token, a locked world item pack and
// a system pack.
const WorldSnapshot = `{
  "actors": [
    {"_id": "a2", "name": "Vargr Raider", "type": "npc", "system": {"hits": {"value": 12, "tmpDamage": 3}}},
    {"_id": "a1", "name": "Jamison", "type": "traveller", "system": {"damage": {"END": {"tmp": 1}}}}
  ],
  "items": [
    {"name": "Gauss Rifle", "type": "weapon", "system": {"weapon": {"traits": "AP 5, Auto 4"}}}
  ],
  "scenes": [
    {"_id": "s1", "name": "Startown", "tokens": [
      {"_id": "t1", "name": "Raider", "actorId": "a2", "actorLink": false, "delta": {"system": {"hits": {"tmpDamage": 2}}}}
    ]}
  ],
  "packs": [
    {"name": "world.armoury", "label": "Armoury", "package": "world", "type": "Item", "locked": true,
     "documents": [
       {"_id": "p1", "name": "Cloth",   "type": "armour", "system": {"armour": {"otherTypes": "Rad"}}}
     ]},
    {"name": "mgt2e.core", "label": "Core", "package": "mgt2e", "type": "Item", "locked": true, "documents": []}
  ]
}`

// NewService returns an initialized kv.Service over store holding
// WorldSnapshot.
func NewService(t *testing.T, store kv.Store) *kv.Service {
	t.Helper()

	ctx := context.Background()
	svc := kv.NewService(zaptest.NewLogger(t), store)
	require.NoError(t, svc.Initialize(ctx))

	var snap kv.Snapshot
	require.NoError(t, json.Unmarshal([]byte(WorldSnapshot), &snap))
	require.NoError(t, svc.Import(ctx, &snap))
	return svc
}

// DocumentStore runs the document store behaviour tests against stores
// returned by init.
func DocumentStore(init func(t *testing.T) kv.Store, t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, svc *kv.Service)
	}{
		{"list documents", listDocuments},
		{"update documents", updateDocuments},
		{"pack locking", packLocking},
		{"pack schema migration", packSchemaMigration},
		{"schema version", schemaVersion},
		{"export", export},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, NewService(t, init(t)))
		})
	}
}

func listDocuments(t *testing.T, svc *kv.Service) {
	ctx := context.Background()

	actors, err := svc.ListActors(ctx)
	require.NoError(t, err)
	var ids []string
	for _, a := range actors {
		ids = append(ids, a.ID)
	}
	if diff := cmp.Diff([]string{"a1", "a2"}, ids); diff != "" {
		t.Fatalf("unexpected actor ids (-want +got):\n%s", diff)
	}
	require.Equal(t, docmigrate.ActorTraveller, actors[0].Kind)
	require.Equal(t, docmigrate.ActorNPC, actors[1].Kind)

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, items[0].ID, 16, "imported item without _id must be assigned one")
	require.Equal(t, docmigrate.ItemWeapon, items[0].Kind)

	scenes, err := svc.ListScenes(ctx)
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	require.Len(t, scenes[0].Tokens, 1)
	require.Equal(t, "a2", scenes[0].Tokens[0].ActorID)

	packs, err := svc.ListPacks(ctx)
	require.NoError(t, err)
	require.Len(t, packs, 2)
	require.Equal(t, "mgt2e.core", packs[0].Metadata().Name)
	require.Equal(t, "world.armoury", packs[1].Metadata().Name)
	require.True(t, packs[1].Metadata().IsWorldItemPack())
	require.True(t, packs[1].Locked())

	counts, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, kv.Counts{Actors: 2, Items: 1, Scenes: 1, Packs: 2, PackDocuments: 1}, counts)
}

func updateDocuments(t *testing.T, svc *kv.Service) {
	ctx := context.Background()

	require.NoError(t, svc.UpdateActor(ctx, "a1", docmigrate.PartialUpdate{"system.damage.END.tmp": 0}))
	actors, err := svc.ListActors(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), actors[0].Get("system.damage.END.tmp").Int())
	require.Equal(t, "Jamison", actors[0].Name, "fields outside the update are kept")

	err = svc.UpdateActor(ctx, "missing", docmigrate.PartialUpdate{"name": "x"})
	require.Error(t, err)
	require.Equal(t, docmigrate.ENotFound, docmigrate.ErrorCode(err))
	require.True(t, errors.Is(err, docmigrate.ErrDocumentNotFound))

	tokens := json.RawMessage(`[{"_id":"t1","actorId":"a2","actorLink":false,"delta":{"system":{"hits":{"tmpDamage":0}}}}]`)
	require.NoError(t, svc.UpdateScene(ctx, "s1", docmigrate.PartialUpdate{"tokens": tokens}))
	scenes, err := svc.ListScenes(ctx)
	require.NoError(t, err)
	require.Equal(t, "Startown", scenes[0].Name)
	require.Equal(t, int64(0), gjson.GetBytes(scenes[0].Tokens[0].Delta(), "system.hits.tmpDamage").Int())
}

func packLocking(t *testing.T, svc *kv.Service) {
	ctx := context.Background()

	p, err := svc.FindPack(ctx, "world.armoury")
	require.NoError(t, err)
	require.True(t, p.Locked())

	upd := docmigrate.PartialUpdate{"system.armour.otherTypes": "rad"}
	err = p.UpdateDocument(ctx, "p1", upd)
	require.ErrorIs(t, err, docmigrate.ErrPackLocked)
	require.ErrorIs(t, p.RunSchemaMigration(ctx), docmigrate.ErrPackLocked)

	require.NoError(t, p.SetLocked(ctx, false))
	require.False(t, p.Locked())
	require.NoError(t, p.UpdateDocument(ctx, "p1", upd))
	require.NoError(t, p.SetLocked(ctx, true))

	// A fresh handle sees the persisted state.
	p2, err := svc.FindPack(ctx, "world.armoury")
	require.NoError(t, err)
	require.True(t, p2.Locked())

	docs, err := p2.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "rad", docs[0].Get("system.armour.otherTypes").String())

	_, err = svc.FindPack(ctx, "world.missing")
	require.Equal(t, docmigrate.ENotFound, docmigrate.ErrorCode(err))
}

func packSchemaMigration(t *testing.T, svc *kv.Service) {
	ctx := context.Background()

	p, err := svc.CreatePack(ctx, docmigrate.PackMetadata{
		Name:    "world.weapons",
		Package: docmigrate.PackageWorld,
		Type:    docmigrate.PackTypeItem,
	}, false, nil)
	require.NoError(t, err)

	var snap kv.Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"packs":[{"name":"world.weapons","package":"world","type":"Item","documents":[
		{ "_id" : "w1",  "type" : "weapon" }
	]}]}`), &snap))
	require.NoError(t, svc.Import(ctx, &snap))

	require.NoError(t, p.RunSchemaMigration(ctx))
	docs, err := p.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, `{"_id":"w1","type":"weapon"}`, string(docs[0].Bytes()))
}

func schemaVersion(t *testing.T, svc *kv.Service) {
	ctx := context.Background()

	_, ok, err := svc.SchemaVersion(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, svc.SetSchemaVersion(ctx, docmigrate.CurrentSchemaVersion))
	v, ok, err := svc.SchemaVersion(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, docmigrate.CurrentSchemaVersion, v)

	require.Equal(t, docmigrate.EInvalid, docmigrate.ErrorCode(svc.SetSchemaVersion(ctx, -1)))
}

func export(t *testing.T, svc *kv.Service) {
	ctx := context.Background()

	snap, err := svc.Export(ctx)
	require.NoError(t, err)
	require.Nil(t, snap.SchemaVersion)
	require.Len(t, snap.Actors, 2)
	require.Len(t, snap.Items, 1)
	require.Len(t, snap.Scenes, 1)
	require.Len(t, snap.Packs, 2)
	require.Equal(t, "world.armoury", snap.Packs[1].Name)
	require.True(t, snap.Packs[1].Locked)
	require.Len(t, snap.Packs[1].Documents, 1)
	require.Empty(t, snap.Packs[0].Documents)

	// Importing an export replaces documents in place.
	b, err := json.Marshal(snap)
	require.NoError(t, err)
	var again kv.Snapshot
	require.NoError(t, json.Unmarshal(b, &again))
	require.NoError(t, svc.Import(ctx, &again))

	counts, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, kv.Counts{Actors: 2, Items: 1, Scenes: 1, Packs: 2, PackDocuments: 1}, counts)
}
