package world_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/inmem"
	"github.com/mgt2e/docmigrate/kv"
	"github.com/mgt2e/docmigrate/migration/all"
	doctesting "github.com/mgt2e/docmigrate/testing"
	"github.com/mgt2e/docmigrate/vocab"
	"github.com/mgt2e/docmigrate/world"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newService(t *testing.T) *kv.Service {
	t.Helper()
	return doctesting.NewService(t, inmem.NewKVStore())
}

func newMigrator(t *testing.T, log *zap.Logger, store docmigrate.DocumentStore, opts ...world.Option) *world.Migrator {
	t.Helper()

	actors, err := all.NewActorMigrator(log, vocab.DefaultConfig().Creature())
	require.NoError(t, err)
	items, err := all.NewItemMigrator(log)
	require.NoError(t, err)
	return world.NewMigrator(log, store, actors, items, opts...)
}

func TestMigrator_Run(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := world.NewMetrics()

	m := newMigrator(t, zap.New(core), svc, world.WithMetrics(metrics))
	sum, err := m.Run(ctx, 0)
	require.NoError(t, err)

	want := &world.Summary{
		FromVersion:  0,
		ToVersion:    docmigrate.CurrentSchemaVersion,
		Actors:       world.Counts{Migrated: 2},
		Items:        world.Counts{Migrated: 1},
		Tokens:       world.Counts{Migrated: 1},
		Scenes:       world.Counts{Migrated: 1},
		Packs:        world.Counts{Migrated: 1},
		SkippedPacks: []string{"mgt2e.core"},
	}
	if diff := cmp.Diff(want, sum, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("unexpected summary (-want +got):\n%s", diff)
	}

	actors, err := svc.ListActors(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), actors[0].Get("system.damage.END.tmp").Int())
	require.Equal(t, int64(0), actors[1].Get("system.hits.tmpDamage").Int())
	require.Equal(t, int64(12), actors[1].Get("system.hits.value").Int())

	items, err := svc.ListItems(ctx)
	require.NoError(t, err)
	require.Equal(t, "ap 5, auto 4", items[0].Get("system.weapon.traits").String())

	scenes, err := svc.ListScenes(ctx)
	require.NoError(t, err)
	tok := scenes[0].Tokens[0]
	require.Equal(t, "Raider", tok.Name)
	require.Equal(t, int64(0), gjson.GetBytes(tok.Delta(), "system.hits.tmpDamage").Int())

	p, err := svc.FindPack(ctx, "world.armoury")
	require.NoError(t, err)
	require.True(t, p.Locked(), "pack must be locked again after the run")
	docs, err := p.Documents(ctx)
	require.NoError(t, err)
	require.Equal(t, "rad", docs[0].Get("system.armour.otherTypes").String())

	require.Equal(t, 1, logs.FilterMessage("Skipping pack").FilterField(zap.String("pack", "mgt2e.core")).Len())
	require.Equal(t, float64(2), testutil.ToFloat64(metrics.Documents.WithLabelValues(world.CollectionActors, world.LabelMigrated)))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.RunDuration))
}

func TestMigrator_Run_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	m := newMigrator(t, zaptest.NewLogger(t), svc)

	_, err := m.Run(ctx, 0)
	require.NoError(t, err)
	before, err := svc.Export(ctx)
	require.NoError(t, err)

	sum, err := m.Run(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, world.Counts{Skipped: 2}, sum.Actors)
	require.Equal(t, world.Counts{Skipped: 1}, sum.Items)
	require.Equal(t, world.Counts{Skipped: 1}, sum.Tokens)
	require.Equal(t, world.Counts{Skipped: 1}, sum.Scenes)
	require.Equal(t, world.Counts{Skipped: 1}, sum.Packs)

	after, err := svc.Export(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("second run changed the world (-before +after):\n%s", diff)
	}
}

func TestMigrator_Run_CurrentVersion(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	before, err := svc.Export(ctx)
	require.NoError(t, err)

	sum, err := newMigrator(t, zaptest.NewLogger(t), svc).Run(ctx, docmigrate.CurrentSchemaVersion)
	require.NoError(t, err)
	require.Zero(t, sum.Actors.Migrated+sum.Items.Migrated+sum.Scenes.Migrated+sum.Packs.Migrated)

	// Pack storage is still re-encoded, so pack documents are compared apart.
	after, err := svc.Export(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(before, after, cmpopts.IgnoreFields(kv.PackSnapshot{}, "Documents")); diff != "" {
		t.Fatalf("run at current version changed the world (-before +after):\n%s", diff)
	}
	for i := range before.Packs {
		require.Len(t, after.Packs[i].Documents, len(before.Packs[i].Documents))
		for j := range before.Packs[i].Documents {
			require.JSONEq(t, string(before.Packs[i].Documents[j]), string(after.Packs[i].Documents[j]))
		}
	}
}

// failingStore injects failures into an otherwise working store.
type failingStore struct {
	docmigrate.DocumentStore

	failActor string
	updateErr error
	listErr   error
	packErr   error
}

func (s *failingStore) UpdateActor(ctx context.Context, id string, upd docmigrate.PartialUpdate) error {
	if id == s.failActor {
		return s.updateErr
	}
	return s.DocumentStore.UpdateActor(ctx, id, upd)
}

func (s *failingStore) ListItems(ctx context.Context) ([]*docmigrate.Item, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.DocumentStore.ListItems(ctx)
}

func (s *failingStore) ListPacks(ctx context.Context) ([]docmigrate.Pack, error) {
	packs, err := s.DocumentStore.ListPacks(ctx)
	if err != nil || s.packErr == nil {
		return packs, err
	}
	for i, p := range packs {
		packs[i] = &brokenPack{Pack: p, err: s.packErr}
	}
	return packs, nil
}

type brokenPack struct {
	docmigrate.Pack
	err error
}

func (p *brokenPack) RunSchemaMigration(context.Context) error { return p.err }

func TestMigrator_Run_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	boom := errors.New("disk full")
	metrics := world.NewMetrics()

	store := &failingStore{DocumentStore: svc, failActor: "a1", updateErr: boom}
	sum, err := newMigrator(t, zaptest.NewLogger(t), store, world.WithMetrics(metrics)).Run(ctx, 0)
	require.ErrorIs(t, err, boom)

	require.Equal(t, world.Counts{Migrated: 1, Failed: 1}, sum.Actors)
	require.Equal(t, world.Counts{Migrated: 1}, sum.Items, "the walk continues after a failure")
	require.Equal(t, world.Counts{Migrated: 1}, sum.Packs)
	require.Len(t, sum.Failures, 1)
	require.Equal(t, world.CollectionActors, sum.Failures[0].Collection)
	require.Equal(t, "a1", sum.Failures[0].ID)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Documents.WithLabelValues(world.CollectionActors, world.LabelFailed)))
}

func TestMigrator_Run_ListFailureAborts(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	boom := errors.New("bucket corrupt")

	store := &failingStore{DocumentStore: svc, listErr: boom}
	sum, err := newMigrator(t, zaptest.NewLogger(t), store).Run(ctx, 0)
	require.ErrorIs(t, err, boom)
	require.Equal(t, world.Counts{Migrated: 2}, sum.Actors)
	require.Zero(t, sum.Scenes, "scenes are not visited after an aborted run")
	require.Zero(t, sum.Packs)
}

func TestMigrator_Run_PackFailureRestoresLock(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	boom := errors.New("pack index corrupt")

	store := &failingStore{DocumentStore: svc, packErr: boom}
	sum, err := newMigrator(t, zaptest.NewLogger(t), store).Run(ctx, 0)
	require.ErrorIs(t, err, boom)
	require.Len(t, sum.Failures, 1)
	require.Equal(t, "world.armoury", sum.Failures[0].Pack)
	require.Empty(t, sum.Failures[0].ID)
	require.Zero(t, sum.Packs)

	p, err := svc.FindPack(ctx, "world.armoury")
	require.NoError(t, err)
	require.True(t, p.Locked())
}

func TestMigrator_Run_TokenOfUnknownActor(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	var snap kv.Snapshot
	snap.Scenes = append(snap.Scenes, []byte(`{"_id":"s2","name":"Orbit","tokens":[
		{"_id":"t2","actorId":"gone","actorLink":false,"delta":{"system":{"hits":{"tmpDamage":4}}}},
		{"_id":"t3","actorId":"a2","actorLink":true,"delta":{"system":{"hits":{"tmpDamage":4}}}}
	]}`))
	require.NoError(t, svc.Import(ctx, &snap))

	sum, err := newMigrator(t, zaptest.NewLogger(t), svc).Run(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, world.Counts{Migrated: 1, Skipped: 1}, sum.Tokens)
	require.Equal(t, world.Counts{Migrated: 1, Skipped: 1}, sum.Scenes)

	scenes, err := svc.ListScenes(ctx)
	require.NoError(t, err)
	require.Equal(t, "s2", scenes[1].ID)
	require.Equal(t, int64(4), gjson.GetBytes(scenes[1].Tokens[0].Delta(), "system.hits.tmpDamage").Int(),
		"tokens of unknown actors are migrated as other actors")
}
