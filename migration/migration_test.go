package migration_test

import (
	"testing"

	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/migration"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recordingSpec appends its version to the "ran" field of the update.
type recordingSpec struct {
	version int
	done    bool
}

func (s recordingSpec) MigrationName() string { return "recording" }
func (s recordingSpec) Version() int          { return s.version }

func (s recordingSpec) Up(_ migration.Env, _ *docmigrate.Actor, upd docmigrate.PartialUpdate) bool {
	ran, _ := upd["ran"].([]int)
	upd.Set("ran", append(ran, s.version))
	return s.done
}

func newActor(t *testing.T, raw string) *docmigrate.Actor {
	t.Helper()
	a, err := docmigrate.NewActor([]byte(raw))
	require.NoError(t, err)
	return a
}

func TestMigrator_Gating(t *testing.T) {
	m, err := migration.NewMigrator[*docmigrate.Actor](zaptest.NewLogger(t), migration.Env{},
		recordingSpec{version: 1},
		recordingSpec{version: 2},
		recordingSpec{version: 5},
	)
	require.NoError(t, err)

	a := newActor(t, `{"_id":"a1","type":"npc"}`)

	tests := []struct {
		from int
		want []int
	}{
		{from: 0, want: []int{1, 2, 5}},
		{from: 1, want: []int{2, 5}},
		{from: 4, want: []int{5}},
		{from: 5, want: nil},
		{from: docmigrate.CurrentSchemaVersion, want: nil},
	}
	for _, tt := range tests {
		upd := m.Migrate(a, tt.from)
		ran, _ := upd["ran"].([]int)
		require.Equal(t, tt.want, ran, "from version %d", tt.from)
	}
}

func TestMigrator_DoneStopsSequence(t *testing.T) {
	m, err := migration.NewMigrator[*docmigrate.Actor](nil, migration.Env{},
		recordingSpec{version: 2},
		recordingSpec{version: 3, done: true},
		recordingSpec{version: 4},
	)
	require.NoError(t, err)

	upd := m.Migrate(newActor(t, `{"_id":"a1"}`), 0)
	require.Equal(t, []int{2, 3}, upd["ran"])

	// once past the terminal spec the later one runs on its own
	upd = m.Migrate(newActor(t, `{"_id":"a1"}`), 3)
	require.Equal(t, []int{4}, upd["ran"])
}

func TestNewMigrator_RejectsBadOrder(t *testing.T) {
	_, err := migration.NewMigrator[*docmigrate.Actor](nil, migration.Env{},
		recordingSpec{version: 2},
		recordingSpec{version: 2},
	)
	require.ErrorIs(t, err, migration.ErrSpecsOutOfOrder)

	_, err = migration.NewMigrator[*docmigrate.Actor](nil, migration.Env{},
		recordingSpec{version: docmigrate.CurrentSchemaVersion + 1},
	)
	require.ErrorIs(t, err, migration.ErrSpecsOutOfOrder)
}

func TestSetField(t *testing.T) {
	a := newActor(t, `{"_id":"a1","system":{"hits":{"tmpDamage":0},"behaviour":"killer","navy":{"morale":7,"divisions":{}}}}`)

	upd := docmigrate.PartialUpdate{}
	migration.SetField(a.Document, upd, "system.hits.tmpDamage", 0)
	migration.SetField(a.Document, upd, "system.behaviour", "killer")
	migration.SetField(a.Document, upd, "system.navy", map[string]interface{}{"divisions": map[string]interface{}{}, "morale": 7})
	require.True(t, upd.IsEmpty())

	migration.SetField(a.Document, upd, "system.behaviour", "pouncer")
	migration.SetField(a.Document, upd, "system.damage.END.tmp", 0)
	require.Equal(t, docmigrate.PartialUpdate{
		"system.behaviour":      "pouncer",
		"system.damage.END.tmp": 0,
	}, upd)
}
