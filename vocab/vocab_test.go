package vocab_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mgt2e/docmigrate/vocab"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		tokens []string
		joiner string
		want   string
	}{
		{
			name:   "vocabulary order, space joined",
			text:   "very aggressive and territorial",
			tokens: []string{"aggressive", "territorial", "passive"},
			joiner: vocab.BehaviourJoiner,
			want:   "aggressive territorial",
		},
		{
			name:   "case insensitive",
			text:   "Carnivore / POUNCER",
			tokens: []string{"pouncer", "carnivore"},
			joiner: vocab.BehaviourJoiner,
			want:   "pouncer carnivore",
		},
		{
			name:   "camel case tokens match lower case text",
			text:   "flyer, fast metabolism, fastmetabolism",
			tokens: []string{"fastMetabolism", "flyer"},
			joiner: vocab.TraitJoiner,
			want:   "fastMetabolism,flyer",
		},
		{
			name:   "overlapping tokens both match",
			text:   "armoured",
			tokens: []string{"armour", "armoured"},
			joiner: vocab.TraitJoiner,
			want:   "armour,armoured",
		},
		{
			name:   "nothing matches",
			text:   "friendly",
			tokens: []string{"aggressive"},
			joiner: vocab.BehaviourJoiner,
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := vocab.Normalize(tt.text, vocab.New(tt.tokens...), tt.joiner)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	tokens := []string{"grazer", "", "hunter", "grazer"}
	v := vocab.New(tokens...)

	if diff := cmp.Diff([]string{"grazer", "hunter"}, v.Tokens()); diff != "" {
		t.Fatalf("unexpected tokens (-want +got):\n%s", diff)
	}

	// the vocabulary does not alias the caller's slice
	tokens[0] = "killer"
	require.Equal(t, []string{"grazer", "hunter"}, v.Tokens())

	got := v.Tokens()
	got[0] = "killer"
	require.Equal(t, []string{"grazer", "hunter"}, v.Tokens())
}

func TestDefaultConfig(t *testing.T) {
	c := vocab.DefaultConfig().Creature()
	require.Equal(t, len(vocab.DefaultConfig().Behaviours), c.Behaviours.Len())
	require.Equal(t, "carnivore pouncer", vocab.Normalize("Carnivore (Pouncer)", c.Behaviours, vocab.BehaviourJoiner))
	require.Equal(t, "armour,large", vocab.Normalize("Armour (+4), Large (+2)", c.Traits, vocab.TraitJoiner))
}
