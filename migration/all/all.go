package all

import (
	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/migration"
	"github.com/mgt2e/docmigrate/vocab"
	"go.uber.org/zap"
)

// ActorMigrations is the ordered list of actor migrations.
var ActorMigrations = []migration.Spec[*docmigrate.Actor]{
	// status effects
	Migration0001_StatusEffects,
	// temporary damage
	Migration0002_TemporaryDamage,
	// reverted
	Migration0003_Reverted,
	// spacecraft naval data
	Migration0005_SpacecraftNavy,
	// creature traits and behaviours
	Migration0006_CreatureVocabulary,
}

// ItemMigrations is the ordered list of item migrations.
var ItemMigrations = []migration.Spec[*docmigrate.Item]{
	// term length
	Migration0004_TermLength,
	// canonical armour and weapon traits
	Migration0007_CanonicalTraits,
}

// NewActorMigrator returns a migrator running ActorMigrations with the given
// creature vocabularies.
func NewActorMigrator(logger *zap.Logger, creature vocab.Creature) (*migration.ActorMigrator, error) {
	return migration.NewMigrator(logger, migration.Env{Creature: creature}, ActorMigrations...)
}

// NewItemMigrator returns a migrator running ItemMigrations.
func NewItemMigrator(logger *zap.Logger) (*migration.ItemMigrator, error) {
	return migration.NewMigrator(logger, migration.Env{}, ItemMigrations...)
}
