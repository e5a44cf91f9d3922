package all

import (
	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/migration"
	"github.com/mgt2e/docmigrate/vocab"
)

// Migration0006_CreatureVocabulary rewrites freeform creature behaviours and
// traits as canonical vocabulary tokens.
//
// This migration ends the actor sequence: once it runs, no later actor
// migration is applied in the same call.
var Migration0006_CreatureVocabulary = ActorMigration(
	6,
	"creature traits and behaviours",
	func(env migration.Env, a *docmigrate.Actor, upd docmigrate.PartialUpdate) bool {
		switch a.Kind {
		case docmigrate.ActorCreature:
			if r := a.Get("system.behaviour"); docmigrate.Present(r) {
				migration.SetField(a.Document, upd, "system.behaviour",
					vocab.Normalize(r.String(), env.Creature.Behaviours, vocab.BehaviourJoiner))
			}
			if r := a.Get("system.traits"); docmigrate.Present(r) {
				migration.SetField(a.Document, upd, "system.traits",
					vocab.Normalize(r.String(), env.Creature.Traits, vocab.TraitJoiner))
			}
		case docmigrate.ActorTraveller, docmigrate.ActorNPC, docmigrate.ActorSpacecraft, docmigrate.ActorOther:
		}
		return true
	},
)
