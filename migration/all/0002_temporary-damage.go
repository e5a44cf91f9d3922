package all

import (
	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/migration"
)

// Migration0002_TemporaryDamage starts the stun damage trackers at zero.
var Migration0002_TemporaryDamage = ActorMigration(
	2,
	"temporary endurance and hits damage",
	func(_ migration.Env, a *docmigrate.Actor, upd docmigrate.PartialUpdate) bool {
		switch a.Kind {
		case docmigrate.ActorTraveller:
			if a.Has("system.damage") {
				migration.SetField(a.Document, upd, "system.damage.END.tmp", 0)
			}
			setTmpHits(a, upd)
		case docmigrate.ActorNPC, docmigrate.ActorCreature:
			setTmpHits(a, upd)
		case docmigrate.ActorSpacecraft, docmigrate.ActorOther:
		}
		return false
	},
)

func setTmpHits(a *docmigrate.Actor, upd docmigrate.PartialUpdate) {
	if a.Has("system.hits") {
		migration.SetField(a.Document, upd, "system.hits.tmpDamage", 0)
	}
}
