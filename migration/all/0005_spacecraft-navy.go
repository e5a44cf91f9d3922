package all

import (
	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/migration"
	"github.com/mohae/deepcopy"
)

// navyTemplate is the naval operations block every spacecraft starts with.
// It is copied for each update and must never be handed out directly.
var navyTemplate = map[string]interface{}{
	"navy": false,
	"supplies": map[string]interface{}{
		"value": 0,
		"max":   0,
	},
	"cei": map[string]interface{}{
		"value":   7,
		"current": 7,
	},
	"morale":    7,
	"divisions": map[string]interface{}{},
}

// Migration0005_SpacecraftNavy attaches naval operations data to spacecraft.
var Migration0005_SpacecraftNavy = ActorMigration(
	5,
	"spacecraft naval data",
	func(_ migration.Env, a *docmigrate.Actor, upd docmigrate.PartialUpdate) bool {
		switch a.Kind {
		case docmigrate.ActorSpacecraft:
			migration.SetField(a.Document, upd, "system.spacecraft.navy", deepcopy.Copy(navyTemplate))
		case docmigrate.ActorTraveller, docmigrate.ActorNPC, docmigrate.ActorCreature, docmigrate.ActorOther:
		}
		return false
	},
)
