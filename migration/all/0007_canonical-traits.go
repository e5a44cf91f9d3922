package all

import (
	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/migration"
	"github.com/mgt2e/docmigrate/pkg/textcase"
	"github.com/mgt2e/docmigrate/traits"
)

// Migration0007_CanonicalTraits lower-cases armour protection types and
// rewrites weapon traits in canonical form.
var Migration0007_CanonicalTraits = ItemMigration(
	7,
	"canonical armour and weapon traits",
	func(_ migration.Env, it *docmigrate.Item, upd docmigrate.PartialUpdate) bool {
		switch it.Kind {
		case docmigrate.ItemArmour:
			other := it.Get("system.armour.otherTypes").String()
			if other == "" {
				return false
			}
			migration.SetField(it.Document, upd, "system.armour.otherTypes", textcase.Lower(other))
			return true
		case docmigrate.ItemWeapon:
			legacy := it.Get("system.weapon.traits").String()
			if legacy == "" {
				return false
			}
			migration.SetField(it.Document, upd, "system.weapon.traits", traits.Parse(legacy))
			return true
		case docmigrate.ItemTerm, docmigrate.ItemAssociate, docmigrate.ItemOther:
		}
		return false
	},
)
