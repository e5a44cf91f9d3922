package all

import (
	"github.com/mgt2e/docmigrate"
	"github.com/mgt2e/docmigrate/migration"
)

// DefaultTermLength is the length, in years, of a career term.
const DefaultTermLength = 4

// Migration0004_TermLength sets the length of career terms.
var Migration0004_TermLength = ItemMigration(
	4,
	"term length",
	func(_ migration.Env, it *docmigrate.Item, upd docmigrate.PartialUpdate) bool {
		switch it.Kind {
		case docmigrate.ItemTerm:
			if !it.Has("system.term") {
				return false
			}
			migration.SetField(it.Document, upd, "system.term.termLength", DefaultTermLength)
			return true
		case docmigrate.ItemWeapon, docmigrate.ItemArmour, docmigrate.ItemAssociate, docmigrate.ItemOther:
		}
		return false
	},
)
