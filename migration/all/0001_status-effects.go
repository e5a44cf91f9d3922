package all

// Migration0001_StatusEffects once seeded status effects on every actor.
// Status effects are no longer stored on actors, so there is nothing to add.
var Migration0001_StatusEffects = ActorMigration(1, "status effects", nil)
