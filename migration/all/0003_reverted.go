package all

// Migration0003_Reverted was rolled back after release. The version stays
// taken so worlds that recorded it are not migrated twice.
var Migration0003_Reverted = ActorMigration(3, "reverted", nil)
