package docmigrate

// CurrentSchemaVersion is the schema version documents are brought forward to.
// Bump it together with a new numbered migration in migration/all.
const CurrentSchemaVersion = 7
