package sqlite

// migrationsSchema tracks the applied schema version. The questions table
// itself is created from question.Table so that its DDL has a single source.
const migrationsSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`
