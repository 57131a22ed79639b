// Package migration manages versioned schema changes for the transcripts
// database, supporting PostgreSQL, MySQL and SQLite through golang-migrate.
//
// SQL files for each dialect are embedded via embed.FS and served to the
// migrate engine through an iofs source driver, so the binary carries its
// own schema history. The Migrator interface exposes the operations the
// migrate subcommand offers (Up, Down, DownAll, Goto, Force, Version,
// Status, Info) and DefaultMigrator implements it on top of a live *sql.DB.
//
// Factory helpers build a migrator from the application configuration
// (NewMigratorFromConfig, NewMigratorFromDatabaseConfig) or from a raw
// connection URL (NewMigratorFromURL). The CLI type wraps a Migrator with
// formatted output for the migrate subcommand.
package migration
