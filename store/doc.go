// Package store persists bot conversation transcripts through gorm.
//
// Every validated (or exhausted) wave turn is saved as a pair of Transcript
// rows, one per message, keyed by conversation and turn. The SQL backend
// supports sqlite for local use and mysql/postgres for deployments; schema
// management belongs to the migrate subcommand, with AutoMigrate available
// for tests and quick starts.
package store
