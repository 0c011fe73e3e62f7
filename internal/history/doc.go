// Package history keeps a SQLite ledger of export runs.
//
// Each run records its source asset, work directory, how many mip levels
// finished, and how it ended. The ledger is advisory: the exporter logs
// history failures and carries on.
package history
