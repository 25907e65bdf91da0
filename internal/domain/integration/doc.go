// Package integration contains the ledger integration bounded context.
//
// Key concepts:
//   - Settings: per-store credentials for the remote ledger and the billing account
//   - CategoryMapping: entity linking a storefront category to its remote mirror
//   - SyncRun: audit record of a full catalog reconciliation pass
//
// Ports (repository interfaces) are defined here, adapters live in the
// infrastructure layer.
package integration
