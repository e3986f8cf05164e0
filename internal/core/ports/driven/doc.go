// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: CouchDB document CRUD, Mango find and bulk writes
//   - ViewStore: design documents and MapReduce view queries
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil; the dependent operations then fail with
// domain.ErrNotImplemented:
//
//   - AdminStore: users, security and indexes (setup and admin commands)
//   - SnapshotStore: local backup snapshots (SQLite)
//   - CodecRegistry: export/import file formats
//   - DirWatcher: directory watching for continuous import
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
