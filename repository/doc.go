// Package repository persists the escrow data model: users, messages, and
// the per-recipient share ledger.
//
// The Store interface is the persistence contract the escrow coordinator
// depends on. Its one hard requirement is atomicity of CreateMessage: a
// message and its full set of ledger entries become visible together or not
// at all. Everything else is plain keyed reads and writes; the coordinator
// serializes mutations per message, so no store-level locking beyond a
// transaction is needed.
//
// Two implementations ship: Memory (mutex-guarded maps) and SQLite
// (mattn/go-sqlite3, transactional creates, WAL mode). Open selects one from
// a URI, mem:// or sqlite:path.
package repository
