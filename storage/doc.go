// Package storage provides blob stores for escrowed payload bytes.
//
// Each message's payload is stored as a single opaque blob keyed by message
// ID: ciphertext is written once at send time, and the blob is overwritten
// exactly once with plaintext when enough shares have been confirmed to
// reconstruct the key.
//
// Backends implement interfaces.BlobStore:
//
//   - MemoryStore: in-process map, for tests and development
//   - FileStore: local filesystem, one file per message
//   - S3Store: Amazon S3 or compatible object storage
//   - IPFSStore: an IPFS node's Files API (MFS), since the overwrite
//     semantics rule out plain content addressing
//   - VaultStore: HashiCorp Vault KV v2
//
// Factory builds backends from URIs (mem://, file://, s3://, ipfs://,
// vault://), and MultiStore aggregates several backends redundantly:
// writes fan out to all available backends, reads fall back through them.
package storage
