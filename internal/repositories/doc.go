// Package repositories implements SQLite persistence for client-local state.
//
// Key Implementations:
//   - [StateRepository] : durable key-value rows (user identifier, device identifier)
//   - [ArchiveRepository] : device-scoped archive of generated playlists for offline listing
//
// The state table backs the session store's persistence interface; every
// write goes through an upsert so success paths are durable before they
// return. The archive stores each playlist response as its JSON payload
// alongside the prompt and primary mood for cheap listing.
package repositories
