// Package models defines the wire-level data model shared between the
// muse backend and this client.
//
// All types mirror the backend's JSON contract exactly and are treated
// as immutable once decoded:
//   - [Session] : authenticated user identity plus the delegated music-service authorization flag
//   - [MoodProfile] : AI-derived interpretation of a free-text prompt
//   - [Track] : a single playable (or displayable) unit
//   - [PlaylistResponse] : the terminal result of one generation request
package models
