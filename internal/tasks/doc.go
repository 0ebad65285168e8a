// Package tasks drives playlist generation against the muse backend with
// real-time progress reporting.
//
// # Streaming Session
//
// [StreamSession] is the state machine behind one incremental generation:
//
//	Idle → Submitting → Streaming → {Completed | Failed}
//
// [StreamSession.Submit] opens the backend's event stream and consumes it
// on a goroutine. Narrative frames accumulate into a growing buffer,
// status frames replace a single current-status value, and the terminal
// result frame is parsed into a [models.PlaylistResponse].
//
// # Supersession
//
// Submitting while a previous attempt is still in flight supersedes it:
// every attempt is tagged with a monotonically increasing generation
// counter, and consumption guards every state mutation against the
// current generation. Late events from a superseded attempt are inert:
// they can never overwrite state belonging to a newer prompt.
//
// # Progress Reporting
//
// All observable changes are also emitted as [ProgressUpdate] values on a
// non-blocking channel, in transport order, for CLI/TUI rendering.
// Updates use select with default so a slow consumer never stalls
// stream consumption.
//
// # Cancellation
//
// [StreamSession.Cancel] aborts the underlying transport via context
// cancellation synchronously with the transition back to Idle. A
// cancelled attempt is never observable as Failed.
package tasks
