// Package services implements the HTTP and event-stream transport to the muse backend.
//
// # Request/Response Client
//
// [Client] wraps a [net/http.Client] with a [rate.Limiter] so the CLI never
// outruns the backend's per-device rate limits. [Client.Call] performs one
// JSON exchange; any non-2xx status is reported as [shared.ErrBackend] with
// the response body as diagnostic text.
//
// # Event Streams
//
// [Client.OpenEventStream] opens a chunked response and returns an
// [EventStream]: a lazy, non-restartable sequence of [Event] values parsed
// from blank-line-delimited frames. Each frame carries an "event:" line
// naming the kind (narrative, status, result, error) and a "data:" line
// with the payload. Malformed frames are dropped rather than failing the
// stream; a transport failure mid-stream surfaces as [shared.ErrStream] so
// consumers can distinguish it from a clean close (io.EOF).
//
// # Typed Endpoints
//
// [MuseService] layers the backend's REST contract over [Client]:
// credential exchange, session restore, playlist generation (blocking and
// streaming), per-user history CRUD, and external playlist creation.
//
// # Error Handling
//
// Transport methods wrap sentinels from the shared package:
//   - [shared.ErrBackend] : non-success HTTP status on a blocking call
//   - [shared.ErrStream] : transport failure mid-stream
//   - [shared.ErrAuth] : credential or authorization-code exchange rejected
package services
