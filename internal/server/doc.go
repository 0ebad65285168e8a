// Package server provides HTTP routing, middleware, and the OAuth
// callback handling behind the CLI's browser-based sign-in flows.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [CallbackHandler] receives the redirect leg of an OAuth2
// authorization code flow. It validates the state parameter (CSRF
// protection) and sends the captured authorization code through a
// channel. It deliberately does not exchange the code: the Google
// sign-in flow exchanges locally for an identity token, and the
// YouTube link flow forwards the raw code to the muse backend, which
// holds the client secret for that exchange.
//
// It only processes one callback to prevent replay attacks.
//
// # Current Usage
//
// When the user runs `muse auth login` or `muse auth link`, a
// temporary HTTP server starts on the configured loopback address,
// handles the callback, and shuts down after the code is captured.
package server
