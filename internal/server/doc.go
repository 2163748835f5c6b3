// Package server provides HTTP routing, middleware, and the OAuth callback used by `wlx auth login`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] registers method-qualified patterns on an [http.ServeMux].
// [RequestLogger] and [Recoverer] are the middleware the login flow installs.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization-code callback: it validates the state parameter,
// exchanges the code for a token, reads the account's identity and sends the outcome through a channel.
// It only processes one callback to prevent replay attacks.
//
// [AwaitCallback] runs a temporary server on the configured host and port (localhost:3000 by default)
// until the callback arrives or the flow times out, then shuts it down.
package server
