// Package services implements clients for the external APIs used by the watchlist browser.
//
// # API Client
//
// [APIClient] wraps net/http for JSON APIs. Every request carries the caller's
// context, is bounded by the http.Client timeout, and is retried with
// exponential backoff (avast/retry-go) on transport errors, 429 and 5xx.
// Failures that survive the retries wrap [shared.ErrNetwork].
//
// # Metadata
//
// [OMDbService] implements [MetadataProvider] against the OMDb API: title
// search (s=) and lookup by IMDb id (i=). The API key is sent as the apikey
// query parameter and requests pass through a token-bucket limiter. Search
// results are ranked with [RankCandidates].
//
// # Completions
//
// [CompletionService] implements [Completer] for OpenAI-compatible
// /chat/completions endpoints. Replies are plain text; callers strip markdown
// fences with [StripCodeFences] before parsing JSON.
//
// # Identity
//
// [IdentityService] runs the OAuth2 authorization-code flow against an OpenID
// provider and reads the signed-in user from its userinfo endpoint.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNetwork] : request rejected, timed out or retries exhausted
//   - [shared.ErrMalformedResponse] : body was not the expected JSON shape
//   - [shared.ErrNotFound] : the metadata API has no title for the id
//   - [shared.ErrMissingCredentials] : API key or client id not configured
package services
