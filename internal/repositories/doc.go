// Package repositories implements SQLite persistence for watchlist documents and users.
//
// Key Implementations:
//   - [DocumentStore] : keyed JSON documents with get, merge-set and replace-set
//   - [UserRepository] : identities that completed the OAuth flow, with soft deletes
//
// The document store is deliberately schemaless: a watchlist is one document
// keyed by user id whose "items" field holds the whole entry array. Callers read
// and write the array whole; no query or index operations are offered.
package repositories
