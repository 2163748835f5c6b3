// Package models defines domain entities for the wlx watchlist browser.
//
// The package contains two categories of types:
//
// 1. Watchlist values: plain structs stored inside a user's watchlist document
//   - [Entry] : one movie or show with metadata and user state (seen, addedAt)
//   - [SelectionSet] : ids marked for a bulk action
//   - [Candidate] : a metadata search result that can be added to a list
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : identities that signed in through the OAuth flow
//
// Raw metadata records of varying shape are converted into entries by [NormalizeRecord].
package models
