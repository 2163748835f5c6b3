// Package tasks runs watchlist operations for a user session with real-time progress reporting.
//
// # Mutation Protocol
//
// Every change to a stored list goes through [WatchlistEngine.Mutate]:
//
//  1. Read the list stored under the session's user id
//     - No document means an empty list
//     - Toggle and remove operations become no-ops without a write
//  2. Apply a pure [Transform] that matches entries by id, never by position
//  3. Write the whole list back, replacing the stored items field
//
// After the write the session cache holds exactly what was written and subscribers are notified.
// Writes are last-writer-wins; concurrent mutations of the same list can lose updates.
//
// Operations are built with [ToggleSeen], [Remove], [SetSeen], [RemoveAll], [Add],
// [MergeImport] and [ReplaceImport]. Bulk operations clear their [models.SelectionSet] once committed.
//
// # Enrichment
//
// [WatchlistEngine.Enrich] asks a completion model for missing ratings in sequential chunks of
// [EnrichChunkSize] and commits once, or not at all. [WatchlistEngine.EnrichFromMetadata] does the
// same against the metadata API with per-entry failures tolerated.
//
// # Progress Reporting
//
// Long-running operations accept an optional channel of [ProgressUpdate].
// Updates use select with default to prevent blocking.
package tasks
