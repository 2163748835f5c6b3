// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses one session's watchlist a page at a time:
//   - [BrowseMode] : move through the page, toggle seen, remove, select entries and apply bulk operations
//   - [SearchMode] : edit the free-text search with a bubbles text input
//   - [AskMode] : send a natural-language question about the filtered list to the completion service
//   - [AnswerMode] : show the entries the question matched
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// List changes arrive through a [tasks.Session] subscription, so the page always shows the last written list.
// Load and ask results carry the view generation they were started for; a filter change or reload
// bumps the generation and results for the old one are dropped.
// Enrichment progress flows through a channel from the WatchlistEngine and is shown in the status line,
// which also reports every failed operation.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
