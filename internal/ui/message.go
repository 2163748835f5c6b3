package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
//
// gen is the view generation the command was started for. Load and ask results
// from an older generation are dropped.
type Msg struct {
	kind MsgKind
	gen  int
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgListLoaded MsgKind = iota
	MsgListChanged
	MsgMutated
	MsgAskAnswered
	MsgProgressUpdate
	MsgEnrichComplete
)

type loadedData struct {
	items []models.Entry
	err   error
}

type mutatedData struct {
	label  string
	result *tasks.MutationResult
	bulk   bool
	err    error
}

type askData struct {
	query   string
	matches []models.Entry
	err     error
}

type enrichData struct {
	result *tasks.EnrichResult
	err    error
}

// listLoadedMsg is the constructor for [MsgListLoaded]
func listLoadedMsg(gen int, items []models.Entry, err error) Msg {
	return Msg{kind: MsgListLoaded, gen: gen, data: loadedData{items, err}}
}

// listChangedMsg is the constructor for [MsgListChanged], sent by the session subscription.
func listChangedMsg(items []models.Entry) Msg {
	return Msg{kind: MsgListChanged, data: items}
}

// mutatedMsg is the constructor for [MsgMutated]
func mutatedMsg(label string, bulk bool, result *tasks.MutationResult, err error) Msg {
	return Msg{kind: MsgMutated, data: mutatedData{label: label, result: result, bulk: bulk, err: err}}
}

// askAnsweredMsg is the constructor for [MsgAskAnswered]
func askAnsweredMsg(gen int, query string, matches []models.Entry, err error) Msg {
	return Msg{kind: MsgAskAnswered, gen: gen, data: askData{query, matches, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// enrichCompleteMsg is the constructor for [MsgEnrichComplete]
func enrichCompleteMsg(result *tasks.EnrichResult, err error) Msg {
	return Msg{kind: MsgEnrichComplete, data: enrichData{result, err}}
}
