package ui

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/wlx/internal/browse"
	"github.com/desertthunder/wlx/internal/models"
	"github.com/desertthunder/wlx/internal/tasks"
)

// InputMode is what keystrokes currently drive.
type InputMode int

const (
	BrowseMode InputMode = iota
	SearchMode
	AskMode
	AnswerMode
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	engine  *tasks.WatchlistEngine
	session *tasks.Session
	logger  *log.Logger
	now     func() time.Time

	view      *browse.View
	entries   []models.Entry
	facets    browse.Facets
	page      browse.Page
	cursor    int
	selection *models.SelectionSet

	mode    InputMode
	input   textinput.Model
	query   string
	answers []models.Entry

	gen       int
	loading   bool
	status    string
	statusErr bool

	changes      chan []models.Entry
	unsubscribe  func()
	progressChan chan tasks.ProgressUpdate
	enrichDone   chan Msg
	progress     tasks.ProgressUpdate

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates a new TUI model browsing the session's list through view.
func NewModel(ctx context.Context, engine *tasks.WatchlistEngine, session *tasks.Session, view *browse.View, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	input := textinput.New()
	input.CharLimit = 200

	return &Model{
		ctx:       ctx,
		engine:    engine,
		session:   session,
		logger:    logger,
		now:       time.Now,
		view:      view,
		selection: models.NewSelectionSet(),
		input:     input,
		changes:   make(chan []models.Entry, 8),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init subscribes to list changes and loads the list.
func (m *Model) Init() tea.Cmd {
	m.unsubscribe = m.session.Subscribe(func(items []models.Entry) {
		select {
		case m.changes <- items:
		default:
			m.logger.Warn("dropping list change, consumer is behind", "items", len(items))
		}
	})
	return tea.Batch(m.load(), m.waitForChange())
}

// Close drops the session subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-12, 10)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case SearchMode, AskMode:
			return m.handleInputKeys(msg)
		case AnswerMode:
			return m.handleAnswerKeys(msg)
		default:
			return m.handleBrowseKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgListLoaded:
		if msg.gen != m.gen {
			m.logger.Debug("discarding stale load", "gen", msg.gen, "current", m.gen)
			return m, nil
		}
		data := msg.data.(loadedData)
		m.loading = false
		if data.err != nil {
			m.setError("Could not load watchlist", data.err)
			return m, nil
		}
		m.setEntries(data.items)
		m.setStatus(fmt.Sprintf("Loaded %d entries", len(data.items)))
		return m, nil

	case MsgListChanged:
		m.setEntries(msg.data.([]models.Entry))
		return m, m.waitForChange()

	case MsgMutated:
		data := msg.data.(mutatedData)
		if data.err != nil {
			m.setError(data.label+" failed", data.err)
			return m, nil
		}
		if data.result.Written {
			m.setEntries(data.result.Items)
			if data.bulk {
				m.selection.Clear()
			}
			m.setStatus(data.label)
		} else {
			m.setStatus(data.label + ": nothing to change")
		}
		return m, nil

	case MsgAskAnswered:
		if msg.gen != m.gen {
			m.logger.Debug("discarding stale answer", "gen", msg.gen, "current", m.gen)
			return m, nil
		}
		data := msg.data.(askData)
		m.loading = false
		if data.err != nil {
			m.setError("Ask failed", data.err)
			return m, nil
		}
		m.query = data.query
		m.answers = data.matches
		m.cursor = 0
		m.mode = AnswerMode
		m.setStatus(fmt.Sprintf("%d matches", len(data.matches)))
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		m.setStatus(m.progress.Message)
		return m, m.waitForProgress()

	case MsgEnrichComplete:
		data := msg.data.(enrichData)
		m.loading = false
		m.progressChan, m.enrichDone = nil, nil
		if data.err != nil {
			m.setError("Enrichment failed", data.err)
			return m, nil
		}
		if data.result.Updated > 0 {
			m.setEntries(data.result.Items)
		}
		m.setStatus(fmt.Sprintf("Enriched %d of %d entries", data.result.Updated, data.result.Pending))
		return m, nil
	}
	return m, nil
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.down):
		m.cursor = min(m.cursor+1, max(len(m.page.Items)-1, 0))
	case key.Matches(msg, m.keys.nextPage):
		if m.page.Number < m.page.Pages {
			m.view.NextPage()
			m.cursor = 0
			m.refresh()
		}
	case key.Matches(msg, m.keys.prevPage):
		m.view.PrevPage()
		m.cursor = 0
		m.refresh()
	case key.Matches(msg, m.keys.toggle):
		if e, ok := m.current(); ok {
			return m, m.mutate("Toggled "+e.Title, false, tasks.ToggleSeen(e.ID))
		}
	case key.Matches(msg, m.keys.remove):
		if e, ok := m.current(); ok {
			return m, m.mutate("Removed "+e.Title, false, tasks.Remove(e.ID))
		}
	case key.Matches(msg, m.keys.sel):
		if e, ok := m.current(); ok {
			m.selection.Toggle(e.ID)
		}
	case key.Matches(msg, m.keys.selPage):
		for _, e := range m.page.Items {
			m.selection.Add(e.ID)
		}
	case key.Matches(msg, m.keys.bulkSeen):
		return m, m.bulk(true, false)
	case key.Matches(msg, m.keys.bulkUnsee):
		return m, m.bulk(false, false)
	case key.Matches(msg, m.keys.bulkDrop):
		return m, m.bulk(false, true)
	case key.Matches(msg, m.keys.search):
		return m, m.startInput(SearchMode, "search: ", m.view.Filter().Search)
	case key.Matches(msg, m.keys.ask):
		return m, m.startInput(AskMode, "ask: ", "")
	case key.Matches(msg, m.keys.hideSeen):
		m.view.UpdateFilter(func(f *browse.FilterState) { f.HideSeen = !f.HideSeen })
		m.filterChanged()
	case key.Matches(msg, m.keys.sort):
		m.setSort(nextSortMode(m.view.Sort()))
	case key.Matches(msg, m.keys.pageSize):
		m.setPageSize(nextPageSize(m.view.PageSize()))
	case key.Matches(msg, m.keys.clear):
		m.view.ClearFilter()
		m.filterChanged()
	case key.Matches(msg, m.keys.genre):
		g := nextFacet(m.facets.Genres, firstOf(m.view.Filter().Genres))
		m.updateFilter("Genre", g, func(f *browse.FilterState) { f.Genres = listOf(g) })
	case key.Matches(msg, m.keys.kind):
		t := nextFacet(m.facets.Types, firstOf(m.view.Filter().Types))
		m.updateFilter("Type", t, func(f *browse.FilterState) { f.Types = listOf(t) })
	case key.Matches(msg, m.keys.decade):
		d := nextFacet(m.facets.Decades, m.view.Filter().Decade)
		m.updateFilter("Decade", decadeLabel(d), func(f *browse.FilterState) { f.Decade = d })
	case key.Matches(msg, m.keys.rating):
		r := nextFacet(ratingSteps, m.view.Filter().MinRating)
		m.updateFilter("Min rating", ratingLabel(r), func(f *browse.FilterState) { f.MinRating = r })
	case key.Matches(msg, m.keys.release):
		current := m.view.Filter().Release
		if current == browse.ReleaseAll {
			current = ""
		}
		r := nextFacet(releaseSteps, current)
		m.updateFilter("Release", string(r), func(f *browse.FilterState) { f.Release = r })
	case key.Matches(msg, m.keys.recent):
		on := !m.view.Filter().RecentOnly
		label := ""
		if on {
			label = "last 30 days"
		}
		m.updateFilter("Added", label, func(f *browse.FilterState) { f.RecentOnly = on })
	case key.Matches(msg, m.keys.enrich):
		return m, m.startEnrich()
	case key.Matches(msg, m.keys.reload):
		return m, m.load()
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.mode = BrowseMode
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.submit):
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = BrowseMode
		m.input.Blur()
		if mode == AskMode {
			return m, m.ask(value)
		}
		m.view.UpdateFilter(func(f *browse.FilterState) { f.Search = value })
		m.filterChanged()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleAnswerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.mode = BrowseMode
		m.answers = nil
		m.cursor = 0
	case key.Matches(msg, m.keys.up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.down):
		m.cursor = min(m.cursor+1, max(len(m.answers)-1, 0))
	}
	return m, nil
}

// View renders the UI based on the current input mode.
func (m *Model) View() string {
	var b strings.Builder

	owner := "sample list"
	if !m.session.Anonymous() {
		owner = m.session.Owner.Name
		if owner == "" {
			owner = m.session.Owner.Email
		}
	}
	b.WriteString(styles.title.Render("Watchlist · " + owner))
	b.WriteString("\n")

	if m.mode == AnswerMode {
		b.WriteString(m.renderAnswers())
	} else {
		b.WriteString(m.renderPage())
	}

	b.WriteString("\n")
	if m.mode == SearchMode || m.mode == AskMode {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m *Model) renderPage() string {
	var b strings.Builder
	b.WriteString(m.renderSummary())
	b.WriteString("\n\n")

	if len(m.page.Items) == 0 {
		if m.loading {
			b.WriteString(styles.dim.Render("Loading..."))
		} else {
			b.WriteString(styles.dim.Render("No entries match."))
		}
		b.WriteString("\n")
		return b.String()
	}

	for _, row := range rows(m.page.Items, m.cursor, m.selection) {
		b.WriteString(row.Render())
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderSummary() string {
	parts := []string{
		fmt.Sprintf("%d of %d", m.page.Matched, m.page.Total),
		fmt.Sprintf("page %d/%d", m.page.Number, max(m.page.Pages, 1)),
		"sort: " + m.view.Sort().String(),
		fmt.Sprintf("%d per page", m.view.PageSize()),
	}
	f := m.view.Filter()
	if f.Search != "" {
		parts = append(parts, fmt.Sprintf("search: %q", f.Search))
	}
	if len(f.Genres) > 0 {
		parts = append(parts, "genre: "+strings.Join(f.Genres, ", "))
	}
	if len(f.Types) > 0 {
		parts = append(parts, "type: "+strings.Join(f.Types, ", "))
	}
	if f.Decade != 0 {
		parts = append(parts, decadeLabel(f.Decade))
	}
	if f.MinRating != 0 {
		parts = append(parts, "rating "+ratingLabel(f.MinRating))
	}
	if f.Release != "" && f.Release != browse.ReleaseAll {
		parts = append(parts, string(f.Release))
	}
	if f.RecentOnly {
		parts = append(parts, "recently added")
	}
	if f.HideSeen {
		parts = append(parts, "hiding seen")
	}
	if n := m.selection.Len(); n > 0 {
		parts = append(parts, styles.selected.Render(fmt.Sprintf("%d selected", n)))
	}
	summary := styles.dim.Render(strings.Join(parts, " · "))
	if m.help.ShowAll {
		summary += "\n" + m.renderFacets()
	}
	return summary
}

// renderFacets lists the values the facet keys cycle through.
func (m *Model) renderFacets() string {
	decades := make([]string, len(m.facets.Decades))
	for i, d := range m.facets.Decades {
		decades[i] = decadeLabel(d)
	}
	parts := []string{
		"genres: " + orNone(m.facets.Genres),
		"types: " + orNone(m.facets.Types),
		"decades: " + orNone(decades),
	}
	return styles.dim.Render(strings.Join(parts, " · "))
}

func (m *Model) renderAnswers() string {
	var b strings.Builder
	b.WriteString(styles.dim.Render(fmt.Sprintf("Answers for %q", m.query)))
	b.WriteString("\n\n")
	if len(m.answers) == 0 {
		b.WriteString(styles.dim.Render("Nothing in the list matched."))
		b.WriteString("\n")
	}
	for _, row := range rows(m.answers, m.cursor, m.selection) {
		b.WriteString(row.Render())
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return styles.err.Render(m.status)
	}
	return styles.ok.Render(m.status)
}

func (m *Model) renderHelp() string {
	switch m.mode {
	case SearchMode, AskMode:
		return m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.back})
	case AnswerMode:
		return m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.back, m.keys.quit})
	}
	return m.help.View(m.keys)
}

// setEntries replaces the full list and re-renders the current page.
func (m *Model) setEntries(items []models.Entry) {
	m.entries = items
	m.facets = browse.CollectFacets(items)
	m.refresh()
}

// updateFilter applies fn and reports the facet's new value; an empty value
// means the facet was switched off.
func (m *Model) updateFilter(facet, value string, fn func(f *browse.FilterState)) {
	m.view.UpdateFilter(fn)
	m.filterChanged()
	if value == "" {
		m.setStatus(facet + ": any")
		return
	}
	m.setStatus(facet + ": " + value)
}

func (m *Model) setSort(mode browse.SortMode) {
	if err := m.view.SetSort(mode); err != nil {
		m.setError("Sort failed", err)
		return
	}
	m.cursor = 0
	m.refresh()
	m.setStatus("Sorted by " + m.view.Sort().String())
}

func (m *Model) setPageSize(size int) {
	if err := m.view.SetPageSize(size); err != nil {
		m.setError("Page size failed", err)
		return
	}
	m.cursor = 0
	m.refresh()
	m.setStatus(fmt.Sprintf("%d per page", m.view.PageSize()))
}

func (m *Model) refresh() {
	m.page = m.view.Apply(m.entries, m.now())
	m.cursor = min(m.cursor, max(len(m.page.Items)-1, 0))
}

// filterChanged invalidates in-flight results computed for the previous view.
func (m *Model) filterChanged() {
	m.gen++
	m.cursor = 0
	m.refresh()
}

func (m *Model) current() (models.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.page.Items) {
		return models.Entry{}, false
	}
	return m.page.Items[m.cursor], true
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(prefix string, err error) {
	m.logger.Error(prefix, "error", err)
	m.status = fmt.Sprintf("%s: %v", prefix, err)
	m.statusErr = true
}

func (m *Model) startInput(mode InputMode, prompt, value string) tea.Cmd {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) load() tea.Cmd {
	m.gen++
	m.loading = true
	gen := m.gen
	return func() tea.Msg {
		items, err := m.engine.Load(m.ctx, m.session)
		return listLoadedMsg(gen, items, err)
	}
}

func (m *Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		return listChangedMsg(<-changes)
	}
}

func (m *Model) mutate(label string, bulk bool, op tasks.Op) tea.Cmd {
	return func() tea.Msg {
		result, err := m.engine.Mutate(m.ctx, m.session, op)
		return mutatedMsg(label, bulk, result, err)
	}
}

// bulk applies seen or remove to the selection. The op gets a copy so the
// command goroutine never touches the model's set.
func (m *Model) bulk(seen, remove bool) tea.Cmd {
	if m.selection.Len() == 0 {
		m.setStatus("Nothing selected")
		return nil
	}
	sel := models.NewSelectionSet(m.selection.IDs()...)
	switch {
	case remove:
		return m.mutate(fmt.Sprintf("Removed %d entries", sel.Len()), true, tasks.RemoveAll(sel))
	case seen:
		return m.mutate(fmt.Sprintf("Marked %d entries seen", sel.Len()), true, tasks.SetSeen(sel, true))
	default:
		return m.mutate(fmt.Sprintf("Marked %d entries unseen", sel.Len()), true, tasks.SetSeen(sel, false))
	}
}

func (m *Model) ask(query string) tea.Cmd {
	if query == "" {
		return nil
	}
	m.gen++
	m.loading = true
	gen := m.gen
	entries := browse.Filter(m.entries, m.view.Filter(), m.now())
	m.setStatus("Asking...")
	return func() tea.Msg {
		matches, err := m.engine.Ask(m.ctx, entries, query)
		return askAnsweredMsg(gen, query, matches, err)
	}
}

func (m *Model) startEnrich() tea.Cmd {
	if m.progressChan != nil {
		return nil
	}
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan, m.enrichDone = progress, done
	m.loading = true
	m.setStatus("Enriching...")

	go func() {
		result, err := m.engine.Enrich(m.ctx, m.session, progress)
		done <- enrichCompleteMsg(result, err)
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.enrichDone
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func nextSortMode(mode browse.SortMode) browse.SortMode {
	i := slices.Index(browse.SortModes, mode)
	return browse.SortModes[(i+1)%len(browse.SortModes)]
}

func nextPageSize(size int) int {
	i := slices.Index(browse.PageSizes, size)
	return browse.PageSizes[(i+1)%len(browse.PageSizes)]
}

var (
	ratingSteps  = []float64{6, 7, 8, 9}
	releaseSteps = []browse.ReleaseStatus{browse.ReleaseReleased, browse.ReleaseUnreleased}
)

// nextFacet steps from off through values and back to off (the zero value).
// A current value no longer in values switches the facet off.
func nextFacet[T comparable](values []T, current T) T {
	var off T
	if current == off {
		if len(values) > 0 {
			return values[0]
		}
		return off
	}
	i := slices.Index(values, current)
	if i < 0 || i+1 >= len(values) {
		return off
	}
	return values[i+1]
}

func firstOf(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func listOf(value string) []string {
	if value == "" {
		return nil
	}
	return []string{value}
}

func decadeLabel(d int) string {
	if d == 0 {
		return ""
	}
	return fmt.Sprintf("%ds", d)
}

func ratingLabel(r float64) string {
	if r == 0 {
		return ""
	}
	return fmt.Sprintf("≥ %g", r)
}

func orNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
