package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/muse/internal/history"
	"github.com/desertthunder/muse/internal/models"
	"github.com/desertthunder/muse/internal/player"
	"github.com/desertthunder/muse/internal/services"
	"github.com/desertthunder/muse/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PromptView ViewState = iota
	GenerateView
	PlayerView
	HistoryView
)

// Identity carries the identifiers stamped onto generation requests.
type Identity struct {
	UserID   string
	DeviceID string
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	session     *tasks.StreamSession
	coordinator *player.Coordinator
	historyLog  *history.Log
	identity    Identity
	width       int
	height      int
	promptInput textinput.Model
	spin        spinner.Model
	trackList   list.Model
	historyList list.Model
	progress    tasks.ProgressUpdate
	playlist    *models.PlaylistResponse
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, session *tasks.StreamSession, coordinator *player.Coordinator, historyLog *history.Log, identity Identity) *Model {
	input := textinput.New()
	input.Placeholder = "a rainy sunday afternoon with coffee"
	input.CharLimit = 280
	input.Width = 60
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.warn

	return &Model{
		ctx:         ctx,
		view:        PromptView,
		session:     session,
		coordinator: coordinator,
		historyLog:  historyLog,
		identity:    identity,
		promptInput: input,
		spin:        spin,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the cursor blink and the spinner tick.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.historyList.Width() == 0 {
			m.historyList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PromptView:
			return m.handlePromptKeys(msg)
		case GenerateView:
			return m.handleGenerateKeys(msg)
		case PlayerView:
			return m.handlePlayerKeys(msg)
		case HistoryView:
			return m.handleHistoryKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case generateUpdateMsg:
		return m.handleGenerateUpdate(tasks.ProgressUpdate(msg))

	case historyFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = PromptView
			return m, nil
		}
		items := make([]list.Item, len(msg.entries))
		for i, entry := range msg.entries {
			items[i] = historyItem{playlist: entry}
		}
		m.historyList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.historyList.Title = "Playlist History"
		m.historyList.SetSize(m.width-4, m.height-8)
		m.view = HistoryView
		return m, nil

	case historyDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		return m, m.fetchHistory()
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PromptView:
		return m.renderPrompt()
	case GenerateView:
		return m.renderGenerate()
	case PlayerView:
		return m.renderPlayer()
	case HistoryView:
		return m.renderHistory()
	default:
		return ""
	}
}

func (m *Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		prompt := m.promptInput.Value()
		if prompt == "" {
			return m, nil
		}
		m.err = nil
		req := services.GenerateRequest{
			Prompt:   prompt,
			DeviceID: m.identity.DeviceID,
			UserID:   m.identity.UserID,
		}
		if err := m.session.Submit(m.ctx, req); err != nil {
			m.err = err
			return m, nil
		}
		m.view = GenerateView
		return m, m.waitForUpdate()
	case "ctrl+h":
		return m, m.fetchHistory()
	}

	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(msg)
	return m, cmd
}

func (m *Model) handleGenerateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.session.Cancel()
		return m, tea.Quit
	case "esc":
		m.session.Cancel()
		m.err = nil
		m.view = PromptView
		return m, nil
	}
	return m, nil
}

func (m *Model) handlePlayerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected, ok := m.trackList.SelectedItem().(trackItem); ok {
			m.coordinator.Select(selected.track)
		}
		return m, nil
	case "n":
		m.coordinator.Next()
		return m, nil
	case "p":
		m.coordinator.Previous()
		return m, nil
	case "s":
		m.coordinator.Shuffle()
		m.rebuildTrackList()
		return m, nil
	case "h":
		return m, m.fetchHistory()
	case "r", "esc":
		m.promptInput.SetValue("")
		m.promptInput.Focus()
		m.err = nil
		m.view = PromptView
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.playlist != nil {
			m.view = PlayerView
		} else {
			m.view = PromptView
		}
		return m, nil
	case "enter":
		if selected, ok := m.historyList.SelectedItem().(historyItem); ok {
			entry := selected.playlist
			m.startPlayback(&entry)
		}
		return m, nil
	case "d":
		if m.identity.UserID == "" {
			m.err = fmt.Errorf("sign in to delete history entries")
			return m, nil
		}
		index := m.historyList.Index()
		return m, m.deleteHistoryEntry(index)
	}

	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

func (m *Model) handleGenerateUpdate(update tasks.ProgressUpdate) (tea.Model, tea.Cmd) {
	m.progress = update

	switch update.Phase {
	case tasks.Done:
		m.startPlayback(update.Playlist)
		if m.historyLog != nil {
			m.historyLog.Record(m.identity.DeviceID, update.Playlist)
		}
		return m, nil
	case tasks.Errored:
		m.err = update.Err
		return m, nil
	case tasks.Cancelled:
		return m, nil
	}

	return m, m.waitForUpdate()
}

// startPlayback swaps the coordinator onto a playlist and shows the player.
func (m *Model) startPlayback(playlist *models.PlaylistResponse) {
	if playlist == nil {
		return
	}
	m.playlist = playlist

	var current *models.Track
	for i := range playlist.Tracks {
		if playlist.Tracks[i].Playable() {
			current = &playlist.Tracks[i]
			break
		}
	}
	m.coordinator.SetPlaylist(playlist.Tracks, current)
	m.rebuildTrackList()
	m.err = nil
	m.view = PlayerView
}

func (m *Model) rebuildTrackList() {
	tracks := m.coordinator.Playlist()
	items := make([]list.Item, len(tracks))
	for i, track := range tracks {
		items[i] = trackItem{track: track}
	}
	title := "Tracks"
	if m.playlist != nil {
		title = fmt.Sprintf("Tracks in '%s'", m.playlist.Title())
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = title
	m.trackList.SetSize(m.width-4, m.height-8)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PromptView:
		m.promptInput, cmd = m.promptInput.Update(msg)
	case PlayerView:
		m.trackList, cmd = m.trackList.Update(msg)
	case HistoryView:
		m.historyList, cmd = m.historyList.Update(msg)
	}
	return m, cmd
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		return generateUpdateMsg(<-m.session.Updates())
	}
}

func (m *Model) fetchHistory() tea.Cmd {
	return func() tea.Msg {
		if m.identity.UserID != "" {
			err := m.historyLog.Load(m.ctx, m.identity.UserID)
			return historyFetchedMsg{entries: m.historyLog.Entries(), err: err}
		}
		err := m.historyLog.LoadDevice(m.ctx, m.identity.DeviceID)
		return historyFetchedMsg{entries: m.historyLog.Entries(), err: err}
	}
}

func (m *Model) deleteHistoryEntry(index int) tea.Cmd {
	return func() tea.Msg {
		return historyDeletedMsg{err: m.historyLog.DeleteAt(m.ctx, m.identity.UserID, index)}
	}
}

func (m *Model) renderPrompt() string {
	title := styles.title.Render("What's the mood?")

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(fmt.Sprintf("\n%v\n", m.err))
	}

	helpView := styles.help.Render("enter generate • ctrl+h history • ctrl+c quit")
	return fmt.Sprintf("%s\n%s\n%s\n%s", title, m.promptInput.View(), errLine, helpView)
}

func (m *Model) renderGenerate() string {
	title := styles.title.Render("Generating Playlist")

	narrative := styles.narrative.Render(m.session.Narrative())
	status := m.session.Status()

	if m.err != nil {
		failed := styles.err.Render(fmt.Sprintf("Generation failed: %v", m.err))
		helpView := styles.help.Render("esc back • q quit")
		return fmt.Sprintf("%s\n%s\n\n%s", title, failed, helpView)
	}

	var statusLine string
	if status != "" {
		statusLine = m.spin.View() + styles.warn.Render(status)
	} else {
		statusLine = m.spin.View()
	}

	helpView := styles.help.Render("esc cancel • q quit")
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, narrative, statusLine, helpView)
}

func (m *Model) renderPlayer() string {
	var nowPlaying string
	if current := m.coordinator.Current(); current != nil {
		position := ""
		if idx := m.coordinator.Position(); idx >= 0 {
			position = fmt.Sprintf(" (%d/%d)", idx+1, len(m.coordinator.Playlist()))
		}
		nowPlaying = styles.ok.Render(fmt.Sprintf("▶ %s - %s%s", current.Artist, current.Title, position))
	} else {
		nowPlaying = styles.help.Render("Nothing playing. Select a track to start.")
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.next, m.keys.prev, m.keys.shuffle, m.keys.history, m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s\n%s", m.trackList.View(), nowPlaying, helpView)
}

func (m *Model) renderHistory() string {
	deleteKey := key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	helpKeys := []key.Binding{m.keys.enter, deleteKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(fmt.Sprintf("%v\n", m.err))
	}

	return fmt.Sprintf("%s\n\n%s%s", m.historyList.View(), errLine, helpView)
}
