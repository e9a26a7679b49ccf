package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/ocast/pkg/discovery"
	"github.com/muurk/ocast/pkg/upnp"
)

// maxActivity is the number of activity lines kept on screen
const maxActivity = 8

// WatchControl is the part of a discovery engine the watch screen drives.
type WatchControl interface {
	Resume() (bool, error)
	Pause() bool
}

// WatchEvent is one discovery notification forwarded to the watch screen.
type WatchEvent struct {
	Added   []upnp.Device
	Removed []upnp.Device
	Stopped bool
	Err     error
}

// watchClosedMsg is sent when the feed channel is closed
type watchClosedMsg struct{}

// NewWatchFeed returns a channel of discovery events and the observer that
// fills it. The observer blocks when the channel is full.
func NewWatchFeed(buffer int) (chan WatchEvent, discovery.Observer) {
	ch := make(chan WatchEvent, buffer)
	obs := discovery.ObserverFuncs{
		Added:   func(d []upnp.Device) { ch <- WatchEvent{Added: d} },
		Removed: func(d []upnp.Device) { ch <- WatchEvent{Removed: d} },
		Stopped: func(err error) { ch <- WatchEvent{Stopped: true, Err: err} },
	}
	return ch, obs
}

func waitForEvent(ch <-chan WatchEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return watchClosedMsg{}
		}
		return ev
	}
}

// watchKeyMap defines key bindings for the watch screen
type watchKeyMap struct {
	Rescan key.Binding
	Pause  key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Rescan, k.Pause, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Rescan, k.Pause},
		{k.Help, k.Quit},
	}
}

func newWatchKeyMap() watchKeyMap {
	return watchKeyMap{
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rescan"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause/resume"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// WatchModel is the live receiver list shown by "ocast watch".
type WatchModel struct {
	Devices  map[string]upnp.Device
	Activity []string
	Paused   bool
	Stopped  bool
	Err      error

	Width   int
	Spinner spinner.Model
	Help    help.Model
	Keys    watchKeyMap

	control WatchControl
	events  <-chan WatchEvent
}

// NewWatchModel creates a watch screen fed by events and driving control.
func NewWatchModel(control WatchControl, events <-chan WatchEvent) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return WatchModel{
		Devices: make(map[string]upnp.Device),
		Width:   GetTerminalWidth(),
		Spinner: s,
		Help:    help.New(),
		Keys:    newWatchKeyMap(),
		control: control,
		events:  events,
	}
}

// Init starts the spinner and the event feed
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, waitForEvent(m.events))
}

// Update handles messages for the watch screen
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Help):
			m.Help.ShowAll = !m.Help.ShowAll
		case key.Matches(msg, m.Keys.Pause):
			m = m.togglePause()
		case key.Matches(msg, m.Keys.Rescan):
			m = m.rescan()
		}
		return m, nil

	case WatchEvent:
		m = m.apply(msg)
		return m, waitForEvent(m.events)

	case watchClosedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m WatchModel) togglePause() WatchModel {
	if m.Paused || m.Stopped {
		if _, err := m.control.Resume(); err != nil {
			m.Err = err
			return m
		}
		m.Paused, m.Stopped, m.Err = false, false, nil
		m = m.log("discovery resumed")
		return m
	}
	if m.control.Pause() {
		m.Paused = true
		m = m.log("discovery paused")
	}
	return m
}

// rescan restarts the search session so every receiver is probed at once
func (m WatchModel) rescan() WatchModel {
	m.control.Pause()
	if _, err := m.control.Resume(); err != nil {
		m.Err = err
		return m
	}
	m.Paused, m.Stopped, m.Err = false, false, nil
	return m.log("rescanning")
}

func (m WatchModel) apply(ev WatchEvent) WatchModel {
	for _, d := range ev.Added {
		m.Devices[d.ID] = d
		m = m.log(fmt.Sprintf("%s %s", AddedMarker, d.FriendlyName))
	}
	for _, d := range ev.Removed {
		delete(m.Devices, d.ID)
		m = m.log(fmt.Sprintf("%s %s", RemovedMarker, d.FriendlyName))
	}
	if ev.Stopped {
		m.Stopped = true
		m.Err = ev.Err
		if ev.Err != nil {
			m = m.log("discovery stopped: " + ev.Err.Error())
		} else {
			m = m.log("discovery stopped")
		}
	}
	return m
}

func (m WatchModel) log(line string) WatchModel {
	m.Activity = append(m.Activity, line)
	if len(m.Activity) > maxActivity {
		m.Activity = m.Activity[len(m.Activity)-maxActivity:]
	}
	return m
}

// SortedDevices returns the known receivers ordered by name then id
func (m WatchModel) SortedDevices() []upnp.Device {
	out := make([]upnp.Device, 0, len(m.Devices))
	for _, d := range m.Devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FriendlyName != out[j].FriendlyName {
			return out[i].FriendlyName < out[j].FriendlyName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// View renders the watch screen
func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(RenderHeader("Receivers", "ocast watch", nil, m.Width))
	b.WriteString("\n\n")

	switch {
	case m.Stopped:
		b.WriteString(ErrorTitleStyle.Render("  Stopped"))
	case m.Paused:
		b.WriteString(PausedStyle.Render("  Paused"))
	default:
		b.WriteString("  " + m.Spinner.View() + StatusStyle.Render(" Searching for receivers..."))
	}
	if m.Err != nil {
		b.WriteString("  " + ErrorMessageStyle.Render(m.Err.Error()))
	}
	b.WriteString("\n\n")

	devices := m.SortedDevices()
	if len(devices) == 0 {
		b.WriteString(StatusStyle.Render("  No receiver found yet"))
		b.WriteString("\n")
	}
	for _, d := range devices {
		b.WriteString("  " + RenderDeviceLine(SuccessMarker, d, false) + "\n")
	}

	if len(m.Activity) > 0 {
		b.WriteString("\n")
		for _, line := range m.Activity {
			b.WriteString(ReceiverDetailStyle.Render("  "+line) + "\n")
		}
	}

	b.WriteString("\n" + m.Help.View(m.Keys))
	return b.String()
}
