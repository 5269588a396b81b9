package ui

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cloudsphere/sphere/internal/call"
)

// RosterCallbacks connects key presses in the roster view to the session.
type RosterCallbacks struct {
	ToggleMute  func(muted bool)
	ToggleVideo func(off bool)
	Leave       func()
}

// Roster is the live in-call view: a table of participants with their link
// and media state, updated from session events.
type Roster struct {
	program *tea.Program
	model   *rosterModel
	wg      sync.WaitGroup
}

type rosterPeer struct {
	id       string
	name     string
	state    string
	admin    bool
	muted    bool
	videoOff bool
}

type rosterModel struct {
	roomID    string
	localID   string
	callbacks RosterCallbacks

	peers   map[string]*rosterPeer
	spinner spinner.Model

	localAdmin    bool
	localMuted    bool
	localVideoOff bool
	notice        string
	quitting      bool
}

// NewRoster builds the roster view for one call.
func NewRoster(roomID, localID string, callbacks RosterCallbacks) *Roster {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	model := &rosterModel{
		roomID:    roomID,
		localID:   localID,
		callbacks: callbacks,
		peers:     make(map[string]*rosterPeer),
		spinner:   s,
	}

	// Default inline mode keeps earlier terminal output (the room banner)
	// visible above the live view.
	return &Roster{
		model:   model,
		program: tea.NewProgram(model),
	}
}

// Run blocks until the view quits.
func (r *Roster) Run() error {
	r.wg.Add(1)
	defer r.wg.Done()
	_, err := r.program.Run()
	return err
}

// Forward delivers a session event to the view.
func (r *Roster) Forward(ev call.Event) {
	r.program.Send(ev)
}

// Quit stops the view and waits for Run to return.
func (r *Roster) Quit() {
	r.program.Quit()
	r.wg.Wait()
}

func (m *rosterModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *rosterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.callbacks.Leave != nil {
				m.callbacks.Leave()
			}
			return m, tea.Quit

		case "m":
			m.localMuted = !m.localMuted
			if m.callbacks.ToggleMute != nil {
				m.callbacks.ToggleMute(m.localMuted)
			}

		case "v":
			m.localVideoOff = !m.localVideoOff
			if m.callbacks.ToggleVideo != nil {
				m.callbacks.ToggleVideo(m.localVideoOff)
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case call.Event:
		m.apply(msg)
	}

	return m, nil
}

func (m *rosterModel) apply(ev call.Event) {
	switch ev.Kind {
	case call.EventPeerAdded:
		m.peer(ev.Remote)

	case call.EventPeerRemoved:
		delete(m.peers, ev.Remote)
		m.notice = fmt.Sprintf("%s left", ev.Remote)

	case call.EventLinkState:
		m.peer(ev.Remote).state = ev.State.String()

	case call.EventPeerState:
		p := m.peer(ev.Remote)
		p.name = ev.Peer.Name
		p.muted = ev.Peer.Muted
		p.videoOff = ev.Peer.VideoOff
		p.admin = ev.Peer.Admin

	case call.EventAdminAssigned:
		m.localAdmin = true
		m.notice = "You are now the room admin"

	case call.EventAdminCommand:
		if ev.Command != nil {
			m.notice = fmt.Sprintf("Admin asked you to %s", ev.Command.Command)
			if ev.Command.Command == "mute" {
				m.localMuted = true
				if m.callbacks.ToggleMute != nil {
					m.callbacks.ToggleMute(true)
				}
			}
		}

	case call.EventError:
		if ev.Err != nil {
			m.notice = ev.Err.Error()
		}
	}
}

func (m *rosterModel) peer(id string) *rosterPeer {
	p, ok := m.peers[id]
	if !ok {
		p = &rosterPeer{id: id, state: "connecting"}
		m.peers[id] = p
	}
	return p
}

func (m *rosterModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := fmt.Sprintf("%s Room %s", IconRoom, m.roomID)
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	self := fmt.Sprintf("%s %s", IconPeer, m.localID)
	if m.localAdmin {
		self = IconAdmin + " " + self
	}
	if m.localMuted {
		self += " " + IconMicOff
	}
	if m.localVideoOff {
		self += " " + IconCameraOff
	}
	b.WriteString(self + "\n\n")

	if len(m.peers) == 0 {
		b.WriteString(fmt.Sprintf("%s %s Waiting for others to join...\n", m.spinner.View(), IconWaiting))
	} else {
		b.WriteString(RosterView(m.rows()))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + WarningStyle.Render(IconWarning+" "+m.notice) + "\n")
	}

	b.WriteString(FooterStyle.Render("m mute · v video · q leave"))

	return b.String()
}

func (m *rosterModel) rows() []RosterRow {
	ids := make([]string, 0, len(m.peers))
	for id := range m.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([]RosterRow, 0, len(ids))
	for _, id := range ids {
		p := m.peers[id]
		rows = append(rows, RosterRow{
			ID:       p.id,
			Name:     p.name,
			State:    p.state,
			Admin:    p.admin,
			Muted:    p.muted,
			VideoOff: p.videoOff,
		})
	}
	return rows
}
