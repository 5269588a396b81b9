package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RosterRow is one participant line in the call roster.
type RosterRow struct {
	ID       string
	Name     string
	State    string
	Admin    bool
	Muted    bool
	VideoOff bool
}

// RosterView renders the participant roster using lipgloss/table.
func RosterView(rows []RosterRow) string {
	if len(rows) == 0 {
		return MutedStyle.Render("No one else is here yet")
	}

	headers := []string{"", "Participant", "Name", "Link", "Mic", "Cam"}

	var tableRows [][]string
	for _, r := range rows {
		role := ""
		if r.Admin {
			role = IconAdmin
		}
		mic := IconMic
		if r.Muted {
			mic = IconMicOff
		}
		cam := IconCamera
		if r.VideoOff {
			cam = IconCameraOff
		}
		name := r.Name
		if name == "" {
			name = MutedStyle.Render("-")
		}
		tableRows = append(tableRows, []string{role, r.ID, name, r.State, mic, cam})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(tableRows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// RoomInfo is the banner shown after joining a room.
type RoomInfo struct {
	RoomID   string
	RoomLink string
}

func NewRoomInfo(roomID, roomLink string) *RoomInfo {
	return &RoomInfo{
		RoomID:   roomID,
		RoomLink: roomLink,
	}
}

func (r *RoomInfo) View() string {
	content := fmt.Sprintf("%s Joined Room!\n\n%s Room ID:    %s\n%s Room Link:  %s",
		IconSuccess,
		IconCopy, BoldStyle.Foreground(Primary).Render(r.RoomID),
		IconWeb, MutedStyle.Render(r.RoomLink),
	)

	return SuccessBoxStyle.Render(content)
}
