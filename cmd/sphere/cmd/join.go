package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudsphere/sphere/internal/call"
	"github.com/cloudsphere/sphere/internal/config"
	"github.com/cloudsphere/sphere/internal/media"
	"github.com/cloudsphere/sphere/internal/ui"
	"github.com/cloudsphere/sphere/internal/wordid"
)

var (
	flagServer   string
	flagDomain   string
	flagRoom     string
	flagName     string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
)

var joinCmd = &cobra.Command{
	Use:     "join [room-id]",
	Aliases: []string{"j"},
	Short:   "Join a call room",
	Long: `Join a call room on the signaling coordinator. Without a room id a new
room is created with a generated name.

Examples:
  sphere join
  sphere join brave-otter-creek
  sphere join --name Alice brave-otter-creek
  sphere join --server ws://localhost:8080/ws brave-otter-creek`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID := flagRoom
		if len(args) > 0 {
			roomID = args[0]
		}
		return joinRoom(roomID)
	},
}

func joinRoom(roomID string) error {
	cfg, err := config.LoadClient(config.ClientOptions{
		Domain:     flagDomain,
		ServerURL:  flagServer,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
	})
	if err != nil {
		return err
	}

	created := roomID == ""
	if created {
		roomID = wordid.Room()
	}
	localID := wordid.Participant()

	spinner := ui.NewConnectionSpinner("Connecting to coordinator...")
	spinner.Start()

	sess := call.NewSession(call.SessionParams{
		Config:      cfg,
		RoomID:      roomID,
		LocalID:     localID,
		DisplayName: flagName,
		Source:      media.None(),
	})

	if err := sess.Join(); err != nil {
		spinner.Stop()
		return err
	}
	spinner.Stop()

	if created {
		ui.PrintSuccessf("Created room %s", roomID)
	}
	fmt.Println(ui.NewRoomInfo(roomID, cfg.GetRoomLink(roomID)).View())
	fmt.Println()

	roster := ui.NewRoster(roomID, localID, ui.RosterCallbacks{
		ToggleMute:  sess.SetMuted,
		ToggleVideo: sess.SetVideoOff,
		Leave:       sess.Leave,
	})

	go func() {
		for ev := range sess.Events() {
			roster.Forward(ev)
		}
		roster.Quit()
	}()

	return roster.Run()
}

func init() {
	rootCmd.AddCommand(joinCmd)

	joinCmd.Flags().StringVarP(&flagServer, "server", "S", "", "Coordinator websocket URL")
	joinCmd.Flags().StringVarP(&flagDomain, "domain", "d", "", "Custom domain")
	joinCmd.Flags().StringVarP(&flagRoom, "room", "r", "", "Room id (same as the positional argument)")
	joinCmd.Flags().StringVarP(&flagName, "name", "n", "", "Display name shown to peers")
	joinCmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	joinCmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	joinCmd.Flags().StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username")
	joinCmd.Flags().StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password")
}
