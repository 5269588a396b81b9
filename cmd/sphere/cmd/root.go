package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/cloudsphere/sphere/internal/ui"
	"github.com/cloudsphere/sphere/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "sphere",
	Short:   "Multi-party video calls from the terminal using WebRTC",
	Long:    `Sphere is a command-line client for multi-party WebRTC calls. It connects to a signaling coordinator, negotiates a direct peer connection with every other participant in the room, and keeps the call running with no media ever touching the server.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
