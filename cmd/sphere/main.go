package main

import (
	"github.com/cloudsphere/sphere/cmd/sphere/cmd"
	"github.com/cloudsphere/sphere/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
