// Command quickscout records match-scouting observations and submits them
// to the scouting backend, either from a terminal or through a browser page
// served over WebSocket.
package main

import (
	"fmt"
	"os"
)

var version = "dev" // set via ldflags during build

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
