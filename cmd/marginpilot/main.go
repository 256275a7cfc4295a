package main

import (
	"os"

	"github.com/rustyeddy/marginpilot/cmd/marginpilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
