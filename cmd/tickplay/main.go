package main

import (
	"os"

	"github.com/rustyeddy/tickplay/cmd/tickplay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
