package main

import (
	"os"

	"github.com/rustyeddy/mcfolio/cmd/mcfolio/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
