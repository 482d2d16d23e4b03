package main

import (
	"os"

	"github.com/rustyeddy/fibrange/cmd/fibrange/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
