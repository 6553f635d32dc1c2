package main

import (
	"os"

	"github.com/stockmatch/backend/cmd/matchctl/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
