package main

import (
	"os"

	"github.com/parlachat/client-go/cmd/parlachat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
