package main

import (
	"fmt"
	"os"

	"github.com/xmercerweiss/jigwise/internal/commands"
)

var version = "dev"

func main() {
	if err := commands.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
