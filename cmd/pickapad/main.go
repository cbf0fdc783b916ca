// cmd/pickapad/main.go
//
// This is the entry point for the pickapad CLI.
// Running `pickapad` with no arguments opens the terminal UI; the
// subcommands cover the same flows for scripting.

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newCLI().execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
