// Package main provides the entry point for the notesearch CLI.
package main

import (
	"os"

	"github.com/notesearch/notesearch/cmd/notesearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
