// Package main is the entry point for the tvforge application.
package main

import (
	"os"

	"github.com/tvforge/tvforge/cmd/tvforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
