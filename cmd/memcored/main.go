// Package main provides the entry point for the memcored CLI.
package main

import (
	"os"

	"github.com/vericore/memcore/cmd/memcored/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
