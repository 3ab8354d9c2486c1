// Package main is the entry point for the aimpact CLI.
package main

import (
	"os"

	"github.com/f3rmion/aimpact/cmd/aimpact/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
