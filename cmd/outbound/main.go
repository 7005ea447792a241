// Package main is the entry point for the outbound CLI.
package main

import (
	"fmt"
	"os"

	"github.com/leadwire/outbound/cmd/outbound/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
