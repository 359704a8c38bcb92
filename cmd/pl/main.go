// Package main is the entry point for the listing-desk CLI (pl).
package main

import (
	"fmt"
	"os"

	"github.com/evcraddock/listing-desk/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
