// Package main is the entry point for the dive CLI tool.
package main

import (
	"os"

	"github.com/divehq/dive/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
