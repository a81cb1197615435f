// Package main provides the CLI for the ncdval value toolkit.
package main

import (
	"os"

	"github.com/zeroisme/badvpn/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
