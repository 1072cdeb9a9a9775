// Package main is the entry point for the financas CLI and API server.
package main

import (
	"os"

	"financas/cmd/financas/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
