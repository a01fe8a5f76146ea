package main

import (
	"os"

	"github.com/payme/contracts/cmd/paymectl/cmd"
)

// Payme contracts CLI
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
