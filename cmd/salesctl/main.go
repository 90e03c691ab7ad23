// Command salesctl runs one-off operations against the configured sales store:
// bulk weekly imports, resets, and daily entry maintenance.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
