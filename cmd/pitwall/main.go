// Command pitwall answers racing series questions from a versioned
// rulebook and live parts/schedule data.
package main

import (
	"os"

	"github.com/custodia-labs/pitwall/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
