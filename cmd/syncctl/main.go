// Command syncctl runs taxonomy maintenance tasks from a shell: listing
// kinds, resolving attributes, sweeping stale runs, CSV import, xlsx
// export and issuing service tokens.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(defaultApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
