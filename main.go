// musicapi is a REST service that looks up songs by title and records
// star ratings against them, backed by PostgreSQL. The ingest
// subcommand loads the song dataset the API serves.
package main

import (
	"fmt"
	"os"

	"github.com/prachisingh/musicapi/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
