/*
main.go - Application entry point

PURPOSE:
  Runs the carecheck command line: the HTTP server and the one-shot checks.

COMMANDS:
  serve     HTTP API with upload storage
  verify    Schedule vs. attendance reconciliation
  times     Session length buckets
  vehicles  Vehicle double bookings

ENVIRONMENT:
  CARECHECK_DB, CARECHECK_PORT, LOG_LEVEL (see config/config.go)

EXAMPLES:
  # Serve with a file database
  carecheck serve --db ./data/carecheck.db

  # Verify a month from spreadsheets
  carecheck verify --master master.xlsx --schedule schedule.xlsx --attendance attendance.xlsx

SEE ALSO:
  - cli/root.go: Command wiring
*/
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/carecheck/attendance-engine/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, cli.ErrFindings) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
