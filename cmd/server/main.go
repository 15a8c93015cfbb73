/*
main.go - Application entry point

PURPOSE:
  Initializes and runs the affordable-housing compliance engine: an HTTP
  service plus a few one-shot commands over the same store and engine.

COMMANDS:
  serve    HTTP server with graceful shutdown
  import   Import a rent roll JSON document into the store
  report   Print a stored snapshot's compliance or verification report

GLOBAL FLAGS:
  --config     TOML config file (default: compliance.toml)
  --db         Database path, overrides config and COMPLIANCE_DB
               Use ":memory:" for an in-memory store
  --log-level  Log level, overrides config and LOG_LEVEL

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server serve --db ./data/compliance.db
  ./server import ./uploads/maple-2025-06.json
  ./server report --property maple-court --snapshot maple-2025-06

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Settings
*/
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
