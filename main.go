// =============================================================================
// Sales Analytics - Main Entry Point
// =============================================================================
//
// USAGE:
//   sales-analytics process        - Run the pipeline over the sales export
//   sales-analytics validate       - Validate and print the configuration
//   sales-analytics generate       - Write a synthetic sales export
//   sales-analytics catalog serve  - Serve a catalog JSON file over HTTP
//   sales-analytics version        - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Pipeline stages and ambient stack
//   - pkg/       : Shared file utilities
//   - data/      : Sample sales export
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sales-analytics/cmd"
)

func main() {
	cmd.Execute()
}
