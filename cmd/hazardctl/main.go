// Command hazardctl queries the analyst backend from the terminal: hazard
// reports, dashboard counters, heatmap intensities and the risk table, and
// can file a hazard report.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
