// Command ir3c is a batch driver over the IR core's textual listing
// format: parse, run a pass, print the result. It exists for manual
// inspection and golden-file testing of copy-propagation and post-RA
// scheduling, not as a production shader compiler entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "ir3c",
		Short: "IR core driver: copy-propagation and post-RA scheduling over a textual listing",
	}
	root.AddCommand(newDumpCmd())
	root.AddCommand(newScheduleCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
