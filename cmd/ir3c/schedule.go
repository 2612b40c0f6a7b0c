package main

import (
	"fmt"
	"os"

	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/irtext"
	"github.com/external-mirrors/mesa-sub002/internal/logging"
	"github.com/external-mirrors/mesa-sub002/internal/postra"
	"github.com/spf13/cobra"
)

func newScheduleCmd() *cobra.Command {
	var mergedRegs bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "schedule [listing]",
		Short: "Run the post-RA scheduler over a register-allocated listing and print it with sync flags and nop counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(os.Stderr, verbose)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading listing: %w", err)
			}

			s, err := irtext.ParsePostRA(string(data), ir.StageFragment)
			if err != nil {
				return fmt.Errorf("parsing listing: %w", err)
			}
			s.ComputeDominance()

			log.Debug("scheduling", "blocks", len(s.Blocks()), "merged_regs", mergedRegs)
			postra.Schedule(s, postra.Options{MergedRegs: mergedRegs})

			fmt.Print(irtext.Print(s))
			return nil
		},
	}
	cmd.Flags().BoolVar(&mergedRegs, "merged-regs", false, "treat half and full register files as overlapping (merged-regs targets)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}
