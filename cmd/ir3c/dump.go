package main

import (
	"fmt"
	"os"

	"github.com/external-mirrors/mesa-sub002/internal/copyprop"
	"github.com/external-mirrors/mesa-sub002/internal/ir"
	"github.com/external-mirrors/mesa-sub002/internal/irtext"
	"github.com/external-mirrors/mesa-sub002/internal/logging"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	var lowerImmToConst bool
	var quirkedTarget bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "dump [listing]",
		Short: "Parse a textual IR listing, run copy-propagation, and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(os.Stderr, verbose)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading listing: %w", err)
			}

			s, err := irtext.Parse(string(data), ir.StageFragment)
			if err != nil {
				return fmt.Errorf("parsing listing: %w", err)
			}
			s.RebuildUses()

			opt := copyprop.Options{LowerImmToConst: lowerImmToConst, QuirkedTarget: quirkedTarget}
			progress := copyprop.Run(s, opt)
			log.Debug("copy propagation finished", "progress", progress)

			s.Validate(false)

			fmt.Print(irtext.Print(s))
			return nil
		},
	}
	cmd.Flags().BoolVar(&lowerImmToConst, "lower-imm-to-const", false, "demote immediates a consumer refuses inline to constant-pool references")
	cmd.Flags().BoolVar(&quirkedTarget, "quirked-target", false, "enable the cat3-position-2-relative-offset-0 ISA workaround")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}
