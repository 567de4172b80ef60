package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewReplayCommand() *cobra.Command {
	var threshold int
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Decode a captured telemetry log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "failed to open capture")
			}
			defer f.Close()

			sum := NewSummary()
			if err := consume(f, cmd.OutOrStdout(), sum, uint8(threshold)); err != nil {
				return errors.Wrapf(err, "failed to read %s", args[0])
			}
			sum.Print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().IntVar(&threshold, "low-confidence", 60, "confidence below which readings are shown in red")
	return cmd
}
