package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
)

func NewMonitorCommand() *cobra.Command {
	var (
		port      string
		baud      int
		threshold int
	)
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Read telemetry from a serial port until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := serial.Open(port, &serial.Mode{
				BaudRate: baud,
				DataBits: 8,
				Parity:   serial.NoParity,
				StopBits: serial.OneStopBit,
			})
			if err != nil {
				return errors.Wrapf(err, "failed to open %s", port)
			}
			logrus.WithFields(logrus.Fields{"port": port, "baud": baud}).Info("monitoring")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			go func() {
				<-ctx.Done()
				// Unblocks the reader.
				_ = p.Close()
			}()

			sum := NewSummary()
			err = consume(p, cmd.OutOrStdout(), sum, uint8(threshold))
			sum.Print(cmd.OutOrStdout())
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "serial read")
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "/dev/ttyACM0", "serial device")
	cmd.Flags().IntVarP(&baud, "baud", "b", 115200, "baud rate")
	cmd.Flags().IntVar(&threshold, "low-confidence", 60, "confidence below which readings are shown in red")
	return cmd
}
